package deezer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"musicsaver/searchservice/internal/domain"
)

const samplePayload = `{
	"data": [
		{"id":3135556,"title":"Harder, Better, Faster, Stronger","duration":224,"preview":"https://cdn/preview.mp3","artist":{"name":"Daft Punk"},"album":{"title":"Discovery","cover_medium":"https://cdn/cover.jpg"}},
		{"id":0,"title":"","duration":-3,"artist":{},"album":{}}
	],
	"total": 2
}`

func TestSearchParsesResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "daft punk" {
			t.Errorf("unexpected query: %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(samplePayload))
	}))
	defer server.Close()

	provider := NewProvider(Config{Endpoint: server.URL, Client: server.Client()})
	tracks, err := provider.Search(context.Background(), domain.SearchRequest{Query: "daft punk", Limit: 10})
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if len(tracks) != 2 {
		t.Fatalf("expected 2 tracks, got %d", len(tracks))
	}

	first := tracks[0]
	if first.Title != "Harder, Better, Faster, Stronger" || first.Artist != "Daft Punk" {
		t.Fatalf("unexpected track: %#v", first)
	}
	if first.DurationSeconds != 224 {
		t.Fatalf("unexpected duration: %d", first.DurationSeconds)
	}
	if first.Album != "Discovery" || first.ArtworkURL != "https://cdn/cover.jpg" {
		t.Fatalf("unexpected album fields: %#v", first)
	}
	if first.SourceID != "3135556" || first.SourceName != "deezer" {
		t.Fatalf("unexpected source fields: %#v", first)
	}

	second := tracks[1]
	if second.Title != domain.UnknownField || second.Artist != domain.UnknownField {
		t.Fatalf("expected sentinel title/artist, got %#v", second)
	}
	if second.DurationSeconds != 0 {
		t.Fatalf("expected clamped duration, got %d", second.DurationSeconds)
	}
}

func TestSearchSurfacesEmbeddedError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error":{"type":"Exception","message":"Quota limit exceeded","code":4}}`))
	}))
	defer server.Close()

	provider := NewProvider(Config{Endpoint: server.URL, Client: server.Client()})
	if _, err := provider.Search(context.Background(), domain.SearchRequest{Query: "x"}); err == nil {
		t.Fatal("expected error for embedded error payload")
	}
}

func TestSearchRejectsNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	provider := NewProvider(Config{Endpoint: server.URL, Client: server.Client()})
	if _, err := provider.Search(context.Background(), domain.SearchRequest{Query: "x"}); err == nil {
		t.Fatal("expected error for HTTP 503")
	}
}
