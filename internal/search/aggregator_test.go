package search

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"musicsaver/searchservice/internal/domain"
)

type fakeProvider struct {
	name   string
	tracks []domain.Track
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Info() domain.ProviderInfo {
	return domain.ProviderInfo{Name: p.name, Label: p.name, Kind: "test", Enabled: true}
}

func (p *fakeProvider) Search(ctx context.Context, request domain.SearchRequest) ([]domain.Track, error) {
	_ = ctx
	_ = request
	return append([]domain.Track(nil), p.tracks...), nil
}

type failingProvider struct {
	name string
	err  error
}

func (p *failingProvider) Name() string { return p.name }

func (p *failingProvider) Info() domain.ProviderInfo {
	return domain.ProviderInfo{Name: p.name, Label: p.name, Kind: "test", Enabled: true}
}

func (p *failingProvider) Search(ctx context.Context, request domain.SearchRequest) ([]domain.Track, error) {
	return nil, p.err
}

type slowProvider struct {
	name   string
	tracks []domain.Track
	delay  time.Duration
}

func (p *slowProvider) Name() string { return p.name }

func (p *slowProvider) Info() domain.ProviderInfo {
	return domain.ProviderInfo{Name: p.name, Label: p.name, Kind: "test", Enabled: true}
}

func (p *slowProvider) Search(ctx context.Context, request domain.SearchRequest) ([]domain.Track, error) {
	select {
	case <-time.After(p.delay):
		return append([]domain.Track(nil), p.tracks...), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func track(title, artist string, duration int, source string) domain.Track {
	return domain.Track{
		Title:           title,
		Artist:          artist,
		DurationSeconds: duration,
		PreviewURL:      "https://cdn/" + source + "/preview.mp3",
		FullAudioURL:    "https://cdn/" + source + "/preview.mp3",
		SourceName:      source,
	}
}

// ---------------------------------------------------------------------------
// Search — argument validation
// ---------------------------------------------------------------------------

func TestSearchEmptyQuery(t *testing.T) {
	service := NewService([]Provider{&fakeProvider{name: "test"}}, time.Second)
	if _, err := service.Search(context.Background(), "   ", 5); !errors.Is(err, ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
}

func TestSearchInvalidLimit(t *testing.T) {
	service := NewService([]Provider{&fakeProvider{name: "test"}}, time.Second)
	for _, limit := range []int{0, -1} {
		if _, err := service.Search(context.Background(), "query", limit); !errors.Is(err, ErrInvalidLimit) {
			t.Fatalf("limit %d: expected ErrInvalidLimit, got %v", limit, err)
		}
	}
}

func TestSearchNoProviders(t *testing.T) {
	service := NewService(nil, time.Second)
	if _, err := service.Search(context.Background(), "query", 5); !errors.Is(err, ErrNoProviders) {
		t.Fatalf("expected ErrNoProviders, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Search — fan-out behavior
// ---------------------------------------------------------------------------

func TestSearchMergesAndDeduplicatesAcrossProviders(t *testing.T) {
	service := NewService([]Provider{
		&fakeProvider{
			name:   "first",
			tracks: []domain.Track{track("Shape of You", "Ed Sheeran", 233, "first")},
		},
		&fakeProvider{
			name:   "second",
			tracks: []domain.Track{track("shape of you", "ed sheeran", 233, "second")},
		},
	}, time.Second)

	response, err := service.Search(context.Background(), "shape of you", 10)
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if len(response.Tracks) != 1 {
		t.Fatalf("expected 1 deduplicated track, got %d", len(response.Tracks))
	}
	if response.Tracks[0].SourceName != "first" {
		t.Fatalf("expected first-seen track to win, got %#v", response.Tracks[0])
	}
	if response.TotalTracks != 1 {
		t.Fatalf("unexpected total: %d", response.TotalTracks)
	}
}

func TestSearchCapsAtLimit(t *testing.T) {
	service := NewService([]Provider{
		&fakeProvider{
			name: "catalog",
			tracks: []domain.Track{
				track("Song One", "Artist A", 200, "catalog"),
				track("Song Two", "Artist B", 210, "catalog"),
				track("Song Three", "Artist C", 220, "catalog"),
			},
		},
	}, time.Second)

	response, err := service.Search(context.Background(), "song", 2)
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if len(response.Tracks) != 2 {
		t.Fatalf("expected 2 tracks, got %d", len(response.Tracks))
	}
	if response.TotalTracks != 3 {
		t.Fatalf("expected total 3 before cap, got %d", response.TotalTracks)
	}
}

func TestSearchProviderFailureDoesNotAbortOthers(t *testing.T) {
	service := NewService([]Provider{
		&failingProvider{name: "broken", err: errors.New("boom")},
		&fakeProvider{
			name: "working",
			tracks: []domain.Track{
				track("Song One", "Artist A", 200, "working"),
				track("Song Two", "Artist B", 210, "working"),
				track("Song Three", "Artist C", 220, "working"),
			},
		},
	}, time.Second)

	response, err := service.Search(context.Background(), "song", 10)
	if err != nil {
		t.Fatalf("search must not fail when one provider fails: %v", err)
	}
	if len(response.Tracks) != 3 {
		t.Fatalf("expected 3 tracks from the working provider, got %d", len(response.Tracks))
	}

	var brokenStatus, workingStatus *domain.ProviderStatus
	for i := range response.Providers {
		switch response.Providers[i].Name {
		case "broken":
			brokenStatus = &response.Providers[i]
		case "working":
			workingStatus = &response.Providers[i]
		}
	}
	if brokenStatus == nil || brokenStatus.OK || brokenStatus.Error == "" {
		t.Fatalf("unexpected broken provider status: %#v", brokenStatus)
	}
	if workingStatus == nil || !workingStatus.OK || workingStatus.Count != 3 {
		t.Fatalf("unexpected working provider status: %#v", workingStatus)
	}
}

func TestSearchAllProvidersFailReturnsEmpty(t *testing.T) {
	service := NewService([]Provider{
		&failingProvider{name: "one", err: errors.New("down")},
		&failingProvider{name: "two", err: errors.New("also down")},
	}, time.Second)

	response, err := service.Search(context.Background(), "anything", 5)
	if err != nil {
		t.Fatalf("expected empty result, not error: %v", err)
	}
	if len(response.Tracks) != 0 {
		t.Fatalf("expected no tracks, got %d", len(response.Tracks))
	}
}

func TestSearchSlowProviderTimesOut(t *testing.T) {
	service := NewService([]Provider{
		&slowProvider{
			name:   "slow",
			delay:  2 * time.Second,
			tracks: []domain.Track{track("Never Seen", "Nobody", 100, "slow")},
		},
		&fakeProvider{
			name: "fast",
			tracks: []domain.Track{
				track("Song One", "Artist A", 200, "fast"),
				track("Song Two", "Artist B", 210, "fast"),
				track("Song Three", "Artist C", 220, "fast"),
			},
		},
	}, 100*time.Millisecond)

	response, err := service.Search(context.Background(), "song", 10)
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if len(response.Tracks) != 3 {
		t.Fatalf("expected only fast provider tracks, got %d", len(response.Tracks))
	}
	for _, item := range response.Tracks {
		if item.SourceName == "slow" {
			t.Fatalf("timed-out provider leaked a track: %#v", item)
		}
	}
}

func TestSearchDeterministicOrder(t *testing.T) {
	providers := []Provider{
		&fakeProvider{
			name: "first",
			tracks: []domain.Track{
				track("Shape of You", "Ed Sheeran", 233, "first"),
				track("Shape of My Heart", "Sting", 278, "first"),
			},
		},
		&fakeProvider{
			name:   "second",
			tracks: []domain.Track{track("Perfect", "Ed Sheeran", 263, "second")},
		},
	}
	service := NewService(providers, time.Second)

	first, err := service.Search(context.Background(), "shape of you", 10)
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	second, err := service.Search(context.Background(), "shape of you", 10)
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if !reflect.DeepEqual(first.Tracks, second.Tracks) {
		t.Fatalf("expected deterministic order:\n first %#v\nsecond %#v", first.Tracks, second.Tracks)
	}
	if first.Tracks[0].Title != "Shape of You" {
		t.Fatalf("expected best match first, got %#v", first.Tracks[0])
	}
}

// ---------------------------------------------------------------------------
// Provider registry
// ---------------------------------------------------------------------------

func TestNewServiceDropsDuplicateAndNilProviders(t *testing.T) {
	service := NewService([]Provider{
		nil,
		&fakeProvider{name: "dup"},
		&fakeProvider{name: "DUP"},
		&fakeProvider{name: ""},
	}, time.Second)

	infos := service.Providers()
	if len(infos) != 1 {
		t.Fatalf("expected 1 registered provider, got %d", len(infos))
	}
	if infos[0].Name != "dup" {
		t.Fatalf("unexpected provider: %#v", infos[0])
	}
}

func TestProviderDiagnosticsTracksFailures(t *testing.T) {
	service := NewService([]Provider{
		&failingProvider{name: "flaky", err: errors.New("boom")},
	}, time.Second)

	for i := 0; i < providerFailureThreshold; i++ {
		if _, err := service.Search(context.Background(), "query", 5); err != nil {
			t.Fatalf("search error: %v", err)
		}
	}

	diags := service.ProviderDiagnostics()
	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic entry, got %d", len(diags))
	}
	if diags[0].ConsecutiveFailures != providerFailureThreshold {
		t.Fatalf("unexpected failure count: %d", diags[0].ConsecutiveFailures)
	}
	if diags[0].BlockedUntil == nil {
		t.Fatal("expected provider to be blocked after repeated failures")
	}

	// A blocked provider is skipped, not queried.
	response, err := service.Search(context.Background(), "query", 5)
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if response.Providers[0].OK {
		t.Fatalf("expected blocked status, got %#v", response.Providers[0])
	}
	if diags[0].TotalRequests != providerFailureThreshold {
		t.Fatalf("blocked provider should not accumulate requests, got %d", diags[0].TotalRequests)
	}
}
