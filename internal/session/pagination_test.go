package session

import (
	"testing"

	"musicsaver/searchservice/internal/domain"
)

func TestPage(t *testing.T) {
	tracks := testTracks("a", "b", "c", "d", "e", "f", "g")

	tests := []struct {
		name   string
		offset int
		size   int
		want   []string
	}{
		{"first page", 0, 5, []string{"a", "b", "c", "d", "e"}},
		{"partial last page", 5, 5, []string{"f", "g"}},
		{"offset at end", 7, 5, nil},
		{"offset past end", 100, 5, nil},
		{"negative offset floors to zero", -2, 3, []string{"a", "b", "c"}},
		{"zero size uses default", 0, 0, []string{"a", "b", "c", "d", "e"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := Page(tracks, tt.offset, tt.size)
			if len(page) != len(tt.want) {
				t.Fatalf("page length = %d, want %d", len(page), len(tt.want))
			}
			for i, track := range page {
				if track.Title != tt.want[i] {
					t.Fatalf("page[%d] = %q, want %q", i, track.Title, tt.want[i])
				}
			}
		})
	}
}

func TestPageEmptyInput(t *testing.T) {
	if page := Page(nil, 0, 5); page != nil {
		t.Fatalf("expected nil page, got %v", page)
	}
	if page := Page([]domain.Track{}, 0, 5); page != nil {
		t.Fatalf("expected nil page, got %v", page)
	}
}

func TestNextOffset(t *testing.T) {
	tests := []struct {
		name    string
		current int
		total   int
		size    int
		want    int
		moved   bool
	}{
		{"advances one page", 0, 12, 5, 5, true},
		{"advances to last partial page", 5, 12, 5, 10, true},
		{"refuses to pass the end", 10, 12, 5, 10, false},
		{"exact boundary stays put", 5, 10, 5, 5, false},
		{"empty result set", 0, 0, 5, 0, false},
		{"single short page", 0, 3, 5, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, moved := NextOffset(tt.current, tt.total, tt.size)
			if got != tt.want || moved != tt.moved {
				t.Fatalf("NextOffset(%d, %d, %d) = (%d, %v), want (%d, %v)",
					tt.current, tt.total, tt.size, got, moved, tt.want, tt.moved)
			}
		})
	}
}

func TestPrevOffset(t *testing.T) {
	tests := []struct {
		name    string
		current int
		size    int
		want    int
	}{
		{"steps back one page", 10, 5, 5},
		{"floors at zero", 3, 5, 0},
		{"already at zero", 0, 5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PrevOffset(tt.current, tt.size); got != tt.want {
				t.Fatalf("PrevOffset(%d, %d) = %d, want %d", tt.current, tt.size, got, tt.want)
			}
		})
	}
}

func TestHasNextPage(t *testing.T) {
	if !HasNextPage(0, 12, 5) {
		t.Fatal("expected a next page at the start of 12 results")
	}
	if HasNextPage(10, 12, 5) {
		t.Fatal("expected no next page on the last partial page")
	}
}
