package search

import (
	"reflect"
	"testing"

	"musicsaver/searchservice/internal/domain"
)

func TestRankPutsBestMatchFirst(t *testing.T) {
	tracks := []domain.Track{
		{Title: "Something Else Entirely", Artist: "Another Band"},
		{Title: "Shape of You", Artist: "Ed Sheeran"},
	}

	ranked := rankTracks(tracks, "shape of you", defaultExactBonus)
	if ranked[0].Title != "Shape of You" {
		t.Fatalf("expected exact match first, got %#v", ranked[0])
	}
}

func TestRankMatchesOnArtist(t *testing.T) {
	tracks := []domain.Track{
		{Title: "Unrelated", Artist: "Somebody"},
		{Title: "Perfect", Artist: "Ed Sheeran"},
	}

	ranked := rankTracks(tracks, "ed sheeran", defaultExactBonus)
	if ranked[0].Artist != "Ed Sheeran" {
		t.Fatalf("expected artist match first, got %#v", ranked[0])
	}
}

func TestRankIsStableForTies(t *testing.T) {
	tracks := []domain.Track{
		{Title: "Song Alpha", Artist: "Artist"},
		{Title: "Song Beta", Artist: "Artist"},
		{Title: "Song Gamma", Artist: "Artist"},
	}

	// "artist" is a substring of every artist, so all scores tie.
	ranked := rankTracks(tracks, "artist", defaultExactBonus)
	if !reflect.DeepEqual(ranked, tracks) {
		t.Fatalf("tie order changed:\n got %#v\nwant %#v", ranked, tracks)
	}
}

func TestRankIsDeterministic(t *testing.T) {
	tracks := []domain.Track{
		{Title: "Shape of My Heart", Artist: "Sting"},
		{Title: "Shape of You", Artist: "Ed Sheeran"},
		{Title: "Shivers", Artist: "Ed Sheeran"},
	}

	first := rankTracks(tracks, "shape of you", defaultExactBonus)
	second := rankTracks(tracks, "shape of you", defaultExactBonus)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("ranking not deterministic:\n first %#v\nsecond %#v", first, second)
	}
}

func TestRankShortInputsPassThrough(t *testing.T) {
	if got := rankTracks(nil, "query", defaultExactBonus); got != nil {
		t.Fatalf("expected nil passthrough, got %#v", got)
	}
	single := []domain.Track{{Title: "One", Artist: "Only"}}
	if got := rankTracks(single, "query", defaultExactBonus); len(got) != 1 {
		t.Fatalf("expected single track passthrough, got %#v", got)
	}
}

func TestRelevanceScoreAppliesExactMatchBonus(t *testing.T) {
	match := domain.Track{Title: "Shape of You", Artist: "Ed Sheeran"}

	with := relevanceScore("shape of you", match, defaultExactBonus)
	without := relevanceScore("shape of you", match, 0)
	if with-without != defaultExactBonus {
		t.Fatalf("bonus not applied: with=%d without=%d", with, without)
	}

	noMatch := domain.Track{Title: "Completely Different", Artist: "Someone"}
	if a, b := relevanceScore("shape of you", noMatch, defaultExactBonus), relevanceScore("shape of you", noMatch, 0); a != b {
		t.Fatalf("bonus applied without substring match: %d vs %d", a, b)
	}
}
