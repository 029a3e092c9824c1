package search

import (
	"sort"
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"musicsaver/searchservice/internal/domain"
)

// rankTracks orders tracks by descending relevance to the query. The sort is
// stable, so ties keep the order the deduplicator produced. Ranking never
// fails; a query matching nothing just yields uniformly low scores.
func rankTracks(tracks []domain.Track, query string, exactBonus int) []domain.Track {
	if len(tracks) < 2 {
		return tracks
	}

	queryLower := strings.ToLower(strings.TrimSpace(query))

	type scoredTrack struct {
		track domain.Track
		score int
	}
	scored := make([]scoredTrack, len(tracks))
	for i, track := range tracks {
		scored[i] = scoredTrack{track: track, score: relevanceScore(queryLower, track, exactBonus)}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	ranked := make([]domain.Track, len(scored))
	for i, item := range scored {
		ranked[i] = item.track
	}
	return ranked
}

// relevanceScore is the best partial-ratio alignment of the query against the
// title, the artist and the combined "artist title" string, plus a flat bonus
// when the query appears verbatim in the title or artist.
func relevanceScore(queryLower string, track domain.Track, exactBonus int) int {
	titleLower := strings.ToLower(track.Title)
	artistLower := strings.ToLower(track.Artist)

	score := fuzzy.PartialRatio(queryLower, titleLower)
	if artistScore := fuzzy.PartialRatio(queryLower, artistLower); artistScore > score {
		score = artistScore
	}
	if combinedScore := fuzzy.PartialRatio(queryLower, artistLower+" "+titleLower); combinedScore > score {
		score = combinedScore
	}

	if strings.Contains(titleLower, queryLower) || strings.Contains(artistLower, queryLower) {
		score += exactBonus
	}
	return score
}
