package search

import (
	"strings"
	"unicode"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"musicsaver/searchservice/internal/domain"
)

// accentFolder strips combining marks so "Beyoncé" and "Beyonce" produce the
// same dedupe key.
var accentFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// dedupeTracks removes near-duplicate tracks, keeping the first occurrence.
// Each candidate's normalized "title_artist" key is compared against every
// already accepted key; a fuzzy ratio above threshold marks it a duplicate.
// Pairwise comparison is quadratic, which is fine for per-query result counts
// in the tens.
func dedupeTracks(tracks []domain.Track, threshold int) []domain.Track {
	if len(tracks) == 0 {
		return nil
	}

	unique := make([]domain.Track, 0, len(tracks))
	accepted := make([]string, 0, len(tracks))

	for _, track := range tracks {
		key := trackKey(track)
		duplicate := false
		for _, seen := range accepted {
			if fuzzy.Ratio(key, seen) > threshold {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}
		unique = append(unique, track)
		accepted = append(accepted, key)
	}
	return unique
}

func trackKey(track domain.Track) string {
	return normalizeKeyPart(track.Title) + "_" + normalizeKeyPart(track.Artist)
}

func normalizeKeyPart(raw string) string {
	value := strings.ToLower(strings.TrimSpace(raw))
	if folded, _, err := transform.String(accentFolder, value); err == nil {
		value = folded
	}
	return value
}
