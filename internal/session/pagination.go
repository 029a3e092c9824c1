package session

import "musicsaver/searchservice/internal/domain"

// DefaultPageSize is how many tracks one results page carries.
const DefaultPageSize = 5

// Page returns the slice of tracks visible at the given cursor. An offset at
// or past the end yields an empty page.
func Page(tracks []domain.Track, offset, size int) []domain.Track {
	if size <= 0 {
		size = DefaultPageSize
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(tracks) {
		return nil
	}
	end := offset + size
	if end > len(tracks) {
		end = len(tracks)
	}
	return tracks[offset:end]
}

// NextOffset advances the cursor by one page. It refuses to move past the
// last track and reports whether the cursor changed.
func NextOffset(current, total, size int) (int, bool) {
	if size <= 0 {
		size = DefaultPageSize
	}
	if current < 0 {
		current = 0
	}
	next := current + size
	if next >= total {
		return current, false
	}
	return next, true
}

// PrevOffset moves the cursor back one page, flooring at zero.
func PrevOffset(current, size int) int {
	if size <= 0 {
		size = DefaultPageSize
	}
	prev := current - size
	if prev < 0 {
		return 0
	}
	return prev
}

// HasNextPage reports whether another page exists past the cursor.
func HasNextPage(current, total, size int) bool {
	_, ok := NextOffset(current, total, size)
	return ok
}
