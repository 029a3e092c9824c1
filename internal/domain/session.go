package domain

import "time"

// Session is the cached result set of a user's most recent search plus the
// pagination cursor into it. At most one non-expired session exists per user;
// a new search replaces the previous one. The JSON shape is what the Redis
// store persists.
type Session struct {
	UserID    int64     `json:"userId"`
	Query     string    `json:"query"`
	Tracks    []Track   `json:"tracks"`
	Offset    int       `json:"currentOffset"`
	CreatedAt time.Time `json:"createdAt"`
}

// ExpiredAt reports whether the session is older than ttl at the given time.
func (s Session) ExpiredAt(now time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return now.Sub(s.CreatedAt) > ttl
}
