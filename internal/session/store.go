package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"musicsaver/searchservice/internal/domain"
	"musicsaver/searchservice/internal/metrics"
)

const (
	// DefaultTTL is how long a saved search stays usable for pagination.
	DefaultTTL = time.Hour
	// DefaultCleanupInterval is how often the janitor sweeps expired sessions.
	DefaultCleanupInterval = 10 * time.Minute
)

// Store holds at most one live search session per user. Saving a search
// replaces the previous session; sessions older than the TTL behave exactly
// like absent ones.
type Store interface {
	SaveSearch(ctx context.Context, userID int64, query string, tracks []domain.Track) error
	GetSession(ctx context.Context, userID int64) (domain.Session, bool, error)
	GetTracks(ctx context.Context, userID int64) ([]domain.Track, bool, error)
	GetOffset(ctx context.Context, userID int64) (int, error)
	SetOffset(ctx context.Context, userID int64, offset int) error
	DeleteSession(ctx context.Context, userID int64) error
	CleanupExpired(ctx context.Context) (int, error)
}

// MemoryStore keeps sessions in process memory. A single mutex serializes
// all mutations, which also satisfies the per-user write serialization the
// pagination handlers rely on.
type MemoryStore struct {
	ttl        time.Duration
	now        func() time.Time
	mu         sync.Mutex
	sessions   map[int64]*domain.Session
	janitorRun atomic.Bool
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[int64]*domain.Session),
	}
}

func (m *MemoryStore) SaveSearch(_ context.Context, userID int64, query string, tracks []domain.Track) error {
	session := &domain.Session{
		UserID:    userID,
		Query:     query,
		Tracks:    append([]domain.Track(nil), tracks...),
		Offset:    0,
		CreatedAt: m.now().UTC(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[userID] = session
	metrics.SessionsActive.Set(float64(len(m.sessions)))
	return nil
}

func (m *MemoryStore) GetSession(_ context.Context, userID int64) (domain.Session, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.liveSessionLocked(userID, m.now())
	if !ok {
		metrics.SessionMissesTotal.Inc()
		return domain.Session{}, false, nil
	}
	metrics.SessionHitsTotal.Inc()

	snapshot := *session
	snapshot.Tracks = append([]domain.Track(nil), session.Tracks...)
	return snapshot, true, nil
}

func (m *MemoryStore) GetTracks(ctx context.Context, userID int64) ([]domain.Track, bool, error) {
	session, ok, err := m.GetSession(ctx, userID)
	if err != nil || !ok {
		return nil, false, err
	}
	return session.Tracks, true, nil
}

func (m *MemoryStore) GetOffset(_ context.Context, userID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.liveSessionLocked(userID, m.now())
	if !ok {
		return 0, nil
	}
	return session.Offset, nil
}

// SetOffset updates the pagination cursor of the live session. With no live
// session it is a no-op; the caller finds out through GetTracks.
func (m *MemoryStore) SetOffset(_ context.Context, userID int64, offset int) error {
	if offset < 0 {
		offset = 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.liveSessionLocked(userID, m.now())
	if !ok {
		return nil
	}
	session.Offset = offset
	return nil
}

func (m *MemoryStore) DeleteSession(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
	metrics.SessionsActive.Set(float64(len(m.sessions)))
	return nil
}

func (m *MemoryStore) CleanupExpired(_ context.Context) (int, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for userID, session := range m.sessions {
		if session.ExpiredAt(now, m.ttl) {
			delete(m.sessions, userID)
			removed++
		}
	}
	metrics.SessionsActive.Set(float64(len(m.sessions)))
	return removed, nil
}

// StartJanitor runs CleanupExpired on a ticker until ctx is done. Calling it
// more than once is a no-op.
func (m *MemoryStore) StartJanitor(ctx context.Context, interval time.Duration) {
	if !m.janitorRun.CompareAndSwap(false, true) {
		return
	}
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_, _ = m.CleanupExpired(ctx)
			}
		}
	}()
}

// liveSessionLocked returns the user's session if present and unexpired.
// Expired sessions are removed on sight so they are indistinguishable from
// absent ones.
func (m *MemoryStore) liveSessionLocked(userID int64, now time.Time) (*domain.Session, bool) {
	session, ok := m.sessions[userID]
	if !ok {
		return nil, false
	}
	if session.ExpiredAt(now, m.ttl) {
		delete(m.sessions, userID)
		metrics.SessionsActive.Set(float64(len(m.sessions)))
		return nil, false
	}
	return session, true
}
