package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"musicsaver/searchservice/internal/domain"
	"musicsaver/searchservice/internal/metrics"
)

const redisKeyPrefix = "msearch:session:"

// RedisStore persists sessions in Redis so pagination survives process
// restarts. Expiry is delegated to Redis key TTLs.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func sessionKey(userID int64) string {
	return fmt.Sprintf("%s%d", redisKeyPrefix, userID)
}

func (r *RedisStore) SaveSearch(ctx context.Context, userID int64, query string, tracks []domain.Track) error {
	session := domain.Session{
		UserID:    userID,
		Query:     query,
		Tracks:    tracks,
		Offset:    0,
		CreatedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := r.client.Set(ctx, sessionKey(userID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *RedisStore) GetSession(ctx context.Context, userID int64) (domain.Session, bool, error) {
	data, err := r.client.Get(ctx, sessionKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.SessionMissesTotal.Inc()
		return domain.Session{}, false, nil
	}
	if err != nil {
		return domain.Session{}, false, fmt.Errorf("redis get: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		// Unreadable payloads are treated as absent rather than poisoning
		// every pagination call for this user.
		_ = r.client.Del(ctx, sessionKey(userID)).Err()
		metrics.SessionMissesTotal.Inc()
		return domain.Session{}, false, nil
	}
	metrics.SessionHitsTotal.Inc()
	return session, true, nil
}

func (r *RedisStore) GetTracks(ctx context.Context, userID int64) ([]domain.Track, bool, error) {
	session, ok, err := r.GetSession(ctx, userID)
	if err != nil || !ok {
		return nil, false, err
	}
	return session.Tracks, true, nil
}

func (r *RedisStore) GetOffset(ctx context.Context, userID int64) (int, error) {
	session, ok, err := r.GetSession(ctx, userID)
	if err != nil || !ok {
		return 0, err
	}
	return session.Offset, nil
}

func (r *RedisStore) SetOffset(ctx context.Context, userID int64, offset int) error {
	if offset < 0 {
		offset = 0
	}

	key := sessionKey(userID)
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("redis get: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		_ = r.client.Del(ctx, key).Err()
		return nil
	}
	session.Offset = offset

	updated, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	// KeepTTL so moving the cursor never extends the session's lifetime.
	if err := r.client.Set(ctx, key, updated, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *RedisStore) DeleteSession(ctx context.Context, userID int64) error {
	if err := r.client.Del(ctx, sessionKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// CleanupExpired is a no-op for Redis: key TTLs evict sessions server-side.
func (r *RedisStore) CleanupExpired(context.Context) (int, error) {
	return 0, nil
}
