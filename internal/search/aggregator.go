package search

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"log/slog"

	"golang.org/x/sync/semaphore"
	"musicsaver/searchservice/internal/domain"
	"musicsaver/searchservice/internal/metrics"
)

// maxConcurrentProviders bounds simultaneous provider queries so a long
// provider list cannot exhaust sockets or hammer upstream catalogs.
const maxConcurrentProviders = 10

// Search fans the query out to every registered provider, joins all results,
// removes near-duplicates and returns up to limit tracks ranked by relevance.
// A provider failure is logged and excluded; it never fails the search. An
// empty result set is a normal outcome, not an error.
func (s *Service) Search(ctx context.Context, query string, limit int) (domain.SearchResponse, error) {
	normalizedQuery := strings.TrimSpace(query)
	if normalizedQuery == "" {
		return domain.SearchResponse{}, ErrInvalidQuery
	}
	if limit <= 0 {
		return domain.SearchResponse{}, ErrInvalidLimit
	}
	if len(s.providers) == 0 {
		return domain.SearchResponse{}, ErrNoProviders
	}

	startedAt := time.Now()
	statuses := make([]domain.ProviderStatus, len(s.providers))
	collected := make([][]domain.Track, len(s.providers))

	sem := semaphore.NewWeighted(maxConcurrentProviders)
	var wg sync.WaitGroup
	for i, provider := range s.providers {
		wg.Add(1)
		go func(index int, current Provider) {
			defer wg.Done()

			providerKey := strings.ToLower(strings.TrimSpace(current.Name()))
			statusName := strings.ToLower(strings.TrimSpace(current.Info().Name))
			if statusName == "" {
				statusName = providerKey
			}

			if err := sem.Acquire(ctx, 1); err != nil {
				statuses[index] = domain.ProviderStatus{
					Name:  statusName,
					OK:    false,
					Error: "context cancelled",
				}
				return
			}
			defer sem.Release(1)

			now := time.Now()
			if blocked, until, lastErr := s.isProviderBlocked(providerKey, now); blocked {
				statuses[index] = domain.ProviderStatus{
					Name:  statusName,
					OK:    false,
					Error: fmt.Sprintf("provider temporarily unhealthy until %s: %s", until.UTC().Format(time.RFC3339), lastErr),
				}
				return
			}

			// Each provider call carries its own timeout so one slow catalog
			// cannot hold up or cancel the rest of the fan-out.
			callCtx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			providerStartedAt := time.Now()
			tracks, searchErr := current.Search(callCtx, domain.SearchRequest{
				Query: normalizedQuery,
				Limit: limit,
			})
			elapsed := time.Since(providerStartedAt)
			s.recordProviderResult(providerKey, normalizedQuery, searchErr, elapsed, time.Now())

			status := domain.ProviderStatus{
				Name: statusName,
				OK:   searchErr == nil,
			}
			if searchErr != nil {
				status.Error = searchErr.Error()
				slog.Warn("provider search failed",
					slog.String("provider", providerKey),
					slog.String("query", normalizedQuery),
					slog.Int64("elapsedMs", elapsed.Milliseconds()),
					slog.String("error", searchErr.Error()),
				)
			} else {
				status.Count = len(tracks)
				collected[index] = tracks
				slog.Debug("provider search completed",
					slog.String("provider", providerKey),
					slog.String("query", normalizedQuery),
					slog.Int("results", len(tracks)),
					slog.Int64("elapsedMs", elapsed.Milliseconds()),
				)
			}
			statuses[index] = status
		}(i, provider)
	}
	wg.Wait()

	// Concatenate in registration order: within one provider the upstream
	// order is preserved, which is what makes dedupe's first-seen rule
	// deterministic.
	merged := make([]domain.Track, 0, limit*len(s.providers))
	for _, tracks := range collected {
		merged = append(merged, tracks...)
	}

	unique := dedupeTracks(merged, s.dedupeThreshold)
	if dropped := len(merged) - len(unique); dropped > 0 {
		metrics.DuplicatesDroppedTotal.Add(float64(dropped))
	}
	ranked := rankTracks(unique, normalizedQuery, s.exactBonus)

	total := len(ranked)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	slog.Info("search completed",
		slog.String("query", normalizedQuery),
		slog.Int("providers", len(s.providers)),
		slog.Int("merged", len(merged)),
		slog.Int("returned", len(ranked)),
		slog.Int64("elapsedMs", time.Since(startedAt).Milliseconds()),
	)

	return domain.SearchResponse{
		Query:       normalizedQuery,
		Tracks:      ranked,
		Providers:   statuses,
		ElapsedMS:   time.Since(startedAt).Milliseconds(),
		TotalTracks: total,
	}, nil
}
