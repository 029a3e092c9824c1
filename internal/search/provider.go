package search

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"musicsaver/searchservice/internal/domain"
)

var (
	ErrInvalidQuery = errors.New("query is required")
	ErrInvalidLimit = errors.New("limit must be > 0")
	ErrNoProviders  = errors.New("no search providers configured")
)

// Provider is one external track catalog the aggregator fans out to.
type Provider interface {
	Name() string
	Info() domain.ProviderInfo
	Search(ctx context.Context, request domain.SearchRequest) ([]domain.Track, error)
}

const (
	defaultProviderTimeout = 10 * time.Second
	defaultDedupeThreshold = 85
	defaultExactBonus      = 20
)

// Service runs concurrent provider queries and merges their results into one
// deduplicated, relevance-ranked track list.
type Service struct {
	providers       []Provider
	timeout         time.Duration
	dedupeThreshold int
	exactBonus      int
	healthMu        sync.Mutex
	health          map[string]*providerHealth
}

type ServiceOption func(*Service)

// WithDedupeThreshold overrides the fuzzy similarity (0-100) above which two
// track keys are considered the same track.
func WithDedupeThreshold(threshold int) ServiceOption {
	return func(s *Service) {
		if threshold > 0 && threshold <= 100 {
			s.dedupeThreshold = threshold
		}
	}
}

// WithExactMatchBonus overrides the flat score bonus for a literal substring
// match between the query and a track's title or artist.
func WithExactMatchBonus(bonus int) ServiceOption {
	return func(s *Service) {
		if bonus >= 0 {
			s.exactBonus = bonus
		}
	}
}

func NewService(providers []Provider, timeout time.Duration, opts ...ServiceOption) *Service {
	registered := make([]Provider, 0, len(providers))
	seen := make(map[string]struct{}, len(providers))
	for _, provider := range providers {
		if provider == nil {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(provider.Name()))
		if name == "" {
			continue
		}
		if _, exists := seen[name]; exists {
			continue
		}
		seen[name] = struct{}{}
		registered = append(registered, provider)
	}

	if timeout <= 0 {
		timeout = defaultProviderTimeout
	}

	svc := &Service{
		providers:       registered,
		timeout:         timeout,
		dedupeThreshold: defaultDedupeThreshold,
		exactBonus:      defaultExactBonus,
		health:          make(map[string]*providerHealth),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (s *Service) Providers() []domain.ProviderInfo {
	if len(s.providers) == 0 {
		return nil
	}
	items := make([]domain.ProviderInfo, 0, len(s.providers))
	for _, provider := range s.providers {
		info := provider.Info()
		info.Name = strings.ToLower(strings.TrimSpace(info.Name))
		if info.Name == "" {
			info.Name = strings.ToLower(strings.TrimSpace(provider.Name()))
		}
		if info.Name == "" {
			continue
		}
		if info.Label == "" {
			info.Label = info.Name
		}
		items = append(items, info)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].Name < items[j].Name
	})
	return items
}
