package apihttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"musicsaver/searchservice/internal/domain"
	"musicsaver/searchservice/internal/search"
	"musicsaver/searchservice/internal/session"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type SearchService interface {
	Search(ctx context.Context, query string, limit int) (domain.SearchResponse, error)
	Providers() []domain.ProviderInfo
	ProviderDiagnostics() []domain.ProviderDiagnostics
}

type Server struct {
	search        SearchService
	sessions      session.Store
	deliveries    *session.DeliveryCounter
	pageSize      int
	maxAudioBytes int64
	logger        *slog.Logger
}

const (
	maxQueryLength     = 500
	defaultSearchLimit = 20
)

type ServerOption func(*Server)

func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

func WithSessionStore(store session.Store) ServerOption {
	return func(s *Server) {
		s.sessions = store
	}
}

func WithDeliveryCounter(counter *session.DeliveryCounter) ServerOption {
	return func(s *Server) {
		s.deliveries = counter
	}
}

func WithPageSize(size int) ServerOption {
	return func(s *Server) {
		if size > 0 {
			s.pageSize = size
		}
	}
}

func WithMaxAudioBytes(limit int64) ServerOption {
	return func(s *Server) {
		if limit > 0 {
			s.maxAudioBytes = limit
		}
	}
}

func NewServer(searchService SearchService, options ...ServerOption) *Server {
	server := &Server{
		search:        searchService,
		pageSize:      session.DefaultPageSize,
		maxAudioBytes: maxProxiedAudioBytes,
		logger:        slog.Default(),
	}
	for _, option := range options {
		if option != nil {
			option(server)
		}
	}
	if server.logger == nil {
		server.logger = slog.Default()
	}
	return server
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/search/providers", s.handleProviders)
	mux.HandleFunc("/search/providers/health", s.handleProvidersHealth)
	mux.HandleFunc("/search/audio", s.handleAudioProxy)
	mux.HandleFunc("/search", s.handleSearch)
	mux.HandleFunc("/session/tracks", s.handleSessionTracks)
	mux.HandleFunc("/session/page", s.handleSessionPage)
	mux.HandleFunc("/session/offset", s.handleSessionOffset)
	mux.HandleFunc("/session/cleanup", s.handleSessionCleanup)
	mux.HandleFunc("/session/delivered", s.handleSessionDelivered)
	traced := otelhttp.NewHandler(loggingMiddleware(s.logger, mux), "music-search",
		otelhttp.WithFilter(func(r *http.Request) bool {
			p := r.URL.Path
			return p != "/metrics" && p != "/health"
		}),
	)
	return recoveryMiddleware(s.logger, rateLimitMiddleware(50, 100, metricsMiddleware(traced)))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/search" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.search == nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "search service is not configured")
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "query is required")
		return
	}
	if len(query) > maxQueryLength {
		writeError(w, http.StatusBadRequest, "invalid_request", "query too long (max 500 characters)")
		return
	}
	limit, err := parsePositiveInt(r, "limit", defaultSearchLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid limit")
		return
	}
	userID, hasUser, err := parseUserID(r.URL.Query().Get("userId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid userId")
		return
	}

	response, err := s.search.Search(r.Context(), query, limit)
	if err != nil {
		s.logger.Warn("search request failed",
			slog.String("query", truncate(query, 80)),
			slog.String("error", err.Error()),
		)
		switch {
		case errors.Is(err, search.ErrInvalidQuery):
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		case errors.Is(err, search.ErrInvalidLimit):
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		case errors.Is(err, search.ErrNoProviders):
			writeError(w, http.StatusServiceUnavailable, "service_unavailable", err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", "search failed")
		}
		return
	}

	if hasUser && s.sessions != nil {
		if err := s.sessions.SaveSearch(r.Context(), userID, query, response.Tracks); err != nil {
			s.logger.Warn("session save failed",
				slog.Int64("userId", userID),
				slog.String("error", err.Error()),
			)
		}
	}

	failedProviders := make([]string, 0, len(response.Providers))
	for _, providerStatus := range response.Providers {
		if !providerStatus.OK {
			failedProviders = append(failedProviders, providerStatus.Name)
		}
	}
	s.logger.Info("search completed",
		slog.String("query", truncate(query, 80)),
		slog.Int("totalTracks", response.TotalTracks),
		slog.Int64("elapsedMs", response.ElapsedMS),
		slog.Int("failedProviders", len(failedProviders)),
	)
	if len(failedProviders) > 0 {
		s.logger.Warn("search providers partially failed",
			slog.String("query", truncate(query, 80)),
			slog.Any("failedProviders", failedProviders),
		)
	}

	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/search/providers" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.search == nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "search service is not configured")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": s.search.Providers(),
	})
}

func (s *Server) handleProvidersHealth(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/search/providers/health" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.search == nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "search service is not configured")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"checkedAt": time.Now().UTC(),
		"items":     s.search.ProviderDiagnostics(),
	})
}

func (s *Server) handleSessionTracks(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/session/tracks" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.sessions == nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "session store is not configured")
		return
	}

	userID, ok := requireUserID(w, r.URL.Query().Get("userId"))
	if !ok {
		return
	}

	live, found, err := s.sessions.GetSession(r.Context(), userID)
	if err != nil {
		s.logger.Warn("session read failed", slog.Int64("userId", userID), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal_error", "session read failed")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "cache_miss", "no live search session for this user")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"userId":        live.UserID,
		"query":         live.Query,
		"tracks":        live.Tracks,
		"currentOffset": live.Offset,
		"totalTracks":   len(live.Tracks),
	})
}

// handleSessionPage serves one results page at the session cursor. The turn
// parameter moves the cursor first: "next" advances one page (refusing to run
// past the end), "prev" steps back flooring at zero.
func (s *Server) handleSessionPage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/session/page" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.sessions == nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "session store is not configured")
		return
	}

	userID, ok := requireUserID(w, r.URL.Query().Get("userId"))
	if !ok {
		return
	}
	turn := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("turn")))
	switch turn {
	case "", "next", "prev":
	default:
		writeError(w, http.StatusBadRequest, "invalid_request", "turn must be next or prev")
		return
	}

	live, found, err := s.sessions.GetSession(r.Context(), userID)
	if err != nil {
		s.logger.Warn("session read failed", slog.Int64("userId", userID), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal_error", "session read failed")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "cache_miss", "no live search session for this user")
		return
	}

	offset := live.Offset
	moved := false
	switch turn {
	case "next":
		offset, moved = session.NextOffset(offset, len(live.Tracks), s.pageSize)
	case "prev":
		next := session.PrevOffset(offset, s.pageSize)
		moved = next != offset
		offset = next
	}
	if moved {
		if err := s.sessions.SetOffset(r.Context(), userID, offset); err != nil {
			s.logger.Warn("session offset update failed",
				slog.Int64("userId", userID),
				slog.String("error", err.Error()),
			)
			writeError(w, http.StatusInternalServerError, "internal_error", "session update failed")
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"userId":        live.UserID,
		"query":         live.Query,
		"tracks":        session.Page(live.Tracks, offset, s.pageSize),
		"currentOffset": offset,
		"pageSize":      s.pageSize,
		"totalTracks":   len(live.Tracks),
		"hasNext":       session.HasNextPage(offset, len(live.Tracks), s.pageSize),
		"hasPrev":       offset > 0,
	})
}

func (s *Server) handleSessionOffset(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/session/offset" {
		http.NotFound(w, r)
		return
	}
	if s.sessions == nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "session store is not configured")
		return
	}

	switch r.Method {
	case http.MethodGet:
		userID, ok := requireUserID(w, r.URL.Query().Get("userId"))
		if !ok {
			return
		}
		offset, err := s.sessions.GetOffset(r.Context(), userID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", "session read failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"userId":        userID,
			"currentOffset": offset,
		})
	case http.MethodPost:
		var payload struct {
			UserID int64 `json:"userId"`
			Offset int   `json:"offset"`
		}
		if err := decodeJSONBody(r, &payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		if payload.UserID == 0 {
			writeError(w, http.StatusBadRequest, "invalid_request", "userId is required")
			return
		}
		if payload.Offset < 0 {
			writeError(w, http.StatusBadRequest, "invalid_request", "offset must be >= 0")
			return
		}
		if err := s.sessions.SetOffset(r.Context(), payload.UserID, payload.Offset); err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", "session update failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"userId":        payload.UserID,
			"currentOffset": payload.Offset,
		})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleSessionCleanup(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/session/cleanup" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.sessions == nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "session store is not configured")
		return
	}

	removed, err := s.sessions.CleanupExpired(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "session cleanup failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"removed": removed,
	})
}

// handleSessionDelivered records tracks handed to a user and reports whether
// the delivery landed on the promotional cadence boundary.
func (s *Server) handleSessionDelivered(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/session/delivered" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.deliveries == nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "delivery counter is not configured")
		return
	}

	var payload struct {
		UserID int64 `json:"userId"`
		Count  int   `json:"count"`
		Reset  bool  `json:"reset"`
	}
	if err := decodeJSONBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if payload.UserID == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "userId is required")
		return
	}

	if payload.Reset {
		s.deliveries.Reset(payload.UserID)
		writeJSON(w, http.StatusOK, map[string]any{
			"userId":    payload.UserID,
			"delivered": 0,
			"adDue":     false,
		})
		return
	}

	count := payload.Count
	if count <= 0 {
		count = 1
	}
	adDue := false
	for i := 0; i < count; i++ {
		if s.deliveries.RecordDelivery(payload.UserID) {
			adDue = true
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"userId":    payload.UserID,
		"delivered": s.deliveries.Count(payload.UserID),
		"adDue":     adDue,
	})
}

func parseUserID(raw string) (int64, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false, nil
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID == 0 {
		return 0, false, errors.New("invalid userId")
	}
	return userID, true, nil
}

func requireUserID(w http.ResponseWriter, raw string) (int64, bool) {
	userID, present, err := parseUserID(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid userId")
		return 0, false
	}
	if !present {
		writeError(w, http.StatusBadRequest, "invalid_request", "userId is required")
		return 0, false
	}
	return userID, true
}

func decodeJSONBody(r *http.Request, dest any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read request body: %w", err)
	}
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}

	decoder := json.NewDecoder(bytes.NewReader(payload))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("invalid json body: %w", err)
	}
	return nil
}

func parsePositiveInt(r *http.Request, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return 0, errors.New("invalid value")
	}
	return parsed, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
