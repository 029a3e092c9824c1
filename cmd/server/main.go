package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	apihttp "musicsaver/searchservice/internal/api/http"
	"musicsaver/searchservice/internal/app"
	"musicsaver/searchservice/internal/metrics"
	"musicsaver/searchservice/internal/providers/deezer"
	"musicsaver/searchservice/internal/providers/itunes"
	"musicsaver/searchservice/internal/search"
	"musicsaver/searchservice/internal/session"
	"musicsaver/searchservice/internal/telemetry"
)

func main() {
	cfg := app.LoadConfig()
	logger := newLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	metrics.Register(prometheus.DefaultRegisterer)

	shutdownTracer, err := telemetry.Init(context.Background(), "music-search")
	if err != nil {
		logger.Warn("otel init failed", slog.String("error", err.Error()))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	logger.Info("configuration loaded",
		slog.String("service", "music-search"),
		slog.String("httpAddr", cfg.HTTPAddr),
		slog.String("logLevel", cfg.LogLevel),
		slog.String("logFormat", cfg.LogFormat),
		slog.Duration("requestTimeout", cfg.RequestTimeout),
		slog.String("itunesEndpoint", cfg.ITunesEndpoint),
		slog.String("deezerEndpoint", cfg.DeezerEndpoint),
		slog.Bool("hasRedis", strings.TrimSpace(cfg.RedisURL) != ""),
		slog.Duration("sessionTTL", cfg.SessionTTL),
		slog.Int("pageSize", cfg.PageSize),
	)

	itunesClient := &http.Client{Timeout: cfg.RequestTimeout, Transport: otelhttp.NewTransport(http.DefaultTransport)}
	deezerClient := &http.Client{Timeout: cfg.RequestTimeout, Transport: otelhttp.NewTransport(http.DefaultTransport)}

	searchService := search.NewService([]search.Provider{
		itunes.NewProvider(itunes.Config{
			Endpoint:  cfg.ITunesEndpoint,
			UserAgent: cfg.UserAgent,
			Client:    itunesClient,
		}),
		deezer.NewProvider(deezer.Config{
			Endpoint:  cfg.DeezerEndpoint,
			UserAgent: cfg.UserAgent,
			Client:    deezerClient,
		}),
	}, cfg.RequestTimeout,
		search.WithDedupeThreshold(cfg.DedupeThreshold),
		search.WithExactMatchBonus(cfg.ExactMatchBonus),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessionStore := buildSessionStore(rootCtx, cfg, logger)
	deliveryCounter := session.NewDeliveryCounter(cfg.AdAfterTracks)

	handler := apihttp.NewServer(searchService,
		apihttp.WithLogger(logger),
		apihttp.WithSessionStore(sessionStore),
		apihttp.WithDeliveryCounter(deliveryCounter),
		apihttp.WithPageSize(cfg.PageSize),
		apihttp.WithMaxAudioBytes(cfg.MaxAudioBytes),
	).Handler()
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// The audio proxy can legitimately stream for a while on slow links.
		// Keep writes untimed at the server level; the proxy client enforces
		// its own deadline.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	logger.Info("music search service started",
		slog.String("addr", cfg.HTTPAddr),
		slog.Duration("timeout", cfg.RequestTimeout),
	)

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", slog.String("error", err.Error()))
	}
	logger.Info("music search service stopped")
}

// buildSessionStore prefers Redis when it is configured and reachable, so
// pagination cursors survive restarts. Otherwise sessions live in memory with
// a background janitor.
func buildSessionStore(ctx context.Context, cfg app.Config, logger *slog.Logger) session.Store {
	redisURL := strings.TrimSpace(cfg.RedisURL)
	if redisURL != "" {
		redisOpts, err := redis.ParseURL(redisURL)
		if err != nil {
			logger.Warn("invalid redis url, using in-memory sessions", slog.String("error", err.Error()))
		} else {
			client := redis.NewClient(redisOpts)
			pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			defer cancel()
			if err := client.Ping(pingCtx).Err(); err != nil {
				logger.Warn("redis not reachable, using in-memory sessions", slog.String("error", err.Error()))
			} else {
				logger.Info("redis connected", slog.String("addr", redisOpts.Addr))
				return session.NewRedisStore(client, cfg.SessionTTL)
			}
		}
	}

	store := session.NewMemoryStore(cfg.SessionTTL)
	store.StartJanitor(ctx, cfg.CleanupInterval)
	return store
}

func newLogger(levelRaw, formatRaw string) *slog.Logger {
	level := parseLogLevel(levelRaw)
	options := &slog.HandlerOptions{Level: level}
	format := strings.ToLower(strings.TrimSpace(formatRaw))
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, options))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, options))
}

func parseLogLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
