package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/facetsearch/internal/config"
	dbRedis "github.com/kailas-cloud/facetsearch/internal/db/redis"
	logpkg "github.com/kailas-cloud/facetsearch/internal/logger"
	"github.com/kailas-cloud/facetsearch/internal/metrics"
	"github.com/kailas-cloud/facetsearch/internal/repository/labelcache"
	chiTransport "github.com/kailas-cloud/facetsearch/internal/transport/chi"
	"github.com/kailas-cloud/facetsearch/internal/transport/elastic"
	"github.com/kailas-cloud/facetsearch/internal/transport/taxonomy"
	healthuc "github.com/kailas-cloud/facetsearch/internal/usecase/health"
	labelsuc "github.com/kailas-cloud/facetsearch/internal/usecase/labels"
	sessionuc "github.com/kailas-cloud/facetsearch/internal/usecase/session"
	"github.com/kailas-cloud/facetsearch/internal/version"
)

var _ labelsuc.CachedLookup = (*labelcache.CachedResolver)(nil)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	widget := cfg.Settings()

	logger.Info("Starting facetsearch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("search_endpoint", widget.SearchEndpoint),
		zap.Bool("label_cache", cfg.Cache.Enabled),
	)

	// Register search metrics explicitly (no init())
	metrics.RegisterSearchMetrics()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	searchClient := elastic.NewClient(&elastic.Config{
		Endpoint: widget.SearchEndpoint,
		HTTPClient: &http.Client{
			Timeout: time.Duration(cfg.Search.TimeoutSec) * time.Second,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        cfg.Search.MaxIdleConns,
				MaxIdleConnsPerHost: cfg.Search.MaxIdleConns,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		Headers: cfg.Search.Headers,
		Logger:  logger,
	})

	// Optional components are passed as nil interfaces, never typed nil pointers.
	var (
		cachePinger healthuc.CachePinger
		taxChecker  healthuc.TaxonomyChecker
		labelLookup labelsuc.VocabularyLookup
	)

	if cfg.Taxonomy.BaseURL != "" {
		tax := taxonomy.NewClient(&taxonomy.Config{
			BaseURL: cfg.Taxonomy.BaseURL,
			Timeout: time.Duration(cfg.Taxonomy.TimeoutSec) * time.Second,
			Logger:  logger,
		})
		taxChecker = tax
		labelLookup = tax

		if cfg.Cache.Enabled {
			store, err := dbRedis.NewStore(dbRedis.Config{
				Addrs:      cfg.Cache.Addrs,
				Password:   cfg.Cache.Password,
				ClientName: "facetsearch",
			})
			if err != nil {
				logger.Fatal("Failed to create cache store", zap.Error(err))
			}
			defer store.Close()

			if err := store.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
				logger.Fatal("Cache not ready", zap.Error(err))
			}
			logger.Info("Connected to label cache")

			cachePinger = store
			labelLookup = labelcache.New(
				tax, store, time.Duration(cfg.Cache.TTLSec)*time.Second, metrics.LabelCacheTotal, logger,
			)
		}
	}

	labelsSvc := labelsuc.New(widget.FacetFields, labelLookup, logger)
	sessions := sessionuc.New(widget, searchClient, sessionuc.Config{
		MaxSessions: cfg.Sessions.MaxSessions,
		Observer:    metrics.SearchObserver{},
		Gauge:       metrics.ActiveSessions,
		Logger:      logger,
	})
	defer sessions.CloseAll()
	go sessions.Run(ctx, cfg.Sessions.SweepInterval(), cfg.Sessions.IdleTTL())

	healthSvc := healthuc.New(searchClient, cachePinger, taxChecker)

	server := chiTransport.NewServer(sessions, labelsSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully", zap.Int("open_sessions", sessions.Len()))
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
						Code:    chiTransport.ErrorCodeInternalError,
						Message: "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			}
			if id := chi.URLParam(r, "id"); id != "" {
				fields = append(fields, zap.String("session", id))
			}
			// Canonical log line: one per request
			reqLogger.Info("http_request", fields...)
		})
	}
}
