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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/econsult/internal/config"
	"github.com/kailas-cloud/econsult/internal/db"
	dbRedis "github.com/kailas-cloud/econsult/internal/db/redis"
	"github.com/kailas-cloud/econsult/internal/domain"
	"github.com/kailas-cloud/econsult/internal/domain/prompt"
	"github.com/kailas-cloud/econsult/internal/encoder"
	logpkg "github.com/kailas-cloud/econsult/internal/logger"
	"github.com/kailas-cloud/econsult/internal/metrics"
	"github.com/kailas-cloud/econsult/internal/pool"
	chiTransport "github.com/kailas-cloud/econsult/internal/transport/chi"
	openaiTransport "github.com/kailas-cloud/econsult/internal/transport/openai"
	"github.com/kailas-cloud/econsult/internal/version"

	healthuc "github.com/kailas-cloud/econsult/internal/usecase/health"
	pipelineuc "github.com/kailas-cloud/econsult/internal/usecase/pipeline"
	relevancyuc "github.com/kailas-cloud/econsult/internal/usecase/relevancy"
	searchuc "github.com/kailas-cloud/econsult/internal/usecase/search"
	settingsuc "github.com/kailas-cloud/econsult/internal/usecase/settings"
	summaryuc "github.com/kailas-cloud/econsult/internal/usecase/summary"
)

func main() {
	// Load configuration based on ENV
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

	logger.Info("Starting econsult API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("search_index", cfg.Search.Index),
	)

	// Register pipeline metrics explicitly (no init())
	metrics.RegisterPipelineMetrics()

	// Prompt library — built once, injected into the LLM stages.
	prompts, err := prompt.NewLibrary()
	if err != nil {
		logger.Fatal("Failed to load prompt library", zap.Error(err))
	}

	// Connection pool manager — lazy; the store is built on first use and
	// health-checked at most once per interval.
	poolMgr := pool.NewManager(
		storeFactory(cfg),
		time.Duration(cfg.Database.HealthCheckIntervalSec)*time.Second,
		logger,
	)
	defer poolMgr.ReleaseAll()

	// Embedding provider manager — lazy singleton around the OpenAI embedder.
	embedderCfg := &openaiTransport.EmbedderConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Logger:     logger,
	}
	encoderMgr := encoder.NewManager(func(context.Context) (domain.Embedder, error) {
		return openaiTransport.NewEmbedder(embedderCfg), nil
	}, logger)

	// Warm up the shared resources so the first request doesn't pay for
	// construction. Failures are non-fatal: Acquire retries per request.
	warmupCtx, warmupCancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Database.ReadinessTimeoutSec)*time.Second)
	if _, err := poolMgr.Acquire(warmupCtx); err != nil {
		logger.Warn("store warm-up failed, will retry on first request", zap.Error(err))
	}
	if _, err := encoderMgr.Acquire(warmupCtx); err != nil {
		logger.Warn("embedder warm-up failed, will retry on first request", zap.Error(err))
	}
	warmupCancel()

	chatModel := openaiTransport.NewChatModel(&openaiTransport.ChatConfig{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Logger:      logger,
	})

	// Services and stages
	settingsSvc := settingsuc.New(poolMgr, cfg.Storage.KeyPrefix, logger)

	searchStage := searchuc.New(poolMgr, encoderMgr, searchuc.Params{
		Index:         cfg.Search.Index,
		VectorField:   cfg.Search.VectorField,
		NumCandidates: cfg.Search.NumCandidates,
		Limit:         cfg.Search.Limit,
	})
	relevancyStage := relevancyuc.New(chatModel, prompts, settingsSvc, cfg.LLM.RelevancyMaxTokens)
	summaryStage := summaryuc.New(chatModel, prompts, settingsSvc, cfg.LLM.SummaryMaxTokens)

	pipelineSvc := pipelineuc.New(searchStage, relevancyStage, summaryStage, pipelineuc.Timeouts{
		Search:    time.Duration(cfg.Pipeline.SearchTimeoutSec) * time.Second,
		Relevancy: time.Duration(cfg.Pipeline.RelevancyTimeoutSec) * time.Second,
		Summary:   time.Duration(cfg.Pipeline.SummaryTimeoutSec) * time.Second,
	})

	healthSvc := healthuc.New(newPoolPinger(poolMgr), newEmbeddingHealthChecker(encoderMgr))

	// Create chi server
	server := chiTransport.NewServer(pipelineSvc, settingsSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())

	r.Post("/api/search", server.Search)
	r.Get("/api/settings", server.GetSettings)
	r.Post("/api/settings", server.UpdateSettings)
	r.Delete("/api/settings", server.ResetSettings)
	r.Get("/health", server.Health)
	r.Handle("/metrics", promhttp.Handler())

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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// storeFactory builds the pooled Redis store from config. Invoked by the
// pool manager on first use and after failed health probes.
func storeFactory(cfg config.Config) pool.Factory {
	return func(context.Context) (db.Store, error) {
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:          cfg.Database.Addrs,
			Username:       cfg.Database.Username,
			Password:       cfg.Database.Password,
			MaxPoolSize:    cfg.Database.MaxPoolSize,
			MinPoolSize:    cfg.Database.MinPoolSize,
			ConnectTimeout: time.Duration(cfg.Database.ConnectTimeoutSec) * time.Second,
			WriteTimeout:   time.Duration(cfg.Database.WriteTimeoutSec) * time.Second,
			DisableRetry:   cfg.Database.RetryWrites != nil && !*cfg.Database.RetryWrites,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}

// poolPinger adapts the pool manager to health.DBPinger.
type poolPinger struct {
	pool *pool.Manager
}

func newPoolPinger(p *pool.Manager) *poolPinger {
	return &poolPinger{pool: p}
}

func (p *poolPinger) Ping(ctx context.Context) error {
	store, err := p.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire store: %w", err)
	}
	return store.Ping(ctx)
}

// embeddingHealthChecker adapts the encoder manager to health.EmbeddingChecker.
type embeddingHealthChecker struct {
	encoder *encoder.Manager
}

func newEmbeddingHealthChecker(m *encoder.Manager) *embeddingHealthChecker {
	return &embeddingHealthChecker{encoder: m}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	emb, err := h.encoder.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire embedder: %w", err)
	}
	if hc, ok := emb.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
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
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
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

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
