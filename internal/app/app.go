// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/garyellow/codered-bot-go/internal/bot"
	"github.com/garyellow/codered-bot-go/internal/buildinfo"
	"github.com/garyellow/codered-bot-go/internal/config"
	"github.com/garyellow/codered-bot-go/internal/conversation"
	"github.com/garyellow/codered-bot-go/internal/genai"
	"github.com/garyellow/codered-bot-go/internal/langdetect"
	"github.com/garyellow/codered-bot-go/internal/logger"
	"github.com/garyellow/codered-bot-go/internal/metrics"
	"github.com/garyellow/codered-bot-go/internal/prompt"
	"github.com/garyellow/codered-bot-go/internal/sensitivity"
	"github.com/garyellow/codered-bot-go/internal/sentry"
	"github.com/garyellow/codered-bot-go/internal/telegram"
	"github.com/garyellow/codered-bot-go/internal/telemetry"
	"github.com/garyellow/codered-bot-go/internal/webhook"
)

// pollingBot is the Telegram front end as seen by the lifecycle code.
type pollingBot interface {
	Run(ctx context.Context) error
	Stop()
	Running() bool
}

// completer is the provider chain as seen by the lifecycle code.
type completer interface {
	Providers() []genai.Provider
	Close() error
}

// Application manages the application lifecycle and dependencies.
type Application struct {
	cfg         *config.Config
	logger      *logger.Logger
	metrics     *metrics.Metrics
	registry    *prometheus.Registry
	tracing     *telemetry.Provider
	store       *conversation.Store
	completer   completer
	telegram    pollingBot
	lineHandler *webhook.Handler // nil when LINE is not configured
	server      *http.Server
}

// Initialize creates and initializes a new application with all dependencies.
func Initialize(ctx context.Context, cfg *config.Config) (app *Application, err error) {
	log := logger.NewWithOptions(cfg.LogLevel, os.Stdout, logger.Options{
		BetterStackToken:    cfg.BetterStackToken,
		BetterStackEndpoint: cfg.BetterStackEndpoint,
	})

	log = log.WithField("service", "codered-bot").WithField("version", buildinfo.Release())
	if host, herr := os.Hostname(); herr == nil && host != "" {
		log = log.WithField("instance_id", host)
	}

	// Package-level slog.*Context calls pick up user/chat/request IDs too.
	slog.SetDefault(log.Logger)

	log.Info("Initializing application...")
	if cfg.BetterStackToken != "" {
		log.WithField("endpoint", cfg.BetterStackEndpoint).Info("Better Stack logging enabled")
	}

	if err := sentry.Initialize(sentry.Config{
		DSN:         cfg.SentryDSN,
		Environment: cfg.SentryEnvironment,
		Release:     buildinfo.Release(),
		SampleRate:  cfg.SentrySampleRate,
	}); err != nil {
		log.WithError(err).Warn("Sentry initialization failed, error reporting disabled")
	} else if sentry.IsEnabled() {
		log.WithField("environment", cfg.SentryEnvironment).Info("Sentry error reporting enabled")
	}

	tracing, err := telemetry.NewProvider(ctx, telemetry.Config{
		Endpoint: cfg.OTLPEndpoint,
		Version:  buildinfo.Release(),
	})
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tracing.Shutdown(context.Background())
		}
	}()
	if tracing.Enabled() {
		log.WithField("endpoint", cfg.OTLPEndpoint).Info("Tracing enabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewBuildInfoCollector(),
	)
	m := metrics.New(registry)

	classifier := sensitivity.Default()
	if cfg.KeywordsFile != "" {
		if classifier, err = sensitivity.Load(cfg.KeywordsFile); err != nil {
			return nil, fmt.Errorf("sensitivity keywords: %w", err)
		}
	}
	log.WithField("keywords", classifier.Len()).Info("Sensitivity classifier ready")

	prompts := prompt.Default(cfg.RegionalLanguage)
	if cfg.PromptsFile != "" {
		if prompts, err = prompt.Load(cfg.PromptsFile, cfg.RegionalLanguage); err != nil {
			return nil, fmt.Errorf("prompt templates: %w", err)
		}
	}

	detector := langdetect.New(cfg.RegionalLanguage,
		langdetect.WithLogger(log),
		langdetect.WithMetrics(m),
	)

	store := conversation.NewStore(conversation.Config{
		SystemPrompt:  prompts.SystemPrompt(),
		MaxExchanges:  cfg.HistoryMaxExchanges,
		IdleTTL:       cfg.HistoryIdleTTL,
		CleanupPeriod: config.ConversationCleanupInterval,
		Metrics:       m,
	})
	defer func() {
		if err != nil {
			store.Stop()
		}
	}()

	chain, err := genai.CreateCompleter(ctx, cfg, log, m)
	if err != nil {
		return nil, fmt.Errorf("completion: %w", err)
	}
	defer func() {
		if err != nil {
			_ = chain.Close()
		}
	}()
	log.WithField("providers", chain.Providers()).Info("Completion providers configured")

	processor := bot.NewProcessor(bot.ProcessorConfig{
		Store:      store,
		Classifier: classifier,
		Detector:   detector,
		Prompts:    prompts,
		Completer:  chain,
		Logger:     log,
		Metrics:    m,
	})

	tg, err := telegram.New(cfg.TelegramToken, processor,
		telegram.WithLogger(log),
		telegram.WithMetrics(m),
	)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	log.WithField("username", tg.Username()).Info("Telegram bot authorized")

	var lineHandler *webhook.Handler
	if cfg.LineEnabled() {
		messenger, err := webhook.NewMessenger(cfg.LineChannelToken)
		if err != nil {
			return nil, fmt.Errorf("line messenger: %w", err)
		}
		lineHandler, err = webhook.NewHandler(webhook.HandlerConfig{
			ChannelSecret: cfg.LineChannelSecret,
			Messenger:     messenger,
			Processor:     processor,
			Metrics:       m,
			Logger:        log,
		})
		if err != nil {
			return nil, fmt.Errorf("line webhook: %w", err)
		}
		log.Info("LINE webhook enabled")
	}

	if !cfg.MetricsAuthEnabled() {
		log.Warn("Metrics password not set, /metrics is unauthenticated")
	}

	app = &Application{
		cfg:         cfg,
		logger:      log,
		metrics:     m,
		registry:    registry,
		tracing:     tracing,
		store:       store,
		completer:   chain,
		telegram:    tg,
		lineHandler: lineHandler,
	}

	gin.SetMode(gin.ReleaseMode)
	app.server = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.newRouter(),
		ReadHeaderTimeout: config.HTTPReadHeader,
		ReadTimeout:       config.HTTPRead,
		WriteTimeout:      config.HTTPWrite,
		IdleTimeout:       config.HTTPIdle,
	}

	log.Info("Initialization complete")
	return app, nil
}

// newRouter builds the ops router: probes, metrics and the optional LINE webhook.
func (a *Application) newRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	router.Use(securityHeadersMiddleware())
	router.Use(loggingMiddleware(a.logger))

	router.GET("/livez", a.livenessCheck)
	router.HEAD("/livez", a.livenessCheck)
	router.GET("/readyz", a.readinessCheck)
	router.HEAD("/readyz", a.readinessCheck)
	router.GET("/metrics",
		metricsAuthMiddleware(a.cfg.MetricsUsername, a.cfg.MetricsPassword),
		metricsHandler(a.registry))
	if a.lineHandler != nil {
		router.POST("/webhook/line", a.lineHandler.Handle)
	}
	return router
}

// Run serves HTTP and polls Telegram until ctx is canceled, SIGINT or
// SIGTERM arrives, or either front end fails. It then shuts down in order:
// stop intake, drain in-flight turns, close clients, flush telemetry.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.WithField("port", a.cfg.Port).Info("Starting HTTP server")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := a.telegram.Run(gctx); err != nil {
			return fmt.Errorf("telegram: %w", err)
		}
		if gctx.Err() == nil {
			return errors.New("telegram: polling stopped unexpectedly")
		}
		return nil
	})

	g.Go(func() error {
		a.updateMetrics(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("Shutdown requested, stopping intake...")
		a.telegram.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.logger.WithError(err).Error("HTTP server shutdown error")
		}
		return nil
	})

	runErr := g.Wait()
	if runErr != nil {
		a.logger.WithError(runErr).Error("Application stopped with error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	a.shutdown(shutdownCtx)

	return runErr
}

// shutdown releases everything after the front ends have stopped.
func (a *Application) shutdown(ctx context.Context) {
	start := time.Now()

	if a.lineHandler != nil {
		a.logger.Info("Waiting for LINE events to complete...")
		if err := a.lineHandler.Shutdown(ctx); err != nil {
			a.logger.WithError(err).Warn("LINE handler shutdown timeout")
		}
	}

	a.logger.Info("Closing resources...")
	if a.completer != nil {
		if err := a.completer.Close(); err != nil {
			a.logger.WithError(err).WithField("component", "completer").Error("Component close error")
		}
	}
	if a.store != nil {
		a.store.Stop()
	}

	if sentry.IsEnabled() {
		sentry.Flush(2 * time.Second)
	}
	if err := a.tracing.Shutdown(ctx); err != nil {
		a.logger.WithError(err).Warn("Tracing shutdown error")
	}

	a.logger.WithField("duration_ms", time.Since(start).Milliseconds()).Info("Shutdown complete")
	if err := a.logger.Shutdown(ctx); err != nil {
		a.logger.WithError(err).Warn("Logger shutdown timed out")
	}
}

// updateMetrics refreshes gauges that are not driven by events.
func (a *Application) updateMetrics(ctx context.Context) {
	ticker := time.NewTicker(config.MetricsUpdateInterval)
	defer ticker.Stop()

	for {
		a.recordGauges()
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (a *Application) recordGauges() {
	if a.store != nil {
		a.metrics.SetActiveConversations(a.store.Len())
	}
}
