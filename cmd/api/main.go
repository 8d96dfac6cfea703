package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/leadpilot/leadpilot/internal/api/router"
	"github.com/leadpilot/leadpilot/internal/chat"
	appconfig "github.com/leadpilot/leadpilot/internal/config"
	"github.com/leadpilot/leadpilot/internal/convo"
	"github.com/leadpilot/leadpilot/internal/leads"
	"github.com/leadpilot/leadpilot/internal/notify"
	"github.com/leadpilot/leadpilot/internal/observability/metrics"
	"github.com/leadpilot/leadpilot/internal/session"
	"github.com/leadpilot/leadpilot/internal/voice"
	"github.com/leadpilot/leadpilot/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting leadpilot API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	// Session storage
	store := buildSessionStore(cfg, logger)

	// Generative providers: OpenAI primary, Gemini fallback. Either may
	// be absent; with neither the engine answers from templates only.
	llm := buildLLMClient(ctx, cfg, logger)

	// Conversation metrics
	convMetrics := metrics.NewConversationMetrics(prometheus.DefaultRegisterer)

	// Lead storage and hand-off
	leadsRepo := leads.NewInMemoryRepository()
	crmForwarder := leads.NewWebhookForwarder(leads.WebhookForwarderConfig{
		URL:    cfg.CRMWebhookURL,
		Logger: logger.Component("leads"),
	})
	notifyLogger := logger.Component("notify")
	var sender notify.EmailSender
	if s := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, notifyLogger); s != nil {
		sender = s
	} else {
		sender = notify.NewStubEmailSender(notifyLogger)
	}
	mailer := notify.NewLeadMailer(sender, cfg.SalesNotifyEmail, notifyLogger)

	var notifier convo.LeadNotifier
	if mailer != nil {
		notifier = mailer
	}
	qualifier := convo.NewQualifier(leadsRepo, crmForwarder, notifier, convMetrics, logger.Component("leads"))

	// Voice pipeline
	voiceLogger := logger.Component("voice")
	clips := voice.NewClipStore()
	queue := voice.NewQueueManager(store, cfg.ElevenLabsVoiceID, voiceLogger)
	var speaker convo.SpeechSynthesizer
	var transcriber chat.Transcriber
	if cfg.ElevenLabsAPIKey != "" {
		client, err := voice.New(voice.Config{
			APIKey:  cfg.ElevenLabsAPIKey,
			BaseURL: cfg.ElevenLabsBaseURL,
			Logger:  voiceLogger.Logger,
		})
		if err != nil {
			logger.Error("failed to build voice client", "error", err)
			os.Exit(1)
		}
		speaker = voice.NewSpeaker(client, clips, cfg.PublicBaseURL, voiceLogger)
		transcriber = client
	} else {
		logger.Info("voice provider not configured, running text-only")
	}

	engine := convo.NewEngine(convo.EngineConfig{
		Store:        store,
		LLM:          llm,
		Qualifier:    qualifier,
		Synth:        speaker,
		Metrics:      convMetrics,
		Logger:       logger.Component("convo"),
		AskScore:     cfg.AskForInfoScore,
		QualifyScore: cfg.QualifyScore,
	})

	widgetJS, err := os.ReadFile("web/widget.js")
	if err != nil {
		logger.Warn("widget script not found, serving empty widget", "error", err)
	}

	// Setup router
	r := router.New(&router.Config{
		Logger:             logger,
		ChatHandler:        chat.NewHandler(engine, store, widgetJS, logger.Component("chat")),
		VoiceHandler:       chat.NewVoiceHandler(engine, transcriber, queue, clips, logger.Component("chat")),
		LeadsHandler:       leads.NewHandler(leadsRepo, logger.Component("leads")),
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func buildSessionStore(cfg *appconfig.Config, logger *logging.Logger) session.Store {
	if cfg.UseMemorySessions || cfg.RedisAddr == "" {
		logger.Info("using in-memory session store")
		return session.NewMemoryStore()
	}

	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Error("redis unreachable", "addr", cfg.RedisAddr, "error", err)
		os.Exit(1)
	}

	logger.Info("using redis session store", "addr", cfg.RedisAddr, "ttl", cfg.SessionTTL)
	return session.NewRedisStore(rdb, cfg.SessionTTL)
}

func buildLLMClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) convo.LLMClient {
	var primary, fallback convo.LLMClient

	if cfg.OpenAIAPIKey != "" {
		client, err := convo.NewOpenAILLMClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		if err != nil {
			logger.Error("failed to build openai client", "error", err)
		} else {
			primary = client
		}
	}
	if cfg.GeminiAPIKey != "" {
		client, err := convo.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Error("failed to build gemini client", "error", err)
		} else {
			fallback = client
		}
	}

	switch {
	case primary != nil && fallback != nil:
		logger.Info("generative providers configured", "primary", cfg.OpenAIModel, "fallback", cfg.GeminiModel)
		return convo.NewFallbackLLMClient(primary, fallback, logger.Logger)
	case primary != nil:
		logger.Info("generative provider configured", "model", cfg.OpenAIModel)
		return primary
	case fallback != nil:
		logger.Info("generative provider configured", "model", cfg.GeminiModel)
		return fallback
	default:
		logger.Warn("no generative provider configured, replies are template-only")
		return nil
	}
}
