package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/leadpilot/leadpilot/internal/chat"
	httpmiddleware "github.com/leadpilot/leadpilot/internal/http/middleware"
	"github.com/leadpilot/leadpilot/internal/leads"
	"github.com/leadpilot/leadpilot/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	ChatHandler        *chat.Handler
	VoiceHandler       *chat.VoiceHandler
	LeadsHandler       *leads.Handler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", handleHealth)

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.ChatHandler != nil {
		r.Route("/chat", func(r chi.Router) {
			r.Post("/message", cfg.ChatHandler.HandleMessage)
			r.Get("/ws", cfg.ChatHandler.HandleWebSocket)
			r.Get("/history", cfg.ChatHandler.HandleHistory)
			r.Get("/widget.js", cfg.ChatHandler.HandleWidgetJS)
		})
	}

	if cfg.VoiceHandler != nil {
		r.Route("/voice", func(r chi.Router) {
			r.Post("/transcribe", cfg.VoiceHandler.HandleTranscribe)
			r.Post("/enable", cfg.VoiceHandler.HandleEnable)
			r.Get("/state", cfg.VoiceHandler.HandleState)
			r.Put("/settings", cfg.VoiceHandler.HandleSettings)
			r.Post("/queue/next", cfg.VoiceHandler.HandleQueueNext)
			r.Post("/queue/done", cfg.VoiceHandler.HandleQueueDone)
			r.Get("/clips/{clipID}", cfg.VoiceHandler.HandleClip)
		})
	}

	if cfg.LeadsHandler != nil {
		r.Route("/leads", func(r chi.Router) {
			r.Post("/web", cfg.LeadsHandler.CreateWebLead)
			r.Get("/{id}", cfg.LeadsHandler.GetLead)
		})
	}

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
