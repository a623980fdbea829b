package router

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/webcraft-studio/chatbot-platform/internal/chat"
	httpmiddleware "github.com/webcraft-studio/chatbot-platform/internal/http/middleware"
	"github.com/webcraft-studio/chatbot-platform/internal/knowledge"
	"github.com/webcraft-studio/chatbot-platform/internal/leads"
	"github.com/webcraft-studio/chatbot-platform/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger           *logging.Logger
	ChatHandler      *chat.Handler
	LeadsHandler     *leads.Handler
	KnowledgeHandler *knowledge.Handler
	MetricsHandler   http.Handler

	AdminAuthSecret    string
	CORSAllowedOrigins []string

	// Chat rate limiting, per IP.
	ChatRateLimit  int
	ChatRateWindow time.Duration
	ChatRateMaxIPs int
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

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Chat endpoints, rate limited per IP
	if cfg.ChatHandler != nil {
		r.Group(func(chatRoutes chi.Router) {
			chatRoutes.Use(httpmiddleware.RateLimit(cfg.ChatRateLimit, cfg.ChatRateWindow, cfg.ChatRateMaxIPs))
			chatRoutes.Post("/api/chat", cfg.ChatHandler.Message)
			chatRoutes.Post("/api/chat/message", cfg.ChatHandler.Message)
			chatRoutes.Get("/api/chat/history", cfg.ChatHandler.History)
		})
	}

	if cfg.LeadsHandler != nil {
		r.Post("/api/leads", cfg.LeadsHandler.Create)
	}

	// Admin routes (protected by HMAC JWT)
	if cfg.AdminAuthSecret != "" {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			if cfg.KnowledgeHandler != nil {
				admin.Route("/knowledge", func(k chi.Router) {
					k.Get("/", cfg.KnowledgeHandler.List)
					k.Post("/", cfg.KnowledgeHandler.Create)
					k.Put("/{id}", cfg.KnowledgeHandler.Update)
					k.Delete("/{id}", cfg.KnowledgeHandler.Delete)
				})
			}
			if cfg.LeadsHandler != nil {
				admin.Get("/leads", cfg.LeadsHandler.List)
			}
		})
	}

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
