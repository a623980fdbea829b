package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	openai "github.com/sashabaranov/go-openai"

	"github.com/webcraft-studio/chatbot-platform/internal/api/router"
	"github.com/webcraft-studio/chatbot-platform/internal/chat"
	appconfig "github.com/webcraft-studio/chatbot-platform/internal/config"
	"github.com/webcraft-studio/chatbot-platform/internal/conversation"
	"github.com/webcraft-studio/chatbot-platform/internal/knowledge"
	"github.com/webcraft-studio/chatbot-platform/internal/leads"
	"github.com/webcraft-studio/chatbot-platform/internal/llm"
	"github.com/webcraft-studio/chatbot-platform/internal/notify"
	"github.com/webcraft-studio/chatbot-platform/internal/observability/metrics"
	"github.com/webcraft-studio/chatbot-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting chatbot-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create pgx pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisOpts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	// Knowledge base and intent matching
	knowledgeRepo := knowledge.NewPostgresRepository(pool)
	matcher := knowledge.NewMatcher(knowledgeRepo, logger.WithComponent("knowledge"))
	knowledgeHandler := knowledge.NewHandler(knowledgeRepo, logger.WithComponent("knowledge"))

	// LLM client. The key may be absent; the chat handler answers 503
	// before the client is ever called in that case.
	llmClient := llm.NewOpenAIClient(openai.NewClient(cfg.OpenAIAPIKey), llm.Options{
		Model:       cfg.OpenAIModel,
		MaxTokens:   cfg.OpenAIMaxTokens,
		Temperature: float32(cfg.OpenAITemperature),
		Timeout:     cfg.OpenAITimeout,
	}, logger.WithComponent("llm"))

	// Conversation pipeline
	chatMetrics := metrics.NewChatMetrics(nil)
	contextStore := conversation.NewPostgresStore(db)
	contextCache := conversation.NewRedisContextStore(redisClient, cfg.SessionCacheTTL)
	manager := conversation.NewManager(matcher, llmClient, contextStore, contextCache, conversation.ManagerConfig{
		BusinessName: cfg.BusinessName,
		SupportEmail: cfg.SupportEmail,
	}, logger.WithComponent("conversation"), chatMetrics)

	// Lead capture and notification
	emailSender := buildEmailSender(ctx, cfg, logger)
	notifyService := notify.NewService(emailSender, cfg.LeadNotifyAddress, cfg.BusinessName, logger.WithComponent("notify"))
	leadsRepo := leads.NewPostgresRepository(pool)
	leadsHandler := leads.NewHandler(leadsRepo, manager, notifyService, logger.WithComponent("leads"))

	chatHandler := chat.NewHandler(manager, cfg.LLMConfigured(), logger.WithComponent("chat"))
	if !cfg.LLMConfigured() {
		logger.Warn("OPENAI_API_KEY missing or invalid, chat endpoints will return 503")
	}

	r := router.New(&router.Config{
		Logger:             logger,
		ChatHandler:        chatHandler,
		LeadsHandler:       leadsHandler,
		KnowledgeHandler:   knowledgeHandler,
		MetricsHandler:     promhttp.Handler(),
		AdminAuthSecret:    cfg.AdminJWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		ChatRateLimit:      cfg.ChatRateLimit,
		ChatRateWindow:     cfg.ChatRateWindow,
		ChatRateMaxIPs:     cfg.ChatRateMaxIPs,
	})

	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		// SSE responses stay open for the length of a model completion.
		WriteTimeout: 2 * time.Minute,
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

// buildEmailSender picks the configured email provider, nil when disabled.
func buildEmailSender(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
	switch cfg.EmailProvider {
	case "sendgrid":
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.EmailFromAddress,
			FromName:  cfg.EmailFromName,
		}, logger)
		if sender == nil {
			logger.Warn("sendgrid selected but SENDGRID_API_KEY missing, notifications disabled")
			return nil
		}
		return sender
	case "ses":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			logger.Warn("failed to load AWS config, notifications disabled", "error", err)
			return nil
		}
		return notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.EmailFromAddress,
			FromName:  cfg.EmailFromName,
		}, logger)
	case "":
		return nil
	default:
		logger.Warn("unknown EMAIL_PROVIDER, notifications disabled", "provider", cfg.EmailProvider)
		return nil
	}
}
