package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"font-detection-service/config"
	"font-detection-service/gemini"
	"font-detection-service/handlers"
	"font-detection-service/llm"
	"font-detection-service/metrics"
	"font-detection-service/middleware"
	"font-detection-service/openai"
	"font-detection-service/session"
	"font-detection-service/stubllm"

	"github.com/apex/log"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Warn(".env file not found, using system environment variables")
	}

	// Load configuration
	cfg := config.Load()

	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	// Select the LLM provider. A missing credential is not fatal at startup:
	// the rest of the API stays usable and only the analysis call fails.
	var client llm.Client
	switch cfg.LLMProvider {
	case "openai":
		client = openai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		if cfg.OpenAIAPIKey == "" {
			log.Warn("OPENAI_API_KEY is not set; font analysis will fail until it is provided")
		}
	case "stub":
		client = stubllm.NewClient()
	default:
		client = gemini.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel)
		if cfg.GeminiAPIKey == "" {
			log.Warn("GEMINI_API_KEY is not set; font analysis will fail until it is provided")
		}
	}
	log.Infof("Font analyzer LLM provider=%s", client.SourceName())

	// Register prometheus metrics
	metrics.Register()

	// Initialize the session store and its expiry sweeper
	store := session.NewStore(cfg.SessionTTL)
	store.StartSweeper(cfg.SweepInterval)
	defer store.Stop()

	// Initialize handlers
	h := handlers.NewHandlers(cfg, client, store)

	// Setup HTTP server
	router := gin.Default()
	router.MaxMultipartMemory = cfg.MaxUploadBytes
	router.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	router.GET("/health", h.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	api := router.Group("/api/v3")
	api.Use(middleware.RateLimitMiddleware(cfg.RateLimitPerMinute, time.Minute))
	{
		api.POST("/sessions", h.CreateSession)
		api.GET("/sessions/:id", h.GetSession)
		api.DELETE("/sessions/:id", h.DeleteSession)
		api.POST("/sessions/:id/image", h.UploadImage)
		api.POST("/sessions/:id/analyze", h.Analyze)
		api.POST("/sessions/:id/copy", h.CopyCharacter)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    cfg.Host + ":" + cfg.Port,
		Handler: router,
	}

	// Start HTTP server in a goroutine
	go func() {
		log.Infof("Starting HTTP server on %s:%s", cfg.Host, cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	// Create a deadline for server shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited")
}
