package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go-adega-pos/internal/ai"
	"go-adega-pos/internal/auth"
	"go-adega-pos/internal/catalog"
	"go-adega-pos/internal/checkout"
	"go-adega-pos/internal/config"
	"go-adega-pos/internal/database"
	"go-adega-pos/internal/events"
	"go-adega-pos/internal/handlers"
	"go-adega-pos/internal/ledger"
	"go-adega-pos/internal/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: No .env file found")
	}
	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal("Database setup failed: ", err)
	}

	m := metrics.New()
	publisher := events.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer publisher.Close()

	processor := checkout.NewProcessor(
		checkout.NewGormStore(db),
		checkout.WithTimeout(cfg.CheckoutTimeout),
		checkout.WithNotifier(publisher),
		checkout.WithObserver(m),
	)
	assistant := ai.NewAssistant(cfg.GeminiAPIKey, catalog.New(db), ledger.New(db))
	if !assistant.Enabled() {
		log.Println("GEMINI_API_KEY not set, /api/ask will answer 503")
	}
	h := handlers.New(db, auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL), processor, assistant)

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(m.Middleware())
	r.GET("/metrics", gin.WrapH(m.Handler()))
	h.Mount(r, cfg.AllowRegistration)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Println("🚀 Server starting on " + cfg.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start:", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
}
