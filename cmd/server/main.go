package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/campuslink/chatcore/internal/config"
	"github.com/campuslink/chatcore/internal/crypto"
	"github.com/campuslink/chatcore/internal/database"
	"github.com/campuslink/chatcore/internal/handlers"
	"github.com/campuslink/chatcore/internal/presence"
	"github.com/campuslink/chatcore/internal/realtime"
	"github.com/campuslink/chatcore/internal/repositories"
	"github.com/campuslink/chatcore/internal/services"
)

func main() {
	ctx := context.Background()
	log := logrus.StandardLogger()

	godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	codec, err := crypto.NewCodec(cfg.MessageKey)
	if err != nil {
		log.Fatalf("Failed to initialize message codec: %v", err)
	}

	// Initialize database connections
	postgresPool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create postgres pool: %v", err)
	}
	defer postgresPool.Close()

	redisClient, err := database.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to create redis client: %v", err)
	}
	defer redisClient.Close()

	// Repositories
	messageRepo := repositories.NewPostgresMessageRepository(postgresPool)
	peerRepo := repositories.NewPostgresPeerRepository(postgresPool)
	lastSeenRepo := repositories.NewRedisLastSeenRepository(redisClient)

	// Live-connection layer
	registry := presence.NewRegistry()
	hub := realtime.NewHub(registry, lastSeenRepo, log)

	// Services
	tokenService := services.NewTokenService(cfg.JWTSecret)
	messageService := services.NewMessageService(messageRepo, codec, hub, log)
	chatListService := services.NewChatListService(peerRepo, messageRepo, lastSeenRepo, registry, codec, log)

	messageHandler := handlers.NewMessageHandler(messageService, chatListService)

	// Initialize HTTP Server
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	// Health check endpoints
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	router.Get("/ws", hub.ServeWS)

	router.Route("/api", func(r chi.Router) {
		r.Use(handlers.Auth(tokenService))
		r.Post("/messages", messageHandler.Send)
		r.Post("/messages/{messageID}/read", messageHandler.MarkRead)
		r.Get("/conversations/{peerID}", messageHandler.Conversation)
		r.Get("/chats", messageHandler.ChatList)
	})

	// Start Server
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: router,
	}

	// graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("Starting server on port %s", cfg.ServerPort)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server stopped gracefully")
}
