// Package main is the entry point for the API server.
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
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/roomflow-ai/booking-platform/internal/config"
	"github.com/roomflow-ai/booking-platform/internal/conversation"
	"github.com/roomflow-ai/booking-platform/internal/events"
	"github.com/roomflow-ai/booking-platform/internal/handler"
	"github.com/roomflow-ai/booking-platform/internal/match"
	"github.com/roomflow-ai/booking-platform/internal/middleware"
	"github.com/roomflow-ai/booking-platform/internal/resolution"
	"github.com/roomflow-ai/booking-platform/internal/sched"
	"github.com/roomflow-ai/booking-platform/internal/store"
	"github.com/roomflow-ai/booking-platform/pkg/logger"
	"github.com/roomflow-ai/booking-platform/pkg/tracing"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server")

	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "booking-platform", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Collaborator event sink. The server works standalone without it.
	var natsPub *events.NATSPublisher
	var sink events.Publisher = events.Nop{}
	if cfg.NATSURL != "" {
		natsPub, err = events.ConnectNATS(ctx, events.NATSConfig{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			log.Warn("failed to connect to NATS, events stay local", zap.Error(err))
		} else {
			defer natsPub.Close()
			sink = natsPub
		}
	}

	hub := events.NewHub(sink)
	defer hub.Close()

	// Chat history archive. Redis when configured, in-memory otherwise.
	var history store.HistoryStore = store.NewMemoryHistory()
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Warn("failed to connect to Redis, using in-memory history", zap.Error(err))
		} else {
			defer client.Close()
			history = store.NewRedisHistory(client)
		}
	}

	rooms := store.NewRoomStore(store.DefaultRooms(), store.DefaultClockHours, log)
	matcher := match.New(cfg.Match)
	scheduler := sched.NewReal()
	defer scheduler.CancelAll()

	orchestrator := conversation.New(scheduler, rooms, history, matcher, cfg.Reveal, hub, log)
	workflow := resolution.New(rooms, hub, log)

	healthHandler := handler.NewHealthHandler(natsPub)
	conversationHandler := handler.NewConversationHandler(orchestrator, history, log)
	roomHandler := handler.NewRoomHandler(rooms, hub, log)
	resolutionHandler := handler.NewResolutionHandler(workflow, log)
	streamHandler := handler.NewStreamHandler(orchestrator, hub, log)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Link", "X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Route("/conversation", func(r chi.Router) {
			r.Get("/messages", conversationHandler.List)
			r.Post("/messages", conversationHandler.Send)
			r.Put("/messages/{id}", conversationHandler.SaveEdit)
			r.Post("/messages/{id}/edit", conversationHandler.BeginEdit)
			r.Delete("/messages/{id}/edit", conversationHandler.CancelEdit)

			r.Post("/reset", conversationHandler.Reset)
			r.Put("/title", conversationHandler.UpdateTitle)
			r.Get("/history", conversationHandler.History)
			r.Post("/history/{id}/restore", conversationHandler.Restore)

			r.Post("/suggestions/preview", conversationHandler.Preview)
			r.Post("/suggestions/{roomID}/select", conversationHandler.SelectRoom)
			r.Post("/suggestions/{roomID}/details", conversationHandler.AddDetails)

			r.Get("/stream", streamHandler.Stream)
		})

		r.Route("/rooms", func(r chi.Router) {
			r.Get("/", roomHandler.List)
			r.Put("/", roomHandler.Replace)
			r.Get("/{id}", roomHandler.Get)
			r.Put("/{id}/status", roomHandler.SetStatus)
		})

		r.Get("/clock", roomHandler.GetClock)
		r.Put("/clock", roomHandler.SetClock)

		r.Route("/resolution", func(r chi.Router) {
			r.Get("/", resolutionHandler.State)
			r.Post("/next", resolutionHandler.Next)
			r.Post("/previous", resolutionHandler.Previous)
			r.Post("/select", resolutionHandler.Select)
			r.Post("/move", resolutionHandler.Move)
			r.Post("/skip", resolutionHandler.Skip)
		})
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
