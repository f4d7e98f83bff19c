package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/weiawesome/chat-relay/internal/auth"
	"github.com/weiawesome/chat-relay/internal/config"
	"github.com/weiawesome/chat-relay/internal/events"
	"github.com/weiawesome/chat-relay/internal/handler"
	"github.com/weiawesome/chat-relay/internal/history"
	"github.com/weiawesome/chat-relay/internal/hub"
	"github.com/weiawesome/chat-relay/internal/relay"
	"github.com/weiawesome/chat-relay/internal/storage"
	"github.com/weiawesome/chat-relay/internal/timefmt"
	"github.com/weiawesome/chat-relay/internal/users"
	"github.com/weiawesome/chat-relay/pkg/database"
	"github.com/weiawesome/chat-relay/pkg/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.L().Fatal().Err(err).Msg("failed to load configuration")
	}

	log.Init(cfg.Log)
	l := log.L()
	l.Info().Str("host", cfg.Server.Host).Int("port", cfg.Server.Port).Msg("starting chat relay")

	// Database
	db, err := database.New(&cfg.Database)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.AutoMigrate(db, &users.UserModel{}, &history.MessageModel{}); err != nil {
		l.Fatal().Err(err).Msg("failed to migrate database")
	}

	// Display timestamps
	formatter, err := timefmt.New(cfg.Time.Zone)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to initialise timestamp formatter")
	}

	// Auth
	tokens, err := auth.NewManager(cfg.Auth)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to initialise token manager")
	}

	// Users and history
	userRepo := users.NewGormUserRepository(db)
	userService := users.NewService(userRepo, tokens)
	store := history.NewGormStore(db, userRepo)

	var cache history.Cache
	if cfg.Redis.Address != "" {
		redisCache, err := history.NewRedisCache(cfg.Redis)
		if err != nil {
			l.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisCache.Close()
		cache = redisCache
		l.Info().Str("address", cfg.Redis.Address).Msg("history cache enabled")
	}
	historyService := history.NewService(store, cache, cfg.Redis.CacheTTL, formatter)

	// Record events
	var producer events.RecordProducer
	if cfg.Kafka.Enabled {
		kafkaProducer, err := events.NewConfluentProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			l.Fatal().Err(err).Msg("failed to initialise kafka producer")
		}
		defer kafkaProducer.Close()
		producer = kafkaProducer
		l.Info().Str("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("record events enabled")
	}

	// Media storage
	var mediaStore storage.Storage
	switch cfg.Storage.Driver {
	case "s3":
		mediaStore, err = storage.NewS3Storage(context.Background(), cfg.Storage.S3, cfg.Storage.PublicURL)
	default:
		mediaStore, err = storage.NewLocalStorage(cfg.Storage.Local, cfg.Storage.PublicURL)
	}
	if err != nil {
		l.Fatal().Err(err).Msg("failed to initialise media storage")
	}

	// Hub and router
	wsHub := hub.NewHub(cfg.WebSocket)
	go wsHub.Run()

	relayService := relay.NewService(wsHub, store, producer, formatter, cfg.Room)

	// HTTP
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(log.GinMiddleware(l))

	handler.NewWSHandler(wsHub, relayService, cfg.WebSocket).RegisterRoutes(r)
	handler.NewHTTPHandler(userService, historyService, mediaStore, tokens).RegisterRoutes(r)

	if cfg.Storage.Driver == "local" && cfg.Storage.PublicURL == "" {
		r.Static("/media", cfg.Storage.Local.BasePath)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		l.Info().Str("addr", server.Addr).Msg("chat relay listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info().Msg("shutting down chat relay")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		l.Error().Err(err).Msg("server forced to shutdown")
	}

	l.Info().Msg("chat relay stopped")
}
