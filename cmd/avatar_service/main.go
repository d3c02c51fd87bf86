package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"AIAvatar/internal/audiostore"
	"AIAvatar/internal/avatar_service/api"
	"AIAvatar/internal/brain"
	"AIAvatar/internal/cache"
	"AIAvatar/internal/config"
	"AIAvatar/internal/embedding"
	"AIAvatar/internal/history"
	"AIAvatar/internal/models"
	"AIAvatar/internal/monitor"
	"AIAvatar/internal/tts"
	"AIAvatar/internal/worker"
	"AIAvatar/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// stageSession receives questions that do not belong to a browser session:
// the startup greeting and YouTube live-chat comments.
const stageSession = "stage"

func main() {
	configPath := "config/config.yaml"
	if env := os.Getenv("AVATAR_CONFIG"); env != "" {
		configPath = env
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	level, err := logrus.ParseLevel(cfg.Logger.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.Init(level)
	appLogger := logger.New("AvatarService")
	appLogger.Info("Starting avatar service...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Embedding provider and the instant-answer cache.
	embedder, err := embedding.NewModel(cfg.Embedding)
	if err != nil {
		log.Fatalf("Failed to create embedding model: %v", err)
	}

	var index cache.VectorIndex
	switch cfg.Cache.Index {
	case "memory":
		index = cache.NewMemoryIndex()
	case "milvus":
		milvusIndex, err := cache.NewMilvusIndex(ctx, &cfg.Milvus, logger.New("MilvusIndex"))
		if err != nil {
			log.Fatalf("Failed to connect to Milvus: %v", err)
		}
		defer milvusIndex.Close()
		index = milvusIndex
	default:
		log.Fatalf("Unsupported index backend: %s", cfg.Cache.Index)
	}

	store := cache.NewAnswerStore(cfg.Cache.StorePath, logger.New("AnswerStore"))
	cacheSvc, err := cache.NewService(ctx, embedder, index, store, cfg.Cache.Threshold, logger.New("Cache"))
	if err != nil {
		log.Fatalf("Failed to initialize cache: %v", err)
	}

	// Generation, synthesis and persistence collaborators.
	avatarBrain, err := brain.NewBrain(ctx, cfg.LLM, embedder, logger.New("Brain"))
	if err != nil {
		log.Fatalf("Failed to create brain: %v", err)
	}
	defer avatarBrain.Close()

	synthesizer, err := tts.NewGoogleSynthesizer(ctx, cfg.TTS, logger.New("TTS"))
	if err != nil {
		log.Fatalf("Failed to create TTS client: %v", err)
	}

	audioStore, err := audiostore.New(ctx, cfg, logger.New("AudioStore"))
	if err != nil {
		log.Fatalf("Failed to create audio store: %v", err)
	}

	var hist history.History
	if cfg.Redis.Enabled {
		redisHistory, err := history.NewRedisHistory(ctx, &cfg.Redis, logger.New("History"))
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisHistory.Close()
		hist = redisHistory
	} else {
		hist = history.NewMemoryHistory()
	}

	hub := worker.NewHub(ctx, worker.Deps{
		Log:     logger.New("Worker"),
		Cache:   cacheSvc,
		Brain:   avatarBrain,
		TTS:     synthesizer,
		Audio:   audioStore,
		History: hist,
	}, cfg.Worker.MaxConcurrency)

	// Scripted opening line for the stream overlay.
	hub.Submit(stageSession, models.ChatItem{
		MessageText:       "配信が始まりました。視聴者のみなさんに挨拶と自己紹介をしてください。",
		AuthorName:        "system",
		Source:            "system",
		IsInitialGreeting: true,
	})

	if cfg.YouTube.Enabled {
		chatMonitor, err := monitor.New(ctx, cfg.YouTube, avatarBrain, func(item models.ChatItem) {
			hub.Submit(stageSession, item)
		}, logger.New("YouTubeMonitor"))
		if err != nil {
			log.Fatalf("Failed to create YouTube monitor: %v", err)
		}
		go chatMonitor.Run(ctx)
	}

	// HTTP surface.
	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()
	api.RegisterRoutes(router, api.NewAPI(hub, cacheSvc, audioStore, hist, logger.New("API")))

	server := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: router,
	}
	go func() {
		appLogger.WithPayload(map[string]any{"address": cfg.Server.Address}).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to serve HTTP: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down...")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(models.ErrorInfo{Message: err.Error()}).Error("HTTP shutdown failed")
	}
	appLogger.Info("Server stopped")
}
