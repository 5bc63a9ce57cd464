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
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/chattersim/chattersim/internal/common/config"
	"github.com/chattersim/chattersim/internal/common/logger"
	"github.com/chattersim/chattersim/internal/events"
	"github.com/chattersim/chattersim/internal/gateway/websocket"
	playbackapi "github.com/chattersim/chattersim/internal/playback/api"
	"github.com/chattersim/chattersim/internal/playback/engine"
	scriptapi "github.com/chattersim/chattersim/internal/script/api"
	"github.com/chattersim/chattersim/internal/script/repository"
	"github.com/chattersim/chattersim/internal/script/sample"
	"github.com/chattersim/chattersim/internal/script/service"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize logger
	log, err := logger.NewLogger(logger.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		OutputPath: cfg.Logging.OutputPath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetDefault(log)

	log.Info("Starting chat simulator service...")

	// 3. Create context cancelled on shutdown signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 4. Connect the event bus (in-memory unless NATS is configured)
	eventBus, closeBus, err := events.Provide(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize event bus", zap.Error(err))
	}
	defer closeBus()
	log.Info("Event bus ready", zap.Bool("nats", cfg.NATS.URL != ""))

	// 5. Initialize script storage and service
	repo := repository.NewMemoryRepository()
	defer repo.Close()
	scripts := service.NewService(repo, eventBus, log)

	// 6. Seed the built-in demo script so a fresh instance has something to play
	if err := seedSampleScript(ctx, scripts); err != nil {
		log.Fatal("Failed to seed sample script", zap.Error(err))
	}

	// 7. Initialize the playback engine
	eng := engine.New(engine.TimingFromConfig(cfg.Playback), eventBus, log)
	defer eng.Stop()

	// 8. Initialize the WebSocket gateway and bridge bus events to clients
	gateway := websocket.NewGateway(eng, scripts, log)
	detachBridge, err := gateway.BridgeEvents(eventBus)
	if err != nil {
		log.Fatal("Failed to attach event bridge", zap.Error(err))
	}
	defer detachBridge()

	// 9. Setup HTTP server with Gin
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(requestLogger(log))

	// 10. Register API routes
	apiV1 := router.Group("/api/v1")
	scriptapi.SetupRoutes(apiV1, scripts, log)
	playbackapi.SetupRoutes(apiV1, eng, scripts, log)
	gateway.SetupRoutes(router)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "chattersim",
			"clients": gateway.Hub.GetClientCount(),
		})
	})

	// 11. Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	// 12. Run the hub and the HTTP server until shutdown
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		gateway.Hub.Run(groupCtx)
		return nil
	})

	group.Go(func() error {
		log.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()

		log.Info("Shutting down chat simulator service...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("Service exited with error", zap.Error(err))
	}

	log.Info("Chat simulator service stopped")
}

// seedSampleScript loads the embedded demo conversation into an empty queue.
// A queue that already has content is left alone.
func seedSampleScript(ctx context.Context, scripts *service.Service) error {
	items, err := scripts.ListItems(ctx)
	if err != nil {
		return err
	}
	if len(items) > 0 {
		return nil
	}

	demo, err := sample.Load()
	if err != nil {
		return err
	}
	return scripts.Replace(ctx, demo)
}
