package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/bobbycar-reinvented/bobby-websocket/api/handlers"
	"github.com/bobbycar-reinvented/bobby-websocket/internal/bridge"
	"github.com/bobbycar-reinvented/bobby-websocket/internal/config"
	"github.com/bobbycar-reinvented/bobby-websocket/internal/hub"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Core hub
	registry := hub.NewRegistry()
	router := hub.NewRouter(registry, cfg.AuthKey)
	wsHandler := hub.NewHandler(router, registry)

	// Side-channel bridge
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source, err := newBridgeSource(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to start bridge: %v", err)
	}
	if source != nil {
		adapter := bridge.New(source, registry)
		go adapter.Run(ctx)
	}

	// Relay listener
	relayHandler := handlers.NewRelayHandler(wsHandler)
	relay := gin.Default()
	relayHandler.RegisterRoutes(relay)

	// Inventory listener
	inventoryHandler := handlers.NewInventoryHandler(registry)
	api := gin.Default()
	api.Use(corsMiddleware())
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})
	inventoryHandler.RegisterRoutes(api)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("Shutting down server...")
		cancel()
		if source != nil {
			source.Close()
		}
		registry.Close()
		os.Exit(0)
	}()

	go func() {
		log.Printf("Inventory API listening on %s", cfg.APIAddr)
		if err := api.Run(cfg.APIAddr); err != nil {
			log.Fatalf("Failed to start inventory API: %v", err)
		}
	}()

	log.Printf("Server started on %s", cfg.RelayAddr)
	if err := relay.Run(cfg.RelayAddr); err != nil {
		log.Fatalf("Failed to start relay: %v", err)
	}
}

// newBridgeSource builds the configured side-channel feed, or nil when the
// bridge is disabled.
func newBridgeSource(ctx context.Context, cfg config.Config) (bridge.Source, error) {
	switch cfg.BridgeDriver {
	case config.BridgeDriverOff:
		return nil, nil
	case config.BridgeDriverRedis:
		return bridge.NewRedisSource(ctx, cfg.RedisURL, cfg.BridgeChannel)
	case config.BridgeDriverAMQP:
		return bridge.NewAMQPSource(cfg.RabbitMQURL, cfg.BridgeChannel)
	default:
		return nil, bridge.ErrUnknownDriver
	}
}

// corsMiddleware returns a CORS middleware for the dashboard.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
