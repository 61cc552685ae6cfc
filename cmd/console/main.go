package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"fleetview/internal/config"
	"fleetview/internal/model"
	"fleetview/internal/server"

	_ "fleetview/docs"
)

// @title FleetView Console API
// @version 1.0
// @description Operator console bridge: live map state synchronization, playback and reports for a GPS fleet platform.

// @contact.name API Support

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:3000
// @BasePath /api/v1

func main() {
	log.Println("[Console] Starting FleetView console...")

	// Load configuration
	cfg := config.Load()

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		log.Fatalf("[Console] Failed to connect to database: %v", err)
	}
	log.Println("[Console] Connected to database")

	if err := db.AutoMigrate(&model.DisplayPreferences{}); err != nil {
		log.Fatalf("[Console] Failed to migrate database: %v", err)
	}
	log.Println("[Console] Database migrated")

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisURL,
		DB:   0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("[Console] Failed to connect to Redis: %v", err)
	}
	log.Println("[Console] Connected to Redis")
	defer redisClient.Close()

	// Connect to NATS
	natsConn, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		log.Fatalf("[Console] Failed to connect to NATS: %v", err)
	}
	log.Println("[Console] Connected to NATS")
	defer natsConn.Close()

	// Create and setup server
	srv := server.NewServer(cfg, db, redisClient, natsConn)
	if err := srv.Setup(); err != nil {
		log.Fatalf("[Console] Failed to set up server: %v", err)
	}

	addr := fmt.Sprintf(":%d", cfg.APIPort)
	go func() {
		if err := srv.Run(addr); err != nil {
			log.Fatalf("[Console] Failed to start server: %v", err)
		}
	}()

	log.Printf("[Console] Ready on %s", addr)

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	log.Println("[Console] Shutting down...")

	srv.Shutdown()
	log.Println("[Console] Stopped")
}
