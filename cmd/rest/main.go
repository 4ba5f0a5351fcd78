package main

import (
	"context"
	"log"
	"time"

	"insightflow-be/internal/bootstrap"
	"insightflow-be/internal/config"
	"insightflow-be/internal/server"
	"insightflow-be/internal/tracer"
	"insightflow-be/pkg/database"

	"github.com/fatih/color"
	"gorm.io/gorm"
)

func main() {
	// 0. Initialize Tracer
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database (optional; in-memory index without it)
	var gormDB *gorm.DB
	if cfg.Database.Connection != "" {
		db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
		if err != nil {
			log.Panicf("Unable to connect to GORM DB: %v", err)
		}
		gormDB = db
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)

	// 4. Start Background Services
	go func() {
		log.Println("Background: Starting Consumer Service...")
		if err := container.ConsumerService.Consume(context.Background()); err != nil {
			log.Printf("Background Consumer Error: %v", err)
		}
	}()

	go runSessionEviction(cfg, container)

	color.Cyan("InsightFlow backend starting on port %s", cfg.App.Port)

	// 5. Initialize and Run Server
	srv := server.New(cfg, container)
	log.Fatal(srv.Run())
}

// runSessionEviction sweeps idle conversations on a fixed interval so
// abandoned sessions release their memory before the cache TTL fires.
func runSessionEviction(cfg *config.Config, container *bootstrap.Container) {
	ticker := time.NewTicker(cfg.Ai.EvictInterval)
	defer ticker.Stop()

	for range ticker.C {
		if evicted := container.Sessions.EvictStale(cfg.Ai.SessionTTL); evicted > 0 {
			log.Printf("Background: Evicted %d stale sessions", evicted)
		}
	}
}
