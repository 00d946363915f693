package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"ai-ghostwriter-be/internal/bootstrap"
	"ai-ghostwriter-be/internal/config"
	"ai-ghostwriter-be/internal/server"
	"ai-ghostwriter-be/internal/tracer"
	"ai-ghostwriter-be/pkg/database"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	shutdownTracer := tracer.InitTracer(cfg.App)
	defer shutdownTracer(context.Background())

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection, !cfg.IsProduction())
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)
	defer container.Close()

	// 4. Start Background Services
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := container.Start(ctx); err != nil {
		log.Panicf("Unable to start background services: %v", err)
	}

	// 5. Initialize Server
	srv := server.New(cfg, container)

	go func() {
		<-ctx.Done()
		log.Println("Shutting down server...")
		if err := srv.Shutdown(); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// 6. Run Server
	if err := srv.Run(); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}
