package main

import (
	"log"

	"ai-ghostwriter-be/internal/config"
	"ai-ghostwriter-be/internal/model"
	"ai-ghostwriter-be/pkg/database"
)

func main() {
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, true)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Running migrations for sources and source_chunks...")
	if err := model.AutoMigrate(db); err != nil {
		log.Fatalf("Error: migration failed: %v", err)
	}

	log.Println("✅ Success: Database migration completed.")
}
