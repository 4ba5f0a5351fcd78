package main

import (
	"log"
	"os"

	"insightflow-be/internal/model"
	"insightflow-be/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, reading from system environment.")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING environment variable is not set.")
	}

	log.Println("Step 1: Connecting to database...")
	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatalf("Error: Failed to connect to database: %v", err)
	}

	log.Println("Step 2: Ensuring required extensions exist...")
	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS vector;`,
	}
	for _, stmt := range setupSQL {
		if err := db.Exec(stmt).Error; err != nil {
			log.Printf("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}

	log.Println("Step 3: Running AutoMigrate...")
	if err := db.AutoMigrate(&model.DocumentChunk{}); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	log.Println("✅ Success: Database migration completed successfully via GORM.")
}
