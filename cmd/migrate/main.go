package main

import (
	"context"
	"log"
	"os"

	"casekart/internal/config"
	"casekart/internal/db"
	"casekart/internal/migrate"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[migrate] ", log.LstdFlags|log.LUTC)

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	if err := migrate.Apply(ctx, dbpool); err != nil {
		logger.Fatalf("apply migrations: %v", err)
	}
	logger.Printf("migrations applied")
}
