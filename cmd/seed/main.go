package main

import (
	"context"
	"log"
	"os"

	"casekart/internal/config"
	"casekart/internal/db"
	productrepo "casekart/internal/repository/product"
	tokenrepo "casekart/internal/repository/token"
	userrepo "casekart/internal/repository/user"
	"casekart/internal/seed"
	authsvc "casekart/internal/service/auth"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[seed] ", log.LstdFlags|log.LUTC)

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	productRepo := productrepo.NewPostgres(dbpool, logger)
	userRepo := userrepo.NewPostgres(dbpool)

	if err := seed.Run(ctx, productRepo, userRepo, logger); err != nil {
		logger.Fatalf("seed: %v", err)
	}

	// Hand out a ready-to-use access token per seeded user for manual
	// poking at the authenticated endpoints.
	authService := authsvc.New(userRepo, tokenrepo.NewPostgres(dbpool))
	for _, email := range []string{"admin@casekart.test", "asha@casekart.test"} {
		u, err := userRepo.GetByEmail(ctx, email)
		if err != nil {
			continue
		}
		token, err := authService.Issue(ctx, u.ID)
		if err != nil {
			logger.Fatalf("issue token for %s: %v", email, err)
		}
		logger.Printf("access token for %s: %s", email, token)
	}
}
