package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"casekart/internal/config"
	"casekart/internal/db"
	"casekart/internal/events"
	"casekart/internal/httpserver"
	cartrepo "casekart/internal/repository/cart"
	orderrepo "casekart/internal/repository/order"
	productrepo "casekart/internal/repository/product"
	tokenrepo "casekart/internal/repository/token"
	userrepo "casekart/internal/repository/user"
	authsvc "casekart/internal/service/auth"
	cartsvc "casekart/internal/service/cart"
	ordersvc "casekart/internal/service/order"
	sessionsvc "casekart/internal/service/session"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	var sessionStore sessionsvc.Store
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Fatalf("connect to redis: %v", err)
		}
		defer client.Close()
		sessionStore = sessionsvc.NewRedisStore(client)
	} else {
		logger.Printf("REDIS_ADDR not set, guest sessions held in memory")
		sessionStore = sessionsvc.NewMemoryStore()
	}

	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kp.Close()
		publisher = kp
	}

	productRepo := productrepo.NewPostgres(dbpool, logger)
	cartRepo := cartrepo.NewPostgres(dbpool)
	orderRepo := orderrepo.NewPostgres(dbpool, logger)
	tokenRepo := tokenrepo.NewPostgres(dbpool)
	userRepo := userrepo.NewPostgres(dbpool)

	cartService := cartsvc.New(cartRepo, productRepo)
	orderService := ordersvc.New(orderRepo, productRepo, publisher, logger)
	authService := authsvc.New(userRepo, tokenRepo)
	sessionService := sessionsvc.New(sessionStore)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		CartSvc:      cartService,
		OrderSvc:     orderService,
		AuthSvc:      authService,
		SessionSvc:   sessionService,
		ProductCount: productRepo,
		UserCount:    userRepo,
	}, cfg.CORSOrigins)
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	purgeCtx, stopPurge := context.WithCancel(ctx)
	defer stopPurge()
	go purgeExpiredCarts(purgeCtx, cartService, logger)

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}

// purgeExpiredCarts drops guest carts idle past the retention window.
func purgeExpiredCarts(ctx context.Context, carts *cartsvc.Service, logger *log.Logger) {
	ticker := time.NewTicker(12 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := carts.PurgeExpired(ctx)
			if err != nil {
				logger.Printf("purge guest carts: %v", err)
				continue
			}
			if n > 0 {
				logger.Printf("purged %d expired guest carts", n)
			}
		}
	}
}
