package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"labtrade-api/internal/config"
	"labtrade-api/internal/handler"
	"labtrade-api/internal/ledger"
	"labtrade-api/internal/middleware"
	"labtrade-api/internal/notifier"
	"labtrade-api/internal/repository"
	"labtrade-api/internal/router"
	"labtrade-api/internal/service"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting LabTrade API...")

	// Load configuration
	cfg := config.MustLoad()
	log.Printf("Environment: %s", cfg.App.Environment)

	// Initialize exchange repository based on config
	var exchangeRepo repository.ExchangeRepository
	var sqliteRepo *repository.SQLiteExchangeRepository
	switch cfg.ExchangeDB.Type {
	case "postgres", "postgresql":
		pgRepo, err := repository.NewPostgresExchangeRepository(cfg.ExchangeDB.PostgresDSN())
		if err != nil {
			log.Fatalf("Failed to initialize PostgreSQL: %v", err)
		}
		defer pgRepo.Close()
		exchangeRepo = pgRepo
		log.Println("PostgreSQL exchange repository initialized")
	default: // sqlite
		var err error
		sqliteRepo, err = repository.NewSQLiteExchangeRepository(cfg.ExchangeDB.Path)
		if err != nil {
			log.Fatalf("Failed to initialize SQLite: %v", err)
		}
		defer sqliteRepo.Close()
		exchangeRepo = sqliteRepo
		log.Println("SQLite exchange repository initialized")
	}

	// Initialize item repository. MySQL is used when enabled (shared catalog
	// database); otherwise items live in a local SQLite table.
	var itemRepo repository.ItemRepository
	if cfg.Database.Enabled {
		mysqlDB, err := sql.Open("mysql", cfg.Database.DSN())
		if err != nil {
			log.Fatalf("Failed to open MySQL: %v", err)
		}
		mysqlDB.SetMaxOpenConns(10)
		mysqlDB.SetMaxIdleConns(5)
		mysqlDB.SetConnMaxLifetime(5 * time.Minute)

		if err := mysqlDB.Ping(); err != nil {
			log.Fatalf("MySQL ping failed: %v", err)
		}
		defer mysqlDB.Close()

		itemRepo, err = repository.NewMySQLItemRepository(mysqlDB)
		if err != nil {
			log.Fatalf("Failed to initialize MySQL item repository: %v", err)
		}
		log.Println("MySQL item repository initialized")
	} else {
		var itemDB *sql.DB
		if sqliteRepo != nil {
			// Share the exchange store's handle.
			itemDB = sqliteRepo.DB()
		} else {
			var err error
			itemDB, err = sql.Open("sqlite", cfg.ExchangeDB.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000&_busy_timeout=5000")
			if err != nil {
				log.Fatalf("Failed to open SQLite item store: %v", err)
			}
			itemDB.SetMaxOpenConns(1)
			defer itemDB.Close()
		}

		var err error
		itemRepo, err = repository.NewSQLiteItemRepository(itemDB)
		if err != nil {
			log.Fatalf("Failed to initialize SQLite item repository: %v", err)
		}
		log.Println("SQLite item repository initialized")
	}

	// Initialize Redis client (session tokens, redis ledger)
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Redis connection failed: %v", err)
		redisClient = nil
	} else {
		log.Println("Redis client initialized")
	}
	cancel()

	// Initialize stock ledger
	var stockLedger ledger.Ledger
	if cfg.Ledger.Type == "redis" && redisClient != nil {
		stockLedger = ledger.NewRedisLedger(redisClient)
		log.Println("Redis stock ledger initialized")
	} else {
		if cfg.Ledger.Type == "redis" {
			log.Println("Warning: redis ledger requested but Redis is unavailable, using in-memory ledger")
		}
		stockLedger = ledger.NewMemoryLedger()
		log.Println("In-memory stock ledger initialized")
	}

	// Initialize notification sink
	var sink notifier.Notifier
	if cfg.Notifier.KafkaEnabled {
		sink = notifier.NewKafkaNotifier(cfg.Notifier.BrokerList(), cfg.Notifier.KafkaTopic)
		log.Printf("Kafka notifier initialized (topic %s)", cfg.Notifier.KafkaTopic)
	} else {
		sink = notifier.NewLogNotifier()
		log.Println("Log notifier initialized")
	}
	defer sink.Close()

	// Initialize services
	exchangeService := service.NewExchangeService(exchangeRepo, itemRepo, stockLedger, sink, cfg.Exchange.ResponseTTL)
	if exchangeService == nil {
		log.Fatal("Failed to initialize exchange service")
	}

	var tokenService *service.TokenService
	if redisClient != nil {
		tokenService = service.NewTokenService(redisClient)
	}

	// Start the expiry sweeper
	sweeper := service.NewExpirySweeper(exchangeRepo, sink, service.ExpiryConfig{
		SweepInterval: cfg.Exchange.SweepInterval,
	})
	sweeper.Start()
	defer sweeper.Stop()

	// Initialize handlers
	healthHandler := handler.New()
	exchangeHandler := handler.NewExchangeHandler(exchangeService)
	adminHandler := handler.NewAdminHandler(exchangeRepo, itemRepo, exchangeService, stockLedger, cfg.App.AdminKey, cfg.ExchangeDB.Type)
	authHandler := handler.NewAuthHandler(tokenService)

	// Create auth middleware with injected dependencies
	authMiddleware := middleware.NewAuthMiddleware(middleware.AuthConfig{
		TokenService: tokenService,
		APIKeys:      cfg.App.APIKeyList(),
	})

	// Create router
	r := router.New(router.Config{
		Handler:         healthHandler,
		ExchangeHandler: exchangeHandler,
		AuthHandler:     authHandler,
		AdminHandler:    adminHandler,
		AuthMiddleware:  authMiddleware,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel = context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
	fmt.Println("Goodbye!")
}
