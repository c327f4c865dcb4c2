package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/prometheus/client_golang/prometheus"
	_ "github.com/shopit/backend/docs"
	"github.com/shopit/backend/internal/config"
	"github.com/shopit/backend/internal/directory"
	"github.com/shopit/backend/internal/logger"
	"github.com/shopit/backend/internal/mail"
	"github.com/shopit/backend/internal/metrics"
	"github.com/shopit/backend/internal/repositories"
	"github.com/shopit/backend/internal/server"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// @title ShopIT Auth API
// @version 1.0
// @description Authentication, password recovery and user management for the ShopIT store

// @contact.name API Support

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name token
// @description Session token set by login or register.
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer logger.Sync()

	logger.Logger.Info("Starting ShopIT Auth Service", zap.String("store", cfg.StoreDriver))

	metrics.RegisterMetrics(prometheus.DefaultRegisterer)

	store, closeStore, err := openStore(cfg)
	if err != nil {
		logger.Logger.Fatal("Failed to open user store", zap.Error(err))
	}
	defer closeStore()

	router := server.NewRouter(server.Deps{
		Config:   cfg,
		Store:    store,
		Sender:   mail.NewSMTPSender(cfg.SMTP, logger.Logger),
		Gatherer: prometheus.DefaultGatherer,
		Logger:   logger.Logger,
	})

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Logger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Logger.Info("Server exited")
}

// openStore connects the configured user store and prepares its schema
func openStore(cfg *config.Config) (directory.Store, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreDriverMongo:
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to mongo: %w", err)
		}
		closeFn := func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(disconnectCtx); err != nil {
				logger.Logger.Error("Failed to disconnect from mongo", zap.Error(err))
			}
		}
		if err := client.Ping(ctx, nil); err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("failed to ping mongo: %w", err)
		}

		repo := repositories.NewUserMongoRepository(
			client.Database(cfg.Mongo.Database).Collection(repositories.UsersCollection),
			logger.Logger,
		)
		if err := repo.EnsureIndexes(ctx); err != nil {
			closeFn()
			return nil, nil, err
		}
		return repo, closeFn, nil

	default:
		db, err := connectDB(cfg.DSN())
		if err != nil {
			return nil, nil, err
		}
		if err := runMigrations(db); err != nil {
			db.Close()
			return nil, nil, err
		}
		return repositories.NewUserRepository(db, logger.Logger), func() { db.Close() }, nil
	}
}

// connectDB connects to the database
func connectDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// runMigrations runs database migrations
func runMigrations(db *sql.DB) error {
	driver, err := mysql.WithInstance(db, &mysql.Config{
		MigrationsTable: "shopit_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	// Get the working directory or use migrations folder relative to the binary
	migrationPath := "file://migrations"
	if _, err := os.Stat("migrations"); os.IsNotExist(err) {
		// Try parent directory if running from cmd
		if _, err := os.Stat("../migrations"); err == nil {
			migrationPath = "file://../migrations"
		}
	}

	m, err := migrate.NewWithDatabaseInstance(migrationPath, "mysql", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
