// cmd/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go_4_interview_prep/internal/config"
	"go_4_interview_prep/internal/content"
	"go_4_interview_prep/internal/handlers"
	"go_4_interview_prep/internal/logging"
	"go_4_interview_prep/internal/repository"
	"go_4_interview_prep/internal/scheduler"
	"go_4_interview_prep/internal/service"
)

func main() {
	configDir := flag.String("config", "configs", "directory containing config.yaml")
	flag.Parse()

	// 設定ファイル読み込み用の一時的なロガー
	tempLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(tempLogger)
	log.Println("Log Config Loading...")

	if err := config.LoadConfig(*configDir); err != nil {
		slog.Error("Error loading configuration", slog.Any("error", err))
		os.Exit(1)
	}
	cfg := &config.Cfg

	logger := logging.New(os.Stderr, cfg.Log.Level)
	slog.SetDefault(logger)
	slog.Info("Application starting...", slog.String("app", config.AppName), slog.String("version", config.AppVersion))

	loc, err := time.LoadLocation(cfg.App.TimeZone)
	if err != nil {
		slog.Error("Invalid app.time_zone", slog.String("time_zone", cfg.App.TimeZone), slog.Any("error", err))
		os.Exit(1)
	}

	// 1. Database
	db, err := repository.NewDB(cfg.Database.Driver, cfg.Database.URL, logger)
	if err != nil {
		slog.Error("Error initializing database", slog.Any("error", err))
		os.Exit(1)
	}
	sqlDB, err := db.DB()
	if err != nil {
		slog.Error("Error getting underlying sql.DB from GORM", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			slog.Error("Error closing database connection", slog.Any("error", err))
		} else {
			slog.Info("Database connection closed.")
		}
	}()
	// sqlite (ローカル開発) は起動時にテーブルを作る。postgres は cmd/migrate で行う
	if cfg.Database.Driver == repository.DriverSQLite {
		if err := repository.Migrate(db); err != nil {
			slog.Error("Error migrating sqlite database", slog.Any("error", err))
			os.Exit(1)
		}
	}

	// 2. Content
	catalog, err := content.Load(cfg.App.ContentPath)
	if err != nil {
		slog.Error("Error loading track content", slog.String("path", cfg.App.ContentPath), slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("Track content loaded", slog.Int("tracks", len(catalog.List())))

	// 3. Dependency Injection
	mailer, err := service.NewMailer(cfg)
	if err != nil {
		slog.Error("Error initializing mailer", slog.Any("error", err))
		os.Exit(1)
	}

	progressService := service.NewProgressService(db, repository.NewGormLearningStoreRepository(), catalog,
		service.ProgressServiceConfig{NotesMaxLength: cfg.App.NotesMaxLength, DefaultLocation: loc}, logger)
	subscriptionService := service.NewSubscriptionService(db, repository.NewGormSubscriptionRepository(), mailer, cfg.Push.VAPIDPublicKey)
	if cfg.Push.VAPIDPublicKey == "" {
		slog.Warn("VAPID public key is not set, push subscription will be unavailable")
	}

	// 4. Scheduler
	sched := scheduler.New(progressService, loc, cfg.App.StreakSweepAt, logger)
	if err := sched.Start(); err != nil {
		slog.Error("Error starting scheduler", slog.Any("error", err))
		os.Exit(1)
	}
	defer sched.Stop()

	// 5. Router
	r := handlers.NewRouter(handlers.RouterDeps{
		Config:              cfg,
		Logger:              logger,
		DB:                  db,
		Catalog:             catalog,
		ProgressService:     progressService,
		SubscriptionService: subscriptionService,
		DefaultLocation:     loc,
	})

	// 6. Start Server
	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("Server listening", slog.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Could not listen on port", slog.String("port", cfg.Server.Port), slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", slog.Any("error", err))
	}

	log.Println("Server exiting")
}
