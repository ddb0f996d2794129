package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/conference-tickets/config"
	"github.com/Dosada05/conference-tickets/db"
	"github.com/Dosada05/conference-tickets/handlers"
	"github.com/Dosada05/conference-tickets/images"
	"github.com/Dosada05/conference-tickets/qrgen"
	"github.com/Dosada05/conference-tickets/repositories"
	api "github.com/Dosada05/conference-tickets/routes"
	"github.com/Dosada05/conference-tickets/services"
	"github.com/Dosada05/conference-tickets/storage"
)

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded",
		slog.Int("port", cfg.ServerPort),
		slog.String("driver", cfg.DatabaseDriver))

	// Подключение к базе данных
	var dbConn *sql.DB
	switch cfg.DatabaseDriver {
	case config.DriverPostgres:
		dbConn, err = db.Connect(cfg.DatabaseURL, 5*time.Second)
	default:
		dbConn, err = db.OpenSQLite(cfg.SQLitePath)
	}
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	if err := db.EnsureSchema(context.Background(), dbConn, cfg.DatabaseDriver); err != nil {
		logger.Error("failed to ensure database schema", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("database schema ensured")

	// Инициализация файлового хранилища
	var files storage.FileStorage
	if cfg.UseR2() {
		files, err = storage.NewCloudflareR2Storage(storage.CloudflareR2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
		})
		if err == nil {
			logger.Info("Cloudflare R2 storage initialized")
		}
	} else {
		files, err = storage.NewLocalStorage(cfg.UploadDir, cfg.QRDir)
		if err == nil {
			logger.Info("local file storage initialized",
				slog.String("uploads", cfg.UploadDir),
				slog.String("qr_codes", cfg.QRDir))
		}
	}
	if err != nil {
		logger.Error("failed to initialize file storage", slog.Any("error", err))
		os.Exit(1)
	}

	// Инициализация репозиториев
	var participantRepo repositories.ParticipantRepository
	if cfg.DatabaseDriver == config.DriverPostgres {
		participantRepo = repositories.NewPostgresParticipantRepository(dbConn)
	} else {
		participantRepo = repositories.NewSQLiteParticipantRepository(dbConn)
	}

	// Инициализация сервисов
	avatarProcessor := images.NewProcessor(files)
	credentialEncoder := qrgen.NewEncoder(files, cfg.EventName, cfg.EventLocation, cfg.EventDate)
	registrationService := services.NewRegistrationService(participantRepo, avatarProcessor, credentialEncoder, logger)
	queryService := services.NewQueryService(participantRepo)
	logger.Info("services initialized")

	// Инициализация обработчиков HTTP
	h := api.Handlers{
		Registration: handlers.NewRegistrationHandler(registrationService, cfg.MaxUploadBytes),
		Participants: handlers.NewParticipantHandler(queryService),
		Files:        handlers.NewFilesHandler(files),
		Health:       handlers.NewHealthHandler(),
		Admin:        handlers.NewAdminHandler(queryService, cfg.DevMode),
	}

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(router, h, cfg.CORSOrigins)
	logger.Info("routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
