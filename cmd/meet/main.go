package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	httpapi "github.com/campusbridge/meet/internal/api/http"
	"github.com/campusbridge/meet/internal/config"
	"github.com/campusbridge/meet/internal/repository"
	"github.com/campusbridge/meet/internal/repository/model"
	"github.com/campusbridge/meet/internal/service"
	"github.com/campusbridge/meet/internal/signal"
	"github.com/campusbridge/meet/lib/logger/sl"
	"github.com/campusbridge/meet/lib/logger/slogpretty"
)

const reapInterval = time.Hour

func main() {
	_ = godotenv.Load(".env")

	cfg := config.MustLoad()
	log := setupLogger(cfg.Env)

	db, err := connectDatabase(cfg.Database)
	if err != nil {
		log.Error("failed to connect database", sl.Err(err))
		os.Exit(1)
	}

	redisClient, err := signal.Connect(context.Background(), cfg.Redis)
	if err != nil {
		log.Error("failed to connect redis", sl.Err(err))
		os.Exit(1)
	}
	defer redisClient.Close()

	meetingRepo := repository.NewPostgresMeetingRepository(db)
	store := signal.NewRedisStore(redisClient)

	meetingService := service.NewMeetingService(meetingRepo, log, cfg.Meeting.Lifetime)
	callService := service.NewCallService(store, meetingRepo, log)

	go reapLoop(log, meetingService)

	meetingController := httpapi.NewMeetingController(meetingService)
	callController := httpapi.NewCallController(callService, log)

	router := httpapi.SetupRouter(meetingController, callController, cfg.HTTP.AllowedOrigins, cfg.Auth.JWTSecret)

	log.Info("starting application", slog.String("addr", cfg.HTTP.Address))
	if err := router.Run(cfg.HTTP.Address); err != nil {
		log.Error("http server stopped", sl.Err(err))
		os.Exit(1)
	}
}

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = setupPrettySlog()
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}

func connectDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	if cfg.DSN == "" {
		return nil, errors.New("database dsn is empty")
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	db.AutoMigrate(&model.Meeting{})

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}

func reapLoop(log *slog.Logger, meetings *service.MeetingService) {
	ticker := time.NewTicker(reapInterval)
	defer ticker.Stop()
	for range ticker.C {
		if _, err := meetings.ReapExpired(context.Background()); err != nil {
			log.Warn("meeting reap failed", sl.Err(err))
		}
	}
}
