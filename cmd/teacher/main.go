package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"

	"github.com/braillearn/backend/internal/auth"
	"github.com/braillearn/backend/internal/config"
	httpdelivery "github.com/braillearn/backend/internal/delivery/http"
	"github.com/braillearn/backend/internal/infra/postgres"
	"github.com/braillearn/backend/internal/logger"
	"github.com/braillearn/backend/internal/repository"
	"github.com/braillearn/backend/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	zl, err := logger.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer zl.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dsn, err := cfg.DB.DSN()
	if err != nil {
		zl.Fatal("database config", zap.Error(err))
	}

	pool, err := postgres.NewPool(ctx, dsn, postgres.PoolConfig{
		MaxConns:        int32(cfg.DB.MaxConnections),
		MaxConnLifetime: cfg.DB.MaxConnLifetime,
	})
	if err != nil {
		zl.Fatal("connect to database", zap.Error(err))
	}
	defer pool.Close()

	tx := postgres.NewTransactor(pool)

	lessonRepo := repository.NewLessonRepository(pool, tx)
	classRepo := repository.NewClassRepository(pool, tx)
	reportingRepo := repository.NewReportingRepository(pool)
	userRepo := repository.NewUserRepository(pool)

	lessonService := service.NewLessonService(lessonRepo)
	classService := service.NewClassService(classRepo)
	progressService := service.NewProgressService(reportingRepo, lessonRepo, userRepo)

	tokens := auth.NewTokenManager(cfg.JWTSecret)
	authMiddleware := httpdelivery.NewAuthMiddleware(tokens)

	handler := httpdelivery.NewTeacherHandler(lessonService, progressService, classService, zl)
	router := httpdelivery.NewTeacherRouter(cfg, handler, authMiddleware)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTP.TeacherPort),
		Handler: router,
	}

	go func() {
		zl.Info("teacher service listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("serve", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zl.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("shutdown", zap.Error(err))
	}
}
