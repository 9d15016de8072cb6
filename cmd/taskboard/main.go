package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"taskboard/internal/config"
	"taskboard/internal/logger"
	"taskboard/internal/repository"
	"taskboard/internal/service"
	"taskboard/internal/web"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("load .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	if cfg.SessionSweepAt != "" {
		if err := service.ParseDailyTime(cfg.SessionSweepAt); err != nil {
			slog.Error("load config", "key", "SESSION_SWEEP_AT", "error", err)
			os.Exit(1)
		}
	}
	log := logger.New("taskboard", cfg.LogLevel)
	slog.SetDefault(log)
	gin.SetMode(cfg.GinMode)

	db, err := repository.NewDB(cfg.DatabaseURL, log)
	if err != nil {
		log.Error("open database", "error", err)
		os.Exit(1)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	authSvc := service.NewAuthService(userRepo, sessionRepo, cfg.SessionTTL, log)
	services := web.Services{
		Auth:        authSvc,
		Teams:       service.NewTeamService(teamRepo, projectRepo, userRepo, log),
		Projects:    service.NewProjectService(projectRepo, teamRepo, taskRepo, log),
		Tasks:       service.NewTaskService(taskRepo, projectRepo, teamRepo, assignmentRepo, commentRepo, cfg.TimeZone, log),
		Assignments: service.NewAssignmentService(assignmentRepo, taskRepo, teamRepo, userRepo, log),
		Comments:    service.NewCommentService(commentRepo, taskRepo, teamRepo),
		Dashboard:   service.NewDashboardService(taskRepo, projectRepo, teamRepo),
	}

	scheduler := service.NewSchedulerService(cfg.TimeZone, log)
	sweep := func(ctx context.Context) error {
		_, err := authSvc.SweepExpiredSessions(ctx)
		return err
	}
	if cfg.SessionSweepAt != "" {
		_, err = scheduler.ScheduleDaily("session-sweep", cfg.SessionSweepAt, sweep)
	} else {
		_, err = scheduler.ScheduleInterval("session-sweep", cfg.SessionSweepInterval, sweep)
	}
	if err != nil {
		log.Error("schedule session sweep", "error", err)
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Stop()

	server := web.New(services, web.Options{
		CookieName:   cfg.SessionCookieName,
		CookieSecure: cfg.CookieSecure,
		SessionTTL:   cfg.SessionTTL,
		Health: func(ctx context.Context) error {
			if sqlDB == nil {
				return errors.New("database handle unavailable")
			}
			return sqlDB.PingContext(ctx)
		},
	}, log)
	router, err := server.Router()
	if err != nil {
		log.Error("build router", "error", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("task board started", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			log.Error("http server stopped with error", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", "error", err)
	}
	log.Info("shutdown complete")
}
