package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/attendance-regularization/internal/config"
	"github.com/cmlabs-hris/attendance-regularization/internal/domain/user"
	appHTTP "github.com/cmlabs-hris/attendance-regularization/internal/handler/http"
	"github.com/cmlabs-hris/attendance-regularization/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-regularization/internal/repository"
	regularizationService "github.com/cmlabs-hris/attendance-regularization/internal/service/regularization"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel()})).With(
		slog.String("app", "attendance-regularization"),
		slog.String("env", cfg.App.Env),
	)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := repository.Open(ctx, cfg)
	if err != nil {
		logger.Error("Error connecting to database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		logger.Error("Error migrating database", "error", err)
		os.Exit(1)
	}

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	regularizationSvc := regularizationService.NewRegularizationService(
		store.Transactor,
		store.Regularization,
		store.Attendance,
		store.Audit,
		user.NewRoleGate(),
		regularizationService.NewReconciler(cfg.Regularization.StandardWorkHours),
		regularizationService.WithLogger(logger),
	)

	regularizationHandler := appHTTP.NewRegularizationHandler(regularizationSvc)

	router := appHTTP.NewRouter(JWTService, regularizationHandler, appHTTP.RouterOptions{
		Env:            cfg.App.Env,
		Version:        cfg.App.Version,
		AllowedOrigins: cfg.App.AllowedOrigins,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	}()

	logger.Info("Server running", "addr", server.Addr, "driver", cfg.Database.Driver)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err)
	}
}
