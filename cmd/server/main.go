// NexiFit - WhatsApp Fitness Coaching Bot Server
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

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/nexifit/nexifit/internal/bot"
	"github.com/nexifit/nexifit/internal/clock"
	"github.com/nexifit/nexifit/internal/config"
	"github.com/nexifit/nexifit/internal/llm"
	"github.com/nexifit/nexifit/internal/report"
	"github.com/nexifit/nexifit/internal/scheduler"
	"github.com/nexifit/nexifit/internal/session"
	"github.com/nexifit/nexifit/internal/store"
	"github.com/nexifit/nexifit/internal/streak"
	"github.com/nexifit/nexifit/internal/tips"
	"github.com/nexifit/nexifit/internal/transport"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clk := clock.Real{}
	sched := scheduler.New(clk)
	sched.Start(ctx)
	slog.Info("Scheduler started")

	// Outbound delivery: console connections get a direct sender,
	// everything else goes through the messaging API.
	registry := transport.NewRegistry(transport.NewWhatsAppSender(cfg.WhatsApp))

	completer := llm.New(cfg.LLM)
	sessions := session.NewStore()
	streaks := streak.NewEngine(repo, clk)
	rotation := tips.NewRotation(repo, registry, clk)
	reports := report.NewGenerator(repo, streaks, registry, clk)

	coach := bot.New(bot.Config{
		AdminContact:      cfg.AdminContact,
		ConsoleBypass:     cfg.IsDevelopment(),
		GenerationWorkers: int64(cfg.GenerationWorkers),
	}, repo, sessions, registry, completer, sched, streaks, reports, clk)
	coach.Start(ctx)

	// Periodic jobs.
	registerCron := func(name, spec string, fn scheduler.Func) {
		if _, err := sched.SchedulePeriodic(spec, fn); err != nil {
			slog.Error("Failed to register periodic job", "job", name, "spec", spec, "error", err)
			os.Exit(1)
		}
		slog.Info("Periodic job registered", "job", name, "spec", spec)
	}
	registerCron("tip_broadcast", cfg.TipBroadcastCron, rotation.Broadcast)
	registerCron("weekly_report", cfg.WeeklyReportCron, reports.RunAll)
	registerCron("goal_check", cfg.GoalCheckCron, coach.GoalCheckSweep)
	registerCron("expiry_cleanup", cfg.ExpiryCleanupCron, func(jobCtx context.Context) {
		n, err := repo.CleanExpiredUsers(jobCtx)
		if err != nil {
			slog.Error("Expired user cleanup failed", "error", err)
			return
		}
		if n > 0 {
			slog.Info("Expired users deactivated", "count", n)
		}
	})

	// Handlers.
	webhook := transport.NewWebhook(coach)
	console := transport.NewConsole(coach, registry, cfg.IsDevelopment())

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))

	r.Post("/webhook", webhook.ServeHTTP)
	r.Get("/ws/console", console.ServeHTTP)

	// Create server.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // websocket console connections stay open
		IdleTimeout:  120 * time.Second,
	}

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
