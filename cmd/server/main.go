package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/rossfreedman/rally/internal/config"
	"github.com/rossfreedman/rally/internal/db"
	"github.com/rossfreedman/rally/internal/goroutine"
	httpHandlers "github.com/rossfreedman/rally/internal/http/handlers"
	"github.com/rossfreedman/rally/internal/http/middleware"
	httpRouter "github.com/rossfreedman/rally/internal/http/router"
	"github.com/rossfreedman/rally/internal/logger"
	"github.com/rossfreedman/rally/internal/metrics"
	"github.com/rossfreedman/rally/internal/notify"
	"github.com/rossfreedman/rally/internal/repository"
	"github.com/rossfreedman/rally/internal/service"
	"github.com/rossfreedman/rally/internal/web"
	"github.com/rossfreedman/rally/internal/ws"
)

func main() {
	// Context for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fatal("load config", err)
	}

	if cfg.Env == "development" {
		logger.Init("debug")
		logger.SetTextFormatter()
	} else {
		logger.Init("info")
	}
	log := logger.Entry()

	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		fatal("connect to database", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn); err != nil {
		fatal("run migrations", err)
	}

	m := metrics.New()
	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	// Repositories.
	userRepo := repository.NewUserRepository(dbConn)
	teamRepo := repository.NewTeamRepository(dbConn)
	escrowRepo := repository.NewEscrowRepository(dbConn)
	savedLineupRepo := repository.NewSavedLineupRepository(dbConn)

	cache := service.NewCacheService(cfg.TeamCacheSize, time.Minute)
	defer cache.Close()
	teamNames := service.NewTeamNameCache(cache, teamRepo, cfg.TeamCacheTTL)

	hub := ws.NewHub(ctx)
	goroutine.SafeGo(hub.Run)

	// Outbound messages are logged until a provider is configured.
	sender := notify.NewLogSender()
	notifier := service.NewEscrowNotifier(
		notify.NewThrottledSMSSender(sender, cfg.SMSRatePerSecond),
		sender,
		userRepo,
		hub,
		m,
		cfg.PublicBaseURL,
	)

	// Services.
	authService := service.NewAuthService(userRepo, tokenManager)
	escrowService := service.NewEscrowService(escrowRepo, userRepo, teamNames, notifier, hub, m, cfg.EscrowDefaultExpiry)
	savedLineupService := service.NewSavedLineupService(savedLineupRepo)

	sweeper := service.NewExpirySweeper(escrowService, cfg.EscrowSweepInterval)
	goroutine.SafeGoWithContext(ctx, sweeper.Run)

	limitStore, closeLimitStore, err := middleware.NewRateLimitStore(ctx, cfg.RedisURL)
	if err != nil {
		fatal("rate limit store", err)
	}
	defer func() {
		if err := closeLimitStore(); err != nil {
			log.WithError(err).Warn("main: close rate limit store")
		}
	}()

	pages, err := web.Templates()
	if err != nil {
		fatal("parse templates", err)
	}

	engine := httpRouter.SetupRouter(cfg, httpRouter.Handlers{
		Auth:         httpHandlers.NewAuthHandler(authService),
		Escrow:       httpHandlers.NewEscrowHandler(escrowService),
		SavedLineups: httpHandlers.NewSavedLineupHandler(savedLineupService),
		Mobile:       httpHandlers.NewMobileHandler(escrowService),
		Health:       httpHandlers.NewHealthHandler(dbConn),
		WS:           httpHandlers.NewWSHandler(hub, tokenManager, cfg.AllowedOrigins),
	}, tokenManager, limitStore, m, pages)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("main: stop http server")
		}
	}()

	log.WithFields(logrus.Fields{"port": cfg.HTTPPort, "env": cfg.Env}).Info("main: http server started")

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		fatal("http server", err)
	}
}

func fatal(step string, err error) {
	logger.Entry().WithError(err).Errorf("main: %s", step)
	os.Exit(1)
}

func safeClose(conn *sqlx.DB) {
	if err := conn.Close(); err != nil {
		logger.Entry().WithError(err).Warn("main: close database")
	}
}
