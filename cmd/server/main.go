package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oggyb/loveknot/internal/access"
	"github.com/oggyb/loveknot/internal/app"
	"github.com/oggyb/loveknot/internal/cache"
	"github.com/oggyb/loveknot/internal/config"
	"github.com/oggyb/loveknot/internal/db"
	"github.com/oggyb/loveknot/internal/logger"
	"github.com/oggyb/loveknot/internal/payment"
	"github.com/oggyb/loveknot/internal/repository"
	"github.com/oggyb/loveknot/internal/server"
	"github.com/oggyb/loveknot/internal/service/contact"
	"github.com/oggyb/loveknot/internal/service/favourite"
	paymentsvc "github.com/oggyb/loveknot/internal/service/payment"
	"github.com/oggyb/loveknot/internal/service/profile"
	"github.com/oggyb/loveknot/internal/service/stats"
	"github.com/oggyb/loveknot/internal/service/story"
	"github.com/oggyb/loveknot/internal/service/user"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		logger.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.New()
	if err != nil {
		return err
	}

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(database); err != nil {
			log.Warn("closing db", "err", err)
		}
	}()

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(ctx); err != nil {
		return err
	}
	defer redisCache.Close()

	if cfg.IsDevelopment() {
		if err := db.SeedTestData(database); err != nil {
			log.Error("failed to seed", "err", err)
		} else if err := redisCache.ResetSequence(ctx, cache.BiodataSequenceKey); err != nil {
			log.Error("failed to reset biodata sequence", "err", err)
		}
	}

	verifier, err := access.NewJWTVerifier(cfg.Auth, nil)
	if err != nil {
		return err
	}
	policy, err := access.NewPolicy(cfg.Access)
	if err != nil {
		return err
	}
	gate := access.NewGate(verifier, repository.NewUserRepository(database), policy, log)

	payments, err := payment.FromConfig(cfg)
	if err != nil {
		return err
	}
	if payments == nil {
		log.Warn("no payment gateway configured; payment routes will fail")
	}

	appCtx := app.New(cfg, database, redisCache, log, gate, payments)

	registrars := []server.Registrar{
		user.NewRegistrar(appCtx),
		profile.NewRegistrar(appCtx),
		contact.NewRegistrar(appCtx),
		favourite.NewRegistrar(appCtx),
		stats.NewRegistrar(appCtx),
		story.NewRegistrar(appCtx),
		paymentsvc.NewRegistrar(appCtx),
	}

	httpServer := server.NewHTTPServer(cfg, log, registrars...)
	ops := server.NewOpsServer(cfg)

	errCh := make(chan error, 2)
	go func() {
		log.Info("starting HTTP server", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		log.Info("starting gRPC ops server", "host", cfg.GRPC.Host, "port", cfg.GRPC.Port)
		if err := ops.Serve(); err != nil {
			errCh <- err
		}
	}()
	ops.SetServing(true)

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err = <-errCh:
		log.Error("server failed", "err", err)
	}

	ops.SetServing(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if serr := httpServer.Shutdown(shutdownCtx); serr != nil {
		log.Warn("http shutdown", "err", serr)
	}
	ops.Stop()
	return err
}
