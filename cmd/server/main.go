// Command authsite-server serves the account site: sign-up, sign-in, sign-out and a protected page.
package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/and161185/authsite/internal/config"
	pkgcrypto "github.com/and161185/authsite/internal/crypto"
	"github.com/and161185/authsite/internal/migrate"
	"github.com/and161185/authsite/internal/repository/postgres"
	httpserver "github.com/and161185/authsite/internal/server/http"
	"github.com/and161185/authsite/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	cfg, err := config.Load(os.Args[1:], ".env")
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(2)
	}

	logger, _ := zap.NewProduction()
	if cfg.Dev {
		logger, _ = zap.NewDevelopment()
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

// run wires the stores, services and HTTP front end, then blocks until SIGINT/SIGTERM.
func run(cfg config.Config, logger *zap.Logger) error {
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Addr),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrate.Up(ctx, cfg.DatabaseURL, logger); err != nil {
		return err
	}

	db, err := postgres.New(ctx, cfg.DatabaseURL, int32(cfg.DatabaseMaxConns))
	if err != nil {
		return err
	}
	defer db.Close()

	// Repositories
	accounts := postgres.NewAccountRepo(db)
	sessions := postgres.NewSessionRepo(db)

	// Services
	hasher := pkgcrypto.NewHasher(cfg.HashWorkers, pkgcrypto.DefaultParams)
	sm, err := service.NewSessionManager(sessions, accounts, cfg.SecretKey, cfg.SessionExpiration, logger.Named("sessions"))
	if err != nil {
		return err
	}
	authSvc := service.NewAuthService(accounts, hasher, sm)

	deleteTimeout := min(cfg.DeleteExpiredInterval, cfg.ShutdownTimeout)
	reaper := service.NewReaper(sessions, cfg.DeleteExpiredInterval, deleteTimeout, logger.Named("reaper"))

	handler, err := httpserver.New(authSvc, httpserver.Options{SecureCookie: cfg.SecureCookie}, logger.Named("http"))
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpserver.Serve(gctx, ln, handler, cfg.ShutdownTimeout, logger.Named("http"))
	})
	g.Go(func() error {
		return reaper.Run(gctx)
	})
	return g.Wait()
}
