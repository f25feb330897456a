package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rijonshahariar/tools-manufacturer-website-server/internal/config"
	"github.com/rijonshahariar/tools-manufacturer-website-server/internal/payment"
	"github.com/rijonshahariar/tools-manufacturer-website-server/internal/server"
	"github.com/rijonshahariar/tools-manufacturer-website-server/internal/store"
	"github.com/rijonshahariar/tools-manufacturer-website-server/internal/token"
	"github.com/rijonshahariar/tools-manufacturer-website-server/internal/util"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := util.InitLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connectCtx, cancelConnect := context.WithTimeout(ctx, 15*time.Second)
	defer cancelConnect()
	db, err := store.NewMongo(connectCtx, cfg.DatabaseURL, cfg.DatabaseName)
	if err != nil {
		log.Fatalf("failed to connect store: %v", err)
	}

	tokens, err := token.New(cfg.AccessTokenSecret)
	if err != nil {
		log.Fatalf("failed to init token service: %v", err)
	}
	payments := payment.NewService(payment.NewStripeCreator(cfg.StripeSecretKey))

	trusted, err := util.NewTrustedProxies(cfg.TrustedProxyCIDRs)
	if err != nil {
		log.Fatalf("failed to parse trusted proxies: %v", err)
	}

	httpServer := server.New(server.Config{
		Store:          db,
		Tokens:         tokens,
		Payments:       payments,
		TrustedProxies: trusted,
	})

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		logger.Error("server error", "err", err)
	}

	closeCtx, cancelClose := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelClose()
	if err := db.Close(closeCtx); err != nil {
		logger.Error("store disconnect failed", "err", err)
	}
	slog.Info("server stopped")
}
