package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/sfexams/store/internal/content"
	"github.com/sfexams/store/internal/httpapi"
	"github.com/sfexams/store/internal/identity"
	"github.com/sfexams/store/internal/provider"
	"github.com/sfexams/store/internal/repository"
	"github.com/sfexams/store/internal/service"
	"github.com/sfexams/store/pkg/config"
	"github.com/sfexams/store/pkg/logger"
	"github.com/sfexams/store/pkg/shutdown"
)

func main() {
	cfg := config.Load()
	log := logger.New(logger.Options{
		Service: "store",
		Env:     cfg.AppEnv,
		Level:   cfg.LogLevel,
	})

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("fatal", slog.Any("err", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	if err := repository.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("repository.RunMigrations: %w", err)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("pgxpool.New: %w", err)
	}
	defer pool.Close()

	store := repository.NewStore(pool)
	products := repository.NewProduct(pool)
	carts := repository.NewCart(pool)
	orders := repository.NewOrder(pool)
	downloads := repository.NewDownload(pool)

	stripe := provider.NewStripe(provider.StripeConfig{
		SecretKey:     cfg.StripeSecretKey,
		WebhookSecret: cfg.StripeWebhookSecret,
		SuccessURL:    cfg.CheckoutSuccessURL,
		CancelURL:     cfg.CheckoutCancelURL,
	})
	paypal := provider.NewPayPal(provider.PayPalConfig{
		ClientID:  cfg.PayPalClientID,
		Secret:    cfg.PayPalSecret,
		WebhookID: cfg.PayPalWebhookID,
		ReturnURL: cfg.CheckoutSuccessURL,
		CancelURL: cfg.CheckoutCancelURL,
	})

	handler := httpapi.NewHandler(
		products,
		service.NewCart(carts, products),
		service.NewOrder(orders, carts),
		service.NewPayment(store, log, stripe, paypal),
		service.NewDownloadService(downloads, products, content.NewPDFGenerator()),
		identity.NewHMACVerifier(cfg.SessionSecret),
		log,
	)

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	server := &http.Server{
		Addr:              addr,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("http server starting", slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server.ListenAndServe: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		log.Info("shutdown requested")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
