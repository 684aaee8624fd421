package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/familybudget/internal/api"
	"github.com/mmynk/familybudget/internal/auth"
	"github.com/mmynk/familybudget/internal/config"
	"github.com/mmynk/familybudget/internal/email"
	"github.com/mmynk/familybudget/internal/events"
	"github.com/mmynk/familybudget/internal/metrics"
	"github.com/mmynk/familybudget/internal/service"
	"github.com/mmynk/familybudget/internal/storage/sqlstore"
	"github.com/mmynk/familybudget/internal/tools"
	"github.com/mmynk/familybudget/pkg/logging"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is fine; the environment wins either way.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	cfg := config.Load()
	logging.SetupWithLevel(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := sqlstore.Open(sqlstore.Dialect(cfg.DBDriver), cfg.DSN())
	if err != nil {
		return err
	}
	defer store.Close()
	slog.Info("Storage initialized", "driver", cfg.DBDriver)

	mailer, err := email.NewSESSender(ctx, email.Options{
		Region:     cfg.AWSRegion,
		FromEmail:  cfg.SESFromEmail,
		FromName:   cfg.SESFromName,
		AppBaseURL: cfg.AppBaseURL,
	}, slog.Default())
	if err != nil {
		return err
	}

	var publisher events.Publisher = events.Nop{}
	if cfg.AMQPURL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey)
		if err != nil {
			return err
		}
		publisher = amqpPublisher
		slog.Info("Event publishing enabled", "exchange", cfg.AMQPExchange)
	}
	defer publisher.Close()

	m := metrics.New()
	notifier := service.NewNotifier(publisher, m)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)

	family := service.NewFamilyService(store, auth.NewPasswordAuthenticator(store), jwtManager, mailer, notifier, slog.Default())
	defer family.Wait()
	scenarios := service.NewScenarioService(store, notifier)
	ledger := service.NewLedgerService(store, notifier)
	categories := service.NewCategoryService(store, notifier)

	srv := api.NewServer(api.Deps{
		Store:      store,
		JWT:        jwtManager,
		Family:     family,
		Scenarios:  scenarios,
		Ledger:     ledger,
		Categories: categories,
		Onboarding: service.NewOnboardingService(store, notifier),
		Tools: tools.NewBudgetRegistry(tools.Services{
			Scenarios:  scenarios,
			Ledger:     ledger,
			Categories: categories,
			Family:     family,
		}, m),
		Metrics:    m,
		CORSOrigin: cfg.CORSOrigin,
	})

	httpServer := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           h2c.NewHandler(srv.Handler(), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Server starting", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down", "timeout", cfg.ShutdownTimeout)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
