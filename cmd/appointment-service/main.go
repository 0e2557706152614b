package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/insuhealth/appointment-service/internal/appointment"
	"github.com/insuhealth/appointment-service/internal/config"
	"github.com/insuhealth/appointment-service/internal/enrichment"
	"github.com/insuhealth/appointment-service/internal/httpserver"
	"github.com/insuhealth/appointment-service/internal/messaging"
	"github.com/insuhealth/appointment-service/internal/reconciler"
)

var countries = []string{"PE", "CL"}

func main() {
	root := &cobra.Command{
		Use:           "appointment-service",
		Short:         "Cross-country medical appointment pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), migrateCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// serveCmd runs the whole pipeline in one process: HTTP API, both country
// workers, and the completion reconciler, connected by the in-process
// transport. Stores are Postgres when configured, in-memory otherwise.
func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the API, country workers, and reconciler",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)
			ctx := cmd.Context()

			// Key-value appointment store.
			var (
				repo  appointment.Repository
				ready httpserver.ReadyCheck
			)
			if cfg.DatabaseURL != "" {
				pg, err := appointment.NewPGRepository(ctx, cfg.DatabaseURL)
				if err != nil {
					return fmt.Errorf("connect appointment store: %w", err)
				}
				defer pg.Close()
				if err := pg.EnsureSchema(ctx); err != nil {
					return fmt.Errorf("ensure appointment schema: %w", err)
				}
				repo = pg
				ready = pg.Ping
			} else {
				logger.Warn().Msg("DATABASE_URL not set, using in-memory appointment store")
				repo = appointment.NewMemoryRepository()
			}

			// Per-country enrichment stores.
			stores := make(map[string]enrichment.Store, len(countries))
			for _, country := range countries {
				url, err := cfg.CountryDatabaseURL(country)
				if err != nil {
					return err
				}
				if url == "" {
					logger.Warn().Str("country_iso", country).
						Msg("no database configured, using in-memory enrichment store")
					stores[country] = enrichment.NewMemoryStore()
					continue
				}
				pg, err := enrichment.NewPGStore(ctx, url)
				if err != nil {
					return fmt.Errorf("connect %s enrichment store: %w", country, err)
				}
				defer pg.Close()
				if err := pg.EnsureSchema(ctx); err != nil {
					return fmt.Errorf("ensure %s enrichment schema: %w", country, err)
				}
				stores[country] = pg
			}

			// Event topology: created events fan out to per-country queues,
			// completion events route through the bus to the reconciler.
			transport := messaging.NewMemoryTransport(logger, cfg.MaxReceiveCount)
			defer transport.Stop()

			for _, country := range countries {
				queue := messaging.CountryQueue(country)
				transport.SubscribeTopic(cfg.LifecycleTopic, queue, map[string]string{
					messaging.AttrCountryISO: country,
					messaging.AttrEventType:  string(messaging.EventTypeCreated),
				})

				workerID := "worker-" + strings.ToLower(country)
				worker := enrichment.NewWorker(
					country, workerID,
					repo, stores[country],
					enrichment.NewSimulatedProvider(country, workerID, cfg.EnrichmentDelay),
					transport, cfg.CompletionBus,
					logger,
				)
				transport.Consume(queue, cfg.WorkerBatchSize, worker.Handle)
			}

			transport.BindBus(cfg.CompletionBus, messaging.QueueCompletion)
			rec := reconciler.New(repo, logger)
			transport.Consume(messaging.QueueCompletion, cfg.WorkerBatchSize, rec.Handle)

			publisher := messaging.NewLifecyclePublisher(transport, cfg.LifecycleTopic, logger)
			svc := appointment.NewService(repo, publisher, logger)
			router := httpserver.NewRouter(svc, ready, logger)

			srv := &http.Server{Addr: ":" + cfg.Port, Handler: router}
			errCh := make(chan error, 1)
			go func() {
				logger.Info().Str("port", cfg.Port).Msg("server started")
				errCh <- srv.ListenAndServe()
			}()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			case sig := <-stop:
				logger.Info().Str("signal", sig.String()).Msg("shutting down")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}

// migrateCmd applies the store schemas to every configured database.
func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database schemas",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)
			ctx := cmd.Context()

			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required for migrate")
			}
			pg, err := appointment.NewPGRepository(ctx, cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("connect appointment store: %w", err)
			}
			defer pg.Close()
			if err := pg.EnsureSchema(ctx); err != nil {
				return fmt.Errorf("ensure appointment schema: %w", err)
			}
			logger.Info().Msg("appointment store schema applied")

			for _, country := range countries {
				url, err := cfg.CountryDatabaseURL(country)
				if err != nil {
					return err
				}
				if url == "" {
					logger.Warn().Str("country_iso", country).Msg("no database configured, skipping")
					continue
				}
				store, err := enrichment.NewPGStore(ctx, url)
				if err != nil {
					return fmt.Errorf("connect %s enrichment store: %w", country, err)
				}
				if err := store.EnsureSchema(ctx); err != nil {
					store.Close()
					return fmt.Errorf("ensure %s enrichment schema: %w", country, err)
				}
				store.Close()
				logger.Info().Str("country_iso", country).Msg("enrichment store schema applied")
			}
			return nil
		},
	}
}
