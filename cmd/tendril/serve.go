package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	backend "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/tendrilhq/tendril"
	httpAdapter "github.com/tendrilhq/tendril/internal/adapters/http"
	"github.com/tendrilhq/tendril/internal/adapters/transport"
	"github.com/tendrilhq/tendril/internal/config"
	"github.com/tendrilhq/tendril/internal/logging"
	"github.com/tendrilhq/tendril/internal/services/ai"
	"github.com/tendrilhq/tendril/internal/services/httpcall"
	"github.com/tendrilhq/tendril/internal/validator"
	"github.com/tendrilhq/tendril/pkg/adapters/memory"
	redisAdapter "github.com/tendrilhq/tendril/pkg/adapters/redis"
	"github.com/tendrilhq/tendril/pkg/adapters/sqlite"
	"github.com/tendrilhq/tendril/pkg/observability"
	"github.com/tendrilhq/tendril/pkg/ports"
	_ "modernc.org/sqlite"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the webhook server",
	Long:  `Starts the Tendril engine behind an HTTP webhook, processing inbound messages against the configured flow catalog.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		level, err := logging.ParseLevel(cfg.Log.Level)
		if err != nil {
			return err
		}
		logger := logging.New(level)

		if cfg.Flows == "" {
			return fmt.Errorf("config: flows catalog path is required")
		}
		flows, err := memory.LoadCatalog(cfg.Flows)
		if err != nil {
			return fmt.Errorf("failed to load flow catalog: %w", err)
		}
		flows.WithLogger(logger)

		for _, flow := range flows.All() {
			if err := validator.ValidateFlow(flow); err != nil {
				logger.Warn("flow failed validation", "flow", flow.ID, "err", err)
			}
		}

		opts := []tendril.Option{
			tendril.WithLogger(logger),
			tendril.WithHTTPCaller(httpcall.New()),
			tendril.WithLifecycleHooks(observability.NewMetrics(prometheus.DefaultRegisterer).Hooks()),
		}

		switch cfg.StoreBackend() {
		case "redis":
			ttl, err := cfg.SessionTTL()
			if err != nil {
				return err
			}
			client := backend.NewClient(&backend.Options{
				Addr:     cfg.Store.Redis.Addr,
				Password: cfg.Store.Redis.Password,
				DB:       cfg.Store.Redis.DB,
			})
			store := redisAdapter.NewFromClient(client, redisAdapter.WithTTL(ttl))
			defer store.Close()
			opts = append(opts,
				tendril.WithStore(store),
				tendril.WithDistributedLocker(redisAdapter.NewLocker(client, "tendril:")),
			)
		case "sqlite":
			db, err := sql.Open("sqlite", cfg.Store.SQLite.Path)
			if err != nil {
				return fmt.Errorf("failed to open sqlite database: %w", err)
			}
			defer db.Close()
			store, err := sqlite.NewStore(db)
			if err != nil {
				return err
			}
			opts = append(opts, tendril.WithStore(store))
		}

		if cfg.AI.BaseURL != "" {
			aiOpts := []ai.Option{}
			if cfg.AI.Model != "" {
				aiOpts = append(aiOpts, ai.WithModel(cfg.AI.Model))
			}
			opts = append(opts, tendril.WithCompleter(ai.New(cfg.AI.BaseURL, cfg.AI.APIKey, aiOpts...)))
		}
		if cfg.Engine.MaxHops > 0 {
			opts = append(opts, tendril.WithMaxHops(cfg.Engine.MaxHops))
		}

		var outbound ports.Transport
		if cfg.Transport.WebhookURL != "" {
			outbound = transport.NewWebhook(cfg.Transport.WebhookURL)
		} else {
			logger.Warn("no outbound webhook configured, logging messages instead")
			outbound = transport.NewLog(logger)
		}

		engine, err := tendril.New(flows, outbound, opts...)
		if err != nil {
			return fmt.Errorf("failed to initialize engine: %w", err)
		}

		srv := &http.Server{
			Addr:    cfg.Addr(),
			Handler: httpAdapter.NewHandler(engine, logger),
		}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("starting webhook server", "addr", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			logger.Info("starting shutdown", "signal", sig.String())

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("graceful shutdown did not complete", "err", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("failed to stop server: %w", err)
				}
			}
			logger.Info("server stopped")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
