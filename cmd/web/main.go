package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/de-tools/cur-atlas/pkg/server"
	"github.com/de-tools/cur-atlas/pkg/services/config"
	"github.com/de-tools/cur-atlas/pkg/services/cost"
	"github.com/de-tools/cur-atlas/pkg/store/duckdb"
	curstore "github.com/de-tools/cur-atlas/pkg/store/duckdb/cur"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var cfgPath string

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Start the CUR Atlas web server",
		RunE:  runServer,
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "",
		"Path to the config file (optional, defaults apply without one)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("No .env file loaded: %v\n", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := duckdb.NewDB(duckdb.Settings{DbPath: cfg.Store.DbPath})
	if err != nil {
		return fmt.Errorf("failed to open DuckDB instance: %w", err)
	}
	defer db.Close()

	store, err := curstore.NewStore(db, curstore.Options{
		RowLimit:   cfg.Query.RowLimit,
		GroupLimit: cfg.Query.GroupLimit,
	})
	if err != nil {
		return fmt.Errorf("failed to create cur store: %w", err)
	}

	// Ingestion failure is fatal: without the table there is nothing to
	// serve.
	if err := store.EnsureTable(ctx, cfg.Store.SourcePath); err != nil {
		return fmt.Errorf("failed to ingest source export: %w", err)
	}
	logger.Info().Str("source", cfg.Store.SourcePath).Msg("cost-and-usage table ready")

	router := server.ConfigureRouter(server.Config{
		Dependencies: server.Dependencies{
			Executor: cost.NewExecutor(store),
			Enricher: cost.NewEnricher(store, cfg.Query.EnrichWorkers),
			Logger:   logger,
		},
	})

	addr := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{Addr: addr, Handler: router}

	serverErrors := make(chan error, 1)
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info().Str("addr", addr).Msg("starting server")
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-shutdown:
		logger.Info().Msg("shutdown initiated")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown failed")
			return httpServer.Close()
		}
	}

	return nil
}
