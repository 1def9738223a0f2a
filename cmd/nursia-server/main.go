package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/nursia/nursia-api/internal/config"
	"github.com/nursia/nursia-api/internal/domain/extraction"
	"github.com/nursia/nursia-api/internal/domain/record"
	"github.com/nursia/nursia-api/internal/normalize"
	"github.com/nursia/nursia-api/internal/platform/db"
	"github.com/nursia/nursia-api/internal/platform/telemetry"
	"github.com/nursia/nursia-api/migrations"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "nursia-server",
		Short:        "Nursing intake record API server",
		SilenceUsage: true,
	}
	root.AddCommand(serveCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(normalizeCmd())
	return root
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func openMigrator(ctx context.Context, cfg *config.Config) (*db.Migrator, func(), error) {
	pool, err := db.NewPool(ctx, db.PoolConfig{
		DatabaseURL: cfg.DatabaseURL,
		MaxConns:    cfg.DBMaxConns,
		MinConns:    cfg.DBMinConns,
	})
	if err != nil {
		return nil, nil, err
	}
	return db.NewMigrator(pool, migrations.FS), pool.Close, nil
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			target, _ := cmd.Flags().GetInt("to")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			migrator, closePool, err := openMigrator(ctx, cfg)
			if err != nil {
				return err
			}
			defer closePool()

			var count int
			if target > 0 {
				count, err = migrator.UpTo(ctx, target)
			} else {
				count, err = migrator.Up(ctx)
			}
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s).\n", count)
			return nil
		},
	}
	upCmd.Flags().Int("to", 0, "Stop after this migration version (0 applies all)")
	cmd.AddCommand(upCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			migrator, closePool, err := openMigrator(ctx, cfg)
			if err != nil {
				return err
			}
			defer closePool()

			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			printStatus(cmd.OutOrStdout(), statuses)
			return nil
		},
	})

	return cmd
}

func printStatus(w io.Writer, statuses []db.MigrationStatus) {
	fmt.Fprintf(w, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
	for _, s := range statuses {
		status := "pending"
		appliedAt := ""
		if s.Applied {
			status = "applied"
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		fmt.Fprintf(w, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
	}
}

func normalizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "normalize [file]",
		Short: "Print the canonical record of a JSON payload read from a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			localeName, _ := cmd.Flags().GetString("locale")
			showDialects, _ := cmd.Flags().GetBool("dialects")

			locale, err := normalize.ParseLocale(localeName)
			if err != nil {
				return err
			}

			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			var raw map[string]any
			if err := json.NewDecoder(in).Decode(&raw); err != nil && err != io.EOF {
				return fmt.Errorf("payload must be a JSON object: %w", err)
			}

			out := any(normalize.New(normalize.WithLocale(locale)).Normalize(raw))
			if showDialects {
				dialects := make(map[string]string)
				for group, d := range normalize.Dialects(raw) {
					dialects[group] = d.String()
				}
				out = dialects
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			return enc.Encode(out)
		},
	}
	cmd.Flags().String("locale", "pt-BR", "Locale for numbers and yes/no answers")
	cmd.Flags().Bool("dialects", false, "Print the input dialect of each field group instead of the record")
	return cmd
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg != nil && cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := newLogger(nil)
		bootLogger.Fatal().Err(err).Msg("failed to load config")
	}
	logger := newLogger(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}
	if cfg.AccessPassword == "" || cfg.AdminKey == "" {
		logger.Warn().Msg("ACCESS_PASSWORD or ADMIN_KEY unset: gated routes will answer 500")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, db.PoolConfig{
		DatabaseURL: cfg.DatabaseURL,
		MaxConns:    cfg.DBMaxConns,
		MinConns:    cfg.DBMinConns,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Extraction cache
	var cache extraction.Cache = extraction.NoopCache{}
	if cfg.RedisURL != "" {
		client, err := extraction.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, extraction cache disabled")
		} else {
			defer client.Close()
			cache = extraction.NewRedisCache(client, cfg.ExtractCacheTTL)
			logger.Info().Msg("extraction cache enabled")
		}
	}

	metrics := telemetry.NewProvider()
	metrics.RegisterGauge("db_pool_acquired_connections", "Database connections in use.", func() int64 {
		return int64(pool.Stat().AcquiredConns())
	})
	metrics.RegisterGauge("db_pool_idle_connections", "Idle database connections.", func() int64 {
		return int64(pool.Stat().IdleConns())
	})

	e, err := newServer(cfg, logger, serverDeps{
		DB:      pool,
		Schema:  db.NewMigrator(pool, migrations.FS),
		Records: record.NewRepoPG(pool),
		Extractor: extraction.NewOpenAIClient(extraction.ClientConfig{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
			Timeout: cfg.ExtractTimeout,
			Retries: 1,
		}, logger),
		Cache:   cache,
		Metrics: metrics,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build server")
	}

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
