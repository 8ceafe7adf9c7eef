package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/yurifrl/vizbuck/pkg/bootstrap"
	"github.com/yurifrl/vizbuck/pkg/config"
	"github.com/yurifrl/vizbuck/pkg/executors"
	"github.com/yurifrl/vizbuck/pkg/importer"
	"github.com/yurifrl/vizbuck/pkg/plan"
	"github.com/yurifrl/vizbuck/pkg/server"
	"github.com/yurifrl/vizbuck/pkg/telemetry"
)

var cfgFile string

// env is everything a subcommand needs once config is resolved.
type env struct {
	cfg      *config.Config
	logger   *log.Logger
	importer *importer.Importer
	metrics  *telemetry.Metrics
	close    func() error
}

func newEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := config.Build(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	logger, err := bootstrap.NewLogger(os.Stderr, cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	ctx := cmd.Context()
	st, closeStore, err := bootstrap.OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	classifier, err := bootstrap.NewClassifier(ctx, cfg)
	if err != nil {
		_ = closeStore()
		return nil, err
	}
	logger.Debug("configured", "store", cfg.Store, "classifier", cfg.Classifier)

	metrics := telemetry.New()
	return &env{
		cfg:      cfg,
		logger:   logger,
		importer: importer.New(logger, st, classifier, importer.WithMetrics(metrics)),
		metrics:  metrics,
		close:    closeStore,
	}, nil
}

func (e *env) executor() *executors.Executor {
	return executors.New(e.logger, e.importer, e.cfg.AnalyzeConcurrency, os.Stdout)
}

// withEnv wraps a RunE that needs a resolved env and closes it afterwards.
func withEnv(run func(cmd *cobra.Command, args []string, e *env) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}
		defer func() {
			if err := e.close(); err != nil {
				e.logger.Warn("failed to close store", "err", err)
			}
		}()
		return run(cmd, args, e)
	}
}

var rootCmd = &cobra.Command{
	Use:           "vizbuck",
	Short:         "Personal finance ledger: import statements, review, roll up",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		// Show help when no subcommand is provided
		return cmd.Help()
	},
}

var planCmd = &cobra.Command{
	Use:   "plan <plan_file>",
	Short: "Preview a YAML plan of statements (dry-run)",
	Args:  cobra.ExactArgs(1),
	RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
		p, err := plan.Load(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Plan preview for %s\n", args[0])
		p.Print(os.Stdout)
		_, err = e.executor().Plan(cmd.Context(), p)
		return err
	}),
}

var applyCmd = &cobra.Command{
	Use:   "apply <plan_file>",
	Short: "Import every statement of a YAML plan into the ledger",
	Args:  cobra.ExactArgs(1),
	RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
		p, err := plan.Load(args[0])
		if err != nil {
			return err
		}
		results, err := e.executor().Apply(cmd.Context(), p)
		if err != nil {
			return err
		}
		fmt.Printf("Applied %d statement(s)\n", len(results))
		return nil
	}),
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE: withEnv(func(cmd *cobra.Command, _ []string, e *env) error {
		srv := server.New(e.logger, e.importer, e.metrics)
		return srv.Start(cmd.Context(), e.cfg.Addr)
	}),
}

func init() {
	// Global flags; each binds to the config key of the same name.
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&cfgFile, "config", "c", "", "Config file (default is config.yaml)")
	pf.String("log-level", "", "Log level: debug, info, warn, error")
	pf.String("store", "", "Ledger store: memory, file, mongo, gcs")
	pf.String("data-file", "", "Ledger file for the file store")
	pf.String("classifier", "", "Classifier: rules, gemini, none")
	pf.String("rules-file", "", "YAML keyword rules for the rules classifier")
	pf.Int("analyze-concurrency", 0, "Statements analyzed at once")

	serveCmd.Flags().String("addr", "", "Listen address")

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
