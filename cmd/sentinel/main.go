package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/raaihank/pii-sentinel/internal/config"
	"github.com/raaihank/pii-sentinel/internal/logger"
	"github.com/raaihank/pii-sentinel/internal/pipeline"
	"github.com/raaihank/pii-sentinel/internal/privacy"
	"github.com/raaihank/pii-sentinel/internal/server"
	"github.com/raaihank/pii-sentinel/internal/watcher"
)

var (
	version = "0.1.0"
	commit  = "dev"
	date    = "unknown"
)

var (
	configPath string
	outputPath string
	looseMatch bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "sentinel",
		Short:        "PII classification and redaction for CSV datasets with embedded JSON payloads",
		Long:         `pii-sentinel detects standalone and combinatorial PII in JSON payloads carried inside CSV records and writes a sanitized copy with a per-record PII flag.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")

	redactCmd := &cobra.Command{
		Use:   "redact <input-file>",
		Short: "Redact a dataset file (CSV, Parquet, or JSON lines) and write the sanitized CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  runRedact,
	}
	redactCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output CSV path (default: <input>_redacted.csv)")
	redactCmd.Flags().BoolVar(&looseMatch, "loose-field-names", false, "Match standalone PII patterns against every field, not just the expected keys")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the redaction engine as an HTTP service",
		RunE:  runServe,
	}

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch a directory and redact new dataset files as they appear",
		RunE:  runWatch,
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("pii-sentinel %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}

	rootCmd.AddCommand(redactCmd, serveCmd, watchCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads configuration and initializes logging, shared by every
// subcommand.
func setup() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logCfg := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}
	if cfg.Logging.File.Enabled {
		logCfg.File = &logger.FileConfig{
			Enabled: true,
			Path:    cfg.Logging.File.Path,
		}
	}

	log, err := logger.New(logCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return cfg, log, nil
}

func runRedact(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	if looseMatch {
		cfg.Privacy.StrictFieldNames = false
	}

	inputPath := args[0]
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("input file does not exist: %s", inputPath)
	}

	if outputPath == "" {
		outputPath = pipeline.OutputPathFor(inputPath, cfg.Pipeline.OutputSuffix)
	}

	ctx, cancel := signalContext(log)
	defer cancel()

	engine, err := privacy.NewEngine(cfg.Privacy, log.WithComponent("privacy"))
	if err != nil {
		return fmt.Errorf("failed to create redaction engine: %w", err)
	}

	p := pipeline.NewPipeline(engine, &pipeline.Config{
		ProgressReport: cfg.Pipeline.ProgressReport,
		OutputSuffix:   cfg.Pipeline.OutputSuffix,
	}, log.WithComponent("pipeline"))

	result, err := p.ProcessFile(ctx, inputPath, outputPath)
	if err != nil {
		return fmt.Errorf("pipeline processing failed: %w", err)
	}

	fmt.Printf("Processing complete. Output written to: %s\n", outputPath)
	fmt.Printf("Processed %d records\n", result.TotalRecords)
	fmt.Printf("Records with PII: %d\n", result.PIIRecords)
	if result.Passthrough > 0 {
		fmt.Printf("Rows passed through with malformed payloads: %d\n", result.Passthrough)
	}

	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	log.Info("Starting pii-sentinel",
		zap.String("version", version),
		zap.String("commit", commit),
		zap.Int("port", cfg.Server.Port),
	)

	srv, err := server.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- srv.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Stop(ctx); err != nil {
			return fmt.Errorf("failed to shutdown server gracefully: %w", err)
		}
		log.Info("Server shutdown complete")
	}

	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	engine, err := privacy.NewEngine(cfg.Privacy, log.WithComponent("privacy"))
	if err != nil {
		return fmt.Errorf("failed to create redaction engine: %w", err)
	}

	p := pipeline.NewPipeline(engine, &pipeline.Config{
		ProgressReport: cfg.Pipeline.ProgressReport,
		OutputSuffix:   cfg.Pipeline.OutputSuffix,
	}, log.WithComponent("pipeline"))

	w, err := watcher.New(cfg.Watch, p, cfg.Pipeline.OutputSuffix, log.WithComponent("watcher"))
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(log)
	defer cancel()

	if err := w.Run(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext(log *logger.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Received shutdown signal, cancelling operations...")
		cancel()
	}()

	return ctx, cancel
}
