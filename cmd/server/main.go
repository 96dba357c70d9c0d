package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campaignexport/internal/delivery"
	"campaignexport/internal/domain"
	"campaignexport/internal/export"
	"campaignexport/pkg/config"
	"campaignexport/pkg/logger"
	"campaignexport/pkg/metrics"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	requestFile  string
	seedFile     string
	outFile      string
	outFormat    string
	pollInterval time.Duration
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "server",
	Short: "Campaign export service",
	Long:  `Generates ad platform bulk import files from selected locations and ad variants.`,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run one export job in-process and write the artifact",
	RunE:  runGenerate,
}

var columnsCmd = &cobra.Command{
	Use:   "columns",
	Short: "Print the bulk import header row",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := csv.NewWriter(cmd.OutOrStdout())
		if err := w.Write(export.Columns()); err != nil {
			return err
		}
		w.Flush()
		return w.Error()
	},
}

func init() {
	generateCmd.Flags().StringVarP(&requestFile, "request", "r", "", "YAML generation request")
	generateCmd.Flags().StringVarP(&seedFile, "seed", "s", "", "YAML location seed (overrides DIRECTORY_SEED_FILE)")
	generateCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file; defaults to the job's file name, - for stdout")
	generateCmd.Flags().StringVar(&outFormat, "format", "csv", "artifact format (csv, xlsx)")
	generateCmd.Flags().DurationVar(&pollInterval, "poll", 50*time.Millisecond, "status polling interval")
	_ = generateCmd.MarkFlagRequired("request")

	rootCmd.AddCommand(serveCmd, generateCmd, columnsCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.NewWithOptions(cfg.Logging.Level, logger.Options{
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	})
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := newApp(ctx, cfg, log, m)
	if err != nil {
		return err
	}
	defer application.Close()

	handlers := delivery.NewHTTPHandlers(application.generation, application.locations, log)
	router := delivery.NewHTTPRouter(handlers, log, m, delivery.RouterOptions{
		RequestTimeout: cfg.Server.RequestTimeout,
		SubmitRate:     cfg.Generation.SubmitRate,
		SubmitBurst:    cfg.Generation.SubmitBurst,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router.SetupRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Server.Port).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if seedFile != "" {
		cfg.Directory.SeedFile = seedFile
	}
	cfg.Artifacts.Driver = config.ArtifactMemory
	cfg.Webhook.URL = ""

	log := logger.New(cfg.Logging.Level)
	log.SetOutput(cmd.ErrOrStderr())

	req, err := loadRequest(requestFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := newApp(ctx, cfg, log, metrics.New())
	if err != nil {
		return err
	}
	defer application.Close()

	handle, err := application.generation.Submit(ctx, req)
	if err != nil {
		return err
	}

	snapshot, err := waitForJob(ctx, application, handle.ID)
	if err != nil {
		return err
	}
	if snapshot.Status == domain.JobStatusFailed {
		return fmt.Errorf("job %s failed: %s", snapshot.ID, snapshot.Error)
	}

	artifact, err := application.generation.Download(ctx, handle.ID, outFormat)
	if err != nil {
		return err
	}

	target := outFile
	if target == "" {
		target = artifact.FileName
	}
	if target == "-" {
		_, err = cmd.OutOrStdout().Write(artifact.Data)
		return err
	}
	if err := os.WriteFile(target, artifact.Data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", target, err)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d records to %s (sha256 %s)\n", snapshot.TotalRecords, target, artifact.Checksum)
	return nil
}

func loadRequest(path string) (domain.SubmitRequest, error) {
	var req domain.SubmitRequest

	data, err := os.ReadFile(path)
	if err != nil {
		return req, fmt.Errorf("failed to read request file: %w", err)
	}
	if err := yaml.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("failed to parse request file: %w", err)
	}
	return req, nil
}

// waitForJob polls until the job is terminal.
func waitForJob(ctx context.Context, a *app, jobID string) (domain.JobSnapshot, error) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		snapshot, err := a.generation.Status(ctx, jobID)
		if err != nil {
			return snapshot, err
		}
		if snapshot.Status.IsTerminal() {
			return snapshot, nil
		}

		select {
		case <-ctx.Done():
			return snapshot, ctx.Err()
		case <-ticker.C:
		}
	}
}
