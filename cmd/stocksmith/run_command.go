package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"stocksmith/internal/config"
	"stocksmith/internal/export"
	"stocksmith/internal/ingest"
	"stocksmith/internal/logging"
	"stocksmith/internal/preflight"
	"stocksmith/internal/queue"
	"stocksmith/internal/workflow"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var outputPath string
	var skipPreflight bool
	var verbose bool

	cmd := &cobra.Command{
		Use:   "run <filenames-file> <prompts-file>",
		Short: "Generate metadata for a batch of stock photos",
		Long: "Pairs each line of the filenames file with the matching line of the\n" +
			"prompts file, generates a title, keywords, and a category for every\n" +
			"pair, and writes the Adobe Stock CSV once all items have settled.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkflow(cmd, ctx, runOptions{
				filenamesPath: args[0],
				promptsPath:   args[1],
				outputPath:    outputPath,
				skipPreflight: skipPreflight,
				verbose:       verbose,
			})
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Destination for the CSV (defaults to <export_dir>/"+export.DefaultFilename+")")
	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Skip environment checks before processing")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	return cmd
}

type runOptions struct {
	filenamesPath string
	promptsPath   string
	outputPath    string
	skipPreflight bool
	verbose       bool
}

func runWorkflow(cmd *cobra.Command, ctx *commandContext, opts runOptions) error {
	signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Input validation comes first so a bad pairing never touches the queue.
	seeds, err := ingest.LoadPair(opts.filenamesPath, opts.promptsPath)
	if err != nil {
		return err
	}

	runLock := flock.New(filepath.Join(cfg.Paths.DataDir, "stocksmith.lock"))
	locked, err := runLock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return errors.New("another stocksmith run is already in progress")
	}
	defer runLock.Unlock()

	if !opts.skipPreflight {
		if err := runPreflight(signalCtx, cmd, cfg); err != nil {
			return err
		}
	}

	logger, err := logging.NewFromConfig(cfg, opts.verbose)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	store, err := queue.Open(cfg)
	if err != nil {
		return fmt.Errorf("open work queue: %w", err)
	}
	defer store.Close()

	if err := store.Replace(signalCtx, seeds); err != nil {
		return fmt.Errorf("load work items: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d work items; generating metadata...\n", len(seeds))

	started := time.Now()
	mgr := workflow.NewManager(cfg, store, logger)
	if err := mgr.Start(signalCtx); err != nil {
		return fmt.Errorf("start workflow: %w", err)
	}

	select {
	case <-signalCtx.Done():
		mgr.Stop()
		fmt.Fprintln(cmd.ErrOrStderr(), "Run interrupted; progress is saved in the work queue")
		return signalCtx.Err()
	case <-mgr.Done():
		mgr.Stop()
	}

	return writeRunSummary(cmd, cfg, store, opts.outputPath, time.Since(started))
}

func runPreflight(ctx context.Context, cmd *cobra.Command, cfg *config.Config) error {
	failures := preflight.Failures(preflight.RunAll(ctx, cfg))
	if len(failures) == 0 {
		return nil
	}
	errOut := cmd.ErrOrStderr()
	colorize := shouldColorize(errOut)
	for _, failure := range failures {
		fmt.Fprintln(errOut, renderStatusLine(failure.Name, statusError, failure.Detail, colorize))
	}
	return errors.New("preflight failed; resolve the checks above or rerun with --skip-preflight")
}

func writeRunSummary(cmd *cobra.Command, cfg *config.Config, store *queue.Store, outputPath string, elapsed time.Duration) error {
	ctx := cmd.Context()

	items, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("read work items: %w", err)
	}
	target, err := resolveExportPath(cfg, outputPath)
	if err != nil {
		return err
	}
	if err := export.WriteFile(target, items); err != nil {
		return err
	}

	health, err := store.Health(ctx)
	if err != nil {
		return fmt.Errorf("summarize run: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderTable(
		[]string{"Completed", "Errored", "Total", "Duration"},
		[][]string{{
			fmt.Sprintf("%d", health.Completed),
			fmt.Sprintf("%d", health.Errored),
			fmt.Sprintf("%d", health.Total),
			elapsed.Round(100 * time.Millisecond).String(),
		}},
		[]columnAlignment{alignRight, alignRight, alignRight, alignLeft},
	))
	fmt.Fprintf(out, "Wrote %d rows to %s\n", len(items), target)
	if health.Errored > 0 {
		fmt.Fprintf(out, "%d items failed; inspect them with `stocksmith queue list --status error`\n", health.Errored)
	}
	return nil
}
