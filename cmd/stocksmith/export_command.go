package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"stocksmith/internal/config"
	"stocksmith/internal/export"
	"stocksmith/internal/queue"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the Adobe Stock CSV from the current work items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *queue.Store) error {
				items, err := store.List(cmd.Context())
				if err != nil {
					return err
				}
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty; nothing to export")
					return nil
				}
				target, err := resolveExportPath(ctx.configValue(), outputPath)
				if err != nil {
					return err
				}
				if err := export.WriteFile(target, items); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d rows to %s\n", len(items), target)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Destination for the CSV (defaults to <export_dir>/"+export.DefaultFilename+")")
	return cmd
}

func resolveExportPath(cfg *config.Config, flagValue string) (string, error) {
	trimmed := strings.TrimSpace(flagValue)
	if trimmed == "" {
		return filepath.Join(cfg.Paths.ExportDir, export.DefaultFilename), nil
	}
	expanded, err := config.ExpandPath(trimmed)
	if err != nil {
		return "", fmt.Errorf("resolve output path: %w", err)
	}
	return expanded, nil
}
