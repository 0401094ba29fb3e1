package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"stocksmith/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigShowCommand(ctx))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Edit the file to set openrouter.api_key (or export OPENROUTER_API_KEY) before running Stocksmith.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "validate",
		Short:       "Validate the configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, exists, err := config.Load(ctx.configPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("ensure directories: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", path)
			if !exists {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			view := buildConfigView(cfg)
			if asJSON {
				return writeJSON(cmd, view)
			}
			rows := [][]string{
				{"paths.data_dir", view.DataDir},
				{"paths.export_dir", view.ExportDir},
				{"paths.log_dir", view.LogDir},
				{"openrouter.api_key", view.APIKey},
				{"openrouter.base_url", view.BaseURL},
				{"openrouter.model", view.Model},
				{"workflow.batch_size", fmt.Sprintf("%d", view.BatchSize)},
				{"workflow.max_concurrent_batches", fmt.Sprintf("%d", view.MaxConcurrentBatches)},
				{"workflow.batch_timeout_seconds", fmt.Sprintf("%d", view.BatchTimeoutSeconds)},
				{"workflow.poll_interval_seconds", fmt.Sprintf("%d", view.PollIntervalSeconds)},
				{"logging.format", view.LogFormat},
				{"logging.level", view.LogLevel},
				{"notifications.ntfy_topic", view.NtfyTopic},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Setting", "Value"}, rows, []columnAlignment{alignLeft, alignLeft}))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}

type configView struct {
	DataDir              string `json:"data_dir"`
	ExportDir            string `json:"export_dir"`
	LogDir               string `json:"log_dir"`
	APIKey               string `json:"api_key"`
	BaseURL              string `json:"base_url"`
	Model                string `json:"model"`
	BatchSize            int    `json:"batch_size"`
	MaxConcurrentBatches int    `json:"max_concurrent_batches"`
	BatchTimeoutSeconds  int    `json:"batch_timeout_seconds"`
	PollIntervalSeconds  int    `json:"poll_interval_seconds"`
	LogFormat            string `json:"log_format"`
	LogLevel             string `json:"log_level"`
	NtfyTopic            string `json:"ntfy_topic"`
}

func buildConfigView(cfg *config.Config) configView {
	return configView{
		DataDir:              cfg.Paths.DataDir,
		ExportDir:            cfg.Paths.ExportDir,
		LogDir:               cfg.Paths.LogDir,
		APIKey:               maskSecret(cfg.OpenRouter.APIKey),
		BaseURL:              cfg.OpenRouter.BaseURL,
		Model:                cfg.OpenRouter.Model,
		BatchSize:            cfg.Workflow.BatchSize,
		MaxConcurrentBatches: cfg.Workflow.MaxConcurrentBatches,
		BatchTimeoutSeconds:  cfg.Workflow.BatchTimeoutSeconds,
		PollIntervalSeconds:  cfg.Workflow.PollIntervalSeconds,
		LogFormat:            cfg.Logging.Format,
		LogLevel:             cfg.Logging.Level,
		NtfyTopic:            orPlaceholder(cfg.Notifications.NtfyTopic),
	}
}

// maskSecret never echoes credentials, even truncated ones.
func maskSecret(value string) string {
	if strings.TrimSpace(value) == "" {
		return "(not set)"
	}
	return "(set)"
}

func orPlaceholder(value string) string {
	if strings.TrimSpace(value) == "" {
		return "(not set)"
	}
	return value
}
