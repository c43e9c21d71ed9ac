package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"casctl/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigInitCommand())

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write the annotated sample configuration",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := resolveConfigTarget(targetPath)
			if err != nil {
				return err
			}
			if _, err := os.Stat(target); err == nil {
				if !overwrite {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				}
			} else if !os.IsNotExist(err) {
				return fmt.Errorf("check config path: %w", err)
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("create config directory: %w", err)
			}
			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Set daemon.exec_path, then run `casctl config validate`.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func resolveConfigTarget(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		path, err := config.DefaultConfigPath()
		if err != nil {
			return "", fmt.Errorf("determine default config path: %w", err)
		}
		return path, nil
	}
	expanded, err := config.ExpandPath(raw)
	if err != nil {
		return "", fmt.Errorf("resolve config path: %w", err)
	}
	return expanded, nil
}

// newConfigValidateCommand loads the configuration itself (honoring --config)
// and reports each resolved setting, diagnosing the ones Validate cannot see,
// like whether the daemon binary actually resolves to an executable.
func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "validate",
		Short:       "Check the configuration and report resolved settings",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var flagPath string
			if ctx.configFlag != nil {
				flagPath = strings.TrimSpace(*ctx.configFlag)
			}
			cfg, path, exists, err := config.Load(flagPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("ensure directories: %w", err)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			if exists {
				fmt.Fprintln(out, renderStatusLine("Config", statusOK, path, colorize))
			} else {
				fmt.Fprintln(out, renderStatusLine("Config", statusWarn, "no file found, defaults in effect", colorize))
			}
			fmt.Fprintln(out, renderStatusLine("Repository", statusInfo, cfg.Paths.RepoDir, colorize))

			problems := 0
			kind, message := diagnoseBinary(cfg.Daemon.ExecPath)
			if kind == statusError {
				problems++
			}
			fmt.Fprintln(out, renderStatusLine("Binary", kind, message, colorize))

			stopMessage := fmt.Sprintf("%ds timeout, %ds force-kill grace", cfg.Stop.Timeout, cfg.Stop.ForceKillTimeout)
			if !cfg.Stop.ForceKill {
				stopMessage = fmt.Sprintf("%ds timeout, force-kill disabled", cfg.Stop.Timeout)
			}
			fmt.Fprintln(out, renderStatusLine("Stop", statusInfo, stopMessage, colorize))

			if problems > 0 {
				return fmt.Errorf("configuration has %d problem(s)", problems)
			}
			return nil
		},
	}
}

func diagnoseBinary(execPath string) (statusKind, string) {
	if execPath == "" {
		resolved, err := exec.LookPath("casd")
		if err != nil {
			return statusWarn, "daemon.exec_path unset and casd not on PATH"
		}
		return statusOK, resolved + " (from PATH)"
	}
	info, err := os.Stat(execPath)
	if err != nil {
		return statusError, fmt.Sprintf("%s: %v", execPath, err)
	}
	if info.Mode()&0o111 == 0 {
		return statusError, execPath + " is not executable"
	}
	return statusOK, execPath
}
