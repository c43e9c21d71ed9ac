package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"casctl/internal/controller"
	"casctl/internal/repo"
)

func newInitCommand(ctx *commandContext) *cobra.Command {
	var emptyRepo bool
	var profiles []string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the daemon repository",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := ctx.controller()
			if err != nil {
				return err
			}
			var overrides *repo.InitOptions
			if emptyRepo || len(profiles) > 0 {
				overrides = &repo.InitOptions{EmptyRepo: emptyRepo, Profiles: profiles}
			}
			already := repo.Exists(ctrl.RepoPath())
			if err := ctrl.Init(cmd.Context(), overrides); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if already {
				fmt.Fprintf(out, "Repository already initialized at %s\n", ctrl.RepoPath())
			} else {
				fmt.Fprintf(out, "Initialized repository at %s\n", ctrl.RepoPath())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&emptyRepo, "empty-repo", false, "Initialize without default seed content")
	cmd.Flags().StringSliceVar(&profiles, "profile", nil, "Configuration profiles to apply at init")
	return cmd
}

func newUpCommand(ctx *commandContext) *cobra.Command {
	var skipInit bool

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Start the daemon (or attach to a running one)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := ctx.controller()
			if err != nil {
				return err
			}
			if !skipInit {
				if err := ctrl.Init(cmd.Context(), nil); err != nil {
					return err
				}
			}
			client, err := ctrl.Start(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			fmt.Fprintln(out, renderStatusLine("Repository", statusInfo, ctrl.RepoPath(), colorize))
			if pid, err := ctrl.PID(); err == nil {
				fmt.Fprintln(out, renderStatusLine("Daemon", statusOK, fmt.Sprintf("running (pid %d)", pid), colorize))
			} else {
				fmt.Fprintln(out, renderStatusLine("Daemon", statusOK, "attached to running daemon", colorize))
			}
			fmt.Fprintln(out, renderStatusLine("API", statusOK, ctrl.APIAddr(), colorize))
			if gw := ctrl.GatewayAddr(); gw != "" {
				fmt.Fprintln(out, renderStatusLine("Gateway", statusOK, gw, colorize))
			}
			fmt.Fprintln(out, renderStatusLine("Peer", statusInfo, client.Identity.ID, colorize))
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipInit, "no-init", false, "Skip repository initialization")
	return cmd
}

func newDownCommand(ctx *commandContext) *cobra.Command {
	var timeoutSecs int
	var noForceKill bool
	var clean bool

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Stop the running daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := ctx.controller()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			// A fresh CLI process never owns the daemon, so down works by
			// attaching through the repo's api file. Guard against the
			// spawn path: no advertised API means nothing to stop.
			if _, ok := repo.APIAddr(ctrl.RepoPath()); !ok {
				fmt.Fprintf(out, "No running daemon found for %s\n", ctrl.RepoPath())
			} else {
				if _, err := ctrl.Start(cmd.Context()); err != nil {
					return fmt.Errorf("attach for shutdown: %w", err)
				}
				opts := ctx.stopOptions()
				if opts == nil {
					opts = &controller.StopOptions{}
				}
				if timeoutSecs > 0 {
					opts.Timeout = time.Duration(timeoutSecs) * time.Second
				}
				if noForceKill {
					opts.DisableForceKill = true
				}
				if err := ctrl.Stop(cmd.Context(), opts); err != nil {
					return err
				}
				fmt.Fprintln(out, "Daemon stopped")
			}

			if clean {
				if err := ctrl.Cleanup(); err != nil {
					return err
				}
				fmt.Fprintf(out, "Removed repository %s\n", ctrl.RepoPath())
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&timeoutSecs, "timeout", 0, "Seconds to wait for shutdown before giving up")
	cmd.Flags().BoolVar(&noForceKill, "no-force-kill", false, "Never escalate to SIGKILL")
	cmd.Flags().BoolVar(&clean, "clean", false, "Remove the repository after stopping")
	return cmd
}

func newVersionCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Report the casd binary version",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := ctx.controller()
			if err != nil {
				return err
			}
			version, err := ctrl.Version(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), version)
			return nil
		},
	}
}
