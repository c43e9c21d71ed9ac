package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"casctl/internal/apiclient"
	"casctl/internal/repo"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report repository and daemon state",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := ctx.controller()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			repoPath := ctrl.RepoPath()

			fmt.Fprintln(out, renderStatusLine("Repository", statusInfo, repoPath, colorize))
			if repo.Exists(repoPath) {
				fmt.Fprintln(out, renderStatusLine("Initialized", statusOK, "", colorize))
			} else {
				fmt.Fprintln(out, renderStatusLine("Initialized", statusWarn, "run `casctl init`", colorize))
			}

			apiAddr, ok := repo.APIAddr(repoPath)
			if !ok {
				fmt.Fprintln(out, renderStatusLine("Daemon", statusWarn, "not running", colorize))
				return nil
			}

			// Probe without mutating controller state: the api file can be
			// stale after an unclean daemon exit.
			probeCtx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			identity, probeErr := probeDaemon(probeCtx, apiAddr)
			if probeErr != nil {
				fmt.Fprintln(out, renderStatusLine("Daemon", statusError,
					fmt.Sprintf("api file present but unreachable (%v)", probeErr), colorize))
				return nil
			}
			fmt.Fprintln(out, renderStatusLine("Daemon", statusOK, "running", colorize))

			rows := [][2]string{{"API", apiAddr}}
			if gw, ok := repo.GatewayAddr(repoPath); ok {
				rows = append(rows, [2]string{"Gateway", gw})
			}
			rows = append(rows, [2]string{"Peer", identity.ID})
			if identity.AgentVersion != "" {
				rows = append(rows, [2]string{"Agent", identity.AgentVersion})
			}
			fmt.Fprintln(out, renderDetails(rows))
			return nil
		},
	}
}

func probeDaemon(ctx context.Context, apiAddr string) (apiclient.Identity, error) {
	client, err := apiclient.New(apiAddr)
	if err != nil {
		return apiclient.Identity{}, err
	}
	return client.FetchIdentity(ctx)
}
