package main

import (
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"casctl/internal/ipc"
)

func newPoolCommand(ctx *commandContext) *cobra.Command {
	poolCmd := &cobra.Command{
		Use:   "pool",
		Short: "Manage daemons hosted by a casctld endpoint",
	}

	poolCmd.AddCommand(newPoolSpawnCommand(ctx))
	poolCmd.AddCommand(newPoolListCommand(ctx))
	poolCmd.AddCommand(newPoolStopCommand(ctx))
	poolCmd.AddCommand(newPoolCleanCommand(ctx))

	return poolCmd
}

func newPoolSpawnCommand(ctx *commandContext) *cobra.Command {
	var repoPath string
	var keep bool
	var skipStart bool
	var emptyRepo bool
	var profiles []string

	cmd := &cobra.Command{
		Use:   "spawn",
		Short: "Create a daemon instance on the endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Spawn(ipc.SpawnRequest{
					RepoPath:  repoPath,
					Keep:      keep,
					SkipStart: skipStart,
					EmptyRepo: emptyRepo,
					Profiles:  profiles,
				})
				if err != nil {
					return err
				}
				inst := resp.Instance
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Spawned instance %s\n", inst.ID)
				fmt.Fprintln(out, renderDetails(instanceRows(inst)))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&repoPath, "repo", "", "Repository directory (default: disposable temp repo)")
	cmd.Flags().BoolVar(&keep, "keep", false, "Keep a temp repository instead of deleting it on exit")
	cmd.Flags().BoolVar(&skipStart, "no-start", false, "Create the instance without starting its daemon")
	cmd.Flags().BoolVar(&emptyRepo, "empty-repo", false, "Initialize without default seed content")
	cmd.Flags().StringSliceVar(&profiles, "profile", nil, "Configuration profiles to apply at init")
	return cmd
}

func instanceRows(inst ipc.Instance) [][2]string {
	rows := [][2]string{
		{"Repository", inst.RepoPath},
		{"Disposable", yesNo(inst.Disposable)},
		{"Started", yesNo(inst.Started)},
	}
	if inst.PID > 0 {
		rows = append(rows, [2]string{"PID", strconv.Itoa(inst.PID)})
	}
	if inst.APIAddr != "" {
		rows = append(rows, [2]string{"API", inst.APIAddr})
	}
	if inst.GatewayAddr != "" {
		rows = append(rows, [2]string{"Gateway", inst.GatewayAddr})
	}
	if inst.PeerID != "" {
		rows = append(rows, [2]string{"Peer", inst.PeerID})
	}
	return rows
}

// renderInstanceList draws the pool roster. Columns missing a value show "-"
// so the PID column stays aligned for stopped instances.
func renderInstanceList(instances []ipc.Instance) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"ID", "Repository", "Started", "PID", "API"})
	for _, inst := range instances {
		pid := "-"
		if inst.PID > 0 {
			pid = strconv.Itoa(inst.PID)
		}
		api := inst.APIAddr
		if api == "" {
			api = "-"
		}
		tw.AppendRow(table.Row{inst.ID, inst.RepoPath, yesNo(inst.Started), pid, api})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{{Name: "PID", Align: text.AlignRight}})
	return tw.Render()
}

func newPoolListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List instances on the endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.List()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(resp.Instances) == 0 {
					fmt.Fprintln(out, "No instances")
					return nil
				}
				fmt.Fprintln(out, renderInstanceList(resp.Instances))
				return nil
			})
		},
	}
}

func newPoolStopCommand(ctx *commandContext) *cobra.Command {
	var timeoutSecs int
	var noForceKill bool

	cmd := &cobra.Command{
		Use:   "stop <id>",
		Short: "Stop one instance's daemon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Stop(ipc.StopRequest{
					ID:               args[0],
					TimeoutSeconds:   timeoutSecs,
					DisableForceKill: noForceKill,
				})
				if err != nil {
					return err
				}
				if resp.Stopped {
					fmt.Fprintf(cmd.OutOrStdout(), "Stopped instance %s\n", args[0])
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&timeoutSecs, "timeout", 0, "Seconds to wait for shutdown before giving up")
	cmd.Flags().BoolVar(&noForceKill, "no-force-kill", false, "Never escalate to SIGKILL")
	return cmd
}

func newPoolCleanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Stop and remove every instance on the endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Clean()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Cleaned %d instance(s)\n", resp.Cleaned)
				if resp.Message != "" {
					fmt.Fprintf(out, "Warnings: %s\n", resp.Message)
				}
				return nil
			})
		},
	}
}
