package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/pulverlogic/newsboard/internal/aggregate"
	"github.com/pulverlogic/newsboard/internal/app"
	"github.com/pulverlogic/newsboard/internal/auth"
)

var configPath string

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "pulverctl",
		Short:        "Maintenance commands for the PulverLogic newsboard",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.toml", "Path to config file")

	root.AddCommand(
		refreshCmd(),
		syncCmd(),
		resyncCmd(),
		summaryCmd(),
		hashPasswordCmd(),
	)
	return root
}

func withService(run func(cmd *cobra.Command, args []string, service *app.Service) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		service, err := app.NewService(configPath)
		if err != nil {
			return err
		}
		defer service.Close()
		return run(cmd, args, service)
	}
}

func refreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Fetch every RSS source and archive today's new headlines",
		Args:  cobra.NoArgs,
		RunE: withService(func(cmd *cobra.Command, args []string, service *app.Service) error {
			added, err := service.RefreshHeadlines(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Archived %d new headlines in %s\n", added, service.Archive.Path())
			return nil
		}),
	}
}

func syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync [message]",
		Short: "Commit and push the data files now",
		RunE: withService(func(cmd *cobra.Command, args []string, service *app.Service) error {
			if !service.Syncer.Enabled() {
				fmt.Fprintln(cmd.OutOrStdout(), "Git sync is disabled in the config")
				return nil
			}
			message := strings.Join(args, " ")
			if message == "" {
				message = "Manual sync"
			}
			if err := service.Syncer.Sync(cmd.Context(), message); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Synced")
			return nil
		}),
	}
}

func resyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resync",
		Short: "Replay git operations that failed earlier",
		Args:  cobra.NoArgs,
		RunE: withService(func(cmd *cobra.Command, args []string, service *app.Service) error {
			pending, err := service.Syncer.Pending()
			if err != nil {
				return err
			}
			if len(pending) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No pending git operations")
				return nil
			}
			logger.Info.Printf("Replaying %d pending git operations", len(pending))

			done, err := service.Syncer.Resync(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "Resynced %d of %d\n", done, len(pending))
			return err
		}),
	}
}

func summaryCmd() *cobra.Command {
	var low int
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the participation leaderboard",
		Args:  cobra.NoArgs,
		RunE: withService(func(cmd *cobra.Command, args []string, service *app.Service) error {
			summary, err := service.Summary()
			if err != nil {
				return err
			}
			if low <= 0 {
				low = service.Config.Server.LowParticipation
			}
			if low <= 0 {
				low = aggregate.DefaultLowParticipation
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderSummary(summary, low))
			return nil
		}),
	}
	cmd.Flags().IntVar(&low, "low", 0, "Highlight scholars with total points below this")
	return cmd
}

func hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print a bcrypt hash for users.json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hashed, err := auth.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hashed)
			return nil
		},
	}
}
