package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/five82/karaokepi/internal/app"
	"github.com/five82/karaokepi/internal/install"
	"github.com/five82/karaokepi/internal/version"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		var stepErr *install.StepError
		if errors.As(err, &stepErr) {
			fmt.Fprintf(os.Stderr, "karaokepi: install stopped at %q: %v\n", stepErr.Step, stepErr.Err)
			return 2
		}
		fmt.Fprintf(os.Stderr, "karaokepi: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var opts app.Options

	root := &cobra.Command{
		Use:     "karaokepi",
		Short:   "Install and launch PiKaraoke on a Raspberry Pi",
		Version: version.String(),
		Long: `karaokepi installs PiKaraoke into its own Python environment, registers it
to start at login and launches it once the network is up.

Your song library is never touched: any path containing "pikaraoke-songs"
is kept by install and uninstall.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default ~/.config/karaokepi/config.toml)")
	root.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "info", "log level: debug, info, warn, error")

	root.AddCommand(
		installCmd(&opts),
		uninstallCmd(&opts),
		launchCmd(&opts),
		checkUpdateCmd(&opts),
		statusCmd(&opts),
		logsCmd(&opts),
	)
	return root
}

func installCmd(opts *app.Options) *cobra.Command {
	var deskpi bool
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install or upgrade PiKaraoke",
		Long: `Install converges the machine to a working PiKaraoke setup. Every step is
safe to repeat; running install again upgrades the app when a newer minor
release is available.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.RunInstall(cmd.Context(), *opts, deskpi)
		},
	}
	cmd.Flags().BoolVar(&deskpi, "deskpi", false, "also install the DeskPi Lite case driver")
	return cmd
}

func uninstallCmd(opts *app.Options) *cobra.Command {
	var deskpi bool
	cmd := &cobra.Command{
		Use:   "uninstall",
		Short: "Remove PiKaraoke, keeping the song library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.RunUninstall(cmd.Context(), *opts, deskpi)
		},
	}
	cmd.Flags().BoolVar(&deskpi, "deskpi", false, "also remove the DeskPi Lite case driver")
	return cmd
}

func launchCmd(opts *app.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "launch",
		Short: "Wait for the network, then start PiKaraoke",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.RunLaunch(cmd.Context(), *opts)
		},
	}
}

func checkUpdateCmd(opts *app.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "check-update",
		Short: "Flag a reinstall when a newer PiKaraoke release exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.RunCheckUpdate(cmd.Context(), *opts)
		},
	}
}

func statusCmd(opts *app.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show installed and latest versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Status(cmd.Context(), *opts)
		},
	}
}

func logsCmd(opts *app.Options) *cobra.Command {
	var lo app.LogsOptions
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show PiKaraoke's output log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Logs(cmd.Context(), *opts, lo)
		},
	}
	cmd.Flags().IntVarP(&lo.Lines, "lines", "n", 200, "number of lines to show, 0 for all")
	cmd.Flags().BoolVar(&lo.Session, "session", false, "only show output since the last launch")
	cmd.Flags().BoolVar(&lo.Plain, "plain", false, "print lines instead of opening the viewer")
	return cmd
}
