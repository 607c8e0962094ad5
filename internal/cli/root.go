package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rileyhilliard/pfdash/internal/logger"
	"github.com/rileyhilliard/pfdash/internal/ui"
	"github.com/spf13/cobra"
)

// Global flags
var (
	cfgFile   string
	debugFlag bool
	logFile   string
)

// logCloser closes the --log-file target when the command finishes.
var logCloser io.Closer

var rootCmd = &cobra.Command{
	Use:   "pfdash",
	Short: "Live telemetry dashboard for a pfSense router",
	Long: `pfdash shows the health of a pfSense router, refreshed every second,
using nothing but an SSH connection: CPU, memory, pf state table and mbufs,
disks and SMART status, temperatures, interface rates and addresses, gateway
latency and loss, service status, and the latest firewall log events.

Any error reading the router stops the dashboard rather than showing stale
data.

Examples:
  pfdash
  pfdash --host admin@192.168.1.1
  pfdash --config ./lab-router.yaml --plain`,
	Args:              cobra.NoArgs,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogging,
	RunE: func(cmd *cobra.Command, args []string) error {
		return dashboardCommand(cmd.Context(), dashboardOpts)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $XDG_CONFIG_HOME/pfdash/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "append log output to this file")
}

func setupLogging(cmd *cobra.Command, args []string) error {
	if debugFlag {
		logger.SetDebug(true)
	}
	if logFile == "" {
		return nil
	}
	closer, err := logger.RedirectToFile(logFile)
	if err != nil {
		return err
	}
	logCloser = closer
	return nil
}

// Execute runs the root command. Any error is printed and the process exits
// with status 1.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if logCloser != nil {
		logCloser.Close()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, ui.Fail(err.Error()))
		os.Exit(1)
	}
}
