//go:build !(rp2040 || rp2350)

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	cobra "github.com/spf13/cobra"

	"lowpower-go/x/logx"
)

func newRootCmd() *cobra.Command {
	var verbose bool
	root := &cobra.Command{
		Use:          "lpctl",
		Short:        "Low-power sensor scheduler tools",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logx.SetLevel(logx.LevelDebug)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	root.AddCommand(newSimCmd(), newMonitorCmd())
	return root
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
