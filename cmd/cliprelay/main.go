// cliprelay: clipboard text relay over UDP with acknowledgments.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags "-X main.Version=x.y.z".
var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "cliprelay",
		Short: "Relay clipboard text between two hosts over UDP",
		Long: `cliprelay copies clipboard text from one host to another over UDP.

Run "cliprelay receive" on the host whose clipboard should be updated and
"cliprelay send <ip|broadcast>" on the host you copy from. The sender polls
its clipboard, sends every change as a numbered frame and resends it until the
receiver acknowledges it or the retry budget is spent.

Config file search order (first found wins):
  /etc/cliprelay/cliprelay.toml
  $HOME/.config/cliprelay/cliprelay.toml
  path supplied via --config

All flags can be set via CLIPRELAY_<FLAG> env vars or config-file keys.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newSendCmd(),
		newReceiveCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "cliprelay %s\n", Version)
		},
	}
}
