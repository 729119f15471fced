package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/cliprelay/internal/clip"
	"go.klb.dev/cliprelay/internal/listener"
	"go.klb.dev/cliprelay/internal/wire"
)

func newReceiveCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "receive [port]",
		Short: "Apply received clipboard text locally and acknowledge it",
		Long: `Binds a UDP port, writes the text of every frame it receives to the
local clipboard and answers the sender with an acknowledgment. Frames that
cannot be parsed are dropped without a reply.

Precedence (lowest → highest): defaults → config file → CLIPRELAY_* env vars → flags`,
		Args:    cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReceive(cmd.Context(), v, args)
		},
	}

	f := cmd.Flags()
	addPortFlag(f)
	f.String("bind", "0.0.0.0", "local address to bind")
	addLoggingFlags(f)
	addConfigFlag(f)

	return cmd
}

func runReceive(ctx context.Context, v *viper.Viper, args []string) error {
	setupLogging(v)
	watchConfig(v)

	port, err := resolvePort(v, args, 0)
	if err != nil {
		return err
	}

	conn, err := wire.Listen(net.JoinHostPort(v.GetString("bind"), strconv.Itoa(port)))
	if err != nil {
		slog.Error("cannot bind", "port", port, "err", err)
		return err
	}
	defer conn.Close()

	slog.Info("cliprelay receiver starting", "version", Version, "addr", conn.LocalAddr())

	l := listener.New(conn, clip.New())
	if err := l.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	slog.Info("receiver stopped")
	return nil
}
