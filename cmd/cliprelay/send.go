package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/cliprelay/internal/clip"
	"go.klb.dev/cliprelay/internal/delivery"
	"go.klb.dev/cliprelay/internal/watcher"
	"go.klb.dev/cliprelay/internal/wire"
)

func newSendCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "send <ip|broadcast> [port]",
		Short: "Watch the local clipboard and send changes to a receiver",
		Long: `Polls the local clipboard and sends every new text to the receiver at
<ip>, or to every host on the local network when the destination is the
literal "broadcast". Each change is resent until it is acknowledged or
--max-retries sends went unanswered; a failed change is tried again on the
next poll.

Precedence (lowest → highest): defaults → config file → CLIPRELAY_* env vars → flags`,
		Args:    cobra.RangeArgs(1, 2),
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSend(cmd.Context(), v, args)
		},
	}

	f := cmd.Flags()
	addPortFlag(f)
	addDeliveryFlags(f)
	addLoggingFlags(f)
	addConfigFlag(f)

	return cmd
}

func runSend(ctx context.Context, v *viper.Viper, args []string) error {
	setupLogging(v)
	watchConfig(v)

	port, err := resolvePort(v, args, 1)
	if err != nil {
		return err
	}
	dc, wc, err := deliveryConfig(v)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	dest := wire.ResolveTarget(args[0], port)
	conn, err := wire.Dial(dest)
	if err != nil {
		slog.Error("cannot open socket", "dest", dest, "err", err)
		return err
	}
	defer conn.Close()

	engine := delivery.New(conn, dc)
	cfg := engine.Config()
	slog.Info("cliprelay sender starting",
		"version", Version,
		"dest", dest,
		"broadcast", args[0] == wire.Broadcast,
		"local", conn.LocalAddr(),
		"ack_timeout", cfg.AckTimeout,
		"max_retries", cfg.MaxRetries,
	)

	w := watcher.New(clip.New(), engine, wc)
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	slog.Info("sender stopped", "next_seq", engine.NextSeq())
	return nil
}
