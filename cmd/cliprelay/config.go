package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"go.klb.dev/cliprelay/internal/delivery"
	"go.klb.dev/cliprelay/internal/logging"
	"go.klb.dev/cliprelay/internal/watcher"
)

const defaultPort = 50000

// bindViper wires a command's flags into a viper instance with the standard
// config file search order and CLIPRELAY_* env var prefix.
//
// Precedence (lowest → highest): defaults → config file → CLIPRELAY_* env vars → flags
func bindViper(cmd *cobra.Command, v *viper.Viper) error {
	configFlag, _ := cmd.Flags().GetString("config")
	if configFlag != "" {
		v.SetConfigFile(configFlag)
	} else {
		v.SetConfigName("cliprelay")
		v.SetConfigType("toml")
		v.AddConfigPath("/etc/cliprelay/")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(fmt.Sprintf("%s/.config/cliprelay", home))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("config: %w", err)
		}
	}

	v.SetEnvPrefix("CLIPRELAY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}
	return nil
}

// addLoggingFlags adds the standard logging flags.
func addLoggingFlags(f *pflag.FlagSet) {
	f.Bool("no-background", false, "run interactively: tinter logs + debug level")
	f.String("log-format", "auto", "log format: auto|text|json")
	f.String("log-level", "", "log level: debug|info|warn|error (default: info for service, debug for interactive)")
}

// addConfigFlag adds the --config flag.
func addConfigFlag(f *pflag.FlagSet) {
	f.String("config", "", "path to config file (overrides auto-discovery)")
}

func addPortFlag(f *pflag.FlagSet) {
	f.Int("port", defaultPort, "UDP port (a positional port argument takes precedence)")
}

// addDeliveryFlags adds the sender's protocol parameters.
func addDeliveryFlags(f *pflag.FlagSet) {
	f.Duration("ack-timeout", delivery.DefaultAckTimeout, "how long to wait for an ack after each send")
	f.Int("max-retries", delivery.DefaultMaxRetries, "sends per clipboard change before giving up")
	f.Int("max-payload", delivery.DefaultMaxPayload, "largest frame in bytes; bigger clipboard text is not sent")
	f.Duration("poll-interval", watcher.DefaultPollInterval, "clipboard polling interval")
}

// setupLogging reads logging flags from viper and configures slog.
func setupLogging(v *viper.Viper) {
	interactive := v.GetBool("no-background") || logging.IsTTY(os.Stderr)
	resolveLogging(interactive, v.GetString("log-format"), v.GetString("log-level"))
}

// resolveLogging sets up the global slog logger after flags are parsed.
func resolveLogging(interactive bool, formatStr, levelStr string) {
	logging.Setup(logging.ParseFormat(formatStr), defaultLevel(interactive, levelStr))
}

func defaultLevel(interactive bool, levelStr string) slog.Level {
	if levelStr != "" {
		return logging.ParseLevel(levelStr)
	}
	if interactive {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// watchConfig reapplies log-level whenever the config file in use changes.
// Protocol parameters keep their startup values.
func watchConfig(v *viper.Viper) {
	if v.ConfigFileUsed() == "" {
		return
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		lvl := v.GetString("log-level")
		if lvl == "" {
			return
		}
		logging.SetLevel(logging.ParseLevel(lvl))
		slog.Info("config reloaded", "file", e.Name, "log_level", logging.Level())
	})
	v.WatchConfig()
}

// resolvePort returns the positional port at args[idx] if present, else the
// --port value.
func resolvePort(v *viper.Viper, args []string, idx int) (int, error) {
	if len(args) > idx {
		return parsePort(args[idx])
	}
	port := v.GetInt("port")
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("invalid port %d", port)
	}
	return port, nil
}

func parsePort(s string) (int, error) {
	port, err := strconv.Atoi(s)
	if err != nil || port < 1 || port > 65535 {
		return 0, fmt.Errorf("invalid port %q", s)
	}
	return port, nil
}

func deliveryConfig(v *viper.Viper) (delivery.Config, watcher.Config, error) {
	dc := delivery.Config{
		AckTimeout: v.GetDuration("ack-timeout"),
		MaxRetries: v.GetInt("max-retries"),
		MaxPayload: v.GetInt("max-payload"),
	}
	if err := dc.Validate(); err != nil {
		return dc, watcher.Config{}, err
	}
	wc := watcher.Config{PollInterval: v.GetDuration("poll-interval")}
	return dc, wc, wc.Validate()
}
