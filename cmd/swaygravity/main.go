package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/1broseidon/swaygravity/internal/config"
	"github.com/1broseidon/swaygravity/internal/geometry"
	"github.com/1broseidon/swaygravity/internal/logging"
	"github.com/1broseidon/swaygravity/internal/placement"
	"github.com/1broseidon/swaygravity/internal/unit"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

type options struct {
	padding         int
	width           string
	height          string
	natural         bool
	daemon          bool
	socket          string
	eventDelay      int
	handoverTimeout int
	shutdown        bool
	configPath      string
	logLevel        string
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "swaygravity [vertical] [horizontal]",
		Short: "Position and resize a floating window in sway",
		Long: `Position and resize a floating window in sway.

As a daemon (--daemon), swaygravity keeps the most recent placement and
re-applies it whenever sway reloads its layout. Otherwise the placement is
sent to a running daemon, or applied directly when none is listening.

Only the properties given are changed. Width and height take pixels or a
percentage of the workspace (100px, 33.3%), or a change relative to the
current size (+50px, -5%). Giving only one of them keeps the aspect ratio.

Examples:
  swaygravity top right --width 30%
  swaygravity middle middle --natural --height 50%
  swaygravity --width +10%
  swaygravity --daemon bottom right --padding 16`,
		Args:          cobra.MaximumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, &opts)
		},
	}

	bindFlags(cmd.Flags(), &opts)
	cmd.MarkFlagsMutuallyExclusive("daemon", "shutdown")

	return cmd
}

func bindFlags(f *pflag.FlagSet, opts *options) {
	f.IntVarP(&opts.padding, "padding", "p", 0, "padding around the placed window, in pixels")
	f.StringVar(&opts.width, "width", "", "window width (e.g. 800px, 40%, +50px, -5%)")
	f.StringVar(&opts.height, "height", "", "window height (e.g. 600px, 40%, +50px, -5%)")
	f.BoolVar(&opts.natural, "natural", false, "keep the window's natural aspect ratio")
	f.BoolVarP(&opts.daemon, "daemon", "d", false, "run as a daemon")
	f.StringVarP(&opts.socket, "socket", "s", "", "socket path (default $XDG_RUNTIME_DIR/sway-gravity/$WAYLAND_DISPLAY.sock)")
	f.IntVar(&opts.eventDelay, "sway-event-delay", config.DefaultSwayEventDelayMS, "milliseconds to let sway settle after a reload")
	f.IntVar(&opts.handoverTimeout, "handover-timeout", config.DefaultHandoverTimeoutMS, "milliseconds to wait for a previous daemon to exit")
	f.BoolVar(&opts.shutdown, "shutdown", false, "ask the running daemon to shut down")
	f.StringVar(&opts.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/swaygravity/config.yaml)")
	f.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
}

func run(cmd *cobra.Command, args []string, opts *options) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd.Flags(), opts)
	if err != nil {
		return err
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := logging.Init(level)

	update, err := buildUpdate(cmd.Flags(), args, opts)
	if err != nil {
		return err
	}

	socketPath, err := cfg.SocketPath()
	if err != nil {
		return fmt.Errorf("failed to resolve socket path: %w", err)
	}

	switch {
	case opts.daemon:
		return runDaemon(ctx, cfg, socketPath, update, logger)
	case opts.shutdown:
		return runShutdown(ctx, socketPath, logger)
	default:
		return runClient(ctx, socketPath, update, logger)
	}
}

// loadConfig reads the config file and lays explicitly set flags over it.
func loadConfig(flags *pflag.FlagSet, opts *options) (*config.Config, error) {
	path := opts.configPath
	if path == "" {
		var err error
		if path, err = config.DefaultConfigPath(); err != nil {
			return nil, err
		}
	}

	res, err := config.LoadFromPath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg := res.Config

	if flags.Changed("socket") {
		cfg.Socket = opts.socket
	}
	if flags.Changed("sway-event-delay") {
		cfg.SwayEventDelay = opts.eventDelay
	}
	if flags.Changed("handover-timeout") {
		cfg.HandoverTimeout = opts.handoverTimeout
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildUpdate turns the positional zones and explicitly set flags into a
// placement update.
func buildUpdate(flags *pflag.FlagSet, args []string, opts *options) (placement.Update, error) {
	var u placement.Update

	if len(args) > 0 {
		v, err := geometry.ParseVertical(args[0])
		if err != nil {
			return u, err
		}
		u.Vertical = &v
	}
	if len(args) > 1 {
		h, err := geometry.ParseHorizontal(args[1])
		if err != nil {
			return u, err
		}
		u.Horizontal = &h
	}

	if flags.Changed("padding") {
		padding := opts.padding
		u.Padding = &padding
	}
	if flags.Changed("width") {
		d, err := unit.Parse(opts.width)
		if err != nil {
			return u, fmt.Errorf("--width: %w", err)
		}
		u.Width = &d
	}
	if flags.Changed("height") {
		d, err := unit.Parse(opts.height)
		if err != nil {
			return u, fmt.Errorf("--height: %w", err)
		}
		u.Height = &d
	}
	if flags.Changed("natural") {
		natural := opts.natural
		u.Natural = &natural
	}

	if err := u.Validate(); err != nil {
		return u, err
	}
	return u, nil
}

func logUpdate(logger *slog.Logger, msg string, u placement.Update, attrs ...any) {
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	data, err := placementJSON(u)
	if err != nil {
		data = err.Error()
	}
	logger.Debug(msg, append(attrs, "update", data)...)
}
