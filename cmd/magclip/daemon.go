package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/magclip/internal/clip"
	"go.klb.dev/magclip/internal/config"
	"go.klb.dev/magclip/internal/daemon"
	"go.klb.dev/magclip/internal/hotkey"
	"go.klb.dev/magclip/internal/ipc"
	"go.klb.dev/magclip/internal/item"
	"go.klb.dev/magclip/internal/platform"
	"go.klb.dev/magclip/internal/store"
)

func newDaemonCmd() *cobra.Command {
	v := viper.New()
	d := config.Default()

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the clipboard recorder and paste hotkeys",
		Long: `Starts the magclip daemon: watches the system clipboard, records every
copy into the active tab, registers the global hotkeys and serves the control
socket used by the other magclip commands.

Config file search order:
  /etc/magclip/magclip.toml
  $HOME/.config/magclip/magclip.toml
  path supplied via --config

Precedence (lowest → highest): defaults → config file → MAGCLIP_* env vars → flags

Mode, ghost mode, the active tab and the paste options changed at runtime are
remembered across restarts and take precedence over the config file.`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			config.SetDefaults(v)
			return bindViper(cmd, v)
		},
		RunE: func(cmd *cobra.Command, _ []string) error { return runDaemon(cmd.Context(), v) },
	}

	f := cmd.Flags()
	f.String("picking-style", d.PickingStyle, "replay order: fifo|lifo")
	f.String("tab", item.DefaultTab, "active tab on first start")
	f.Bool("ghost-mode", d.GhostMode, "start with capture suspended")
	f.Bool("strip-formatting", d.StripFormatting, "paste rich text as plain text")
	f.Bool("auto-enter", d.AutoEnter, "press Enter after each paste")
	f.Bool("auto-tab", d.AutoTab, "press Tab after each paste")
	f.StringSlice("denylist", d.Denylist, "apps whose copies are never recorded")
	f.Int("max-items-per-tab", d.MaxItemsPerTab, "history size per tab (0 = unlimited)")
	f.String("data-dir", d.DataDir, "database and image directory")
	f.Duration("poll-interval", d.PollInterval, "clipboard polling interval")
	f.String("web-addr", d.WebAddr, "serve the status API on this address (empty = off)")
	f.Bool("headless", false, "use an in-memory clipboard, inject no keystrokes and register no hotkeys")
	addLoggingFlags(cmd)
	addConfigFlag(cmd)

	return cmd
}

func runDaemon(ctx context.Context, v *viper.Viper) error {
	closeLog, err := setupLogging(v)
	if err != nil {
		return err
	}
	defer closeLog()

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.DataDir, cfg.MaxItemsPerTab)
	if err != nil {
		return err
	}
	defer st.Close()

	deps := daemon.HeadlessDeps()
	if !v.GetBool("headless") {
		deps.Clipboard = clip.New()
		deps.Injector, deps.Foreground = platform.New()
		deps.Registrar = hotkey.NewSystem()
	}
	defer deps.Clipboard.Close()

	ln, err := ipc.Listen()
	if err != nil {
		if errors.Is(err, ipc.ErrRunning) {
			return fmt.Errorf("magclip is already running (%s)", ipc.SocketPath())
		}
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("magclip daemon starting",
		"version", Version,
		"data_dir", cfg.DataDir,
		"socket", ipc.SocketPath(),
		"config", v.ConfigFileUsed(),
	)

	dm, err := daemon.New(ctx, cfg, st, deps, Version)
	if err != nil {
		_ = ln.Close()
		return err
	}
	return dm.Run(ctx, ln)
}
