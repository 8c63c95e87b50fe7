// magclip: clipboard history with sequential paste.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.design/x/mainthread"

	"go.klb.dev/magclip/internal/logging"
)

// Version is set at build time via -ldflags "-X main.Version=x.y.z".
var Version = "dev"

func main() {
	code := 0
	// Global hotkeys on macOS must be registered from the main thread.
	mainthread.Init(func() { code = run() })
	os.Exit(code)
}

func run() int {
	root := &cobra.Command{
		Use:   "magclip",
		Short: "Clipboard history with sequential paste",
		Long: `magclip records everything you copy and replays it one item per
keystroke: press the sequential-paste hotkey and the next recorded item is
pasted into the focused application.

Run "magclip daemon" once per login session. The other commands control the
running daemon over a local socket.

Config file search order (first found wins):
  /etc/magclip/magclip.toml
  $HOME/.config/magclip/magclip.toml
  path supplied via --config

All daemon settings can be set via MAGCLIP_<KEY> env vars or config-file keys.
See "magclip daemon --help" for the full flag reference.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newDaemonCmd(),
		newPasteCmd(),
		newPasteAllCmd(),
		newSkipCmd(),
		newStopCmd(),
		newResetCmd(),
		newModeCmd(),
		newStartCmd(),
		newReorderCmd(),
		newCopyCmd(),
		newTypeCmd(),
		newAbortCmd(),
		newRestoreCmd(),
		newGhostCmd(),
		newTabCmd(),
		newTabsCmd(),
		newListCmd(),
		newPinCmd(),
		newDeleteCmd(),
		newClearCmd(),
		newOptionsCmd(),
		newBindCmd(),
		newStatusCmd(),
		newWatchCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)

	if err := root.Execute(); err != nil {
		return 1
	}
	return 0
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("magclip %s\n", Version)
		},
	}
}

// resolveLogging sets up the global slog logger after flags are parsed.
// Without an explicit level, interactive runs log at debug.
func resolveLogging(w io.Writer, interactive bool, formatStr, levelStr string) error {
	format, err := logging.ParseFormat(formatStr)
	if err != nil {
		return err
	}
	level, err := logging.ParseLevel(levelStr)
	if err != nil {
		return err
	}
	if levelStr == "" && interactive {
		level = slog.LevelDebug
	}
	logging.Setup(w, format, level)
	return nil
}
