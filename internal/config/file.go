package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// fileTiming and fileConfig are the on-disk shape of Config. Durations are
// written as Go duration strings ("30ms") so viper can read them back.
type fileTiming struct {
	Settle        string `toml:"settle"`
	AfterInject   string `toml:"after_inject"`
	Resume        string `toml:"resume"`
	DirectResume  string `toml:"direct_resume"`
	BatchInterval string `toml:"batch_interval"`
	KeyGap        string `toml:"key_gap"`
}

type fileConfig struct {
	PickingStyle    string            `toml:"picking_style"`
	StripFormatting bool              `toml:"strip_formatting"`
	AutoEnter       bool              `toml:"auto_enter"`
	AutoTab         bool              `toml:"auto_tab"`
	GhostMode       bool              `toml:"ghost_mode"`
	Denylist        []string          `toml:"denylist"`
	Tab             string            `toml:"tab"`
	MaxItemsPerTab  int               `toml:"max_items_per_tab"`
	DataDir         string            `toml:"data_dir"`
	PollInterval    string            `toml:"poll_interval"`
	GhostTypeDelay  string            `toml:"ghost_type_delay"`
	WebAddr         string            `toml:"web_addr"`
	Hotkeys         map[string]string `toml:"hotkeys"`
	Timing          fileTiming        `toml:"timing"`
}

// Encode writes c as TOML.
func Encode(w io.Writer, c *Config) error {
	f := fileConfig{
		PickingStyle:    c.PickingStyle,
		StripFormatting: c.StripFormatting,
		AutoEnter:       c.AutoEnter,
		AutoTab:         c.AutoTab,
		GhostMode:       c.GhostMode,
		Denylist:        c.Denylist,
		Tab:             c.Tab,
		MaxItemsPerTab:  c.MaxItemsPerTab,
		DataDir:         c.DataDir,
		PollInterval:    c.PollInterval.String(),
		GhostTypeDelay:  c.GhostTypeDelay.String(),
		WebAddr:         c.WebAddr,
		Hotkeys:         c.Hotkeys,
		Timing: fileTiming{
			Settle:        c.Timing.Settle.String(),
			AfterInject:   c.Timing.AfterInject.String(),
			Resume:        c.Timing.Resume.String(),
			DirectResume:  c.Timing.DirectResume.String(),
			BatchInterval: c.Timing.BatchInterval.String(),
			KeyGap:        c.Timing.KeyGap.String(),
		},
	}
	if err := toml.NewEncoder(w).Encode(f); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}

// UserPath is $HOME/.config/magclip/magclip.toml.
func UserPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	return filepath.Join(home, ".config", "magclip", FileName), nil
}

// WriteDefault writes the built-in configuration to path. An existing file
// is only replaced when force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("stat %s: %w", path, err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, Default()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
