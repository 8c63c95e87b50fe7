// Package config holds magclip's daemon settings. Values are resolved by
// viper (defaults, magclip.toml, MAGCLIP_* env vars, flags) and decoded into
// a Config.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"

	"go.klb.dev/magclip/internal/hotkey"
	"go.klb.dev/magclip/internal/item"
	"go.klb.dev/magclip/internal/magazine"
	"go.klb.dev/magclip/internal/paste"
	"go.klb.dev/magclip/internal/store"
)

// FileName is the config file name searched for in the standard locations.
const FileName = "magclip.toml"

// DefaultDenylist names password managers whose clipboard writes are never
// captured.
var DefaultDenylist = []string{
	"1Password", "KeePass", "LastPass", "Bitwarden", "Dashlane",
	"KeePassXC", "RoboForm", "Enpass",
}

// Timing holds the paste protocol delays.
type Timing struct {
	Settle        time.Duration `mapstructure:"settle"`
	AfterInject   time.Duration `mapstructure:"after_inject"`
	Resume        time.Duration `mapstructure:"resume"`
	DirectResume  time.Duration `mapstructure:"direct_resume"`
	BatchInterval time.Duration `mapstructure:"batch_interval"`
	KeyGap        time.Duration `mapstructure:"key_gap"`
}

// Config is the decoded daemon configuration.
type Config struct {
	PickingStyle    string            `mapstructure:"picking_style"`
	StripFormatting bool              `mapstructure:"strip_formatting"`
	AutoEnter       bool              `mapstructure:"auto_enter"`
	AutoTab         bool              `mapstructure:"auto_tab"`
	GhostMode       bool              `mapstructure:"ghost_mode"`
	Denylist        []string          `mapstructure:"denylist"`
	Tab             string            `mapstructure:"tab"`
	MaxItemsPerTab  int               `mapstructure:"max_items_per_tab"`
	DataDir         string            `mapstructure:"data_dir"`
	PollInterval    time.Duration     `mapstructure:"poll_interval"`
	GhostTypeDelay  time.Duration     `mapstructure:"ghost_type_delay"`
	WebAddr         string            `mapstructure:"web_addr"`
	Hotkeys         map[string]string `mapstructure:"hotkeys"`
	Timing          Timing            `mapstructure:"timing"`
}

// Default returns the built-in configuration.
func Default() *Config {
	t := paste.DefaultTimings()
	hk := make(map[string]string, len(hotkey.DefaultBindings))
	for a, c := range hotkey.DefaultBindings {
		hk[string(a)] = c
	}
	return &Config{
		PickingStyle:   string(magazine.FIFO),
		Denylist:       slices.Clone(DefaultDenylist),
		Tab:            item.DefaultTab,
		MaxItemsPerTab: store.DefaultMaxPerTab,
		DataDir:        DefaultDataDir(),
		PollInterval:   50 * time.Millisecond,
		GhostTypeDelay: 15 * time.Millisecond,
		Hotkeys:        hk,
		Timing: Timing{
			Settle:        t.Settle,
			AfterInject:   t.AfterInject,
			Resume:        t.Resume,
			DirectResume:  t.DirectResume,
			BatchInterval: t.BatchInterval,
			KeyGap:        t.KeyGap,
		},
	}
}

// DefaultDataDir is $XDG_DATA_HOME/magclip, falling back to
// ~/.local/share/magclip, or %LOCALAPPDATA%\magclip on Windows.
func DefaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "magclip")
	}
	if dir := os.Getenv("LOCALAPPDATA"); dir != "" {
		return filepath.Join(dir, "magclip")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "magclip")
	}
	return filepath.Join(home, ".local", "share", "magclip")
}

// SetDefaults registers every key with its built-in value so that env vars
// and Unmarshal see the full key set.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("picking_style", d.PickingStyle)
	v.SetDefault("strip_formatting", d.StripFormatting)
	v.SetDefault("auto_enter", d.AutoEnter)
	v.SetDefault("auto_tab", d.AutoTab)
	v.SetDefault("ghost_mode", d.GhostMode)
	v.SetDefault("denylist", d.Denylist)
	v.SetDefault("tab", d.Tab)
	v.SetDefault("max_items_per_tab", d.MaxItemsPerTab)
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("poll_interval", d.PollInterval)
	v.SetDefault("ghost_type_delay", d.GhostTypeDelay)
	v.SetDefault("web_addr", d.WebAddr)
	for action, combo := range d.Hotkeys {
		v.SetDefault("hotkeys."+action, combo)
	}
	v.SetDefault("timing.settle", d.Timing.Settle)
	v.SetDefault("timing.after_inject", d.Timing.AfterInject)
	v.SetDefault("timing.resume", d.Timing.Resume)
	v.SetDefault("timing.direct_resume", d.Timing.DirectResume)
	v.SetDefault("timing.batch_interval", d.Timing.BatchInterval)
	v.SetDefault("timing.key_gap", d.Timing.KeyGap)
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if _, err := magazine.ParseMode(c.PickingStyle); err != nil {
		errs = append(errs, fmt.Errorf("picking_style: %w", err))
	}
	if strings.TrimSpace(c.Tab) == "" {
		errs = append(errs, errors.New("tab: must not be empty"))
	}
	if c.MaxItemsPerTab < 0 {
		errs = append(errs, fmt.Errorf("max_items_per_tab: %d is negative", c.MaxItemsPerTab))
	}
	if c.DataDir == "" {
		errs = append(errs, errors.New("data_dir: must not be empty"))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("poll_interval: %s must be positive", c.PollInterval))
	}
	if c.GhostTypeDelay < 0 {
		errs = append(errs, fmt.Errorf("ghost_type_delay: %s is negative", c.GhostTypeDelay))
	}
	for name, d := range map[string]time.Duration{
		"settle":         c.Timing.Settle,
		"after_inject":   c.Timing.AfterInject,
		"resume":         c.Timing.Resume,
		"direct_resume":  c.Timing.DirectResume,
		"batch_interval": c.Timing.BatchInterval,
		"key_gap":        c.Timing.KeyGap,
	} {
		if d < 0 {
			errs = append(errs, fmt.Errorf("timing.%s: %s is negative", name, d))
		}
	}
	for action, combo := range c.Hotkeys {
		if !slices.Contains(hotkey.Actions, hotkey.Action(action)) {
			errs = append(errs, fmt.Errorf("hotkeys.%s: unknown action", action))
			continue
		}
		if combo == "" {
			continue
		}
		if _, err := hotkey.ParseCombo(combo); err != nil {
			errs = append(errs, fmt.Errorf("hotkeys.%s: %w", action, err))
		}
	}
	return errors.Join(errs...)
}

// Mode is the configured picking style.
func (c *Config) Mode() magazine.Mode {
	m, err := magazine.ParseMode(c.PickingStyle)
	if err != nil {
		return magazine.FIFO
	}
	return m
}

// PasteTimings converts the timing section for the orchestrator.
func (c *Config) PasteTimings() paste.Timings {
	return paste.Timings{
		Settle:        c.Timing.Settle,
		AfterInject:   c.Timing.AfterInject,
		Resume:        c.Timing.Resume,
		DirectResume:  c.Timing.DirectResume,
		BatchInterval: c.Timing.BatchInterval,
		KeyGap:        c.Timing.KeyGap,
	}
}

// PasteOptions converts the paste toggles for the orchestrator.
func (c *Config) PasteOptions() paste.Options {
	return paste.Options{
		StripFormatting: c.StripFormatting,
		AutoEnter:       c.AutoEnter,
		AutoTab:         c.AutoTab,
	}
}

// Bindings returns the hotkey combos by action. Actions bound to "" are
// left out, which disables them.
func (c *Config) Bindings() map[hotkey.Action]string {
	out := make(map[hotkey.Action]string, len(c.Hotkeys))
	for action, combo := range c.Hotkeys {
		if combo != "" {
			out[hotkey.Action(action)] = combo
		}
	}
	return out
}
