package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"go.klb.dev/magclip/internal/ipc"
	"go.klb.dev/magclip/internal/message"
	"go.klb.dev/magclip/internal/wire"
)

const (
	dialTimeout  = 2 * time.Second
	replyTimeout = 10 * time.Second
)

// request sends one control request to the daemon and returns its reply.
// An ERROR reply is returned as an error.
func request(req *message.Message) (*message.Message, error) {
	conn, err := ipc.Dial(dialTimeout)
	if err != nil {
		return nil, err
	}
	wc := wire.New(conn)
	defer wc.Close()

	if err := wc.WriteMsg(req); err != nil {
		return nil, fmt.Errorf("send %s: %w", req.Op, err)
	}
	wc.SetReadDeadline(replyTimeout)
	resp, err := wc.ReadMsg()
	if err != nil {
		return nil, fmt.Errorf("read %s reply: %w", req.Op, err)
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	return resp, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid item id %q", s)
	}
	return id, nil
}

// opCmd builds a command that sends op with no arguments.
func opCmd(use, short string, op message.Op) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			_, err := request(message.NewRequest(op))
			return err
		},
	}
}

// idCmd builds a command that sends op for the item id given as argument.
func idCmd(use, short string, op message.Op, done func(*message.Message)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			req := message.NewRequest(op)
			req.ID = id
			resp, err := request(req)
			if err != nil {
				return err
			}
			if done != nil {
				done(resp)
			}
			return nil
		},
	}
}

func newPasteCmd() *cobra.Command {
	return opCmd("paste", "Paste the next queued item, as the hotkey does", message.OpPaste)
}

func newPasteAllCmd() *cobra.Command {
	return opCmd("paste-all", "Paste every remaining item, or stop a running batch", message.OpPasteAll)
}

func newStopCmd() *cobra.Command {
	return opCmd("stop", "Stop a running batch paste", message.OpStop)
}

func newResetCmd() *cobra.Command {
	return opCmd("reset", "Rewind the queue and drop any manual reordering", message.OpReset)
}

func newAbortCmd() *cobra.Command {
	return opCmd("abort", "Abort ghost typing", message.OpAbort)
}

func newRestoreCmd() *cobra.Command {
	return opCmd("restore", "Put back the clipboard value magclip replaced", message.OpRestore)
}

func newSkipCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "skip",
		Short: "Advance past the next queued item without pasting it",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			resp, err := request(message.NewRequest(message.OpSkip))
			if err != nil {
				return err
			}
			if resp.Item != nil {
				fmt.Printf("skipped %d: %s\n", resp.Item.ID, preview(resp.Item.Payload, 60))
			}
			return nil
		},
	}
}

func newModeCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "mode fifo|lifo",
		Short:     "Set the replay order",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"fifo", "lifo"},
		RunE: func(_ *cobra.Command, args []string) error {
			req := message.NewRequest(message.OpMode)
			req.Args = args
			_, err := request(req)
			return err
		},
	}
}

func newStartCmd() *cobra.Command {
	return idCmd("start", "Make the given item the next one to paste", message.OpStart, nil)
}

func newReorderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <id>...",
		Short: "Put the given items first in the queue, in this order",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			req := message.NewRequest(message.OpReorder)
			for _, a := range args {
				id, err := parseID(a)
				if err != nil {
					return err
				}
				req.IDs = append(req.IDs, id)
			}
			_, err := request(req)
			return err
		},
	}
}

func newCopyCmd() *cobra.Command {
	return idCmd("copy", "Put an item on the clipboard without pasting", message.OpCopy, nil)
}

func newTypeCmd() *cobra.Command {
	return idCmd("type", "Type an item character by character (ghost typing)", message.OpType, nil)
}

func newPinCmd() *cobra.Command {
	return idCmd("pin", "Toggle an item's pin; pinned items survive clear and retention", message.OpPin,
		func(resp *message.Message) {
			if resp.Pinned {
				fmt.Println("pinned")
			} else {
				fmt.Println("unpinned")
			}
		})
}

func newDeleteCmd() *cobra.Command {
	return idCmd("delete", "Delete an item from the history and the queue", message.OpDelete, nil)
}

func newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the unpinned items of the active tab",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			resp, err := request(message.NewRequest(message.OpClear))
			if err != nil {
				return err
			}
			fmt.Printf("deleted %d items\n", resp.Count)
			return nil
		},
	}
}

func newGhostCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "ghost [on|off]",
		Short:     "Suspend or resume clipboard recording (toggles without an argument)",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(_ *cobra.Command, args []string) error {
			req := message.NewRequest(message.OpGhost)
			req.Args = args
			if _, err := request(req); err != nil {
				return err
			}
			resp, err := request(message.NewRequest(message.OpStatus))
			if err != nil {
				return err
			}
			fmt.Printf("ghost mode %s\n", onOff(resp.Status.Ghost))
			return nil
		},
	}
}

func newTabCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tab <name>",
		Short: "Switch the active tab (created on first capture)",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			req := message.NewRequest(message.OpTab)
			req.Args = args
			_, err := request(req)
			return err
		},
	}
}

func newTabsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tabs",
		Short: "List tabs",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			resp, err := request(message.NewRequest(message.OpTabs))
			if err != nil {
				return err
			}
			st, err := request(message.NewRequest(message.OpStatus))
			if err != nil {
				return err
			}
			for _, t := range resp.Tabs {
				marker := " "
				if t == st.Status.Tab {
					marker = "*"
				}
				fmt.Printf("%s %s\n", marker, t)
			}
			return nil
		},
	}
}

func newOptionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "options",
		Short: "Show or change the paste options",
		Long: `Without flags, prints the current paste options. Each flag given changes
that option only:

  magclip options --strip-formatting --auto-enter=false`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := cmd.Flags()
			var opts message.Options
			changed := false
			for name, dst := range map[string]**bool{
				"strip-formatting": &opts.StripFormatting,
				"auto-enter":       &opts.AutoEnter,
				"auto-tab":         &opts.AutoTab,
			} {
				if !f.Changed(name) {
					continue
				}
				b, err := f.GetBool(name)
				if err != nil {
					return err
				}
				*dst = &b
				changed = true
			}
			if changed {
				req := message.NewRequest(message.OpOptions)
				req.Options = &opts
				if _, err := request(req); err != nil {
					return err
				}
			}

			resp, err := request(message.NewRequest(message.OpStatus))
			if err != nil {
				return err
			}
			o := resp.Status.Options
			fmt.Printf("strip-formatting: %s\nauto-enter:       %s\nauto-tab:         %s\n",
				onOffPtr(o.StripFormatting), onOffPtr(o.AutoEnter), onOffPtr(o.AutoTab))
			return nil
		},
	}
	cmd.Flags().Bool("strip-formatting", false, "paste rich text as plain text")
	cmd.Flags().Bool("auto-enter", false, "press Enter after each paste")
	cmd.Flags().Bool("auto-tab", false, "press Tab after each paste")
	return cmd
}

func newBindCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bind <action> <combo>",
		Short: "Rebind a hotkey until the daemon exits",
		Long: `Registers a new combo for one action, e.g.

  magclip bind sequential_paste Ctrl+Alt+V

Actions: sequential_paste, paste_all, toggle_window, skip_item, ghost_mode.
Make the change permanent in the [hotkeys] section of the config file.`,
		Args: cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			req := message.NewRequest(message.OpBind)
			req.Args = args
			_, err := request(req)
			return err
		},
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func onOffPtr(b *bool) string {
	if b == nil {
		return "-"
	}
	return onOff(*b)
}
