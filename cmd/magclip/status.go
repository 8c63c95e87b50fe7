package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"go.klb.dev/magclip/internal/hotkey"
	"go.klb.dev/magclip/internal/ipc"
	"go.klb.dev/magclip/internal/message"
)

func newStatusCmd() *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the queue, modes and hotkeys of the running daemon",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			resp, err := request(message.NewRequest(message.OpStatus))
			if err != nil {
				return err
			}
			if jsonOut {
				enc, _ := json.MarshalIndent(resp.Status, "", "  ")
				fmt.Println(string(enc))
				return nil
			}
			printStatus(resp.Status)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output raw JSON")
	return cmd
}

func printStatus(st *message.Status) {
	w := tabwriter.NewWriter(os.Stdout, 1, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Daemon:\tmagclip %s (%s)\n", st.Version, ipc.SocketPath())
	fmt.Fprintf(w, "Clipboard:\t%s\n", st.Backend)
	fmt.Fprintf(w, "Tab:\t%s\n", st.Tab)
	fmt.Fprintf(w, "Mode:\t%s\n", st.Mode)
	fmt.Fprintf(w, "Queue:\t%d of %d pasted, %d remaining\n", st.Index, st.Total, st.Remaining)

	activity := "idle"
	switch {
	case st.Batch:
		activity = "batch paste"
	case st.Busy:
		activity = "pasting"
	case st.Typing:
		activity = "ghost typing"
	}
	if st.Queued > 0 {
		activity += fmt.Sprintf(" (%d queued)", st.Queued)
	}
	fmt.Fprintf(w, "Activity:\t%s\n", activity)
	fmt.Fprintf(w, "Ghost mode:\t%s\n", onOff(st.Ghost))
	fmt.Fprintf(w, "Options:\tstrip-formatting=%s auto-enter=%s auto-tab=%s\n",
		onOffPtr(st.Options.StripFormatting), onOffPtr(st.Options.AutoEnter), onOffPtr(st.Options.AutoTab))
	if st.SafetyNet {
		fmt.Fprintf(w, "Safety net:\tholding your clipboard (magclip restore)\n")
	}
	if st.Watchers > 0 {
		fmt.Fprintf(w, "Watchers:\t%d\n", st.Watchers)
	}
	fmt.Fprintln(w)
	_ = w.Flush()

	tw := tabwriter.NewWriter(os.Stdout, 1, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "ACTION\tHOTKEY\tSTATE\n")
	for _, a := range hotkey.Actions {
		combo, state := st.Hotkeys[string(a)], "ok"
		if combo == "" {
			combo, state = "-", "disabled"
		}
		if err, ok := st.HotkeyErrors[string(a)]; ok {
			state = err
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", a, combo, state)
	}
	_ = tw.Flush()
}
