package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"go.klb.dev/magclip/internal/ipc"
	"go.klb.dev/magclip/internal/message"
	"go.klb.dev/magclip/internal/wire"
)

func newWatchCmd() *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "watch [event...]",
		Short: "Stream daemon events until interrupted",
		Long: `Prints daemon events as they happen: captured, pasted, paste_failed,
queue_changed, queue_empty, batch_started, batch_stopped, ghost_mode, tab,
typing, toggle_window and hotkey_failed. Name events to see only those.

The current queue, ghost mode and tab are printed first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := ipc.Dial(dialTimeout)
			if err != nil {
				return err
			}
			wc := wire.New(conn)
			defer wc.Close()

			req := message.NewRequest(message.OpWatch)
			req.Args = args
			if err := wc.WriteMsg(req); err != nil {
				return fmt.Errorf("send watch: %w", err)
			}
			wc.SetReadDeadline(replyTimeout)
			ack, err := wc.ReadMsg()
			if err != nil {
				return fmt.Errorf("read watch reply: %w", err)
			}
			if err := ack.Err(); err != nil {
				return err
			}
			wc.SetReadDeadline(0)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			go func() {
				<-ctx.Done()
				_ = wc.Close()
			}()

			enc := json.NewEncoder(os.Stdout)
			for {
				msg, err := wc.ReadMsg()
				if err != nil {
					if ctx.Err() != nil {
						return nil
					}
					return fmt.Errorf("watch: %w", err)
				}
				if msg.Type != message.TypeEvent {
					continue
				}
				if jsonOut {
					if err := enc.Encode(msg); err != nil {
						return err
					}
					continue
				}
				data := string(msg.Data)
				if data == "null" {
					data = ""
				}
				fmt.Printf("%s  %-14s %s\n", msg.Time.Local().Format("15:04:05.000"), msg.Event, data)
			}
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print each event as one JSON object")
	return cmd
}
