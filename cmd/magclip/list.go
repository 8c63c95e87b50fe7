package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"go.klb.dev/magclip/internal/message"
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded items, newest first",
		Long: `Lists the history of the active tab (or --tab). Use the IDs with
start, copy, type, pin and delete.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error { return runList(cmd.Flags()) },
	}

	f := cmd.Flags()
	f.String("query", "", "only items containing this text (case-insensitive)")
	f.Bool("pinned", false, "only pinned items")
	f.Int("limit", 0, "at most this many items (0 = all)")
	f.String("tab", "", "tab to list (default: the active tab)")
	f.Bool("json", false, "output raw JSON")

	return cmd
}

func runList(f *pflag.FlagSet) error {
	req := message.NewRequest(message.OpList)
	req.Query, _ = f.GetString("query")
	req.Pinned, _ = f.GetBool("pinned")
	req.Limit, _ = f.GetInt("limit")
	req.Tab, _ = f.GetString("tab")
	jsonOut, _ := f.GetBool("json")

	resp, err := request(req)
	if err != nil {
		return err
	}

	if jsonOut {
		enc, _ := json.MarshalIndent(resp.Items, "", "  ")
		fmt.Println(string(enc))
		return nil
	}
	if len(resp.Items) == 0 {
		fmt.Println("No items.")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 1, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "ID\tKIND\tAGE\tPIN\tCONTENT\n")
	for _, it := range resp.Items {
		pin := ""
		if it.Pinned {
			pin = "yes"
		}
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			it.ID, it.Kind, fmtAge(it.CreatedAt), pin, preview(it.Payload, 60))
	}
	return tw.Flush()
}

func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > n {
		return string(r[:n-1]) + "…"
	}
	return s
}

func fmtAge(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	age := time.Since(t).Round(time.Second)
	switch {
	case age < time.Minute:
		return fmt.Sprintf("%ds ago", int(age.Seconds()))
	case age < time.Hour:
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	case age < 24*time.Hour:
		return t.Format("15:04:05")
	}
	return t.Format("2006-01-02")
}
