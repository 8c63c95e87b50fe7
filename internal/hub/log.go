package hub

import (
	"context"
	"log/slog"

	"go.klb.dev/magclip/internal/item"
)

// LogItem logs an item event at INFO (id, kind, tab, source app) and DEBUG
// (text preview up to 120 chars, or the image path).
func LogItem(event string, it *item.Item) {
	slog.Info(event, "id", it.ID, "kind", it.Kind, "tab", it.Tab, "source", it.SourceApp)

	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	if it.Kind == item.KindImage {
		slog.Debug("item detail", "id", it.ID, "path", it.Payload, "size", it.Aux)
		return
	}
	slog.Debug("item detail", "id", it.ID, "preview", it.Preview(120))
}
