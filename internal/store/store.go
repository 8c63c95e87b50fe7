// Package store persists captured items, image files, and runtime toggles
// in a SQLite database under the data directory.
package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"go.klb.dev/magclip/internal/classify"
	"go.klb.dev/magclip/internal/item"
)

// CurrentSchemaVersion is the latest schema version.
const CurrentSchemaVersion = 1

// DefaultMaxPerTab is the retention cap used when Open is given zero.
const DefaultMaxPerTab = 100

// ErrNotFound is returned for an unknown item id.
var ErrNotFound = errors.New("item not found")

// Store is the record store.
type Store struct {
	db        *sql.DB
	dir       string
	imageDir  string
	maxPerTab int
	onEvict   func(*item.Item)
}

// Filter narrows ListItems.
type Filter struct {
	Query      string // case-insensitive substring of the payload
	PinnedOnly bool
	Limit      int // 0 means no limit
}

// Open creates dir if needed and opens dir/magclip.db.
func Open(dir string, maxPerTab int) (*Store, error) {
	if maxPerTab <= 0 {
		maxPerTab = DefaultMaxPerTab
	}
	imageDir := filepath.Join(dir, "images")
	if err := os.MkdirAll(imageDir, 0o700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	dbPath := filepath.Join(dir, "magclip.db")
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	_ = os.Chmod(dbPath, 0o600)

	return &Store{db: db, dir: dir, imageDir: imageDir, maxPerTab: maxPerTab}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Dir is the data directory.
func (s *Store) Dir() string { return s.dir }

func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS items (
		  id         INTEGER PRIMARY KEY AUTOINCREMENT,
		  kind       TEXT NOT NULL,
		  payload    TEXT NOT NULL,
		  aux        TEXT NOT NULL DEFAULT '',
		  source_app TEXT NOT NULL DEFAULT '',
		  tab        TEXT NOT NULL,
		  pinned     INTEGER NOT NULL DEFAULT 0,
		  created_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_items_tab_created
		ON items(tab, created_at);

		CREATE TABLE IF NOT EXISTS state (
		  key   TEXT PRIMARY KEY,
		  value TEXT NOT NULL
		);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", 1)); err != nil {
			return fmt.Errorf("set schema version: %w", err)
		}
	}
	return nil
}

const itemColumns = "id, kind, payload, aux, source_app, tab, pinned, created_at"

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (*item.Item, error) {
	var (
		it      item.Item
		kind    string
		pinned  int
		created int64
	)
	if err := row.Scan(&it.ID, &kind, &it.Payload, &it.Aux, &it.SourceApp, &it.Tab, &pinned, &created); err != nil {
		return nil, err
	}
	k, err := item.ParseKind(kind)
	if err != nil {
		return nil, err
	}
	it.Kind = k
	it.Pinned = pinned != 0
	it.CreatedAt = time.Unix(0, created)
	return &it, nil
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]*item.Item, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var out []*item.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (s *Store) insertItem(ctx context.Context, it *item.Item) (int64, error) {
	if err := it.Validate(); err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO items (kind, payload, aux, source_app, tab, pinned, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(it.Kind), it.Payload, it.Aux, it.SourceApp, it.Tab, boolInt(it.Pinned), it.CreatedAt.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("insert item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert item: %w", err)
	}
	return id, nil
}

// AddItem persists it, fills in its ID (and, for images still held in
// memory, its file path), then evicts the oldest unpinned items of the tab
// beyond the retention cap.
func (s *Store) AddItem(ctx context.Context, it *item.Item) (int64, error) {
	if it.Tab == "" {
		it.Tab = item.DefaultTab
	}
	if it.CreatedAt.IsZero() {
		it.CreatedAt = time.Now()
	}
	var saved string
	if it.Kind == item.KindImage && it.Payload == "" {
		path, w, h, err := s.SaveImage(it.Image)
		if err != nil {
			return 0, err
		}
		it.Payload, saved = path, path
		if it.Aux == "" && w > 0 {
			it.Aux = fmt.Sprintf("%dx%d", w, h)
		}
	}
	id, err := s.insertItem(ctx, it)
	if err != nil {
		if saved != "" {
			if rmErr := os.Remove(saved); rmErr != nil {
				slog.Warn("image cleanup failed", "path", saved, "err", rmErr)
			}
			it.Payload = ""
		}
		return 0, err
	}
	it.ID = id

	if err := s.enforceLimit(ctx, it.Tab); err != nil {
		return id, err
	}
	return id, nil
}

func (s *Store) enforceLimit(ctx context.Context, tab string) error {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM items WHERE tab = ?", tab).Scan(&count); err != nil {
		return fmt.Errorf("count items: %w", err)
	}
	excess := count - s.maxPerTab
	if excess <= 0 {
		return nil
	}
	victims, err := s.query(ctx,
		"SELECT "+itemColumns+" FROM items WHERE tab = ? AND pinned = 0 ORDER BY created_at ASC, id ASC LIMIT ?",
		tab, excess)
	if err != nil {
		return err
	}
	for _, v := range victims {
		if err := s.delete(ctx, v); err != nil {
			return err
		}
		if s.onEvict != nil {
			s.onEvict(v)
		}
	}
	return nil
}

// OnEvict registers fn to be called for every item removed by the retention
// cap. Set it before the store is shared.
func (s *Store) OnEvict(fn func(*item.Item)) { s.onEvict = fn }

// ListItems returns the tab's items newest first.
func (s *Store) ListItems(ctx context.Context, tab string, f Filter) ([]*item.Item, error) {
	var (
		where = []string{"tab = ?"}
		args  = []any{tab}
	)
	if f.Query != "" {
		where = append(where, "payload LIKE ? ESCAPE '\\'")
		args = append(args, "%"+escapeLike(f.Query)+"%")
	}
	if f.PinnedOnly {
		where = append(where, "pinned = 1")
	}
	q := "SELECT " + itemColumns + " FROM items WHERE " + strings.Join(where, " AND ") +
		" ORDER BY created_at DESC, id DESC"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}
	return s.query(ctx, q, args...)
}

// ListItemsInsertionOrder returns the tab's items oldest first, the order
// the magazine loads.
func (s *Store) ListItemsInsertionOrder(ctx context.Context, tab string) ([]*item.Item, error) {
	return s.query(ctx,
		"SELECT "+itemColumns+" FROM items WHERE tab = ? ORDER BY created_at ASC, id ASC", tab)
}

// Get returns one item.
func (s *Store) Get(ctx context.Context, id int64) (*item.Item, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+itemColumns+" FROM items WHERE id = ?", id)
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get item %d: %w", id, err)
	}
	return it, nil
}

// Latest returns the newest item of the tab, or ErrNotFound.
func (s *Store) Latest(ctx context.Context, tab string) (*item.Item, error) {
	items, err := s.ListItems(ctx, tab, Filter{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNotFound
	}
	return items[0], nil
}

// DeleteItem removes an item and its image file.
func (s *Store) DeleteItem(ctx context.Context, id int64) error {
	it, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.delete(ctx, it)
}

func (s *Store) delete(ctx context.Context, it *item.Item) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM items WHERE id = ?", it.ID); err != nil {
		return fmt.Errorf("delete item %d: %w", it.ID, err)
	}
	s.removeImage(it)
	return nil
}

// removeImage deletes files this store wrote; paths elsewhere are left alone.
func (s *Store) removeImage(it *item.Item) {
	if it.Kind != item.KindImage || filepath.Dir(it.Payload) != s.imageDir {
		return
	}
	_ = os.Remove(it.Payload)
}

// TogglePin flips the pinned flag and returns the new value.
func (s *Store) TogglePin(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, "UPDATE items SET pinned = 1 - pinned WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("toggle pin %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return false, ErrNotFound
	}
	it, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return it.Pinned, nil
}

// ClearTab deletes every unpinned item of the tab and returns how many went.
func (s *Store) ClearTab(ctx context.Context, tab string) (int, error) {
	victims, err := s.query(ctx,
		"SELECT "+itemColumns+" FROM items WHERE tab = ? AND pinned = 0", tab)
	if err != nil {
		return 0, err
	}
	for _, v := range victims {
		if err := s.delete(ctx, v); err != nil {
			return 0, err
		}
	}
	return len(victims), nil
}

// Tabs lists the tabs that hold items, always including the default tab.
func (s *Store) Tabs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT tab FROM items ORDER BY tab")
	if err != nil {
		return nil, fmt.Errorf("list tabs: %w", err)
	}
	defer rows.Close()

	tabs := []string{item.DefaultTab}
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan tab: %w", err)
		}
		if t != item.DefaultTab {
			tabs = append(tabs, t)
		}
	}
	return tabs, rows.Err()
}

// SaveImage writes PNG bytes to the image directory under a fresh ULID name
// and reports the pixel dimensions (zero when the header is unreadable).
func (s *Store) SaveImage(data []byte) (path string, w, h int, err error) {
	if len(data) == 0 {
		return "", 0, 0, fmt.Errorf("save image: no data")
	}
	id := ulid.MustNew(ulid.Timestamp(time.Now()), ulid.Monotonic(rand.Reader, 0))
	path = filepath.Join(s.imageDir, id.String()+".png")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", 0, 0, fmt.Errorf("save image: %w", err)
	}
	w, h, _ = classify.ImageSize(data)
	return path, w, h, nil
}

// GetState returns a persisted runtime value, or def when unset.
func (s *Store) GetState(ctx context.Context, key, def string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM state WHERE key = ?", key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return def, nil
	}
	if err != nil {
		return def, fmt.Errorf("get state %s: %w", key, err)
	}
	return v, nil
}

// SetState persists a runtime value.
func (s *Store) SetState(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO state (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value)
	if err != nil {
		return fmt.Errorf("set state %s: %w", key, err)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(s)
}
