package workbook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"
)

// ErrNotFound is returned when the catalog has no workbook with that id.
var ErrNotFound = errors.New("workbook not found")

// DefaultDebounce is how long the watcher waits for a directory to settle
// before rescanning.
const DefaultDebounce = 250 * time.Millisecond

// Entry describes one workbook file in the catalog directory.
type Entry struct {
	ID      string // file name without extension
	Path    string
	Size    int64
	ModTime time.Time
}

type cached struct {
	modTime time.Time
	wb      *Workbook
}

// Catalog lists the workbooks of one directory, keyed by file name with the
// extension stripped. Workbooks are parsed on first use and cached until the
// file changes.
//
// When two files share a base name (report.xlsx and report.csv) the first in
// lexical file name order wins.
type Catalog struct {
	dir      string
	debounce time.Duration

	mu      sync.RWMutex
	entries map[string]Entry
	cache   map[string]cached

	watchMu sync.Mutex
	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewCatalog creates a catalog over dir. It does not scan; call Refresh.
// An empty dir yields a catalog that is always empty.
func NewCatalog(dir string) *Catalog {
	return &Catalog{
		dir:      dir,
		debounce: DefaultDebounce,
		entries:  make(map[string]Entry),
		cache:    make(map[string]cached),
	}
}

// SetDebounce overrides the watcher debounce window. Call before Watch.
func (c *Catalog) SetDebounce(d time.Duration) {
	if d > 0 {
		c.debounce = d
	}
}

// Refresh rescans the directory. Cached workbooks whose file was removed or
// modified are evicted.
func (c *Catalog) Refresh() error {
	if c.dir == "" {
		return nil
	}

	dirEntries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("scan workbook dir %s: %w", c.dir, err)
	}

	found := make(map[string]Entry)
	for _, de := range dirEntries {
		if de.IsDir() || !Supported(de.Name()) {
			continue
		}
		info, err := de.Info()
		if err != nil {
			// removed between ReadDir and Info
			continue
		}
		id := BaseName(de.Name())
		if prev, dup := found[id]; dup {
			slog.Warn("duplicate workbook name, ignoring file",
				"id", id,
				"kept", filepath.Base(prev.Path),
				"ignored", de.Name(),
			)
			continue
		}
		found[id] = Entry{
			ID:      id,
			Path:    filepath.Join(c.dir, de.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for id, hit := range c.cache {
		e, ok := found[id]
		if !ok || !e.ModTime.Equal(hit.modTime) {
			delete(c.cache, id)
		}
	}
	c.entries = found

	slog.Debug("workbook catalog refreshed", "dir", c.dir, "workbooks", len(found))
	return nil
}

// Entries returns all catalog entries sorted by id.
func (c *Catalog) Entries() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Lookup returns the entry with this id.
func (c *Catalog) Lookup(id string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[id]
	return e, ok
}

// Load returns the parsed workbook for id, parsing it on first use.
func (c *Catalog) Load(id string) (*Workbook, error) {
	c.mu.RLock()
	e, ok := c.entries[id]
	hit, cachedOK := c.cache[id]
	c.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if cachedOK && hit.modTime.Equal(e.ModTime) {
		return hit.wb, nil
	}

	wb, err := Open(e.Path)
	if err != nil {
		return nil, err
	}
	wb.Name = id

	c.mu.Lock()
	// only cache if the entry was not replaced while parsing
	if cur, ok := c.entries[id]; ok && cur.ModTime.Equal(e.ModTime) {
		c.cache[id] = cached{modTime: e.ModTime, wb: wb}
	}
	c.mu.Unlock()

	return wb, nil
}

// Preload parses every catalog workbook with up to limit concurrent parsers.
// Unreadable workbooks are logged and skipped; only context cancellation is
// returned as an error.
func (c *Catalog) Preload(ctx context.Context, limit int) error {
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for _, e := range c.Entries() {
		id := e.ID
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, err := c.Load(id); err != nil {
				slog.Warn("workbook preload failed", "id", id, "error", err)
			}
			return nil
		})
	}

	return g.Wait()
}

// Watch rescans the directory whenever files in it change. It returns once
// the watcher is registered; events are handled in a background goroutine
// until ctx is done or Close is called.
func (c *Catalog) Watch(ctx context.Context) error {
	if c.dir == "" {
		return nil
	}

	c.watchMu.Lock()
	defer c.watchMu.Unlock()
	if c.watcher != nil {
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(c.dir); err != nil {
		_ = w.Close()
		return fmt.Errorf("watch %s: %w", c.dir, err)
	}

	c.watcher = w
	c.stopCh = make(chan struct{})
	c.doneCh = make(chan struct{})
	go c.run(ctx, w, c.stopCh, c.doneCh)

	slog.Info("watching workbook dir", "dir", c.dir)
	return nil
}

// Close stops the watcher, if any, and waits for it to exit.
func (c *Catalog) Close() error {
	c.watchMu.Lock()
	defer c.watchMu.Unlock()

	if c.watcher == nil {
		return nil
	}

	close(c.stopCh)
	<-c.doneCh
	err := c.watcher.Close()
	c.watcher = nil
	return err
}

// minTick bounds how often the watcher checks for a settled burst of events.
const minTick = time.Millisecond

func (c *Catalog) tickInterval() time.Duration {
	return max(c.debounce/2, minTick)
}

func (c *Catalog) run(ctx context.Context, w *fsnotify.Watcher, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(c.tickInterval())
	defer ticker.Stop()

	var pending bool
	var lastEvent time.Time

	for {
		select {
		case <-ctx.Done():
			return

		case <-stopCh:
			return

		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if !Supported(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			slog.Debug("workbook dir event", "op", event.Op.String(), "file", event.Name)
			pending = true
			lastEvent = time.Now()

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			slog.Error("workbook watcher error", "error", err)

		case <-ticker.C:
			if !pending || time.Since(lastEvent) < c.debounce {
				continue
			}
			pending = false
			if err := c.Refresh(); err != nil {
				slog.Error("workbook catalog refresh failed", "error", err)
			}
		}
	}
}
