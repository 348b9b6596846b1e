// Package fileevents bridges host-side file-system notifications into the
// workspace/didChangeWatchedFiles protocol message, and dispatches
// will/did file-operation notifications for renames, creates, and deletes
// (component G). The watcher half is grounded directly on this module's own
// fsnotify-based file watcher: same library, same debounce-then-batch shape,
// retargeted at the glob patterns the server registered instead of a fixed
// set of project directories.
package fileevents

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
	"go.uber.org/zap"
)

// Sender is the narrow connection dependency this package needs.
type Sender interface {
	Notify(ctx context.Context, method string, params interface{}) error
}

// FlushFunc forces out any edit the document-sync debouncer is still holding.
// The watcher calls it before every didChangeWatchedFiles notification so the
// server sees file-system events in a coherent order relative to pending
// document changes (spec.md §4.5, §4.7).
type FlushFunc func()

// Watch is one glob pattern registered by the server via
// workspace/didChangeWatchedFiles registration options, carrying the kind
// mask (create/change/delete) it cares about.
type Watch struct {
	GlobPattern string
	Kind        protocol.WatchKind
}

// Watcher bridges fsnotify events on the watched roots into
// workspace/didChangeWatchedFiles notifications, batching events observed
// within a short window into one notification the way rapid saves across a
// project (a git checkout, a formatter rewriting many files) naturally
// cluster.
type Watcher struct {
	conn      Sender
	logger    *zap.Logger
	flushSync FlushFunc

	fsw   *fsnotify.Watcher
	delay time.Duration

	mu      sync.Mutex
	watches []Watch
	batch   []protocol.FileEvent
	timer   *time.Timer
	stop    chan struct{}
	wg      sync.WaitGroup
}

const defaultDebounce = 250 * time.Millisecond

// New creates a Watcher. roots are the directories to add to the underlying
// fsnotify watcher; Configure installs the glob patterns that filter which
// events actually get forwarded. flush forces out any pending document-sync
// edit before a batch of watched-file events is sent; it may be nil, in
// which case no forced flush happens (e.g. in tests with no sync layer).
func New(conn Sender, logger *zap.Logger, roots []string, flush FlushFunc) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Watcher{
		conn:      conn,
		logger:    logger,
		flushSync: flush,
		fsw:       fsw,
		delay:     defaultDebounce,
		stop:      make(chan struct{}),
	}
	for _, root := range roots {
		if err := fsw.Add(root); err != nil {
			logger.Warn("failed to watch root", zap.String("root", root), zap.Error(err))
		}
	}
	return w, nil
}

// Configure replaces the set of glob patterns the server wants watched,
// following a client/registerCapability or client/unregisterCapability for
// workspace/didChangeWatchedFiles.
func (w *Watcher) Configure(watches []Watch) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.watches = watches
}

// Start begins the watch loop.
func (w *Watcher) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Stop halts the watch loop and closes the underlying fsnotify watcher.
func (w *Watcher) Stop() {
	select {
	case <-w.stop:
		return
	default:
		close(w.stop)
	}
	w.wg.Wait()
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	_ = w.fsw.Close()
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", zap.Error(err))
		case <-w.stop:
			return
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	kind, matched := w.match(ev)
	if !matched {
		return
	}

	fe := protocol.FileEvent{
		URI:  protocol.DocumentURI(uri.File(ev.Name)),
		Type: kind,
	}

	w.mu.Lock()
	w.batch = append(w.batch, fe)
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.delay, w.flush)
	w.mu.Unlock()
}

// match reports the protocol.FileChangeType for ev if some configured watch
// pattern both matches the path and includes this operation in its Kind
// mask; the default Kind (when a watch doesn't specify one) is create |
// change | delete, per the LSP spec's default for FileSystemWatcher.
func (w *Watcher) match(ev fsnotify.Event) (protocol.FileChangeType, bool) {
	var kind protocol.FileChangeType
	switch {
	case ev.Op&fsnotify.Create == fsnotify.Create:
		kind = protocol.FileChangeTypeCreated
	case ev.Op&fsnotify.Remove == fsnotify.Remove:
		kind = protocol.FileChangeTypeDeleted
	case ev.Op&fsnotify.Write == fsnotify.Write, ev.Op&fsnotify.Rename == fsnotify.Rename:
		kind = protocol.FileChangeTypeChanged
	default:
		return 0, false
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for _, watch := range w.watches {
		if !matchGlob(watch.GlobPattern, ev.Name) {
			continue
		}
		mask := watch.Kind
		if mask == 0 {
			mask = protocol.WatchCreate | protocol.WatchChange | protocol.WatchDelete
		}
		switch kind {
		case protocol.FileChangeTypeCreated:
			if mask&protocol.WatchCreate == 0 {
				continue
			}
		case protocol.FileChangeTypeChanged:
			if mask&protocol.WatchChange == 0 {
				continue
			}
		case protocol.FileChangeTypeDeleted:
			if mask&protocol.WatchDelete == 0 {
				continue
			}
		}
		return kind, true
	}
	return 0, false
}

func matchGlob(pattern, path string) bool {
	if pattern == "" {
		return true
	}
	if !strings.Contains(pattern, "**") {
		ok, _ := filepath.Match(pattern, path)
		if ok {
			return true
		}
		ok, _ = filepath.Match(pattern, filepath.Base(path))
		return ok
	}
	// A leading **/ anchors nowhere in particular; check both the full
	// suffix pattern and a base-name fallback the way gitignore-style
	// double-star globs are usually interpreted.
	trimmed := strings.TrimPrefix(pattern, "**/")
	ok, _ := filepath.Match(trimmed, filepath.Base(path))
	return ok
}

func (w *Watcher) flush() {
	w.mu.Lock()
	events := w.batch
	w.batch = nil
	w.mu.Unlock()

	if len(events) == 0 {
		return
	}
	if w.flushSync != nil {
		w.flushSync()
	}
	params := &protocol.DidChangeWatchedFilesParams{Changes: events}
	if err := w.conn.Notify(context.Background(), "workspace/didChangeWatchedFiles", params); err != nil {
		w.logger.Warn("didChangeWatchedFiles failed", zap.Error(err))
	}
}
