package script

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Change actions reported by Watcher.
const (
	ActionCreate = "create"
	ActionSave   = "save"
	ActionDelete = "delete"
)

// DefaultDebounce is how long Watcher waits for file events to settle.
const DefaultDebounce = 300 * time.Millisecond

// Watcher monitors a scripts directory for changes made by other processes,
// e.g. an MCP client saving a script.
type Watcher struct {
	dir      string
	onChange func(action, name string)
	debounce time.Duration
	log      zerolog.Logger

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	done    chan struct{}
}

type WatcherOption func(*Watcher)

func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

func WithWatcherLogger(l zerolog.Logger) WatcherOption {
	return func(w *Watcher) { w.log = l.With().Str("module", "script_watcher").Logger() }
}

// NewWatcher returns a watcher calling onChange with the action and script
// file name (without extension) once changes to a file settle.
func NewWatcher(dir string, onChange func(action, name string), opts ...WatcherOption) *Watcher {
	w := &Watcher{
		dir:      dir,
		onChange: onChange,
		debounce: DefaultDebounce,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching. The directory is created if missing.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watcher != nil {
		return nil
	}
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(w.dir); err != nil {
		watcher.Close()
		return err
	}
	w.watcher = watcher
	w.stopCh = make(chan struct{})
	w.done = make(chan struct{})

	w.log.Info().Str("path", w.dir).Msg("Started watching scripts directory")
	go w.watch(watcher, w.stopCh, w.done)
	return nil
}

// Stop stops watching and waits for the watch loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.watcher == nil {
		w.mu.Unlock()
		return
	}
	close(w.stopCh)
	w.watcher.Close()
	w.watcher = nil
	done := w.done
	w.mu.Unlock()

	<-done
	w.log.Info().Msg("Stopped watching scripts directory")
}

func (w *Watcher) watch(watcher *fsnotify.Watcher, stopCh, done chan struct{}) {
	defer close(done)

	// One timer per file so a burst on one script does not swallow another.
	timers := make(map[string]*time.Timer)
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	for {
		select {
		case <-stopCh:
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !strings.HasSuffix(event.Name, Ext) {
				continue
			}
			name := strings.TrimSuffix(filepath.Base(event.Name), Ext)

			var action string
			switch {
			case event.Op&fsnotify.Create == fsnotify.Create:
				action = ActionCreate
			case event.Op&fsnotify.Write == fsnotify.Write:
				action = ActionSave
			case event.Op&fsnotify.Remove == fsnotify.Remove:
				action = ActionDelete
			case event.Op&fsnotify.Rename == fsnotify.Rename:
				action = ActionDelete
			}
			if action == "" {
				continue
			}

			if t, ok := timers[name]; ok {
				t.Stop()
			}
			timers[name] = time.AfterFunc(w.debounce, func() {
				select {
				case <-stopCh:
					return
				default:
				}
				w.log.Debug().Str("action", action).Str("script", name).Msg("script changed")
				w.onChange(action, name)
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.log.Error().Err(err).Msg("Watcher error")
		}
	}
}
