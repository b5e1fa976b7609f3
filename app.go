package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"Lookout/pkg/finder"
	"Lookout/pkg/hierarchy"
	"Lookout/pkg/jsmatch"
	"Lookout/pkg/locator"
	"Lookout/pkg/memtk"
	"Lookout/pkg/recorder"
	"Lookout/pkg/script"
	"Lookout/pkg/settings"
	"Lookout/pkg/snapshot"
	"Lookout/pkg/widget"
)

// ErrNoWindows is returned by queries made before any dump is loaded.
var ErrNoWindows = errors.New("no windows loaded")

// App owns the toolkit holding loaded dumps and everything that queries it.
type App struct {
	version  string
	settings *settings.Service

	tk      *memtk.Toolkit
	session *hierarchy.Session
	finder  *finder.Finder

	mu      sync.Mutex
	loaded  map[string]*memtk.Node // dump path -> window
	store   *recorder.Store
	rec     *recorder.Recorder
	watcher *script.Watcher
}

// NewApp creates an App with an empty toolkit. Windows that exist before the
// first load never show up in queries.
func NewApp(version string, st *settings.Service) *App {
	tk := memtk.New(memtk.WithLogger(ModuleLogger("toolkit")))
	snapshot.RegisterAndroidKinds(tk.Kinds())

	session := hierarchy.NewSession(tk,
		hierarchy.IgnoreExisting(),
		hierarchy.WithDisposeTimeout(st.DisposeTimeout()),
		hierarchy.WithLogger(ModuleLogger("hierarchy")),
	)

	return &App{
		version:  version,
		settings: st,
		tk:       tk,
		session:  session,
		finder:   finder.New(session, tk.Kinds(), finder.WithLogger(ModuleLogger("finder"))),
		loaded:   make(map[string]*memtk.Node),
	}
}

// Shutdown stops background work and releases the toolkit.
func (a *App) Shutdown() {
	a.mu.Lock()
	rec, watcher, store := a.rec, a.watcher, a.store
	a.watcher = nil
	a.store = nil
	a.mu.Unlock()

	if rec != nil && rec.Recording() {
		if _, err := rec.Stop(context.Background()); err != nil {
			LogWarn("app").Err(err).Msg("failed to stop recording on shutdown")
		}
	}
	if watcher != nil {
		watcher.Stop()
	}
	if store != nil {
		if err := store.Close(); err != nil {
			LogWarn("app").Err(err).Msg("failed to close recording store")
		}
	}
	a.session.Close()
	a.tk.Close()
	if err := a.settings.Close(); err != nil {
		LogWarn("app").Err(err).Msg("failed to save settings")
	}
}

// GetAppVersion returns the application version
func (a *App) GetAppVersion() string {
	return a.version
}

// Context returns ctx carrying the app's finder, for locator resolution.
func (a *App) Context(ctx context.Context) context.Context {
	return finder.NewContext(ctx, a.finder)
}

// ========================================
// Dumps
// ========================================

// LoadDump parses the uiautomator XML or JSON dump at path into a new window.
// Loading the same path again disposes the window built from it before.
func (a *App) LoadDump(path, title string) (*memtk.Node, error) {
	timer := StartOperation("app", "load_dump").AddDetail("path", path)

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		timer.EndWithError(err)
		return nil, fmt.Errorf("failed to read dump: %w", err)
	}

	d, err := parseDump(abs, data)
	if err != nil {
		timer.EndWithError(err)
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(abs), err)
	}

	a.mu.Lock()
	old := a.loaded[abs]
	a.mu.Unlock()
	if old != nil {
		a.session.Dispose(context.Background(), old)
	}

	win, err := snapshot.Load(a.tk, d, title)
	if err != nil {
		timer.EndWithError(err)
		return nil, err
	}

	a.mu.Lock()
	a.loaded[abs] = win
	a.mu.Unlock()

	a.settings.AddRecentDump(abs)
	components := a.countComponents(win)
	timer.AddDetail("components", components).End()
	LogUserAction(ActionDumpLoad, map[string]interface{}{
		"path":       abs,
		"title":      win.Title(),
		"components": components,
		"replaced":   old != nil,
	})
	return win, nil
}

func parseDump(path string, data []byte) (*snapshot.Dump, error) {
	trimmed := bytes.TrimSpace(data)
	if strings.EqualFold(filepath.Ext(path), ".json") || (len(trimmed) > 0 && trimmed[0] == '{') {
		return snapshot.ParseJSON(trimmed)
	}
	return snapshot.ParseXML(string(data))
}

// Source returns the dump path a window was loaded from.
func (a *App) Source(w widget.Widget) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	for path, win := range a.loaded {
		if widget.Same(win, w) {
			return path
		}
	}
	return ""
}

func (a *App) countComponents(root widget.Widget) int {
	n := 0
	hierarchy.WalkFrom(a.session, root, func(widget.Widget) bool {
		n++
		return true
	})
	return n - 1
}

// Windows returns the visible top-level windows.
func (a *App) Windows() []widget.Widget {
	return a.session.Roots()
}

// Hierarchy returns the filtered view queries run against.
func (a *App) Hierarchy() hierarchy.Hierarchy {
	return a.session
}

// ========================================
// Lookup
// ========================================

// Find resolves a YAML locator to exactly one widget. The returned error is a
// *finder.NotFoundError or *finder.MultipleFoundError when the lookup fails.
func (a *App) Find(locatorYAML string) (widget.Widget, error) {
	l, err := locator.ParseYAML([]byte(locatorYAML))
	if err != nil {
		return nil, fmt.Errorf("invalid locator: %w", err)
	}
	if len(a.Windows()) == 0 {
		return nil, ErrNoWindows
	}

	timer := StartOperation("app", "find").AddDetail("locator", l.String())
	w, err := l.Resolve(a.Context(context.Background()))
	if err != nil {
		timer.EndWithError(err)
		return nil, err
	}
	timer.End()
	LogUserAction(ActionWidgetFind, map[string]interface{}{"locator": l.String()})
	return w, nil
}

// FindJS returns every widget for which the JavaScript expression is true.
func (a *App) FindJS(expr string) ([]widget.Widget, error) {
	m, err := jsmatch.Compile(expr, jsmatch.WithLogger(ModuleLogger("jsmatch")))
	if err != nil {
		return nil, err
	}
	return a.finder.FindAll(m), nil
}

// Infer builds the locator a script would record for w.
func (a *App) Infer(w widget.Widget) (*locator.Locator, error) {
	return locator.Infer(a.session, a.tk.Kinds(), w)
}

// ========================================
// Recording
// ========================================

func (a *App) openStore() (*recorder.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	store, err := recorder.NewStore(a.settings.DBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open recording store: %w", err)
	}
	a.store = store
	return store, nil
}

// StartRecording records user input on the loaded windows until StopRecording.
func (a *App) StartRecording(name string) (recorder.Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	store, err := a.openStore()
	if err != nil {
		return recorder.Session{}, err
	}
	if a.rec == nil {
		a.rec = recorder.New(a.session, a.tk.Kinds(),
			recorder.WithStore(store),
			recorder.WithLogger(ModuleLogger("recorder")),
		)
	}
	s, err := a.rec.Start(a.tk, name)
	if err != nil {
		return recorder.Session{}, err
	}
	LogUserAction(ActionRecordingStart, map[string]interface{}{"session": s.ID, "name": name})
	return s, nil
}

// StopRecording ends the running recording and stores it.
func (a *App) StopRecording(ctx context.Context) (recorder.Session, []recorder.Step, error) {
	a.mu.Lock()
	rec := a.rec
	a.mu.Unlock()
	if rec == nil {
		return recorder.Session{}, nil, recorder.ErrNotRecording
	}

	steps, err := rec.Stop(ctx)
	s := rec.Session()
	if err != nil {
		return s, steps, err
	}
	LogUserAction(ActionRecordingStop, map[string]interface{}{"session": s.ID, "steps": len(steps)})
	return s, steps, nil
}

// Recordings lists stored recording sessions, newest first.
func (a *App) Recordings(limit int) ([]recorder.Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	store, err := a.openStore()
	if err != nil {
		return nil, err
	}
	return store.ListSessions(limit)
}

// RecordingSteps returns the steps of a stored session.
func (a *App) RecordingSteps(id string) (*recorder.Session, []recorder.Step, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	store, err := a.openStore()
	if err != nil {
		return nil, nil, err
	}
	s, err := store.GetSession(id)
	if err != nil {
		return nil, nil, err
	}
	if s == nil {
		return nil, nil, fmt.Errorf("recording %s not found", id)
	}
	steps, err := store.LoadSteps(id)
	if err != nil {
		return nil, nil, err
	}
	return s, steps, nil
}

// ========================================
// Scripts
// ========================================

// ExportRecording saves a stored session as a script and returns its path.
func (a *App) ExportRecording(id, name string) (string, error) {
	s, steps, err := a.RecordingSteps(id)
	if err != nil {
		return "", err
	}
	if name == "" {
		name = s.Name
	}
	path, err := script.Save(a.settings.ScriptsDir(), script.FromSteps(name, steps))
	if err != nil {
		return "", err
	}
	LogUserAction(ActionScriptExport, map[string]interface{}{"session": id, "path": path})
	return path, nil
}

// Scripts lists the saved scripts.
func (a *App) Scripts() ([]script.Info, error) {
	return script.List(a.settings.ScriptsDir())
}

// Replay resolves every step of the script at path against the loaded windows.
func (a *App) Replay(ctx context.Context, path string) ([]widget.Widget, error) {
	s, err := script.Load(path)
	if err != nil {
		return nil, err
	}
	ws, err := script.Replay(ctx, a.finder, s)
	LogUserAction(ActionScriptReplay, map[string]interface{}{
		"script":   s.Name,
		"resolved": len(ws),
		"error":    err,
	})
	return ws, err
}

// WatchScripts reports changes to the scripts directory until Shutdown.
func (a *App) WatchScripts(onChange func(action, name string)) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.watcher != nil {
		return nil
	}
	w := script.NewWatcher(a.settings.ScriptsDir(), onChange, script.WithWatcherLogger(ModuleLogger("scripts")))
	if err := w.Start(); err != nil {
		return err
	}
	a.watcher = w
	return nil
}

// LocatorYAML renders l the way scripts store it.
func LocatorYAML(l *locator.Locator) string {
	out, err := yaml.Marshal(l)
	if err != nil {
		return ""
	}
	return string(out)
}
