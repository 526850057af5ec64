package editor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/textvault/textvault/internal/logging"
)

// DefaultDebounce groups the burst of events an editor produces on save.
const DefaultDebounce = 100 * time.Millisecond

// FileSurface is a Surface backed by a file on disk. Any external editor
// can be used to edit it; every settled save is reported as a whole-buffer
// change. The directory is watched rather than the file so that editors
// that save by rename keep being observed.
type FileSurface struct {
	path    string
	delay   time.Duration
	watcher *fsnotify.Watcher
	logger  logging.Logger

	mu       sync.Mutex
	settings Settings
	last     string
	ready    bool
	closed   bool
	timer    *time.Timer
	onChange func(string)
	onReady  func()
}

// NewFileSurface prepares a surface for path. Nothing is watched until Start.
func NewFileSurface(path string, debounce time.Duration, logger logging.Logger) (*FileSurface, error) {
	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = logging.Nop()
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	return &FileSurface{
		path:    abs,
		delay:   debounce,
		watcher: w,
		logger:  logger.WithComponent("file_surface"),
	}, nil
}

// Path returns the absolute path of the backing file.
func (f *FileSurface) Path() string {
	return f.path
}

// Configure records the settings. A file has no syntax highlighting, so the
// settings are only logged and kept for inspection.
func (f *FileSurface) Configure(s Settings) {
	f.mu.Lock()
	f.settings = s
	f.mu.Unlock()

	f.logger.Debug(context.Background(), "Editor configured",
		"language", s.Language.String(), "theme", s.Theme)
}

// Settings returns the last configuration.
func (f *FileSurface) Settings() Settings {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settings
}

// SetValue seeds the file with text if it does not exist yet. An existing
// file is never overwritten; its content is reported on Start instead.
func (f *FileSurface) SetValue(text string) {
	if _, err := os.Stat(f.path); err == nil {
		return
	}
	if err := os.WriteFile(f.path, []byte(text), 0o600); err != nil {
		f.logger.Warn(context.Background(), err, "Failed to seed editor file", "path", f.path)
		return
	}

	f.mu.Lock()
	f.last = text
	f.mu.Unlock()
}

func (f *FileSurface) OnChange(fn func(string)) {
	f.mu.Lock()
	f.onChange = fn
	f.mu.Unlock()
}

func (f *FileSurface) OnReady(fn func()) {
	f.mu.Lock()
	f.onReady = fn
	f.mu.Unlock()
}

// Ready reports whether Start has completed its initial read.
func (f *FileSurface) Ready() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ready
}

// Load reads the current file content. A missing file reads as empty.
func (f *FileSurface) Load() (string, error) {
	b, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", f.path, err)
	}
	return string(b), nil
}

// Start watches the file's directory, reports the current content and then
// signals readiness. It returns once the watch is established; events are
// processed until ctx is done or Close is called.
func (f *FileSurface) Start(ctx context.Context) error {
	if err := f.watcher.Add(filepath.Dir(f.path)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(f.path), err)
	}

	go f.watchLoop(ctx)

	f.reload()

	f.mu.Lock()
	f.ready = true
	fn := f.onReady
	f.mu.Unlock()
	if fn != nil {
		fn()
	}

	return nil
}

// Close stops watching. Pending debounced reloads are dropped.
func (f *FileSurface) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	if f.timer != nil {
		f.timer.Stop()
	}
	f.mu.Unlock()

	return f.watcher.Close()
}

func (f *FileSurface) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-f.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != f.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				f.schedule()
			}
		case err, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
			f.logger.Warn(ctx, err, "File watcher error", "path", f.path)
		}
	}
}

func (f *FileSurface) schedule() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}
	if f.timer != nil {
		f.timer.Stop()
	}
	f.timer = time.AfterFunc(f.delay, f.reload)
}

// reload reads the file and emits a change when the content differs from
// what was last seen. A vanished file keeps the last content.
func (f *FileSurface) reload() {
	b, err := os.ReadFile(f.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			f.logger.Warn(context.Background(), err, "Failed to read editor file", "path", f.path)
		}
		return
	}
	text := string(b)

	f.mu.Lock()
	if f.closed || text == f.last {
		f.mu.Unlock()
		return
	}
	f.last = text
	fn := f.onChange
	f.mu.Unlock()

	if fn != nil {
		fn(text)
	}
}

var _ Surface = (*FileSurface)(nil)
