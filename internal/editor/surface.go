// Package editor defines the boundary to the external text-editing surface
// and provides the adapters the composer is driven through.
//
// The surface itself (rendering, tokenisation, highlighting) is opaque. All
// the composer relies on is:
//
//   - it can be configured with a language tag and an editor theme,
//   - it accepts an initial text value,
//   - it reports the whole buffer on every edit,
//   - it may report that it has finished initialising.
//
// Adapters:
//
//   - Buffer: in-process surface, used for one-shot submissions and tests
//   - Remote: a Buffer that mirrors configuration to a browser editor
//   - FileSurface: a file on disk edited by any external editor, watched
//     with fsnotify
package editor

import (
	"sync"

	"github.com/textvault/textvault/internal/language"
)

// Settings is the configuration pushed to a surface.
type Settings struct {
	Language language.Tag
	Theme    string
}

// Surface is the external editor capability.
type Surface interface {
	Configure(s Settings)
	SetValue(text string)
	// OnChange registers the handler for whole-buffer change notifications.
	// A later call replaces the previous handler; nil detaches it.
	OnChange(fn func(text string))
	// OnReady registers the handler for the surface's own readiness signal.
	OnReady(fn func())
}

// Buffer is an in-process Surface. Edit plays the role of a user edit.
type Buffer struct {
	mu       sync.Mutex
	settings Settings
	text     string
	ready    bool
	onChange func(string)
	onReady  func()
}

// NewBuffer returns an empty buffer surface.
func NewBuffer() *Buffer {
	return &Buffer{}
}

func (b *Buffer) Configure(s Settings) {
	b.mu.Lock()
	b.settings = s
	b.mu.Unlock()
}

func (b *Buffer) SetValue(text string) {
	b.mu.Lock()
	b.text = text
	b.mu.Unlock()
}

func (b *Buffer) OnChange(fn func(string)) {
	b.mu.Lock()
	b.onChange = fn
	b.mu.Unlock()
}

func (b *Buffer) OnReady(fn func()) {
	b.mu.Lock()
	b.onReady = fn
	b.mu.Unlock()
}

// Edit replaces the buffer text and emits a change notification carrying
// the full new text.
func (b *Buffer) Edit(text string) {
	b.mu.Lock()
	b.text = text
	fn := b.onChange
	b.mu.Unlock()

	if fn != nil {
		fn(text)
	}
}

// MarkReady emits the readiness signal once.
func (b *Buffer) MarkReady() {
	b.mu.Lock()
	if b.ready {
		b.mu.Unlock()
		return
	}
	b.ready = true
	fn := b.onReady
	b.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Settings returns the last configuration pushed to the buffer.
func (b *Buffer) Settings() Settings {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.settings
}

// Text returns the current buffer text.
func (b *Buffer) Text() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.text
}

var _ Surface = (*Buffer)(nil)
