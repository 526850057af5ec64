package composer

import (
	"context"
	"sync"
	"time"

	"github.com/textvault/textvault/internal/editor"
	verrors "github.com/textvault/textvault/internal/errors"
	"github.com/textvault/textvault/internal/language"
	"github.com/textvault/textvault/internal/logging"
	"github.com/textvault/textvault/internal/theme"
)

// Options configures a Composer. Zero values pick working defaults.
type Options struct {
	// Surface is the external editor. Defaults to an in-process Buffer.
	Surface editor.Surface
	// Theme is the ambient theme input. Defaults to a fixed light theme.
	Theme theme.Source
	// Clock and SettleDelay drive the readiness gate.
	Clock       Clock
	SettleDelay time.Duration
	// ReadySignal lets the surface's own ready signal open the gate early.
	ReadySignal bool
	// Sink receives submitted payloads.
	Sink Sink
	// Validator, when set, is applied to the draft before the sink.
	Validator func(Draft) Verdict
	// OnRender is called after every state change with the new snapshot.
	// It must not call back into the composer.
	OnRender func(Snapshot)
	// Logger records submissions and refusals; nil discards them.
	Logger logging.Logger
}

// Composer is the form state holder for one mounted composer.
type Composer struct {
	mu          sync.Mutex
	draft       Draft
	editorTheme string
	ready       bool
	closed      bool

	gate        *Gate
	surface     editor.Surface
	unsubscribe func()

	sink      Sink
	validator func(Draft) Verdict
	onRender  func(Snapshot)
	logger    logging.Logger
}

// New mounts a composer: the draft starts at its defaults, the surface is
// configured and subscribed, and the readiness gate starts counting.
func New(opts Options) *Composer {
	surface := opts.Surface
	if surface == nil {
		surface = editor.NewBuffer()
	}
	source := opts.Theme
	if source == nil {
		source = theme.Fixed(theme.Light)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	c := &Composer{
		draft:       Draft{Language: language.Default},
		editorTheme: source.Current().EditorTheme(),
		surface:     surface,
		sink:        opts.Sink,
		validator:   opts.Validator,
		onRender:    opts.OnRender,
		logger:      logger.WithComponent("composer"),
	}

	surface.Configure(editor.Settings{Language: c.draft.Language, Theme: c.editorTheme})
	surface.SetValue(c.draft.Content)
	surface.OnChange(c.SetContent)

	c.gate = NewGate(opts.Clock, opts.SettleDelay, c.handleReady)
	if opts.ReadySignal {
		surface.OnReady(func() { c.gate.Signal() })
	}

	c.unsubscribe = source.Subscribe(c.handleTheme)

	return c
}

// Title returns the current title.
func (c *Composer) Title() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft.Title
}

// Language returns the current language tag.
func (c *Composer) Language() language.Tag {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft.Language
}

// Content returns the current content.
func (c *Composer) Content() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft.Content
}

// Draft returns a copy of the current draft.
func (c *Composer) Draft() Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// Ready reports whether the readiness gate has opened.
func (c *Composer) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

// Gate exposes the readiness gate, e.g. to signal readiness from outside
// the surface.
func (c *Composer) Gate() *Gate {
	return c.gate
}

// Snapshot returns the current render state.
func (c *Composer) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// SetTitle replaces the title.
func (c *Composer) SetTitle(title string) {
	c.update(func(d *Draft) { d.Title = title })
}

// SetLanguage replaces the language and reconfigures the surface.
func (c *Composer) SetLanguage(tag language.Tag) {
	c.update(func(d *Draft) { d.Language = tag })
}

// SetContent replaces the content. It is the surface's change handler.
func (c *Composer) SetContent(text string) {
	c.update(func(d *Draft) { d.Content = text })
}

// SelectLanguage routes a selector value into SetLanguage. Values outside
// the language table are refused without touching the draft.
func (c *Composer) SelectLanguage(value string) error {
	tag, err := language.Parse(value)
	if err != nil {
		return verrors.NewValidationError(verrors.ErrCodeUnknownLanguage, err.Error()).
			WithContext("value", value)
	}
	c.SetLanguage(tag)
	return nil
}

// Build reads the draft and returns the submission payload. It has no side
// effects.
func (c *Composer) Build() Payload {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Payload{
		Title:    c.draft.Title,
		Language: c.draft.Language,
		Content:  c.draft.Content,
	}
}

// Closed reports whether the composer has been torn down.
func (c *Composer) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Close tears the composer down: the readiness timer is cancelled, the theme
// subscription and surface handlers are released, and later setters are
// ignored. Close is idempotent.
func (c *Composer) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.gate.Close()
	c.unsubscribe()
	c.surface.OnChange(nil)
	c.surface.OnReady(nil)
}

func (c *Composer) update(mutate func(*Draft)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	before := c.draft.Language
	mutate(&c.draft)
	if c.draft.Language != before {
		c.surface.Configure(editor.Settings{Language: c.draft.Language, Theme: c.editorTheme})
	}

	c.renderLocked()
}

func (c *Composer) handleReady(cause ReadyCause) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.ready = true
	c.logger.Debug(context.Background(), "Editor ready", "cause", cause.String())
	c.renderLocked()
}

func (c *Composer) handleTheme(mode theme.Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.editorTheme = mode.EditorTheme()
	c.surface.Configure(editor.Settings{Language: c.draft.Language, Theme: c.editorTheme})
	c.renderLocked()
}

func (c *Composer) snapshotLocked() Snapshot {
	return Snapshot{
		Draft:       c.draft,
		Ready:       c.ready,
		EditorTheme: c.editorTheme,
	}
}

func (c *Composer) renderLocked() {
	if c.onRender != nil {
		c.onRender(c.snapshotLocked())
	}
}
