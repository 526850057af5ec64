// Package theme carries the ambient light/dark signal that the composer
// reads and forwards to the editor surface.
package theme

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	xlanguage "golang.org/x/text/language"
)

// Mode is a light or dark presentation.
type Mode int

const (
	Light Mode = iota
	Dark
)

// Editor theme identifiers understood by the browser editor.
const (
	EditorLight = "vs-light"
	EditorDark  = "vs-dark"
)

// ParseMode accepts "light" or "dark", case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "light":
		return Light, nil
	case "dark":
		return Dark, nil
	default:
		return Light, fmt.Errorf("unknown theme %q (expected light or dark)", s)
	}
}

func (m Mode) String() string {
	if m == Dark {
		return "dark"
	}
	return "light"
}

// Label is the display form, e.g. "Dark".
func (m Mode) Label() string {
	return cases.Title(xlanguage.English).String(m.String())
}

// Toggle returns the opposite mode.
func (m Mode) Toggle() Mode {
	if m == Dark {
		return Light
	}
	return Dark
}

// EditorTheme maps the mode to the editor's theme identifier.
func (m Mode) EditorTheme() string {
	if m == Dark {
		return EditorDark
	}
	return EditorLight
}

// Source is the read-only view of a theme signal handed to consumers.
type Source interface {
	Current() Mode
	// Subscribe registers fn for future changes and returns a function that
	// removes the subscription.
	Subscribe(fn func(Mode)) (unsubscribe func())
}

// Signal is a mutable theme value with change notification. The owner of
// the signal (a page session, a CLI run) sets it; consumers receive it as a
// Source.
type Signal struct {
	mu   sync.Mutex
	mode Mode
	subs map[int]func(Mode)
	next int
}

// NewSignal returns a signal holding initial.
func NewSignal(initial Mode) *Signal {
	return &Signal{mode: initial, subs: make(map[int]func(Mode))}
}

// Current returns the current mode.
func (s *Signal) Current() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Set changes the mode and notifies subscribers when it differs from the
// current one. Subscribers are called without the signal's lock held.
func (s *Signal) Set(mode Mode) {
	s.mu.Lock()
	if s.mode == mode {
		s.mu.Unlock()
		return
	}
	s.mode = mode
	fns := make([]func(Mode), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(mode)
	}
}

// Subscribe implements Source.
func (s *Signal) Subscribe(fn func(Mode)) func() {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// Subscribers reports how many subscriptions are active.
func (s *Signal) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Fixed is a Source that never changes.
type Fixed Mode

func (f Fixed) Current() Mode { return Mode(f) }

func (f Fixed) Subscribe(func(Mode)) func() { return func() {} }

var (
	_ Source = (*Signal)(nil)
	_ Source = Fixed(Light)
)
