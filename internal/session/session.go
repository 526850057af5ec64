// Package session binds one browser page to one composer. Each session owns
// the composer, the remote editor surface that mirrors it to the page, the
// page's theme signal and the throttles for inbound traffic.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/textvault/textvault/internal/composer"
	"github.com/textvault/textvault/internal/editor"
	verrors "github.com/textvault/textvault/internal/errors"
	"github.com/textvault/textvault/internal/logging"
	"github.com/textvault/textvault/internal/theme"
)

// Config is the per-session policy shared by every session of a Manager.
type Config struct {
	SettleDelay time.Duration
	ReadySignal bool
	Theme       theme.Mode
	Validate    bool

	// EventRate and EventBurst throttle inbound messages that carry no form
	// state. Title, content, language and theme edits are always applied.
	EventRate  float64
	EventBurst int
	// SubmitRate and SubmitBurst throttle submissions.
	SubmitRate  float64
	SubmitBurst int

	// Outbound is the size of each session's outbound queue.
	Outbound int

	// Clock drives the readiness gate; nil means the wall clock.
	Clock composer.Clock
}

// DefaultConfig returns the policy used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		SettleDelay: composer.DefaultSettleDelay,
		Theme:       theme.Light,
		EventRate:   50,
		EventBurst:  100,
		SubmitRate:  1,
		SubmitBurst: 3,
		Outbound:    256,
	}
}

// Session is one mounted composer.
type Session struct {
	id       string
	composer *composer.Composer
	remote   *editor.Remote
	theme    *theme.Signal
	events   *rate.Limiter
	submits  *rate.Limiter
	logger   logging.Logger

	out       chan any
	done      chan struct{}
	closeOnce sync.Once
	dropped   atomic.Int64
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Composer returns the session's composer.
func (s *Session) Composer() *composer.Composer {
	return s.composer
}

// Theme returns the session's theme signal.
func (s *Session) Theme() *theme.Signal {
	return s.theme
}

// Outbound carries messages for the page. It is never closed; watch Done.
func (s *Session) Outbound() <-chan any {
	return s.out
}

// Done is closed when the session is closed.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Dropped counts outbound messages discarded because the queue was full.
func (s *Session) Dropped() int64 {
	return s.dropped.Load()
}

// HandleRaw decodes and handles one inbound frame.
func (s *Session) HandleRaw(ctx context.Context, data []byte) error {
	var msg Inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		s.push(errorMessage("malformed message"))
		return nil
	}
	return s.Handle(ctx, msg)
}

// carriesState reports whether an inbound event edits the draft or the theme.
// Such events are never throttled: the draft must match the last one sent.
func carriesState(t string) bool {
	switch t {
	case InTitle, InContent, InLanguage, InTheme:
		return true
	}
	return false
}

// Handle applies one inbound event. Refused events are reported to the page
// as error messages; the returned error is only set when the session is
// closed and the connection should be dropped.
func (s *Session) Handle(ctx context.Context, msg Inbound) error {
	select {
	case <-s.done:
		return verrors.NewInternalError(verrors.ErrCodeSessionClosed, "session closed", nil)
	default:
	}

	if !carriesState(msg.Type) && msg.Type != InSubmit && !s.events.Allow() {
		s.push(errorMessage("too many messages"))
		return nil
	}

	switch msg.Type {
	case InTitle:
		v, err := msg.StringValue()
		if err != nil {
			s.push(errorMessage("title must be a string"))
			return nil
		}
		s.composer.SetTitle(v)

	case InContent:
		v, err := msg.StringValue()
		if err != nil {
			s.push(errorMessage("content must be a string"))
			return nil
		}
		s.remote.Edit(v)

	case InLanguage:
		v, err := msg.StringValue()
		if err != nil {
			s.push(errorMessage("language must be a string"))
			return nil
		}
		if err := s.composer.SelectLanguage(v); err != nil {
			s.logger.Debug(ctx, "Language refused", "value", logging.SanitizeForLog(v))
			s.push(errorMessage(fmt.Sprintf("unknown language %q", v)))
		}

	case InTheme:
		v, err := msg.StringValue()
		if err != nil {
			s.push(errorMessage("theme must be a string"))
			return nil
		}
		mode, err := theme.ParseMode(v)
		if err != nil {
			s.push(errorMessage(err.Error()))
			return nil
		}
		s.theme.Set(mode)

	case InReady:
		s.remote.MarkReady()

	case InSubmit:
		if !s.submits.Allow() {
			s.push(OutcomeMessage(composer.Outcome{
				Status: composer.StatusFailed,
				Err:    verrors.NewValidationError(verrors.ErrCodeThrottled, "submitting too fast"),
			}))
			return nil
		}
		s.push(OutcomeMessage(s.composer.Submit(ctx)))

	default:
		s.push(errorMessage(fmt.Sprintf("unknown message type %q", msg.Type)))
	}

	return nil
}

// Close tears the composer down and releases the session. It is idempotent.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.composer.Close()
	})
}

// push queues a message without blocking. It may run under the composer's
// lock, so a full queue drops the message instead of waiting.
func (s *Session) push(msg any) {
	select {
	case <-s.done:
		return
	default:
	}

	select {
	case s.out <- msg:
	default:
		s.dropped.Add(1)
		s.logger.Warn(context.Background(), nil, "Outbound queue full, dropping message", "session", s.id)
	}
}
