package composer

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	verrors "github.com/textvault/textvault/internal/errors"
	"github.com/textvault/textvault/internal/logging"
)

// Receipt is what a sink returns for an accepted payload.
type Receipt struct {
	Hash string `json:"hash,omitempty" yaml:"hash,omitempty"`
	URL  string `json:"url,omitempty" yaml:"url,omitempty"`
}

// Sink is the external persistence boundary. Implementations report
// refusals with a rejected VaultError and transport trouble with a network
// VaultError; any other error counts as a failure.
type Sink interface {
	Deliver(ctx context.Context, p Payload) (Receipt, error)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, p Payload) (Receipt, error)

func (f SinkFunc) Deliver(ctx context.Context, p Payload) (Receipt, error) {
	return f(ctx, p)
}

// Status is the kind of submission outcome.
type Status string

const (
	StatusDelivered Status = "delivered"
	StatusInvalid   Status = "invalid"
	StatusRejected  Status = "rejected"
	StatusFailed    Status = "failed"
)

// Outcome is the result of Submit.
type Outcome struct {
	Status  Status
	Payload Payload
	Receipt Receipt
	// Reasons lists validation problems for StatusInvalid and the backend's
	// message for StatusRejected.
	Reasons []string
	Err     error
}

// OK reports whether the payload reached the sink and was accepted.
func (o Outcome) OK() bool {
	return o.Status == StatusDelivered
}

// Submit builds the payload, applies the validation policy if one is set,
// and hands the payload to the sink. The draft is left untouched.
func (c *Composer) Submit(ctx context.Context) Outcome {
	payload := c.Build()

	if c.Closed() {
		return Outcome{
			Status:  StatusFailed,
			Payload: payload,
			Err:     verrors.NewInternalError(verrors.ErrCodeSessionClosed, "composer is closed", nil),
		}
	}

	if c.validator != nil {
		if verdict := c.validator(payload.Draft()); !verdict.Valid() {
			return Outcome{Status: StatusInvalid, Payload: payload, Reasons: verdict.Reasons()}
		}
	}

	if c.sink == nil {
		return Outcome{
			Status:  StatusFailed,
			Payload: payload,
			Err:     verrors.NewConfigError(verrors.ErrCodeConfigInvalid, "no submission sink configured"),
		}
	}

	op := logging.StartOperation(c.logger, "submit")
	receipt, err := c.sink.Deliver(ctx, payload)
	if err != nil {
		op.EndWithError(ctx, err, "language", payload.Language.String())
		return outcomeForError(payload, err)
	}
	op.End(ctx, "language", payload.Language.String(), "hash", receipt.Hash)

	return Outcome{Status: StatusDelivered, Payload: payload, Receipt: receipt}
}

func outcomeForError(payload Payload, err error) Outcome {
	switch {
	case verrors.IsRejected(err):
		var ve *verrors.VaultError
		reasons := []string{err.Error()}
		if errors.As(err, &ve) {
			reasons = []string{ve.Message}
		}
		return Outcome{Status: StatusRejected, Payload: payload, Reasons: reasons, Err: err}
	case verrors.IsValidation(err):
		return Outcome{Status: StatusInvalid, Payload: payload, Reasons: []string{err.Error()}, Err: err}
	default:
		return Outcome{Status: StatusFailed, Payload: payload, Err: err}
	}
}

// Collector is a Sink that keeps every payload it receives.
type Collector struct {
	mu       sync.Mutex
	payloads []Payload
}

func (c *Collector) Deliver(_ context.Context, p Payload) (Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.payloads = append(c.payloads, p)
	return Receipt{}, nil
}

// Payloads returns a copy of the received payloads, oldest first.
func (c *Collector) Payloads() []Payload {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Payload(nil), c.payloads...)
}

// LogSink logs the generated payload instead of storing it. It stands in for
// the persistence service when none is configured.
type LogSink struct {
	Logger logging.Logger
}

func (s LogSink) Deliver(ctx context.Context, p Payload) (Receipt, error) {
	preview := p
	preview.Content = logging.SanitizeForLog(p.Content)
	b, err := json.MarshalIndent(preview, "", "  ")
	if err != nil {
		return Receipt{}, verrors.NewInternalError(verrors.ErrCodeInternalError, "encode payload", err)
	}
	s.Logger.Info(ctx, "Generated payload", "payload", string(b), "content_bytes", len(p.Content))
	return Receipt{}, nil
}

var (
	_ Sink = SinkFunc(nil)
	_ Sink = (*Collector)(nil)
	_ Sink = LogSink{}
)
