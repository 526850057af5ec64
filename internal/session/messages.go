package session

import (
	"encoding/json"

	"github.com/textvault/textvault/internal/composer"
)

// Inbound message types, browser to server.
const (
	InTitle    = "title"
	InLanguage = "language"
	InContent  = "content"
	InReady    = "ready"
	InTheme    = "theme"
	InSubmit   = "submit"
)

// Outbound message types, server to browser. Editor commands use
// editor.CommandConfigure and editor.CommandValue.
const (
	OutState   = "state"
	OutOutcome = "outcome"
	OutError   = "error"
)

// Inbound is one event from the page.
type Inbound struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value,omitempty"`
}

// StringValue decodes Value as a JSON string. A missing value reads as "".
func (m Inbound) StringValue() (string, error) {
	if len(m.Value) == 0 {
		return "", nil
	}
	var s string
	err := json.Unmarshal(m.Value, &s)
	return s, err
}

// State is the render notification.
type State struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Language string `json:"language"`
	Ready    bool   `json:"ready"`
	Theme    string `json:"theme"`
	Length   int    `json:"length"`
}

// Outcome reports a submission result.
type Outcome struct {
	Type    string   `json:"type"`
	Status  string   `json:"status"`
	Hash    string   `json:"hash,omitempty"`
	URL     string   `json:"url,omitempty"`
	Reasons []string `json:"reasons,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// Error reports a refused message.
type Error struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func stateMessage(s composer.Snapshot) State {
	return State{
		Type:     OutState,
		Title:    s.Title,
		Language: s.Language.String(),
		Ready:    s.Ready,
		Theme:    s.EditorTheme,
		Length:   len(s.Content),
	}
}

// OutcomeMessage converts a submission outcome to its wire form.
func OutcomeMessage(o composer.Outcome) Outcome {
	m := Outcome{
		Type:    OutOutcome,
		Status:  string(o.Status),
		Hash:    o.Receipt.Hash,
		URL:     o.Receipt.URL,
		Reasons: o.Reasons,
	}
	if o.Err != nil && o.Status == composer.StatusFailed {
		m.Error = o.Err.Error()
	}
	return m
}

func errorMessage(msg string) Error {
	return Error{Type: OutError, Message: msg}
}
