package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/a-h/templ"

	"github.com/textvault/textvault/internal/composer"
	"github.com/textvault/textvault/internal/editor"
	verrors "github.com/textvault/textvault/internal/errors"
	"github.com/textvault/textvault/internal/language"
	"github.com/textvault/textvault/internal/session"
	"github.com/textvault/textvault/internal/theme"
	"github.com/textvault/textvault/internal/version"
)

// createPasteRequest is the body of POST /api/pastes.
type createPasteRequest struct {
	Title    string `json:"title"`
	Language string `json:"language"`
	Content  string `json:"content"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	mode := s.configuredTheme()
	if q := r.URL.Query().Get("theme"); q != "" {
		if m, err := theme.ParseMode(q); err == nil {
			mode = m
		}
	}

	data := PageData{
		Languages:     language.All(),
		Selected:      language.Default,
		Theme:         mode,
		SettleDelayMs: s.config.Editor.SettleDelay.Milliseconds(),
	}

	templ.Handler(ComposerPage(data),
		templ.WithErrorHandler(func(r *http.Request, err error) http.Handler {
			s.logger.Error(r.Context(), err, "Failed to render composer page")
			return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "Failed to render page", http.StatusInternalServerError)
			})
		}),
	).ServeHTTP(w, r)
}

func (s *Server) handleLanguages(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, language.All())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	vault := "log"
	if s.config.Vault.BaseURL != "" {
		vault = "remote"
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   version.GetShortVersion(),
		"sessions":  s.sessions.Len(),
		"vault":     vault,
	})
}

// handleCreatePaste runs one submission through a transient composer so the
// API and the page share the same payload rules.
func (s *Server) handleCreatePaste(w http.ResponseWriter, r *http.Request) {
	if s.isShutdown.Load() {
		writeJSONResponse(w, http.StatusServiceUnavailable, map[string]string{"error": "server is shutting down"})
		return
	}

	var req createPasteRequest
	body := http.MaxBytesReader(w, r.Body, s.config.Server.ReadLimit)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSONResponse(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "request body too large"})
			return
		}
		if errors.Is(err, io.EOF) {
			writeJSONResponse(w, http.StatusBadRequest, map[string]string{"error": "empty request body"})
			return
		}
		writeJSONResponse(w, http.StatusBadRequest, map[string]string{"error": "malformed request body"})
		return
	}

	tag := language.Default
	if req.Language != "" {
		parsed, err := language.Parse(req.Language)
		if err != nil {
			writeJSONResponse(w, http.StatusBadRequest, map[string]interface{}{
				"error":     err.Error(),
				"languages": language.Values(),
			})
			return
		}
		tag = parsed
	}

	outcome := s.submitOnce(r.Context(), req.Title, tag, req.Content)
	if outcome.Err != nil && outcome.Status != composer.StatusInvalid {
		s.errHandler.Handle(r.Context(), outcome.Err)
	}

	writeJSONResponse(w, statusForOutcome(outcome), session.OutcomeMessage(outcome))
}

func (s *Server) submitOnce(ctx context.Context, title string, tag language.Tag, content string) composer.Outcome {
	buffer := editor.NewBuffer()

	var validator func(composer.Draft) composer.Verdict
	if s.config.Submit.Validate {
		validator = composer.Validate
	}

	c := composer.New(composer.Options{
		Surface:   buffer,
		Theme:     theme.Fixed(s.configuredTheme()),
		Sink:      s.sink,
		Validator: validator,
		Logger:    s.logger,
	})
	defer c.Close()

	c.SetTitle(title)
	c.SetLanguage(tag)
	buffer.Edit(content)

	return c.Submit(ctx)
}

func statusForOutcome(o composer.Outcome) int {
	switch o.Status {
	case composer.StatusDelivered:
		return http.StatusCreated
	case composer.StatusInvalid:
		return http.StatusUnprocessableEntity
	case composer.StatusRejected:
		return http.StatusBadGateway
	}

	switch verrors.TypeOf(o.Err) {
	case verrors.ErrorTypeNetwork:
		return http.StatusBadGateway
	case verrors.ErrorTypeConfig:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) configuredTheme() theme.Mode {
	mode, err := theme.ParseMode(s.config.Editor.Theme)
	if err != nil {
		return theme.Light
	}
	return mode
}

func writeJSONResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode JSON response", http.StatusInternalServerError)
	}
}
