// Package vault is the HTTP sink that hands composed pastes to the TextVault
// backend.
package vault

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/textvault/textvault/internal/composer"
	verrors "github.com/textvault/textvault/internal/errors"
	"github.com/textvault/textvault/internal/logging"
)

// DefaultTimeout bounds a single delivery.
const DefaultTimeout = 10 * time.Second

const maxResponseBytes = 1 << 20

// Client delivers payloads to POST {BaseURL}/pastes/.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
	logger  logging.Logger
}

// Options configures a Client.
type Options struct {
	BaseURL string
	// Token is sent as a bearer token when set. The backend attributes the
	// paste to the token's user; without it the paste is anonymous.
	Token   string
	Timeout time.Duration
	Logger  logging.Logger
	// HTTPClient overrides the default client. Timeout is ignored when set.
	HTTPClient *http.Client
}

type response struct {
	Hash  string `json:"hash"`
	Error string `json:"error"`
}

// NewClient validates the base URL and returns a client.
func NewClient(opts Options) (*Client, error) {
	u, err := url.Parse(opts.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, verrors.NewConfigError(verrors.ErrCodeConfigInvalid,
			fmt.Sprintf("vault base URL %q must be an absolute http(s) URL", opts.BaseURL))
	}

	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		token:   opts.Token,
		client:  hc,
		logger:  logger.WithComponent("vault"),
	}, nil
}

// BaseURL returns the normalised backend address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Deliver posts the payload. A 2xx reply carrying a hash becomes a Receipt;
// any other reply is a rejected error carrying the backend's message and
// status. Transport and decoding failures are network errors.
func (c *Client) Deliver(ctx context.Context, p composer.Payload) (composer.Receipt, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return composer.Receipt{}, verrors.NewInternalError(verrors.ErrCodeInternalError, "encoding payload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/pastes/", bytes.NewReader(body))
	if err != nil {
		return composer.Receipt{}, verrors.NewInternalError(verrors.ErrCodeInternalError, "creating request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return composer.Receipt{}, verrors.NewNetworkError(verrors.ErrCodeTransport, "sending paste", err).
			WithComponent("vault")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return composer.Receipt{}, verrors.NewNetworkError(verrors.ErrCodeTransport, "reading response", err).
			WithComponent("vault")
	}

	var r response
	decodeErr := json.Unmarshal(raw, &r)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := r.Error
		if decodeErr != nil || msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		c.logger.Warn(ctx, nil, "Paste rejected", "status", resp.StatusCode, "message", msg)
		return composer.Receipt{}, verrors.NewRejectedError(verrors.ErrCodePasteRejected, msg, resp.StatusCode).
			WithComponent("vault")
	}

	if decodeErr != nil || r.Hash == "" {
		return composer.Receipt{}, verrors.NewNetworkError(verrors.ErrCodeBadResponse,
			"response carries no paste hash", decodeErr).
			WithComponent("vault").
			WithContext("status", resp.StatusCode)
	}

	c.logger.Info(ctx, "Paste stored", "hash", r.Hash, "title", logging.SanitizeForLog(p.Title))

	return composer.Receipt{
		Hash: r.Hash,
		URL:  c.baseURL + "/pastes/" + url.PathEscape(r.Hash),
	}, nil
}

var _ composer.Sink = (*Client)(nil)
