// Package backend is the HTTP client for the facility management REST API.
// Every response is decoded into an explicit schema; a body that does not
// match fails with apperr.CodeParse instead of being defaulted.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sfms-dev/facility_bot/internal/apperr"
)

const (
	csrfCookie     = "csrftoken"
	maxBodyBytes   = 1 << 20
	defaultTimeout = 10 * time.Second
)

// Client talks to one backend instance with a cookie session.
type Client struct {
	base       *url.URL
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient builds a client with its own cookie jar. A zero timeout uses 10s.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("backend url %q must be absolute", baseURL)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		base:       u,
		httpClient: &http.Client{Jar: jar, Timeout: timeout},
		logger:     logger,
	}, nil
}

// csrfToken returns the csrftoken cookie currently held for the backend.
func (c *Client) csrfToken() string {
	for _, ck := range c.httpClient.Jar.Cookies(c.base) {
		if ck.Name == csrfCookie {
			return ck.Value
		}
	}
	return ""
}

// PrimeCSRF asks the backend to set the csrftoken cookie.
func (c *Client) PrimeCSRF(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/auth/csrf/", nil, nil, "", nil)
}

type envelope struct {
	OK      *bool  `json:"ok"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (e envelope) text() string {
	if e.Error != "" {
		return e.Error
	}
	return e.Message
}

func (e envelope) structured() bool {
	return e.OK != nil || e.Error != "" || e.Message != ""
}

// validator is implemented by response schemas with required fields.
type validator interface {
	validate() error
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(raw)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, query, body, contentType, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, out any) error {
	mutating := method != http.MethodGet && method != http.MethodHead
	if mutating && c.csrfToken() == "" && path != "/auth/csrf/" {
		if err := c.PrimeCSRF(ctx); err != nil {
			return err
		}
	}

	u := c.base.JoinPath(path)
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if mutating {
		req.Header.Set("X-Requested-With", "XMLHttpRequest")
		if tok := c.csrfToken(); tok != "" {
			req.Header.Set("X-CSRFToken", tok)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("backend request failed",
			zap.String("method", method), zap.String("path", path), zap.String("request_id", reqID), zap.Error(err))
		return apperr.Wrap(apperr.CodeNetwork, "backend unreachable", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return apperr.Wrap(apperr.CodeNetwork, "read backend response", err)
	}
	c.logger.Debug("backend request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.String("request_id", reqID),
		zap.Duration("elapsed", time.Since(start)),
	)

	var env envelope
	hasEnvelope := len(bytes.TrimSpace(raw)) > 0 && json.Unmarshal(raw, &env) == nil

	if resp.StatusCode == http.StatusUnauthorized {
		return apperr.New(apperr.CodeAuthRequired, "backend session expired")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if !hasEnvelope || !env.structured() {
			return apperr.WithMetadata(apperr.CodeNetwork, fmt.Sprintf("backend returned HTTP %d", resp.StatusCode),
				map[string]string{"status": fmt.Sprint(resp.StatusCode)})
		}
		return statusError(resp.StatusCode, env.text())
	}
	if hasEnvelope && env.OK != nil && !*env.OK {
		return rejected(env.text())
	}
	if out == nil {
		return nil
	}
	if !hasEnvelope {
		return apperr.New(apperr.CodeParse, fmt.Sprintf("%s %s: response is not a JSON object", method, path))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperr.Wrap(apperr.CodeParse, fmt.Sprintf("%s %s: unexpected response shape", method, path), err)
	}
	if v, ok := out.(validator); ok {
		if err := v.validate(); err != nil {
			return apperr.Wrap(apperr.CodeParse, fmt.Sprintf("%s %s: invalid response", method, path), err)
		}
	}
	return nil
}

func statusError(status int, msg string) error {
	if msg == "" {
		msg = http.StatusText(status)
	}
	md := map[string]string{"status": fmt.Sprint(status)}
	switch status {
	case http.StatusForbidden:
		return apperr.WithMetadata(apperr.CodeAccessDenied, msg, md)
	case http.StatusNotFound:
		return apperr.WithMetadata(apperr.CodeNotFound, msg, md)
	case http.StatusConflict:
		return apperr.WithMetadata(apperr.CodeDuplicateEntry, msg, md)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return apperr.WithMetadata(classify(msg, apperr.CodeValidation), msg, md)
	default:
		return apperr.WithMetadata(apperr.CodeNetwork, msg, md)
	}
}

func rejected(msg string) error {
	if msg == "" {
		msg = "request rejected by backend"
	}
	return apperr.New(classify(msg, apperr.CodeRejected), msg)
}

// classify narrows a backend message to a quantity or idempotency code when
// the wording makes it unambiguous.
func classify(msg string, fallback apperr.Code) apperr.Code {
	m := strings.ToLower(msg)
	switch {
	case strings.Contains(m, "duplicate"), strings.Contains(m, "already"):
		return apperr.CodeDuplicateEntry
	case strings.Contains(m, "insufficient"), strings.Contains(m, "not enough"), strings.Contains(m, "out of stock"):
		return apperr.CodeInsufficientStock
	case strings.Contains(m, "exceeds pending"), strings.Contains(m, "over return"):
		return apperr.CodeOverReturn
	default:
		return fallback
	}
}

var errMissing = errors.New("missing required field")

func missing(field string) error { return fmt.Errorf("%w %q", errMissing, field) }
