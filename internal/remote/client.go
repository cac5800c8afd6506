// Package remote talks to the external collection API that owns users and
// records.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrNetworkFailure covers transport errors and any status >= 300.
var ErrNetworkFailure = errors.New("remote: network failure")

// DefaultSubject signs requests made outside an admin session.
const DefaultSubject = "challan-admin"

// Recorder receives per-call timings.
type Recorder interface {
	ObserveRemote(op, outcome string, elapsed time.Duration)
}

// Config configures a Client.
type Config struct {
	BaseURL     string
	TokenSecret string
	TokenTTL    time.Duration
	HTTPClient  *http.Client
	Recorder    Recorder
	Logger      *slog.Logger
}

// Client issues signed JSON requests against the remote API.
type Client struct {
	baseURL  string
	secret   []byte
	tokenTTL time.Duration
	http     *http.Client
	recorder Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewClient constructs a Client.
func NewClient(cfg Config) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		secret:   []byte(cfg.TokenSecret),
		tokenTTL: cfg.TokenTTL,
		http:     cfg.HTTPClient,
		recorder: cfg.Recorder,
		logger:   cfg.Logger,
		now:      time.Now,
	}
	if c.http == nil {
		c.http = http.DefaultClient
	}
	if c.tokenTTL <= 0 {
		c.tokenTTL = 5 * time.Minute
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	return c
}

type subjectKey struct{}

// WithSubject sets the admin identity that signs requests made with ctx.
func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, subjectKey{}, subject)
}

func subjectFrom(ctx context.Context) string {
	if s, ok := ctx.Value(subjectKey{}).(string); ok && s != "" {
		return s
	}
	return DefaultSubject
}

func (c *Client) token(subject string) (string, error) {
	now := c.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    "challan-admin",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.tokenTTL)),
		ID:        uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// do sends one request. A nil body sends no payload; a nil out discards the
// response body.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) (err error) {
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		if c.recorder != nil {
			c.recorder.ObserveRemote(op, outcome, time.Since(start))
		}
	}()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("remote: encode %s: %w", op, err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("remote: build %s: %w", op, err)
	}
	token, err := c.token(subjectFrom(ctx))
	if err != nil {
		return fmt.Errorf("remote: sign %s: %w", op, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrNetworkFailure, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("remote request failed",
			slog.String("op", op),
			slog.String("request_id", requestID),
			slog.Int("status", resp.StatusCode))
		return &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s response: %v", ErrNetworkFailure, op, err)
	}
	return nil
}

// StatusError is a non-2xx answer from the remote API.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("remote: status %d", e.Status)
	}
	return fmt.Sprintf("remote: status %d: %s", e.Status, e.Body)
}

// Unwrap lets errors.Is match ErrNetworkFailure.
func (e *StatusError) Unwrap() error {
	return ErrNetworkFailure
}
