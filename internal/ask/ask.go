// Package ask implements the client side of the translation service contract:
// a single POST to /ask carrying the question and a response holding the
// answer, the generated SQL, and the result rows.
package ask

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultEndpoint is the base address the service listens on in a local setup.
	DefaultEndpoint = "http://127.0.0.1:10000"
	// FallbackMessage is the answer shown for every transport or parse failure.
	FallbackMessage = "Backend error"

	askPath            = "ask"
	defaultHTTPTimeout = 60 * time.Second
	// Result sets are rendered in full, but a runaway body should not exhaust memory.
	maxBodyBytes = 32 << 20
)

// Config describes how to build a Client.
type Config struct {
	Endpoint string
	Timeout  time.Duration
	// StatusCheck routes non-2xx responses and error-only bodies to the failure
	// path. When false any parseable body counts as an answer.
	StatusCheck bool
	HTTPClient  *http.Client
}

// Client performs one round trip to the translation service.
type Client interface {
	Ask(ctx context.Context, question string) (Response, error)
	Endpoint() string
}

// Request is the wire body sent to the service.
type Request struct {
	Message string `json:"message"`
}

// Response is the decoded service answer before it is folded into a Result.
type Response struct {
	Answer    string
	SQL       string
	Rows      []Row
	DataError string
	Status    int
}

// New builds the HTTP-backed client.
func New(cfg Config) (*HTTPClient, error) {
	base := strings.TrimSpace(cfg.Endpoint)
	if base == "" {
		base = DefaultEndpoint
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint %q: %w", base, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("endpoint %q must use http or https", base)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("endpoint %q has no host", base)
	}
	return &HTTPClient{
		base:        strings.TrimRight(base, "/"),
		target:      parsed.JoinPath(askPath).String(),
		statusCheck: cfg.StatusCheck,
		client:      pickHTTPClient(cfg.HTTPClient, cfg.Timeout),
	}, nil
}

func pickHTTPClient(custom *http.Client, timeout time.Duration) *http.Client {
	if custom != nil {
		return custom
	}
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &http.Client{Timeout: timeout}
}

type requestIDKey struct{}

// WithRequestID attaches a correlation id that is sent as X-Request-ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the correlation id, if any.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
