package ask

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// HTTPClient talks to the translation service over HTTP.
type HTTPClient struct {
	base        string
	target      string
	statusCheck bool
	client      *http.Client
}

var _ Client = (*HTTPClient)(nil)

// Endpoint returns the configured base address.
func (c *HTTPClient) Endpoint() string {
	return c.base
}

// Ask posts the question and decodes the answer.
func (c *HTTPClient) Ask(ctx context.Context, question string) (Response, error) {
	buf, err := json.Marshal(Request{Message: question})
	if err != nil {
		return Response{}, fmt.Errorf("marshal ask request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.target, bytes.NewReader(buf))
	if err != nil {
		return Response{}, fmt.Errorf("build ask request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if id := RequestIDFromContext(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("send ask request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Response{}, fmt.Errorf("read ask response: %w", err)
	}

	env, decodeErr := decodeEnvelope(body)
	if c.statusCheck && (resp.StatusCode < 200 || resp.StatusCode > 299) {
		svcErr := &ServiceError{StatusCode: resp.StatusCode}
		if decodeErr == nil {
			svcErr.Message = env.errorMessage("error", "detail", "answer")
		}
		return Response{}, svcErr
	}
	if decodeErr != nil {
		return Response{}, fmt.Errorf("decode ask response: %w", decodeErr)
	}
	if c.statusCheck && !env.has("answer") {
		if msg := env.errorMessage("error", "detail"); msg != "" {
			return Response{}, &ServiceError{StatusCode: resp.StatusCode, Message: msg}
		}
	}

	parsed, err := env.response()
	if err != nil {
		return Response{}, fmt.Errorf("decode ask response: %w", err)
	}
	parsed.Status = resp.StatusCode
	return parsed, nil
}
