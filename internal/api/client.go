// Package api implements the typed client for the Klicks backend REST API.
// Every response arrives in a {data, message} envelope; every authenticated
// call carries the session's bearer token.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"klicks-agent/internal/common/errors"
	commonhttp "klicks-agent/internal/common/http"
	"klicks-agent/internal/common/logger"
	"klicks-agent/internal/common/metrics"
	"klicks-agent/internal/common/observability"
	"klicks-agent/internal/models"
)

type Client struct {
	baseURL    string
	httpClient *commonhttp.Client
	logger     logger.Logger
	obs        *observability.Observability
}

// NewClient creates a backend API client. obs may be nil when metric
// recording is not wanted (tests).
func NewClient(baseURL string, timeout time.Duration, log logger.Logger, obs *observability.Observability) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: commonhttp.NewClient(timeout),
		logger:     log.WithFields(map[string]interface{}{"component": "api-client"}),
		obs:        obs,
	}
}

// envelope is the backend's uniform response shape.
type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// do executes one API call. A nil session is allowed for the public
// endpoints (login, register, public klicks). The response envelope's data
// field is unmarshalled into out when out is non-nil.
func (c *Client) do(ctx context.Context, sess *models.Session, method, path, endpoint string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.execute(req, sess, endpoint, out)
}

// execute sends a prepared request and decodes the envelope. Shared by do
// and the multipart evidence upload.
func (c *Client) execute(req *http.Request, sess *models.Session, endpoint string, out interface{}) error {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if sess.Authenticated() {
		req.Header.Set("Authorization", "Bearer "+sess.Token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	metrics.APIRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
	if c.obs != nil {
		c.obs.RecordRequestDuration(req.Context(), endpoint, duration)
	}
	if err != nil {
		c.recordOutcome(req.Context(), endpoint, "error")
		c.logger.WithError(err).Error("request failed", map[string]interface{}{
			"endpoint": endpoint,
			"method":   req.Method,
		})
		return errors.NewNetworkFailureError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.recordOutcome(req.Context(), endpoint, "error")
		return errors.NewNetworkFailureError(err)
	}

	if resp.StatusCode >= 400 {
		c.recordOutcome(req.Context(), endpoint, "error")
		return c.errorFromResponse(resp.StatusCode, raw)
	}

	c.recordOutcome(req.Context(), endpoint, "success")

	if out == nil {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return errors.NewDecodeFailedError(err)
	}
	if len(env.Data) == 0 {
		return errors.NewDecodeFailedError(fmt.Errorf("empty data field in response"))
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return errors.NewDecodeFailedError(err)
	}
	return nil
}

func (c *Client) recordOutcome(ctx context.Context, endpoint, status string) {
	metrics.APIRequestsTotal.WithLabelValues(endpoint, status).Inc()
	if c.obs != nil {
		c.obs.RecordRequest(ctx, endpoint, status)
	}
}

// errorFromResponse maps a non-2xx response to a structured error, carrying
// the backend's message field through when present.
func (c *Client) errorFromResponse(status int, raw []byte) error {
	var env envelope
	message := ""
	if err := json.Unmarshal(raw, &env); err == nil {
		message = env.Message
	}
	if message == "" {
		message = fmt.Sprintf("request failed with status %d", status)
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return errors.NewAuthenticationError(message)
	case status == http.StatusNotFound:
		return errors.NewResourceNotFoundError(message)
	case status < 500:
		return errors.NewBackendValidationError(message)
	default:
		return errors.NewNetworkFailureError(fmt.Errorf("server error %d: %s", status, message))
	}
}
