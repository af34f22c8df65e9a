package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "cinebook/internal/errors"
	"cinebook/internal/logger"
	"cinebook/internal/models"
)

const (
	headerCybersoftToken = "TokenCybersoft"
	headerRequestID      = "X-Request-ID"

	defaultGroup = "GP01"
)

// MovieAPIConfig - настройки клиента апстрима
type MovieAPIConfig struct {
	BaseURL        string
	CybersoftToken string
	Group          string
	Timeout        time.Duration
}

// Observer receives the outcome of every upstream call. Status is 0 when no
// response was received.
type Observer interface {
	ObserveUpstream(endpoint string, status int, duration time.Duration)
}

// MovieAPIClient talks to the upstream movie API. A client value carries at
// most one bearer token; WithToken derives a per-session copy.
type MovieAPIClient struct {
	baseURL        string
	cybersoftToken string
	group          string
	token          string
	httpClient     *http.Client
	observer       Observer
}

func NewMovieAPIClient(cfg MovieAPIConfig, observer Observer) *MovieAPIClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Group == "" {
		cfg.Group = defaultGroup
	}

	return &MovieAPIClient{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		cybersoftToken: cfg.CybersoftToken,
		group:          cfg.Group,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		observer: observer,
	}
}

// WithToken returns a copy of the client that authenticates as the session
// owning token. An empty token yields an anonymous client.
func (c *MovieAPIClient) WithToken(token string) *MovieAPIClient {
	cp := *c
	cp.token = token
	return &cp
}

// Group is the upstream data group every list and create call is scoped to.
func (c *MovieAPIClient) Group() string {
	return c.group
}

// envelope - обертка всех ответов апстрима
type envelope struct {
	StatusCode int             `json:"statusCode"`
	Message    string          `json:"message"`
	Content    json.RawMessage `json:"content"`
}

// errorMessage prefers a string content (the upstream puts the detailed
// reason there) over the generic message.
func (e envelope) errorMessage() string {
	var detail string
	if len(e.Content) > 0 && json.Unmarshal(e.Content, &detail) == nil && detail != "" {
		return detail
	}
	return e.Message
}

func (c *MovieAPIClient) getJSON(ctx context.Context, endpoint string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, endpoint, query, nil, "", out)
}

func (c *MovieAPIClient) sendJSON(ctx context.Context, method, endpoint string, query url.Values, payload, out any) error {
	var body io.Reader
	contentType := ""
	if payload != nil {
		jsonBody, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(jsonBody)
		contentType = "application/json"
	}
	return c.do(ctx, method, endpoint, query, body, contentType, out)
}

// sendMultipart posts form fields plus an optional file under fileField.
func (c *MovieAPIClient) sendMultipart(ctx context.Context, endpoint string, fields map[string]string, fileField string, file *models.Upload, out any) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return fmt.Errorf("failed to write form field %s: %w", name, err)
		}
	}

	if file != nil {
		part, err := w.CreateFormFile(fileField, file.Filename)
		if err != nil {
			return fmt.Errorf("failed to create form file: %w", err)
		}
		if _, err := part.Write(file.Data); err != nil {
			return fmt.Errorf("failed to write form file: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close multipart body: %w", err)
	}

	return c.do(ctx, http.MethodPost, endpoint, nil, &buf, w.FormDataContentType(), out)
}

func (c *MovieAPIClient) do(ctx context.Context, method, endpoint string, query url.Values, body io.Reader, contentType string, out any) error {
	target := c.baseURL + "/api/" + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set(headerCybersoftToken, c.cybersoftToken)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if reqID := logger.RequestIDFromContext(ctx); reqID != "" {
		req.Header.Set(headerRequestID, reqID)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(endpoint, 0, start)
		logger.WithContext(ctx).Warn("Upstream request failed", "endpoint", endpoint, "error", err)
		return &apperrors.NetworkError{Op: method + " " + endpoint, Err: err}
	}
	defer resp.Body.Close()
	c.observe(endpoint, resp.StatusCode, start)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &apperrors.NetworkError{Op: "read " + endpoint, Err: err}
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &apperrors.APIError{StatusCode: resp.StatusCode, Endpoint: endpoint}
		if decodeErr == nil {
			apiErr.Message = env.errorMessage()
		}
		logger.WithContext(ctx).Debug("Upstream returned error",
			"endpoint", endpoint, "status", resp.StatusCode, "message", apiErr.Message)
		return apiErr
	}

	if decodeErr != nil {
		return fmt.Errorf("failed to decode response of %s: %w", endpoint, decodeErr)
	}
	if env.StatusCode >= 400 {
		return &apperrors.APIError{StatusCode: env.StatusCode, Message: env.errorMessage(), Endpoint: endpoint}
	}

	if out == nil || len(env.Content) == 0 || string(env.Content) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Content, out); err != nil {
		return fmt.Errorf("failed to decode content of %s: %w", endpoint, err)
	}
	return nil
}

func (c *MovieAPIClient) observe(endpoint string, status int, start time.Time) {
	if c.observer != nil {
		c.observer.ObserveUpstream(endpoint, status, time.Since(start))
	}
}
