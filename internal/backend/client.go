package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/linemk/damio-storefront/internal/lib/metrics"
	"golang.org/x/time/rate"
)

var (
	// ErrUnauthorized - бэкенд ответил 401, сохранённые учётные данные надо стереть
	ErrUnauthorized = errors.New("backend: unauthorized")
	ErrNotFound     = errors.New("backend: not found")
)

// StatusError - ответ бэкенда с неуспешным HTTP-статусом
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend: unexpected status %d: %s", e.Code, e.Body)
}

// BackendError - ответ вида {"success": false, "message": ...}
type BackendError struct {
	Message string
}

func (e *BackendError) Error() string {
	return "backend: " + e.Message
}

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	RPS        float64
	Burst      int
	HTTPClient *http.Client
	Metrics    *metrics.Backend
}

// Client - HTTP-клиент удалённого REST-бэкенда магазина
type Client struct {
	log        *slog.Logger
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	metrics    *metrics.Backend
}

func New(log *slog.Logger, opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("backend base url is required")
	}
	if _, err := url.Parse(opts.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid backend base url: %w", err)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	limit := rate.Inf
	if opts.RPS > 0 {
		limit = rate.Limit(opts.RPS)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		log:        log.With(slog.String("component", "backend")),
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(opts.BaseURL, "/"),
		limiter:    rate.NewLimiter(limit, burst),
		metrics:    opts.Metrics,
	}, nil
}

// call - один запрос к бэкенду. token может быть пустым для публичных эндпоинтов.
// Возвращает тело успешного ответа
func (c *Client) call(ctx context.Context, endpoint, method, path, token string, body any) ([]byte, error) {
	const op = "backend.Client.call"

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s: %s: rate limiter: %w", op, endpoint, err)
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: encode body: %w", op, endpoint, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: build request: %w", op, endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		// новый клиент ходит с Bearer, старый бэкенд понимает только auth-token
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("auth-token", token)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.Observe(endpoint, metrics.OutcomeTransport, time.Since(started))
		return nil, fmt.Errorf("%s: %s: %w", op, endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	took := time.Since(started)
	if err != nil {
		c.metrics.Observe(endpoint, metrics.OutcomeTransport, took)
		return nil, fmt.Errorf("%s: %s: read body: %w", op, endpoint, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		c.metrics.Observe(endpoint, metrics.OutcomeUnauthorized, took)
		return nil, fmt.Errorf("%s: %s: %w", op, endpoint, ErrUnauthorized)
	case resp.StatusCode == http.StatusNotFound:
		c.metrics.Observe(endpoint, metrics.OutcomeError, took)
		return nil, fmt.Errorf("%s: %s: %w", op, endpoint, ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		c.metrics.Observe(endpoint, metrics.OutcomeError, took)
		return nil, fmt.Errorf("%s: %s: %w", op, endpoint, &StatusError{Code: resp.StatusCode, Body: truncate(string(raw), 256)})
	}

	c.metrics.Observe(endpoint, metrics.OutcomeOK, took)
	c.log.Debug("backend call", slog.String("endpoint", endpoint), slog.Duration("took", took))
	return raw, nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
