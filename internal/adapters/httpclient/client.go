package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultRetries   = 3
	defaultRetryWait = 500 * time.Millisecond
	maxErrorBody     = 512
)

// Options configura un Client. Los valores cero usan defaults.
type Options struct {
	Timeout       time.Duration
	RatePerMinute int // 0 = sin límite
	Burst         int
	MaxRetries    int // < 0 = sin reintentos
	BaseRetryWait time.Duration
	UserAgent     string
	HTTPClient    *http.Client // opcional, para tests o transports custom
}

// Client es un HTTP client JSON con rate limiting y retries.
// Cada instancia tiene su propio limiter: dos fuentes distintas nunca
// comparten ritmo.
type Client struct {
	http       *http.Client
	limiter    *rate.Limiter
	maxRetries int
	baseWait   time.Duration
	userAgent  string
}

// New crea un Client con las opciones dadas.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = defaultRetries
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.BaseRetryWait <= 0 {
		opts.BaseRetryWait = defaultRetryWait
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}

	limit := rate.Inf
	if opts.RatePerMinute > 0 {
		limit = rate.Limit(float64(opts.RatePerMinute) / 60)
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}

	return &Client{
		http:       hc,
		limiter:    rate.NewLimiter(limit, opts.Burst),
		maxRetries: opts.MaxRetries,
		baseWait:   opts.BaseRetryWait,
		userAgent:  opts.UserAgent,
	}
}

// GetJSON hace un GET con rate limiting y retries y decodifica el body en out.
func (c *Client) GetJSON(ctx context.Context, url string, out any) error {
	return c.doWithRetry(ctx, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if c.userAgent != "" {
			req.Header.Set("User-Agent", c.userAgent)
		}
		return c.http.Do(req)
	}, out)
}

// doWithRetry ejecuta la función con backoff exponencial.
// Reintenta errores de transporte, 429 y 5xx; el resto de 4xx falla al instante.
func (c *Client) doWithRetry(ctx context.Context, fn func() (*http.Response, error), out any) error {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := c.sleep(ctx, attempt-1); err != nil {
				return Classify(err, 0)
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		resp, err := fn()
		if err != nil {
			lastErr = Classify(err, 0)
			if ctx.Err() != nil {
				return lastErr
			}
			continue
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			resp.Body.Close()
			slog.Warn("rate limited by API", "attempt", attempt+1)
			lastErr = Classify(nil, resp.StatusCode)
			continue

		case resp.StatusCode >= 500:
			resp.Body.Close()
			lastErr = Classify(fmt.Errorf("server error %d", resp.StatusCode), resp.StatusCode)
			continue

		case resp.StatusCode >= 400:
			body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
			resp.Body.Close()
			return Classify(fmt.Errorf("client error %d: %s", resp.StatusCode, string(body)), resp.StatusCode)
		}

		defer resp.Body.Close()
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("request failed after %d retries: %w", c.maxRetries, lastErr)
}

// sleep espera con backoff exponencial, respetando el contexto.
func (c *Client) sleep(ctx context.Context, attempt int) error {
	wait := time.Duration(math.Pow(2, float64(attempt))) * c.baseWait
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
