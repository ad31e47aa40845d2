package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/learnbridge/internal/platform/envutil"
	"github.com/yungbote/learnbridge/internal/platform/logger"
)

const maxBodyBytes = 1 << 20

type Options struct {
	BaseURL string

	// TokenSource supplies the current bearer token per request so a login
	// or logout mid-session takes effect without rebuilding the client.
	TokenSource func() string

	// OnUnauthorized runs once per 401 response, for any endpoint. The
	// session layer registers itself here to clear local state.
	OnUnauthorized func()

	Timeout    time.Duration
	MaxRetries int

	HTTPClient *http.Client
}

// Client talks to the platform REST API. GETs retry with bounded backoff;
// mutations are sent exactly once.
type Client struct {
	baseURL        string
	tokenSource    func() string
	onUnauthorized func()

	timeout    time.Duration
	maxRetries int

	httpClient *http.Client
	log        *logger.Logger
	tracer     trace.Tracer
}

func New(opts Options, log *logger.Logger) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("baseURL required")
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxRetries := opts.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}

	tokenSource := opts.TokenSource
	if tokenSource == nil {
		tokenSource = func() string { return "" }
	}

	return &Client{
		baseURL:        baseURL,
		tokenSource:    tokenSource,
		onUnauthorized: opts.OnUnauthorized,
		timeout:        timeout,
		maxRetries:     maxRetries,
		httpClient:     hc,
		log:            log.With("component", "APIClient"),
		tracer:         otel.Tracer("learnbridge/api"),
	}, nil
}

func NewFromEnv(log *logger.Logger) (*Client, error) {
	return New(Options{
		BaseURL:    envutil.String("LB_API_BASE_URL", "http://localhost:8000/api"),
		Timeout:    envutil.Duration("LB_API_TIMEOUT", 30*time.Second),
		MaxRetries: envutil.Int("LB_API_MAX_RETRIES", 2),
	}, log)
}

// SetTokenSource and SetOnUnauthorized let the session layer attach itself
// after construction; app wiring builds the client before the session.
func (c *Client) SetTokenSource(fn func() string) {
	if fn != nil {
		c.tokenSource = fn
	}
}

func (c *Client) SetOnUnauthorized(fn func()) { c.onUnauthorized = fn }

func (c *Client) BaseURL() string { return c.baseURL }

// get retries transient failures; mutations go through send (single shot).
func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, out, c.maxRetries)
}

func (c *Client) send(ctx context.Context, method, path string, body, out any) error {
	return c.doJSON(ctx, method, path, body, out, 0)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any, retries int) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ctx, span := c.tracer.Start(ctx, method+" "+path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
		))
	defer span.End()

	var lastErr error
	backoff := 250 * time.Millisecond
	for attempt := 0; attempt <= retries; attempt++ {
		if ctx.Err() != nil {
			span.SetStatus(codes.Error, ctx.Err().Error())
			return ctx.Err()
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(buf.Bytes()))
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return err
		}
		c.setHeaders(req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
			_ = resp.Body.Close()
			if readErr != nil {
				span.SetStatus(codes.Error, readErr.Error())
				return readErr
			}
			span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

			if resp.StatusCode == http.StatusUnauthorized {
				if c.onUnauthorized != nil {
					c.onUnauthorized()
				}
				err := parseHTTPError(resp.StatusCode, raw)
				span.SetStatus(codes.Error, err.Error())
				return err
			}
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				herr := parseHTTPError(resp.StatusCode, raw)
				// Client errors are final; only server errors retry.
				if resp.StatusCode < http.StatusInternalServerError {
					span.SetStatus(codes.Error, herr.Error())
					return herr
				}
				lastErr = herr
			} else {
				if out == nil {
					return nil
				}
				if err := json.Unmarshal(raw, out); err != nil {
					span.SetStatus(codes.Error, err.Error())
					return fmt.Errorf("decode %s %s: %w", method, path, err)
				}
				return nil
			}
		}

		if attempt < retries {
			select {
			case <-ctx.Done():
				span.SetStatus(codes.Error, ctx.Err().Error())
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}

	if lastErr == nil {
		lastErr = errors.New("request failed")
	}
	span.SetStatus(codes.Error, lastErr.Error())
	return lastErr
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token := strings.TrimSpace(c.tokenSource()); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}
