package utils

import (
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
)

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/96.0.4664.110 Safari/537.36"

// ErrMalformedResponse marks a response body that could not be decoded. It is never retried.
var ErrMalformedResponse = errors.New("malformed response")

// TransportError is one failed request attempt: either the request itself failed or
// the server answered with a non-2xx status.
type TransportError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("GET %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// API is the long-lived HTTP client shared by every remote collaborator.
type API struct {
	client    *http.Client
	baseURL   string
	userAgent string
	retries   int
	logger    *slog.Logger
}

type Option func(*API)

func WithClient(client *http.Client) Option {
	return func(a *API) { a.client = client }
}

func WithUserAgent(ua string) Option {
	return func(a *API) { a.userAgent = ua }
}

// WithRetries sets how many attempts Get and GetText make before giving up.
func WithRetries(n int) Option {
	return func(a *API) {
		if n > 0 {
			a.retries = n
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(a *API) { a.client.Timeout = d }
}

func WithLogger(logger *slog.Logger) Option {
	return func(a *API) {
		if logger != nil {
			a.logger = logger
		}
	}
}

func NewAPI(baseURL string, opts ...Option) *API {
	a := &API{
		client:    &http.Client{Timeout: 30 * time.Second},
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: DefaultUserAgent,
		retries:   3,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *API) BaseURL() string {
	return a.baseURL
}

// Get requests baseURL+path and decodes the JSON body into v, retrying transport failures.
func (a *API) Get(ctx context.Context, path string, params url.Values, v any) error {
	target := a.resolve(path, params)
	return a.retry(ctx, target, func() error {
		body, err := a.Open(ctx, target)
		if err != nil {
			return err
		}
		defer body.Close()
		// A body cut short is a transport failure, not a malformed one.
		raw, err := io.ReadAll(body)
		if err != nil {
			return &TransportError{URL: target, Err: err}
		}
		if err := json.Unmarshal(raw, v); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrMalformedResponse, target, err)
		}
		return nil
	})
}

// GetText requests baseURL+path and returns the body as a string, retrying transport failures.
func (a *API) GetText(ctx context.Context, path string) (string, error) {
	target := a.resolve(path, nil)
	var text string
	err := a.retry(ctx, target, func() error {
		body, err := a.Open(ctx, target)
		if err != nil {
			return err
		}
		defer body.Close()
		raw, err := io.ReadAll(body)
		if err != nil {
			return &TransportError{URL: target, Err: err}
		}
		text = string(raw)
		return nil
	})
	return text, err
}

// Open performs a single GET against an absolute URL. Any non-2xx status is a *TransportError.
// The caller owns the returned body.
func (a *API) Open(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", a.userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, &TransportError{URL: rawURL, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, &TransportError{URL: rawURL, StatusCode: resp.StatusCode}
	}
	return resp.Body, nil
}

func (a *API) retry(ctx context.Context, target string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= a.retries; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		err = fn()
		if err == nil {
			return nil
		}
		var terr *TransportError
		if !errors.As(err, &terr) {
			return err
		}
		a.logger.Warn("request failed", "url", target, "attempt", attempt, "error", err)
	}
	return err
}

func (a *API) resolve(path string, params url.Values) string {
	target := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		target = a.baseURL + path
	}
	if len(params) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + params.Encode()
	}
	return target
}
