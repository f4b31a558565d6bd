package artwork

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultFetchTimeout = 20 * time.Second
	defaultMaxBytes     = 16 << 20
	userAgent           = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"
)

var ErrTooLarge = errors.New("image exceeds size limit")

type FetchConfig struct {
	Timeout time.Duration
	// RetryMax is the number of extra attempts for a failed GET (transport
	// errors only; HTTP status codes are never retried).
	RetryMax int
	MaxBytes int64
	// Client overrides the HTTP client (tests).
	Client *http.Client
}

// Fetcher downloads thumbnails.
type Fetcher struct {
	client   *http.Client
	maxBytes int64
}

func NewFetcher(cfg FetchConfig) *Fetcher {
	client := cfg.Client
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultFetchTimeout
		}
		client = &http.Client{
			Transport: &retryTransport{
				base: &http.Transport{
					Proxy:                 http.ProxyFromEnvironment,
					TLSHandshakeTimeout:   10 * time.Second,
					ResponseHeaderTimeout: 15 * time.Second,
				},
				retryMax: max(0, cfg.RetryMax),
			},
			Timeout: timeout,
		}
	}
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	return &Fetcher{client: client, maxBytes: maxBytes}
}

// Fetch returns the body of url.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New("thumbnail url is empty")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "image/*")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch thumbnail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("fetch thumbnail: http %d", resp.StatusCode)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("fetch thumbnail: %w", err)
	}
	if int64(len(b)) > f.maxBytes {
		return nil, ErrTooLarge
	}
	return b, nil
}

// retryTransport sets a browser User-Agent (some image hosts reject Go's
// default) and retries replayable requests on transport errors.
type retryTransport struct {
	base     http.RoundTripper
	retryMax int
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	canRetry := (req.Method == http.MethodGet || req.Method == http.MethodHead) && req.Body == nil
	n := t.retryMax
	if !canRetry {
		n = 0
	}

	var lastErr error
	for attempt := 0; attempt <= n; attempt++ {
		r := req.Clone(req.Context())
		if r.Header.Get("User-Agent") == "" {
			r.Header.Set("User-Agent", userAgent)
		}
		resp, err := t.base.RoundTrip(r)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if req.Context().Err() != nil {
			return nil, lastErr
		}
	}
	return nil, lastErr
}
