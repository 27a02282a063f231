package steam

import (
	"context"
	"io"
	"net/http"
	"time"
)

// DefaultUserAgent identifies this collector to the Steam endpoints.
const DefaultUserAgent = "steam-ranking-bot/1.0"

// Statuses treated as transient and retried by the transport.
var retryStatuses = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// Transport retries transient upstream statuses with exponential backoff and
// attaches a constant User-Agent to every request. Network-level errors are
// not retried; they propagate to the caller, which treats them as a per-id
// soft failure.
type Transport struct {
	// Base performs the actual requests. http.DefaultTransport if nil.
	Base http.RoundTripper
	// MaxRetries is the number of retries after the initial attempt.
	MaxRetries int
	// BackoffBase is the delay before the first retry; each subsequent
	// retry doubles it (1s, 2s, 4s, 8s, 16s with the default).
	BackoffBase time.Duration
	// AttemptTimeout bounds each individual attempt. It deliberately does
	// not span retries or backoff sleeps, which an http.Client.Timeout
	// would. Zero means no per-attempt deadline.
	AttemptTimeout time.Duration
	// UserAgent overrides DefaultUserAgent when set.
	UserAgent string
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	retries := t.MaxRetries
	if retries <= 0 {
		retries = 5
	}
	backoff := t.BackoffBase
	if backoff <= 0 {
		backoff = time.Second
	}
	ua := t.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}

	for attempt := 0; ; attempt++ {
		ctx := req.Context()
		cancel := context.CancelFunc(func() {})
		if t.AttemptTimeout > 0 {
			ctx, cancel = context.WithTimeout(req.Context(), t.AttemptTimeout)
		}
		r := req.Clone(ctx)
		r.Header.Set("User-Agent", ua)

		resp, err := t.base().RoundTrip(r)
		if err != nil {
			cancel()
			return nil, err
		}
		if !retryStatuses[resp.StatusCode] || attempt >= retries {
			// The attempt deadline keeps running while the caller
			// reads the body; Close releases it.
			resp.Body = &cancelBody{ReadCloser: resp.Body, cancel: cancel}
			return resp, nil
		}

		// Release the connection before sleeping and retrying.
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		cancel()

		delay := backoff << attempt
		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(delay):
		}
	}
}

type cancelBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

// NewHTTPClient returns an http.Client with the retrying transport and the
// given per-attempt timeout. All outbound calls share this client.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: &Transport{AttemptTimeout: timeout},
	}
}
