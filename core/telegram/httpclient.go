package telegram

import (
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/m3rciful/meteobot/core/telegram/netutil"
)

const (
	apiCallTimeout   = 30 * time.Second
	apiDialTimeout   = 5 * time.Second
	apiRetryBackoff  = time.Second
	apiIdleConnLimit = 10
)

var errBodyNotReplayable = errors.New("telegram: request body cannot be replayed")

// BuildHTTPClient returns the Bot API client. retries > 0 adds
// transport-level retries of transient failures. The client timeout bounds
// every call, long-poll requests included.
func BuildHTTPClient(retries int) *http.Client {
	dialer := &net.Dialer{Timeout: apiDialTimeout, KeepAlive: 30 * time.Second}
	base := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		ForceAttemptHTTP2:   true,
		MaxIdleConnsPerHost: apiIdleConnLimit,
		IdleConnTimeout:     30 * time.Second,
		TLSHandshakeTimeout: apiDialTimeout,
	}
	client := &http.Client{Timeout: apiCallTimeout, Transport: base}
	if retries > 0 {
		client.Transport = &retryTransport{base: base, maxRetries: retries, backoff: apiRetryBackoff}
	}
	return client
}

// retryTransport replays requests that failed before a response arrived.
type retryTransport struct {
	base       http.RoundTripper
	maxRetries int
	backoff    time.Duration
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	for n := 1; err != nil && n <= t.maxRetries && netutil.ShouldRetry(err); n++ {
		if waitErr := sleepCtx(req, t.backoff*time.Duration(n)); waitErr != nil {
			return nil, waitErr
		}
		next, cloneErr := replay(req)
		if cloneErr != nil {
			return nil, errors.Join(err, cloneErr)
		}
		resp, err = t.base.RoundTrip(next)
	}
	return resp, err
}

func replay(req *http.Request) (*http.Request, error) {
	next := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return next, nil
	}
	if req.GetBody == nil {
		return nil, errBodyNotReplayable
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	next.Body = body
	return next, nil
}

func sleepCtx(req *http.Request, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-req.Context().Done():
		return req.Context().Err()
	case <-timer.C:
		return nil
	}
}
