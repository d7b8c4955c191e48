package luminous

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"
)

// Request describes one HTTP call to the API.
type Request struct {
	Method  string
	BaseURL string
	Path    string
	Headers map[string]string
	Query   map[string]string

	// Body is JSON-marshaled when non-nil.
	Body any
}

// Response describes the API's answer: the status code, the response headers
// and the decoded envelope. An empty body decodes to a zero Envelope.
type Response struct {
	Status   int
	Header   http.Header
	Envelope Envelope
}

// Transport is the HTTP capability the client runs on. Implementations MUST
// return non-2xx responses as ordinary *Response values, never as errors;
// the client inspects status codes itself. Errors are reserved for transport
// failures (connection, cancellation, undecodable body).
type Transport interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// HTTPTransport is the default Transport, built on net/http.
type HTTPTransport struct {
	Client *http.Client

	// Limiter, when set, throttles outgoing requests client-side. Waiting
	// respects the request context.
	Limiter *rate.Limiter

	// UserAgent is sent on every request when non-empty.
	UserAgent string
}

// NewHTTPTransport returns an HTTPTransport with a 10 second timeout and no
// rate limit.
func NewHTTPTransport() *HTTPTransport {
	return &HTTPTransport{
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Do implements Transport.
func (t *HTTPTransport) Do(ctx context.Context, req *Request) (*Response, error) {
	if t.Limiter != nil {
		if err := t.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	var body io.Reader
	if req.Body != nil {
		raw, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	target := req.BaseURL + req.Path
	if len(req.Query) > 0 {
		vals := url.Values{}
		for k, v := range req.Query {
			vals.Set(k, v)
		}
		target += "?" + vals.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	httpReq.Header.Set("X-Request-Id", newRequestID())
	if t.UserAgent != "" {
		httpReq.Header.Set("User-Agent", t.UserAgent)
	}

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}
	httpResp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	resp := &Response{Status: httpResp.StatusCode, Header: httpResp.Header}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &resp.Envelope); err != nil {
			return nil, fmt.Errorf("failed to decode response body: %w", err)
		}
	}
	return resp, nil
}

// Request IDs are lexicographically sortable ULIDs from a monotonic entropy
// source, safe for concurrent use.
var (
	ridOnce    sync.Once
	ridMu      sync.Mutex
	ridEntropy *ulid.MonotonicEntropy
)

func newRequestID() string {
	ridOnce.Do(func() {
		ridEntropy = ulid.Monotonic(rand.Reader, 0)
	})

	ridMu.Lock()
	defer ridMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now().UTC()), ridEntropy).String()
}
