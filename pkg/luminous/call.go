package luminous

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// CallOptions carry the optional parts of a Call.
type CallOptions struct {
	// Headers are merged over the client's standing request headers. A
	// caller-supplied Authorization header is appended to the composed
	// authorization (it does not replace the client credential); a
	// caller-supplied Content-Type wins over the JSON default. Both are
	// matched case-insensitively so only one of each ends up on the wire.
	Headers map[string]string

	// Params are flattened query parameters (see FlattenParams).
	Params map[string]string

	// Body is JSON-marshaled when non-nil.
	Body any
}

// Call performs one logical API call with automatic one-shot
// re-authentication. If the response is a 401 and a session is active, it
// refreshes the session once: a successful refresh reissues the original
// request exactly once more and returns whatever that yields; a failed
// refresh returns the refresh's own failure response. In every other case
// the response comes back as-is. Worst case is three round trips: call,
// refresh, retried call.
func (c *Client) Call(ctx context.Context, method, endpoint string, opts *CallOptions) (*Response, error) {
	if opts == nil {
		opts = &CallOptions{}
	}

	headers, callerAuth, contentType := c.normalizeHeaders(opts.Headers)
	headers["Authorization"] = c.composeAuth(callerAuth)
	headers["Content-Type"] = contentType

	req := &Request{
		Method:  method,
		BaseURL: c.baseURL,
		Path:    endpoint,
		Headers: headers,
		Query:   opts.Params,
		Body:    opts.Body,
	}

	resp, err := c.transport.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	c.log.Debug("api response", "method", method, "endpoint", endpoint, "status", resp.Status)

	// Success, anonymous, or a failure other than exactly 401: hand the
	// response back untouched. A 401 with no session is not retried.
	if resp.Status < 300 || c.session == nil || resp.Status != http.StatusUnauthorized {
		return resp, nil
	}

	ok, failure, err := c.refresh(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return failure, nil
	}

	// One retry with the refreshed token. Whatever it yields is final.
	req.Headers["Authorization"] = c.composeAuth(callerAuth)
	return c.transport.Do(ctx, req)
}

// Get issues a read. Query parameters are flattened into bracket notation.
// An error envelope is thrown as *APIError; every other envelope is returned
// unchanged, so callers discriminate single/collection/null themselves.
func (c *Client) Get(ctx context.Context, endpoint string, params map[string]any) (*Envelope, error) {
	opts := &CallOptions{}
	if len(params) > 0 {
		opts.Params = FlattenParams(params)
	}

	resp, err := c.Call(ctx, http.MethodGet, endpoint, opts)
	if err != nil {
		return nil, err
	}
	if resp.Envelope.T == TagError {
		return nil, inflateError(&resp.Envelope)
	}
	return &resp.Envelope, nil
}

// Post creates a resource. The payload is wrapped in the standard
// {"data": ...} envelope. Only single-resource results are valid.
func (c *Client) Post(ctx context.Context, endpoint string, body any) (*Envelope, error) {
	return c.writeSingle(ctx, http.MethodPost, endpoint, body)
}

// Patch updates a resource. The payload is wrapped in the standard
// {"data": ...} envelope. Only single-resource results are valid.
func (c *Client) Patch(ctx context.Context, endpoint string, body any) (*Envelope, error) {
	return c.writeSingle(ctx, http.MethodPatch, endpoint, body)
}

func (c *Client) writeSingle(ctx context.Context, method, endpoint string, body any) (*Envelope, error) {
	opts := &CallOptions{}
	if body != nil {
		opts.Body = map[string]any{"data": body}
	}

	resp, err := c.Call(ctx, method, endpoint, opts)
	if err != nil {
		return nil, err
	}

	env := &resp.Envelope
	if env.T == TagError {
		return nil, inflateError(env)
	}
	if env.T == TagCollection || env.T == TagNull {
		return nil, fmt.Errorf(
			"luminous: unexpected %q response, expecting %q: %w", env.T, TagSingle, ErrProtocolViolation,
		)
	}
	return env, nil
}

// Delete removes a resource. An error envelope is thrown; anything else,
// including a legitimate null envelope, is returned unchanged.
func (c *Client) Delete(ctx context.Context, endpoint string) (*Envelope, error) {
	resp, err := c.Call(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if resp.Envelope.T == TagError {
		return nil, inflateError(&resp.Envelope)
	}
	return &resp.Envelope, nil
}

// normalizeHeaders merges the client's standing headers with the caller's,
// pulling out any Authorization and Content-Type values case-insensitively so
// each appears exactly once in the final request.
func (c *Client) normalizeHeaders(extra map[string]string) (headers map[string]string, callerAuth, contentType string) {
	headers = make(map[string]string, len(c.headers)+len(extra)+2)
	for k, v := range c.headers {
		headers[k] = v
	}
	for k, v := range extra {
		headers[k] = v
	}

	for k, v := range headers {
		switch strings.ToLower(k) {
		case "authorization":
			callerAuth = v
			delete(headers, k)
		case "content-type":
			contentType = v
			delete(headers, k)
		}
	}
	if contentType == "" {
		contentType = "application/json"
	}
	return headers, callerAuth, contentType
}

// composeAuth builds the comma-joined Authorization value: the basic client
// credential always first, then any caller-supplied value, then the bearer
// segment when a session is active.
func (c *Client) composeAuth(callerAuth string) string {
	parts := make([]string, 0, 3)
	parts = append(parts, c.authBasic)
	if callerAuth != "" {
		parts = append(parts, callerAuth)
	}
	if c.session != nil {
		parts = append(parts, "Bearer session:"+c.session.Token)
	}
	return strings.Join(parts, ",")
}
