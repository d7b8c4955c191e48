package luminous

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
)

// API endpoints for the session lifecycle.
const (
	usersPath       = "/accounts/v1/users"
	currentUserPath = "/accounts/v1/users/current"
	loginPath       = "/accounts/v1/sessions/login/password"
	totpPath        = "/accounts/v1/sessions/login/totp"
	logoutPath      = "/accounts/v1/sessions/logout"
	refreshPath     = "/accounts/v1/sessions/refresh"
)

// stepTOTP is the only login step kind this client knows how to complete.
const stepTOTP = "totp"

// Login attempts to obtain a session with the user's email and password. Any
// existing session is logged out first so there is never more than one live
// session.
//
// The outcome is a LoginResult: success, email-pending, second-factor-required
// or rejected. Rejections (bad password, unknown email) are returned, not
// thrown; any other error response is fatal.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	if err := c.Logout(ctx); err != nil {
		return LoginResult{}, err
	}

	state, err := newStateToken()
	if err != nil {
		return LoginResult{}, err
	}

	resp, err := c.transport.Do(ctx, c.newAuthnRequest(loginPath, map[string]any{
		"data": map[string]any{
			"t":        "password-step",
			"email":    email,
			"password": password,
			"state":    state,
		},
	}))
	if err != nil {
		return LoginResult{}, err
	}
	c.log.Debug("login response", "status", resp.Status)

	return c.interpretLoginResponse(ctx, resp, false)
}

// CompleteTOTP executes the second-factor step of the login flow using the
// continuation code returned by Login and a one-time code obtained from the
// user. Unlike Login it never logs out a prior session first: the Login call
// that produced the continuation code already did. Any further "step"
// response is a protocol violation, since no step beyond TOTP is supported.
func (c *Client) CompleteTOTP(ctx context.Context, stateCode, code string) (LoginResult, error) {
	resp, err := c.transport.Do(ctx, c.newAuthnRequest(totpPath, map[string]any{
		"data": map[string]any{
			"t":     "totp-step",
			"totp":  code,
			"state": stateCode,
		},
	}))
	if err != nil {
		return LoginResult{}, err
	}
	c.log.Debug("totp response", "status", resp.Status)

	return c.interpretLoginResponse(ctx, resp, true)
}

// interpretLoginResponse maps a login-flow response into a LoginResult.
// secondFactor marks the response as coming from the TOTP step, where any
// further step request is fatal.
func (c *Client) interpretLoginResponse(ctx context.Context, resp *Response, secondFactor bool) (LoginResult, error) {
	env := &resp.Envelope
	if env.T == TagError {
		result, err := classifyAuthFailure(resp.Status, env)
		if err == nil {
			c.log.Warn("login attempt rejected", "code", result.Err.Code, "detail", result.Err.Detail)
		}
		return result, err
	}

	// A null payload means the server sent a confirmation email; there is no
	// session yet.
	if isNullPayload(env.Data) {
		return LoginResult{Status: LoginEmailPending}, nil
	}

	var data loginData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return LoginResult{}, fmt.Errorf("luminous: undecodable login payload: %w", err)
	}

	if data.T == "step" {
		if secondFactor || data.Step != stepTOTP {
			return LoginResult{}, fmt.Errorf(
				"luminous: the API returned step %q, which this client cannot handle: %w",
				data.Step, ErrProtocolViolation,
			)
		}
		return LoginResult{Status: LoginSecondFactor, TOTPState: data.State}, nil
	}

	if data.Token == "" || data.Refresh == "" {
		return LoginResult{}, fmt.Errorf(
			"luminous: the API returned neither a session nor a step: %w", ErrProtocolViolation,
		)
	}

	c.storeSession(ctx, &Session{Token: data.Token, Refresh: data.Refresh})
	return LoginResult{Status: LoginSuccess}, nil
}

// CreateUser signs a new user up and, on success, stores the session the
// server responds with. Any existing session is logged out first.
func (c *Client) CreateUser(ctx context.Context, name, email, password, passwordConf string) error {
	if err := c.Logout(ctx); err != nil {
		return err
	}

	state, err := newStateToken()
	if err != nil {
		return err
	}

	resp, err := c.transport.Do(ctx, c.newAuthnRequest(usersPath, map[string]any{
		"data": map[string]any{
			"type":         "users",
			"name":         name,
			"email":        email,
			"password":     password,
			"passwordConf": passwordConf,
			"state":        state,
			"referrer":     c.clientID,
		},
	}))
	if err != nil {
		return err
	}
	c.log.Debug("user creation response", "status", resp.Status)

	env := &resp.Envelope
	if env.T == TagError {
		return inflateError(env)
	}

	var data loginData
	if err := json.Unmarshal(env.Data, &data); err != nil || data.Token == "" || data.Refresh == "" {
		return fmt.Errorf("luminous: user creation did not return a session: %w", ErrProtocolViolation)
	}
	c.storeSession(ctx, &Session{Token: data.Token, Refresh: data.Refresh})
	return nil
}

// Logout ends the current session, if there is one. The persisted credential
// blob is deleted before the server call so a failed network call cannot
// leave stale credentials in storage; the in-memory session is cleared only
// after the server confirms. An error envelope from the server is fatal.
func (c *Client) Logout(ctx context.Context) error {
	if c.session == nil {
		return nil
	}
	c.log.Debug("logging out")

	if err := c.store.Delete(ctx, c.storageKey); err != nil {
		return fmt.Errorf("luminous: failed to clear stored credentials: %w", err)
	}

	resp, err := c.transport.Do(ctx, &Request{
		Method:  http.MethodPost,
		BaseURL: c.baseURL,
		Path:    logoutPath,
		Headers: c.authnHeaders(c.composeAuth("")),
		Body:    map[string]any{},
	})
	if err != nil {
		return err
	}

	if resp.Envelope.T == TagError {
		return fmt.Errorf("luminous: unexpected response on logout: %w", inflateError(&resp.Envelope))
	}

	c.session = nil
	c.log.Info("logout successful")
	return nil
}

// LoggedIn makes a throw-away authenticated call to verify the current
// session. It reports false for anonymous clients and for sessions the server
// no longer accepts; any non-auth error is fatal.
func (c *Client) LoggedIn(ctx context.Context) (bool, error) {
	if c.session == nil {
		return false, nil
	}

	resp, err := c.Call(ctx, http.MethodGet, currentUserPath, nil)
	if err != nil {
		return false, err
	}

	switch {
	case resp.Status < 300:
		return true, nil
	case resp.Status == http.StatusUnauthorized:
		return false, nil
	default:
		return false, inflateError(&resp.Envelope)
	}
}

// refresh exchanges the current refresh token for a new session.
//
// Outcomes: ok on success (the new session is stored); a non-nil failure
// response when the server refused the refresh, handed back raw so the call
// executor can return it in place of the original response; an error for
// transport failures or for calling refresh with no session at all, which is
// a programming error.
func (c *Client) refresh(ctx context.Context) (ok bool, failure *Response, err error) {
	if c.session == nil {
		return false, nil, ErrNoSession
	}

	resp, err := c.transport.Do(ctx, c.newAuthnRequest(refreshPath, map[string]any{
		"data": map[string]any{
			"t":     "refresh-tokens",
			"token": c.session.Refresh,
		},
	}))
	if err != nil {
		return false, nil, err
	}
	c.log.Debug("refresh response", "status", resp.Status)

	env := &resp.Envelope
	if env.T == TagError {
		return false, resp, nil
	}

	var data loginData
	if err := json.Unmarshal(env.Data, &data); err != nil || data.Token == "" || data.Refresh == "" {
		return false, nil, fmt.Errorf("luminous: refresh did not return a session: %w", ErrProtocolViolation)
	}
	c.storeSession(ctx, &Session{Token: data.Token, Refresh: data.Refresh})
	return true, nil, nil
}

// storeSession makes s the current session and persists it. Persistence
// failures are logged, not propagated: the in-memory session is still valid
// for the life of this client.
func (c *Client) storeSession(ctx context.Context, s *Session) {
	c.session = s
	blob, err := json.Marshal(storedSession{T: "session", Token: s.Token, Refresh: s.Refresh})
	if err != nil {
		c.log.Warn("failed to serialize session", "error", err)
		return
	}
	if err := c.store.Set(ctx, c.storageKey, string(blob)); err != nil {
		c.log.Warn("failed to persist session", "error", err)
	}
}

// newAuthnRequest builds a POST request for the unauthenticated login-flow
// endpoints, carrying the basic client credential but no bearer token.
func (c *Client) newAuthnRequest(path string, body any) *Request {
	return &Request{
		Method:  http.MethodPost,
		BaseURL: c.baseURL,
		Path:    path,
		Headers: c.authnHeaders(c.authBasic),
		Body:    body,
	}
}

func (c *Client) authnHeaders(authorization string) map[string]string {
	headers := make(map[string]string, len(c.headers)+2)
	for k, v := range c.headers {
		headers[k] = v
	}
	headers["Authorization"] = authorization
	headers["Content-Type"] = "application/json"
	return headers
}

// newStateToken returns a 32-character hex token used by the server to
// correlate the steps of a login flow. Entropy comes from crypto/rand; the
// token must not be guessable.
func newStateToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("luminous: failed to generate state token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// isNullPayload reports whether data is absent or literal JSON null.
func isNullPayload(data json.RawMessage) bool {
	return len(bytes.TrimSpace(data)) == 0 || string(bytes.TrimSpace(data)) == "null"
}
