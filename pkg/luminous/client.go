package luminous

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/luminous-money/client-go/pkg/credstore"
)

// DefaultStorageKey is the credential-store key sessions are persisted under
// unless Config.StorageKey overrides it.
const DefaultStorageKey = "@luminous-money/client::credentials"

// Config carries the collaborators and identity for a Client. ClientID and
// BaseURL are required; everything else has a sensible default.
type Config struct {
	// ClientID identifies this client application to the API.
	ClientID string

	// ClientSecret is the client's basic-auth secret. May be empty for
	// public (front-end) clients.
	ClientSecret string

	// BaseURL is the root URL of the API, without a trailing slash.
	BaseURL string

	// Transport performs the HTTP calls. Defaults to NewHTTPTransport().
	Transport Transport

	// Store persists session credentials. Defaults to an in-memory store,
	// which means sessions do not survive the process.
	Store credstore.Store

	// Logger receives debug/warn/info messages. Defaults to slog.Default().
	// Logging is purely observational and never affects control flow.
	Logger *slog.Logger

	// StorageKey overrides DefaultStorageKey.
	StorageKey string

	// RequestHeaders are added to every request this client makes.
	RequestHeaders map[string]string
}

// Client is a client for the Luminous Money REST APIs. It owns the current
// session (or its absence), persists it through the credential store, and
// wraps every data call in a one-shot refresh-and-retry policy on 401.
//
// A Client performs no internal locking: if two authenticated calls race and
// both receive 401, both will refresh independently and the refresh applied
// last wins as the stored session. This is an accepted race, not a
// serialized critical section; callers needing strict serialization must
// provide their own.
type Client struct {
	clientID   string
	baseURL    string
	authBasic  string
	transport  Transport
	store      credstore.Store
	log        *slog.Logger
	storageKey string
	headers    map[string]string

	// session is the single live session for this client; nil means
	// anonymous.
	session *Session
}

// New constructs a Client and restores any session previously persisted in
// the credential store. A missing or malformed stored blob never fails
// construction: malformed credentials are logged, deleted and the client
// starts anonymous.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.ClientID == "" {
		return nil, errors.New("luminous: Config.ClientID is required")
	}
	if cfg.BaseURL == "" {
		return nil, errors.New("luminous: Config.BaseURL is required")
	}

	transport := cfg.Transport
	if transport == nil {
		transport = NewHTTPTransport()
	}
	store := cfg.Store
	if store == nil {
		store = credstore.NewMemory()
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	storageKey := cfg.StorageKey
	if storageKey == "" {
		storageKey = DefaultStorageKey
	}

	c := &Client{
		clientID:   cfg.ClientID,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		authBasic:  "Basic " + base64.StdEncoding.EncodeToString([]byte(cfg.ClientID+":"+cfg.ClientSecret)),
		transport:  transport,
		store:      store,
		log:        log,
		storageKey: storageKey,
		headers:    cfg.RequestHeaders,
	}
	c.restore(ctx)
	return c, nil
}

// restore reads the persisted credential blob, validates its shape, and makes
// the session current. Any failure leaves the client anonymous.
func (c *Client) restore(ctx context.Context) {
	raw, err := c.store.Get(ctx, c.storageKey)
	if errors.Is(err, credstore.ErrNotFound) {
		return
	}
	if err != nil {
		c.log.Warn("could not read stored credentials", "error", err)
		return
	}

	var stored storedSession
	if jsonErr := json.Unmarshal([]byte(raw), &stored); jsonErr != nil || !stored.valid() {
		c.log.Warn("stored credentials are not formatted correctly", "value", raw)
		if delErr := c.store.Delete(ctx, c.storageKey); delErr != nil {
			c.log.Warn("failed to clear malformed stored credentials", "error", delErr)
		}
		return
	}

	c.session = &Session{Token: stored.Token, Refresh: stored.Refresh}
}

// Authenticated reports whether the client currently holds a session. It does
// not verify the session against the server; use LoggedIn for that.
func (c *Client) Authenticated() bool {
	return c.session != nil
}

// CurrentSession returns a copy of the active session, or nil when the client
// is anonymous.
func (c *Client) CurrentSession() *Session {
	if c.session == nil {
		return nil
	}
	s := *c.session
	return &s
}
