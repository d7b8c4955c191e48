package luminous

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/luminous-money/client-go/pkg/credstore"
)

/*
 * Shared fixtures for the client tests: a scripted transport that replays
 * queued responses per method+path and records every request it saw, plus
 * helpers for crafting envelope responses.
 */

const (
	testClientID  = "abcde"
	testSecret    = "12345"
	testBaseURL   = "https://api.example.com"
	testToken     = "aaaabbbb"
	testRefresh   = "11112222"
	testBasicAuth = "Basic YWJjZGU6MTIzNDU=" // base64("abcde:12345")
)

type scriptedTransport struct {
	t         *testing.T
	responses map[string][]*Response
	requests  []*Request
}

func newScriptedTransport(t *testing.T) *scriptedTransport {
	return &scriptedTransport{t: t, responses: make(map[string][]*Response)}
}

func (f *scriptedTransport) queue(method, path string, resp *Response) {
	key := method + " " + path
	f.responses[key] = append(f.responses[key], resp)
}

func (f *scriptedTransport) Do(_ context.Context, req *Request) (*Response, error) {
	f.requests = append(f.requests, cloneRequest(req))

	key := req.Method + " " + req.Path
	queue := f.responses[key]
	if len(queue) == 0 {
		f.t.Fatalf("unexpected request: %s", key)
	}
	resp := queue[0]
	f.responses[key] = queue[1:]
	return resp, nil
}

// cloneRequest snapshots a request. The executor reuses its request value for
// the post-refresh retry, so recorded headers must be copied.
func cloneRequest(req *Request) *Request {
	clone := *req
	clone.Headers = make(map[string]string, len(req.Headers))
	for k, v := range req.Headers {
		clone.Headers[k] = v
	}
	return &clone
}

func errorResponse(status int, code, detail string) *Response {
	return &Response{
		Status: status,
		Envelope: Envelope{
			T: TagError,
			Error: &ErrorBody{
				Status: status,
				Code:   code,
				Detail: detail,
			},
		},
	}
}

func http401Response() *Response {
	return errorResponse(401, "NOT_AUTHORIZED", "Invalid login credentials")
}

func http500Response() *Response {
	return errorResponse(500, "INTERNAL_SERVER_ERROR", "Something went wrong")
}

func singleResponse(data string) *Response {
	return &Response{
		Status:   200,
		Envelope: Envelope{T: TagSingle, Data: json.RawMessage(data)},
	}
}

func sessionResponse(token, refresh string) *Response {
	return singleResponse(fmt.Sprintf(`{"t":"session","token":%q,"refresh":%q}`, token, refresh))
}

func stepResponse(step, state string) *Response {
	return singleResponse(fmt.Sprintf(`{"t":"step","step":%q,"state":%q}`, step, state))
}

// collectionResponse builds a paginated collection envelope. Nil cursors stay
// null on the wire, matching a page at the edge of the result set.
func collectionResponse(data string, next, prev *string) *Response {
	return &Response{
		Status: 200,
		Envelope: Envelope{
			T:    TagCollection,
			Data: json.RawMessage(data),
			Meta: &Meta{Pg: PageMeta{Size: 25, NextCursor: next, PrevCursor: prev}},
		},
	}
}

func cursor(v string) *string { return &v }

func nullResponse() *Response {
	return &Response{
		Status:   200,
		Envelope: Envelope{T: TagNull, Data: json.RawMessage("null")},
	}
}

func storedBlob(token, refresh string) string {
	return fmt.Sprintf(`{"t":"session","token":%q,"refresh":%q}`, token, refresh)
}

// newTestClient builds a client against the scripted transport and the given
// store, muting log output.
func newTestClient(t *testing.T, transport Transport, store credstore.Store) *Client {
	t.Helper()

	if store == nil {
		store = credstore.NewMemory()
	}
	client, err := New(context.Background(), Config{
		ClientID:     testClientID,
		ClientSecret: testSecret,
		BaseURL:      testBaseURL,
		Transport:    transport,
		Store:        store,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("failed to construct client: %v", err)
	}
	return client
}

// newAuthedClient builds a client whose store already holds a session, so it
// restores authenticated.
func newAuthedClient(t *testing.T, transport Transport) (*Client, credstore.Store) {
	t.Helper()

	store := credstore.NewMemory()
	if err := store.Set(context.Background(), DefaultStorageKey, storedBlob(testToken, testRefresh)); err != nil {
		t.Fatalf("failed to seed store: %v", err)
	}
	return newTestClient(t, transport, store), store
}
