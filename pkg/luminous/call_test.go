package luminous

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

const itemsPath = "/accounts/v2/items"

func TestCallHeaders(t *testing.T) {
	t.Parallel()

	t.Run("anonymous calls carry only the client credential", func(t *testing.T) {
		transport := newScriptedTransport(t)
		transport.queue("GET", itemsPath, nullResponse())

		client := newTestClient(t, transport, nil)
		_, err := client.Call(context.Background(), http.MethodGet, itemsPath, nil)
		require.NoError(t, err)

		req := transport.requests[0]
		require.Equal(t, testBasicAuth, req.Headers["Authorization"])
		require.Equal(t, "application/json", req.Headers["Content-Type"])
	})

	t.Run("authenticated calls append the bearer segment", func(t *testing.T) {
		transport := newScriptedTransport(t)
		transport.queue("GET", itemsPath, nullResponse())

		client, _ := newAuthedClient(t, transport)
		_, err := client.Call(context.Background(), http.MethodGet, itemsPath, nil)
		require.NoError(t, err)

		auth := transport.requests[0].Headers["Authorization"]
		require.Equal(t, testBasicAuth+",Bearer session:"+testToken, auth)
	})

	t.Run("caller authorization is folded in, not duplicated", func(t *testing.T) {
		transport := newScriptedTransport(t)
		transport.queue("GET", itemsPath, nullResponse())

		client, _ := newAuthedClient(t, transport)
		_, err := client.Call(context.Background(), http.MethodGet, itemsPath, &CallOptions{
			Headers: map[string]string{"authorization": "Api-Key abc"},
		})
		require.NoError(t, err)

		req := transport.requests[0]
		require.Equal(t, testBasicAuth+",Api-Key abc,Bearer session:"+testToken, req.Headers["Authorization"])
		require.NotContains(t, req.Headers, "authorization")
	})

	t.Run("caller content type wins over the JSON default", func(t *testing.T) {
		transport := newScriptedTransport(t)
		transport.queue("POST", itemsPath, nullResponse())

		client := newTestClient(t, transport, nil)
		_, err := client.Call(context.Background(), http.MethodPost, itemsPath, &CallOptions{
			Headers: map[string]string{"content-type": "text/csv"},
			Body:    "a,b,c",
		})
		require.NoError(t, err)

		req := transport.requests[0]
		require.Equal(t, "text/csv", req.Headers["Content-Type"])
		require.NotContains(t, req.Headers, "content-type")
	})

	t.Run("standing client headers ride along", func(t *testing.T) {
		transport := newScriptedTransport(t)
		transport.queue("GET", itemsPath, nullResponse())

		client := newTestClient(t, transport, nil)
		client.headers = map[string]string{"X-Tenant": "acme"}

		_, err := client.Call(context.Background(), http.MethodGet, itemsPath, nil)
		require.NoError(t, err)
		require.Equal(t, "acme", transport.requests[0].Headers["X-Tenant"])
	})
}

func TestCallAutoRefresh(t *testing.T) {
	t.Parallel()

	t.Run("refreshes once and retries on 401", func(t *testing.T) {
		ctx := context.Background()
		transport := newScriptedTransport(t)
		transport.queue("GET", itemsPath, http401Response())
		transport.queue("POST", refreshPath, sessionResponse("tok2", "ref2"))
		transport.queue("GET", itemsPath, singleResponse(`{"id":"i1","type":"items"}`))

		client, store := newAuthedClient(t, transport)
		resp, err := client.Call(ctx, http.MethodGet, itemsPath, nil)
		require.NoError(t, err)
		require.Equal(t, 200, resp.Status)
		require.Len(t, transport.requests, 3)

		// The retry carries the refreshed token.
		retry := transport.requests[2]
		require.Equal(t, testBasicAuth+",Bearer session:tok2", retry.Headers["Authorization"])

		// The new session is persisted.
		blob, err := store.Get(ctx, DefaultStorageKey)
		require.NoError(t, err)
		require.JSONEq(t, storedBlob("tok2", "ref2"), blob)
	})

	t.Run("failed refresh returns the refresh failure", func(t *testing.T) {
		transport := newScriptedTransport(t)
		transport.queue("GET", itemsPath, http401Response())
		refreshFailure := errorResponse(401, "INVALID-REFRESH-TOKEN", "Expired")
		transport.queue("POST", refreshPath, refreshFailure)

		client, _ := newAuthedClient(t, transport)
		resp, err := client.Call(context.Background(), http.MethodGet, itemsPath, nil)
		require.NoError(t, err)
		require.Same(t, refreshFailure, resp)
		require.Len(t, transport.requests, 2)
	})

	t.Run("only one refresh attempt per call", func(t *testing.T) {
		transport := newScriptedTransport(t)
		transport.queue("GET", itemsPath, http401Response())
		transport.queue("POST", refreshPath, sessionResponse("tok2", "ref2"))
		transport.queue("GET", itemsPath, http401Response())

		client, _ := newAuthedClient(t, transport)
		resp, err := client.Call(context.Background(), http.MethodGet, itemsPath, nil)
		require.NoError(t, err)
		require.Equal(t, 401, resp.Status)
		require.Len(t, transport.requests, 3)
	})

	t.Run("non-401 failures pass through without refreshing", func(t *testing.T) {
		transport := newScriptedTransport(t)
		transport.queue("GET", itemsPath, http500Response())

		client, _ := newAuthedClient(t, transport)
		resp, err := client.Call(context.Background(), http.MethodGet, itemsPath, nil)
		require.NoError(t, err)
		require.Equal(t, 500, resp.Status)
		require.Len(t, transport.requests, 1)
	})

	t.Run("anonymous 401 passes through without refreshing", func(t *testing.T) {
		transport := newScriptedTransport(t)
		transport.queue("GET", itemsPath, http401Response())

		client := newTestClient(t, transport, nil)
		resp, err := client.Call(context.Background(), http.MethodGet, itemsPath, nil)
		require.NoError(t, err)
		require.Equal(t, 401, resp.Status)
		require.Len(t, transport.requests, 1)
	})

	t.Run("malformed refresh payload is a protocol violation", func(t *testing.T) {
		transport := newScriptedTransport(t)
		transport.queue("GET", itemsPath, http401Response())
		transport.queue("POST", refreshPath, singleResponse(`{"t":"session"}`))

		client, _ := newAuthedClient(t, transport)
		_, err := client.Call(context.Background(), http.MethodGet, itemsPath, nil)
		require.ErrorIs(t, err, ErrProtocolViolation)
	})
}

func TestGet(t *testing.T) {
	t.Parallel()

	t.Run("flattens nested params", func(t *testing.T) {
		transport := newScriptedTransport(t)
		transport.queue("GET", itemsPath, collectionResponse(`[]`, nil, nil))

		client := newTestClient(t, transport, nil)
		_, err := client.Get(context.Background(), itemsPath, map[string]any{
			"pg":     map[string]any{"size": 25, "cursor": "abc"},
			"filter": "open",
		})
		require.NoError(t, err)

		query := transport.requests[0].Query
		require.Equal(t, "25", query["pg[size]"])
		require.Equal(t, "abc", query["pg[cursor]"])
		require.Equal(t, "open", query["filter"])
	})

	t.Run("error envelopes become APIError", func(t *testing.T) {
		transport := newScriptedTransport(t)
		transport.queue("GET", itemsPath, errorResponse(404, "NOT-FOUND", "No such item"))

		client := newTestClient(t, transport, nil)
		_, err := client.Get(context.Background(), itemsPath, nil)

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, 404, apiErr.Status)
		require.Equal(t, "NOT-FOUND", apiErr.Code)
	})

	t.Run("returns non-error envelopes unchanged", func(t *testing.T) {
		transport := newScriptedTransport(t)
		transport.queue("GET", itemsPath, nullResponse())

		client := newTestClient(t, transport, nil)
		env, err := client.Get(context.Background(), itemsPath, nil)
		require.NoError(t, err)
		require.Equal(t, TagNull, env.T)
	})
}

func TestPostAndPatch(t *testing.T) {
	t.Parallel()

	t.Run("wraps the body in a data envelope", func(t *testing.T) {
		transport := newScriptedTransport(t)
		transport.queue("POST", itemsPath, singleResponse(`{"id":"i1","type":"items"}`))

		client := newTestClient(t, transport, nil)
		env, err := client.Post(context.Background(), itemsPath, map[string]string{"name": "groceries"})
		require.NoError(t, err)
		require.Equal(t, TagSingle, env.T)

		body, ok := transport.requests[0].Body.(map[string]any)
		require.True(t, ok)
		require.Contains(t, body, "data")
	})

	t.Run("patch uses the PATCH method", func(t *testing.T) {
		transport := newScriptedTransport(t)
		transport.queue("PATCH", itemsPath, singleResponse(`{"id":"i1","type":"items"}`))

		client := newTestClient(t, transport, nil)
		_, err := client.Patch(context.Background(), itemsPath, map[string]string{"name": "renamed"})
		require.NoError(t, err)
		require.Equal(t, http.MethodPatch, transport.requests[0].Method)
	})

	t.Run("errors are thrown", func(t *testing.T) {
		transport := newScriptedTransport(t)
		transport.queue("POST", itemsPath, errorResponse(422, "VALIDATION", "Name required"))

		client := newTestClient(t, transport, nil)
		_, err := client.Post(context.Background(), itemsPath, map[string]string{})

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, 422, apiErr.Status)
	})

	t.Run("collection and null results are protocol violations", func(t *testing.T) {
		transport := newScriptedTransport(t)
		transport.queue("POST", itemsPath, collectionResponse(`[]`, nil, nil))
		transport.queue("POST", itemsPath, nullResponse())

		client := newTestClient(t, transport, nil)
		_, err := client.Post(context.Background(), itemsPath, map[string]string{"name": "x"})
		require.ErrorIs(t, err, ErrProtocolViolation)

		_, err = client.Post(context.Background(), itemsPath, map[string]string{"name": "x"})
		require.ErrorIs(t, err, ErrProtocolViolation)
	})
}

func TestDelete(t *testing.T) {
	t.Parallel()

	t.Run("null result is legitimate", func(t *testing.T) {
		transport := newScriptedTransport(t)
		transport.queue("DELETE", itemsPath+"/i1", nullResponse())

		client := newTestClient(t, transport, nil)
		env, err := client.Delete(context.Background(), itemsPath+"/i1")
		require.NoError(t, err)
		require.Equal(t, TagNull, env.T)
	})

	t.Run("errors are thrown", func(t *testing.T) {
		transport := newScriptedTransport(t)
		transport.queue("DELETE", itemsPath+"/i1", errorResponse(403, "FORBIDDEN", "Not yours"))

		client := newTestClient(t, transport, nil)
		_, err := client.Delete(context.Background(), itemsPath+"/i1")

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, 403, apiErr.Status)
	})
}
