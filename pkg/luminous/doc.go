/*
Package luminous provides a client for the Luminous Money REST APIs. It is a
somewhat bare-bones client: it adds session management, automatic
re-authentication, error handling and cursor pagination around the raw HTTP
API, and otherwise stays out of the way.

# Construction

A Client is built from a Config naming the client credential, the API base
URL, and optional collaborators (transport, credential store, logger):

	store := credstore.NewFile(path)
	client, err := luminous.New(ctx, luminous.Config{
		ClientID:     "my-client",
		ClientSecret: "secret",
		BaseURL:      "https://api.luminous.example.com",
		Store:        store,
	})

Construction restores any session previously persisted in the credential
store. Malformed stored credentials are logged and discarded, never fatal:
the client simply starts anonymous.

# Sessions

Login returns a tagged LoginResult rather than throwing on the outcomes a
caller is expected to react to:

	result, err := client.Login(ctx, email, password)
	if err != nil {
		return err // transport failure or protocol violation
	}
	switch result.Status {
	case luminous.LoginSuccess:
		// authenticated; session persisted
	case luminous.LoginEmailPending:
		// user must confirm via email
	case luminous.LoginSecondFactor:
		result, err = client.CompleteTOTP(ctx, result.TOTPState, oneTimeCode)
	case luminous.LoginRejected:
		// bad password or unknown email; re-prompt using result.Err
	}

# Automatic re-authentication

Every data call (Get, Post, Patch, Delete, List/Next/Prev) runs through a
single retry policy: on a 401 with an active session the client refreshes the
session once; a successful refresh reissues the original request exactly once
more, a failed refresh surfaces the failure. At most three round trips ever
happen for one logical call, and a second 401 is returned, never looped.

# Pagination

List fetches an initial page; Next and Prev follow the response's opaque
cursors, carrying the page size and sort specification forward:

	page, err := client.List(ctx, "/budget/v1/transactions", map[string]any{
		"pg": map[string]any{"size": 25},
	})
	for err == nil {
		// consume page.Response ...
		page, err = client.Next(ctx, page)
	}
	if !errors.Is(err, luminous.ErrEndOfResults) {
		return err
	}

# Concurrency

A Client performs strictly sequential I/O per call and holds exactly one
session. It does not serialize concurrent calls: two racing 401s will both
refresh, and the last refresh applied wins. See Client for details.
*/
package luminous
