package luminous

import (
	"encoding/json"
	"errors"
)

// ============================================================================
// Wire Envelope
// ============================================================================

// Envelope tag values. Every API response body is wrapped in an envelope
// discriminated by its "t" field.
const (
	TagError      = "error"
	TagSingle     = "single"
	TagCollection = "collection"
	TagNull       = "null"
)

// Envelope is the tagged wrapper around every API response body.
type Envelope struct {
	// T is the envelope discriminant: "error", "single", "collection" or "null".
	T string `json:"t,omitempty"`

	// Data carries the resource payload: a single object for "single",
	// an array for "collection", and JSON null for "null".
	Data json.RawMessage `json:"data,omitempty"`

	// Error is populated only on "error" envelopes.
	Error *ErrorBody `json:"error,omitempty"`

	// Meta carries pagination metadata on "collection" envelopes.
	Meta *Meta `json:"meta,omitempty"`

	// Included carries side-loaded related records, when the endpoint
	// supports them.
	Included []IncludedRecord `json:"included,omitempty"`
}

// DecodeData unmarshals the envelope's data payload into v.
func (e *Envelope) DecodeData(v any) error {
	if len(e.Data) == 0 {
		return errors.New("luminous: envelope has no data payload")
	}
	return json.Unmarshal(e.Data, v)
}

// Meta is the metadata block of a collection envelope.
type Meta struct {
	Pg PageMeta `json:"pg"`
}

// PageMeta describes the page window of a collection response. Cursors are
// opaque server-defined tokens; a nil cursor means there is no adjacent page
// in that direction.
type PageMeta struct {
	Size       int     `json:"size"`
	NextCursor *string `json:"nextCursor,omitempty"`
	PrevCursor *string `json:"prevCursor,omitempty"`

	// Sort is the sort specification echoed back from the request, if any.
	Sort string `json:"sort,omitempty"`
}

// ErrorBody is the error payload of an "error" envelope.
type ErrorBody struct {
	Status       int           `json:"status"`
	Code         string        `json:"code,omitempty"`
	Title        string        `json:"title,omitempty"`
	Detail       string        `json:"detail"`
	Obstructions []Obstruction `json:"obstructions,omitempty"`
}

// Obstruction is a structured sub-error explaining one reason a request was
// refused.
type Obstruction struct {
	Code   string         `json:"code"`
	Text   string         `json:"text"`
	Params map[string]any `json:"params,omitempty"`
}

// ============================================================================
// Session
// ============================================================================

// Session is the pair of opaque tokens representing an authenticated
// principal. A Session is either fully present (both tokens populated) or the
// client is anonymous; there is no partial state.
type Session struct {
	// Token is the access token presented as the bearer credential.
	Token string

	// Refresh is used solely to mint a new access token.
	Refresh string
}

// storedSession is the serialized credential-store form, carrying the tagged
// session marker so malformed blobs can be detected on restore.
type storedSession struct {
	T       string `json:"t"`
	Token   string `json:"token"`
	Refresh string `json:"refresh"`
}

func (s storedSession) valid() bool {
	return s.T == "session" && s.Token != "" && s.Refresh != ""
}

// loginData is the inner payload of a login-flow response: either a session
// or a request for a further authentication step, discriminated by T.
type loginData struct {
	T       string `json:"t"`
	Step    string `json:"step,omitempty"`
	State   string `json:"state,omitempty"`
	Token   string `json:"token,omitempty"`
	Refresh string `json:"refresh,omitempty"`
}

// ============================================================================
// Login Outcome
// ============================================================================

// LoginStatus discriminates the outcome of a login or second-factor attempt.
type LoginStatus string

const (
	// LoginSuccess means a session was obtained and stored.
	LoginSuccess LoginStatus = "success"

	// LoginEmailPending means the server requires out-of-band email
	// confirmation; no session exists yet.
	LoginEmailPending LoginStatus = "email-pending"

	// LoginSecondFactor means the server requires a one-time code;
	// TOTPState carries the continuation code for CompleteTOTP.
	LoginSecondFactor LoginStatus = "second-factor-required"

	// LoginRejected means the server refused syntactically valid
	// credentials; Err carries the structured rejection.
	LoginRejected LoginStatus = "rejected"
)

// LoginResult is the tagged outcome of Login or CompleteTOTP. Exactly the
// fields implied by Status are populated.
type LoginResult struct {
	Status LoginStatus

	// TOTPState is the opaque continuation code for the second-factor step.
	// Set only when Status is LoginSecondFactor.
	TOTPState string

	// Err is the server's structured rejection. Set only when Status is
	// LoginRejected; rejections are returned, never thrown, because the
	// caller is expected to re-prompt the user.
	Err *APIError
}
