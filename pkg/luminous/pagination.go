package luminous

import (
	"context"
	"errors"
	"fmt"
)

// Page freezes the endpoint, the exact request parameters and the resulting
// collection envelope of one paginated read, so adjacent pages can be fetched
// without the caller re-deriving anything.
type Page struct {
	Endpoint string
	Params   map[string]any
	Response *Envelope
}

// Items unmarshals the page's collection data into v.
func (p *Page) Items(v any) error {
	if p.Response == nil {
		return errors.New("luminous: page has no response")
	}
	return p.Response.DecodeData(v)
}

// direction selects which cursor of a page's metadata to follow.
type direction int

const (
	forward direction = iota
	backward
)

// List fetches the initial page of a collection using the caller's parameters
// unmodified.
func (c *Client) List(ctx context.Context, endpoint string, params map[string]any) (*Page, error) {
	return c.fetchPage(ctx, endpoint, params)
}

// Next fetches the page after p. When p carries no next cursor it returns
// ErrEndOfResults without any network call.
func (c *Client) Next(ctx context.Context, p *Page) (*Page, error) {
	return c.advance(ctx, forward, p)
}

// Prev fetches the page before p. When p carries no previous cursor it
// returns ErrEndOfResults without any network call.
func (c *Client) Prev(ctx context.Context, p *Page) (*Page, error) {
	return c.advance(ctx, backward, p)
}

// advance computes the adjacent page's parameters from p's envelope metadata:
// the directional cursor, the prior page size, and the prior sort
// specification when one was echoed back.
func (c *Client) advance(ctx context.Context, dir direction, p *Page) (*Page, error) {
	if p == nil || p.Response == nil {
		return nil, errors.New("luminous: cannot advance from a nil page")
	}

	var meta PageMeta
	if p.Response.Meta != nil {
		meta = p.Response.Meta.Pg
	}

	cursor := meta.NextCursor
	if dir == backward {
		cursor = meta.PrevCursor
	}
	if cursor == nil || *cursor == "" {
		return nil, ErrEndOfResults
	}

	params := make(map[string]any, len(p.Params)+2)
	for k, v := range p.Params {
		params[k] = v
	}
	params["pg"] = map[string]any{
		"size":   meta.Size,
		"cursor": *cursor,
	}
	if meta.Sort != "" {
		params["sort"] = meta.Sort
	}

	return c.fetchPage(ctx, p.Endpoint, params)
}

func (c *Client) fetchPage(ctx context.Context, endpoint string, params map[string]any) (*Page, error) {
	env, err := c.Get(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}
	if env.T != TagCollection {
		return nil, fmt.Errorf(
			"luminous: pagination only handles collection responses, GET %s returned %q: %w",
			endpoint, env.T, ErrProtocolViolation,
		)
	}
	return &Page{Endpoint: endpoint, Params: params, Response: env}, nil
}
