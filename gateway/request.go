package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/jrsteele09/fpl-companion/internal/errors"
)

// PendingRequest describes a backend call before credentials are attached.
// Every method returns a modified copy; a PendingRequest is never changed in
// place, so the gateway can rebuild the exact same call for its one replay.
type PendingRequest struct {
	method   string
	path     string
	query    url.Values
	body     []byte
	header   http.Header
	replayed bool
}

func NewRequest(method, path string) PendingRequest {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return PendingRequest{
		method: strings.ToUpper(method),
		path:   path,
		query:  url.Values{},
		header: http.Header{},
	}
}

func (r PendingRequest) Method() string { return r.method }
func (r PendingRequest) Path() string   { return r.path }

// Replayed reports whether this copy is the post-refresh replay.
func (r PendingRequest) Replayed() bool { return r.replayed }

// Header returns a copy of the request headers.
func (r PendingRequest) Header() http.Header { return r.header.Clone() }

func (r PendingRequest) WithQuery(key, value string) PendingRequest {
	c := r.clone()
	c.query.Set(key, value)
	return c
}

func (r PendingRequest) WithHeader(key, value string) PendingRequest {
	c := r.clone()
	c.header.Set(key, value)
	return c
}

func (r PendingRequest) WithBody(contentType string, body []byte) PendingRequest {
	c := r.clone()
	c.body = bytes.Clone(body)
	if contentType != "" {
		c.header.Set("Content-Type", contentType)
	}
	return c
}

func (r PendingRequest) WithJSONBody(v any) (PendingRequest, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return r, errors.Wrapf(errors.ErrInvalidRequest, "[gateway WithJSONBody] %v", err)
	}
	return r.WithBody("application/json", data), nil
}

func (r PendingRequest) withBearer(token string) PendingRequest {
	return r.WithHeader("Authorization", "Bearer "+token)
}

// replay returns the copy used for the single post-refresh retry.
func (r PendingRequest) replay() (PendingRequest, error) {
	if r.replayed {
		return r, errors.ErrAlreadyReplayed
	}
	c := r.clone()
	c.replayed = true
	return c, nil
}

func (r PendingRequest) clone() PendingRequest {
	c := r
	c.query = url.Values{}
	for k, v := range r.query {
		c.query[k] = append([]string(nil), v...)
	}
	c.header = r.header.Clone()
	if c.header == nil {
		c.header = http.Header{}
	}
	return c
}

func (r PendingRequest) build(ctx context.Context, base *url.URL) (*http.Request, error) {
	u := *base
	u.Path = strings.TrimRight(base.Path, "/") + r.path
	u.RawPath = ""
	u.RawQuery = r.query.Encode()

	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, u.String(), body)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidRequest, "[gateway build] %v", err)
	}
	req.Header = r.header.Clone()
	if req.Header == nil {
		req.Header = http.Header{}
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	return req, nil
}
