package gateway

import (
	"context"
	"net/http"
	"net/url"
)

// DoJSON sends in (when non-nil) as a JSON body and decodes the response
// into out (when non-nil).
func (c *Client) DoJSON(ctx context.Context, method, path string, query url.Values, in, out any) error {
	req := NewRequest(method, path)
	for key, values := range query {
		req.query[key] = append([]string(nil), values...)
	}
	if in != nil {
		var err error
		if req, err = req.WithJSONBody(in); err != nil {
			return err
		}
	}
	resp, err := c.Execute(ctx, req)
	if err != nil {
		return err
	}
	return resp.Decode(out)
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.DoJSON(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	return c.DoJSON(ctx, http.MethodPost, path, nil, in, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.DoJSON(ctx, http.MethodDelete, path, nil, nil, out)
}
