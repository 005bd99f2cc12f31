package client

import (
	"context"
	"net/http"
	"net/url"
)

// GetJSON performs an authenticated GET and decodes the JSON body into out.
func GetJSON(ctx context.Context, d Doer, path string, query url.Values, out interface{}) error {
	resp, err := d.Do(ctx, &Request{
		Method:       http.MethodGet,
		Path:         path,
		Query:        query,
		RequiresAuth: true,
	})
	if err != nil {
		return err
	}
	return resp.Decode(out)
}

// PostJSON posts body as JSON and decodes the response into out. A nil out
// discards the response body.
func PostJSON(ctx context.Context, d Doer, path string, body, out interface{}, requiresAuth bool) error {
	resp, err := d.Do(ctx, &Request{
		Method:       http.MethodPost,
		Path:         path,
		Body:         body,
		RequiresAuth: requiresAuth,
	})
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return resp.Decode(out)
}
