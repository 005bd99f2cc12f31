// Package client executes requests against the NMC REST API.
//
// A single Client is shared by every tool. It owns the pooled HTTP
// transport and applies the request policy in one place:
//
//   - each attempt, including retries, first acquires a slot from the shared
//     rate limiter
//   - authenticated requests carry "Authorization: <scheme> <token>"
//   - a 401 or 403 triggers one reactive token refresh and one retry; a
//     second rejection is reported as *api.AuthError
//   - connection errors and 5xx responses on GET, HEAD and OPTIONS are retried
//     with capped exponential backoff, then reported as *api.TransientError
//   - other 4xx responses are reported as *api.RequestError without retry
//   - malformed JSON bodies are reported as *api.ParseError
//
// POST, PUT, PATCH and DELETE are never retried after a transient failure.
//
// API clients in the nmc package depend on the Doer interface rather than
// on *Client.
package client
