package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"budgetbuddy/internal/core"
)

const maxBodyBytes = 1 << 20

var errBadBody = errors.New("invalid request body")

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return errBadBody
	}
	return nil
}

// parseFilter extracts the transaction list view parameters from the
// query string. Unknown type and sort values fall back to the defaults
// rather than failing the request.
func parseFilter(r *http.Request) core.Filter {
	q := r.URL.Query()

	f := core.Filter{
		Search: q.Get("search"),
		Type:   q.Get("type"),
		Sort:   q.Get("sort"),
	}
	if f.Type != core.FilterIncome && f.Type != core.FilterExpense {
		f.Type = core.FilterAll
	}
	if f.Sort != core.SortAsc {
		f.Sort = core.SortDesc
	}
	return f
}

// sessionToken pulls the session token from the cookie, falling back to
// a bearer Authorization header for non-browser clients.
func sessionToken(r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	const prefix = "Bearer "
	if h := r.Header.Get("Authorization"); len(h) > len(prefix) && h[:len(prefix)] == prefix {
		return h[len(prefix):]
	}
	return ""
}
