package github

import (
	"net/url"

	"prscraper/pkg/ratelimit"
)

// Request describes one logical API request. It is immutable from the
// caller's point of view; the dispatcher copies it before mutating
// pagination parameters.
type Request struct {
	Method   string
	Endpoint string // relative path, e.g. "repos/owner/name/pulls"
	Query    url.Values
	Body     []byte
}

// NewRequest returns a GET request for the given endpoint.
func NewRequest(endpoint string) Request {
	return Request{
		Method:   "GET",
		Endpoint: endpoint,
		Query:    url.Values{},
	}
}

// WithParam returns a copy of the request with one query parameter set.
func (r Request) WithParam(key, value string) Request {
	q := url.Values{}
	for k, vs := range r.Query {
		q[k] = append([]string(nil), vs...)
	}
	q.Set(key, value)
	r.Query = q
	return r
}

// Class returns the rate class the request draws quota from, determined
// by the endpoint path.
func (r Request) Class() ratelimit.Class {
	return ratelimit.ClassFor(r.Endpoint)
}
