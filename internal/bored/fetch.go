package bored

import (
	"fmt"
	"io"
	"net"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Fetcher performs one logical GET: connect, write the request, read to
// close, parse, and follow redirects up to the attempt budget.
type Fetcher struct {
	userAgent   string
	httpVersion string
	maxAttempts int
	dial        dialFunc
}

func NewFetcher(cfg Config) *Fetcher {
	return &Fetcher{
		userAgent:   cfg.Fetch.UserAgent,
		httpVersion: cfg.Fetch.HTTPVersion,
		maxAttempts: cfg.Fetch.MaxRedirects,
		dial:        net.Dial,
	}
}

// newRequest builds a GET with the default header set. Callers may
// overwrite any of these before sending.
func (f *Fetcher) newRequest(u URI) *Request {
	return &Request{
		URI:     u,
		Version: f.httpVersion,
		Method:  MethodGet,
		Headers: map[string]string{
			headerHost:           u.Authority.Host,
			headerConnection:     "close",
			headerUserAgent:      f.userAgent,
			headerAcceptEncoding: "gzip",
		},
	}
}

// Do fetches the URI, following 3xx responses until a terminal status or
// the attempt budget (first fetch included) runs out.
func (f *Fetcher) Do(u URI) (*Response, error) {
	req := f.newRequest(u)

	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		log.Debugf("attempt %d: %s %s (host %s)", attempt, req.Method, req.URI.Path, req.Headers[headerHost])

		raw, err := f.roundTrip(req)
		if err != nil {
			return nil, err
		}
		resp, err := parseResponse(raw)
		if err != nil {
			return nil, err
		}
		log.Debugf("HTTP/%s %d %s", resp.Version, resp.StatusCode, resp.StatusMessage)

		if resp.StatusCode < 300 || resp.StatusCode > 399 {
			if resp.StatusCode >= 400 {
				log.Debugf("request failed, dumping:\n%s", req.build())
			}
			return resp, nil
		}

		req, err = redirectRequest(req, resp)
		if err != nil {
			return nil, err
		}
	}
	return nil, ErrTooManyRedirects
}

func (f *Fetcher) roundTrip(req *Request) ([]byte, error) {
	conn, err := f.connect(req.URI)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if _, err := io.WriteString(conn, req.build()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWrite, err)
	}
	raw, err := io.ReadAll(conn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRead, err)
	}
	return raw, nil
}

// redirectRequest derives the next request from a 3xx response. An
// absolute http(s) Location replaces the URI wholesale; anything else is
// spliced after the directory of the current path. No dot-segment
// normalization.
func redirectRequest(req *Request, resp *Response) (*Request, error) {
	location, ok := resp.Header(headerLocation)
	if !ok {
		return nil, fmt.Errorf("%w: status %d", ErrMissingLocation, resp.StatusCode)
	}

	next := req.clone()
	if strings.HasPrefix(location, "http") {
		u, err := ParseURI(location)
		if err != nil {
			return nil, err
		}
		next.URI = u
		return next, nil
	}

	if req.URI.Path == "" {
		next.URI.Path = location
		return next, nil
	}
	i := strings.LastIndex(req.URI.Path, "/")
	if i < 0 {
		return nil, fmt.Errorf("%w: unresolvable Location %q against %q", ErrProtocol, location, req.URI.Path)
	}
	next.URI.Path = req.URI.Path[:i] + location
	return next, nil
}
