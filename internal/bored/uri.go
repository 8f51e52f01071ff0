package bored

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type Scheme int

const (
	SchemeHTTP Scheme = iota
	SchemeHTTPS
	SchemeFile
	SchemeData
)

func (s Scheme) String() string {
	switch s {
	case SchemeHTTP:
		return "http"
	case SchemeHTTPS:
		return "https"
	case SchemeFile:
		return "file"
	case SchemeData:
		return "data"
	}
	return "unknown"
}

// FlagViewSource marks a URI that was wrapped in a view-source: prefix.
// view-source is not a wire scheme of its own; the nested scheme is what
// goes on the wire, the flag only changes rendering.
const FlagViewSource = "view-source"

const (
	defaultHTTPPort  = 80
	defaultHTTPSPort = 443
)

// Authority is present if and only if the scheme is http or https.
type Authority struct {
	Host     string
	Port     int
	Userinfo string
}

type URI struct {
	Scheme    Scheme
	Authority *Authority
	Path      string
	Flags     map[string]bool
}

func (u URI) ViewSource() bool { return u.Flags[FlagViewSource] }

var schemeToken = regexp.MustCompile(`^(\w[\w\d+\-.]*):`)

// ParseURI splits raw at the first colon using the scheme token grammar and
// hands the remainder to the scheme-specific parser. A redirect or a
// view-source wrapper always produces a new URI, never mutates one in place.
func ParseURI(raw string) (URI, error) {
	m := schemeToken.FindStringSubmatch(raw)
	if m == nil {
		return URI{}, fmt.Errorf("%w: no scheme in %q", ErrMalformedURI, raw)
	}
	scheme, rest := m[1], raw[len(m[0]):]

	switch scheme {
	case "view-source":
		inner, err := ParseURI(rest)
		if err != nil {
			return URI{}, err
		}
		flags := make(map[string]bool, len(inner.Flags)+1)
		for k, v := range inner.Flags {
			flags[k] = v
		}
		flags[FlagViewSource] = true
		inner.Flags = flags
		return inner, nil
	case "http":
		return parseNetwork(SchemeHTTP, defaultHTTPPort, rest)
	case "https":
		return parseNetwork(SchemeHTTPS, defaultHTTPSPort, rest)
	case "file":
		return URI{Scheme: SchemeFile, Path: strings.TrimPrefix(rest, "//")}, nil
	case "data":
		// The whole remainder is the payload, content-type prefix included.
		return URI{Scheme: SchemeData, Path: rest}, nil
	}
	return URI{}, fmt.Errorf("%w: unknown scheme %q", ErrMalformedURI, scheme)
}

func parseNetwork(scheme Scheme, defaultPort int, rest string) (URI, error) {
	rest = strings.TrimPrefix(rest, "//")

	hostPart := rest
	path := "/"
	if i := strings.Index(rest, "/"); i >= 0 {
		hostPart, path = rest[:i], rest[i:]
	}

	auth := &Authority{Port: defaultPort}
	if i := strings.Index(hostPart, "@"); i >= 0 {
		auth.Userinfo, hostPart = hostPart[:i], hostPart[i+1:]
	}
	if i := strings.Index(hostPart, ":"); i >= 0 {
		port, err := strconv.Atoi(hostPart[i+1:])
		if err != nil || port < 0 || port > 65535 {
			return URI{}, fmt.Errorf("%w: bad port %q", ErrMalformedURI, hostPart[i+1:])
		}
		auth.Port = port
		hostPart = hostPart[:i]
	}
	auth.Host = hostPart

	return URI{Scheme: scheme, Authority: auth, Path: path}, nil
}
