package bored

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

type Method int

const (
	MethodGet Method = iota
	MethodHead
	MethodPost
	MethodPut
	MethodDelete
	MethodConnect
	MethodOptions
	MethodTrace
)

func (m Method) String() string {
	switch m {
	case MethodGet:
		return "GET"
	case MethodHead:
		return "HEAD"
	case MethodPost:
		return "POST"
	case MethodPut:
		return "PUT"
	case MethodDelete:
		return "DELETE"
	case MethodConnect:
		return "CONNECT"
	case MethodOptions:
		return "OPTIONS"
	case MethodTrace:
		return "TRACE"
	}
	return "GET"
}

const (
	headerAcceptEncoding   = "Accept-Encoding"
	headerConnection       = "Connection"
	headerContentEncoding  = "Content-Encoding"
	headerHost             = "Host"
	headerLocation         = "Location"
	headerTransferEncoding = "Transfer-Encoding"
	headerUserAgent        = "User-Agent"
)

type Request struct {
	URI     URI
	Version string
	Method  Method
	Headers map[string]string
	Body    string
}

// build serializes the request line and headers. Header order is not
// significant on the wire.
func (r *Request) build() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s HTTP/%s\r\n", r.Method, r.URI.Path, r.Version)
	for k, v := range r.Headers {
		sb.WriteString(k)
		sb.WriteString(": ")
		sb.WriteString(v)
		sb.WriteString("\r\n")
	}
	sb.WriteString("\r\n\r\n")
	return sb.String()
}

func (r *Request) clone() *Request {
	next := *r
	next.Headers = make(map[string]string, len(r.Headers))
	for k, v := range r.Headers {
		next.Headers[k] = v
	}
	return &next
}

type Response struct {
	Version       string
	StatusCode    int
	StatusMessage string
	Headers       map[string]string
	Body          string
}

// Header looks a header up by name. Names are stored as received but
// compared case-insensitively.
func (r *Response) Header(name string) (string, bool) {
	for k, v := range r.Headers {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

// parseResponse decodes a full HTTP/1.x response held in memory: status
// line, headers, body framing (chunked or read-to-close) and content
// decoding (gzip or plain UTF-8 text).
func parseResponse(raw []byte) (*Response, error) {
	rd := bufio.NewReader(bytes.NewReader(raw))

	statusLine, err := rd.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("%w: missing status line", ErrProtocol)
	}
	parts := strings.Split(strings.TrimRight(statusLine, "\r\n"), " ")
	if len(parts) < 3 {
		return nil, fmt.Errorf("%w: short status line %q", ErrProtocol, statusLine)
	}
	if !strings.HasPrefix(parts[0], "HTTP/") {
		return nil, fmt.Errorf("%w: bad status line %q", ErrProtocol, statusLine)
	}
	code, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil || code < 100 || code > 599 {
		return nil, fmt.Errorf("%w: bad status code %q", ErrProtocol, parts[1])
	}

	resp := &Response{
		Version:       strings.TrimPrefix(parts[0], "HTTP/"),
		StatusCode:    int(code),
		StatusMessage: strings.Join(parts[2:], " "),
		Headers:       map[string]string{},
	}

	for {
		line, err := rd.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("%w: truncated headers", ErrProtocol)
		}
		if line == "\r\n" || line == "\n" {
			break
		}
		name, value, found := strings.Cut(line, ":")
		if !found {
			name = strings.TrimRight(name, "\r\n")
		}
		// Duplicate names overwrite, last wins.
		resp.Headers[name] = strings.TrimSpace(value)
	}

	body, err := readBody(rd, resp)
	if err != nil {
		return nil, err
	}

	if ce, ok := resp.Header(headerContentEncoding); ok {
		if ce != "gzip" {
			return nil, fmt.Errorf("%w: unexpected content-encoding %q", ErrProtocol, ce)
		}
		body, err = gunzip(body)
		if err != nil {
			return nil, err
		}
	}
	if !utf8.Valid(body) {
		return nil, ErrEncoding
	}
	resp.Body = string(body)
	return resp, nil
}

func readBody(rd *bufio.Reader, resp *Response) ([]byte, error) {
	te, framed := resp.Header(headerTransferEncoding)
	if !framed {
		// No Content-Length handling: Connection: close means the peer
		// closing the stream delimits the body.
		body, err := io.ReadAll(rd)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRead, err)
		}
		return body, nil
	}
	if te != "chunked" {
		return nil, fmt.Errorf("%w: unexpected transfer-encoding %q", ErrProtocol, te)
	}

	var body []byte
	for {
		sizeLine, err := rd.ReadString('\n')
		if err == io.EOF && sizeLine == "" {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: truncated chunk size", ErrProtocol)
		}
		size, err := strconv.ParseUint(strings.TrimRight(sizeLine, "\r\n"), 16, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad chunk size %q", ErrProtocol, sizeLine)
		}
		if size == 0 {
			break
		}
		chunk := make([]byte, size)
		if _, err := io.ReadFull(rd, chunk); err != nil {
			return nil, fmt.Errorf("%w: truncated chunk", ErrProtocol)
		}
		body = append(body, chunk...)

		// Swallow the CRLF that terminates the chunk data.
		var sep [2]byte
		if _, err := io.ReadFull(rd, sep[:]); err != nil {
			break
		}
	}
	return body, nil
}

func gunzip(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: gzip: %v", ErrEncoding, err)
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: gzip: %v", ErrEncoding, err)
	}
	return out, nil
}
