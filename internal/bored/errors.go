package bored

import "errors"

// Fatal errors abort the fetch. ErrCacheMiss and ErrUnsupportedMethod are
// recoverable: they mean "go to the network", not "fail the load".
var (
	ErrMalformedURI      = errors.New("malformed uri")
	ErrConnect           = errors.New("connect failure")
	ErrWrite             = errors.New("write failure")
	ErrRead              = errors.New("read failure")
	ErrProtocol          = errors.New("protocol violation")
	ErrMissingLocation   = errors.New("redirect without Location header")
	ErrTooManyRedirects  = errors.New("too many redirects")
	ErrEncoding          = errors.New("body is not valid utf-8 text")
	ErrCacheMiss         = errors.New("not found in cache")
	ErrUnsupportedMethod = errors.New("method not cacheable")
)
