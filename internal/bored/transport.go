package bored

import (
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
)

// dialFunc opens the raw byte stream. Injectable so tests can point the
// fetcher at a local listener.
type dialFunc func(network, address string) (net.Conn, error)

// connect opens a blocking connection to the URI's authority, wrapping it
// in TLS for https. There is deliberately no timeout and no cancellation:
// one fetch owns one connection end to end.
func (f *Fetcher) connect(u URI) (net.Conn, error) {
	if u.Authority == nil {
		return nil, fmt.Errorf("%w: scheme %s has no authority", ErrConnect, u.Scheme)
	}
	addr := net.JoinHostPort(u.Authority.Host, strconv.Itoa(u.Authority.Port))

	conn, err := f.dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConnect, addr, err)
	}
	if u.Scheme != SchemeHTTPS {
		return conn, nil
	}

	tlsConn := tls.Client(conn, &tls.Config{ServerName: u.Authority.Host})
	if err := tlsConn.Handshake(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: tls %s: %v", ErrConnect, addr, err)
	}
	return tlsConn, nil
}
