package bored

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Browser wires the parser, fetcher, cache and renderer into one load
// path: parse the identifier, consult the cache, fetch on a miss, store
// the result, render the body.
type Browser struct {
	cfg     Config
	fetcher *Fetcher
	cache   *Cache
	out     io.Writer
}

func NewBrowser(cfg Config, clearCache bool) (*Browser, error) {
	cache, err := NewCache(cfg, clearCache)
	if err != nil {
		return nil, err
	}
	return &Browser{
		cfg:     cfg,
		fetcher: NewFetcher(cfg),
		cache:   cache,
		out:     os.Stdout,
	}, nil
}

func (b *Browser) Close() error { return b.cache.Close() }

func (b *Browser) Load(raw string) error {
	u, err := ParseURI(raw)
	if err != nil {
		return err
	}

	switch u.Scheme {
	case SchemeHTTP, SchemeHTTPS:
		return b.loadNetwork(u)
	case SchemeData:
		// Everything up to the first comma is the content type; without a
		// comma there is no payload at all.
		_, payload, _ := strings.Cut(u.Path, ",")
		b.show(payload+"\r\n", false)
		return nil
	case SchemeFile:
		data, err := os.ReadFile(u.Path)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrRead, err)
		}
		b.show(string(data), false)
		return nil
	}
	return fmt.Errorf("%w: unhandled scheme %s", ErrMalformedURI, u.Scheme)
}

func (b *Browser) loadNetwork(u URI) error {
	req := b.fetcher.newRequest(u)

	body, err := b.cache.Lookup(req)
	switch {
	case err == nil:
		log.Debugf("cache hit for %s", Fingerprint(req))
		b.render(u, body)
		return nil
	case errors.Is(err, ErrCacheMiss), errors.Is(err, ErrUnsupportedMethod):
		// Proceed to a live fetch.
	default:
		return err
	}

	resp, err := b.fetcher.Do(u)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if err := b.cache.Insert(req, resp.Body); err != nil {
			log.Warnf("cache insert failed: %v", err)
		}
	}
	b.render(u, resp.Body)
	return nil
}

func (b *Browser) render(u URI, body string) {
	if u.ViewSource() {
		b.show(Escape(body), false)
		return
	}
	b.show(body, true)
}

func (b *Browser) show(source string, onlyBody bool) {
	fmt.Fprint(b.out, Render(source, onlyBody))
}
