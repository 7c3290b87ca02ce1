package http

import (
	"fmt"
	"net/http"
	"time"
)

// ParseCookies parses a Cookie header value. The first occurrence of a
// name wins; malformed pairs are skipped. Values are returned as sent,
// without percent-decoding.
func ParseCookies(header string) map[string]string {
	cookies, err := http.ParseCookie(header)
	if err != nil {
		// ParseCookie rejects the whole header on one bad pair.
		cookies = lenientCookies(header)
	}

	out := make(map[string]string, len(cookies))
	for _, c := range cookies {
		if _, ok := out[c.Name]; !ok {
			out[c.Name] = c.Value
		}
	}
	return out
}

func lenientCookies(header string) []*http.Cookie {
	r := http.Request{Header: http.Header{"Cookie": {header}}}
	return r.Cookies()
}

// CookieOptions are the attributes SerializeCookie may add.
type CookieOptions struct {
	Path     string
	Domain   string
	Expires  time.Time
	MaxAge   int
	Secure   bool
	HttpOnly bool
	SameSite http.SameSite
}

// SerializeCookie renders a Set-Cookie header value. opts may be nil.
// The value is not percent-encoded, so it must already consist of
// RFC 6265 cookie-octets; anything else is an error.
func SerializeCookie(name, value string, opts *CookieOptions) (string, error) {
	c := &http.Cookie{Name: name, Value: value}
	if opts != nil {
		c.Path = opts.Path
		c.Domain = opts.Domain
		c.Expires = opts.Expires
		c.MaxAge = opts.MaxAge
		c.Secure = opts.Secure
		c.HttpOnly = opts.HttpOnly
		c.SameSite = opts.SameSite
	}

	if err := c.Valid(); err != nil {
		return "", fmt.Errorf("serialize cookie: %w", err)
	}
	return c.String(), nil
}

// ParseCookies calls the package level ParseCookies.
func (t *Transport) ParseCookies(header string) map[string]string {
	return ParseCookies(header)
}

// SerializeCookie calls the package level SerializeCookie.
func (t *Transport) SerializeCookie(name, value string, opts *CookieOptions) (string, error) {
	return SerializeCookie(name, value, opts)
}
