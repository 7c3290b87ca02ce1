package http_test

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	relayhttp "github.com/sagarc03/relay/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCookies(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   map[string]string
	}{
		{name: "single", header: "test=value", want: map[string]string{"test": "value"}},
		{name: "multiple", header: "a=1; b=2", want: map[string]string{"a": "1", "b": "2"}},
		{name: "first wins", header: "a=1; a=2", want: map[string]string{"a": "1"}},
		{name: "quoted", header: `a="x y"`, want: map[string]string{"a": "x y"}},
		{name: "empty", header: "", want: map[string]string{}},
		{name: "skips malformed pair", header: "a=1; =bad; b=2", want: map[string]string{"a": "1", "b": "2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, relayhttp.ParseCookies(tt.header))
		})
	}
}

func TestSerializeCookie(t *testing.T) {
	expires := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name    string
		cname   string
		value   string
		opts    *relayhttp.CookieOptions
		want    string
		wantErr bool
	}{
		{name: "plain", cname: "test", value: "value", want: "test=value"},
		{
			name:  "attributes",
			cname: "sid",
			value: "abc",
			opts: &relayhttp.CookieOptions{
				Path:     "/",
				Domain:   "example.com",
				Expires:  expires,
				MaxAge:   60,
				Secure:   true,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			},
			want: "sid=abc; Path=/; Domain=example.com; Expires=Wed, 02 Jan 2030 03:04:05 GMT; Max-Age=60; HttpOnly; Secure; SameSite=Lax",
		},
		{name: "invalid name", cname: "bad name", value: "v", wantErr: true},
		{name: "empty name", cname: "", value: "v", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := relayhttp.SerializeCookie(tt.cname, tt.value, tt.opts)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCookieRoundTrip(t *testing.T) {
	s, err := relayhttp.SerializeCookie("test", "value", nil)
	require.NoError(t, err)
	assert.Equal(t, "value", relayhttp.ParseCookies(s)["test"])
}

func TestCookieValuesAreNotPercentCoded(t *testing.T) {
	assert.Equal(t, "hello%20world", relayhttp.ParseCookies("a=hello%20world")["a"])

	_, err := relayhttp.SerializeCookie("a", "x;y", nil)
	assert.Error(t, err)

	s, err := relayhttp.SerializeCookie("a", url.QueryEscape("x;y"), nil)
	require.NoError(t, err)
	assert.Equal(t, "a=x%3By", s)

	got, err := url.QueryUnescape(relayhttp.ParseCookies(s)["a"])
	require.NoError(t, err)
	assert.Equal(t, "x;y", got)
}
