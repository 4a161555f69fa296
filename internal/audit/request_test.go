package audit

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func header(kv ...string) http.Header {
	h := http.Header{}
	for i := 0; i+1 < len(kv); i += 2 {
		h.Set(kv[i], kv[i+1])
	}
	return h
}

func TestClientIP_Priority(t *testing.T) {
	cases := []struct {
		name string
		h    http.Header
		want string
	}{
		{"xff first hop wins", header("x-forwarded-for", "1.1.1.1, 2.2.2.2", "cf-connecting-ip", "3.3.3.3", "x-real-ip", "4.4.4.4"), "1.1.1.1"},
		{"xff single", header("X-Forwarded-For", " 9.9.9.9 "), "9.9.9.9"},
		{"cloudflare next", header("cf-connecting-ip", "3.3.3.3", "x-real-ip", "4.4.4.4"), "3.3.3.3"},
		{"real ip last", header("x-real-ip", "4.4.4.4"), "4.4.4.4"},
		{"ipv6", header("x-forwarded-for", "2001:db8::1, 10.0.0.1"), "2001:db8::1"},
		{"empty first hop falls through", header("x-forwarded-for", " , 2.2.2.2", "x-real-ip", "4.4.4.4"), "4.4.4.4"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ClientIP(tc.h)
			require.NotNil(t, got)
			assert.Equal(t, tc.want, *got)
		})
	}
	assert.Nil(t, ClientIP(http.Header{}))
}

func TestUserAgent(t *testing.T) {
	assert.Nil(t, UserAgent(http.Header{}))

	ua := UserAgent(header("User-Agent", "curl/8.0"))
	require.NotNil(t, ua)
	assert.Equal(t, "curl/8.0", *ua)

	long := UserAgent(header("User-Agent", strings.Repeat("é", 600)))
	require.NotNil(t, long)
	assert.Equal(t, 500, len([]rune(*long)), "truncation counts characters")

	exact := UserAgent(header("User-Agent", strings.Repeat("a", 500)))
	assert.Len(t, *exact, 500)
}
