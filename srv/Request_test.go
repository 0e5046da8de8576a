package srv

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)


func TestParseRawRequest(t *testing.T) {
	cases := []struct {
		in string
		path string
	}{
		{ "GET /index.html\r\n", "/index.html" },
		{ "GET /a/b/c\r\n", "/a/b/c" },
		{ "GET //double\r\n", "//double" },
		{ "GET /../../etc/passwd\r\n", "/../../etc/passwd" },
		{ "GET https://server:443/file.bin\r\n", "/file.bin" },
		{ "GET https://server:443\r\n", "/" },
		{ "GET relative\r\n", "relative" },
	}

	for _, c := range cases {
		path, err := parseRawRequest([]byte(c.in))
		require.NoError(t, err, c.in)
		assert.Equal(t, c.path, path, c.in)
	}
}

func TestParseRawRequestMalformed(t *testing.T) {
	for _, in := range []string{
		"",
		"GET /index.html",
		"GET /index.html\n",
		"POST /index.html\r\n",
		"get /index.html\r\n",
		"GET \r\n",
		"GET /a\r\nHost: x\r\n",
		"GET https://%zz/\r\n",
	} {
		_, err := parseRawRequest([]byte(in))
		assert.ErrorIs(t, err, ErrMalformedRequest, "%q", in)
	}
}

func TestReadRequestBounded(t *testing.T) {
	data, err := readRequest(strings.NewReader("GET /x\r\n"), 64)
	require.NoError(t, err)
	assert.Equal(t, "GET /x\r\n", string(data))

	exact := bytes.Repeat([]byte("a"), 64)
	data, err = readRequest(bytes.NewReader(exact), 64)
	require.NoError(t, err)
	assert.Len(t, data, 64)

	_, err = readRequest(bytes.NewReader(append(exact, 'b')), 64)
	assert.ErrorIs(t, err, ErrRequestTooLarge)
}
