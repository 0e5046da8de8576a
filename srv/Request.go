package srv

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"strings"
)


//============================================= Raw Requests


// readRequest
//	Read until the peer finishes its side of the stream, buffering at most max bytes.
func readRequest(r io.Reader, max int64) ([]byte, error) {
	data, readErr := io.ReadAll(io.LimitReader(r, max + 1))
	if readErr != nil { return nil, readErr }
	if int64(len(data)) > max { return nil, fmt.Errorf("%w: more than %d bytes", ErrRequestTooLarge, max) }

	return data, nil
}

// parseRawRequest
//	Accept exactly "GET <target>\r\n" and return the path of the target.
//	A target may also be an absolute URI, in which case only its path is kept.
func parseRawRequest(data []byte) (string, error) {
	if !bytes.HasPrefix(data, []byte("GET ")) { return "", fmt.Errorf("%w: missing GET", ErrMalformedRequest) }
	if !bytes.HasSuffix(data, []byte("\r\n")) { return "", fmt.Errorf("%w: missing CRLF", ErrMalformedRequest) }

	target := string(data[len("GET ") : len(data) - len("\r\n")])
	if target == "" || strings.ContainsAny(target, "\r\n") { return "", fmt.Errorf("%w: bad target", ErrMalformedRequest) }

	return requestPath(target)
}

// requestPath
//	Absolute URIs are reduced to their path. Anything else is handed on untouched;
//	the resolver decides whether it is acceptable.
func requestPath(target string) (string, error) {
	if !strings.HasPrefix(target, "https://") && !strings.HasPrefix(target, "http://") { return target, nil }

	uri, parseErr := url.Parse(target)
	if parseErr != nil { return "", fmt.Errorf("%w: %v", ErrMalformedRequest, parseErr) }
	if uri.Path == "" { return "/", nil }

	return uri.Path, nil
}
