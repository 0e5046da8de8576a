package cli

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/quic-go/quic-go"
	"github.com/quic-go/quic-go/http3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirgallo/quicinterop/certs"
	"github.com/sirgallo/quicinterop/common"
	"github.com/sirgallo/quicinterop/policy"
	"github.com/sirgallo/quicinterop/resolver"
	"github.com/sirgallo/quicinterop/srv"
)


type fixture struct {
	root string
	addr string
	files map[string][]byte
}

func startServer(t *testing.T, tc policy.Testcase) *fixture {
	t.Helper()

	chain, err := certs.GenerateChain(certs.GenerateOpts{ Org: "interop", Hosts: []string{ "localhost", "127.0.0.1" } })
	require.NoError(t, err)

	certDir := t.TempDir()
	require.NoError(t, chain.Write(certDir))

	cred, err := certs.LoadCredential(certDir)
	require.NoError(t, err)

	large := make([]byte, 3 * common.STREAM_CHUNK_SIZE + 17)
	_, err = rand.Read(large)
	require.NoError(t, err)

	files := map[string][]byte{
		"index.html": []byte("<html>interop</html>"),
		"second.txt": bytes.Repeat([]byte("second file "), 100),
		"nested/deep.bin": large,
		"empty": {},
	}

	root := t.TempDir()
	for name, data := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, data, 0o644))
	}

	server, err := srv.NewQuicServer(&srv.QuicServerOpts{
		Address: "127.0.0.1:0",
		Root: root,
		Certificate: cred.TLSCertificate(),
		Policy: policy.For(tc),
		Logger: zerolog.Nop(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Listen(ctx) }()

	t.Cleanup(func() {
		cancel()
		server.Close()
		<-done
	})

	return &fixture{ root: root, addr: server.Addr(), files: files }
}

func (f *fixture) url(path string) string {
	return fmt.Sprintf("https://%s%s", f.addr, path)
}

func newClient(t *testing.T, tc policy.Testcase) (*QuicClient, string) {
	t.Helper()

	downloads := t.TempDir()
	client, err := NewClient(&QuicClientOpts{ Policy: policy.For(tc), Downloads: downloads, Logger: zerolog.Nop() })
	require.NoError(t, err)

	return client, downloads
}

func runContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 20 * time.Second)
	t.Cleanup(cancel)
	return ctx
}

func assertDownloaded(t *testing.T, f *fixture, downloads string, results []Result, names ...string) {
	t.Helper()

	require.Len(t, results, len(names))
	for idx, name := range names {
		require.NoError(t, results[idx].Err, name)
		assert.Equal(t, filepath.Join(downloads, filepath.FromSlash(name)), results[idx].Path)
		assert.Equal(t, int64(len(f.files[name])), results[idx].Bytes, name)

		data, err := os.ReadFile(results[idx].Path)
		require.NoError(t, err)
		assert.True(t, bytes.Equal(f.files[name], data), "body mismatch for %s", name)
	}
}

func TestHandshakeSingleFile(t *testing.T) {
	f := startServer(t, policy.Handshake)
	client, downloads := newClient(t, policy.Handshake)

	results, err := client.Run(runContext(t), []string{ f.url("/index.html") })
	require.NoError(t, err)
	assertDownloaded(t, f, downloads, results, "index.html")
}

func TestConcurrentRequestsOnOneConnection(t *testing.T) {
	f := startServer(t, policy.Transfer)
	client, downloads := newClient(t, policy.Transfer)

	results, err := client.Run(runContext(t), []string{
		f.url("/index.html"), f.url("/second.txt"), f.url("/nested/deep.bin"), f.url("/empty"),
	})
	require.NoError(t, err)
	assertDownloaded(t, f, downloads, results, "index.html", "second.txt", "nested/deep.bin", "empty")
}

func TestStrategies(t *testing.T) {
	cases := []struct {
		tc policy.Testcase
		// resumedAfterFirst and earlyAfterFirst describe every request but the first
		resumedAfterFirst bool
		earlyAfterFirst bool
	}{
		{ policy.MultiHandshake, true, false },
		{ policy.Resumption, true, false },
		{ policy.ZeroRTT, true, true },
		{ policy.Retry, false, false },
	}

	for _, c := range cases {
		t.Run(string(c.tc), func(t *testing.T) {
			f := startServer(t, c.tc)
			client, downloads := newClient(t, c.tc)

			results, err := client.Run(runContext(t), []string{ f.url("/index.html"), f.url("/second.txt"), f.url("/nested/deep.bin") })
			require.NoError(t, err)
			assertDownloaded(t, f, downloads, results, "index.html", "second.txt", "nested/deep.bin")

			assert.False(t, results[0].Resumed, "first connection has no ticket to resume")
			assert.False(t, results[0].Used0RTT)

			for _, result := range results[1:] {
				assert.Equal(t, c.resumedAfterFirst, result.Resumed, result.URL)
				assert.Equal(t, c.earlyAfterFirst, result.Used0RTT, result.URL)
			}
		})
	}
}

func TestResumptionNeedsSessionCache(t *testing.T) {
	f := startServer(t, policy.Resumption)
	client, _ := newClient(t, policy.Resumption)
	client.tlsConfig.ClientSessionCache = nil

	results, err := client.Run(runContext(t), []string{ f.url("/index.html"), f.url("/second.txt") })
	require.NoError(t, err)
	assert.False(t, results[1].Resumed)
}

func TestHTTP3(t *testing.T) {
	f := startServer(t, policy.HTTP3)
	client, downloads := newClient(t, policy.HTTP3)

	results, err := client.Run(runContext(t), []string{ f.url("/index.html"), f.url("/nested/deep.bin") })
	require.NoError(t, err)
	assertDownloaded(t, f, downloads, results, "index.html", "nested/deep.bin")
	assert.Equal(t, http.StatusOK, results[0].Status)
}

func TestHTTP3NotFound(t *testing.T) {
	f := startServer(t, policy.HTTP3)
	client, downloads := newClient(t, policy.HTTP3)

	results, err := client.Run(runContext(t), []string{ f.url("/index.html"), f.url("/missing") })
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err)
	assert.Equal(t, http.StatusNotFound, results[1].Status)

	_, statErr := os.Stat(filepath.Join(downloads, "missing"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestHTTP3TraversalIsNotFound(t *testing.T) {
	f := startServer(t, policy.HTTP3)

	rt := &http3.RoundTripper{ TLSClientConfig: &tls.Config{ InsecureSkipVerify: true } }
	defer rt.Close()

	req, err := http.NewRequestWithContext(runContext(t), http.MethodGet, f.url("/../../etc/passwd"), nil)
	require.NoError(t, err)

	resp, err := rt.RoundTrip(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Empty(t, body)
}

// rawGet sends one raw request on its own stream and returns whatever comes back.
func rawGet(t *testing.T, conn quic.Connection, request string) string {
	t.Helper()

	stream, err := conn.OpenStreamSync(runContext(t))
	require.NoError(t, err)

	_, err = io.WriteString(stream, request)
	require.NoError(t, err)
	require.NoError(t, stream.Close())

	body, err := io.ReadAll(stream)
	require.NoError(t, err)
	return string(body)
}

func dialRaw(t *testing.T, f *fixture) quic.Connection {
	t.Helper()

	conn, err := quic.DialAddr(runContext(t), f.addr, &tls.Config{ InsecureSkipVerify: true, NextProtos: []string{ common.ALPN_HQ } }, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.CloseWithError(common.NO_ERROR, "") })

	return conn
}

func TestRawErrorResponses(t *testing.T) {
	f := startServer(t, policy.Transfer)
	conn := dialRaw(t, f)

	notFound := srv.RAW_ERROR_PREFIX + srv.ErrNotFound.Error() + "\n"
	assert.Equal(t, notFound, rawGet(t, conn, "GET /../../etc/passwd\r\n"))
	assert.Equal(t, notFound, rawGet(t, conn, "GET /missing\r\n"))
	assert.Equal(t, notFound, rawGet(t, conn, "GET index.html\r\n"))

	assert.Contains(t, rawGet(t, conn, "POST /index.html\r\n"), srv.ErrMalformedRequest.Error())
	assert.Contains(t, rawGet(t, conn, "GET /index.html"), srv.ErrMalformedRequest.Error())

	// the connection survives malformed requests
	assert.Equal(t, string(f.files["index.html"]), rawGet(t, conn, "GET /index.html\r\n"))
	assert.Equal(t, string(f.files["index.html"]), rawGet(t, conn, "GET https://server/index.html\r\n"))
}

func TestRawRequestTooLarge(t *testing.T) {
	f := startServer(t, policy.Transfer)
	conn := dialRaw(t, f)

	stream, err := conn.OpenStreamSync(runContext(t))
	require.NoError(t, err)

	huge := "GET /" + string(bytes.Repeat([]byte("a"), common.MAX_REQUEST_SIZE)) + "\r\n"
	go func() {
		io.WriteString(stream, huge)
		stream.Close()
	}()

	body, _ := io.ReadAll(stream)
	assert.Contains(t, string(body), srv.ErrRequestTooLarge.Error())

	assert.Equal(t, string(f.files["index.html"]), rawGet(t, conn, "GET /index.html\r\n"))
}

func TestClientRejectsTraversalDestination(t *testing.T) {
	f := startServer(t, policy.Transfer)
	client, downloads := newClient(t, policy.Transfer)

	results, err := client.Run(runContext(t), []string{ f.url("/../../etc/passwd") })
	require.Error(t, err)
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, resolver.ErrIllegalPathComponent)

	entries, readErr := os.ReadDir(downloads)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}

func TestPartialFailureStillSucceeds(t *testing.T) {
	f := startServer(t, policy.Transfer)
	client, _ := newClient(t, policy.Transfer)

	results, err := client.Run(runContext(t), []string{ f.url("/index.html"), "https://127.0.0.1:1/index.html", "://bad" })
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err)
	assert.Error(t, results[2].Err)
}

func TestAllFailuresFail(t *testing.T) {
	client, _ := newClient(t, policy.Handshake)

	ctx, cancel := context.WithTimeout(context.Background(), 5 * time.Second)
	defer cancel()

	results, err := client.Run(ctx, []string{ "https://127.0.0.1:1/index.html" })
	require.Error(t, err)
	require.Len(t, results, 1)
	assert.Error(t, results[0].Err)
}

func TestChaCha20NegotiatesChaCha(t *testing.T) {
	pol := policy.For(policy.ChaCha20)
	resetSuites := pol.ApplyCipherSuites()
	t.Cleanup(resetSuites)

	f := startServer(t, policy.ChaCha20)
	client, downloads := newClient(t, policy.ChaCha20)

	results, err := client.Run(runContext(t), []string{ f.url("/index.html"), f.url("/second.txt") })
	require.NoError(t, err)
	assertDownloaded(t, f, downloads, results, "index.html", "second.txt")

	for _, result := range results {
		assert.Equal(t, tls.TLS_CHACHA20_POLY1305_SHA256, result.CipherSuite, tls.CipherSuiteName(result.CipherSuite))
	}

	// a client config without any suite preference of its own
	conn := dialRaw(t, f)
	assert.Equal(t, tls.TLS_CHACHA20_POLY1305_SHA256, conn.ConnectionState().TLS.CipherSuite)
	assert.Equal(t, string(f.files["index.html"]), rawGet(t, conn, "GET /index.html\r\n"))
}

func TestALPNMismatchIsRejected(t *testing.T) {
	f := startServer(t, policy.Transfer)

	conf := &tls.Config{ InsecureSkipVerify: true, NextProtos: []string{ common.ALPN_H3 } }
	_, err := quic.DialAddr(runContext(t), f.addr, conf, nil)
	assert.Error(t, err)

	// the server keeps accepting
	conn := dialRaw(t, f)
	assert.Equal(t, string(f.files["index.html"]), rawGet(t, conn, "GET /index.html\r\n"))
}

func TestNewClientRequiresDownloads(t *testing.T) {
	_, err := NewClient(&QuicClientOpts{ Policy: policy.For(policy.Handshake) })
	assert.Error(t, err)
}
