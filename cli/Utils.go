package cli

import (
	"context"
	"crypto/tls"
	"os"
	"path/filepath"

	"github.com/sirgallo/quicinterop/resolver"
)


//============================================= Client Utils


// download
//	Fetch one target into the downloads directory.
//	The destination goes through the same resolver the server uses, so a hostile URL cannot write outside it.
//	Partial files are removed on failure.
func (cli *QuicClient) download(ctx context.Context, sess session, t target) Result {
	result := Result{ URL: t.raw }

	destination, resolveErr := resolver.Resolve(cli.downloads, t.uri.Path)
	if resolveErr != nil {
		result.Err = resolveErr
		return result
	}

	mkdirErr := os.MkdirAll(filepath.Dir(destination.Path()), 0o755)
	if mkdirErr != nil {
		result.Err = mkdirErr
		return result
	}

	file, createErr := os.Create(destination.Path())
	if createErr != nil {
		result.Err = createErr
		return result
	}

	resp, fetchErr := sess.fetch(ctx, t, file)
	closeErr := file.Close()
	if fetchErr == nil { fetchErr = closeErr }

	result.Status = resp.status
	result.Bytes = resp.bytes
	result.CipherSuite = resp.tls.CipherSuite
	result.Resumed = resp.tls.DidResume
	result.Used0RTT = resp.used0RTT

	if fetchErr != nil {
		os.Remove(destination.Path())
		result.Err = fetchErr
		return result
	}

	result.Path = destination.Path()
	cli.logger.Debug().Str("url", t.raw).Str("file", result.Path).Int64("bytes", resp.bytes).Msg("downloaded")
	return result
}

func tlsCipherName(suite uint16) string {
	if suite == 0 { return "" }
	return tls.CipherSuiteName(suite)
}
