package logging

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/quic-go/quic-go"
	qlogging "github.com/quic-go/quic-go/logging"
	"github.com/quic-go/quic-go/qlog"
	"github.com/rs/zerolog"

	"github.com/sirgallo/quicinterop/policy"
)


//============================================= qlog


// bufferedWriteCloser: flushes the buffer before closing the trace file
type bufferedWriteCloser struct {
	*bufio.Writer
	file *os.File
}


func (b *bufferedWriteCloser) Close() error {
	flushErr := b.Writer.Flush()
	closeErr := b.file.Close()
	if flushErr != nil { return flushErr }

	return closeErr
}

// QlogTracer
//	One qlog file per connection in dir, named <odcid>_<role>.qlog after the original destination connection ID.
//	An empty dir disables tracing. A trace that cannot be created leaves that connection untraced.
func QlogTracer(dir string, logger zerolog.Logger) policy.Tracer {
	if dir == "" { return nil }

	return func(_ context.Context, perspective qlogging.Perspective, odcid quic.ConnectionID) *qlogging.ConnectionTracer {
		role := "server"
		if perspective == qlogging.PerspectiveClient { role = "client" }

		mkdirErr := os.MkdirAll(dir, 0o755)
		if mkdirErr != nil {
			logger.Error().Err(mkdirErr).Str("dir", dir).Msg("failed to create qlog directory")
			return nil
		}

		path := filepath.Join(dir, fmt.Sprintf("%s_%s.qlog", odcid, role))
		file, createErr := os.Create(path)
		if createErr != nil {
			logger.Error().Err(createErr).Str("file", path).Msg("failed to create qlog file")
			return nil
		}

		logger.Debug().Str("file", path).Msg("writing qlog")
		return qlog.NewConnectionTracer(&bufferedWriteCloser{ Writer: bufio.NewWriter(file), file: file }, perspective, odcid)
	}
}
