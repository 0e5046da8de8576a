package srv

import (
	"net/http"
	"strconv"
)


//============================================= HTTP/3 Handler


// serveHTTP
//	Structured mode: 200 with the file body, or 404 with an empty body.
//	http3 finishes the request stream when this returns.
func (srv *QuicServer) serveHTTP(w http.ResponseWriter, r *http.Request) {
	logger := srv.logger.With().Str("remote", r.RemoteAddr).Str("path", r.URL.Path).Logger()

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	mapped, openErr := srv.openFile(r.URL.Path, logger)
	if openErr != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	defer mapped.Unmap()

	w.Header().Set("Content-Length", strconv.Itoa(len(mapped)))
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead { return }

	written, writeErr := srv.writeMapped(w, mapped)
	if writeErr != nil {
		logger.Debug().Err(writeErr).Msg("failed to stream file")
		return
	}

	logger.Debug().Int64("bytes", written).Msg("served")
}
