package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/sirgallo/quicinterop/certs"
	"github.com/sirgallo/quicinterop/config"
	"github.com/sirgallo/quicinterop/logging"
	"github.com/sirgallo/quicinterop/srv"
)


func main() {
	os.Exit(run())
}

// run
//	Configuration is settled before any socket is opened, so an unknown testcase exits 127 without listening.
func run() int {
	cfg, loadErr := config.LoadServer(os.Args[0], os.Args[1:], os.Stderr)
	if loadErr != nil {
		stderrLogger := zerolog.New(os.Stderr)
		stderrLogger.Error().Err(loadErr).Msg("invalid configuration")
		return config.ExitCode(loadErr)
	}

	pol := cfg.Policy()

	logger, logCloser, logErr := logging.Setup(logging.SetupOpts{ Level: cfg.LogLevel, Dir: cfg.Logs, Name: "server", Quiet: pol.QuietLogs })
	if logErr != nil {
		stderrLogger := zerolog.New(os.Stderr)
		stderrLogger.Error().Err(logErr).Msg("failed to set up logging")
		return config.EXIT_FAILURE
	}

	defer logCloser.Close()

	logger.Info().Str("testcase", string(pol.Testcase)).Str("mode", pol.Mode.String()).Msg("starting server")

	resetSuites := pol.ApplyCipherSuites()
	defer resetSuites()

	keyLog, keyLogErr := logging.OpenKeyLog(cfg.KeyLogFile)
	if keyLogErr != nil {
		logger.Error().Err(keyLogErr).Msg("failed to open key log")
		return config.EXIT_FAILURE
	}

	if keyLog != nil { defer keyLog.Close() }

	cred, credErr := certs.LoadCredential(cfg.Certs)
	if credErr != nil {
		logger.Error().Err(credErr).Str("dir", cfg.Certs).Msg("failed to load certificates")
		return config.EXIT_FAILURE
	}

	opts := &srv.QuicServerOpts{
		Address: cfg.Address(),
		Root: cfg.Root,
		Certificate: cred.TLSCertificate(),
		Policy: pol,
		Tracer: logging.QlogTracer(cfg.QlogDir, logger),
		Logger: logger,
	}

	if keyLog != nil { opts.KeyLog = keyLog }

	server, newSrvErr := srv.NewQuicServer(opts)
	if newSrvErr != nil {
		logger.Error().Err(newSrvErr).Msg("failed to start server")
		return config.EXIT_FAILURE
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	listenErr := server.Listen(ctx)
	closeErr := server.Close()

	if listenErr != nil {
		logger.Error().Err(listenErr).Msg("server failed")
		return config.EXIT_FAILURE
	}

	if closeErr != nil { logger.Debug().Err(closeErr).Msg("close failed") }

	logger.Info().Msg("server stopped")
	return config.EXIT_SUCCESS
}
