package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/sirgallo/quicinterop/certs"
	"github.com/sirgallo/quicinterop/cli"
	"github.com/sirgallo/quicinterop/config"
	"github.com/sirgallo/quicinterop/logging"
)


func main() {
	os.Exit(run())
}

func run() int {
	cfg, loadErr := config.LoadClient(os.Args[0], os.Args[1:], os.Stderr)
	if loadErr != nil {
		stderrLogger := zerolog.New(os.Stderr)
		stderrLogger.Error().Err(loadErr).Msg("invalid configuration")
		return config.ExitCode(loadErr)
	}

	pol := cfg.Policy()

	logger, logCloser, logErr := logging.Setup(logging.SetupOpts{ Level: cfg.LogLevel, Dir: cfg.Logs, Name: "client", Quiet: pol.QuietLogs })
	if logErr != nil {
		stderrLogger := zerolog.New(os.Stderr)
		stderrLogger.Error().Err(logErr).Msg("failed to set up logging")
		return config.EXIT_FAILURE
	}

	defer logCloser.Close()

	resetSuites := pol.ApplyCipherSuites()
	defer resetSuites()

	verifier, verifierErr := certs.NewVerifier(cfg.Insecure, cfg.CAFile)
	if verifierErr != nil {
		logger.Error().Err(verifierErr).Msg("failed to load trust roots")
		return config.EXIT_FAILURE
	}

	keyLog, keyLogErr := logging.OpenKeyLog(cfg.KeyLogFile)
	if keyLogErr != nil {
		logger.Error().Err(keyLogErr).Msg("failed to open key log")
		return config.EXIT_FAILURE
	}

	opts := &cli.QuicClientOpts{
		Policy: pol,
		Downloads: cfg.Downloads,
		Verifier: verifier,
		Tracer: logging.QlogTracer(cfg.QlogDir, logger),
		Logger: logger,
	}

	if keyLog != nil {
		defer keyLog.Close()
		opts.KeyLog = keyLog
	}

	client, newCliErr := cli.NewClient(opts)
	if newCliErr != nil {
		logger.Error().Err(newCliErr).Msg("failed to create client")
		return config.EXIT_FAILURE
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info().Str("testcase", string(pol.Testcase)).Int("requests", len(cfg.Requests)).Msg("starting client")

	_, runErr := client.Run(ctx, cfg.Requests)
	if runErr != nil {
		logger.Error().Err(runErr).Msg("no request completed")
		return config.EXIT_FAILURE
	}

	return config.EXIT_SUCCESS
}
