package config

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/jnovack/flag"

	"github.com/sirgallo/quicinterop/common"
	"github.com/sirgallo/quicinterop/policy"
)


//============================================= Run Configuration


// LoadServer
//	Parse flags from args, then fill anything not given on the command line from the environment
//	(flag "www" reads WWW, "log-level" reads LOG_LEVEL, and so on).
//	The testcase is checked before anything else so an unknown one never reaches the network.
func LoadServer(name string, args []string, output io.Writer) (*ServerConfig, error) {
	cfg := &ServerConfig{}
	var testcase string

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)

	fs.StringVar(&testcase, "testcase", "", "interop testcase to run")
	fs.StringVar(&cfg.Root, "www", "", "directory to serve files from")
	fs.StringVar(&cfg.Certs, "certs", "", "directory containing cert.pem and priv.key")
	fs.StringVar(&cfg.IP, "ip", "0.0.0.0", "ip to listen on")
	fs.IntVar(&cfg.Port, "port", common.DEFAULT_PORT, "port to listen on")
	fs.StringVar(&cfg.Logs, "logs", "", "directory for server logs")
	fs.StringVar(&cfg.KeyLogFile, "sslkeylogfile", "", "file to append TLS secrets to")
	fs.StringVar(&cfg.QlogDir, "qlogdir", "", "directory for qlog traces")
	fs.StringVar(&cfg.LogLevel, "log-level", "info", "log level: trace|debug|info|warn|error")
	fs.BoolVar(&cfg.EarlyData, "early-data", true, "accept 0-RTT data")

	parseErr := fs.Parse(args)
	if parseErr != nil { return nil, parseErr }

	tc, tcErr := parseTestcase(testcase)
	if tcErr != nil { return nil, tcErr }

	cfg.Testcase = tc

	validateErr := cfg.validate()
	if validateErr != nil { return nil, validateErr }

	return cfg, nil
}

// LoadClient
//	Same sourcing rules as LoadServer. REQUESTS is a whitespace separated list of URIs.
func LoadClient(name string, args []string, output io.Writer) (*ClientConfig, error) {
	cfg := &ClientConfig{}
	var testcase, requests string

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)

	fs.StringVar(&testcase, "testcase", "", "interop testcase to run")
	fs.StringVar(&requests, "requests", "", "whitespace separated list of URIs to fetch")
	fs.StringVar(&cfg.Downloads, "downloads", "", "directory to store downloaded files in")
	fs.StringVar(&cfg.Logs, "logs", "", "directory for client logs")
	fs.StringVar(&cfg.KeyLogFile, "sslkeylogfile", "", "file to append TLS secrets to")
	fs.StringVar(&cfg.QlogDir, "qlogdir", "", "directory for qlog traces")
	fs.StringVar(&cfg.LogLevel, "log-level", "info", "log level: trace|debug|info|warn|error")
	fs.BoolVar(&cfg.EarlyData, "early-data", true, "send 0-RTT data when the testcase asks for it")
	fs.BoolVar(&cfg.Insecure, "insecure", true, "trust any server certificate")
	fs.StringVar(&cfg.CAFile, "ca", "", "PEM roots used when insecure is off")

	parseErr := fs.Parse(args)
	if parseErr != nil { return nil, parseErr }

	tc, tcErr := parseTestcase(testcase)
	if tcErr != nil { return nil, tcErr }

	cfg.Testcase = tc
	cfg.Requests = strings.Fields(requests)

	validateErr := cfg.validate()
	if validateErr != nil { return nil, validateErr }

	return cfg, nil
}

// ExitCode
//	Map a configuration error to the process exit status.
func ExitCode(err error) int {
	switch {
		case err == nil, errors.Is(err, flag.ErrHelp):
			return EXIT_SUCCESS
		case errors.Is(err, ErrUnknownTestcase):
			return EXIT_UNKNOWN_TESTCASE
		default:
			return EXIT_FAILURE
	}
}

// Address
//	The UDP address the server binds.
func (cfg *ServerConfig) Address() string {
	return net.JoinHostPort(cfg.IP, strconv.Itoa(cfg.Port))
}

func (cfg *ServerConfig) Policy() policy.Policy {
	return policy.For(cfg.Testcase).WithEarlyData(cfg.EarlyData)
}

func (cfg *ClientConfig) Policy() policy.Policy {
	return policy.For(cfg.Testcase).WithEarlyData(cfg.EarlyData)
}

func parseTestcase(name string) (policy.Testcase, error) {
	tc, ok := policy.Parse(name)
	if !ok { return "", fmt.Errorf("%w: %q", ErrUnknownTestcase, name) }

	return tc, nil
}

func (cfg *ServerConfig) validate() error {
	var errs error

	if cfg.Root == "" {
		errs = multierror.Append(errs, errors.New("www: served root is required"))
	} else if info, statErr := os.Stat(cfg.Root); statErr != nil {
		errs = multierror.Append(errs, fmt.Errorf("www: %w", statErr))
	} else if !info.IsDir() {
		errs = multierror.Append(errs, fmt.Errorf("www: %s is not a directory", cfg.Root))
	}

	if cfg.Certs == "" { errs = multierror.Append(errs, errors.New("certs: certificate directory is required")) }
	if cfg.IP != "" && net.ParseIP(cfg.IP) == nil { errs = multierror.Append(errs, fmt.Errorf("ip: invalid address %q", cfg.IP)) }
	if cfg.Port < 0 || cfg.Port > 65535 { errs = multierror.Append(errs, fmt.Errorf("port: %d out of range", cfg.Port)) }

	return errs
}

func (cfg *ClientConfig) validate() error {
	var errs error

	if len(cfg.Requests) == 0 { errs = multierror.Append(errs, errors.New("requests: at least one URI is required")) }
	for _, request := range cfg.Requests {
		target, parseErr := url.Parse(request)
		switch {
			case parseErr != nil:
				errs = multierror.Append(errs, fmt.Errorf("requests: %w", parseErr))
			case target.Host == "":
				errs = multierror.Append(errs, fmt.Errorf("requests: %q has no host", request))
			case target.Scheme != "https":
				errs = multierror.Append(errs, fmt.Errorf("requests: %q must use https", request))
		}
	}

	if cfg.Downloads == "" { errs = multierror.Append(errs, errors.New("downloads: download directory is required")) }
	if !cfg.Insecure && cfg.CAFile != "" {
		if _, statErr := os.Stat(cfg.CAFile); statErr != nil { errs = multierror.Append(errs, fmt.Errorf("ca: %w", statErr)) }
	}

	return errs
}
