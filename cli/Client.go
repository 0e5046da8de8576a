package cli

import "context"
import "crypto/tls"
import "fmt"
import "net"
import "net/url"
import "strconv"
import "sync"

import "github.com/hashicorp/go-multierror"

import "github.com/sirgallo/quicinterop/certs"
import "github.com/sirgallo/quicinterop/common"
import "github.com/sirgallo/quicinterop/policy"
import "github.com/sirgallo/quicinterop/pool"


const SESSION_CACHE_SIZE = 64


func NewClient(opts *QuicClientOpts) (*QuicClient, error) {
	if opts.Downloads == "" { return nil, fmt.Errorf("downloads directory is required") }

	verifier := opts.Verifier
	if verifier == nil { verifier = certs.TrustAll{} }

	tlsConfig := opts.Policy.ClientTLSConfig(opts.KeyLog, tls.NewLRUClientSessionCache(SESSION_CACHE_SIZE))
	verifier.Configure(tlsConfig)

	defaultPort := opts.DefaultPort
	if defaultPort == 0 { defaultPort = common.DEFAULT_PORT }

	return &QuicClient{
		policy: opts.Policy,
		downloads: opts.Downloads,
		defaultPort: defaultPort,
		tlsConfig: tlsConfig,
		quicConfig: opts.Policy.ClientQuicConfig(opts.Tracer),
		buffers: pool.NewBufferPool(common.STREAM_CHUNK_SIZE),
		logger: opts.Logger,
	}, nil
}

// Run
//	Fetch every request, grouped by server, spreading each group across connections as the policy's strategy says.
//	Results come back in request order. The run only fails when no request completed.
func (cli *QuicClient) Run(ctx context.Context, requests []string) ([]Result, error) {
	results := make([]Result, len(requests))
	groups, order := cli.groupTargets(requests, results)

	for _, address := range order {
		cli.runGroup(ctx, groups[address], results)
	}

	var errs error
	completed := 0
	for _, result := range results {
		if result.Err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", result.URL, result.Err))
			cli.logger.Error().Str("url", result.URL).Err(result.Err).Msg("request failed")
			continue
		}

		completed++
	}

	cli.logger.Info().Int("completed", completed).Int("requested", len(requests)).Msg("run finished")

	if completed == 0 && len(requests) > 0 { return results, errs }
	return results, nil
}

// groupTargets
//	Parse requests and bucket them by server address, keeping first-seen order.
//	Unparseable requests are recorded as failed results.
func (cli *QuicClient) groupTargets(requests []string, results []Result) (map[string][]target, []string) {
	groups := make(map[string][]target)
	var order []string

	for idx, raw := range requests {
		results[idx].URL = raw

		uri, parseErr := url.Parse(raw)
		if parseErr != nil { 
			results[idx].Err = parseErr
			continue
		}

		if uri.Hostname() == "" {
			results[idx].Err = fmt.Errorf("no host in %q", raw)
			continue
		}

		port := uri.Port()
		if port == "" { port = strconv.Itoa(cli.defaultPort) }

		t := target{ index: idx, raw: raw, uri: uri, address: net.JoinHostPort(uri.Hostname(), port), serverName: uri.Hostname() }
		if _, ok := groups[t.address]; !ok { order = append(order, t.address) }

		groups[t.address] = append(groups[t.address], t)
	}

	return groups, order
}

// runGroup
//	Apply the connection strategy to the requests for one server.
func (cli *QuicClient) runGroup(ctx context.Context, targets []target, results []Result) {
	switch cli.policy.Strategy {
		case policy.ConnectionPerRequest:
			for _, t := range targets { cli.runSession(ctx, []target{ t }, false, results) }
		case policy.ResumeAfterFirst, policy.EarlyDataAfterFirst:
			cli.runSession(ctx, targets[:1], false, results)
			if len(targets) > 1 { cli.runSession(ctx, targets[1:], cli.policy.Strategy == policy.EarlyDataAfterFirst, results) }
		default:
			cli.runSession(ctx, targets, false, results)
	}
}

// runSession
//	Open one connection and issue every target on it concurrently, one stream each.
//	early sends the requests as 0-RTT data when a session ticket allows it.
func (cli *QuicClient) runSession(ctx context.Context, targets []target, early bool, results []Result) {
	sess, openErr := cli.openSession(ctx, targets[0], early)
	if openErr != nil {
		cli.logger.Warn().Str("address", targets[0].address).Err(openErr).Msg("connection failed")
		for _, t := range targets { results[t.index].Err = openErr }
		return
	}

	defer func() {
		closeErr := sess.close()
		if closeErr != nil { cli.logger.Debug().Err(closeErr).Msg("close failed") }
	}()

	var fetchWG sync.WaitGroup
	for _, t := range targets {
		fetchWG.Add(1)
		go func(t target) {
			defer fetchWG.Done()
			results[t.index] = cli.download(ctx, sess, t)
		}(t)
	}

	fetchWG.Wait()
}
