package main

import (
	"os"
	"strings"
	"time"

	"github.com/jnovack/flag"
	"github.com/rs/zerolog"

	"github.com/sirgallo/quicinterop/certs"
)


const ORG = "interop"
const HOSTS = "server,localhost,127.0.0.1"


// certgen writes a root and leaf pair in the layout the server loads: cert.pem, priv.key and ca.pem.
func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{ Out: os.Stderr }).With().Timestamp().Logger()

	var org, hosts, dir string
	var useRSA bool
	var validity time.Duration

	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	fs.StringVar(&org, "org", ORG, "organization on the generated certificates")
	fs.StringVar(&hosts, "hosts", HOSTS, "comma separated DNS names and IPs for the leaf")
	fs.StringVar(&dir, "dir", ".", "output directory")
	fs.BoolVar(&useRSA, "rsa", false, "write an RSA key in PKCS#1 instead of ECDSA in PKCS#8")
	fs.DurationVar(&validity, "validity", 0, "certificate lifetime, zero for the default")
	fs.Parse(os.Args[1:])

	format := certs.PKCS8
	if useRSA { format = certs.PKCS1 }

	chain, genErr := certs.GenerateChain(certs.GenerateOpts{ Org: org, Hosts: strings.Split(hosts, ","), KeyFormat: format, Validity: validity })
	if genErr != nil { logger.Fatal().Err(genErr).Msg("failed to generate certificates") }

	writeErr := chain.Write(dir)
	if writeErr != nil { logger.Fatal().Err(writeErr).Str("dir", dir).Msg("failed to write certificates") }

	logger.Info().Str("dir", dir).Str("hosts", hosts).Msg("certificates written")
}
