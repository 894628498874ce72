package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/yougroupteam/openapi-validator-proxy/config"
	"github.com/yougroupteam/openapi-validator-proxy/conformance"
	"github.com/yougroupteam/openapi-validator-proxy/ledger"
	"github.com/yougroupteam/openapi-validator-proxy/logger"
	"github.com/yougroupteam/openapi-validator-proxy/proxy"
	"github.com/yougroupteam/openapi-validator-proxy/server"
	"github.com/yougroupteam/openapi-validator-proxy/spec"
)

// version is the proxy's version, set at build time with -ldflags.
var version = "master"

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err == pflag.ErrHelp {
		config.Usage(os.Stdout)
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n\n", err)
		config.Usage(os.Stderr)
		os.Exit(2)
	}

	if err := logger.Init(cfg.LogLevel, cfg.LogFormat); err != nil {
		log.Fatal().Err(err).Msg("Error configuring logger")
	}
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("Proxy stopped")
	}
}

// run serves the proxy until ctx is done.
func run(ctx context.Context, cfg *config.Config) error {
	handler, testcases, err := newHandler(cfg)
	if err != nil {
		return err
	}
	defer testcases.Close()

	listener, err := net.Listen("tcp", cfg.Address())
	if err != nil {
		return errors.Wrapf(err, "error listening on %v", cfg.Address())
	}

	log.Info().
		Str("version", version).
		Str("upstream", cfg.Upstream.String()).
		Str("spec", cfg.SpecPath).
		Msgf("Proxying http://%s", listener.Addr())

	return server.Serve(ctx, listener, handler)
}

// newHandler loads the document and wires the proxy's components. The
// returned ledger must be closed by the caller.
func newHandler(cfg *config.Config) (http.Handler, *ledger.Ledger, error) {
	doc, err := spec.Load(cfg.SpecPath)
	if err != nil {
		return nil, nil, err
	}

	validator := conformance.New(doc)
	log.Info().
		Int("paths", len(doc.Paths)).
		Msgf("Routing to %v path(s)", len(doc.Paths))

	testcases := ledger.New()
	client := &http.Client{Timeout: cfg.UpstreamTimeout}
	p := proxy.New(validator, cfg.Upstream, testcases, client)

	return server.New(p, testcases), testcases, nil
}
