// Package server assembles the proxy's HTTP surface: the report and metrics
// endpoints under /_ovp, with every other request handed to the proxy.
package server

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/yougroupteam/openapi-validator-proxy/junit"
	"github.com/yougroupteam/openapi-validator-proxy/ledger"
	"github.com/yougroupteam/openapi-validator-proxy/metrics"
)

// Paths of the proxy's own endpoints. Everything else is proxied.
const (
	JUnitPath   = "/_ovp/junit"
	MetricsPath = "/_ovp/metrics"
)

// proxiedEndpoint is the endpoint label for proxied requests, which have no
// route of their own.
const proxiedEndpoint = "proxy"

// ShutdownTimeout bounds how long Serve waits for in-flight requests once its
// context is done.
const ShutdownTimeout = 10 * time.Second

// New builds the engine. proxy receives every request that isn't for one of
// the /_ovp endpoints, whatever its method.
func New(proxy http.Handler, testcases *ledger.Ledger) *gin.Engine {
	engine := gin.New()

	// Paths belong to the upstream API, so they're never rewritten.
	engine.RedirectTrailingSlash = false
	engine.RedirectFixedPath = false
	engine.HandleMethodNotAllowed = false

	engine.Use(gin.Recovery(), metricsMiddleware())

	engine.GET(JUnitPath, junitHandler(testcases))
	engine.GET(MetricsPath, gin.WrapH(promhttp.Handler()))
	engine.NoRoute(proxyHandler(proxy))

	return engine
}

// Serve serves handler on listener until ctx is done, then shuts down
// gracefully.
func Serve(ctx context.Context, listener net.Listener, handler http.Handler) error {
	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 30 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("address", listener.Addr().String()).Msg("Listening")
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			return errors.Wrap(err, "error serving")
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "error shutting down")
		}
		return nil
	})

	return g.Wait()
}

func proxyHandler(proxy http.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		proxy.ServeHTTP(c.Writer, c.Request)

		// Flush the status so an empty upstream 404 isn't given gin's default
		// not found body.
		c.Writer.WriteHeaderNow()
	}
}

func junitHandler(testcases *ledger.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		snapshot, err := testcases.Snapshot(c.Request.Context())
		if err != nil {
			log.Error().Err(err).Msg("Couldn't snapshot testcases")
			c.String(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
			return
		}

		var buf bytes.Buffer
		if err := junit.Write(&buf, snapshot); err != nil {
			log.Error().Err(err).Msg("Couldn't render report")
			c.String(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
			return
		}

		c.Data(http.StatusOK, junit.ContentType, buf.Bytes())
	}
}

// metricsMiddleware tracks HTTP request metrics.
func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = proxiedEndpoint
		}

		statusCode := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method

		metrics.HTTPRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(method, endpoint, statusCode).Observe(duration)
	}
}
