// Package proxy forwards client requests to the upstream API, validates both
// sides of every exchange and records the outcome as a testcase.
package proxy

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/yougroupteam/openapi-validator-proxy/conformance"
	"github.com/yougroupteam/openapi-validator-proxy/ledger"
	"github.com/yougroupteam/openapi-validator-proxy/logger"
	"github.com/yougroupteam/openapi-validator-proxy/metrics"
	"github.com/yougroupteam/openapi-validator-proxy/route"
	"github.com/yougroupteam/openapi-validator-proxy/testcase"
)

const (
	// CorrelationIDHeader carries the id that names a testcase. A client may
	// supply one; otherwise one is generated. It's always sent upstream and
	// echoed back to the client.
	CorrelationIDHeader = "OVP-Correlation-Id"

	// FusedCorrelationHeadersHeader lists extra request headers, comma
	// separated, that are set to the correlation id on the upstream call.
	FusedCorrelationHeadersHeader = "OVP-Fused-Correlation-Headers"
)

// hopHeaders are meaningful only for a single connection and are never
// forwarded in either direction.
var hopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Proxy-Connection",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

//
// Public types
//

// Proxy is an http.Handler that validates and forwards every request it
// receives.
type Proxy struct {
	client    *http.Client
	ledger    *ledger.Ledger
	upstream  *url.URL
	validator *conformance.Validator
}

//
// Public functions
//

// New builds a Proxy. A nil client gets a zero http.Client. Redirects are
// never followed: the upstream's 3xx is validated and relayed like any other
// response.
func New(validator *conformance.Validator, upstream *url.URL, ledger *ledger.Ledger, client *http.Client) *Proxy {
	var noRedirects http.Client
	if client != nil {
		noRedirects = *client
	}
	noRedirects.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	return &Proxy{
		client:    &noRedirects,
		ledger:    ledger,
		upstream:  upstream,
		validator: validator,
	}
}

//
// Public methods
//

// ServeHTTP validates the request, forwards it upstream, validates the
// response, records a testcase and relays the upstream's response. Failures
// never change what the client receives; only an unreachable upstream turns
// into a 502.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	correlationID := r.Header.Get(CorrelationIDHeader)
	if correlationID == "" {
		correlationID = uuid.New().String()
	}

	requestLog := log.With().
		Str(logger.CorrelationIDKey, correlationID).
		Str(logger.MethodKey, r.Method).
		Str(logger.PathKey, r.URL.Path).
		Logger()
	requestLog.Info().Msg("Handling request")

	requestBody, err := io.ReadAll(r.Body)
	if err != nil {
		requestLog.Error().Err(err).Msg("Couldn't read request body")
		writeError(w, correlationID, http.StatusBadRequest)
		return
	}

	relativePath := route.RelativePath(p.upstream.Path, r.URL.Path)
	match, result := p.validator.Route(relativePath)
	result.Merge(p.validator.Validate(match, conformance.Exchange{
		Perspective: testcase.Request,
		Method:      r.Method,
		Path:        r.URL.Path,
		Header:      r.Header,
		Body:        requestBody,
	}))
	result.Properties = append(result.Properties, testcase.Property{
		Name:  testcase.PropertyCorrelationID,
		Value: correlationID,
	})

	name := fmt.Sprintf("%s %s %s", r.Method, r.URL.RequestURI(), correlationID)

	// Keep recording after the client goes away; the upstream call itself
	// still follows the client's context.
	recordCtx := context.WithoutCancel(r.Context())

	outbound, err := p.outboundRequest(r, relativePath, correlationID, requestBody)
	if err != nil {
		requestLog.Error().Err(err).Msg("Couldn't build upstream request")
		result.Properties = append(result.Properties, testcase.Property{
			Name:  testcase.PropertyUpstreamError,
			Value: err.Error(),
		})
		p.record(recordCtx, requestLog, testcase.New(name, result.Properties, result.Failures, 0))
		writeError(w, correlationID, http.StatusBadGateway)
		return
	}

	start := time.Now()
	response, responseBody, err := p.roundTrip(outbound)
	elapsed := time.Since(start)
	metrics.UpstreamDuration.WithLabelValues(r.Method).Observe(elapsed.Seconds())

	if err != nil {
		requestLog.Error().Err(err).Dur("elapsed", elapsed).Msg("Upstream request failed")
		metrics.UpstreamErrorsTotal.WithLabelValues(r.Method).Inc()

		result.Properties = append(result.Properties, testcase.Property{
			Name:  testcase.PropertyUpstreamError,
			Value: err.Error(),
		})
		p.record(recordCtx, requestLog, testcase.New(name, result.Properties, result.Failures, elapsed))
		writeError(w, correlationID, http.StatusBadGateway)
		return
	}

	result.Merge(p.validator.Validate(match, conformance.Exchange{
		Perspective: testcase.Response,
		Method:      r.Method,
		Status:      response.StatusCode,
		Header:      response.Header,
		Body:        responseBody,
	}))

	p.record(recordCtx, requestLog, testcase.New(name, result.Properties, result.Failures, elapsed))

	copyHeader(w.Header(), response.Header)
	if r.Method != http.MethodHead {
		// The body may have been decoded by the transport, so the upstream's
		// length no longer applies. net/http recomputes it.
		w.Header().Del("Content-Length")
	}
	w.Header().Set(CorrelationIDHeader, correlationID)
	w.WriteHeader(response.StatusCode)

	if len(responseBody) != 0 && r.Method != http.MethodHead {
		if _, err := w.Write(responseBody); err != nil {
			requestLog.Debug().Err(err).Msg("Couldn't write response body to client")
		}
	}

	requestLog.Info().
		Int("status", response.StatusCode).
		Dur("elapsed", elapsed).
		Int("failures", len(result.Failures)).
		Msg("Response")
}

//
// Private methods
//

// outboundRequest builds the upstream request: the upstream's base URL plus
// the relative path and the original query.
func (p *Proxy) outboundRequest(r *http.Request, relativePath, correlationID string, body []byte) (*http.Request, error) {
	target := *p.upstream
	target.Path = strings.TrimSuffix(p.upstream.Path, "/") + relativePath
	target.RawPath = ""
	target.RawQuery = r.URL.RawQuery
	target.Fragment = ""

	var reader io.Reader = http.NoBody
	if len(body) != 0 {
		reader = bytes.NewReader(body)
	}

	// Once forwarded, the call runs to completion or to the client's timeout
	// even if the caller goes away.
	outbound, err := http.NewRequestWithContext(context.WithoutCancel(r.Context()), r.Method, target.String(), reader)
	if err != nil {
		return nil, err
	}

	copyHeader(outbound.Header, r.Header)
	// Left to the transport so compressed responses arrive decoded.
	outbound.Header.Del("Accept-Encoding")
	outbound.Header.Set(CorrelationIDHeader, correlationID)

	for _, fused := range strings.Split(r.Header.Get(FusedCorrelationHeadersHeader), ",") {
		fused = strings.TrimSpace(fused)
		if fused == "" {
			continue
		}
		outbound.Header.Set(fused, correlationID)
	}

	return outbound, nil
}

func (p *Proxy) roundTrip(outbound *http.Request) (*http.Response, []byte, error) {
	response, err := p.client.Do(outbound)
	if err != nil {
		return nil, nil, err
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, nil, err
	}
	return response, body, nil
}

func (p *Proxy) record(ctx context.Context, requestLog zerolog.Logger, tc testcase.Testcase) {
	metrics.ObserveTestcase(tc)

	for _, failure := range tc.Failures {
		requestLog.Warn().
			Str("type", failure.Type()).
			Str("pointer", failure.Pointer).
			Msg(failure.Text)
	}

	if err := p.ledger.Append(ctx, tc); err != nil {
		requestLog.Warn().Err(err).Msg("Couldn't record testcase")
	}
}

//
// Private functions
//

// copyHeader copies every end-to-end header from src to dst.
func copyHeader(dst, src http.Header) {
	skip := make(map[string]bool, len(hopHeaders))
	for _, name := range hopHeaders {
		skip[name] = true
	}
	for _, value := range src.Values("Connection") {
		for _, name := range strings.Split(value, ",") {
			if name = strings.TrimSpace(name); name != "" {
				skip[http.CanonicalHeaderKey(name)] = true
			}
		}
	}

	for name, values := range src {
		if skip[http.CanonicalHeaderKey(name)] {
			continue
		}
		for _, value := range values {
			dst.Add(name, value)
		}
	}
}

func writeError(w http.ResponseWriter, correlationID string, status int) {
	w.Header().Set(CorrelationIDHeader, correlationID)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, http.StatusText(status))
}
