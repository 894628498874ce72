// Package config reads the proxy's command line and environment.
package config

import (
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/yougroupteam/openapi-validator-proxy/logger"
)

// Command is the only subcommand the binary accepts.
const Command = "proxy"

// Defaults used when neither a flag nor an environment variable is set.
const (
	DefaultHost      = "127.0.0.1"
	DefaultPort      = "3000"
	DefaultLogLevel  = "info"
	DefaultLogFormat = logger.FormatConsole
)

// Config holds the proxy's validated configuration.
type Config struct {
	// SpecPath is the OpenAPI document to validate against.
	SpecPath string

	// Upstream is the base URL requests are forwarded to. Its path, if any,
	// is stripped from inbound paths before routing.
	Upstream *url.URL

	Host string
	Port string

	LogLevel  string
	LogFormat string

	// UpstreamTimeout bounds each upstream round trip. Zero means no limit
	// beyond the inbound request's own context.
	UpstreamTimeout time.Duration
}

// Load parses args (without the program name) and the environment. Flags
// win over environment variables, which win over defaults. Every problem
// found is reported in a single error. pflag.ErrHelp is returned as is when
// --help was asked for.
func Load(args []string) (*Config, error) {
	fs, raw := newFlagSet(io.Discard)
	if err := fs.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil, err
		}
		return nil, errors.Wrap(err, "failed to parse arguments")
	}

	config, err := raw.validate(fs.Args())
	if err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

// Usage writes the command line help to w.
func Usage(w io.Writer) {
	fs, _ := newFlagSet(w)
	fmt.Fprintf(w, "Usage: ovp %s FILE UPSTREAM [flags]\n\n", Command)
	fmt.Fprintf(w, "Proxies requests to UPSTREAM and validates both sides of every\n")
	fmt.Fprintf(w, "exchange against the OpenAPI document in FILE.\n\n")
	fmt.Fprintf(w, "Flags:\n")
	fs.PrintDefaults()
}

// Address is the host:port the proxy listens on.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

//
// Private types
//

// rawConfig holds flag and environment values before validation.
type rawConfig struct {
	host            string
	logFormat       string
	logLevel        string
	port            string
	upstreamTimeout string
}

//
// Private functions
//

func newFlagSet(output io.Writer) (*pflag.FlagSet, *rawConfig) {
	raw := &rawConfig{}

	fs := pflag.NewFlagSet(Command, pflag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&raw.host, "host", getEnv("OVP_HOST", DefaultHost),
		"Address to bind the proxy to (env OVP_HOST)")
	fs.StringVar(&raw.port, "port", getEnv("OVP_PORT", DefaultPort),
		"Port to listen on (env OVP_PORT)")
	fs.StringVar(&raw.logLevel, "log-level", getEnv("LOG_LEVEL", DefaultLogLevel),
		"Log level: trace, debug, info, warn or error (env LOG_LEVEL)")
	fs.StringVar(&raw.logFormat, "log-format", getEnv("OVP_LOG_FORMAT", DefaultLogFormat),
		"Log format: console or json (env OVP_LOG_FORMAT)")
	fs.StringVar(&raw.upstreamTimeout, "upstream-timeout", getEnv("OVP_UPSTREAM_TIMEOUT", "0s"),
		"Timeout for each upstream round trip, 0 for none (env OVP_UPSTREAM_TIMEOUT)")
	return fs, raw
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

//
// Private methods
//

func (r *rawConfig) validate(positional []string) (*Config, error) {
	var problems []string
	config := &Config{
		Host:      r.host,
		Port:      r.port,
		LogLevel:  r.logLevel,
		LogFormat: r.logFormat,
	}

	switch {
	case len(positional) == 0:
		problems = append(problems, fmt.Sprintf("expected command %q", Command))
	case positional[0] != Command:
		problems = append(problems, fmt.Sprintf("unknown command %q, expected %q", positional[0], Command))
	case len(positional) != 3:
		problems = append(problems, fmt.Sprintf("%s takes exactly two arguments, FILE and UPSTREAM", Command))
	default:
		config.SpecPath = positional[1]
		if config.SpecPath == "" {
			problems = append(problems, "FILE must not be empty")
		}

		upstream, err := parseUpstream(positional[2])
		if err != nil {
			problems = append(problems, err.Error())
		}
		config.Upstream = upstream
	}

	if err := validatePort(r.port); err != nil {
		problems = append(problems, err.Error())
	}

	if r.host == "" {
		problems = append(problems, "host must not be empty")
	}

	if _, err := logger.ParseLevel(r.logLevel); err != nil {
		problems = append(problems, err.Error())
	}

	switch r.logFormat {
	case logger.FormatConsole, logger.FormatJSON:
	default:
		problems = append(problems, fmt.Sprintf("log format must be %q or %q, got %q",
			logger.FormatConsole, logger.FormatJSON, r.logFormat))
	}

	timeout, err := time.ParseDuration(r.upstreamTimeout)
	switch {
	case err != nil:
		problems = append(problems, fmt.Sprintf("invalid upstream timeout %q", r.upstreamTimeout))
	case timeout < 0:
		problems = append(problems, "upstream timeout must not be negative")
	default:
		config.UpstreamTimeout = timeout
	}

	if len(problems) > 0 {
		return nil, errors.Errorf("configuration validation errors:\n%s", strings.Join(problems, "\n"))
	}
	return config, nil
}

func parseUpstream(raw string) (*url.URL, error) {
	upstream, err := url.Parse(raw)
	if err != nil {
		return nil, errors.Errorf("invalid upstream URL %q", raw)
	}
	if upstream.Scheme != "http" && upstream.Scheme != "https" {
		return nil, errors.Errorf("upstream URL %q must use http or https", raw)
	}
	if upstream.Host == "" {
		return nil, errors.Errorf("upstream URL %q has no host", raw)
	}
	if upstream.RawQuery != "" || upstream.Fragment != "" {
		return nil, errors.Errorf("upstream URL %q must not have a query or fragment", raw)
	}
	return upstream, nil
}

func validatePort(port string) error {
	if port == "" {
		return errors.New("port is required")
	}

	n, err := strconv.Atoi(port)
	if err != nil {
		return errors.Errorf("port must be a number, got %q", port)
	}
	if n < 1 || n > 65535 {
		return errors.Errorf("port must be between 1 and 65535, got %d", n)
	}
	return nil
}
