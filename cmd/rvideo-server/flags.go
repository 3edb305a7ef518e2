package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// version is injected at build time with -ldflags "-X main.version=...".
var version = "dev"

// streamSpec describes one -stream flag value: format:width:height.
type streamSpec struct {
	format string
	width  uint16
	height uint16
}

// cliConfig holds user-supplied flag values before translation into
// rvideo.Server configuration, matching the teacher's cliConfig/parseFlags
// split so main stays a thin driver and flag parsing stays unit-testable.
type cliConfig struct {
	listenAddr  string
	logLevel    string
	timeout     time.Duration
	maxClients  int
	showVersion bool
	streams     []streamSpec
	demo        bool
}

func parseFlags(args []string) (*cliConfig, error) {
	fs := flag.NewFlagSet("rvideo-server", flag.ContinueOnError)
	fs.SetOutput(os.Stdout)
	cfg := &cliConfig{}
	var streamFlags stringSliceFlag

	fs.StringVar(&cfg.listenAddr, "listen", ":3001", "TCP listen address")
	fs.StringVar(&cfg.logLevel, "log-level", "info", "Log level: debug|info|warn|error")
	fs.DurationVar(&cfg.timeout, "timeout", 5*time.Second, "Per-connection I/O timeout")
	fs.IntVar(&cfg.maxClients, "max-clients", 16, "Maximum concurrent streaming clients")
	fs.BoolVar(&cfg.showVersion, "version", false, "Print version and exit")
	fs.Var(&streamFlags, "stream", "Stream to publish, format:width:height (repeatable); e.g. rgb8:640:480")
	fs.BoolVar(&cfg.demo, "demo", false, "Drive every declared stream with a synthetic test pattern")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	for _, raw := range streamFlags {
		spec, err := parseStreamSpec(raw)
		if err != nil {
			return nil, err
		}
		cfg.streams = append(cfg.streams, spec)
	}

	switch cfg.logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid log-level %q", cfg.logLevel)
	}
	if cfg.maxClients <= 0 {
		return nil, fmt.Errorf("max-clients must be positive, got %d", cfg.maxClients)
	}

	return cfg, nil
}

func parseStreamSpec(raw string) (streamSpec, error) {
	parts := strings.Split(raw, ":")
	if len(parts) != 3 {
		return streamSpec{}, fmt.Errorf("invalid -stream %q, expected format:width:height", raw)
	}
	width, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil {
		return streamSpec{}, fmt.Errorf("invalid -stream width in %q: %w", raw, err)
	}
	height, err := strconv.ParseUint(parts[2], 10, 16)
	if err != nil {
		return streamSpec{}, fmt.Errorf("invalid -stream height in %q: %w", raw, err)
	}
	return streamSpec{format: strings.ToLower(parts[0]), width: uint16(width), height: uint16(height)}, nil
}

// stringSliceFlag implements flag.Value for a repeatable string flag.
type stringSliceFlag []string

func (s *stringSliceFlag) String() string { return strings.Join(*s, ", ") }
func (s *stringSliceFlag) Set(value string) error {
	*s = append(*s, value)
	return nil
}
