// Package config binds the process-level knobs every forgehub subcommand
// shares onto a pflag.FlagSet, following the teacher's main.go flag-binding
// idiom (one package-level struct, one RegisterFlags call per command).
package config

import (
	"time"

	"github.com/spf13/pflag"

	"github.com/forgehub/forgehub/pkg/namespace"
)

// Config holds every flag-bound knob shared by expand/compare/apply/dump.
type Config struct {
	// ChunkSize bounds how many entities from one tier enter a single
	// READY_CHUNK; zero means "the whole tier at once".
	ChunkSize int
	// MaxExpansionDepth bounds recursive template-call nesting (I4).
	MaxExpansionDepth int
	// Redefine governs what happens when the same (kind,name) or template
	// name is declared twice: "error", "replace", "warn", or "skip".
	Redefine string
	// SkipPhantoms drops entities whose dependency closure contains a
	// phantom instead of refusing to enter apply.
	SkipPhantoms bool
	// PromoteDiscovered probes every phantom reference against the remote
	// before a run starts and promotes the ones confirmed present from
	// Phantom to Discovered, unblocking their dependents instead of
	// refusing to apply (spec §9 Open Question: promotion is a policy
	// flag, never automatic).
	PromoteDiscovered bool
	// BatchDeadline bounds how long a single multicall batch may run.
	BatchDeadline time.Duration

	// RemoteEndpoint is the hub's multicall HTTP endpoint.
	RemoteEndpoint string
	// RemoteAuthHeader is sent verbatim as the request's Authorization
	// header, e.g. "Basic ..." or "Bearer ...".
	RemoteAuthHeader string

	// MetricsAddr, if non-empty, starts the Prometheus /metrics server on
	// this address (e.g. ":9090"). Empty disables it.
	MetricsAddr string

	// LogDevelopment switches the logger to a human-readable console
	// encoder instead of JSON.
	LogDevelopment bool
	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string
}

// Default returns the flag defaults, matching the teacher's pattern of
// giving every flag.String/.Int/.Bool call an explicit default rather than
// relying on the zero value.
func Default() *Config {
	return &Config{
		ChunkSize:         50,
		MaxExpansionDepth: 64,
		Redefine:          string(namespace.PolicyError),
		SkipPhantoms:      false,
		PromoteDiscovered: false,
		BatchDeadline:     30 * time.Second,
		RemoteEndpoint:    "",
		RemoteAuthHeader:  "",
		MetricsAddr:       "",
		LogDevelopment:    false,
		LogLevel:          "info",
	}
}

// RegisterFlags binds every field onto fs. Subcommands that don't need the
// remote or metrics flags (e.g. a pure "expand") can still call this and
// simply not read those fields.
func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	fs.IntVar(&c.ChunkSize, "chunk-size", c.ChunkSize, "entities per READY_CHUNK batch; 0 means one chunk per tier")
	fs.IntVar(&c.MaxExpansionDepth, "max-expansion-depth", c.MaxExpansionDepth, "maximum recursive template-call nesting depth")
	fs.StringVar(&c.Redefine, "redefine-policy", c.Redefine, "what to do when (kind,name) is declared twice: error|replace|warn|skip")
	fs.BoolVar(&c.SkipPhantoms, "skip-phantoms", c.SkipPhantoms, "drop entities whose dependency closure contains a phantom instead of refusing to apply")
	fs.BoolVar(&c.PromoteDiscovered, "promote-discovered", c.PromoteDiscovered, "probe phantom references against the remote and promote confirmed ones instead of refusing to apply")
	fs.DurationVar(&c.BatchDeadline, "batch-deadline", c.BatchDeadline, "deadline for one multicall batch; 0 disables the per-batch timeout")

	fs.StringVar(&c.RemoteEndpoint, "remote-endpoint", c.RemoteEndpoint, "the hub's multicall HTTP endpoint")
	fs.StringVar(&c.RemoteAuthHeader, "remote-auth-header", c.RemoteAuthHeader, "Authorization header value sent with every multicall request")

	fs.StringVar(&c.MetricsAddr, "metrics-addr", c.MetricsAddr, "address to serve Prometheus /metrics on; empty disables it")

	fs.BoolVar(&c.LogDevelopment, "log-development", c.LogDevelopment, "use a human-readable console log encoder instead of JSON")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "minimum log level: debug|info|warn|error")
}

// RedefinePolicy parses Redefine into a namespace.RedefinePolicy, defaulting
// to PolicyError on an unrecognized value.
func (c *Config) RedefinePolicy() namespace.RedefinePolicy {
	switch namespace.RedefinePolicy(c.Redefine) {
	case namespace.PolicyReplace, namespace.PolicyWarn, namespace.PolicySkip:
		return namespace.RedefinePolicy(c.Redefine)
	default:
		return namespace.PolicyError
	}
}
