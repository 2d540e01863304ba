package scpi

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Limits is the Go-native surface for the constants spec.md calls out as
// "exposed, not negotiable": negotiable across Engine instances at
// construction time, fixed for the lifetime of the Engine that was built
// with them. A zero Limits is never used directly; DefaultLimits fills in
// spec.md's own defaults for anything a loaded config leaves at zero.
type Limits struct {
	ErrorQueueSize         int    `yaml:"error_queue_size"`
	MaxCommandLength       int    `yaml:"max_command_length"`
	MaxIdentifierLength    int    `yaml:"max_identifier_length"`
	MaxChannelExpansion    int    `yaml:"max_channel_expansion"`
	ResolverDepthCap       int    `yaml:"resolver_depth_cap"`
	BlockTerminator        string `yaml:"block_terminator"`
	LittleEndianByDefault  bool   `yaml:"little_endian_by_default"`
}

// DefaultLimits returns spec.md's own defaults.
func DefaultLimits() Limits {
	return Limits{
		ErrorQueueSize:        DefaultErrorQueueSize,
		MaxCommandLength:      DefaultMaxCommandLength,
		MaxIdentifierLength:   MaxIdentifierLength,
		MaxChannelExpansion:   MaxChannelExpansion,
		ResolverDepthCap:      maxResolveDepth,
		BlockTerminator:       "LF",
		LittleEndianByDefault: false,
	}
}

// applyZeroes fills any zero-valued numeric/string field of l with
// DefaultLimits()'s value, so a partially-specified YAML document only
// overrides what it actually sets.
func (l Limits) applyZeroes() Limits {
	def := DefaultLimits()
	if l.ErrorQueueSize == 0 {
		l.ErrorQueueSize = def.ErrorQueueSize
	}
	if l.MaxCommandLength == 0 {
		l.MaxCommandLength = def.MaxCommandLength
	}
	if l.MaxIdentifierLength == 0 {
		l.MaxIdentifierLength = def.MaxIdentifierLength
	}
	if l.MaxChannelExpansion == 0 {
		l.MaxChannelExpansion = def.MaxChannelExpansion
	}
	if l.ResolverDepthCap == 0 {
		l.ResolverDepthCap = def.ResolverDepthCap
	}
	if l.BlockTerminator == "" {
		l.BlockTerminator = def.BlockTerminator
	}
	return l
}

// LogConfig controls the optional logrus sink an embedder can attach via
// Engine.SetLogger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// ServerConfig controls the optional Prometheus metrics HTTP endpoint an
// embedder can expose alongside the engine (see metrics.Collector); this
// library never listens on a socket itself, it only describes where the
// embedder's own metrics handler should be mounted.
type ServerConfig struct {
	MetricsAddr string `yaml:"metrics_addr"`
	MetricsPath string `yaml:"metrics_path"`
}

// Config is the top-level YAML document an embedder loads at startup.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
	Limits Limits       `yaml:"limits"`
}

// DefaultConfig returns a Config populated with this library's own defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			MetricsAddr: ":9090",
			MetricsPath: "/metrics",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
		Limits: DefaultLimits(),
	}
}

// LoadConfig reads and parses a YAML config file at path, filling in any
// zero-valued Limits field with this library's own default.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scpi: reading config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("scpi: parsing config: %w", err)
	}
	cfg.Limits = cfg.Limits.applyZeroes()

	return cfg, nil
}

// blockTerminatorFuncFromString maps Limits.BlockTerminator's YAML value to
// a BlockTerminatorFunc: "LF" (the DefaultLimits value) or "CR"
// (case-insensitive) restrict the indefinite-block terminator to that one
// byte; anything else keeps the lexer's default of accepting either.
func blockTerminatorFuncFromString(s string) BlockTerminatorFunc {
	switch strings.ToUpper(s) {
	case "LF":
		return func(b byte) bool { return b == '\n' }
	case "CR":
		return func(b byte) bool { return b == '\r' }
	default:
		return defaultBlockTerminator
	}
}

// NewEngineFromLimits creates an Engine whose error queue capacity, splitter
// caps, resolver recursion depth, and lexer identifier/block-terminator
// behavior all come from limits. A nil limits yields spec.md's own defaults.
func NewEngineFromLimits(limits *Limits) *Engine {
	if limits == nil {
		def := DefaultLimits()
		limits = &def
	}
	e := NewEngineWithQueueSize(limits.ErrorQueueSize)
	e.splitter.SetMaxCommandLength(limits.MaxCommandLength)
	e.splitter.SetMaxChannelExpansion(limits.MaxChannelExpansion)
	e.splitter.SetMaxIdentifierLength(limits.MaxIdentifierLength)
	e.splitter.SetBlockTerminator(blockTerminatorFuncFromString(limits.BlockTerminator))
	e.resolver.SetMaxResolveDepth(limits.ResolverDepthCap)
	if limits.LittleEndianByDefault {
		e.ctx.SetByteOrder(LittleEndian)
	}
	return e
}
