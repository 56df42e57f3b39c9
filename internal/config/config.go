// Package config holds the immutable, validated configuration the pipeline
// and its detectors run under.
package config

import "fmt"

// ConfigError reports a failed Config construction. The host cannot obtain an
// unusable Config: NewConfig either returns a valid value or this error.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s: %s", e.Field, e.Reason)
}

// DetectorID names a configured detector in pipeline order.
type DetectorID string

const (
	DetectorPromptInjection DetectorID = "prompt_injection"
	DetectorJailbreak       DetectorID = "jailbreak"
	DetectorDataLeakage     DetectorID = "data_leakage"
)

// CachingConfig controls the optional two-tier cache consulted by the
// pipeline on every request.
type CachingConfig struct {
	Enabled         bool
	PatternCache    bool
	ResultCache     bool
	ResultTTLSecs   int
	MaxCacheEntries int
}

// DefaultCachingConfig returns the spec's default caching record.
func DefaultCachingConfig() CachingConfig {
	return CachingConfig{
		Enabled:         false,
		PatternCache:    true,
		ResultCache:     true,
		ResultTTLSecs:   300,
		MaxCacheEntries: 10000,
	}
}

// Config is the immutable, validated configuration shared by reference
// across goroutines. Construct it only through NewConfig.
type Config struct {
	PromptInjectionDetection bool
	JailbreakDetection       bool
	DataLeakagePrevention    bool
	ContentModeration        bool // reserved; has no detector in the core
	ConfidenceThreshold      float64
	MaxInputLength           int
	MaxOutputLength          int
	EnabledDetectors         []DetectorID
	Caching                  *CachingConfig
}

// Option mutates a Config under construction. NewConfig applies options in
// order, then validates the result.
type Option func(*Config)

func WithPromptInjectionDetection(enabled bool) Option {
	return func(c *Config) { c.PromptInjectionDetection = enabled }
}

func WithJailbreakDetection(enabled bool) Option {
	return func(c *Config) { c.JailbreakDetection = enabled }
}

func WithDataLeakagePrevention(enabled bool) Option {
	return func(c *Config) { c.DataLeakagePrevention = enabled }
}

func WithContentModeration(enabled bool) Option {
	return func(c *Config) { c.ContentModeration = enabled }
}

func WithConfidenceThreshold(threshold float64) Option {
	return func(c *Config) { c.ConfidenceThreshold = threshold }
}

func WithMaxInputLength(n int) Option {
	return func(c *Config) { c.MaxInputLength = n }
}

func WithMaxOutputLength(n int) Option {
	return func(c *Config) { c.MaxOutputLength = n }
}

func WithEnabledDetectors(ids ...DetectorID) Option {
	return func(c *Config) { c.EnabledDetectors = append([]DetectorID(nil), ids...) }
}

func WithCaching(caching CachingConfig) Option {
	return func(c *Config) { c.Caching = &caching }
}

// defaults returns the spec's §3 default Config before options are applied.
func defaults() Config {
	return Config{
		PromptInjectionDetection: true,
		JailbreakDetection:       true,
		DataLeakagePrevention:    true,
		ContentModeration:        true,
		ConfidenceThreshold:      0.7,
		MaxInputLength:           10000,
		MaxOutputLength:          10000,
		EnabledDetectors:         nil,
		Caching:                  nil,
	}
}

// NewConfig constructs a Config from the spec defaults plus any options,
// then validates every invariant in spec.md §3. It returns a *ConfigError
// (wrapped as error) on the first violation found.
func NewConfig(opts ...Option) (*Config, error) {
	cfg := defaults()
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.ConfidenceThreshold < 0.0 || cfg.ConfidenceThreshold > 1.0 {
		return nil, &ConfigError{Field: "confidence_threshold", Reason: "must be within [0.0, 1.0]"}
	}
	if cfg.MaxInputLength <= 0 {
		return nil, &ConfigError{Field: "max_input_length", Reason: "must be > 0"}
	}
	if cfg.MaxOutputLength <= 0 {
		return nil, &ConfigError{Field: "max_output_length", Reason: "must be > 0"}
	}
	for _, id := range cfg.EnabledDetectors {
		if !resolvable(id) {
			return nil, &ConfigError{Field: "enabled_detectors", Reason: fmt.Sprintf("unresolvable detector id %q", id)}
		}
	}
	if cfg.Caching != nil {
		if cfg.Caching.ResultTTLSecs <= 0 {
			return nil, &ConfigError{Field: "caching.result_ttl_seconds", Reason: "must be a positive integer"}
		}
		if cfg.Caching.MaxCacheEntries <= 0 {
			return nil, &ConfigError{Field: "caching.max_cache_entries", Reason: "must be a positive integer"}
		}
	}

	return &cfg, nil
}

func resolvable(id DetectorID) bool {
	switch id {
	case DetectorPromptInjection, DetectorJailbreak, DetectorDataLeakage:
		return true
	default:
		return false
	}
}

// InputDetectors returns the detector IDs that run on validate_input, in the
// fixed declared order spec.md §6 names: Prompt-Injection, then Jailbreak
// when enabled.
func (c *Config) InputDetectors() []DetectorID {
	var ids []DetectorID
	if c.PromptInjectionDetection {
		ids = append(ids, DetectorPromptInjection)
	}
	if c.JailbreakDetection {
		ids = append(ids, DetectorJailbreak)
	}
	return ids
}

// OutputDetectors returns the detector IDs that run on validate_output.
func (c *Config) OutputDetectors() []DetectorID {
	var ids []DetectorID
	if c.DataLeakagePrevention {
		ids = append(ids, DetectorDataLeakage)
	}
	return ids
}
