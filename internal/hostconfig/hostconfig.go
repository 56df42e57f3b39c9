// Package hostconfig loads a YAML/environment overlay for embedding hosts
// (the demo server, or any application wiring the core into its own
// configuration story) and translates it into a validated config.Config.
//
// This mirrors the teacher's internal/config/config.go: Viper defaults,
// optional file, AutomaticEnv. The difference from the teacher is that
// Viper here never produces a Config directly — it only fills an
// intermediate Overlay that is then run back through config.NewConfig, so
// an overlay can never bypass the range validation in internal/config.
package hostconfig

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"llmguard/internal/config"
)

// Overlay is the host-facing, Viper-unmarshalable shape. Field names match
// the wire config keys an embedder would set in llmguard.yaml or env vars
// (LLMGUARD_DETECTION_CONFIDENCE_THRESHOLD, etc).
type Overlay struct {
	Detection struct {
		PromptInjection     bool    `mapstructure:"prompt_injection"`
		Jailbreak           bool    `mapstructure:"jailbreak"`
		DataLeakage         bool    `mapstructure:"data_leakage"`
		ContentModeration   bool    `mapstructure:"content_moderation"`
		ConfidenceThreshold float64 `mapstructure:"confidence_threshold"`
		MaxInputLength      int     `mapstructure:"max_input_length"`
		MaxOutputLength     int     `mapstructure:"max_output_length"`
	} `mapstructure:"detection"`

	Caching struct {
		Enabled         bool          `mapstructure:"enabled"`
		PatternCache    bool          `mapstructure:"pattern_cache"`
		ResultCache     bool          `mapstructure:"result_cache"`
		ResultTTL       time.Duration `mapstructure:"result_ttl"`
		MaxCacheEntries int           `mapstructure:"max_cache_entries"`
	} `mapstructure:"caching"`

	Server struct {
		Port    int           `mapstructure:"port"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"server"`
}

// Load reads llmguard.yaml from configPaths (or ./configs, ".", by default)
// plus LLMGUARD_-prefixed environment variables, and returns both the raw
// Overlay (useful for the demo server's own settings, e.g. Server.Port) and
// the validated config.Config built from it.
func Load(configPaths ...string) (*Overlay, *config.Config, error) {
	v := viper.New()

	v.SetDefault("detection.prompt_injection", true)
	v.SetDefault("detection.jailbreak", true)
	v.SetDefault("detection.data_leakage", true)
	v.SetDefault("detection.content_moderation", true)
	v.SetDefault("detection.confidence_threshold", 0.7)
	v.SetDefault("detection.max_input_length", 10000)
	v.SetDefault("detection.max_output_length", 10000)

	v.SetDefault("caching.enabled", false)
	v.SetDefault("caching.pattern_cache", true)
	v.SetDefault("caching.result_cache", true)
	v.SetDefault("caching.result_ttl", "300s")
	v.SetDefault("caching.max_cache_entries", 10000)

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.timeout", "30s")

	v.SetConfigName("llmguard")
	v.SetConfigType("yaml")
	if len(configPaths) == 0 {
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	} else {
		for _, p := range configPaths {
			v.AddConfigPath(p)
		}
	}

	v.SetEnvPrefix("LLMGUARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file is optional; defaults plus env vars are always sufficient.
	_ = v.ReadInConfig()

	var overlay Overlay
	if err := v.Unmarshal(&overlay); err != nil {
		return nil, nil, err
	}

	var detectors []config.DetectorID
	if overlay.Detection.PromptInjection {
		detectors = append(detectors, config.DetectorPromptInjection)
	}
	if overlay.Detection.Jailbreak {
		detectors = append(detectors, config.DetectorJailbreak)
	}
	if overlay.Detection.DataLeakage {
		detectors = append(detectors, config.DetectorDataLeakage)
	}

	cfg, err := config.NewConfig(
		config.WithPromptInjectionDetection(overlay.Detection.PromptInjection),
		config.WithJailbreakDetection(overlay.Detection.Jailbreak),
		config.WithDataLeakagePrevention(overlay.Detection.DataLeakage),
		config.WithContentModeration(overlay.Detection.ContentModeration),
		config.WithConfidenceThreshold(overlay.Detection.ConfidenceThreshold),
		config.WithMaxInputLength(overlay.Detection.MaxInputLength),
		config.WithMaxOutputLength(overlay.Detection.MaxOutputLength),
		config.WithEnabledDetectors(detectors...),
		config.WithCaching(config.CachingConfig{
			Enabled:         overlay.Caching.Enabled,
			PatternCache:    overlay.Caching.PatternCache,
			ResultCache:     overlay.Caching.ResultCache,
			ResultTTLSecs:   int(overlay.Caching.ResultTTL / time.Second),
			MaxCacheEntries: overlay.Caching.MaxCacheEntries,
		}),
	)
	if err != nil {
		return nil, nil, err
	}

	return &overlay, cfg, nil
}
