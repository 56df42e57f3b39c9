package config

import "testing"

func TestNewConfigDefaults(t *testing.T) {
	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if cfg.ConfidenceThreshold != 0.7 {
		t.Errorf("ConfidenceThreshold = %v, want 0.7", cfg.ConfidenceThreshold)
	}
	if cfg.MaxInputLength != 10000 || cfg.MaxOutputLength != 10000 {
		t.Errorf("max lengths = %d/%d, want 10000/10000", cfg.MaxInputLength, cfg.MaxOutputLength)
	}
	if !cfg.PromptInjectionDetection || !cfg.JailbreakDetection || !cfg.DataLeakagePrevention {
		t.Error("detection flags should default to true")
	}
}

func TestNewConfigRejectsOutOfRangeThreshold(t *testing.T) {
	for _, threshold := range []float64{-0.1, 1.1} {
		if _, err := NewConfig(WithConfidenceThreshold(threshold)); err == nil {
			t.Errorf("threshold %v: expected InvalidConfig, got nil", threshold)
		}
	}
}

func TestNewConfigRejectsNonPositiveLengths(t *testing.T) {
	if _, err := NewConfig(WithMaxInputLength(0)); err == nil {
		t.Error("max_input_length=0 should be rejected")
	}
	if _, err := NewConfig(WithMaxOutputLength(-5)); err == nil {
		t.Error("max_output_length=-5 should be rejected")
	}
}

func TestNewConfigRejectsUnresolvableDetector(t *testing.T) {
	if _, err := NewConfig(WithEnabledDetectors("not_a_real_detector")); err == nil {
		t.Error("unresolvable detector id should be rejected")
	}
}

func TestNewConfigRejectsInvalidCaching(t *testing.T) {
	if _, err := NewConfig(WithCaching(CachingConfig{ResultTTLSecs: 0, MaxCacheEntries: 10})); err == nil {
		t.Error("result_ttl_seconds=0 should be rejected")
	}
	if _, err := NewConfig(WithCaching(CachingConfig{ResultTTLSecs: 300, MaxCacheEntries: 0})); err == nil {
		t.Error("max_cache_entries=0 should be rejected")
	}
}

func TestInputOutputDetectorOrder(t *testing.T) {
	cfg, err := NewConfig(
		WithPromptInjectionDetection(true),
		WithJailbreakDetection(true),
		WithDataLeakagePrevention(true),
	)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}

	in := cfg.InputDetectors()
	if len(in) != 2 || in[0] != DetectorPromptInjection || in[1] != DetectorJailbreak {
		t.Errorf("InputDetectors = %v, want [prompt_injection jailbreak]", in)
	}

	out := cfg.OutputDetectors()
	if len(out) != 1 || out[0] != DetectorDataLeakage {
		t.Errorf("OutputDetectors = %v, want [data_leakage]", out)
	}
}

func TestInputDetectorsRespectsDisabled(t *testing.T) {
	cfg, err := NewConfig(WithJailbreakDetection(false))
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	for _, id := range cfg.InputDetectors() {
		if id == DetectorJailbreak {
			t.Error("jailbreak detector should be excluded when disabled")
		}
	}
}
