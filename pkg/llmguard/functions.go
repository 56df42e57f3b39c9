package llmguard

import "context"

// ValidateInput is the free-function form of spec.md §6's
// validate_input(text, config): it builds a throwaway Guard from cfg and
// runs it once. Callers issuing more than one validation should build a
// Guard with New and reuse it — constructing detector catalogues per call
// is wasted work the pattern compilation is designed to avoid.
func ValidateInput(ctx context.Context, text string, cfg *Config) (string, error) {
	g, err := New(cfg)
	if err != nil {
		return "", err
	}
	return g.ValidateInput(ctx, text)
}

// ValidateOutput is ValidateInput's output-side counterpart.
func ValidateOutput(ctx context.Context, text string, cfg *Config) (string, error) {
	g, err := New(cfg)
	if err != nil {
		return "", err
	}
	return g.ValidateOutput(ctx, text)
}

// ValidateBatch is the free-function form of spec.md §6's validate_batch,
// preserving input order.
func ValidateBatch(ctx context.Context, texts []string, cfg *Config, kind BatchKind) []BatchResult {
	g, err := New(cfg)
	if err != nil {
		results := make([]BatchResult, len(texts))
		for i := range texts {
			results[i] = BatchResult{Index: i, Err: err}
		}
		return results
	}
	return g.ValidateBatch(ctx, texts, kind)
}
