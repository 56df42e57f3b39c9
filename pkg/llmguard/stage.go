package llmguard

import (
	"context"
	"errors"

	"llmguard/internal/errs"
	"llmguard/internal/pipeline"
)

// GuardrailStatus is the tri-state outcome a Stage writes into
// Context.Guardrails, per spec.md §6.
type GuardrailStatus string

const (
	StatusSafe     GuardrailStatus = "safe"
	StatusDetected GuardrailStatus = "detected"
	StatusError    GuardrailStatus = "error"
)

// Context is the embeddable request-graph context spec.md §6 describes.
// Exactly one of Inputs or Outputs is populated by the caller; the Stage
// fills in Guardrails.
type Context struct {
	Inputs     []string
	Outputs    []string
	Guardrails *GuardrailResult
}

// GuardrailResult is what a Stage writes into Context.Guardrails.
type GuardrailResult struct {
	Status           GuardrailStatus
	ValidatedInputs  []string
	ValidatedOutputs []string
	Detections       []pipeline.Detection
	Errors           []string
	Config           *Config
}

// StageOptions configures one Stage.Run call.
type StageOptions struct {
	// FailOnDetection flips Run's return to a non-nil error carrying the
	// firing detections when any detector fired, per spec.md §6.
	FailOnDetection bool
}

// Stage adapts a Guard to the embeddable pipeline-stage interface spec.md
// §6 names, for hosts composing their own request graph (e.g. a
// multi-stage middleware chain) rather than calling ValidateInput/Output
// directly.
type Stage struct {
	guard *Guard
}

// NewStage wraps guard as a Stage.
func NewStage(guard *Guard) *Stage {
	return &Stage{guard: guard}
}

// ThreatsDetectedError is returned by Run when opts.FailOnDetection is set
// and at least one detection fired.
type ThreatsDetectedError struct {
	Guardrails *GuardrailResult
}

func (e *ThreatsDetectedError) Error() string {
	return "guardrails: threats detected"
}

// Run implements spec.md §6's pipeline-stage contract: it validates
// whichever of Inputs/Outputs is populated on sctx, writes a GuardrailResult
// into the returned Context, and — per opts.FailOnDetection — either
// returns that Context with a nil error or flips to a *ThreatsDetectedError
// carrying the same GuardrailResult.
func (s *Stage) Run(ctx context.Context, sctx Context, opts StageOptions) (Context, error) {
	result := &GuardrailResult{Status: StatusSafe, Config: s.guard.cfg}

	switch {
	case len(sctx.Inputs) > 0:
		s.runInputs(ctx, sctx.Inputs, result)
	case len(sctx.Outputs) > 0:
		s.runOutputs(ctx, sctx.Outputs, result)
	}

	sctx.Guardrails = result

	if opts.FailOnDetection && result.Status == StatusDetected {
		return sctx, &ThreatsDetectedError{Guardrails: result}
	}
	return sctx, nil
}

func (s *Stage) runInputs(ctx context.Context, inputs []string, result *GuardrailResult) {
	for _, text := range inputs {
		validated, err := s.guard.ValidateInput(ctx, text)
		s.recordOutcome(err, result)
		result.ValidatedInputs = append(result.ValidatedInputs, validated)
	}
}

func (s *Stage) runOutputs(ctx context.Context, outputs []string, result *GuardrailResult) {
	for _, text := range outputs {
		validated, err := s.guard.ValidateOutput(ctx, text)
		s.recordOutcome(err, result)
		result.ValidatedOutputs = append(result.ValidatedOutputs, validated)
	}
}

// recordOutcome classifies one validation's error (if any) into the
// GuardrailResult's status/detections/errors, escalating Safe -> Detected
// -> Error but never de-escalating once a worse status is recorded.
func (s *Stage) recordOutcome(err error, result *GuardrailResult) {
	if err == nil {
		return
	}

	var detected *errs.Detected
	if errors.As(err, &detected) {
		if result.Status == StatusSafe {
			result.Status = StatusDetected
		}
		if pr, ok := detected.Details.(pipeline.Result); ok {
			result.Detections = append(result.Detections, pr.Detections...)
		}
		return
	}

	result.Status = StatusError
	result.Errors = append(result.Errors, err.Error())
}
