// Package errs defines the error kinds spec.md §7 names as normative: every
// rejection the public API returns is one of these, carrying enough
// machine-readable detail for a host to branch on without parsing strings.
// None of these are ever panicked — construction-time validation
// (config.NewConfig) is the sole synchronous-raise case, and even that
// returns an error value rather than panicking.
package errs

import "fmt"

// InputTooLong reports a pre-pipeline length check failure on the input
// side (validate_input).
type InputTooLong struct {
	Max    int
	Actual int
}

func (e *InputTooLong) Error() string {
	return fmt.Sprintf("input too long: %d characters exceeds max %d", e.Actual, e.Max)
}

// OutputTooLong is InputTooLong's output-side counterpart (validate_output).
type OutputTooLong struct {
	Max    int
	Actual int
}

func (e *OutputTooLong) Error() string {
	return fmt.Sprintf("output too long: %d characters exceeds max %d", e.Actual, e.Max)
}

// Detected reports that one or more detectors flagged the input at or
// above the configured confidence threshold. Reason is the category of the
// highest-confidence Detection; Details is the full underlying pipeline
// result for diagnostics, per spec.md §7's "every rejection carries ...
// the full underlying PipelineResult".
type Detected struct {
	Reason     string
	Confidence float64
	Details    any
}

func (e *Detected) Error() string {
	return fmt.Sprintf("detected %s at confidence %.2f", e.Reason, e.Confidence)
}

// PipelineError reports an unsuppressed detector failure (continue_on_error
// false) or a fault in the pipeline itself.
type PipelineError struct {
	Reason  string
	Details any
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline error: %s", e.Reason)
}

// PipelineTimeout reports the advisory wall-time budget (spec.md §4.1's
// `timeout` option) being exceeded. Partial detector results already
// collected are retained in Details.
type PipelineTimeout struct {
	Timeout string
	Details any
}

func (e *PipelineTimeout) Error() string {
	return fmt.Sprintf("pipeline timeout after %s", e.Timeout)
}
