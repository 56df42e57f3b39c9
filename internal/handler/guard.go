// Package handler implements the demo HTTP surface cmd/llmguard-server
// exposes, grounded on the teacher's internal/handler/detection.go — same
// Gin-handler-over-a-pipeline shape, same request logging discipline,
// rebuilt against llmguard.Guard instead of a single LLM-calling detector.
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"llmguard/internal/errs"
	"llmguard/pkg/llmguard"
)

// GuardHandler adapts a *llmguard.Guard to Gin routes.
type GuardHandler struct {
	guard  *llmguard.Guard
	logger *logrus.Logger
}

// NewGuardHandler wires a GuardHandler around guard.
func NewGuardHandler(guard *llmguard.Guard, logger *logrus.Logger) *GuardHandler {
	return &GuardHandler{guard: guard, logger: logger}
}

type validateRequest struct {
	Text string `json:"text" binding:"required"`
}

type batchRequest struct {
	Texts []string `json:"texts" binding:"required"`
}

// ValidateInput handles POST /v1/validate/input.
func (h *GuardHandler) ValidateInput(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload", "details": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	h.logger.WithFields(logrus.Fields{
		"text_length": len(req.Text),
		"client_ip":   c.ClientIP(),
	}).Info("processing input validation request")

	validated, err := h.guard.ValidateInput(ctx, req.Text)
	h.respond(c, validated, err)
}

// ValidateOutput handles POST /v1/validate/output.
func (h *GuardHandler) ValidateOutput(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload", "details": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	validated, err := h.guard.ValidateOutput(ctx, req.Text)
	h.respond(c, validated, err)
}

// ValidateBatch handles POST /v1/validate/batch.
func (h *GuardHandler) ValidateBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload", "details": err.Error()})
		return
	}
	if len(req.Texts) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at least one text is required"})
		return
	}
	if len(req.Texts) > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "batch size cannot exceed 100 texts"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	results := h.guard.ValidateBatch(ctx, req.Texts, llmguard.BatchInput)

	payload := make([]gin.H, len(results))
	for i, r := range results {
		entry := gin.H{"index": r.Index, "text": r.Text}
		if r.Err != nil {
			entry["error"] = classifyError(r.Err)
		}
		payload[i] = entry
	}

	c.JSON(http.StatusOK, gin.H{"results": payload})
}

// Health handles GET /health.
func (h *GuardHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// Metrics handles GET /v1/metrics, returning the JSON telemetry snapshot.
func (h *GuardHandler) Metrics(c *gin.Context) {
	snap := h.guard.Metrics()
	c.JSON(http.StatusOK, gin.H{
		"requests_total":    snap.RequestsTotal,
		"requests_safe":     snap.RequestsSafe,
		"requests_detected": snap.RequestsDetected,
		"requests_error":    snap.RequestsError,
		"cache_hits":        snap.CacheHits,
		"cache_misses":      snap.CacheMisses,
		"cache_hit_rate":    snap.CacheHitRate,
		"latency_p50_ms":    snap.P50Millis,
		"latency_p95_ms":    snap.P95Millis,
		"latency_p99_ms":    snap.P99Millis,
	})
}

// PrometheusMetrics handles GET /metrics in Prometheus text format.
func (h *GuardHandler) PrometheusMetrics(c *gin.Context) {
	body, err := h.guard.PrometheusMetrics()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "text/plain; version=0.0.4; charset=utf-8", body)
}

// respond maps a validation outcome onto the HTTP response the way
// spec.md §6's tri-state return demands: 200 with the (possibly trimmed)
// text on success, 422 with the detection details on a firing detection,
// 413 on a too-long input/output, and 500 on a pipeline error.
func (h *GuardHandler) respond(c *gin.Context, validated string, err error) {
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"text": validated, "safe": true})
		return
	}

	h.logger.WithError(err).Warn("validation rejected request")
	c.JSON(statusFor(err), classifyError(err))
}

func statusFor(err error) int {
	var detected *errs.Detected
	var tooLongIn *errs.InputTooLong
	var tooLongOut *errs.OutputTooLong
	var timeout *errs.PipelineTimeout

	switch {
	case errors.As(err, &detected):
		return http.StatusUnprocessableEntity
	case errors.As(err, &tooLongIn), errors.As(err, &tooLongOut):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &timeout):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

// classifyError renders err into the machine-readable {reason, ...} shape
// spec.md §7 requires every rejection to carry.
func classifyError(err error) gin.H {
	var detected *errs.Detected
	var tooLongIn *errs.InputTooLong
	var tooLongOut *errs.OutputTooLong
	var pipelineErr *errs.PipelineError
	var timeout *errs.PipelineTimeout

	switch {
	case errors.As(err, &detected):
		return gin.H{"reason": "detected", "category": detected.Reason, "confidence": detected.Confidence}
	case errors.As(err, &tooLongIn):
		return gin.H{"reason": "input_too_long", "max": tooLongIn.Max, "actual": tooLongIn.Actual}
	case errors.As(err, &tooLongOut):
		return gin.H{"reason": "output_too_long", "max": tooLongOut.Max, "actual": tooLongOut.Actual}
	case errors.As(err, &timeout):
		return gin.H{"reason": "pipeline_timeout", "timeout": timeout.Timeout}
	case errors.As(err, &pipelineErr):
		return gin.H{"reason": "pipeline_error", "details": pipelineErr.Reason}
	default:
		return gin.H{"reason": "error", "details": err.Error()}
	}
}
