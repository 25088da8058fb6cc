// Package errors provides standardized error handling for the discovery
// and application pipeline.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Discovery / source errors. Recovered by tier escalation inside the
	// aggregator, never surfaced past it.
	ErrCodeSourceUnavailable ErrorCode = "SOURCE_UNAVAILABLE"
	ErrCodeSourceBlocked     ErrorCode = "SOURCE_BLOCKED"
	ErrCodeSourceTimeout     ErrorCode = "SOURCE_TIMEOUT"
	ErrCodeSourceBadPayload  ErrorCode = "SOURCE_BAD_PAYLOAD"

	// AI gateway errors. Both recover to documented fallback values; quota
	// exhaustion is detected before the call, rate limiting after.
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	ErrCodeQuotaExhausted    ErrorCode = "QUOTA_EXHAUSTED"
	ErrCodeAICallFailed      ErrorCode = "AI_CALL_FAILED"

	// Pipeline stage errors.
	ErrCodeExtractionFailed       ErrorCode = "EXTRACTION_FAILED"
	ErrCodePersistenceFailed      ErrorCode = "PERSISTENCE_FAILED"
	ErrCodeArtifactUploadFailed   ErrorCode = "ARTIFACT_UPLOAD_FAILED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	// Scheduler errors.
	ErrCodeUserAutomationFailed ErrorCode = "USER_AUTOMATION_FAILED"
	ErrCodeRunLockHeld          ErrorCode = "RUN_LOCK_HELD"

	// Fatal configuration errors, propagated to the operator at startup.
	ErrCodeConfigInvalid ErrorCode = "CONFIG_INVALID"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Is lets errors.Is match two StandardErrors by code.
func (e *StandardError) Is(target error) bool {
	var std *StandardError
	if errors.As(target, &std) {
		return std.Code == e.Code
	}
	return false
}

// CodeOf extracts the ErrorCode from err, or empty when err is not a
// StandardError.
func CodeOf(err error) ErrorCode {
	var std *StandardError
	if errors.As(err, &std) {
		return std.Code
	}
	return ""
}

// IsQuotaExhausted reports whether err is the daily-ceiling condition.
func IsQuotaExhausted(err error) bool {
	return CodeOf(err) == ErrCodeQuotaExhausted
}

// IsRateLimited reports whether err is a transient rate-limit rejection.
func IsRateLimited(err error) bool {
	return CodeOf(err) == ErrCodeRateLimitExceeded
}

// IsBlocked reports whether err is a source block signal (challenge or
// login wall), which permanently downgrades the browser tier.
func IsBlocked(err error) bool {
	return CodeOf(err) == ErrCodeSourceBlocked
}

// ==========================
// 2. Error Constructors
// ==========================

// NewSourceUnavailableError marks one job source as down, unauthorized or
// misconfigured for this call.
func NewSourceUnavailableError(source string, err error) *StandardError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return &StandardError{
		Code:      ErrCodeSourceUnavailable,
		Message:   "Job source unavailable",
		Details:   details,
		Retryable: true,
		Metadata:  map[string]interface{}{"source": source},
		Timestamp: time.Now().UTC(),
	}
}

// NewSourceBlockedError signals a block wall; the browser tier treats it
// as a one-way circuit breaker for the process lifetime.
func NewSourceBlockedError(source, signal string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSourceBlocked,
		Message:   "Job source blocked the session",
		Details:   signal,
		Retryable: false,
		Metadata:  map[string]interface{}{"source": source},
		Timestamp: time.Now().UTC(),
	}
}

// NewSourceTimeoutError marks a navigation or API call timeout; treated
// identically to any other source failure.
func NewSourceTimeoutError(source string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSourceTimeout,
		Message:   "Job source call timed out",
		Details:   fmt.Sprintf("source: %s", source),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSourceBadPayloadError marks a malformed external payload rejected at
// the aggregator boundary.
func NewSourceBadPayloadError(source, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSourceBadPayload,
		Message:   "Job source returned a malformed payload",
		Details:   details,
		Retryable: false,
		Metadata:  map[string]interface{}{"source": source},
		Timestamp: time.Now().UTC(),
	}
}

// NewQuotaExhaustedError is returned before attempting an AI call once
// the daily ceiling is reached.
func NewQuotaExhaustedError(limit int) *StandardError {
	return &StandardError{
		Code:      ErrCodeQuotaExhausted,
		Message:   "Daily AI call ceiling reached",
		Details:   fmt.Sprintf("limit: %d calls per day", limit),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRateLimitExceededError wraps an external rate-limit rejection.
func NewRateLimitExceededError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRateLimitExceeded,
		Message:   "External AI service rejected the call rate",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAICallFailedError wraps a transient AI call failure.
func NewAICallFailedError(op string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAICallFailed,
		Message:   "AI call failed",
		Details:   fmt.Sprintf("op: %s, error: %s", op, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewExtractionFailedError marks a best-effort extraction failure.
func NewExtractionFailedError(what string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeExtractionFailed,
		Message:   "Extraction failed",
		Details:   fmt.Sprintf("what: %s, error: %s", what, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPersistenceFailedError marks a persistence write failure; the
// pipeline logs it and continues.
func NewPersistenceFailedError(op string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePersistenceFailed,
		Message:   "Persistence operation failed",
		Details:   fmt.Sprintf("op: %s, error: %s", op, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewArtifactUploadFailedError marks an artifact store failure; yields a
// null link, never an abort.
func NewArtifactUploadFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeArtifactUploadFailed,
		Message:   "Artifact upload failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError marks a notifier failure; logged only.
func NewNotificationSendFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification send failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewUserAutomationFailedError isolates one user's total failure at the
// scheduler boundary.
func NewUserAutomationFailedError(userID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeUserAutomationFailed,
		Message:   "Automation failed for user",
		Details:   err.Error(),
		Retryable: false,
		Metadata:  map[string]interface{}{"userId": userID},
		Timestamp: time.Now().UTC(),
	}
}

// NewRunLockHeldError signals that a prior scheduled run still holds the
// run lease.
func NewRunLockHeldError() *StandardError {
	return &StandardError{
		Code:      ErrCodeRunLockHeld,
		Message:   "A previous automation run is still active",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewConfigInvalidError is fatal: no fallback is possible before any
// external identity exists.
func NewConfigInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfigInvalid,
		Message:   "Invalid configuration",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}
