package domain

import "fmt"

// EngineError is the unified error type for the tracker.
// Each error has a numeric code and human-readable message.
type EngineError struct {
	Code    int
	Message string
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	return fmt.Sprintf("tracker error %d: %s", e.Code, e.Message)
}

// NewEngineError creates a new EngineError.
func NewEngineError(code int, msg string) *EngineError {
	return &EngineError{Code: code, Message: msg}
}

// WrapEngineError creates an EngineError that includes a cause.
func WrapEngineError(code int, msg string, cause error) *EngineError {
	if cause == nil {
		return &EngineError{Code: code, Message: msg}
	}
	return &EngineError{Code: code, Message: fmt.Sprintf("%s: %v", msg, cause)}
}

// ---- Program construction errors (-32010 to -32029) ----

var (
	ErrProgramInvalid  = &EngineError{Code: -32010, Message: "invalid program definition"}
	ErrZoneInvalid     = &EngineError{Code: -32014, Message: "invalid zone value"}
	ErrOutcomeInvalid  = &EngineError{Code: -32015, Message: "invalid shot outcome value"}
	ErrTemplateUnknown = &EngineError{Code: -32016, Message: "unknown program template"}
)

// ---- Session / runner errors (-32030 to -32049) ----

var (
	ErrSessionNotFound  = &EngineError{Code: -32030, Message: "drill session not found"}
	ErrSessionNotActive = &EngineError{Code: -32031, Message: "drill session is not active"}
)

// ---- Ingress guard errors (-32050 to -32069) ----

var (
	ErrRateLimitExceeded  = &EngineError{Code: -32050, Message: "shot ingress rate limit exceeded"}
	ErrDuplicateDetection = &EngineError{Code: -32051, Message: "duplicate classification dropped"}
)

// ---- Vision adapter errors (-32070 to -32089) ----

var (
	ErrProviderUnavailable   = &EngineError{Code: -32070, Message: "vision provider unavailable"}
	ErrVisionSessionNotFound = &EngineError{Code: -32071, Message: "vision session not found"}
	ErrDetectionInvalid      = &EngineError{Code: -32072, Message: "detection payload is invalid"}
)

// ---- Store / config errors (-32130 to -32149) ----

var (
	ErrStoreInit     = &EngineError{Code: -32130, Message: "failed to initialize store"}
	ErrStoreQuery    = &EngineError{Code: -32131, Message: "store query failed"}
	ErrStoreWrite    = &EngineError{Code: -32132, Message: "store write failed"}
	ErrConfigInvalid = &EngineError{Code: -32136, Message: "invalid configuration"}
)
