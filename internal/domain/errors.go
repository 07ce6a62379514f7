package domain

import "fmt"

// ConfigError reports malformed or inconsistent input. It is fatal and is
// raised before any model assembly.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "config: " + e.Reason
	}
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// NewConfigError creates a ConfigError for the given field.
func NewConfigError(field, reason string) error {
	return &ConfigError{Field: field, Reason: reason}
}

// InfeasibleError means the assembled program admits no solution under the
// given targets. No partial plan is produced.
type InfeasibleError struct {
	Mode   ObjectiveMode
	Detail string
}

func (e *InfeasibleError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("no feasible plan exists in %s mode", e.Mode)
	}
	return fmt.Sprintf("no feasible plan exists in %s mode: %s", e.Mode, e.Detail)
}

// BackendError wraps an unexpected failure of the solve engine. The model is
// deterministic, so the failure is propagated rather than retried.
type BackendError struct {
	Operation string
	Err       error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("solver backend: %s: %v", e.Operation, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}
