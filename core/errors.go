package core

import (
	"errors"
	"fmt"
)

// InvalidContextError reports an ExecutionContext that failed validation:
// a missing or blank mandatory identifier, a wrong wire type, or use of a
// deprecated wire field. Field names the offending field.
type InvalidContextError struct {
	Field  string
	Reason string
}

func (e *InvalidContextError) Error() string {
	return fmt.Sprintf("invalid execution context: field %q: %s", e.Field, e.Reason)
}

// IsInvalidContext reports whether err is (or wraps) an *InvalidContextError.
func IsInvalidContext(err error) bool {
	var e *InvalidContextError
	return errors.As(err, &e)
}

// ConfigurationError reports a structurally valid request that cannot be
// executed because required wiring is absent, e.g. a missing session store
// handle or an unconfigured agent catalog.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Reason)
}

// IsConfiguration reports whether err is (or wraps) a *ConfigurationError.
func IsConfiguration(err error) bool {
	var e *ConfigurationError
	return errors.As(err, &e)
}

// UnknownAgentError reports a request for an agent name the catalog does not
// register.
type UnknownAgentError struct {
	Name string
}

func (e *UnknownAgentError) Error() string {
	return fmt.Sprintf("unknown agent type: %q", e.Name)
}

// IsUnknownAgent reports whether err is (or wraps) an *UnknownAgentError.
func IsUnknownAgent(err error) bool {
	var e *UnknownAgentError
	return errors.As(err, &e)
}

// AgentExecutionError reports a failure inside a single agent unit execution.
// It wraps the underlying cause so errors.Is / errors.As keep working through
// the orchestration layers.
type AgentExecutionError struct {
	AgentName string
	Err       error
}

func (e *AgentExecutionError) Error() string {
	return fmt.Sprintf("agent %q execution failed: %v", e.AgentName, e.Err)
}

// Unwrap returns the underlying cause.
func (e *AgentExecutionError) Unwrap() error { return e.Err }

// IsAgentExecution reports whether err is (or wraps) an *AgentExecutionError.
func IsAgentExecution(err error) bool {
	var e *AgentExecutionError
	return errors.As(err, &e)
}

// NotificationDeliveryError reports a failure to hand a lifecycle event to
// the notification sink. Delivery failures are never swallowed: a run whose
// progress cannot be observed must surface that fact to its caller.
type NotificationDeliveryError struct {
	Kind EventKind
	Err  error
}

func (e *NotificationDeliveryError) Error() string {
	return fmt.Sprintf("notification delivery failed for %q event: %v", e.Kind, e.Err)
}

// Unwrap returns the underlying cause.
func (e *NotificationDeliveryError) Unwrap() error { return e.Err }

// IsNotificationDelivery reports whether err is (or wraps) a
// *NotificationDeliveryError.
func IsNotificationDelivery(err error) bool {
	var e *NotificationDeliveryError
	return errors.As(err, &e)
}
