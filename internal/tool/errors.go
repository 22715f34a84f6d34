package tool

import (
	"errors"
	"fmt"
	"strings"
)

// ErrToolNotFound is returned by Registry.Lookup when no tool is
// registered under the requested name. Callers must treat it as
// recoverable and surface it to the planning step.
var ErrToolNotFound = errors.New("tool not found")

// InvalidArgumentsError reports a schema violation detected before a
// tool is executed. It carries the offending field names.
type InvalidArgumentsError struct {
	// Tool is the name of the tool whose schema was violated.
	Tool string
	// Fields lists the argument names that failed validation.
	Fields []string
}

// Error implements the error interface.
func (e *InvalidArgumentsError) Error() string {
	return fmt.Sprintf("invalid arguments for tool %q: %s", e.Tool, strings.Join(e.Fields, ", "))
}

// DelegationError reports a specialist that failed to complete a
// delegated sub-task.
type DelegationError struct {
	// Role is the specialist role the sub-task was delegated to.
	Role string
	// Reason describes why the delegation failed.
	Reason string
}

// Error implements the error interface.
func (e *DelegationError) Error() string {
	return fmt.Sprintf("delegation to %q failed: %s", e.Role, e.Reason)
}
