package tool

import (
	"context"
	"fmt"
)

// DefaultTerminateMessage is returned by the terminate tool when no
// message argument is supplied.
const DefaultTerminateMessage = "Task terminated successfully."

// SpecialistInvoker invokes an external, role-identified specialist
// with a sub-task description. Implemented by the specialist dispatcher.
type SpecialistInvoker interface {
	Invoke(ctx context.Context, role, subTask string) (string, error)
}

// DelegateTool hands a sub-task to a role-identified specialist.
type DelegateTool struct {
	invoker SpecialistInvoker
}

// NewDelegateTool creates a DelegateTool backed by the given invoker.
func NewDelegateTool(invoker SpecialistInvoker) *DelegateTool {
	return &DelegateTool{invoker: invoker}
}

// Descriptor returns the delegate tool's contract.
func (t *DelegateTool) Descriptor() Descriptor {
	return Descriptor{
		Name:        "delegate_task",
		Description: "Delegate a sub-task to a specialist agent identified by role.",
		Schema: []Param{
			{Name: "agent_role", Type: TypeString, Required: true, Description: "Role of the specialist to delegate to (e.g. searcher, coder)"},
			{Name: "sub_task_prompt", Type: TypeString, Required: true, Description: "Description of the sub-task"},
		},
	}
}

// Execute invokes the specialist and returns a confirmation string.
// A specialist failure is returned as a *DelegationError naming the
// failed role and reason; the orchestrator re-plans on it.
func (t *DelegateTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	role := args["agent_role"].(string)
	subTask := args["sub_task_prompt"].(string)

	result, err := t.invoker.Invoke(ctx, role, subTask)
	if err != nil {
		return "", &DelegationError{Role: role, Reason: err.Error()}
	}
	return fmt.Sprintf("Task delegated to %s agent: %s", role, result), nil
}

// TerminateTool ends a task run. Invoking it is the sole sanctioned
// way to finish a run successfully.
type TerminateTool struct{}

// NewTerminateTool creates a TerminateTool.
func NewTerminateTool() *TerminateTool {
	return &TerminateTool{}
}

// Descriptor returns the terminate tool's contract.
func (t *TerminateTool) Descriptor() Descriptor {
	return Descriptor{
		Name:        "terminate",
		Description: "Terminate the current task run with a final message.",
		Schema: []Param{
			{Name: "message", Type: TypeString, Required: false, Description: "Final message for the run"},
		},
	}
}

// Execute returns the message argument verbatim, or the default
// completion message when none is supplied.
func (t *TerminateTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	if msg, ok := args["message"].(string); ok {
		return msg, nil
	}
	return DefaultTerminateMessage, nil
}
