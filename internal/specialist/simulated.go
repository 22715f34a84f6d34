package specialist

import (
	"context"
	"fmt"
)

// RoleSearcher is the role identifier for web research specialists.
const RoleSearcher = "searcher"

// RoleCoder is the role identifier for code generation specialists.
const RoleCoder = "coder"

// SimulatedSearcher is a stand-in searcher specialist so the binary
// runs end-to-end without a live search backend.
type SimulatedSearcher struct{}

// Role implements Specialist.
func (SimulatedSearcher) Role() string { return RoleSearcher }

// Invoke returns a canned research summary for the sub-task.
func (SimulatedSearcher) Invoke(ctx context.Context, subTask string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return fmt.Sprintf("Search summary for %q: three relevant sources found, key findings consolidated.", subTask), nil
}

// SimulatedCoder is a stand-in coder specialist so the binary runs
// end-to-end without a live code generation backend.
type SimulatedCoder struct{}

// Role implements Specialist.
func (SimulatedCoder) Role() string { return RoleCoder }

// Invoke returns a canned code snippet for the sub-task.
func (SimulatedCoder) Invoke(ctx context.Context, subTask string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return fmt.Sprintf("Implementation for %q:\n```\nfunc main() {\n\t// generated entry point\n}\n```", subTask), nil
}

// Scripted is a specialist whose responses are fixed at construction.
// Used in tests to simulate success and failure sequences.
type Scripted struct {
	RoleName string
	Result   string
	Err      error
	// Calls counts how many times Invoke has run.
	Calls int
	// FailFirst makes only the first invocation fail, exercising
	// retry behavior.
	FailFirst bool
}

// Role implements Specialist.
func (s *Scripted) Role() string { return s.RoleName }

// Invoke returns the scripted result or error.
func (s *Scripted) Invoke(ctx context.Context, subTask string) (string, error) {
	s.Calls++
	if s.FailFirst && s.Calls == 1 {
		return "", s.Err
	}
	if !s.FailFirst && s.Err != nil {
		return "", s.Err
	}
	return s.Result, nil
}
