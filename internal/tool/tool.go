// Package tool provides the named, schema-validated capabilities the
// orchestrator can invoke, and the registry that dispatches them.
package tool

import "context"

// ParamType is the declared type of a tool argument.
type ParamType string

const (
	// TypeString accepts string arguments.
	TypeString ParamType = "string"
	// TypeInteger accepts integer arguments.
	TypeInteger ParamType = "integer"
	// TypeBoolean accepts boolean arguments.
	TypeBoolean ParamType = "boolean"
)

// Param declares one named, typed argument a tool accepts.
type Param struct {
	// Name is the argument key.
	Name string
	// Type is the expected argument type.
	Type ParamType
	// Required indicates the argument must be present.
	Required bool
	// Description documents the argument for the decision step.
	Description string
}

// Descriptor describes a tool's contract.
type Descriptor struct {
	// Name is the unique key the tool is registered under.
	Name string
	// Description is the human-readable contract for the decision step.
	Description string
	// Schema declares the arguments the tool accepts. A nil schema
	// disables validation.
	Schema []Param
	// Dangerous marks tools whose side effects require explicit
	// confirmation. Consulted by an external policy layer, not
	// enforced here.
	Dangerous bool
}

// Tool is an invocable capability. Execution suspends on ctx and
// returns a single success value or a single failure, never both.
type Tool interface {
	// Descriptor returns the tool's contract.
	Descriptor() Descriptor
	// Execute runs the tool with validated arguments.
	Execute(ctx context.Context, args map[string]any) (string, error)
}

// Validate checks args against the descriptor's schema.
// It returns an *InvalidArgumentsError carrying every offending field:
// missing required arguments, arguments of the wrong type, and
// arguments the schema does not declare.
func (d Descriptor) Validate(args map[string]any) error {
	if d.Schema == nil {
		return nil
	}

	declared := make(map[string]Param, len(d.Schema))
	for _, p := range d.Schema {
		declared[p.Name] = p
	}

	var offending []string
	for _, p := range d.Schema {
		v, ok := args[p.Name]
		if !ok {
			if p.Required {
				offending = append(offending, p.Name)
			}
			continue
		}
		if !matchesType(v, p.Type) {
			offending = append(offending, p.Name)
		}
	}
	for name := range args {
		if _, ok := declared[name]; !ok {
			offending = append(offending, name)
		}
	}

	if len(offending) > 0 {
		return &InvalidArgumentsError{Tool: d.Name, Fields: offending}
	}
	return nil
}

func matchesType(v any, t ParamType) bool {
	switch t {
	case TypeString:
		_, ok := v.(string)
		return ok
	case TypeInteger:
		switch v.(type) {
		case int, int32, int64:
			return true
		case float64:
			// JSON-decoded numbers arrive as float64.
			f := v.(float64)
			return f == float64(int64(f))
		default:
			return false
		}
	case TypeBoolean:
		_, ok := v.(bool)
		return ok
	default:
		return false
	}
}
