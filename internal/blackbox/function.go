// Package blackbox talks to the remote text generation service. Each
// "Black Box" function pairs an endpoint with a request builder and a
// response parser that flattens the reply into display text.
package blackbox

import (
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
)

// Function names one of the remote generation/transformation operations.
type Function string

const (
	FunctionText          Function = "generate-text"
	FunctionDescriptions  Function = "generate-descriptions"
	FunctionAxes          Function = "generate-axes"
	FunctionSumLetters    Function = "sum-letters"
	FunctionTransformDict Function = "transform-dict"
)

// Functions lists every function in display order.
var Functions = []Function{
	FunctionText,
	FunctionDescriptions,
	FunctionAxes,
	FunctionSumLetters,
	FunctionTransformDict,
}

// Endpoint returns the request path for the function.
func (f Function) Endpoint() string {
	return "/" + string(f)
}

// Label returns the human readable name shown in pickers.
func (f Function) Label() string {
	switch f {
	case FunctionText:
		return "Generate Text"
	case FunctionDescriptions:
		return "Generate Descriptions"
	case FunctionAxes:
		return "Generate Axes"
	case FunctionSumLetters:
		return "Sum Letters"
	case FunctionTransformDict:
		return "Transform Dictionary"
	default:
		return string(f)
	}
}

// IsValid reports whether f is a known function.
func (f Function) IsValid() bool {
	for _, fn := range Functions {
		if fn == f {
			return true
		}
	}
	return false
}

// ParseFunction resolves user input to a Function. Exact names and labels
// match first; otherwise the best fuzzy match over names wins.
func ParseFunction(s string) (Function, error) {
	q := strings.ToLower(strings.TrimSpace(s))
	if q == "" {
		return "", fmt.Errorf("function name is required")
	}
	for _, fn := range Functions {
		if q == string(fn) || q == strings.ToLower(fn.Label()) {
			return fn, nil
		}
	}

	matches := fuzzy.Find(q, functionNames())
	if len(matches) == 0 {
		return "", fmt.Errorf("unknown function %q (want one of: %s)", s, strings.Join(functionNames(), ", "))
	}
	return Functions[matches[0].Index], nil
}

// MatchFunctions returns the functions whose names fuzzy-match q, best
// first. An empty query returns all functions.
func MatchFunctions(q string) []Function {
	q = strings.TrimSpace(q)
	if q == "" {
		out := make([]Function, len(Functions))
		copy(out, Functions)
		return out
	}
	matches := fuzzy.Find(strings.ToLower(q), functionNames())
	out := make([]Function, 0, len(matches))
	for _, m := range matches {
		out = append(out, Functions[m.Index])
	}
	return out
}

func functionNames() []string {
	names := make([]string, len(Functions))
	for i, fn := range Functions {
		names[i] = string(fn)
	}
	return names
}
