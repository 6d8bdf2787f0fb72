// Package trigger implements the matching semantics available to flow
// triggers. The engine itself only consumes a boolean match result; which
// semantics apply is configuration carried by the flow definition.
package trigger

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/tendrilhq/tendril/pkg/domain"
)

// Trigger kinds supported by Match.
const (
	KindExact      = "exact"
	KindContains   = "contains"
	KindRegex      = "regex"
	KindExpression = "expression"
)

// Match reports whether the inbound text satisfies the trigger configuration.
// A malformed trigger (bad regex, bad expression, unknown kind) never matches;
// the error lets the caller log the configuration problem.
func Match(trg domain.Trigger, text string) (bool, error) {
	switch trg.Kind {
	case KindExact:
		if trg.CaseSensitive {
			return strings.TrimSpace(text) == trg.Value, nil
		}
		return strings.EqualFold(strings.TrimSpace(text), trg.Value), nil

	case KindContains:
		if trg.CaseSensitive {
			return strings.Contains(text, trg.Value), nil
		}
		return strings.Contains(strings.ToLower(text), strings.ToLower(trg.Value)), nil

	case KindRegex:
		re, err := regexp.Compile(trg.Value)
		if err != nil {
			return false, fmt.Errorf("invalid trigger regex %q: %w", trg.Value, err)
		}
		return re.MatchString(text), nil

	case KindExpression:
		return evalExpression(trg.Value, text)

	default:
		return false, fmt.Errorf("unknown trigger kind %q", trg.Kind)
	}
}

// evalExpression compiles and runs an expr program with the inbound text in
// scope as "text". The program must yield a boolean.
func evalExpression(program, text string) (bool, error) {
	env := map[string]any{"text": text}

	compiled, err := expr.Compile(program,
		expr.Env(env),
		expr.AsBool(),
		expr.AllowUndefinedVariables(),
	)
	if err != nil {
		return false, fmt.Errorf("invalid trigger expression %q: %w", program, err)
	}

	out, err := expr.Run(compiled, env)
	if err != nil {
		return false, fmt.Errorf("trigger expression %q failed: %w", program, err)
	}

	matched, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("trigger expression %q did not yield a boolean", program)
	}
	return matched, nil
}
