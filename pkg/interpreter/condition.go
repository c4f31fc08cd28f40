package interpreter

import (
	"fmt"

	"dev/bravebird/workflow-engine/pkg/action"
	"dev/bravebird/workflow-engine/pkg/execctx"
)

// evalCondition implements the four condition types shared by
// Conditional and Loop[while], per spec.md §4.6.
func (i *Interpreter) evalCondition(c action.Condition) (bool, error) {
	switch c.ConditionType {
	case action.ConditionElementPresent:
		return i.driver.IsElementPresent(c.Selector)

	case action.ConditionElementNotPresent:
		present, err := i.driver.IsElementPresent(c.Selector)
		if err != nil {
			return false, err
		}
		return !present, nil

	case action.ConditionVariableEquals:
		actual, _ := i.ctx.Lookup(c.VariableName)
		var expected any
		if c.HasExpected {
			expected = c.ExpectedValue
		}
		return execctx.Stringify(actual) == execctx.Stringify(expected), nil

	case action.ConditionJavascriptEval:
		result, err := i.driver.ExecuteScript(c.Script)
		if err != nil {
			return false, err
		}
		return truthy(result), nil

	default:
		return false, fmt.Errorf("unknown condition type %q", c.ConditionType)
	}
}

// truthy mirrors standard JavaScript-style truthiness: nil, false,
// numeric zero, and the empty string are falsy; everything else
// (including non-empty slices/maps) is truthy.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case int:
		return t != 0
	case int32:
		return t != 0
	case int64:
		return t != 0
	case float32:
		return t != 0
	case float64:
		return t != 0
	default:
		return true
	}
}
