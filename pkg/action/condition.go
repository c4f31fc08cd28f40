package action

import (
	"strings"

	"dev/bravebird/workflow-engine/pkg/errs"
)

// ConditionType is shared by Conditional and Loop[while].
type ConditionType string

const (
	ConditionElementPresent    ConditionType = "element_present"
	ConditionElementNotPresent ConditionType = "element_not_present"
	ConditionVariableEquals    ConditionType = "variable_equals"
	ConditionJavascriptEval    ConditionType = "javascript_eval"
)

// Condition holds the union of fields any condition type might need;
// only the fields relevant to ConditionType are populated/validated.
type Condition struct {
	ConditionType ConditionType
	Selector      string
	VariableName  string
	ExpectedValue any
	HasExpected   bool
	Script        string
}

func validateCondition(c Condition) error {
	switch c.ConditionType {
	case ConditionElementPresent, ConditionElementNotPresent:
		if strings.TrimSpace(c.Selector) == "" {
			return &errs.ValidationError{Field: "selector", Message: "required for " + string(c.ConditionType)}
		}
	case ConditionVariableEquals:
		if strings.TrimSpace(c.VariableName) == "" {
			return &errs.ValidationError{Field: "variable_name", Message: "required for variable_equals"}
		}
	case ConditionJavascriptEval:
		if strings.TrimSpace(c.Script) == "" {
			return &errs.ValidationError{Field: "script", Message: "must not be empty for javascript_eval"}
		}
	default:
		return &errs.ValidationError{Field: "condition_type", Message: "unknown condition type " + string(c.ConditionType)}
	}
	return nil
}

func serializeCondition(c Condition, m map[string]any) {
	m["condition_type"] = string(c.ConditionType)
	switch c.ConditionType {
	case ConditionElementPresent, ConditionElementNotPresent:
		m["selector"] = c.Selector
	case ConditionVariableEquals:
		m["variable_name"] = c.VariableName
		if c.HasExpected {
			m["expected_value"] = c.ExpectedValue
		} else {
			m["expected_value"] = nil
		}
	case ConditionJavascriptEval:
		m["script"] = c.Script
	}
}
