// Package action implements the workflow action model: the tagged
// Action variants, their validation rules, (de)serialization, and the
// factory that builds them from decoded JSON/map data. Composite actions
// (Conditional, Loop, ErrorHandling) own their nested action lists by
// value; Clone performs a full deep copy.
package action

import (
	"strconv"

	"dev/bravebird/workflow-engine/pkg/errs"
)

// Action is the common interface every variant implements.
type Action interface {
	// Type returns the discriminator used by Factory and by
	// serialization ("Navigate", "Click", ...).
	Type() string
	// Name returns the action's user-assigned name (may be empty).
	Name() string
	// Validate reports whether the action's fields (and any nested
	// actions) satisfy the rules in SPEC_FULL.md §4.1.
	Validate() error
	// Serialize renders the action back to the map form Factory.Create
	// accepts, such that Factory.Create(a.Serialize()) round-trips.
	Serialize() map[string]any
	// Clone returns a deep copy, so that mutating the clone's nested
	// lists never affects the original.
	Clone() Action
}

// List is a named nested action list, surfaced generically so the
// interpreter and the serializer can walk composite actions without a
// type switch at every call site.
type List struct {
	Field   string
	Actions []Action
}

// Parent is implemented by composite actions that own nested action
// lists (Conditional, Loop, ErrorHandling).
type Parent interface {
	Children() []List
}

// base carries the fields every variant shares.
type base struct {
	name string
}

func (b base) Name() string { return b.name }

func cloneList(list []Action) []Action {
	out := make([]Action, len(list))
	for i, a := range list {
		out[i] = a.Clone()
	}
	return out
}

func serializeList(list []Action) []any {
	out := make([]any, len(list))
	for i, a := range list {
		out[i] = a.Serialize()
	}
	return out
}

func validateList(list []Action) error {
	for i, a := range list {
		if err := a.Validate(); err != nil {
			return &errs.ValidationError{
				Field:   "[" + strconv.Itoa(i) + "]",
				Message: err.Error(),
			}
		}
	}
	return nil
}
