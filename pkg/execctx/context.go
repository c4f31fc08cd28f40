// Package execctx implements the per-run variable context threaded
// through interpreter execution: an ordered stack of scopes, inner
// shadowing outer, with helpers for the frames loops and error handlers
// push (loop_index, loop_item, try_block_error_message, ...).
package execctx

import (
	"fmt"
	"strings"
)

// Context is a LIFO stack of variable scopes. Not safe for concurrent
// use — exactly one interpreter invocation owns a Context at a time.
type Context struct {
	scopes []map[string]any
}

// New returns a Context with a single, empty root scope.
func New() *Context {
	return &Context{scopes: []map[string]any{{}}}
}

// Push opens a new innermost scope seeded with frame.
func (c *Context) Push(frame map[string]any) {
	if frame == nil {
		frame = map[string]any{}
	}
	c.scopes = append(c.scopes, frame)
}

// Pop discards the innermost scope. It is a no-op (and never panics)
// when only the root scope remains, so unbalanced Pop calls after a
// failed block unwind can't corrupt the stack.
func (c *Context) Pop() {
	if len(c.scopes) <= 1 {
		return
	}
	c.scopes = c.scopes[:len(c.scopes)-1]
}

// Lookup searches scopes inner-to-outer and reports whether key was
// found in any of them.
func (c *Context) Lookup(key string) (any, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if v, ok := c.scopes[i][key]; ok {
			return v, true
		}
	}
	return nil, false
}

// Set writes to the innermost scope.
func (c *Context) Set(key string, value any) {
	c.scopes[len(c.scopes)-1][key] = value
}

// Snapshot returns a flattened view of all scopes, outer first so that
// inner assignments win, suitable for variable_equals evaluation or for
// handing a read-only view to a sub-interpreter.
func (c *Context) Snapshot() map[string]any {
	flat := make(map[string]any)
	for _, scope := range c.scopes {
		for k, v := range scope {
			flat[k] = v
		}
	}
	return flat
}

// Stringify renders v the way variable_equals compares values: nil
// becomes the literal string "null", everything else uses fmt's default
// formatting.
func Stringify(v any) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprintf("%v", v)
}

// Substitute replaces every "${name}" placeholder in s with the
// Stringify'd value of "name" looked up in vars (typically a
// Context.Snapshot()). A placeholder whose name isn't bound is left
// untouched, verbatim, rather than erroring — an author referencing a
// variable set by a later or sibling scope sees their literal text
// rather than a silently-swallowed blank.
func Substitute(s string, vars map[string]any) string {
	if !strings.Contains(s, "${") {
		return s
	}
	var b strings.Builder
	for {
		start := strings.Index(s, "${")
		if start == -1 {
			b.WriteString(s)
			break
		}
		end := strings.Index(s[start:], "}")
		if end == -1 {
			b.WriteString(s)
			break
		}
		end += start
		b.WriteString(s[:start])
		name := s[start+2 : end]
		if v, ok := vars[name]; ok {
			b.WriteString(Stringify(v))
		} else {
			b.WriteString(s[start : end+1])
		}
		s = s[end+1:]
	}
	return b.String()
}
