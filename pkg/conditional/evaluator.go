// Package conditional decides whether sections and fields are shown,
// enabled, and required given the form's current values. Evaluation is a
// small, dependency-free pass over the schema: each field and section
// carries at most one rule, which by construction forbids rule cycles, so
// state is re-derived from scratch on every call instead of cached.
package conditional

import (
	"strconv"
	"strings"

	"github.com/everybytesystems/dhis2-dataflow-sdk-sub002/pkg/schema"
)

// Evaluate reports whether the conditional's condition is met against the
// current values. The source value is coerced to a string (empty when
// absent), so a rule targeting a field the user never touched compares
// against "". A nil conditional is never met; callers treat targets without
// a rule as unconditionally visible, enabled, and statically required.
func Evaluate(c *schema.Conditional, values map[string]any) bool {
	if c == nil {
		return false
	}

	source := schema.CoerceString(values[c.SourceFieldID])

	switch c.Operator {
	case schema.OperatorEquals:
		return source == c.Value
	case schema.OperatorNotEquals:
		return source != c.Value
	case schema.OperatorContains:
		return strings.Contains(strings.ToLower(source), strings.ToLower(c.Value))
	case schema.OperatorNotContains:
		return !strings.Contains(strings.ToLower(source), strings.ToLower(c.Value))
	case schema.OperatorGreaterThan:
		lhs, rhs, ok := parseOperands(source, c.Value)
		return ok && lhs > rhs
	case schema.OperatorLessThan:
		lhs, rhs, ok := parseOperands(source, c.Value)
		return ok && lhs < rhs
	case schema.OperatorIsEmpty:
		return strings.TrimSpace(source) == ""
	case schema.OperatorIsNotEmpty:
		return strings.TrimSpace(source) != ""
	default:
		return false
	}
}

func parseOperands(source, literal string) (float64, float64, bool) {
	lhs, err := strconv.ParseFloat(strings.TrimSpace(source), 64)
	if err != nil {
		return 0, 0, false
	}
	rhs, err := strconv.ParseFloat(strings.TrimSpace(literal), 64)
	if err != nil {
		return 0, 0, false
	}
	return lhs, rhs, true
}

// State is the resolved presentation state of one field or section.
type State struct {
	Visible  bool
	Enabled  bool
	Required bool
}

// Resolution maps every section and field id to its resolved state for one
// snapshot of the form's values.
type Resolution struct {
	Sections map[string]State
	Fields   map[string]State
}

// FieldVisible reports the resolved visibility of a field, accounting for
// its enclosing section.
func (r Resolution) FieldVisible(id string) bool {
	state, ok := r.Fields[id]
	return ok && state.Visible
}

// FieldRequired reports the resolved required flag of a field. Hidden fields
// are never required.
func (r Resolution) FieldRequired(id string) bool {
	state, ok := r.Fields[id]
	return ok && state.Visible && state.Required
}

// FieldEnabled reports the resolved enabled flag of a field.
func (r Resolution) FieldEnabled(id string) bool {
	state, ok := r.Fields[id]
	return ok && state.Enabled
}

// Resolve computes the visibility, enabled, and required state of every
// section and field in one pass over the schema. A field inside a hidden
// section is itself hidden. Rules whose source field does not exist in the
// schema simply compare against the empty string, so a partially loaded
// definition degrades instead of failing.
func Resolve(s *schema.FormSchema, values map[string]any) Resolution {
	res := Resolution{
		Sections: make(map[string]State),
		Fields:   make(map[string]State),
	}
	if s == nil {
		return res
	}

	for _, section := range s.Sections {
		sectionState := apply(section.Conditional, values, State{Visible: true, Enabled: true})
		res.Sections[section.ID] = sectionState

		for _, field := range section.Fields {
			state := apply(field.Conditional, values, State{
				Visible:  true,
				Enabled:  !field.ReadOnly,
				Required: field.Required,
			})
			if !sectionState.Visible {
				state.Visible = false
			}
			if !sectionState.Enabled {
				state.Enabled = false
			}
			res.Fields[field.ID] = state
		}
	}
	return res
}

func apply(c *schema.Conditional, values map[string]any, base State) State {
	if c == nil {
		return base
	}
	met := Evaluate(c, values)
	switch c.Action {
	case schema.ActionShow:
		base.Visible = met
	case schema.ActionHide:
		base.Visible = !met
	case schema.ActionEnable:
		base.Enabled = met
	case schema.ActionDisable:
		base.Enabled = !met
	case schema.ActionRequire:
		if met {
			base.Required = true
		}
	case schema.ActionOptional:
		if met {
			base.Required = false
		}
	}
	return base
}
