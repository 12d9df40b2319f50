package conditional

import (
	"testing"

	"github.com/everybytesystems/dhis2-dataflow-sdk-sub002/pkg/schema"
)

func rule(source string, op schema.ConditionOperator, value string) *schema.Conditional {
	return &schema.Conditional{
		SourceFieldID: source,
		Operator:      op,
		Value:         value,
		Action:        schema.ActionShow,
	}
}

func TestEvaluateOperators(t *testing.T) {
	t.Parallel()

	values := map[string]any{
		"name":   "Amina",
		"note":   "Referred From Clinic",
		"age":    "42",
		"blank":  "",
		"count":  3,
		"truthy": true,
	}

	cases := []struct {
		name string
		cond *schema.Conditional
		want bool
	}{
		{"equals match", rule("name", schema.OperatorEquals, "Amina"), true},
		{"equals mismatch", rule("name", schema.OperatorEquals, "amina"), false},
		{"equals absent source", rule("ghost", schema.OperatorEquals, ""), true},
		{"not equals", rule("name", schema.OperatorNotEquals, "Bob"), true},
		{"contains case insensitive", rule("note", schema.OperatorContains, "clinic"), true},
		{"contains miss", rule("note", schema.OperatorContains, "ward"), false},
		{"not contains", rule("note", schema.OperatorNotContains, "ward"), true},
		{"greater than", rule("age", schema.OperatorGreaterThan, "40"), true},
		{"greater than false", rule("age", schema.OperatorGreaterThan, "42"), false},
		{"greater than non numeric source", rule("name", schema.OperatorGreaterThan, "1"), false},
		{"greater than non numeric literal", rule("age", schema.OperatorGreaterThan, "x"), false},
		{"less than", rule("count", schema.OperatorLessThan, "5"), true},
		{"is empty", rule("blank", schema.OperatorIsEmpty, ""), true},
		{"is empty on absent", rule("ghost", schema.OperatorIsEmpty, ""), true},
		{"is not empty", rule("name", schema.OperatorIsNotEmpty, ""), true},
		{"is not empty on blank", rule("blank", schema.OperatorIsNotEmpty, ""), false},
		{"bool coercion", rule("truthy", schema.OperatorEquals, "true"), true},
		{"nil conditional", nil, false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Evaluate(tc.cond, values); got != tc.want {
				t.Fatalf("Evaluate(%+v) = %v, want %v", tc.cond, got, tc.want)
			}
		})
	}
}

func TestEvaluateIsIdempotent(t *testing.T) {
	t.Parallel()

	values := map[string]any{"age": "42"}
	cond := rule("age", schema.OperatorGreaterThan, "40")

	first := Evaluate(cond, values)
	for i := 0; i < 10; i++ {
		if got := Evaluate(cond, values); got != first {
			t.Fatalf("evaluation changed on call %d: %v then %v", i, first, got)
		}
	}
}

func visibilityFixture() *schema.FormSchema {
	return schema.NewForm("f", "Fixture").
		Section("main", "Main").
		Field("a", schema.FieldTypeText).
		Field("b", schema.FieldTypeText).
		When("a", schema.OperatorEquals, "X", schema.ActionShow).
		Field("c", schema.FieldTypeText).
		When("a", schema.OperatorIsNotEmpty, "", schema.ActionRequire).
		Field("d", schema.FieldTypeText).Required().
		When("a", schema.OperatorEquals, "X", schema.ActionOptional).
		Field("e", schema.FieldTypeText).
		When("a", schema.OperatorEquals, "X", schema.ActionDisable).
		MustBuild()
}

func TestResolveVisibilityPropagation(t *testing.T) {
	t.Parallel()

	form := visibilityFixture()

	res := Resolve(form, map[string]any{"a": "X"})
	if !res.FieldVisible("b") {
		t.Fatal("b should be visible when a == X")
	}

	res = Resolve(form, map[string]any{"a": "Y"})
	if res.FieldVisible("b") {
		t.Fatal("b should be hidden when a != X")
	}

	res = Resolve(form, nil)
	if res.FieldVisible("b") {
		t.Fatal("b should be hidden when a is unset")
	}
}

func TestResolveRequireAndOptionalActions(t *testing.T) {
	t.Parallel()

	form := visibilityFixture()

	res := Resolve(form, nil)
	if res.FieldRequired("c") {
		t.Fatal("c should stay optional while a is empty")
	}
	if !res.FieldRequired("d") {
		t.Fatal("d keeps its static required flag while the rule is inactive")
	}

	res = Resolve(form, map[string]any{"a": "X"})
	if !res.FieldRequired("c") {
		t.Fatal("c should become required once a has a value")
	}
	if res.FieldRequired("d") {
		t.Fatal("d should become optional when a == X")
	}
	if res.FieldEnabled("e") {
		t.Fatal("e should be disabled when a == X")
	}
}

func TestResolveHiddenSectionCascades(t *testing.T) {
	t.Parallel()

	form := schema.NewForm("f", "Fixture").
		Section("main", "Main").
		Field("toggle", schema.FieldTypeBoolean).
		Section("extra", "Extra").
		When("toggle", schema.OperatorEquals, "true", schema.ActionShow).
		Field("inner", schema.FieldTypeText).Required().
		MustBuild()

	res := Resolve(form, nil)
	if res.Sections["extra"].Visible {
		t.Fatal("extra section should be hidden")
	}
	if res.FieldVisible("inner") {
		t.Fatal("field in hidden section should be hidden")
	}
	if res.FieldRequired("inner") {
		t.Fatal("hidden field is excluded from required accounting")
	}

	res = Resolve(form, map[string]any{"toggle": true})
	if !res.FieldVisible("inner") || !res.FieldRequired("inner") {
		t.Fatal("inner should be visible and required once the section shows")
	}
}

func TestResolveFailsOpenOnDanglingSource(t *testing.T) {
	t.Parallel()

	form := &schema.FormSchema{
		ID: "f",
		Sections: []schema.Section{{
			ID: "main",
			Fields: []schema.FieldSchema{{
				ID:   "x",
				Type: schema.FieldTypeText,
				Conditional: &schema.Conditional{
					SourceFieldID: "missing",
					Operator:      schema.OperatorEquals,
					Value:         "yes",
					Action:        schema.ActionShow,
				},
			}},
		}},
	}

	// The dangling source coerces to "": equals "yes" is not met, so the
	// show action hides the field instead of crashing.
	res := Resolve(form, map[string]any{})
	if res.FieldVisible("x") {
		t.Fatal("condition on a dangling source should not be met")
	}
}

func TestResolveReadOnlyFieldDisabled(t *testing.T) {
	t.Parallel()

	form := schema.NewForm("f", "Fixture").
		Section("main", "Main").
		Field("locked", schema.FieldTypeText).ReadOnly().
		MustBuild()

	res := Resolve(form, nil)
	if res.FieldEnabled("locked") {
		t.Fatal("read-only fields resolve as disabled")
	}
}
