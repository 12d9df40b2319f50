package fill

import (
	"context"
	"errors"
	"testing"

	"github.com/everybytesystems/dhis2-dataflow-sdk-sub002/pkg/schema"
	"github.com/everybytesystems/dhis2-dataflow-sdk-sub002/pkg/session"
)

// scriptDriver replays queued answers and fails the prompt kinds a test does
// not expect.
type scriptDriver struct {
	inputs   []string
	confirms []bool
	selects  []int
	infos    []string
}

func (d *scriptDriver) Input(_ context.Context, cfg InputConfig) (string, error) {
	if len(d.inputs) == 0 {
		return "", errors.New("unexpected input prompt: " + cfg.Message)
	}
	answer := d.inputs[0]
	d.inputs = d.inputs[1:]
	if cfg.Validator != nil {
		// The production driver re-prompts on validation failure; the
		// script driver just reports it.
		if err := cfg.Validator(answer); err != nil {
			return "", err
		}
	}
	return answer, nil
}

func (d *scriptDriver) Confirm(_ context.Context, cfg ConfirmConfig) (bool, error) {
	if len(d.confirms) == 0 {
		return false, errors.New("unexpected confirm prompt: " + cfg.Message)
	}
	answer := d.confirms[0]
	d.confirms = d.confirms[1:]
	return answer, nil
}

func (d *scriptDriver) Select(_ context.Context, cfg SelectConfig) (int, error) {
	if len(d.selects) == 0 {
		return 0, errors.New("unexpected select prompt: " + cfg.Message)
	}
	answer := d.selects[0]
	d.selects = d.selects[1:]
	return answer, nil
}

func (d *scriptDriver) MultiSelect(_ context.Context, cfg SelectConfig) ([]int, error) {
	return nil, errors.New("unexpected multiselect prompt: " + cfg.Message)
}

func (d *scriptDriver) TextArea(_ context.Context, cfg InputConfig) (string, error) {
	return "", errors.New("unexpected textarea prompt: " + cfg.Message)
}

func (d *scriptDriver) Info(_ context.Context, msg string) error {
	d.infos = append(d.infos, msg)
	return nil
}

func intakeForm() *schema.FormSchema {
	return schema.NewForm("intake", "Intake").
		Section("demographics", "Demographics").
		Field("fullName", schema.FieldTypeText).Required().MinLength(2).
		Field("referred", schema.FieldTypeBoolean).
		Section("referral", "Referral").
		When("referred", schema.OperatorEquals, "true", schema.ActionShow).
		Field("facility", schema.FieldTypeText).
		MustBuild()
}

func TestWalkerSkipsHiddenSection(t *testing.T) {
	t.Parallel()

	driver := &scriptDriver{
		inputs:   []string{"Amina Yusuf"},
		confirms: []bool{false, true}, // referred=false, then submit
	}
	sess := session.New(intakeForm())
	defer sess.Close()

	if err := NewWalker(driver).Run(context.Background(), sess); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sess.State() != session.StateAccepted {
		t.Fatalf("state = %s, want accepted", sess.State())
	}
	if _, ok := sess.Values()["facility"]; ok {
		t.Fatal("hidden section must not be prompted")
	}
	if len(driver.inputs) != 0 {
		t.Fatalf("unconsumed input answers: %v", driver.inputs)
	}
}

func TestWalkerPromptsRevealedSection(t *testing.T) {
	t.Parallel()

	driver := &scriptDriver{
		inputs:   []string{"Amina Yusuf", "Mnazi Mmoja Hospital"},
		confirms: []bool{true, true}, // referred=true, then submit
	}
	sess := session.New(intakeForm())
	defer sess.Close()

	if err := NewWalker(driver).Run(context.Background(), sess); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := sess.Values()["facility"]; got != "Mnazi Mmoja Hospital" {
		t.Fatalf("facility = %v", got)
	}
}

func TestWalkerChoicePromptsMapToOptionValues(t *testing.T) {
	t.Parallel()

	form := schema.NewForm("f", "F").
		Section("main", "Main").
		Field("sex", schema.FieldTypeChoice).Options(
		schema.Option{Value: "F", Label: "Female"},
		schema.Option{Value: "M", Label: "Male"},
	).
		MustBuild()

	driver := &scriptDriver{
		selects:  []int{1},
		confirms: []bool{true},
	}
	sess := session.New(form)
	defer sess.Close()

	if err := NewWalker(driver).Run(context.Background(), sess); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := sess.Values()["sex"]; got != "M" {
		t.Fatalf("choice should store the option value, got %v", got)
	}
}

func TestWalkerDeclinedSubmitAborts(t *testing.T) {
	t.Parallel()

	form := schema.NewForm("f", "F").
		Section("main", "Main").
		Field("x", schema.FieldTypeText).
		MustBuild()

	driver := &scriptDriver{
		inputs:   []string{"value"},
		confirms: []bool{false},
	}
	sess := session.New(form)
	defer sess.Close()

	err := NewWalker(driver).Run(context.Background(), sess)
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
	if sess.State() != session.StateEditing {
		t.Fatalf("declined submit leaves the session editing, got %s", sess.State())
	}
}
