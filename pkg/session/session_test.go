package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/everybytesystems/dhis2-dataflow-sdk-sub002/pkg/schema"
	"github.com/everybytesystems/dhis2-dataflow-sdk-sub002/pkg/session"
	"github.com/everybytesystems/dhis2-dataflow-sdk-sub002/pkg/testsupport"
)

func TestSetValueTracksTouchedAndErrors(t *testing.T) {
	t.Parallel()

	sess := session.New(testsupport.PatientIntake())
	defer sess.Close()

	if err := sess.SetValue("fullName", "A"); err != nil {
		t.Fatalf("SetValue: %v", err)
	}

	if _, ok := sess.Touched()["fullName"]; !ok {
		t.Fatal("fullName should be touched")
	}
	if msg := sess.Errors()["fullName"]; msg == "" {
		t.Fatal("one-character name should violate minLength")
	}

	if err := sess.SetValue("fullName", "Amina Yusuf"); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	if _, ok := sess.Errors()["fullName"]; ok {
		t.Fatal("error should clear once the value is valid")
	}
}

func TestErrorsOnlyForTouchedFieldsBeforeSubmit(t *testing.T) {
	t.Parallel()

	sess := session.New(testsupport.PatientIntake())
	defer sess.Close()

	if err := sess.SetValue("email", "not-an-email"); err != nil {
		t.Fatalf("SetValue: %v", err)
	}

	errorsMap := sess.Errors()
	if len(errorsMap) != 1 {
		t.Fatalf("only the touched field may carry an error, got %v", errorsMap)
	}
	if _, ok := errorsMap["email"]; !ok {
		t.Fatal("email error missing")
	}
}

func TestSetValueUnknownFieldIsDefensiveError(t *testing.T) {
	t.Parallel()

	sess := session.New(testsupport.PatientIntake())
	defer sess.Close()

	err := sess.SetValue("nonexistent", "x")
	if !errors.Is(err, session.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestEmailScenario(t *testing.T) {
	t.Parallel()

	form := schema.NewForm("contact", "Contact").
		Section("main", "Main").
		Field("email", schema.FieldTypeEmail).Required().
		MustBuild()

	persister := &testsupport.RecordingPersister{}
	sess := session.New(form, session.WithPersister(persister))
	defer sess.Close()

	if err := sess.SetValue("email", "not-an-email"); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	if _, ok := sess.Errors()["email"]; !ok {
		t.Fatal("invalid email should produce an error entry")
	}

	if err := sess.SetValue("email", "a@b.com"); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	if _, ok := sess.Errors()["email"]; ok {
		t.Fatal("valid email should clear the entry")
	}

	if err := sess.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if got := sess.State(); got != session.StateAccepted {
		t.Fatalf("state = %s, want accepted", got)
	}

	saved := persister.Saved()
	if len(saved) != 1 {
		t.Fatalf("expected one submission, got %d", len(saved))
	}
	want := map[string]any{"email": "a@b.com"}
	if diff := cmp.Diff(want, saved[0].Values); diff != "" {
		t.Fatalf("submission values mismatch (-want +got):\n%s", diff)
	}
}

func TestAgeScenario(t *testing.T) {
	t.Parallel()

	sess := session.New(testsupport.PatientIntake())
	defer sess.Close()

	cases := []struct {
		value string
		valid bool
	}{
		{"-5", false},
		{"150", false},
		{"40", true},
	}
	for _, tc := range cases {
		if err := sess.SetValue("age", tc.value); err != nil {
			t.Fatalf("SetValue(%q): %v", tc.value, err)
		}
		_, hasErr := sess.Errors()["age"]
		if tc.valid && hasErr {
			t.Fatalf("age %q should be valid: %v", tc.value, sess.Errors())
		}
		if !tc.valid && !hasErr {
			t.Fatalf("age %q should be rejected", tc.value)
		}
	}
}

func TestSubmitRejectionRoundTrip(t *testing.T) {
	t.Parallel()

	form := schema.NewForm("single", "Single").
		Section("main", "Main").
		Field("onlyField", schema.FieldTypeText).Required().
		Field("optionalField", schema.FieldTypeText).
		MustBuild()

	sess := session.New(form)
	defer sess.Close()

	err := sess.Submit(context.Background())
	if !errors.Is(err, session.ErrValidationFailed) {
		t.Fatalf("expected ErrValidationFailed, got %v", err)
	}
	if got := sess.State(); got != session.StateEditing {
		t.Fatalf("state = %s, want editing after rejection", got)
	}

	errorsMap := sess.Errors()
	if len(errorsMap) != 1 {
		t.Fatalf("expected exactly one error, got %v", errorsMap)
	}
	if _, ok := errorsMap["onlyField"]; !ok {
		t.Fatal("error should sit on the required field")
	}

	touched := sess.Touched()
	for _, id := range form.FieldIDs() {
		if _, ok := touched[id]; !ok {
			t.Fatalf("submit must touch every field, %q missing", id)
		}
	}
}

func TestSubmitSkipsHiddenFieldsAndClearsStaleErrors(t *testing.T) {
	t.Parallel()

	sess := session.New(testsupport.PatientIntake())
	defer sess.Close()

	// Make the referral section visible and required, produce an error there,
	// then hide it again. Submit must clear the stale error, not re-check it.
	mustSet(t, sess, "referred", true)
	mustSet(t, sess, "referralFacility", "")
	if _, ok := sess.Errors()["referralFacility"]; !ok {
		t.Fatal("blank required referral facility should error while visible")
	}

	mustSet(t, sess, "referred", false)
	mustSet(t, sess, "fullName", "Amina Yusuf")
	mustSet(t, sess, "age", "29")

	if err := sess.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v (errors %v)", err, sess.Errors())
	}
	if _, ok := sess.Errors()["referralFacility"]; ok {
		t.Fatal("hidden field error should be cleared on submit")
	}
}

func TestSubmitPersisterFailureReturnsToEditing(t *testing.T) {
	t.Parallel()

	persister := &testsupport.RecordingPersister{Err: errors.New("backend down")}
	form := schema.NewForm("f", "F").
		Section("main", "Main").
		Field("x", schema.FieldTypeText).
		MustBuild()

	sess := session.New(form, session.WithPersister(persister))
	defer sess.Close()

	err := sess.Submit(context.Background())
	if err == nil || errors.Is(err, session.ErrValidationFailed) {
		t.Fatalf("expected persister error, got %v", err)
	}
	if got := sess.State(); got != session.StateEditing {
		t.Fatalf("state = %s, want editing after persist failure", got)
	}
}

func TestSecondSubmitWhileOutstandingIsNoOp(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	started := make(chan struct{})
	persister := session.PersisterFunc(func(_ context.Context, _ session.Submission) error {
		close(started)
		<-release
		return nil
	})

	form := schema.NewForm("f", "F").
		Section("main", "Main").
		Field("x", schema.FieldTypeText).
		MustBuild()

	sess := session.New(form, session.WithPersister(persister))
	defer sess.Close()

	done := make(chan error, 1)
	go func() { done <- sess.Submit(context.Background()) }()

	<-started
	if err := sess.Submit(context.Background()); !errors.Is(err, session.ErrSubmitInFlight) {
		t.Fatalf("expected ErrSubmitInFlight, got %v", err)
	}
	close(release)

	if err := <-done; err != nil {
		t.Fatalf("first submit should succeed: %v", err)
	}
	if got := sess.State(); got != session.StateAccepted {
		t.Fatalf("state = %s, want accepted", got)
	}
}

func TestResetClearsEverything(t *testing.T) {
	t.Parallel()

	sess := session.New(testsupport.PatientIntake())
	defer sess.Close()

	mustSet(t, sess, "fullName", "x")
	mustSet(t, sess, "email", "broken")
	_ = sess.Submit(context.Background())

	sess.Reset()

	if len(sess.Values()) != 0 {
		t.Fatalf("values not cleared: %v", sess.Values())
	}
	if len(sess.Touched()) != 0 {
		t.Fatalf("touched not cleared: %v", sess.Touched())
	}
	if len(sess.Errors()) != 0 {
		t.Fatalf("errors not cleared: %v", sess.Errors())
	}
	if got := sess.State(); got != session.StateEditing {
		t.Fatalf("state = %s, want editing", got)
	}
}

func TestDefaultsSeedValuesUntouched(t *testing.T) {
	t.Parallel()

	form := schema.NewForm("f", "F").
		Section("main", "Main").
		Field("country", schema.FieldTypeText).Default("TZ").
		MustBuild()

	sess := session.New(form)
	defer sess.Close()

	if got := sess.Values()["country"]; got != "TZ" {
		t.Fatalf("default not seeded, got %v", got)
	}
	if len(sess.Touched()) != 0 {
		t.Fatal("seeding defaults must not touch fields")
	}
}

func TestWithValuesSeedsInitialValues(t *testing.T) {
	t.Parallel()

	sess := session.New(testsupport.PatientIntake(),
		session.WithValues(map[string]any{"fullName": "Resumed"}))
	defer sess.Close()

	if got := sess.Values()["fullName"]; got != "Resumed" {
		t.Fatalf("initial value not applied, got %v", got)
	}
	if len(sess.Errors()) != 0 {
		t.Fatal("seeded values are not validated")
	}
}

func TestAutosaveDebounce(t *testing.T) {
	t.Parallel()

	form := schema.NewForm("f", "F").
		AutoSave(1).
		Section("main", "Main").
		Field("x", schema.FieldTypeText).
		MustBuild()

	drafts := testsupport.NewRecordingDraftStore()
	sess := session.New(form, session.WithDraftStore(drafts))
	defer sess.Close()

	// Two quick edits must collapse into a single autosave.
	mustSet(t, sess, "x", "a")
	mustSet(t, sess, "x", "ab")

	select {
	case draft := <-drafts.Signal:
		if got := draft.Values["x"]; got != "ab" {
			t.Fatalf("draft should carry the latest value, got %v", got)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("autosave never fired")
	}

	time.Sleep(1500 * time.Millisecond)
	if got := len(drafts.Drafts()); got != 1 {
		t.Fatalf("debounce should yield one draft, got %d", got)
	}
}

func TestAutosaveDisabledWithoutDraftStore(t *testing.T) {
	t.Parallel()

	form := schema.NewForm("f", "F").
		AutoSave(1).
		Section("main", "Main").
		Field("x", schema.FieldTypeText).
		MustBuild()

	sess := session.New(form)
	defer sess.Close()
	mustSet(t, sess, "x", "a")
	// Nothing to assert beyond "does not panic"; the timer never arms.
}

func TestAutosaveCarriesInvalidValues(t *testing.T) {
	t.Parallel()

	form := schema.NewForm("f", "F").
		AutoSave(1).
		Section("main", "Main").
		Field("age", schema.FieldTypeNumber).Required().
		MustBuild()

	drafts := testsupport.NewRecordingDraftStore()
	sess := session.New(form, session.WithDraftStore(drafts))
	defer sess.Close()

	mustSet(t, sess, "age", "not a number")

	select {
	case draft := <-drafts.Signal:
		if got := draft.Values["age"]; got != "not a number" {
			t.Fatalf("draft must carry the raw value, got %v", got)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("autosave never fired")
	}
}

func mustSet(t *testing.T, sess *session.Session, id string, value any) {
	t.Helper()
	if err := sess.SetValue(id, value); err != nil {
		t.Fatalf("SetValue(%q): %v", id, err)
	}
}
