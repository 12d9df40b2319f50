// Package testsupport provides shared fixtures and recording fakes for the
// engine's package tests.
package testsupport

import (
	"context"
	"sync"
	"testing"

	"github.com/everybytesystems/dhis2-dataflow-sdk-sub002/pkg/schema"
	"github.com/everybytesystems/dhis2-dataflow-sdk-sub002/pkg/schema/loader"
	"github.com/everybytesystems/dhis2-dataflow-sdk-sub002/pkg/session"
)

// PatientIntake builds the fixture schema used across session and evaluator
// tests: demographics plus a follow-up section that only shows for referred
// patients.
func PatientIntake() *schema.FormSchema {
	return schema.NewForm("patient-intake", "Patient intake").
		Section("demographics", "Demographics").
		Field("fullName", schema.FieldTypeText).Required().MinLength(2).MaxLength(80).
		Field("age", schema.FieldTypeNumber).Required().Range(0, 120).
		Field("email", schema.FieldTypeEmail).
		Field("referred", schema.FieldTypeBoolean).
		Section("referral", "Referral details").
		When("referred", schema.OperatorEquals, "true", schema.ActionShow).
		Field("referralFacility", schema.FieldTypeText).
		When("referred", schema.OperatorEquals, "true", schema.ActionRequire).
		MustBuild()
}

// LoadSchema reads and parses a definition fixture, failing the test on any
// error.
func LoadSchema(t *testing.T, path string) *schema.FormSchema {
	t.Helper()

	result, err := loader.New().Load(context.Background(), loader.SourceFromFile(path))
	if err != nil {
		t.Fatalf("load schema: %v", err)
	}
	if len(result.Issues) > 0 {
		t.Fatalf("schema issues: %v", result.Issues)
	}
	return result.Schema
}

// RecordingPersister captures submissions and replies with a configurable
// error.
type RecordingPersister struct {
	mu          sync.Mutex
	Err         error
	Submissions []session.Submission
}

// Save records the submission.
func (p *RecordingPersister) Save(_ context.Context, sub session.Submission) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Submissions = append(p.Submissions, sub)
	return p.Err
}

// Saved returns a snapshot of the recorded submissions.
func (p *RecordingPersister) Saved() []session.Submission {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]session.Submission(nil), p.Submissions...)
}

// RecordingDraftStore captures drafts and signals each save on a channel so
// tests can wait for autosave ticks without polling.
type RecordingDraftStore struct {
	mu     sync.Mutex
	drafts []session.Draft
	Signal chan session.Draft
}

// NewRecordingDraftStore constructs a store with a buffered signal channel.
func NewRecordingDraftStore() *RecordingDraftStore {
	return &RecordingDraftStore{Signal: make(chan session.Draft, 16)}
}

// SaveDraft records the draft and signals it.
func (d *RecordingDraftStore) SaveDraft(_ context.Context, draft session.Draft) error {
	d.mu.Lock()
	d.drafts = append(d.drafts, draft)
	d.mu.Unlock()
	select {
	case d.Signal <- draft:
	default:
	}
	return nil
}

// Drafts returns a snapshot of the recorded drafts.
func (d *RecordingDraftStore) Drafts() []session.Draft {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]session.Draft(nil), d.drafts...)
}
