// Package session holds the mutable state of one form-filling instance: the
// current values, the touched set, and the error map. Every edit and every
// submit runs the conditional resolver and the field validator, so callers
// can paint widgets straight from the session snapshot without rule logic of
// their own.
//
// A session is owned by exactly one control goroutine; SetValue, Submit, and
// Reset are the only mutation points and execute synchronously. The internal
// mutex exists solely to serialize the autosave timer callback against those
// entry points, not to make the session safe for concurrent callers.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/everybytesystems/dhis2-dataflow-sdk-sub002/pkg/conditional"
	"github.com/everybytesystems/dhis2-dataflow-sdk-sub002/pkg/schema"
	"github.com/everybytesystems/dhis2-dataflow-sdk-sub002/pkg/validation"
)

// State names the session's position in its lifecycle.
type State string

const (
	// StateEditing accepts edits; the initial and post-rejection state.
	StateEditing State = "editing"
	// StateSubmitting is in effect while a submit is outstanding.
	StateSubmitting State = "submitting"
	// StateAccepted is terminal: validation passed and the persistence
	// collaborator accepted the value map.
	StateAccepted State = "accepted"
)

var (
	// ErrSubmitInFlight is returned by Submit while a previous submit is
	// still outstanding. The call is a documented no-op.
	ErrSubmitInFlight = errors.New("session: submit already in flight")
	// ErrValidationFailed is returned by Submit when the error map is
	// non-empty; inspect Errors for the per-field messages.
	ErrValidationFailed = errors.New("session: validation failed")
	// ErrUnknownField is returned by SetValue for a field id the schema
	// does not declare. This is a caller bug, not user input.
	ErrUnknownField = errors.New("session: unknown field id")
)

// Submission is the payload handed to the persistence collaborator on an
// accepted submit.
type Submission struct {
	SessionID string         `json:"sessionId"`
	FormID    string         `json:"formId"`
	Values    map[string]any `json:"values"`
}

// Draft is the payload handed to the draft store on an autosave tick. Drafts
// carry the current, possibly invalid, value map.
type Draft struct {
	ID        string         `json:"id"`
	SessionID string         `json:"sessionId"`
	FormID    string         `json:"formId"`
	Values    map[string]any `json:"values"`
	SavedAt   time.Time      `json:"savedAt"`
}

// Persister receives the accepted value map on submit. Retry policy belongs
// to the implementation, not the session.
type Persister interface {
	Save(ctx context.Context, sub Submission) error
}

// PersisterFunc adapts a function into a Persister.
type PersisterFunc func(ctx context.Context, sub Submission) error

// Save delegates to the underlying function.
func (fn PersisterFunc) Save(ctx context.Context, sub Submission) error { return fn(ctx, sub) }

// DraftStore receives the current value map on autosave ticks.
type DraftStore interface {
	SaveDraft(ctx context.Context, draft Draft) error
}

// DraftStoreFunc adapts a function into a DraftStore.
type DraftStoreFunc func(ctx context.Context, draft Draft) error

// SaveDraft delegates to the underlying function.
func (fn DraftStoreFunc) SaveDraft(ctx context.Context, draft Draft) error { return fn(ctx, draft) }

// Session drives one form-filling instance against an immutable schema.
type Session struct {
	id     string
	schema *schema.FormSchema
	logger *slog.Logger

	persister Persister
	drafts    DraftStore

	mu         sync.Mutex
	state      State
	submitting bool
	values     map[string]any
	touched    map[string]struct{}
	errors     map[string]string
	timer      *time.Timer
}

// Option customises a session at construction time.
type Option func(*Session)

// WithPersister injects the collaborator that receives accepted submissions.
func WithPersister(p Persister) Option {
	return func(s *Session) { s.persister = p }
}

// WithDraftStore injects the collaborator that receives autosaved drafts.
// Autosave stays disarmed without one.
func WithDraftStore(d DraftStore) Option {
	return func(s *Session) { s.drafts = d }
}

// WithLogger injects a structured logger for developer diagnostics such as
// dangling conditional references. Defaults to a discarding logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithValues seeds initial values on top of the schema's field defaults,
// e.g. when resuming from a stored draft. Seeded fields are not marked
// touched.
func WithValues(values map[string]any) Option {
	return func(s *Session) {
		for id, value := range values {
			s.values[id] = value
		}
	}
}

// New creates a session for one filling of the given schema. Field defaults
// seed the value map; schema well-formedness problems are logged and then
// ignored, because the rule engines fail open on them.
func New(form *schema.FormSchema, opts ...Option) *Session {
	s := &Session{
		id:      uuid.NewString(),
		schema:  form,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		state:   StateEditing,
		values:  make(map[string]any),
		touched: make(map[string]struct{}),
		errors:  make(map[string]string),
	}

	for _, field := range form.Fields() {
		if field.DefaultValue != nil {
			s.values[field.ID] = field.DefaultValue
		}
	}

	for _, opt := range opts {
		opt(s)
	}

	for _, issue := range form.Check() {
		s.logger.Warn("schema issue, rules involving it fail open",
			"form", form.ID,
			"issue", issue.String(),
		)
	}

	return s
}

// ID returns the unique id of this filling instance.
func (s *Session) ID() string { return s.id }

// Schema returns the immutable schema the session runs against.
func (s *Session) Schema() *schema.FormSchema { return s.schema }

// State reports the session's lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Values returns a copy of the current value map.
func (s *Session) Values() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyValues(s.values)
}

// Errors returns a copy of the current error map. It only holds entries for
// touched fields until Submit forces every field into the touched set.
func (s *Session) Errors() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.errors))
	for id, msg := range s.errors {
		out[id] = msg
	}
	return out
}

// Touched returns a copy of the touched set.
func (s *Session) Touched() map[string]struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]struct{}, len(s.touched))
	for id := range s.touched {
		out[id] = struct{}{}
	}
	return out
}

// Resolution computes the presentation state for the current values. Render
// collaborators consume this together with Values and Errors.
func (s *Session) Resolution() conditional.Resolution {
	s.mu.Lock()
	defer s.mu.Unlock()
	return conditional.Resolve(s.schema, s.values)
}

// SetValue records a user edit: it stores the value, marks the field
// touched, revalidates that field against its freshly resolved visibility
// and required state, and re-arms the autosave timer. Editing an unknown
// field id returns ErrUnknownField.
func (s *Session) SetValue(fieldID string, value any) error {
	field, ok := s.schema.Field(fieldID)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, fieldID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[fieldID] = value
	s.touched[fieldID] = struct{}{}

	res := conditional.Resolve(s.schema, s.values)
	s.revalidateLocked(field, res)

	s.armAutosaveLocked()
	return nil
}

// revalidateLocked refreshes the error entry for one field. Hidden fields
// are excluded from validation and have any stale error cleared.
func (s *Session) revalidateLocked(field *schema.FieldSchema, res conditional.Resolution) {
	if !res.FieldVisible(field.ID) {
		delete(s.errors, field.ID)
		return
	}
	msg := validation.Validate(field, s.values[field.ID], res.FieldRequired(field.ID))
	if msg == "" {
		delete(s.errors, field.ID)
		return
	}
	s.errors[field.ID] = msg
}

// Submit validates every visible field and, when the error map stays empty,
// hands the value map to the persistence collaborator. Validation failure
// returns ErrValidationFailed and the session goes back to editing with the
// populated error map; there is no automatic retry. A Submit while another
// is outstanding returns ErrSubmitInFlight and changes nothing.
func (s *Session) Submit(ctx context.Context) error {
	s.mu.Lock()
	if s.submitting {
		s.mu.Unlock()
		return ErrSubmitInFlight
	}
	s.submitting = true
	s.state = StateSubmitting

	res := conditional.Resolve(s.schema, s.values)
	for _, field := range s.schema.Fields() {
		field := field
		s.touched[field.ID] = struct{}{}
		s.revalidateLocked(&field, res)
	}

	if len(s.errors) > 0 {
		count := len(s.errors)
		s.submitting = false
		s.state = StateEditing
		s.mu.Unlock()
		return fmt.Errorf("%w: %d field(s)", ErrValidationFailed, count)
	}

	sub := Submission{
		SessionID: s.id,
		FormID:    s.schema.ID,
		Values:    copyValues(s.values),
	}
	s.mu.Unlock()

	var err error
	if s.persister != nil {
		err = s.persister.Save(ctx, sub)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitting = false
	if err != nil {
		s.state = StateEditing
		return fmt.Errorf("session: submit: %w", err)
	}
	s.state = StateAccepted
	s.cancelAutosaveLocked()
	return nil
}

// Reset clears values, touched, and errors, cancels any pending autosave,
// and returns the session to editing.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[string]any)
	s.touched = make(map[string]struct{})
	s.errors = make(map[string]string)
	s.state = StateEditing
	s.submitting = false
	s.cancelAutosaveLocked()
}

// Close cancels any pending autosave. Sessions are otherwise discarded by
// dropping the reference.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelAutosaveLocked()
}

func copyValues(values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for id, value := range values {
		out[id] = value
	}
	return out
}
