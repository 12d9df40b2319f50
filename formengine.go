// Package formengine is the convenience surface over the form engine: the
// schema model, the conditional evaluator, the field validator, and the form
// session. Most callers only need this package plus pkg/schema for the
// builder types; the sub-packages stay importable directly for finer
// control.
package formengine

import (
	"context"

	"github.com/everybytesystems/dhis2-dataflow-sdk-sub002/pkg/conditional"
	"github.com/everybytesystems/dhis2-dataflow-sdk-sub002/pkg/schema"
	"github.com/everybytesystems/dhis2-dataflow-sdk-sub002/pkg/schema/loader"
	"github.com/everybytesystems/dhis2-dataflow-sdk-sub002/pkg/session"
	"github.com/everybytesystems/dhis2-dataflow-sdk-sub002/pkg/validation"
)

// FormSchema re-exports the schema model root type.
type FormSchema = schema.FormSchema

// Resolution re-exports the resolved presentation state of a value snapshot.
type Resolution = conditional.Resolution

// Session re-exports the form session.
type Session = session.Session

// Submission re-exports the accepted-submit payload.
type Submission = session.Submission

// Draft re-exports the autosave payload.
type Draft = session.Draft

// NewForm starts a fluent schema builder.
func NewForm(id, title string) *schema.FormBuilder {
	return schema.NewForm(id, title)
}

// NewSession creates a session for one filling of the given schema.
func NewSession(form *schema.FormSchema, opts ...session.Option) *session.Session {
	return session.New(form, opts...)
}

// LoadSchema reads a JSON or YAML form definition from disk.
func LoadSchema(ctx context.Context, path string, opts ...loader.Option) (*schema.FormSchema, error) {
	result, err := loader.New(opts...).Load(ctx, loader.SourceFromFile(path))
	if err != nil {
		return nil, err
	}
	return result.Schema, nil
}

// ParseSchema decodes an in-memory JSON or YAML form definition.
func ParseSchema(data []byte, opts ...loader.Option) (*schema.FormSchema, error) {
	doc, err := loader.NewDocument(loader.SourceFromBytes("schema", data), data)
	if err != nil {
		return nil, err
	}
	result, err := loader.New(opts...).Parse(doc)
	if err != nil {
		return nil, err
	}
	return result.Schema, nil
}

// Resolve computes visibility, enabled, and required state for every section
// and field against the given values.
func Resolve(form *schema.FormSchema, values map[string]any) conditional.Resolution {
	return conditional.Resolve(form, values)
}

// Validate checks one candidate value against one field schema, returning a
// user-facing message or "" when valid.
func Validate(field *schema.FieldSchema, value any, required bool) string {
	return validation.Validate(field, value, required)
}
