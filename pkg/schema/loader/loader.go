// Package loader reads form definitions from files, fs.FS entries, or raw
// bytes and decodes them into normalized schemas. Definitions may be JSON or
// YAML; the decoder tries JSON first and falls back to YAML, so both wire
// formats share one entry point.
package loader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/everybytesystems/dhis2-dataflow-sdk-sub002/pkg/schema"
)

// Option customises loader behaviour.
type Option func(*Loader)

// WithStrict makes Load fail on well-formedness issues (duplicate ids,
// dangling conditional sources) instead of returning them as diagnostics.
func WithStrict() Option {
	return func(l *Loader) { l.strict = true }
}

// Loader decodes form definitions into schemas.
type Loader struct {
	strict bool
}

// New constructs a Loader.
func New(opts ...Option) *Loader {
	l := &Loader{}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Result carries the decoded schema together with any well-formedness
// diagnostics found along the way. In non-strict mode issues are advisory:
// the rule engines fail open on them at session time.
type Result struct {
	Schema *schema.FormSchema
	Issues []schema.Issue
}

// Load reads the source and decodes it.
func (l *Loader) Load(ctx context.Context, src Source) (Result, error) {
	if src == nil {
		return Result{}, errors.New("schema loader: source is required")
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	raw, err := readSource(src)
	if err != nil {
		return Result{}, err
	}
	doc, err := NewDocument(src, raw)
	if err != nil {
		return Result{}, err
	}
	return l.Parse(doc)
}

// Parse decodes a pre-loaded document.
func (l *Loader) Parse(doc Document) (Result, error) {
	form, err := decode(doc.Raw())
	if err != nil {
		return Result{}, fmt.Errorf("schema loader: parse %s: %w", doc.Location(), err)
	}

	form.Normalize()
	issues := form.Check()
	if l.strict && len(issues) > 0 {
		return Result{}, fmt.Errorf("schema loader: %s: %w", doc.Location(), form.Validate())
	}
	return Result{Schema: form, Issues: issues}, nil
}

func readSource(src Source) ([]byte, error) {
	switch s := src.(type) {
	case fileSource:
		abs, err := filepath.Abs(s.path)
		if err != nil {
			return nil, fmt.Errorf("schema loader: resolve path: %w", err)
		}
		data, err := os.ReadFile(abs)
		if err != nil {
			return nil, fmt.Errorf("schema loader: read file: %w", err)
		}
		return data, nil
	case fsSource:
		data, err := fs.ReadFile(s.fsys, s.path)
		if err != nil {
			return nil, fmt.Errorf("schema loader: read fs entry: %w", err)
		}
		return data, nil
	case bytesSource:
		return append([]byte(nil), s.data...), nil
	default:
		return nil, fmt.Errorf("schema loader: unsupported source kind %q", src.Kind())
	}
}

func decode(raw []byte) (*schema.FormSchema, error) {
	var form schema.FormSchema
	jsonErr := json.Unmarshal(raw, &form)
	if jsonErr == nil {
		return &form, nil
	}

	form = schema.FormSchema{}
	if yamlErr := yaml.Unmarshal(raw, &form); yamlErr != nil {
		return nil, fmt.Errorf("not valid JSON (%v) or YAML (%v)", jsonErr, yamlErr)
	}
	return &form, nil
}
