// Package openapi derives form schemas from OpenAPI 3 operations. It is an
// optional schema-source collaborator: the request body of an operation maps
// onto a single-section form whose fields carry the body's types, formats,
// bounds, and enums as validation rules and options.
package openapi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/everybytesystems/dhis2-dataflow-sdk-sub002/pkg/schema"
)

// Option customises the adapter.
type Option func(*Adapter)

// WithLabeler overrides the default label derivation for field ids.
func WithLabeler(labeler func(string) string) Option {
	return func(a *Adapter) {
		if labeler != nil {
			a.labeler = labeler
		}
	}
}

// Adapter converts OpenAPI operations into form schemas.
type Adapter struct {
	labeler func(string) string
}

// New constructs an Adapter.
func New(opts ...Option) *Adapter {
	a := &Adapter{labeler: schema.DefaultLabel}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// BuildFormSchema loads an OpenAPI 3 document and maps the request body of
// the named operation onto a form schema. Property names become field ids in
// sorted order so repeated builds stay deterministic.
func (a *Adapter) BuildFormSchema(ctx context.Context, raw []byte, operationID string) (*schema.FormSchema, error) {
	if len(raw) == 0 {
		return nil, errors.New("openapi adapter: document payload is empty")
	}
	if operationID == "" {
		return nil, errors.New("openapi adapter: operation id is required")
	}

	loader := &openapi3.Loader{Context: ctx}
	spec, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("openapi adapter: load document: %w", err)
	}

	op := findOperation(spec, operationID)
	if op == nil {
		return nil, fmt.Errorf("openapi adapter: operation %q not found", operationID)
	}

	body := requestBodySchema(op.RequestBody)
	if body == nil {
		return nil, fmt.Errorf("openapi adapter: operation %q has no usable request body", operationID)
	}

	form := &schema.FormSchema{
		ID:    operationID,
		Title: firstNonEmpty(op.Summary, a.labeler(operationID)),
		Sections: []schema.Section{{
			ID:          "body",
			Title:       firstNonEmpty(body.Title, "Details"),
			Description: op.Description,
		}},
	}

	requiredSet := make(map[string]struct{}, len(body.Required))
	for _, name := range body.Required {
		requiredSet[name] = struct{}{}
	}

	names := make([]string, 0, len(body.Properties))
	for name := range body.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		ref := body.Properties[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		_, required := requiredSet[name]
		field := a.fieldFromProperty(name, ref.Value, required)
		form.Sections[0].Fields = append(form.Sections[0].Fields, field)
	}

	form.Normalize()
	return form, nil
}

func findOperation(spec *openapi3.T, operationID string) *openapi3.Operation {
	if spec.Paths == nil {
		return nil
	}
	for _, item := range spec.Paths.Map() {
		if item == nil {
			continue
		}
		for _, op := range item.Operations() {
			if op != nil && op.OperationID == operationID {
				return op
			}
		}
	}
	return nil
}

func requestBodySchema(ref *openapi3.RequestBodyRef) *openapi3.Schema {
	if ref == nil || ref.Value == nil {
		return nil
	}
	content := ref.Value.Content
	for _, mediaType := range []string{"application/json", "application/x-www-form-urlencoded", "multipart/form-data"} {
		if mt, ok := content[mediaType]; ok && mt.Schema != nil && mt.Schema.Value != nil {
			return mt.Schema.Value
		}
	}
	for _, mt := range content {
		if mt.Schema != nil && mt.Schema.Value != nil {
			return mt.Schema.Value
		}
	}
	return nil
}

func (a *Adapter) fieldFromProperty(name string, src *openapi3.Schema, required bool) schema.FieldSchema {
	field := schema.FieldSchema{
		ID:          name,
		Type:        fieldType(src),
		Label:       firstNonEmpty(src.Title, a.labeler(name)),
		Description: src.Description,
		Required:    required,
		ReadOnly:    src.ReadOnly,
	}

	if src.Default != nil {
		field.DefaultValue = src.Default
	}
	if len(src.Enum) > 0 {
		field.Type = schema.FieldTypeChoice
		for _, value := range src.Enum {
			text := schema.CoerceString(value)
			field.Options = append(field.Options, schema.Option{
				Value: text,
				Label: a.labeler(text),
			})
		}
	}

	if src.Min != nil {
		value := *src.Min
		field.Validation.MinValue = &value
	}
	if src.Max != nil {
		value := *src.Max
		field.Validation.MaxValue = &value
	}
	if src.MinLength != 0 {
		value := int(src.MinLength)
		field.Validation.MinLength = &value
	}
	if src.MaxLength != nil {
		value := int(*src.MaxLength)
		field.Validation.MaxLength = &value
	}
	if src.Pattern != "" {
		field.Validation.Pattern = src.Pattern
	}

	return field
}

func fieldType(src *openapi3.Schema) schema.FieldType {
	switch primaryType(src.Type) {
	case "integer":
		return schema.FieldTypeInteger
	case "number":
		return schema.FieldTypeNumber
	case "boolean":
		return schema.FieldTypeBoolean
	case "array":
		return schema.FieldTypeMultiChoice
	case "string", "":
		switch strings.ToLower(src.Format) {
		case "email":
			return schema.FieldTypeEmail
		case "uri", "url":
			return schema.FieldTypeURL
		case "date":
			return schema.FieldTypeDate
		case "date-time":
			return schema.FieldTypeDateTime
		case "time":
			return schema.FieldTypeTime
		case "binary", "byte":
			return schema.FieldTypeFile
		case "phone", "tel":
			return schema.FieldTypePhone
		default:
			return schema.FieldTypeText
		}
	default:
		return schema.FieldTypeText
	}
}

func primaryType(types *openapi3.Types) string {
	if types == nil {
		return ""
	}
	for _, t := range *types {
		if t != "null" {
			return t
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
