package schema

import "time"

// FieldType is the closed set of data-entry value kinds a form can collect.
// Rendering widgets map onto these types elsewhere; the engine only ever
// inspects the data-level classification helpers below.
type FieldType string

const (
	FieldTypeText        FieldType = "text"
	FieldTypeTextArea    FieldType = "textarea"
	FieldTypeNumber      FieldType = "number"
	FieldTypeInteger     FieldType = "integer"
	FieldTypeDecimal     FieldType = "decimal"
	FieldTypeBoolean     FieldType = "boolean"
	FieldTypeChoice      FieldType = "choice"
	FieldTypeMultiChoice FieldType = "multichoice"
	FieldTypeDate        FieldType = "date"
	FieldTypeDateTime    FieldType = "datetime"
	FieldTypeTime        FieldType = "time"
	FieldTypeFile        FieldType = "file"
	FieldTypeImage       FieldType = "image"
	FieldTypeEmail       FieldType = "email"
	FieldTypeURL         FieldType = "url"
	FieldTypePhone       FieldType = "phone"
	FieldTypeSignature   FieldType = "signature"
	FieldTypeLocation    FieldType = "location"
)

// TextLike reports whether length bounds apply to the type.
func (t FieldType) TextLike() bool {
	switch t {
	case FieldTypeText, FieldTypeTextArea, FieldTypeEmail, FieldTypeURL, FieldTypePhone:
		return true
	}
	return false
}

// Numeric reports whether numeric bounds apply to the type.
func (t FieldType) Numeric() bool {
	switch t {
	case FieldTypeNumber, FieldTypeInteger, FieldTypeDecimal:
		return true
	}
	return false
}

// ConditionOperator compares a source field's current value against a literal.
type ConditionOperator string

const (
	OperatorEquals      ConditionOperator = "equals"
	OperatorNotEquals   ConditionOperator = "not-equals"
	OperatorContains    ConditionOperator = "contains"
	OperatorNotContains ConditionOperator = "not-contains"
	OperatorGreaterThan ConditionOperator = "greater-than"
	OperatorLessThan    ConditionOperator = "less-than"
	OperatorIsEmpty     ConditionOperator = "is-empty"
	OperatorIsNotEmpty  ConditionOperator = "is-not-empty"
)

// ConditionAction describes what a met condition does to its target.
type ConditionAction string

const (
	ActionShow     ConditionAction = "show"
	ActionHide     ConditionAction = "hide"
	ActionEnable   ConditionAction = "enable"
	ActionDisable  ConditionAction = "disable"
	ActionRequire  ConditionAction = "require"
	ActionOptional ConditionAction = "optional"
)

// Conditional changes a field's or section's visibility, enabled-state, or
// required-state based on another field's current value. The source field may
// live in any section of the same schema.
type Conditional struct {
	SourceFieldID string            `json:"sourceFieldId" yaml:"sourceFieldId"`
	Operator      ConditionOperator `json:"operator" yaml:"operator"`
	Value         string            `json:"value,omitempty" yaml:"value,omitempty"`
	Action        ConditionAction   `json:"action" yaml:"action"`
}

// ValidationRules holds the optional constraints attached to a field. Bounds
// use pointer types so "absent" and "zero" stay distinguishable in JSON
// snapshots.
type ValidationRules struct {
	MinLength        *int     `json:"minLength,omitempty" yaml:"minLength,omitempty"`
	MaxLength        *int     `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
	MinValue         *float64 `json:"minValue,omitempty" yaml:"minValue,omitempty"`
	MaxValue         *float64 `json:"maxValue,omitempty" yaml:"maxValue,omitempty"`
	Pattern          string   `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	CustomMessage    string   `json:"customMessage,omitempty" yaml:"customMessage,omitempty"`
	AllowedFileTypes []string `json:"allowedFileTypes,omitempty" yaml:"allowedFileTypes,omitempty"`
	MaxFileSize      int64    `json:"maxFileSize,omitempty" yaml:"maxFileSize,omitempty"`
}

// Option is a selectable value for choice fields.
type Option struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// FieldSchema models an individual data-entry point inside a form.
type FieldSchema struct {
	ID           string          `json:"id" yaml:"id"`
	Type         FieldType       `json:"type" yaml:"type"`
	Label        string          `json:"label,omitempty" yaml:"label,omitempty"`
	Description  string          `json:"description,omitempty" yaml:"description,omitempty"`
	Placeholder  string          `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Required     bool            `json:"required,omitempty" yaml:"required,omitempty"`
	ReadOnly     bool            `json:"readOnly,omitempty" yaml:"readOnly,omitempty"`
	Validation   ValidationRules `json:"validation,omitempty" yaml:"validation,omitempty"`
	Conditional  *Conditional    `json:"conditional,omitempty" yaml:"conditional,omitempty"`
	Options      []Option        `json:"options,omitempty" yaml:"options,omitempty"`
	DefaultValue any             `json:"defaultValue,omitempty" yaml:"defaultValue,omitempty"`
}

// Section is an ordered grouping of fields, itself optionally conditional.
type Section struct {
	ID          string        `json:"id" yaml:"id"`
	Title       string        `json:"title,omitempty" yaml:"title,omitempty"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty"`
	Conditional *Conditional  `json:"conditional,omitempty" yaml:"conditional,omitempty"`
	Fields      []FieldSchema `json:"fields" yaml:"fields"`
}

// Settings carries the engine-facing configuration embedded in a schema.
// AutoSaveInterval is expressed in seconds on the wire.
type Settings struct {
	AllowDraft       bool   `json:"allowDraft,omitempty" yaml:"allowDraft,omitempty"`
	AutoSave         bool   `json:"autoSave,omitempty" yaml:"autoSave,omitempty"`
	AutoSaveInterval int    `json:"autoSaveInterval,omitempty" yaml:"autoSaveInterval,omitempty"`
	SubmitLabel      string `json:"submitLabel,omitempty" yaml:"submitLabel,omitempty"`
	DraftLabel       string `json:"draftLabel,omitempty" yaml:"draftLabel,omitempty"`
}

// DefaultAutoSaveInterval applies when a schema enables autosave without
// choosing an interval.
const DefaultAutoSaveInterval = 30 * time.Second

// Interval returns the autosave debounce window as a duration, falling back
// to DefaultAutoSaveInterval when the schema left it unset.
func (s Settings) Interval() time.Duration {
	if s.AutoSaveInterval <= 0 {
		return DefaultAutoSaveInterval
	}
	return time.Duration(s.AutoSaveInterval) * time.Second
}

// FormSchema is the immutable description of a form: ordered sections of
// fields plus engine settings. Build one via the fluent builder, the loader,
// or the OpenAPI adapter, then treat it as read-only for the session's
// lifetime.
type FormSchema struct {
	ID       string    `json:"id" yaml:"id"`
	Title    string    `json:"title,omitempty" yaml:"title,omitempty"`
	Sections []Section `json:"sections" yaml:"sections"`
	Settings Settings  `json:"settings,omitempty" yaml:"settings,omitempty"`
}
