package schema

import "fmt"

// FormBuilder assembles a FormSchema fluently. Builders are write-once:
// Build normalizes the accumulated definition, checks it for well-formedness,
// and returns an immutable schema.
type FormBuilder struct {
	form FormSchema
}

// NewForm starts a builder for a form with the given id and title.
func NewForm(id, title string) *FormBuilder {
	return &FormBuilder{form: FormSchema{ID: id, Title: title}}
}

// Settings replaces the form's engine settings.
func (b *FormBuilder) Settings(settings Settings) *FormBuilder {
	b.form.Settings = settings
	return b
}

// AutoSave enables draft autosave with the given debounce interval in
// seconds. Zero or negative falls back to the default interval.
func (b *FormBuilder) AutoSave(intervalSeconds int) *FormBuilder {
	b.form.Settings.AllowDraft = true
	b.form.Settings.AutoSave = true
	b.form.Settings.AutoSaveInterval = intervalSeconds
	return b
}

// Section appends a new section and returns its builder.
func (b *FormBuilder) Section(id, title string) *SectionBuilder {
	b.form.Sections = append(b.form.Sections, Section{ID: id, Title: title})
	return &SectionBuilder{form: b, index: len(b.form.Sections) - 1}
}

// Build normalizes and validates the accumulated schema.
func (b *FormBuilder) Build() (*FormSchema, error) {
	form := b.form
	form.Normalize()
	if err := form.Validate(); err != nil {
		return nil, fmt.Errorf("schema builder: %w", err)
	}
	return &form, nil
}

// MustBuild panics if the schema is malformed. Useful for fixtures.
func (b *FormBuilder) MustBuild() *FormSchema {
	form, err := b.Build()
	if err != nil {
		panic(err)
	}
	return form
}

// SectionBuilder configures one section of a form.
type SectionBuilder struct {
	form  *FormBuilder
	index int
}

func (s *SectionBuilder) section() *Section {
	return &s.form.form.Sections[s.index]
}

// Description sets the section description.
func (s *SectionBuilder) Description(text string) *SectionBuilder {
	s.section().Description = text
	return s
}

// When attaches a conditional rule to the section.
func (s *SectionBuilder) When(sourceFieldID string, op ConditionOperator, value string, action ConditionAction) *SectionBuilder {
	s.section().Conditional = &Conditional{
		SourceFieldID: sourceFieldID,
		Operator:      op,
		Value:         value,
		Action:        action,
	}
	return s
}

// Field appends a field to the section and returns its builder.
func (s *SectionBuilder) Field(id string, fieldType FieldType) *FieldBuilder {
	sec := s.section()
	sec.Fields = append(sec.Fields, FieldSchema{ID: id, Type: fieldType})
	return &FieldBuilder{section: s, index: len(sec.Fields) - 1}
}

// Section starts a sibling section on the parent form.
func (s *SectionBuilder) Section(id, title string) *SectionBuilder {
	return s.form.Section(id, title)
}

// Build finishes the form.
func (s *SectionBuilder) Build() (*FormSchema, error) { return s.form.Build() }

// MustBuild finishes the form, panicking on a malformed schema.
func (s *SectionBuilder) MustBuild() *FormSchema { return s.form.MustBuild() }

// FieldBuilder configures one field of a section.
type FieldBuilder struct {
	section *SectionBuilder
	index   int
}

func (f *FieldBuilder) field() *FieldSchema {
	return &f.section.section().Fields[f.index]
}

// Label sets the display label. Unset labels are derived from the field id
// during normalization.
func (f *FieldBuilder) Label(label string) *FieldBuilder {
	f.field().Label = label
	return f
}

// Description sets the help text shown alongside the field.
func (f *FieldBuilder) Description(text string) *FieldBuilder {
	f.field().Description = text
	return f
}

// Placeholder sets the input placeholder.
func (f *FieldBuilder) Placeholder(text string) *FieldBuilder {
	f.field().Placeholder = text
	return f
}

// Required marks the field as statically required.
func (f *FieldBuilder) Required() *FieldBuilder {
	f.field().Required = true
	return f
}

// ReadOnly marks the field as not editable.
func (f *FieldBuilder) ReadOnly() *FieldBuilder {
	f.field().ReadOnly = true
	return f
}

// MinLength sets the minimum string length.
func (f *FieldBuilder) MinLength(n int) *FieldBuilder {
	f.field().Validation.MinLength = &n
	return f
}

// MaxLength sets the maximum string length.
func (f *FieldBuilder) MaxLength(n int) *FieldBuilder {
	f.field().Validation.MaxLength = &n
	return f
}

// Min sets the minimum numeric value.
func (f *FieldBuilder) Min(v float64) *FieldBuilder {
	f.field().Validation.MinValue = &v
	return f
}

// Max sets the maximum numeric value.
func (f *FieldBuilder) Max(v float64) *FieldBuilder {
	f.field().Validation.MaxValue = &v
	return f
}

// Range sets both numeric bounds.
func (f *FieldBuilder) Range(min, max float64) *FieldBuilder {
	return f.Min(min).Max(max)
}

// Pattern sets the regular expression the value must fully match.
func (f *FieldBuilder) Pattern(expr string) *FieldBuilder {
	f.field().Validation.Pattern = expr
	return f
}

// Message sets the custom message used when the pattern check fails.
func (f *FieldBuilder) Message(msg string) *FieldBuilder {
	f.field().Validation.CustomMessage = msg
	return f
}

// FileTypes restricts the accepted file extensions for file fields.
func (f *FieldBuilder) FileTypes(types ...string) *FieldBuilder {
	f.field().Validation.AllowedFileTypes = types
	return f
}

// MaxFileSize caps the accepted file size in bytes.
func (f *FieldBuilder) MaxFileSize(bytes int64) *FieldBuilder {
	f.field().Validation.MaxFileSize = bytes
	return f
}

// Options sets the selectable values for choice fields.
func (f *FieldBuilder) Options(options ...Option) *FieldBuilder {
	f.field().Options = options
	return f
}

// Values is shorthand for Options where value and label coincide.
func (f *FieldBuilder) Values(values ...string) *FieldBuilder {
	options := make([]Option, 0, len(values))
	for _, v := range values {
		options = append(options, Option{Value: v, Label: v})
	}
	return f.Options(options...)
}

// Default seeds the field's initial value.
func (f *FieldBuilder) Default(value any) *FieldBuilder {
	f.field().DefaultValue = value
	return f
}

// When attaches a conditional rule to the field.
func (f *FieldBuilder) When(sourceFieldID string, op ConditionOperator, value string, action ConditionAction) *FieldBuilder {
	f.field().Conditional = &Conditional{
		SourceFieldID: sourceFieldID,
		Operator:      op,
		Value:         value,
		Action:        action,
	}
	return f
}

// Field starts a sibling field in the same section.
func (f *FieldBuilder) Field(id string, fieldType FieldType) *FieldBuilder {
	return f.section.Field(id, fieldType)
}

// Section starts a new section on the parent form.
func (f *FieldBuilder) Section(id, title string) *SectionBuilder {
	return f.section.Section(id, title)
}

// Build finishes the form.
func (f *FieldBuilder) Build() (*FormSchema, error) { return f.section.Build() }

// MustBuild finishes the form, panicking on a malformed schema.
func (f *FieldBuilder) MustBuild() *FormSchema { return f.section.MustBuild() }
