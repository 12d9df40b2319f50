package schema

import (
	"fmt"
	"strings"
)

// Field looks up a field by id across every section.
func (s *FormSchema) Field(id string) (*FieldSchema, bool) {
	if s == nil {
		return nil, false
	}
	for si := range s.Sections {
		section := &s.Sections[si]
		for fi := range section.Fields {
			if section.Fields[fi].ID == id {
				return &section.Fields[fi], true
			}
		}
	}
	return nil, false
}

// Fields returns every field in schema order, walking sections in sequence.
func (s *FormSchema) Fields() []FieldSchema {
	if s == nil {
		return nil
	}
	var out []FieldSchema
	for _, section := range s.Sections {
		out = append(out, section.Fields...)
	}
	return out
}

// FieldIDs returns every field id in schema order.
func (s *FormSchema) FieldIDs() []string {
	fields := s.Fields()
	ids := make([]string, 0, len(fields))
	for _, f := range fields {
		ids = append(ids, f.ID)
	}
	return ids
}

// SectionOf returns the section containing the given field id.
func (s *FormSchema) SectionOf(fieldID string) (*Section, bool) {
	if s == nil {
		return nil, false
	}
	for si := range s.Sections {
		for fi := range s.Sections[si].Fields {
			if s.Sections[si].Fields[fi].ID == fieldID {
				return &s.Sections[si], true
			}
		}
	}
	return nil, false
}

// Issue is a well-formedness diagnostic with optional location metadata.
type Issue struct {
	SectionID string `json:"sectionId,omitempty"`
	FieldID   string `json:"fieldId,omitempty"`
	Message   string `json:"message"`
}

func (i Issue) String() string {
	var loc []string
	if i.SectionID != "" {
		loc = append(loc, "section "+i.SectionID)
	}
	if i.FieldID != "" {
		loc = append(loc, "field "+i.FieldID)
	}
	if len(loc) == 0 {
		return i.Message
	}
	return strings.Join(loc, ", ") + ": " + i.Message
}

// Check reports every well-formedness problem it can find: missing ids,
// duplicate field ids, unknown field types, and conditionals whose source
// field does not exist in the schema. An empty result means the schema is
// well formed. Dangling conditionals are diagnostics only — the evaluator
// fails open on them at runtime, so callers may choose to surface or ignore
// the report.
func (s *FormSchema) Check() []Issue {
	if s == nil {
		return []Issue{{Message: "schema is nil"}}
	}

	var issues []Issue
	if s.ID == "" {
		issues = append(issues, Issue{Message: "form id is required"})
	}

	known := make(map[string]struct{})
	for _, section := range s.Sections {
		if section.ID == "" {
			issues = append(issues, Issue{Message: "section id is required"})
		}
		for _, field := range section.Fields {
			if field.ID == "" {
				issues = append(issues, Issue{SectionID: section.ID, Message: "field id is required"})
				continue
			}
			if _, dup := known[field.ID]; dup {
				issues = append(issues, Issue{
					SectionID: section.ID,
					FieldID:   field.ID,
					Message:   "duplicate field id",
				})
				continue
			}
			known[field.ID] = struct{}{}
			if field.Type == "" {
				issues = append(issues, Issue{
					SectionID: section.ID,
					FieldID:   field.ID,
					Message:   "field type is required",
				})
			}
		}
	}

	for _, section := range s.Sections {
		if c := section.Conditional; c != nil {
			if _, ok := known[c.SourceFieldID]; !ok {
				issues = append(issues, Issue{
					SectionID: section.ID,
					Message:   fmt.Sprintf("conditional references unknown field %q", c.SourceFieldID),
				})
			}
		}
		for _, field := range section.Fields {
			if c := field.Conditional; c != nil {
				if _, ok := known[c.SourceFieldID]; !ok {
					issues = append(issues, Issue{
						SectionID: section.ID,
						FieldID:   field.ID,
						Message:   fmt.Sprintf("conditional references unknown field %q", c.SourceFieldID),
					})
				}
			}
		}
	}

	return issues
}

// Validate runs Check and folds the result into a single error, or nil when
// the schema is well formed.
func (s *FormSchema) Validate() error {
	issues := s.Check()
	if len(issues) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(issues))
	for _, issue := range issues {
		msgs = append(msgs, issue.String())
	}
	return fmt.Errorf("schema: %s", strings.Join(msgs, "; "))
}

// Normalize sanitizes rich-text titles, labels, and descriptions in place and
// fills defaulted settings. Definitions arriving from remote sources can
// embed markup in display strings; normalization strips everything a strict
// policy disallows while leaving plain text intact.
func (s *FormSchema) Normalize() {
	if s == nil {
		return
	}
	s.Title = sanitizeText(s.Title)
	for si := range s.Sections {
		section := &s.Sections[si]
		section.Title = sanitizeText(section.Title)
		section.Description = sanitizeText(section.Description)
		for fi := range section.Fields {
			field := &section.Fields[fi]
			field.Label = sanitizeText(field.Label)
			field.Description = sanitizeText(field.Description)
			if field.Label == "" {
				field.Label = DefaultLabel(field.ID)
			}
		}
	}
	if s.Settings.AutoSave && s.Settings.AutoSaveInterval <= 0 {
		s.Settings.AutoSaveInterval = int(DefaultAutoSaveInterval.Seconds())
	}
	if s.Settings.SubmitLabel == "" {
		s.Settings.SubmitLabel = "Submit"
	}
	if s.Settings.DraftLabel == "" {
		s.Settings.DraftLabel = "Save draft"
	}
}
