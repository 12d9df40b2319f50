// Package fill walks a form session interactively: it prompts for each
// visible, enabled field in schema order, feeding answers through the session
// so conditional rules computed from earlier answers decide which later
// prompts appear at all.
package fill

import (
	"context"
	"errors"
	"fmt"

	"github.com/everybytesystems/dhis2-dataflow-sdk-sub002/pkg/schema"
	"github.com/everybytesystems/dhis2-dataflow-sdk-sub002/pkg/session"
	"github.com/everybytesystems/dhis2-dataflow-sdk-sub002/pkg/validation"
)

// Walker drives one session through a PromptDriver.
type Walker struct {
	driver PromptDriver
}

// NewWalker constructs a Walker.
func NewWalker(driver PromptDriver) *Walker {
	return &Walker{driver: driver}
}

// Run prompts for every visible field, confirms, and submits. Validation
// runs inside each prompt, so by the time Submit fires the error map is
// normally empty; a rejected submit reports the remaining messages and
// returns session.ErrValidationFailed.
func (w *Walker) Run(ctx context.Context, sess *session.Session) error {
	form := sess.Schema()

	for _, sec := range form.Sections {
		res := sess.Resolution()
		state, ok := res.Sections[sec.ID]
		if !ok || !state.Visible {
			continue
		}
		if sec.Title != "" {
			if err := w.driver.Info(ctx, "== "+sec.Title); err != nil {
				return err
			}
		}

		for _, field := range sec.Fields {
			field := field
			// Re-resolve before each prompt: earlier answers in this
			// section may have toggled this field.
			res = sess.Resolution()
			fieldState, ok := res.Fields[field.ID]
			if !ok || !fieldState.Visible || !fieldState.Enabled {
				continue
			}

			value, err := w.prompt(ctx, &field, fieldState.Required)
			if err != nil {
				return err
			}
			if err := sess.SetValue(field.ID, value); err != nil {
				return err
			}
		}
	}

	confirmed, err := w.driver.Confirm(ctx, ConfirmConfig{
		Message: form.Settings.SubmitLabel + "?",
		Default: true,
	})
	if err != nil {
		return err
	}
	if !confirmed {
		return ErrAborted
	}

	if err := sess.Submit(ctx); err != nil {
		if errors.Is(err, session.ErrValidationFailed) {
			for id, msg := range sess.Errors() {
				_ = w.driver.Info(ctx, fmt.Sprintf("  %s: %s", id, msg))
			}
		}
		return err
	}
	return nil
}

func (w *Walker) prompt(ctx context.Context, field *schema.FieldSchema, required bool) (any, error) {
	message := field.Label
	if message == "" {
		message = schema.DefaultLabel(field.ID)
	}
	if required {
		message += " *"
	}

	switch field.Type {
	case schema.FieldTypeBoolean:
		def, _ := field.DefaultValue.(bool)
		return w.driver.Confirm(ctx, ConfirmConfig{
			Message: message,
			Default: def,
			Help:    field.Description,
		})

	case schema.FieldTypeChoice:
		options := optionLabels(field.Options)
		idx, err := w.driver.Select(ctx, SelectConfig{
			Message:      message,
			Options:      options,
			DefaultIndex: defaultOptionIndex(field),
			Help:         field.Description,
		})
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= len(field.Options) {
			return "", nil
		}
		return field.Options[idx].Value, nil

	case schema.FieldTypeMultiChoice:
		options := optionLabels(field.Options)
		indices, err := w.driver.MultiSelect(ctx, SelectConfig{
			Message: message,
			Options: options,
			Help:    field.Description,
		})
		if err != nil {
			return nil, err
		}
		values := make([]string, 0, len(indices))
		for _, idx := range indices {
			if idx >= 0 && idx < len(field.Options) {
				values = append(values, field.Options[idx].Value)
			}
		}
		return values, nil

	case schema.FieldTypeTextArea:
		return w.driver.TextArea(ctx, InputConfig{
			Message: message,
			Default: schema.CoerceString(field.DefaultValue),
			Help:    field.Description,
		})

	default:
		return w.driver.Input(ctx, InputConfig{
			Message: message,
			Default: schema.CoerceString(field.DefaultValue),
			Help:    field.Description,
			Validator: func(text string) error {
				if msg := validation.Validate(field, text, required); msg != "" {
					return errors.New(msg)
				}
				return nil
			},
		})
	}
}

func optionLabels(options []schema.Option) []string {
	labels := make([]string, 0, len(options))
	for _, option := range options {
		label := option.Label
		if label == "" {
			label = option.Value
		}
		labels = append(labels, label)
	}
	return labels
}

func defaultOptionIndex(field *schema.FieldSchema) int {
	def := schema.CoerceString(field.DefaultValue)
	if def == "" {
		return -1
	}
	for i, option := range field.Options {
		if option.Value == def {
			return i
		}
	}
	return -1
}
