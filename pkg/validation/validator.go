// Package validation checks one candidate value against one field schema and
// produces at most one user-facing message. Checks run in a fixed order and
// the first failure wins; every outcome is returned as data so the engine
// stays usable from any rendering layer.
package validation

import (
	"fmt"
	"net/mail"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/everybytesystems/dhis2-dataflow-sdk-sub002/pkg/schema"
)

// MessageInvalidNumber is returned when a numeric field holds text that does
// not parse as a number.
const MessageInvalidNumber = "must be a valid number"

var phonePattern = regexp.MustCompile(`^\+?[0-9 ().\-]{7,20}$`)

// Validate checks a candidate value against the field's rules and returns a
// user-facing message, or "" when every applicable check passes. The
// required flag must be the field's resolved required state, not the static
// schema flag, so conditionally-required fields validate correctly.
//
// Check order: required, blank shortcut, length bounds, numeric bounds,
// pattern, then the fixed format for email/URL/phone field types.
func Validate(field *schema.FieldSchema, value any, required bool) string {
	if field == nil {
		return ""
	}

	text := strings.TrimSpace(schema.CoerceString(value))
	label := fieldLabel(field)

	if text == "" {
		if required {
			return label + " is required"
		}
		return ""
	}

	if field.Type.TextLike() {
		if msg := checkLength(field, text, label); msg != "" {
			return msg
		}
	}

	if field.Type.Numeric() {
		if msg := checkNumeric(field, text, label); msg != "" {
			return msg
		}
	}

	if field.Validation.Pattern != "" {
		if msg := checkPattern(field, text, label); msg != "" {
			return msg
		}
	}

	return checkFormat(field, text, label)
}

func fieldLabel(field *schema.FieldSchema) string {
	if field.Label != "" {
		return field.Label
	}
	if label := schema.DefaultLabel(field.ID); label != "" {
		return label
	}
	return "Field"
}

func checkLength(field *schema.FieldSchema, text, label string) string {
	rules := field.Validation
	length := len([]rune(text))
	if rules.MinLength != nil && length < *rules.MinLength {
		return fmt.Sprintf("%s must be at least %d characters", label, *rules.MinLength)
	}
	if rules.MaxLength != nil && length > *rules.MaxLength {
		return fmt.Sprintf("%s must be at most %d characters", label, *rules.MaxLength)
	}
	return ""
}

func checkNumeric(field *schema.FieldSchema, text, label string) string {
	number, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return label + " " + MessageInvalidNumber
	}
	rules := field.Validation
	if rules.MinValue != nil && number < *rules.MinValue {
		return fmt.Sprintf("%s must be at least %v", label, *rules.MinValue)
	}
	if rules.MaxValue != nil && number > *rules.MaxValue {
		return fmt.Sprintf("%s must be at most %v", label, *rules.MaxValue)
	}
	return ""
}

func checkPattern(field *schema.FieldSchema, text, label string) string {
	re, err := compiledPattern(field.Validation.Pattern)
	if err != nil {
		// Broken pattern in the definition: skip the check rather than
		// reject every value the user types.
		return ""
	}
	if re.MatchString(text) {
		return ""
	}
	if field.Validation.CustomMessage != "" {
		return field.Validation.CustomMessage
	}
	return label + " has an invalid format"
}

func checkFormat(field *schema.FieldSchema, text, label string) string {
	switch field.Type {
	case schema.FieldTypeEmail:
		if _, err := mail.ParseAddress(text); err != nil {
			return label + " must be a valid email address"
		}
	case schema.FieldTypeURL:
		parsed, err := url.Parse(text)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return label + " must be a valid URL"
		}
	case schema.FieldTypePhone:
		if !phonePattern.MatchString(text) {
			return label + " must be a valid phone number"
		}
	}
	return ""
}

var (
	patternMu    sync.Mutex
	patternCache = map[string]*regexp.Regexp{}
)

// compiledPattern anchors and caches schema patterns. Values must fully
// match the expression, matching how the source platform applies them.
func compiledPattern(expr string) (*regexp.Regexp, error) {
	patternMu.Lock()
	defer patternMu.Unlock()
	if re, ok := patternCache[expr]; ok {
		return re, nil
	}
	re, err := regexp.Compile("^(?:" + expr + ")$")
	if err != nil {
		return nil, err
	}
	patternCache[expr] = re
	return re, nil
}
