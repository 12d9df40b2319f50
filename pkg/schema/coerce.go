package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// CoerceString renders a field value the way the rule engines compare it:
// absent values become the empty string, numbers drop insignificant zeros,
// and multi-select slices join on commas.
func CoerceString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case []string:
		return strings.Join(v, ",")
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, CoerceString(item))
		}
		return strings.Join(parts, ",")
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// IsBlank reports whether a value coerces to the empty string after trimming.
func IsBlank(value any) bool {
	return strings.TrimSpace(CoerceString(value)) == ""
}
