package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// StringField coerces a raw record value into a trimmed string. Upstream
// sources are loose about types, so numbers are rendered rather than
// rejected. Missing keys and nil values yield "".
func StringField(rec map[string]interface{}, key string) string {
	v, ok := rec[key]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		// JSON numbers decode as float64; phone-like fields arrive this way.
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", val))
	}
}
