package components

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// FieldsBox renders the free-form fields of a log record, nested objects
// indented under their key, in a titled box. It returns "" for no fields.
func FieldsBox(title string, fields map[string]any, term int) string {
	if len(fields) == 0 {
		return ""
	}
	var lines []string
	appendFields(&lines, fields, "")
	return TitledBox(title, strings.Join(lines, "\n"), term)
}

func appendFields(lines *[]string, fields map[string]any, prefix string) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if nested, ok := fields[k].(map[string]any); ok {
			*lines = append(*lines, prefix+SanitizeOneLine(k)+":")
			appendFields(lines, nested, prefix+"  ")
			continue
		}
		*lines = append(*lines, SanitizeOneLine(prefix+k+": "+fieldText(fields[k])))
	}
}

// fieldText prints scalars with %v and anything composite as compact JSON.
func fieldText(v any) string {
	switch v.(type) {
	case map[string]any, []any:
		if b, err := json.Marshal(v); err == nil {
			return string(b)
		}
	}
	return fmt.Sprintf("%v", v)
}
