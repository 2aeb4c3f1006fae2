package item

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var errNoObject = errors.New("no JSON object delimiters found")

// ExtractJSONObject returns the substring from the first '{' to the last
// '}' of raw. Models wrap JSON in prose or code fences often enough that
// the text is never trusted verbatim. It reports false when there is no
// such pair.
//
// The slice is purely positional: braces inside string values are not
// interpreted, so trailing prose containing '}' widens the slice and the
// subsequent parse fails.
func ExtractJSONObject(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < 0 || end < start {
		return "", false
	}
	return raw[start : end+1], true
}

// Decode runs the parse boundary shared by the generator and the auditor:
// extract the JSON object from raw, parse it, check it against schema and
// unmarshal it into v. Errors are *MalformedResponseError or
// *SchemaViolationError tagged with op.
func Decode(op, raw string, schema *Schema, v any) error {
	obj, ok := ExtractJSONObject(raw)
	if !ok {
		return &MalformedResponseError{Op: op, Raw: raw, Err: errNoObject}
	}

	var doc any
	if err := json.Unmarshal([]byte(obj), &doc); err != nil {
		return &MalformedResponseError{Op: op, Raw: raw, Err: fmt.Errorf("invalid JSON: %w", err)}
	}

	if schema != nil {
		if reasons := schema.Check(doc); len(reasons) > 0 {
			return &SchemaViolationError{Op: op, Raw: raw, Reasons: reasons}
		}
	}

	if err := json.Unmarshal([]byte(obj), v); err != nil {
		return &SchemaViolationError{Op: op, Raw: raw, Reasons: []string{err.Error()}}
	}
	return nil
}
