package item

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Schema is a named JSON Schema used both to describe the expected output
// and to check parsed responses.
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

// schemaCache caches compiled JSON schemas by name.
var schemaCache sync.Map // map[string]*jsonschema.Schema

// Check validates a parsed JSON document (as produced by json.Unmarshal
// into any) and returns one reason per failure.
func (s *Schema) Check(doc any) []string {
	compiled, err := s.compiled()
	if err != nil {
		return []string{fmt.Sprintf("compile schema %q: %v", s.Name, err)}
	}

	err = compiled.Validate(doc)
	if err == nil {
		return nil
	}
	return validationReasons(err)
}

// JSON renders the definition for embedding in prompts.
func (s *Schema) JSON() string {
	b, err := json.MarshalIndent(s.Definition, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}

// compiled returns a cached compiled schema or compiles and caches it.
func (s *Schema) compiled() (*jsonschema.Schema, error) {
	if cached, ok := schemaCache.Load(s.Name); ok {
		return cached.(*jsonschema.Schema), nil
	}

	// The jsonschema library expects a parsed JSON value (any), not raw bytes.
	// Marshal then unmarshal to get a clean any representation.
	defBytes, err := json.Marshal(s.Definition)
	if err != nil {
		return nil, fmt.Errorf("marshal schema definition: %w", err)
	}
	var defParsed any
	if err := json.Unmarshal(defBytes, &defParsed); err != nil {
		return nil, fmt.Errorf("parse schema definition: %w", err)
	}

	c := jsonschema.NewCompiler()
	schemaURL := fmt.Sprintf("schema://%s.json", s.Name)
	if err := c.AddResource(schemaURL, defParsed); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}

	compiled, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}

	schemaCache.Store(s.Name, compiled)
	return compiled, nil
}

// validationReasons flattens the library's multi-line report into one
// entry per failing location.
func validationReasons(err error) []string {
	lines := strings.Split(err.Error(), "\n")
	var reasons []string
	for _, line := range lines[1:] {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "- ")
		if line != "" {
			reasons = append(reasons, line)
		}
	}
	if len(reasons) == 0 {
		reasons = append(reasons, err.Error())
	}
	return reasons
}
