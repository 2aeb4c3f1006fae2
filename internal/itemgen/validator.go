package itemgen

import (
	"fmt"

	"github.com/abhisek/mirrorgen/internal/item"
)

// Validator checks a generated item beyond what the JSON Schema covers.
// Implementations should be stateless and safe for concurrent use.
type Validator interface {
	// Name returns a short identifier for logging, e.g. "structural".
	Name() string

	// Validate returns one reason per violation, or nil.
	Validate(c *item.CandidateItem, req GenerationRequest) []string
}

// StructuralValidator enforces the item's structural contract: four
// options A-D, a key among them, a justification for the stem and every
// option, and well-formed chart specs.
type StructuralValidator struct{}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(c *item.CandidateItem, _ GenerationRequest) []string {
	return c.Validate()
}

// ForcedKeyValidator rejects items whose key differs from the forced key.
type ForcedKeyValidator struct{}

func (v *ForcedKeyValidator) Name() string { return "forced-key" }

func (v *ForcedKeyValidator) Validate(c *item.CandidateItem, req GenerationRequest) []string {
	if req.ForcedKey == "" || c.Key == req.ForcedKey {
		return nil
	}
	return []string{fmt.Sprintf("key is %s but %s was required", c.Key, req.ForcedKey)}
}
