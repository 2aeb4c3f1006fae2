package itemgen

import (
	"math/rand/v2"

	"github.com/abhisek/mirrorgen/internal/item"
	"github.com/abhisek/mirrorgen/internal/taxonomy"
)

// GenerationRequest is everything one generation attempt needs.
type GenerationRequest struct {
	// Image is the photographed source question.
	Image item.Image

	Taxonomy taxonomy.Selection

	// Context is free text from the author. May be empty.
	Context string

	// Feedback is the auditor's corrective feedback from the previous
	// attempt. Empty on the first attempt.
	Feedback string

	// ForcedKey is the letter the correct option must occupy.
	ForcedKey item.Letter
}

// KeyPicker chooses the forced key for an attempt.
type KeyPicker func() item.Letter

// RandomKey picks uniformly among A-D so the correct answer position is
// not biased across many generated items.
func RandomKey() item.Letter {
	return item.Letters[rand.IntN(len(item.Letters))]
}

// FixedKeys returns a KeyPicker that cycles through keys. For tests.
func FixedKeys(keys ...item.Letter) KeyPicker {
	i := 0
	return func() item.Letter {
		k := keys[i%len(keys)]
		i++
		return k
	}
}
