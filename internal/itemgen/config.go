package itemgen

// Config controls the behavior of the Generator.
type Config struct {
	// Validators run in order on every parsed item. All of them run;
	// their reasons are combined into one SchemaViolationError.
	Validators []Validator

	// MaxTokens is the token budget for the LLM response.
	MaxTokens int

	// Temperature controls LLM output randomness (0.0-1.0).
	Temperature float64
}

// DefaultConfig returns a Config with the standard validator chain,
// including the forced-key check, and recommended defaults.
func DefaultConfig() Config {
	return Config{
		Validators: []Validator{
			&StructuralValidator{},
			&ForcedKeyValidator{},
		},
		MaxTokens:   8192,
		Temperature: 0.7,
	}
}
