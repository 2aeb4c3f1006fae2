package llm

import (
	"context"
)

// Provider is the core abstraction for LLM interaction.
// Consumers call Generate with a Request and receive the model's raw text.
type Provider interface {
	// Generate sends a prompt (and optional images) to the LLM and returns
	// its response. The response Text is returned verbatim: callers own
	// JSON extraction and validation.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes what to send to the LLM.
type Request struct {
	// System is the system prompt. Sets the LLM's role and constraints.
	System string

	// Messages is the conversation history. Mirror generation and auditing
	// are single-turn, so this usually holds one user message.
	Messages []Message

	// JSON asks the provider for machine-structured output using its native
	// mechanism where one exists (JSON MIME type, JSON object mode).
	// Providers without one rely on the prompt alone.
	JSON bool

	// MaxTokens is the maximum number of tokens in the response.
	MaxTokens int

	// Temperature controls randomness. Range: 0.0 - 1.0.
	// Default: 0.0 (deterministic) when not set.
	Temperature float64
}

// Message represents a single message in the conversation.
type Message struct {
	Role    Role
	Content string

	// Images are attached to the message after the text. Only user
	// messages may carry images.
	Images []Image
}

// Image is an inline image attachment.
type Image struct {
	MIMEType string
	Data     []byte
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Response holds the LLM's output.
type Response struct {
	// Text is the raw generated text.
	Text string

	// Usage reports token consumption for this request.
	Usage Usage

	// Model is the actual model that served the request.
	Model string

	// StopReason indicates why generation stopped.
	// Normalized to: "end", "max_tokens", "error"
	StopReason string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
