package llm

import (
	"fmt"
	"net/http"
)

const (
	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	defaultOpenRouterTitle   = "mirrorgen"
)

// OpenRouterProvider talks to OpenRouter through its OpenAI-compatible
// endpoint. Model IDs are vendor-qualified ("google/gemini-2.5-flash") and
// passed through unchanged.
type OpenRouterProvider struct {
	*OpenAIProvider
}

// NewOpenRouterProvider creates a provider targeting the OpenRouter API.
// Requests carry OpenRouter's app attribution headers.
func NewOpenRouterProvider(cfg OpenRouterConfig) (*OpenRouterProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openrouter API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOpenRouterBaseURL
	}
	if cfg.Title == "" {
		cfg.Title = defaultOpenRouterTitle
	}

	headers := http.Header{}
	headers.Set("X-Title", cfg.Title)
	if cfg.Referer != "" {
		headers.Set("HTTP-Referer", cfg.Referer)
	}
	client := &http.Client{Transport: &headerTransport{base: http.DefaultTransport, headers: headers}}

	inner := newOpenAIProviderRaw(OpenAIConfig{
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		BaseURL: cfg.BaseURL,
	}, client)
	return &OpenRouterProvider{OpenAIProvider: inner}, nil
}

// headerTransport adds fixed headers to every request.
type headerTransport struct {
	base    http.RoundTripper
	headers http.Header
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, vs := range t.headers {
		req.Header[k] = vs
	}
	return t.base.RoundTrip(req)
}
