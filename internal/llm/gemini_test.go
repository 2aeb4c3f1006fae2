package llm

import (
	"testing"
)

func TestGeminiModelMapping(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"gemini-flash", "gemini-2.5-flash"},
		{"gemini-flash-lite", "gemini-2.5-flash-lite"},
		{"gemini-pro", "gemini-2.5-pro"},
		{"gemini-2.0-flash", "gemini-2.0-flash"}, // Pass-through
	}
	for _, tt := range tests {
		got := resolveModel(tt.input, geminiModels)
		if got != tt.expected {
			t.Errorf("resolveModel(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestBuildGeminiContents(t *testing.T) {
	msgs := []Message{
		{
			Role:    RoleUser,
			Content: "Genera el ítem espejo.",
			Images:  []Image{{MIMEType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}}},
		},
		{Role: RoleAssistant, Content: "{}"},
	}

	contents := buildGeminiContents(msgs)

	if len(contents) != 2 {
		t.Fatalf("expected 2 contents, got %d", len(contents))
	}
	if contents[0].Role != "user" {
		t.Fatalf("expected user role, got %s", contents[0].Role)
	}
	if len(contents[0].Parts) != 2 {
		t.Fatalf("expected text and image parts, got %d", len(contents[0].Parts))
	}
	if contents[0].Parts[0].Text != "Genera el ítem espejo." {
		t.Fatalf("unexpected text part: %q", contents[0].Parts[0].Text)
	}
	blob := contents[0].Parts[1].InlineData
	if blob == nil {
		t.Fatal("expected inline image data")
	}
	if blob.MIMEType != "image/png" || len(blob.Data) != 4 {
		t.Fatalf("unexpected blob: %s (%d bytes)", blob.MIMEType, len(blob.Data))
	}
	if contents[1].Role != "model" {
		t.Fatalf("expected assistant mapped to model, got %s", contents[1].Role)
	}
}
