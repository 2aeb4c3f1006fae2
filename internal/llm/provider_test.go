package llm

import (
	"context"
	"errors"
	"testing"
)

func TestMockProvider_ReturnsCanedResponses(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Text: `{"a":1}`, Usage: Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}},
		MockResponse{Text: `{"b":2}`},
	)

	resp1, err := mock.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "first"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp1.Text != `{"a":1}` {
		t.Fatalf("expected {\"a\":1}, got %s", resp1.Text)
	}
	if resp1.Usage.InputTokens != 10 {
		t.Fatalf("expected 10 input tokens, got %d", resp1.Usage.InputTokens)
	}
	if resp1.StopReason != "end" {
		t.Fatalf("expected stop reason 'end', got %q", resp1.StopReason)
	}

	resp2, err := mock.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "second"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp2.Text != `{"b":2}` {
		t.Fatalf("expected {\"b\":2}, got %s", resp2.Text)
	}
}

func TestMockProvider_EmptyQueueReturnsError(t *testing.T) {
	mock := NewMockProvider()
	_, err := mock.Generate(context.Background(), Request{})
	if err == nil {
		t.Fatal("expected error from empty queue")
	}
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected ErrProviderUnavailable, got: %T", err)
	}
}

func TestMockProvider_RecordsCalls(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Text: `{}`},
	)

	req := Request{
		System:   "sys",
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
	}
	_, _ = mock.Generate(context.Background(), req)

	if mock.CallCount() != 1 {
		t.Fatalf("expected 1 call, got %d", mock.CallCount())
	}
	if mock.Call(0).System != "sys" {
		t.Fatalf("expected system 'sys', got %q", mock.Call(0).System)
	}
}

func TestMockProvider_ReturnsConfiguredError(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrRateLimit{RetryAfter: 0}},
	)

	_, err := mock.Generate(context.Background(), Request{})
	if err == nil {
		t.Fatal("expected error")
	}
	var rl *ErrRateLimit
	if !errors.As(err, &rl) {
		t.Fatalf("expected ErrRateLimit, got: %T", err)
	}
}

func TestMockProvider_ModelID(t *testing.T) {
	mock := NewMockProvider()
	if mock.ModelID() != "mock" {
		t.Fatalf("expected 'mock', got %q", mock.ModelID())
	}
}

func TestPurposeContext(t *testing.T) {
	ctx := context.Background()
	if p := PurposeFrom(ctx); p != "unknown" {
		t.Fatalf("expected 'unknown', got %q", p)
	}

	ctx = WithPurpose(ctx, PurposeGenerate)
	if p := PurposeFrom(ctx); p != PurposeGenerate {
		t.Fatalf("expected %q, got %q", PurposeGenerate, p)
	}
}

func TestRunContext(t *testing.T) {
	ctx := context.Background()
	if id, n := RunFrom(ctx); id != "" || n != 0 {
		t.Fatalf("expected untagged context, got %q/%d", id, n)
	}

	ctx = WithPurpose(WithRun(ctx, "run-1", 2), PurposeAudit)
	id, n := RunFrom(ctx)
	if id != "run-1" || n != 2 {
		t.Fatalf("expected run-1/2, got %q/%d", id, n)
	}
	if p := PurposeFrom(ctx); p != PurposeAudit {
		t.Fatalf("purpose lost: %q", p)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name:    "anthropic without key",
			cfg:     Config{Provider: "anthropic"},
			wantErr: true,
		},
		{
			name:    "anthropic with key",
			cfg:     Config{Provider: "anthropic", Anthropic: AnthropicConfig{APIKey: "sk-test"}},
			wantErr: false,
		},
		{
			name:    "openai without key",
			cfg:     Config{Provider: "openai"},
			wantErr: true,
		},
		{
			name:    "openai with key",
			cfg:     Config{Provider: "openai", OpenAI: OpenAIConfig{APIKey: "sk-test"}},
			wantErr: false,
		},
		{
			name:    "gemini without key",
			cfg:     Config{Provider: "gemini"},
			wantErr: true,
		},
		{
			name:    "vertex without project",
			cfg:     Config{Provider: "vertex", Vertex: VertexConfig{Location: "us-central1"}},
			wantErr: true,
		},
		{
			name:    "vertex with project",
			cfg:     Config{Provider: "vertex", Vertex: VertexConfig{Project: "items-prod", Location: "us-central1"}},
			wantErr: false,
		},
		{
			name:    "openrouter with key",
			cfg:     Config{Provider: "openrouter", OpenRouter: OpenRouterConfig{APIKey: "or-test"}},
			wantErr: false,
		},
		{
			name:    "mock needs no key",
			cfg:     Config{Provider: "mock"},
			wantErr: false,
		},
		{
			name:    "unknown provider",
			cfg:     Config{Provider: "unknown"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMockProvider_RecordsImages(t *testing.T) {
	mock := NewMockProvider(MockResponse{Text: `{}`})

	img := Image{MIMEType: "image/png", Data: []byte{0x89, 0x50}}
	_, err := mock.Generate(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "describe", Images: []Image{img}}},
		JSON:     true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	call := mock.Call(0)
	if !call.JSON {
		t.Fatal("expected JSON flag to be recorded")
	}
	if len(call.Messages[0].Images) != 1 || call.Messages[0].Images[0].MIMEType != "image/png" {
		t.Fatalf("expected one png image, got %+v", call.Messages[0].Images)
	}
}

func TestMockProvider_CanceledContext(t *testing.T) {
	mock := NewMockProvider(MockResponse{Text: `{}`})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := mock.Generate(ctx, Request{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestMockProvider_RespondAfterScript(t *testing.T) {
	mock := NewMockProvider(MockResponse{Text: "first"})
	mock.Respond = func(req Request) MockResponse {
		return MockResponse{Text: "echo " + req.System}
	}

	first, err := mock.Generate(context.Background(), Request{System: "a"})
	if err != nil || first.Text != "first" {
		t.Fatalf("scripted answer: %v %v", first, err)
	}
	second, err := mock.Generate(context.Background(), Request{System: "b"})
	if err != nil || second.Text != "echo b" {
		t.Fatalf("fallback answer: %v %v", second, err)
	}
}
