package itemgen

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/mirrorgen/internal/item"
	"github.com/abhisek/mirrorgen/internal/item/itemtest"
	"github.com/abhisek/mirrorgen/internal/llm"
)

func testRequest(t *testing.T, key item.Letter) GenerationRequest {
	t.Helper()
	return GenerationRequest{
		Image:     item.Image{Name: "q.png", MIMEType: "image/png", Data: []byte("\x89PNG")},
		Taxonomy:  testTaxonomy(t),
		ForcedKey: key,
	}
}

func TestGenerate_Success(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Text: itemtest.Wrapped(item.LetterC)})
	gen := New(mock, DefaultConfig())

	c, err := gen.Generate(context.Background(), testRequest(t, item.LetterC))
	require.NoError(t, err)
	assert.Equal(t, item.LetterC, c.Key)
	assert.Len(t, c.Options, 4)

	require.Equal(t, 1, mock.CallCount())
	req := mock.Call(0)
	assert.True(t, req.JSON, "generation must request JSON output")
	assert.Equal(t, 8192, req.MaxTokens)
	require.Len(t, req.Messages, 1)
	require.Len(t, req.Messages[0].Images, 1)
	assert.Equal(t, "image/png", req.Messages[0].Images[0].MIMEType)
	assert.Contains(t, req.Messages[0].Content, "DEBE ser la opción C")
}

func TestGenerate_NoImageAttachment(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Text: itemtest.JSON(item.LetterA)})
	gen := New(mock, DefaultConfig())

	req := testRequest(t, item.LetterA)
	req.Image = item.Image{}
	_, err := gen.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, mock.Call(0).Messages[0].Images)
}

func TestGenerate_NotJSONAtAll(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Text: "not json at all"})
	gen := New(mock, DefaultConfig())

	_, err := gen.Generate(context.Background(), testRequest(t, item.LetterA))

	var me *item.MalformedResponseError
	require.True(t, errors.As(err, &me), "got %T", err)
	assert.Equal(t, "not json at all", me.Raw)
	assert.Equal(t, "generate", me.Op)
}

func TestGenerate_KeyOutsideOptions(t *testing.T) {
	raw := strings.Replace(itemtest.JSON(item.LetterA), `"clave":"A"`, `"clave":"E"`, 1)
	mock := llm.NewMockProvider(llm.MockResponse{Text: raw})
	gen := New(mock, DefaultConfig())

	_, err := gen.Generate(context.Background(), testRequest(t, item.LetterA))

	var se *item.SchemaViolationError
	require.True(t, errors.As(err, &se), "got %T", err)
	assert.Equal(t, raw, se.Raw)
}

func TestGenerate_ThreeOptions(t *testing.T) {
	c := itemtest.New(item.LetterA)
	delete(c.Options, item.LetterD)
	raw := mustJSON(t, c)

	mock := llm.NewMockProvider(llm.MockResponse{Text: raw})
	gen := New(mock, DefaultConfig())

	_, err := gen.Generate(context.Background(), testRequest(t, item.LetterA))
	assert.Equal(t, item.KindSchema, item.Kind(err))
}

func TestGenerate_ForcedKeyMismatch(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Text: itemtest.JSON(item.LetterB)})
	gen := New(mock, DefaultConfig())

	_, err := gen.Generate(context.Background(), testRequest(t, item.LetterD))

	var se *item.SchemaViolationError
	require.True(t, errors.As(err, &se), "got %T", err)
	assert.Equal(t, []string{"key is B but D was required"}, se.Reasons)
}

func TestGenerate_ForcedKeyCheckDisabled(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Text: itemtest.JSON(item.LetterB)})
	cfg := DefaultConfig()
	cfg.Validators = []Validator{&StructuralValidator{}}
	gen := New(mock, cfg)

	c, err := gen.Generate(context.Background(), testRequest(t, item.LetterD))
	require.NoError(t, err)
	assert.Equal(t, item.LetterB, c.Key)
}

func TestGenerate_ProviderError(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrRateLimit{Err: errors.New("quota")}})
	gen := New(mock, DefaultConfig())

	_, err := gen.Generate(context.Background(), testRequest(t, item.LetterA))

	var pe *item.ProviderError
	require.True(t, errors.As(err, &pe), "got %T", err)
	var rl *llm.ErrRateLimit
	assert.True(t, errors.As(err, &rl), "provider error should unwrap to the cause")
	assert.Equal(t, 1, mock.CallCount(), "no internal retry")
}

func TestGenerate_TruncatedIsMalformed(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrMaxTokensExceeded{Text: `{"pregunta_espejo": "Según`}})
	gen := New(mock, DefaultConfig())

	_, err := gen.Generate(context.Background(), testRequest(t, item.LetterA))

	var me *item.MalformedResponseError
	require.True(t, errors.As(err, &me), "got %T", err)
	assert.Equal(t, `{"pregunta_espejo": "Según`, me.Raw)
}

func mustJSON(t *testing.T, c *item.CandidateItem) string {
	t.Helper()
	b, err := json.Marshal(c)
	require.NoError(t, err)
	return string(b)
}
