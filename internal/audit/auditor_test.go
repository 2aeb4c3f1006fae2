package audit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/mirrorgen/internal/item"
	"github.com/abhisek/mirrorgen/internal/item/itemtest"
	"github.com/abhisek/mirrorgen/internal/llm"
	"github.com/abhisek/mirrorgen/internal/taxonomy"
)

func testSelection(t *testing.T) taxonomy.Selection {
	t.Helper()
	sel, err := taxonomy.FromPairs(
		taxonomy.Grade, "7",
		taxonomy.Area, "Matemáticas",
		taxonomy.StructuralComponent, "Numérico",
		taxonomy.ThematicComponent, "Fracciones",
		taxonomy.Competency, "Resolución",
		taxonomy.Claim, "Resuelve problemas con fracciones",
		taxonomy.Evidence, "Suma fracciones heterogéneas",
		taxonomy.ThematicReference, "Fracciones",
	)
	require.NoError(t, err)
	return sel
}

// verdictJSON builds an audit response where every criterion passes except
// those listed in failing.
func verdictJSON(t *testing.T, decision Decision, feedback string, failing ...Criterion) string {
	t.Helper()
	failed := make(map[Criterion]bool)
	for _, c := range failing {
		failed[c] = true
	}
	v := Verdict{Decision: decision, Feedback: feedback}
	for _, r := range Rubric {
		cr := CriterionResult{Criterion: r.Criterion, Passed: !failed[r.Criterion]}
		if failed[r.Criterion] {
			cr.Comment = "falla " + string(r.Criterion)
		}
		v.Criteria = append(v.Criteria, cr)
	}
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestAudit_Approved(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Text: verdictJSON(t, Approved, "")})
	a := New(mock, DefaultConfig())

	v, err := a.Audit(context.Background(), itemtest.New(item.LetterB), testSelection(t))
	require.NoError(t, err)
	assert.True(t, v.Approved())
	assert.Len(t, v.Criteria, len(Rubric))
	assert.Empty(t, v.Failed())

	req := mock.Call(0)
	assert.True(t, req.JSON)
	require.Len(t, req.Messages, 1)
	assert.Empty(t, req.Messages[0].Images, "audit must be text-only")
	assert.Contains(t, req.Messages[0].Content, `"clave": "B"`)
	assert.Contains(t, req.Messages[0].Content, "Suma fracciones heterogéneas")
}

func TestAudit_RejectedKeepsFeedback(t *testing.T) {
	text := "Ojo:\n" + verdictJSON(t, Rejected, "  El distractor C también es correcto.  ", KeyConsistency)
	mock := llm.NewMockProvider(llm.MockResponse{Text: text})
	a := New(mock, DefaultConfig())

	v, err := a.Audit(context.Background(), itemtest.New(item.LetterA), testSelection(t))
	require.NoError(t, err)
	assert.False(t, v.Approved())
	assert.Equal(t, "El distractor C también es correcto.", v.Feedback)
	require.Len(t, v.Failed(), 1)
	assert.Equal(t, KeyConsistency, v.Failed()[0].Criterion)
}

func TestAudit_RejectedWithoutFeedbackSynthesizes(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Text: verdictJSON(t, Rejected, "", StemStyle, ChartCoherence)})
	a := New(mock, DefaultConfig())

	v, err := a.Audit(context.Background(), itemtest.New(item.LetterA), testSelection(t))
	require.NoError(t, err)
	assert.False(t, v.Approved())
	assert.Contains(t, v.Feedback, "Estilo del enunciado: falla estilo_enunciado")
	assert.Contains(t, v.Feedback, "Coherencia de los gráficos")
}

func TestAudit_RejectedNothingFailedStillHasFeedback(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Text: verdictJSON(t, Rejected, "")})
	a := New(mock, DefaultConfig())

	v, err := a.Audit(context.Background(), itemtest.New(item.LetterA), testSelection(t))
	require.NoError(t, err)
	assert.NotEmpty(t, v.Feedback)
}

func TestAudit_OverallDecisionWins(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Text: verdictJSON(t, Approved, "", StemStyle)})
	a := New(mock, DefaultConfig())

	v, err := a.Audit(context.Background(), itemtest.New(item.LetterA), testSelection(t))
	require.NoError(t, err)
	assert.True(t, v.Approved())
	assert.Len(t, v.Failed(), 1)
}

func TestAudit_Malformed(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Text: "El ítem está bien."})
	a := New(mock, DefaultConfig())

	_, err := a.Audit(context.Background(), itemtest.New(item.LetterA), testSelection(t))
	var me *item.MalformedResponseError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "audit", me.Op)
	assert.Equal(t, "El ítem está bien.", me.Raw)
}

func TestAudit_UnknownDecision(t *testing.T) {
	text := `{"criterios": [], "veredicto": "quizas"}`
	mock := llm.NewMockProvider(llm.MockResponse{Text: text})
	a := New(mock, DefaultConfig())

	_, err := a.Audit(context.Background(), itemtest.New(item.LetterA), testSelection(t))
	assert.Equal(t, item.KindSchema, item.Kind(err))
}

func TestAudit_MissingCriterion(t *testing.T) {
	var v Verdict
	require.NoError(t, json.Unmarshal([]byte(verdictJSON(t, Approved, "")), &v))
	// Drop the last criterion and repeat the first.
	v.Criteria = append(v.Criteria[:4:4], v.Criteria[0])
	b, err := json.Marshal(v)
	require.NoError(t, err)

	mock := llm.NewMockProvider(llm.MockResponse{Text: string(b)})
	a := New(mock, DefaultConfig())

	_, err = a.Audit(context.Background(), itemtest.New(item.LetterA), testSelection(t))
	var se *item.SchemaViolationError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, se.Reasons, "criterion coherencia_graficos is missing")
	assert.Contains(t, se.Reasons, "criterion alineacion_taxonomica reported 2 times")
}

func TestAudit_ProviderError(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrRateLimit{Err: errors.New("slow down")}})
	a := New(mock, DefaultConfig())

	_, err := a.Audit(context.Background(), itemtest.New(item.LetterA), testSelection(t))
	var pe *item.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "audit", pe.Op)
	var rl *llm.ErrRateLimit
	assert.ErrorAs(t, err, &rl)
}

func TestAudit_Truncated(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrMaxTokensExceeded{Text: `{"criterios": [`}})
	a := New(mock, DefaultConfig())

	_, err := a.Audit(context.Background(), itemtest.New(item.LetterA), testSelection(t))
	assert.Equal(t, item.KindMalformed, item.Kind(err))
	raw, ok := item.RawResponse(err)
	assert.True(t, ok)
	assert.Equal(t, `{"criterios": [`, raw)
}

func TestBuildPrompt_ListsRubric(t *testing.T) {
	prompt, err := BuildPrompt(itemtest.New(item.LetterD), testSelection(t))
	require.NoError(t, err)
	for _, r := range Rubric {
		assert.Contains(t, prompt, string(r.Criterion))
		assert.Contains(t, prompt, r.Label)
	}
	assert.Contains(t, prompt, "1. ")
	assert.Contains(t, prompt, "```json")
}
