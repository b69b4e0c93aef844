package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/brainstorm-platform/idea-engine/internal/llm"
	"github.com/brainstorm-platform/idea-engine/internal/models"
	"github.com/brainstorm-platform/idea-engine/internal/rag"
	"github.com/brainstorm-platform/idea-engine/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const warmupText = `1. 고객이 가장 자주 묻는 질문은 무엇인가요?
2. 최근에 본 인상 깊은 마케팅은 무엇이었나요?`

const ideaText = `Idea 1: 블로그 챌린지
Problem:
방문자가 줄고 있다.
Solution:
주간 글쓰기 챌린지를 연다.
Expected Effect:
참여와 공유가 늘어난다.
Technique:
SCAMPER
Analysis:
Strengths: 비용이 낮다
Weaknesses: 운영 부담
Opportunities: 시즌 이벤트 연계
Threats: 참여 저조

---

Idea 2: 쿠폰 스탬프 랠리
Problem:
재방문율이 낮다.
Solution:
SNS 인증과 연동한 스탬프 쿠폰을 만든다.
Expected Effect:
재방문이 늘어난다.
Technique:
Mind Mapping
Analysis:
Strengths: 구현이 간단하다
Weaknesses: 보상 비용
Opportunities: 제휴 확장
Threats: 피로감`

// scriptedGenerator routes calls by their token budget: warmup, idea, and
// analysis calls each use a distinct one.
type scriptedGenerator struct {
	warmup   string
	ideas    string
	analysis string
	err      error

	calls       int
	ideaPrompts []string
}

func (g *scriptedGenerator) Generate(_ context.Context, req llm.GenerateRequest) (string, error) {
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	switch req.MaxTokens {
	case 300:
		return g.warmup, nil
	case 2000:
		g.ideaPrompts = append(g.ideaPrompts, req.UserPrompt)
		return g.ideas, nil
	case 500:
		return g.analysis, nil
	}
	return "", errors.New("unexpected request")
}

type stubTrends struct{ keywords []string }

func (s *stubTrends) Aggregate(context.Context, string) []string { return s.keywords }

func newTestEngine(t *testing.T, gen *scriptedGenerator, trends KeywordSource) (*Engine, *rag.Store) {
	t.Helper()
	ephemeral, err := rag.NewStore(t.TempDir(), nil, nil)
	require.NoError(t, err)
	return New(store.NewMemoryStore(), gen, ephemeral, trends, nil, DefaultConfig(), nil), ephemeral
}

func runToAssociations(t *testing.T, eng *Engine) *models.Session {
	t.Helper()
	ctx := context.Background()

	session, err := eng.Create(ctx)
	require.NoError(t, err)

	_, err = eng.SetPurpose(ctx, session.ID, "마케팅 아이디어")
	require.NoError(t, err)

	_, err = eng.GenerateWarmup(ctx, session.ID)
	require.NoError(t, err)
	require.NoError(t, eng.ConfirmWarmup(ctx, session.ID))

	session, err = eng.SetAssociations(ctx, session.ID, []string{"블로그", "쿠폰", "SNS"})
	require.NoError(t, err)
	return session
}

func TestFullWorkflow(t *testing.T) {
	ctx := context.Background()
	gen := &scriptedGenerator{warmup: warmupText, ideas: ideaText}
	eng, _ := newTestEngine(t, gen, &stubTrends{keywords: []string{"숏폼", "팝업스토어"}})

	session := runToAssociations(t, eng)
	assert.Equal(t, models.StageAssociationsSet, session.Stage)
	assert.Len(t, session.WarmupQuestions, 2)

	ideas, err := eng.GenerateIdeas(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, ideas, 2)

	assert.Equal(t, "블로그 챌린지", ideas[0].Title)
	assert.Equal(t, "쿠폰 스탬프 랠리", ideas[1].Title)
	for _, idea := range ideas {
		require.NotNil(t, idea.Swot)
		assert.NotEmpty(t, idea.Swot.Strengths)
		assert.NotEmpty(t, idea.Swot.Weaknesses)
		assert.NotEmpty(t, idea.Swot.Opportunities)
		assert.NotEmpty(t, idea.Swot.Threats)
	}
	assert.Equal(t, "비용이 낮다", ideas[0].Swot.Strengths)

	// Inline analysis sections mean no dedicated analysis calls: one warmup
	// call plus one idea call.
	assert.Equal(t, 2, gen.calls)

	// Associations and trend keywords both reach the idea prompt.
	require.Len(t, gen.ideaPrompts, 1)
	assert.Contains(t, gen.ideaPrompts[0], "블로그")
	assert.Contains(t, gen.ideaPrompts[0], "숏폼")

	stored, err := eng.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StageIdeasGenerated, stored.Stage)
	assert.Len(t, stored.Ideas, 2)
}

func TestGenerateIdeasRunsAnalysisCallWhenMissing(t *testing.T) {
	ctx := context.Background()
	gen := &scriptedGenerator{
		warmup: warmupText,
		ideas: `Idea 1: 제휴 박스
Problem:
single stores cannot afford campaigns
Solution:
bundle samples from five nearby stores`,
		analysis: `Strengths: shared cost
Weaknesses: coordination overhead
Opportunities: local press
Threats: uneven effort`,
	}
	eng, _ := newTestEngine(t, gen, nil)
	session := runToAssociations(t, eng)

	ideas, err := eng.GenerateIdeas(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, ideas, 1)

	require.NotNil(t, ideas[0].Swot)
	assert.Equal(t, "shared cost", ideas[0].Swot.Strengths)
	assert.Equal(t, "uneven effort", ideas[0].Swot.Threats)
	assert.NotEmpty(t, ideas[0].Analysis)

	// warmup + ideas + one analysis call
	assert.Equal(t, 3, gen.calls)
}

func TestPreconditionsEnforced(t *testing.T) {
	ctx := context.Background()
	gen := &scriptedGenerator{warmup: warmupText, ideas: ideaText}
	eng, _ := newTestEngine(t, gen, nil)

	session, err := eng.Create(ctx)
	require.NoError(t, err)

	_, err = eng.GenerateWarmup(ctx, session.ID)
	assert.True(t, IsPrecondition(err), "warmup before purpose must fail")

	err = eng.ConfirmWarmup(ctx, session.ID)
	assert.True(t, IsPrecondition(err), "confirm before warmup must fail")

	_, err = eng.SetAssociations(ctx, session.ID, []string{"x"})
	assert.True(t, IsPrecondition(err), "associations before purpose must fail")

	_, err = eng.GenerateIdeas(ctx, session.ID)
	assert.True(t, IsPrecondition(err), "ideas before purpose must fail")

	_, err = eng.SetPurpose(ctx, session.ID, "목적")
	require.NoError(t, err)

	_, err = eng.GenerateIdeas(ctx, session.ID)
	assert.True(t, IsPrecondition(err), "ideas before associations must fail")
}

func TestValidation(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t, &scriptedGenerator{}, nil)

	session, err := eng.Create(ctx)
	require.NoError(t, err)

	_, err = eng.SetPurpose(ctx, session.ID, "   ")
	assert.True(t, IsValidation(err))

	_, err = eng.SetAssociations(ctx, session.ID, []string{"  ", ""})
	assert.True(t, IsValidation(err))
}

func TestUnknownSessionIsNotFound(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t, &scriptedGenerator{}, nil)

	_, err := eng.Get(ctx, "missing")
	assert.True(t, IsNotFound(err))

	_, err = eng.SetPurpose(ctx, "missing", "목적")
	assert.True(t, IsNotFound(err))
}

func TestDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	eng, ephemeral := newTestEngine(t, &scriptedGenerator{}, nil)

	session, err := eng.Create(ctx)
	require.NoError(t, err)

	require.NoError(t, eng.Delete(ctx, session.ID))
	require.NoError(t, eng.Delete(ctx, session.ID))
	require.NoError(t, eng.Delete(ctx, "never-existed"))

	_, err = eng.Get(ctx, session.ID)
	assert.True(t, IsNotFound(err))

	_, err = os.Stat(filepath.Join(ephemeral.Root(), session.ID))
	assert.True(t, os.IsNotExist(err))
}

func TestGenerationFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("generator error", func(t *testing.T) {
		gen := &scriptedGenerator{warmup: warmupText, ideas: ideaText}
		eng, _ := newTestEngine(t, gen, nil)
		session := runToAssociations(t, eng)

		gen.err = errors.New("backend down")
		_, err := eng.GenerateIdeas(ctx, session.ID)
		assert.True(t, IsGeneration(err))
	})

	t.Run("unparseable output", func(t *testing.T) {
		gen := &scriptedGenerator{warmup: warmupText, ideas: "nothing structured here"}
		eng, _ := newTestEngine(t, gen, nil)
		session := runToAssociations(t, eng)

		_, err := eng.GenerateIdeas(ctx, session.ID)
		assert.True(t, IsGeneration(err))
		assert.Contains(t, err.Error(), "no parseable ideas")

		// The session does not advance past a failed generation.
		stored, err := eng.Get(ctx, session.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StageAssociationsSet, stored.Stage)
	})
}

func TestCreateSweepsStaleDirectories(t *testing.T) {
	ctx := context.Background()
	eng, ephemeral := newTestEngine(t, &scriptedGenerator{}, nil)

	stale := filepath.Join(ephemeral.Root(), "abandoned")
	require.NoError(t, os.MkdirAll(stale, 0o755))
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	_, err := eng.Create(ctx)
	require.NoError(t, err)

	_, err = os.Stat(stale)
	assert.True(t, os.IsNotExist(err), "session creation must reclaim stale directories")
}

func TestSetPurposeNeverRegressesStage(t *testing.T) {
	ctx := context.Background()
	gen := &scriptedGenerator{warmup: warmupText, ideas: ideaText}
	eng, _ := newTestEngine(t, gen, nil)
	session := runToAssociations(t, eng)

	updated, err := eng.SetPurpose(ctx, session.ID, "새로운 목적")
	require.NoError(t, err)
	assert.Equal(t, models.StageAssociationsSet, updated.Stage)
	assert.Equal(t, "새로운 목적", updated.Purpose)
}
