// Package engine owns the ordered progression of an ideation session and the
// pipeline that turns generated text into structured idea records.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/brainstorm-platform/idea-engine/internal/llm"
	"github.com/brainstorm-platform/idea-engine/internal/models"
	"github.com/brainstorm-platform/idea-engine/internal/parse"
	"github.com/brainstorm-platform/idea-engine/internal/rag"
	"github.com/brainstorm-platform/idea-engine/internal/store"
)

// KeywordSource fetches best-effort trend keywords for a query. It never
// fails; degraded sources yield an empty result.
type KeywordSource interface {
	Aggregate(ctx context.Context, query string) []string
}

// TechniqueSource serves reference technique documents for a query.
type TechniqueSource interface {
	QueryTechniques(ctx context.Context, query string, n int) ([]rag.TechniqueDoc, error)
}

// Config bounds the generation pipeline.
type Config struct {
	// TopKKeywords is how many associations feed the idea prompt.
	TopKKeywords int
	// TopKTrends caps the filtered trend keywords.
	TopKTrends int
	// TopKTechniques is how many reference documents feed the idea prompt.
	TopKTechniques int
	// SweepAge is the staleness threshold for the expiry sweep run on
	// session creation.
	SweepAge time.Duration
}

// DefaultConfig mirrors the limits of the interactive flow: 5 associations,
// 10 trend keywords, 3 techniques, 5 minute sweep age.
func DefaultConfig() Config {
	return Config{
		TopKKeywords:   5,
		TopKTrends:     10,
		TopKTechniques: 3,
		SweepAge:       5 * time.Minute,
	}
}

// Engine is the session state machine. Construct one per process and share
// it; calls for different session ids are independent, while calls for the
// same id must be serialized by the caller.
type Engine struct {
	store     store.SessionStore
	generator llm.Generator
	ephemeral *rag.Store
	trends    KeywordSource
	corpus    TechniqueSource
	cfg       Config
	logger    *slog.Logger
}

// New wires the engine's collaborators. trends and corpus may be nil; the
// pipeline then runs without trend or technique context.
func New(sessions store.SessionStore, generator llm.Generator, ephemeral *rag.Store, trends KeywordSource, corpus TechniqueSource, cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:     sessions,
		generator: generator,
		ephemeral: ephemeral,
		trends:    trends,
		corpus:    corpus,
		cfg:       cfg,
		logger:    logger,
	}
}

// Create starts a new session. The expiry sweep runs first so abandoned
// session artifacts are reclaimed before new ones are allocated.
func (e *Engine) Create(ctx context.Context) (*models.Session, error) {
	if removed, err := e.ephemeral.Sweep(e.cfg.SweepAge); err != nil {
		e.logger.Warn("expiry sweep failed", "error", err)
	} else if removed > 0 {
		e.logger.Info("expiry sweep removed stale sessions", "count", removed)
	}

	session := models.NewSession()
	if err := e.ephemeral.Session(session.ID).Init(); err != nil {
		return nil, fmt.Errorf("failed to prepare session %s: %w", session.ID, err)
	}
	if err := e.store.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	e.logger.Info("session created", "session_id", session.ID)
	return session, nil
}

// Get returns the session for an id.
func (e *Engine) Get(ctx context.Context, id string) (*models.Session, error) {
	return e.get(ctx, id)
}

// SetPurpose stores the ideation purpose. Re-setting the purpose never
// regresses a later stage.
func (e *Engine) SetPurpose(ctx context.Context, id, purpose string) (*models.Session, error) {
	purpose = strings.TrimSpace(purpose)
	if purpose == "" {
		return nil, &ValidationError{Reason: "purpose must not be empty"}
	}

	session, err := e.get(ctx, id)
	if err != nil {
		return nil, err
	}

	session.Purpose = purpose
	session.Stage = session.Stage.Advance(models.StagePurposeSet)
	if err := e.store.Update(ctx, session); err != nil {
		return nil, e.storeErr(id, err)
	}

	e.logger.Info("purpose set", "session_id", id, "stage", session.Stage)
	return session, nil
}

// GenerateWarmup produces the warm-up question list for the stored purpose.
func (e *Engine) GenerateWarmup(ctx context.Context, id string) ([]string, error) {
	session, err := e.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !session.Stage.AtLeast(models.StagePurposeSet) || session.Purpose == "" {
		return nil, &PreconditionError{ID: id, Stage: session.Stage, Missing: "purpose"}
	}

	text, err := e.generator.Generate(ctx, llm.GenerateRequest{
		SystemPrompt: warmupSystemPrompt,
		UserPrompt:   warmupPrompt(session.Purpose),
		Temperature:  0.8,
		MaxTokens:    300,
	})
	if err != nil {
		return nil, &GenerationError{Reason: "warmup generation failed", Err: err}
	}

	questions := parse.Questions(text)
	if len(questions) == 0 {
		return nil, &GenerationError{Reason: "no parseable warmup questions"}
	}

	session.WarmupQuestions = questions
	session.Stage = session.Stage.Advance(models.StageWarmupReady)
	if err := e.store.Update(ctx, session); err != nil {
		return nil, e.storeErr(id, err)
	}

	e.logger.Info("warmup generated", "session_id", id, "questions", len(questions))
	return questions, nil
}

// ConfirmWarmup acknowledges the warm-up questions. It is a pure transition.
func (e *Engine) ConfirmWarmup(ctx context.Context, id string) error {
	session, err := e.get(ctx, id)
	if err != nil {
		return err
	}
	if !session.Stage.AtLeast(models.StageWarmupReady) {
		return &PreconditionError{ID: id, Stage: session.Stage, Missing: "warmup questions"}
	}

	session.Stage = session.Stage.Advance(models.StageWarmupConfirmed)
	if err := e.store.Update(ctx, session); err != nil {
		return e.storeErr(id, err)
	}
	return nil
}

// SetAssociations stores the free-association items as given. Cardinality
// bounds are the Timed Collector's concern when one is in front of this
// call; non-interactive callers may submit any non-empty list once a purpose
// exists.
func (e *Engine) SetAssociations(ctx context.Context, id string, items []string) (*models.Session, error) {
	var cleaned []string
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			cleaned = append(cleaned, item)
		}
	}
	if len(cleaned) == 0 {
		return nil, &ValidationError{Reason: "associations must not be empty"}
	}

	session, err := e.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !session.Stage.AtLeast(models.StagePurposeSet) {
		return nil, &PreconditionError{ID: id, Stage: session.Stage, Missing: "purpose"}
	}

	if err := e.ephemeral.Session(id).AddAssociations(ctx, cleaned); err != nil {
		return nil, fmt.Errorf("session %s: %w", id, err)
	}

	session.Associations = cleaned
	session.Stage = session.Stage.Advance(models.StageAssociationsSet)
	if err := e.store.Update(ctx, session); err != nil {
		return nil, e.storeErr(id, err)
	}

	e.logger.Info("associations set", "session_id", id, "count", len(cleaned))
	return session, nil
}

// GenerateIdeas runs the full generation pipeline: similarity-ranked
// associations, trend keyword fan-out, technique retrieval, generation,
// parsing, and per-idea analysis enrichment.
func (e *Engine) GenerateIdeas(ctx context.Context, id string) ([]models.Idea, error) {
	session, err := e.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Purpose == "" {
		return nil, &PreconditionError{ID: id, Stage: session.Stage, Missing: "purpose"}
	}
	if len(session.Associations) == 0 {
		return nil, &PreconditionError{ID: id, Stage: session.Stage, Missing: "associations"}
	}

	ephemeral := e.ephemeral.Session(id)

	keywords, err := ephemeral.KeywordsBySimilarity(ctx, session.Purpose, e.cfg.TopKKeywords)
	if err != nil || len(keywords) == 0 {
		if err != nil {
			e.logger.Warn("keyword ranking failed, using raw associations", "session_id", id, "error", err)
		}
		keywords = session.Associations
		if len(keywords) > e.cfg.TopKKeywords {
			keywords = keywords[:e.cfg.TopKKeywords]
		}
	}

	var trendKeywords []string
	if e.trends != nil {
		trendKeywords = e.trends.Aggregate(ctx, session.Purpose)
		if len(trendKeywords) > 0 {
			trendKeywords = ephemeral.FilterTrendKeywords(ctx, trendKeywords, e.cfg.TopKTrends)
		}
	}

	var techniques []rag.TechniqueDoc
	if e.corpus != nil {
		techniques, err = e.corpus.QueryTechniques(ctx, session.Purpose, e.cfg.TopKTechniques)
		if err != nil {
			e.logger.Warn("technique retrieval failed, continuing without", "session_id", id, "error", err)
			techniques = nil
		}
	}

	text, err := e.generator.Generate(ctx, llm.GenerateRequest{
		SystemPrompt: ideaSystemPrompt,
		UserPrompt:   ideaPrompt(session.Purpose, keywords, trendKeywords, techniques),
		Temperature:  0.7,
		MaxTokens:    2000,
	})
	if err != nil {
		return nil, &GenerationError{Reason: "idea generation failed", Err: err}
	}

	ideas := parse.Ideas(text)
	if len(ideas) == 0 {
		return nil, &GenerationError{Reason: "no parseable ideas"}
	}

	for i := range ideas {
		e.attachAnalysis(ctx, id, &ideas[i])
	}

	session.Ideas = ideas
	session.Stage = session.Stage.Advance(models.StageIdeasGenerated)
	if err := e.store.Update(ctx, session); err != nil {
		return nil, e.storeErr(id, err)
	}

	e.logger.Info("ideas generated", "session_id", id, "count", len(ideas))
	return ideas, nil
}

// attachAnalysis fills the idea's structured analysis record. An analysis
// section parsed out of the generated text is used directly; otherwise a
// dedicated analysis call runs. Failures leave a sentinel-filled record and
// never drop the idea.
func (e *Engine) attachAnalysis(ctx context.Context, id string, idea *models.Idea) {
	if idea.Analysis != "" {
		swot := parse.Swot(idea.Analysis)
		idea.Swot = &swot
		return
	}

	text, err := e.generator.Generate(ctx, llm.GenerateRequest{
		SystemPrompt: swotSystemPrompt,
		UserPrompt:   swotPrompt(idea.Title, idea.Description),
		Temperature:  0.6,
		MaxTokens:    500,
	})
	if err != nil {
		e.logger.Warn("analysis generation failed, keeping sentinel record",
			"session_id", id, "idea", idea.Title, "error", err)
		idea.Swot = &models.SwotRecord{
			Strengths:     parse.NoData,
			Weaknesses:    parse.NoData,
			Opportunities: parse.NoData,
			Threats:       parse.NoData,
		}
		return
	}

	swot := parse.Swot(text)
	idea.Swot = &swot
	idea.Analysis = parse.SectionAnalysis.Label() + "\n" + strings.TrimSpace(text)
}

// Delete removes all stored session data and ephemeral artifacts. Deleting
// an unknown or already-deleted session is a no-op.
func (e *Engine) Delete(ctx context.Context, id string) error {
	if err := e.ephemeral.Session(id).Delete(); err != nil {
		e.logger.Warn("failed to delete ephemeral data", "session_id", id, "error", err)
	}
	if err := e.store.Delete(ctx, id); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}

	e.logger.Info("session deleted", "session_id", id)
	return nil
}

func (e *Engine) get(ctx context.Context, id string) (*models.Session, error) {
	session, err := e.store.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, &NotFoundError{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", id, err)
	}
	// A row in a deleted stage is invisible to callers.
	if session.Stage == models.StageDeleted {
		return nil, &NotFoundError{ID: id}
	}
	return session, nil
}

func (e *Engine) storeErr(id string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return &NotFoundError{ID: id}
	}
	return fmt.Errorf("failed to persist session %s: %w", id, err)
}
