// Package rag holds the session-scoped association store, the technique
// reference corpus, and the expiry sweeper for abandoned session artifacts.
package rag

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/brainstorm-platform/idea-engine/internal/llm"
)

const associationsFile = "associations.json"

// Store manages per-session ephemeral directories under a common root.
type Store struct {
	root     string
	embedder llm.Embedder
	logger   *slog.Logger
}

// NewStore creates a store rooted at dir. The embedder may be nil; similarity
// ranking then degrades to input order.
func NewStore(root string, embedder llm.Embedder, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create ephemeral root: %w", err)
	}
	return &Store{root: root, embedder: embedder, logger: logger}, nil
}

// Root returns the directory the store manages.
func (s *Store) Root() string { return s.root }

// Session returns the ephemeral view for a session id.
func (s *Store) Session(id string) *Ephemeral {
	return &Ephemeral{
		dir:      filepath.Join(s.root, id),
		embedder: s.embedder,
		logger:   s.logger,
	}
}

// Ephemeral is one session's association embeddings on disk. All data under
// its directory lives only for the session's lifetime.
type Ephemeral struct {
	dir      string
	embedder llm.Embedder
	logger   *slog.Logger
}

type association struct {
	Text   string    `json:"text"`
	Vector []float64 `json:"vector,omitempty"`
}

// Init creates the session directory so abandoned sessions leave a sweepable
// empty entry.
func (e *Ephemeral) Init() error {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	return nil
}

// AddAssociations embeds and persists the free-association items. Embedding
// failures for individual items are logged and stored without a vector; they
// rank last instead of failing the submission.
func (e *Ephemeral) AddAssociations(ctx context.Context, items []string) error {
	if err := e.Init(); err != nil {
		return err
	}

	entries := make([]association, 0, len(items))
	for _, item := range items {
		entry := association{Text: item}
		if e.embedder != nil {
			vector, err := e.embedder.Embed(ctx, item)
			if err != nil {
				e.logger.Warn("failed to embed association", "item", item, "error", err)
			} else {
				entry.Vector = vector
			}
		}
		entries = append(entries, entry)
	}

	payload, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode associations: %w", err)
	}
	if err := os.WriteFile(filepath.Join(e.dir, associationsFile), payload, 0o644); err != nil {
		return fmt.Errorf("failed to write associations: %w", err)
	}
	return nil
}

// KeywordsBySimilarity returns up to k stored associations ranked by
// similarity to the purpose. Without an embedder or stored vectors the first
// k associations are returned in input order.
func (e *Ephemeral) KeywordsBySimilarity(ctx context.Context, purpose string, k int) ([]string, error) {
	entries, err := e.load()
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 || k <= 0 {
		return nil, nil
	}

	texts := make([]string, len(entries))
	vectors := make([][]float64, len(entries))
	for i, entry := range entries {
		texts[i] = entry.Text
		vectors[i] = entry.Vector
	}

	reference := e.embedPurpose(ctx, purpose)
	if reference == nil {
		return truncate(texts, k), nil
	}

	ranked := rankBySimilarity(reference, vectors)
	out := make([]string, 0, k)
	for _, i := range ranked {
		out = append(out, texts[i])
		if len(out) == k {
			break
		}
	}
	return out, nil
}

// FilterTrendKeywords re-ranks keywords by similarity to the centroid of the
// stored associations and truncates to k. It never fails: empty input yields
// an empty result, and any degradation falls back to simple truncation.
func (e *Ephemeral) FilterTrendKeywords(ctx context.Context, keywords []string, k int) []string {
	if len(keywords) == 0 || k <= 0 {
		return nil
	}

	entries, err := e.load()
	if err != nil || e.embedder == nil {
		return truncate(keywords, k)
	}

	vectors := make([][]float64, 0, len(entries))
	for _, entry := range entries {
		if len(entry.Vector) > 0 {
			vectors = append(vectors, entry.Vector)
		}
	}
	reference := centroid(vectors)
	if reference == nil {
		return truncate(keywords, k)
	}

	candidates := make([][]float64, len(keywords))
	for i, kw := range keywords {
		vector, err := e.embedder.Embed(ctx, kw)
		if err != nil {
			e.logger.Warn("failed to embed trend keyword", "keyword", kw, "error", err)
			continue
		}
		candidates[i] = vector
	}

	ranked := rankBySimilarity(reference, candidates)
	out := make([]string, 0, k)
	for _, i := range ranked {
		out = append(out, keywords[i])
		if len(out) == k {
			break
		}
	}
	return out
}

// Delete removes the session directory. An already-missing directory is
// success: deletion races with the sweeper.
func (e *Ephemeral) Delete() error {
	if err := os.RemoveAll(e.dir); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete session data: %w", err)
	}
	return nil
}

func (e *Ephemeral) load() ([]association, error) {
	payload, err := os.ReadFile(filepath.Join(e.dir, associationsFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read associations: %w", err)
	}
	var entries []association
	if err := json.Unmarshal(payload, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode associations: %w", err)
	}
	return entries, nil
}

func (e *Ephemeral) embedPurpose(ctx context.Context, purpose string) []float64 {
	if e.embedder == nil {
		return nil
	}
	vector, err := e.embedder.Embed(ctx, purpose)
	if err != nil {
		e.logger.Warn("failed to embed purpose, skipping similarity ranking", "error", err)
		return nil
	}
	return vector
}

func truncate(items []string, k int) []string {
	if len(items) <= k {
		return items
	}
	return items[:k]
}
