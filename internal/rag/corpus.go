package rag

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/brainstorm-platform/idea-engine/internal/llm"
	"gopkg.in/yaml.v3"
)

// TechniqueDoc is one reference document from the brainstorming technique
// corpus (SCAMPER, Mind Mapping, Starbursting and friends).
type TechniqueDoc struct {
	Title   string `yaml:"title" json:"title"`
	Content string `yaml:"content" json:"content"`
}

// Corpus serves technique documents ranked by similarity to a query. Absence
// of documents or of the embedder degrades queries to an unranked prefix,
// never to an error that blocks idea generation.
type Corpus struct {
	docs     []TechniqueDoc
	embedder llm.Embedder
	logger   *slog.Logger

	mu      sync.Mutex
	vectors [][]float64
}

// LoadCorpus reads a YAML technique library from path.
func LoadCorpus(path string, embedder llm.Embedder, logger *slog.Logger) (*Corpus, error) {
	if logger == nil {
		logger = slog.Default()
	}

	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read technique corpus: %w", err)
	}

	var docs []TechniqueDoc
	if err := yaml.Unmarshal(payload, &docs); err != nil {
		return nil, fmt.Errorf("failed to parse technique corpus: %w", err)
	}

	logger.Info("technique corpus loaded", "path", path, "documents", len(docs))
	return &Corpus{docs: docs, embedder: embedder, logger: logger}, nil
}

// EmptyCorpus returns a corpus with no documents. Queries yield nothing.
func EmptyCorpus() *Corpus {
	return &Corpus{logger: slog.Default()}
}

// QueryTechniques returns up to n documents most similar to the query. The
// first call embeds the corpus lazily; embedding failure falls back to the
// first n documents.
func (c *Corpus) QueryTechniques(ctx context.Context, query string, n int) ([]TechniqueDoc, error) {
	if len(c.docs) == 0 || n <= 0 {
		return nil, nil
	}
	if n > len(c.docs) {
		n = len(c.docs)
	}
	if c.embedder == nil {
		return c.docs[:n], nil
	}

	reference, err := c.embedder.Embed(ctx, query)
	if err != nil {
		c.logger.Warn("failed to embed technique query, returning unranked documents", "error", err)
		return c.docs[:n], nil
	}

	vectors, err := c.docVectors(ctx)
	if err != nil {
		c.logger.Warn("failed to embed technique corpus, returning unranked documents", "error", err)
		return c.docs[:n], nil
	}

	ranked := rankBySimilarity(reference, vectors)
	out := make([]TechniqueDoc, 0, n)
	for _, i := range ranked[:n] {
		out = append(out, c.docs[i])
	}
	return out, nil
}

// docVectors embeds every corpus document once and caches the result.
func (c *Corpus) docVectors(ctx context.Context) ([][]float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.vectors != nil {
		return c.vectors, nil
	}

	vectors := make([][]float64, len(c.docs))
	for i, doc := range c.docs {
		vector, err := c.embedder.Embed(ctx, doc.Title+"\n"+doc.Content)
		if err != nil {
			return nil, err
		}
		vectors[i] = vector
	}
	c.vectors = vectors
	return vectors, nil
}
