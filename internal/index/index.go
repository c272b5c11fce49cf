// Package index implements the per-topic semantic search index: chunk
// texts embedded at build time and queried by cosine similarity.
package index

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/HarshdeepGupta/diabe-ai-buddy/internal/chunker"
)

// embedConcurrency bounds parallel embedding calls during a build.
const embedConcurrency = 4

// Embedder turns text into a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Passage is a retrieved chunk with its similarity score.
type Passage struct {
	Text          string
	SourceLocator string
	Score         float32
}

// Index is an immutable-after-build semantic index over a topic's chunks.
// An Index built from zero chunks is valid: searches return no passages
// and make no embedding calls. The zero value behaves as an empty index.
type Index struct {
	embedder Embedder
	store    *store
	size     int
}

// Empty returns a distinct empty Index. Each call yields a new instance so
// empty indices for different topics never alias.
func Empty() *Index {
	return &Index{}
}

// Build embeds every chunk's text and stores the (vector, text, source)
// triples. Building with no chunks succeeds and yields an empty index.
func Build(ctx context.Context, embedder Embedder, chunks []chunker.Chunk) (*Index, error) {
	if len(chunks) == 0 {
		return &Index{embedder: embedder}, nil
	}

	vectors := make([][]float32, len(chunks))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(embedConcurrency)
	for i, ch := range chunks {
		g.Go(func() error {
			vec, err := embedder.Embed(gCtx, ch.Text)
			if err != nil {
				return fmt.Errorf("embedding chunk %d: %w", i, err)
			}
			vectors[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	st, err := newStore()
	if err != nil {
		return nil, err
	}

	records := make([]record, len(chunks))
	for i, ch := range chunks {
		records[i] = record{Text: ch.Text, SourceLocator: ch.SourceLocator, Embedding: vectors[i]}
	}
	if err := st.insert(records); err != nil {
		st.close()
		return nil, err
	}

	return &Index{embedder: embedder, store: st, size: len(chunks)}, nil
}

// Size reports how many chunks the index holds.
func (ix *Index) Size() int {
	return ix.size
}

// Search embeds the query and returns at most k passages ordered by cosine
// similarity, ties broken by insertion order. An empty index returns no
// passages for any query without touching the embedding backend.
func (ix *Index) Search(ctx context.Context, query string, k int) ([]Passage, error) {
	if ix.size == 0 || ix.store == nil || k <= 0 {
		return nil, nil
	}

	vec, err := ix.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	scored, err := ix.store.search(vec, k)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	passages := make([]Passage, len(scored))
	for i, s := range scored {
		passages[i] = Passage{Text: s.Text, SourceLocator: s.SourceLocator, Score: s.Score}
	}
	return passages, nil
}

// Close releases the index's in-memory table. Safe on empty indices.
func (ix *Index) Close() error {
	if ix.store == nil {
		return nil
	}
	return ix.store.close()
}
