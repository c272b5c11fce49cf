// Package registry owns the fixed topic set and the per-topic search
// indices built from each topic's registered sources.
package registry

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/HarshdeepGupta/diabe-ai-buddy/internal/chunker"
	"github.com/HarshdeepGupta/diabe-ai-buddy/internal/index"
	"github.com/HarshdeepGupta/diabe-ai-buddy/internal/loader"
)

// DefaultTopic is the fallback for unclassified or unrecognized topics.
const DefaultTopic = "general"

// Topics is the closed topic set. It never changes at runtime.
var Topics = []string{"glucose", "medication", "meal", "wellness", DefaultTopic}

// IsValidTopic reports whether name is one of the five topics.
func IsValidTopic(name string) bool {
	for _, t := range Topics {
		if t == name {
			return true
		}
	}
	return false
}

// SourceLoader loads all documents for one source.
type SourceLoader interface {
	Load(ctx context.Context, src loader.Source) ([]loader.Document, error)
}

// Registry maps topic names to their built indices. Builds absorb every
// per-topic failure into that topic's empty index, so a registry is always
// fully queryable after BuildAll. Indices are immutable once built;
// concurrent Get and Search need no locking beyond the map swap.
type Registry struct {
	loader   SourceLoader
	chunker  *chunker.Chunker
	embedder index.Embedder
	sources  map[string][]loader.Source

	mu      sync.RWMutex
	indices map[string]*index.Index
	once    sync.Once
}

// New creates a Registry over the given sources. Topics missing from the
// sources map simply build empty indices.
func New(l SourceLoader, c *chunker.Chunker, e index.Embedder, sources map[string][]loader.Source) *Registry {
	return &Registry{
		loader:   l,
		chunker:  c,
		embedder: e,
		sources:  sources,
	}
}

// BuildAll builds an index for every topic, topics in parallel. It never
// fails: a topic whose sources cannot be loaded, chunked, or embedded gets
// its own empty index and the build moves on. Calling BuildAll again
// rebuilds everything from scratch. An explicit BuildAll counts as the
// initial build: Ensure will not build again after it.
func (r *Registry) BuildAll(ctx context.Context) {
	r.once.Do(func() {})
	r.buildAll(ctx)
}

func (r *Registry) buildAll(ctx context.Context) {
	built := make(map[string]*index.Index, len(Topics))
	var mu sync.Mutex

	g, gCtx := errgroup.WithContext(ctx)
	for _, topic := range Topics {
		g.Go(func() error {
			ix := r.buildTopic(gCtx, topic)
			mu.Lock()
			built[topic] = ix
			mu.Unlock()
			return nil
		})
	}
	// Builds absorb their own failures; Wait only orders the map swap.
	g.Wait()

	r.mu.Lock()
	old := r.indices
	r.indices = built
	r.mu.Unlock()

	for _, ix := range old {
		ix.Close()
	}
}

// Ensure builds all indices at most once, whether the first build came
// from Ensure or from an explicit BuildAll. Safe for concurrent callers;
// later calls return immediately once the first build has completed.
func (r *Registry) Ensure(ctx context.Context) {
	r.once.Do(func() { r.buildAll(ctx) })
}

// buildTopic loads, chunks, and indexes one topic. A failing source is
// logged and skipped; zero surviving documents or chunks produce an empty
// index, as does a failed embed or store build.
func (r *Registry) buildTopic(ctx context.Context, topic string) *index.Index {
	var docs []loader.Document
	for _, src := range r.sources[topic] {
		loaded, err := r.loader.Load(ctx, src)
		if err != nil {
			slog.Warn("failed to load source, skipping", "topic", topic, "source", src.Locator, "error", err)
			continue
		}
		if len(loaded) == 0 {
			slog.Warn("no documents loaded from source", "topic", topic, "source", src.Locator)
			continue
		}
		docs = append(docs, loaded...)
		slog.Info("loaded source", "topic", topic, "source", src.Locator, "documents", len(loaded))
	}

	if len(docs) == 0 {
		slog.Warn("no documents available for topic, using empty index", "topic", topic)
		return index.Empty()
	}

	chunks := r.chunker.Split(docs)
	if len(chunks) == 0 {
		slog.Warn("no chunks produced for topic, using empty index", "topic", topic)
		return index.Empty()
	}

	ix, err := index.Build(ctx, r.embedder, chunks)
	if err != nil {
		slog.Error("failed to build index, using empty index", "topic", topic, "error", err)
		return index.Empty()
	}

	slog.Info("built topic index", "topic", topic, "chunks", ix.Size())
	return ix
}

// Get returns the index for a topic, falling back to the general index
// for unknown names. Before any build it returns an empty index.
func (r *Registry) Get(topic string) *index.Index {
	if !IsValidTopic(topic) {
		topic = DefaultTopic
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if ix, ok := r.indices[topic]; ok {
		return ix
	}
	return index.Empty()
}
