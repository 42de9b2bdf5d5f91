package index

import (
	"context"
	"log/slog"

	"github.com/coder/hnsw"
)

// Guard flags text whose embedding lies within minDistance (cosine) of
// anything added before. A Guard covers one source phrase and is not
// safe for concurrent use.
type Guard struct {
	embedder    TextEmbedder
	minDistance float32
	graph       *hnsw.Graph[int]
	next        int
}

// NewGuard creates an empty guard.
func NewGuard(embedder TextEmbedder, minDistance float32) *Guard {
	g := hnsw.NewGraph[int]()
	g.Distance = hnsw.CosineDistance
	return &Guard{
		embedder:    embedder,
		minDistance: minDistance,
		graph:       g,
	}
}

// Near reports whether text is a near duplicate of an added entry.
// Embedding failures are logged and treated as not near.
func (g *Guard) Near(ctx context.Context, text string) bool {
	if g.graph.Len() == 0 {
		return false
	}
	vec, err := g.embedder.Embed(ctx, text)
	if err != nil {
		slog.Warn("embedding failed, skipping near-duplicate check", "error", err)
		return false
	}
	neighbors := g.graph.Search(vec, 1)
	if len(neighbors) == 0 {
		return false
	}
	return hnsw.CosineDistance(vec, neighbors[0].Value) < g.minDistance
}

// Add records text in the guard.
func (g *Guard) Add(ctx context.Context, text string) {
	vec, err := g.embedder.Embed(ctx, text)
	if err != nil {
		slog.Warn("embedding failed, entry not guarded", "error", err)
		return
	}
	g.graph.Add(hnsw.MakeNode(g.next, vec))
	g.next++
}

// Len returns the number of guarded entries.
func (g *Guard) Len() int { return g.graph.Len() }

// Close drops the graph.
func (g *Guard) Close() {
	g.graph = hnsw.NewGraph[int]()
	g.next = 0
}
