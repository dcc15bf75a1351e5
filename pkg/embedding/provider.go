// Package embedding turns text into unit-length vectors for the pgvector tier.
package embedding

import "context"

type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// BatchProvider embeds many documents in one round trip. Used when indexing
// the catalog.
type BatchProvider interface {
	EmbeddingProvider
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}
