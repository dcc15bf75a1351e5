package search

import (
	"context"
	"fmt"

	"commerce-assistant/internal/repository/contract"
	"commerce-assistant/internal/repository/specification"
	"commerce-assistant/pkg/embedding"
	"commerce-assistant/pkg/rag"
	"commerce-assistant/pkg/resilience"
)

// RepositoryTextIndex serves tier 1 from Postgres when no search engine is
// configured.
type RepositoryTextIndex struct {
	products contract.ProductRepository
}

var _ TextIndex = (*RepositoryTextIndex)(nil)

func NewRepositoryTextIndex(products contract.ProductRepository) *RepositoryTextIndex {
	return &RepositoryTextIndex{products: products}
}

func (i *RepositoryTextIndex) SearchNames(ctx context.Context, query string, limit int) ([]TextHit, error) {
	exact, err := i.products.FindAll(ctx, specification.ActiveProducts{}, specification.ByName{Name: Normalize(query)})
	if err != nil {
		return nil, err
	}
	if len(exact) > 0 {
		hits := make([]TextHit, len(exact))
		for j, p := range exact {
			hits[j] = TextHit{ID: p.Id.String(), Name: p.Name, Score: 1}
		}
		return hits, nil
	}

	var tokens []string
	for _, t := range Tokenize(query) {
		if len([]rune(t)) >= 3 {
			tokens = append(tokens, t)
		}
	}
	if len(tokens) == 0 {
		return nil, nil
	}

	products, err := i.products.FindAll(ctx,
		specification.ActiveProducts{},
		specification.NameMatchesAny{Tokens: tokens},
		specification.Pagination{Limit: limit},
	)
	if err != nil {
		return nil, err
	}
	hits := make([]TextHit, len(products))
	for j, p := range products {
		hits[j] = TextHit{ID: p.Id.String(), Name: p.Name}
	}
	return hits, nil
}

// EmbeddingVectorIndex embeds the query and searches product embeddings.
type EmbeddingVectorIndex struct {
	embedder embedding.EmbeddingProvider
	products contract.ProductRepository
	policy   resilience.Policy
}

var _ VectorIndex = (*EmbeddingVectorIndex)(nil)

func NewEmbeddingVectorIndex(embedder embedding.EmbeddingProvider, products contract.ProductRepository, policy resilience.Policy) *EmbeddingVectorIndex {
	if policy.Name == "" {
		policy.Name = "vector"
	}
	return &EmbeddingVectorIndex{embedder: embedder, products: products, policy: policy}
}

func (i *EmbeddingVectorIndex) SearchSimilar(ctx context.Context, query string, topK int, threshold float64) ([]*contract.ScoredProduct, error) {
	return resilience.Do(ctx, i.policy, nil, func(ctx context.Context) ([]*contract.ScoredProduct, error) {
		vec, err := i.embedder.Embed(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("%w: embed query: %v", rag.ErrExternalService, err)
		}
		return i.products.SearchSimilar(ctx, vec, topK, threshold)
	})
}
