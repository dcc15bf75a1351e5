// Package elastic serves catalog name lookups from Elasticsearch.
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"commerce-assistant/internal/entity"
	"commerce-assistant/pkg/rag/search"

	"github.com/elastic/go-elasticsearch/v8"
)

const DefaultIndex = "products"

const productMapping = `{
	"mappings": {
		"properties": {
			"id":       {"type": "keyword"},
			"name":     {"type": "text", "fields": {"raw": {"type": "keyword"}}},
			"category": {"type": "keyword"},
			"material": {"type": "text"},
			"status":   {"type": "keyword"}
		}
	}
}`

type Config struct {
	Addresses []string
	Username  string
	Password  string
	Index     string
}

// Index implements search.TextIndex over a product index.
type Index struct {
	client *elasticsearch.Client
	name   string
}

var _ search.TextIndex = (*Index)(nil)

func NewClient(cfg Config) (*elasticsearch.Client, error) {
	esCfg := elasticsearch.Config{
		Addresses: cfg.Addresses,
	}
	if cfg.Username != "" {
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}
	es, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}
	return es, nil
}

func NewIndex(client *elasticsearch.Client, name string) *Index {
	if name == "" {
		name = DefaultIndex
	}
	return &Index{client: client, name: name}
}

// EnsureIndex creates the index with its mapping when it does not exist.
func (i *Index) EnsureIndex(ctx context.Context) error {
	res, err := i.client.Indices.Exists([]string{i.name}, i.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = i.client.Indices.Create(i.name,
		i.client.Indices.Create.WithContext(ctx),
		i.client.Indices.Create.WithBody(strings.NewReader(productMapping)),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("create index: %s", res.String())
	}
	return nil
}

type productDoc struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Material string `json:"material"`
	Status   string `json:"status"`
}

// IndexProduct upserts one product document keyed by its id.
func (i *Index) IndexProduct(ctx context.Context, p *entity.Product) error {
	body, err := json.Marshal(productDoc{
		ID:       p.Id.String(),
		Name:     p.Name,
		Category: p.Category,
		Material: p.Material,
		Status:   string(p.Status),
	})
	if err != nil {
		return err
	}

	res, err := i.client.Index(i.name, bytes.NewReader(body),
		i.client.Index.WithContext(ctx),
		i.client.Index.WithDocumentID(p.Id.String()),
	)
	if err != nil {
		return fmt.Errorf("index product: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index product %s: %s", p.Id, res.String())
	}
	return nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Score  float64    `json:"_score"`
			Source productDoc `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (i *Index) SearchNames(ctx context.Context, query string, limit int) ([]search.TextHit, error) {
	if limit <= 0 {
		limit = 10
	}
	body, err := json.Marshal(map[string]interface{}{
		"size": limit,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": map[string]interface{}{
					"match": map[string]interface{}{
						"name": map[string]interface{}{"query": query, "fuzziness": "AUTO"},
					},
				},
				"filter": map[string]interface{}{
					"term": map[string]interface{}{"status": string(entity.ProductStatusActive)},
				},
			},
		},
	})
	if err != nil {
		return nil, err
	}

	res, err := i.client.Search(
		i.client.Search.WithContext(ctx),
		i.client.Search.WithIndex(i.name),
		i.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("search names: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("search names: %s", res.String())
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	hits := make([]search.TextHit, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		hits = append(hits, search.TextHit{ID: h.Source.ID, Name: h.Source.Name, Score: h.Score})
	}
	return hits, nil
}
