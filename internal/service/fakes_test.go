package service

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"

	"commerce-assistant/internal/entity"
	"commerce-assistant/internal/repository/contract"
	"commerce-assistant/internal/repository/specification"
	"commerce-assistant/internal/repository/unitofwork"
	"commerce-assistant/pkg/llm"
	"commerce-assistant/pkg/rag/intent"
	"commerce-assistant/pkg/rag/search"
	"commerce-assistant/pkg/store"

	"github.com/google/uuid"
)

// fakeUoW serves in-memory repositories. Unimplemented repository methods
// panic through the embedded nil interfaces.
type fakeUoW struct {
	products *fakeProductRepo
	chatLogs *fakeChatLogRepo
	users    *fakeUserRepo
}

func newFakeUoW() *fakeUoW {
	return &fakeUoW{
		products: &fakeProductRepo{byID: map[uuid.UUID]*entity.Product{}},
		chatLogs: &fakeChatLogRepo{},
		users:    &fakeUserRepo{tags: map[uuid.UUID][]string{}},
	}
}

func (f *fakeUoW) NewUnitOfWork(context.Context) unitofwork.UnitOfWork { return f }
func (f *fakeUoW) Begin(context.Context) error                         { return nil }
func (f *fakeUoW) BeginReadOnly(context.Context) error                 { return nil }
func (f *fakeUoW) Commit() error                                        { return nil }
func (f *fakeUoW) Rollback() error                                      { return nil }

func (f *fakeUoW) ProductRepository() contract.ProductRepository { return f.products }
func (f *fakeUoW) OrderRepository() contract.OrderRepository     { return nil }
func (f *fakeUoW) UserRepository() contract.UserRepository       { return f.users }
func (f *fakeUoW) ChatLogRepository() contract.ChatLogRepository { return f.chatLogs }

type fakeProductRepo struct {
	contract.ProductRepository
	byID map[uuid.UUID]*entity.Product
}

func (r *fakeProductRepo) add(p *entity.Product) {
	r.byID[p.Id] = p
}

func (r *fakeProductRepo) FindOne(_ context.Context, specs ...specification.Specification) (*entity.Product, error) {
	for _, s := range specs {
		if byID, ok := s.(specification.ByID); ok {
			return r.byID[byID.ID], nil
		}
	}
	return nil, nil
}

type fakeChatLogRepo struct {
	mu   sync.Mutex
	logs []*entity.ChatLog
}

func (r *fakeChatLogRepo) CreateBulk(_ context.Context, logs []*entity.ChatLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range logs {
		if l.Id == uuid.Nil {
			l.Id = uuid.New()
		}
		r.logs = append(r.logs, l)
	}
	return nil
}

func (r *fakeChatLogRepo) FindAll(_ context.Context, specs ...specification.Specification) ([]*entity.ChatLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	owner := ""
	limit := 0
	for _, s := range specs {
		switch v := s.(type) {
		case specification.ChatLogOwnedBy:
			owner = v.UserID
		case specification.Pagination:
			limit = v.Limit
		}
	}
	var out []*entity.ChatLog
	for _, l := range r.logs {
		if owner == "" || l.UserId == owner {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeChatLogRepo) DeleteByUser(_ context.Context, userId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.logs[:0]
	for _, l := range r.logs {
		if l.UserId != userId {
			kept = append(kept, l)
		}
	}
	r.logs = kept
	return nil
}

type fakeUserRepo struct {
	contract.UserRepository
	mu   sync.Mutex
	tags map[uuid.UUID][]string
}

func (r *fakeUserRepo) AddTag(_ context.Context, id uuid.UUID, tag string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tags[id] {
		if t == tag {
			return nil
		}
	}
	r.tags[id] = append(r.tags[id], tag)
	return nil
}

func (r *fakeUserRepo) tagsOf(id uuid.UUID) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.tags[id]...)
}

// classifierFunc adapts a function to IntentClassifier.
type classifierFunc func(message string) intent.Intent

func (f classifierFunc) Classify(_ context.Context, message string, _ []store.Turn) (intent.Intent, error) {
	return f(message), nil
}

// nameResolver resolves a message to a product at the exact tier when the
// message contains the product name.
type nameResolver struct {
	products []*entity.Product
}

func (r *nameResolver) ResolveExplicit(_ context.Context, query string) ([]search.Candidate, error) {
	for _, p := range r.products {
		if containsNormalized(query, p.Name) {
			return []search.Candidate{{ID: p.Id.String(), Tier: search.TierExact, Score: 1, Product: p}}, nil
		}
	}
	return nil, nil
}

func containsNormalized(text, name string) bool {
	n := search.Normalize(name)
	return n != "" && strings.Contains(search.Normalize(text), n)
}

// cannedJSON answers every structured generation with the same document.
type cannedJSON struct {
	doc   string
	calls int
}

func (g *cannedJSON) GenerateJSON(_ context.Context, _ string, _ *llm.Schema, out interface{}) error {
	g.calls++
	return json.Unmarshal([]byte(g.doc), out)
}
