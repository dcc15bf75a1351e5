package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"commerce-assistant/internal/dto"
	"commerce-assistant/internal/entity"
	"commerce-assistant/internal/pkg/logger"
	"commerce-assistant/internal/repository/specification"
	"commerce-assistant/internal/repository/unitofwork"
	"commerce-assistant/pkg/events"
	"commerce-assistant/pkg/outbox"
	"commerce-assistant/pkg/rag"
	"commerce-assistant/pkg/rag/handler"
	"commerce-assistant/pkg/rag/intent"
	"commerce-assistant/pkg/rag/prompt"
	"commerce-assistant/pkg/rag/session"
	"commerce-assistant/pkg/store"

	"github.com/google/uuid"
)

const (
	ServiceVersion        = "1.0.0"
	DefaultHistoryPage    = 20
	DefaultMaxMessageRune = 5000
)

// IChatService is what the transport layer sees of the assistant.
type IChatService interface {
	Chat(ctx context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error)
	GetHistory(ctx context.Context, userId string, limit int) ([]*dto.ChatHistoryResponse, error)
	ClearContext(ctx context.Context, userId string) error
	Health() *dto.ChatHealthResponse
}

type IntentClassifier interface {
	Classify(ctx context.Context, message string, history []store.Turn) (intent.Intent, error)
}

type CustomerContextBuilder interface {
	Build(ctx context.Context, userID string) (*prompt.CustomerContext, error)
}

type Dispatcher interface {
	Dispatch(ctx context.Context, req *handler.Request) (*handler.Result, error)
}

type ChatServiceConfig struct {
	MaxMessageLength int
}

type chatService struct {
	uowFactory unitofwork.RepositoryFactory
	sessions   *session.Manager
	classifier IntentClassifier
	customers  CustomerContextBuilder
	dispatcher Dispatcher
	sideEffect outbox.Publisher
	cfg        ChatServiceConfig
	logger     logger.ILogger
	now        func() time.Time

	inFlight sync.Map // session id -> struct{}

	totalRequests   int64
	successRequests int64
	failedRequests  int64
	totalLatencyMs  int64
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	sessions *session.Manager,
	classifier IntentClassifier,
	customers CustomerContextBuilder,
	dispatcher Dispatcher,
	sideEffect outbox.Publisher,
	cfg ChatServiceConfig,
	log logger.ILogger,
) IChatService {
	if cfg.MaxMessageLength <= 0 {
		cfg.MaxMessageLength = DefaultMaxMessageRune
	}
	return &chatService{
		uowFactory: uowFactory,
		sessions:   sessions,
		classifier: classifier,
		customers:  customers,
		dispatcher: dispatcher,
		sideEffect: sideEffect,
		cfg:        cfg,
		logger:     log,
		now:        time.Now,
	}
}

func (s *chatService) Chat(ctx context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error) {
	start := time.Now()
	atomic.AddInt64(&s.totalRequests, 1)

	res, err := s.chat(ctx, req)

	atomic.AddInt64(&s.totalLatencyMs, time.Since(start).Milliseconds())
	if err != nil {
		atomic.AddInt64(&s.failedRequests, 1)
		return nil, err
	}
	atomic.AddInt64(&s.successRequests, 1)
	return res, nil
}

func (s *chatService) chat(ctx context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, fmt.Errorf("%w: message is required", rag.ErrValidation)
	}
	if utf8.RuneCountInString(message) > s.cfg.MaxMessageLength {
		return nil, fmt.Errorf("%w: message exceeds %d characters", rag.ErrValidation, s.cfg.MaxMessageLength)
	}

	userID := req.UserID
	if userID == "" {
		userID = store.GuestPrefix + uuid.NewString()
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = userID
	}

	key := session.Key(userID, sessionID)
	if _, busy := s.inFlight.LoadOrStore(key, struct{}{}); busy {
		return nil, rag.ErrTurnInProgress
	}
	defer s.inFlight.Delete(key)

	cc, err := s.sessions.Load(ctx, sessionID, userID)
	if err != nil {
		s.logger.Warn("ChatService", "context load failed, starting fresh", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		cc = store.NewConversationContext(key, userID)
	}
	if len(cc.Turns) == 0 && len(req.ConversationHistory) > 0 {
		seedTurns(cc, req.ConversationHistory, s.now())
	}
	cc.CustomerProfile.Role = req.Role

	history := append([]store.Turn(nil), cc.Turns...)

	var (
		wg       sync.WaitGroup
		classify intent.Intent
		entities session.ResolvedEntities
		customer *prompt.CustomerContext
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		it, err := s.classifier.Classify(ctx, message, history)
		if err != nil {
			s.logger.Warn("ChatService", "classification failed", map[string]interface{}{
				"session_id": sessionID,
				"stage":      "classify",
				"error":      err.Error(),
			})
			it = intent.Intent{Type: intent.General, Confidence: 0.5, Source: intent.SourceFallback}
		}
		classify = it
	}()
	go func() {
		defer wg.Done()
		ents, err := s.sessions.ResolveReferents(ctx, message, cc)
		if err != nil {
			s.logger.Warn("ChatService", "referent resolution failed", map[string]interface{}{
				"session_id": sessionID,
				"stage":      "resolve",
				"error":      err.Error(),
			})
		}
		entities = ents
	}()
	go func() {
		defer wg.Done()
		if s.customers == nil {
			return
		}
		c, err := s.customers.Build(ctx, userID)
		if err != nil {
			s.logger.Warn("ChatService", "customer context unavailable", map[string]interface{}{
				"session_id": sessionID,
				"stage":      "customer",
				"error":      err.Error(),
			})
			return
		}
		customer = c
	}()
	wg.Wait()

	if customer != nil {
		cc.CustomerProfile.Type = string(customer.Type)
		cc.CustomerProfile.Tags = customer.Tags
	}

	s.logger.Info("ChatService", "turn classified", map[string]interface{}{
		"session_id": sessionID,
		"intent":     classify.Type,
		"confidence": classify.Confidence,
		"source":     classify.Source,
		"referent":   entities.Source,
	})

	result, err := s.dispatcher.Dispatch(ctx, &handler.Request{
		Message:   message,
		UserID:    userID,
		SessionID: sessionID,
		Role:      req.Role,
		Intent:    classify,
		Context:   cc,
		Entities:  entities,
		Customer:  customer,
	})
	if err != nil {
		return nil, err
	}

	product := result.Product
	if product == nil && entities.Source == session.SourceExplicit {
		product = entities.Product
	}
	s.sessions.AppendTurn(cc, session.TurnRecord{
		UserText:          message,
		Answer:            result.Answer,
		Intent:            string(result.Intent),
		SuggestedProducts: result.SuggestedProducts,
		Product:           product,
		Measurements:      entities.Extracted,
	})
	if err := s.sessions.Save(ctx, cc); err != nil {
		s.logger.Error("ChatService", "context save failed", map[string]interface{}{
			"session_id": sessionID,
			"stage":      "save",
			"error":      err.Error(),
		})
	}

	now := s.now()
	s.emit(ctx, userID, sessionID, message, result, now)
	return toChatResponse(result, sessionID, now), nil
}

// emit hands side effects to the outbox. It never fails the turn.
func (s *chatService) emit(ctx context.Context, userID, sessionID, message string, res *handler.Result, at time.Time) {
	if s.sideEffect == nil {
		return
	}
	productIDs := make([]interface{}, 0, len(res.SuggestedProducts))
	for _, p := range res.SuggestedProducts {
		productIDs = append(productIDs, p.ID)
	}
	s.sideEffect.Enqueue(ctx, events.BaseEvent{
		Type: events.TypeChatTurnCompleted,
		Data: map[string]interface{}{
			"user_id":            userID,
			"session_id":         sessionID,
			"intent":             res.ReportedIntent(),
			"message":            message,
			"answer":             res.Answer,
			"suggested_products": productIDs,
			"guest":              store.IsGuest(userID),
		},
		OccurredAt: at,
	})
	if a := res.SuggestedAction; a != nil && a.Type == handler.ActionAddToCart {
		s.sideEffect.Enqueue(ctx, events.BaseEvent{
			Type: events.TypeCartActionSuggested,
			Data: map[string]interface{}{
				"user_id":    userID,
				"session_id": sessionID,
				"product_id": a.ProductID,
				"variant_id": a.VariantID,
			},
			OccurredAt: at,
		})
	}
}

func (s *chatService) GetHistory(ctx context.Context, userId string, limit int) ([]*dto.ChatHistoryResponse, error) {
	if userId == "" {
		return nil, fmt.Errorf("%w: user id is required", rag.ErrValidation)
	}
	if limit <= 0 {
		limit = DefaultHistoryPage
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	logs, err := uow.ChatLogRepository().FindAll(ctx,
		specification.ChatLogOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.ChatHistoryResponse, 0, len(logs))
	for _, l := range logs {
		res = append(res, &dto.ChatHistoryResponse{
			Id:        l.Id,
			SessionId: l.SessionId,
			Role:      l.Role,
			Content:   l.Content,
			Intent:    l.Intent,
			CreatedAt: l.CreatedAt,
		})
	}
	return res, nil
}

func (s *chatService) ClearContext(ctx context.Context, userId string) error {
	if userId == "" {
		return fmt.Errorf("%w: user id is required", rag.ErrValidation)
	}
	if err := s.sessions.Clear(ctx, userId); err != nil {
		return err
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ChatLogRepository().DeleteByUser(ctx, userId); err != nil {
		return err
	}
	s.logger.Info("ChatService", "context cleared", map[string]interface{}{"user_id": userId})
	return nil
}

func (s *chatService) Health() *dto.ChatHealthResponse {
	total := atomic.LoadInt64(&s.totalRequests)
	success := atomic.LoadInt64(&s.successRequests)
	failed := atomic.LoadInt64(&s.failedRequests)
	latency := atomic.LoadInt64(&s.totalLatencyMs)

	res := &dto.ChatHealthResponse{
		Status:             "healthy",
		Version:            ServiceVersion,
		TotalRequests:      total,
		SuccessfulRequests: success,
		FailedRequests:     failed,
	}
	if total > 0 {
		res.SuccessRate = float64(success) / float64(total) * 100
		res.AverageResponseTime = float64(latency) / float64(total)
	}
	return res
}

// IsClientError reports whether err was caused by the request itself.
func IsClientError(err error) bool {
	return errors.Is(err, rag.ErrValidation) || errors.Is(err, rag.ErrTurnInProgress)
}

func seedTurns(cc *store.ConversationContext, history []dto.ChatHistoryMessage, at time.Time) {
	turns := make([]store.Turn, 0, len(history))
	for _, h := range history {
		role := store.RoleUser
		if h.Role == store.RoleAssistant {
			role = store.RoleAssistant
		}
		turns = append(turns, store.Turn{Role: role, Text: h.Content, Timestamp: at})
	}
	cc.AppendTurns(session.DefaultHistoryLimit, turns...)
}

func toChatResponse(res *handler.Result, sessionID string, at time.Time) *dto.ChatResponse {
	out := &dto.ChatResponse{
		Answer:               res.Answer,
		Sources:              res.Sources,
		SuggestedProducts:    make([]dto.SuggestedProductDTO, 0, len(res.SuggestedProducts)),
		Intent:               res.ReportedIntent(),
		Type:                 res.Type,
		SessionId:            sessionID,
		RequiresMeasurements: res.RequiresMeasurements,
		MissingFields:        res.MissingFields,
		RecommendedSize:      res.RecommendedSize,
		Data:                 res.Data,
		Timestamp:            at,
	}
	if out.Sources == nil {
		out.Sources = []string{}
	}
	for _, p := range res.SuggestedProducts {
		out.SuggestedProducts = append(out.SuggestedProducts, dto.SuggestedProductDTO{Id: p.ID, Name: p.Name, Category: p.Category})
	}
	if a := res.SuggestedAction; a != nil {
		out.SuggestedAction = &dto.SuggestedActionDTO{
			Type:      a.Type,
			ProductId: a.ProductID,
			VariantId: a.VariantID,
			Size:      a.Size,
			Color:     a.Color,
		}
	}
	if a := res.Attachment; a != nil {
		out.Attachment = &dto.AttachmentDTO{Name: a.Name, Type: a.Type, Url: a.URL}
	}
	return out
}

// chatLogsFromEvent rebuilds the two persisted messages of a completed turn.
func chatLogsFromEvent(e events.BaseEvent) []*entity.ChatLog {
	userID := e.String("user_id")
	sessionID := e.String("session_id")
	it := e.String("intent")

	var products []interface{}
	if v, ok := e.Data["suggested_products"].([]interface{}); ok {
		products = v
	}
	return []*entity.ChatLog{
		{
			UserId:    userID,
			SessionId: sessionID,
			Role:      store.RoleUser,
			Content:   e.String("message"),
			Intent:    it,
			CreatedAt: e.OccurredAt,
		},
		{
			UserId:    userID,
			SessionId: sessionID,
			Role:      store.RoleAssistant,
			Content:   e.String("answer"),
			Intent:    it,
			Metadata:  map[string]interface{}{"suggested_products": products},
			CreatedAt: e.OccurredAt.Add(time.Millisecond),
		},
	}
}
