package analytics

import (
	"context"
	"fmt"
	"time"

	"commerce-assistant/internal/pkg/logger"
	"commerce-assistant/internal/repository/unitofwork"
	"commerce-assistant/pkg/rag"
	"commerce-assistant/pkg/store"
)

const helpText = "Mình có thể giúp bạn tra cứu: doanh thu (hôm nay, tuần này, tháng này...), thông tin khách hàng, thống kê khách hàng, trạng thái đơn hàng, tồn kho sản phẩm, và xuất file CSV (tồn kho, doanh thu, danh sách khách hàng)."

// Service answers one admin request end to end.
type Service struct {
	repoFactory unitofwork.RepositoryFactory
	classifier  *Classifier
	aggregator  *Aggregator
	now         func() time.Time
	logger      logger.ILogger
}

func NewService(repoFactory unitofwork.RepositoryFactory, classifier *Classifier, aggregator *Aggregator, logger logger.ILogger) *Service {
	return &Service{
		repoFactory: repoFactory,
		classifier:  classifier,
		aggregator:  aggregator,
		now:         time.Now,
		logger:      logger,
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	s.classifier.WithClock(now)
	if s.aggregator.exporter != nil {
		s.aggregator.exporter.WithClock(now)
	}
	return s
}

// Handle classifies query and runs the matching aggregation or export.
func (s *Service) Handle(ctx context.Context, query, previous string, history []store.Turn) (*Report, error) {
	in := s.classifier.Classify(ctx, query, previous, history)
	s.logger.Info("AdminAnalytics", "admin request classified", map[string]interface{}{
		"type":   in.Type,
		"period": in.Period,
		"scope":  in.Scope,
	})
	return s.Run(ctx, in)
}

// Run executes an already classified intent.
func (s *Service) Run(ctx context.Context, in AdminIntent) (*Report, error) {
	uow := s.repoFactory.NewUnitOfWork(ctx)
	if err := uow.BeginReadOnly(ctx); err != nil {
		s.logger.Warn("AdminAnalytics", "snapshot unavailable, reading without one", map[string]interface{}{"error": err.Error()})
	} else {
		defer uow.Rollback()
	}
	now := s.now()

	switch in.Type {
	case TypeRevenue, TypeRevenueExport:
		r, err := ResolveRange(in.Period, in.StartDate, in.EndDate, now)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", rag.ErrValidation, err)
		}
		if in.Type == TypeRevenueExport {
			return s.aggregator.RevenueExport(ctx, uow, r)
		}
		return s.aggregator.Revenue(ctx, uow, r)
	case TypeCustomerLookup:
		return s.aggregator.CustomerLookup(ctx, uow, in.Target)
	case TypeCustomerStats:
		month, _ := ResolveRange(PeriodThisMonth, "", "", now)
		return s.aggregator.CustomerStats(ctx, uow, month)
	case TypeOrderStatus:
		return s.aggregator.OrderStatus(ctx, uow, in.Target)
	case TypeProductInventory:
		return s.aggregator.ProductInventory(ctx, uow, in)
	case TypeInventoryExport:
		return s.aggregator.InventoryExport(ctx, uow, in)
	case TypeCustomerExport:
		return s.aggregator.CustomerExport(ctx, uow)
	}
	return &Report{Type: string(TypeGeneral), Answer: helpText}, nil
}
