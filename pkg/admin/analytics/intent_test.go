package analytics

import (
	"context"
	"errors"
	"testing"

	"commerce-assistant/internal/pkg/logger"
	"commerce-assistant/pkg/llm/llmtest"
	"commerce-assistant/pkg/resilience"
	"commerce-assistant/pkg/store"

	"github.com/stretchr/testify/assert"
)

func newTestClassifier(p *llmtest.Provider) *Classifier {
	return NewClassifier(p, resilience.Policy{}, logger.NewNopLogger()).WithClock(fixedClock)
}

func TestClassifyInventoryExportSkipsModel(t *testing.T) {
	p := llmtest.New()
	c := newTestClassifier(p)

	got := c.Classify(context.Background(), "Xuất file tồn kho hàng sắp hết", "", nil)

	assert.Equal(t, TypeInventoryExport, got.Type)
	assert.Equal(t, ScopeLowStock, got.Scope)
	assert.Equal(t, 0, p.CallCount())
}

func TestClassifyInventoryExportScopeFromPreviousTurn(t *testing.T) {
	c := newTestClassifier(llmtest.New())

	got := c.Classify(context.Background(), "xuất file csv giúp mình", "có sản phẩm nào hết hàng không", nil)
	assert.Equal(t, ScopeOutOfStock, got.Scope)

	got = c.Classify(context.Background(), "download báo cáo kho", "", nil)
	assert.Equal(t, TypeInventoryExport, got.Type)
	assert.Equal(t, ScopeAll, got.Scope)
}

func TestClassifyRevenueExportUsesModel(t *testing.T) {
	p := llmtest.New(`{"type": "revenue_export", "period": "this_month", "target": null}`)
	c := newTestClassifier(p)
	history := []store.Turn{{Role: store.RoleUser, Text: "doanh thu hôm nay"}}

	got := c.Classify(context.Background(), "Xuất báo cáo doanh thu tháng này", "doanh thu hôm nay", history)

	assert.Equal(t, TypeRevenueExport, got.Type)
	assert.Equal(t, PeriodThisMonth, got.Period)
	assert.Equal(t, 1, p.CallCount())
	assert.Contains(t, p.LastPrompt(), "2026-10-14")
	assert.Contains(t, p.LastPrompt(), "doanh thu hôm nay")
}

func TestClassifyFallsBackToKeywords(t *testing.T) {
	p := &llmtest.Provider{Err: errors.New("model down")}
	c := newTestClassifier(p)
	ctx := context.Background()

	got := c.Classify(ctx, "Xuất báo cáo doanh thu tháng này", "", nil)
	assert.Equal(t, TypeRevenueExport, got.Type)
	assert.Equal(t, PeriodThisMonth, got.Period)

	got = c.Classify(ctx, "tải danh sách khách hàng", "", nil)
	assert.Equal(t, TypeCustomerExport, got.Type)

	got = c.Classify(ctx, "doanh thu hôm qua bao nhiêu", "", nil)
	assert.Equal(t, TypeRevenue, got.Type)
	assert.Equal(t, PeriodYesterday, got.Period)

	got = c.Classify(ctx, "sản phẩm nào sắp hết trong kho", "", nil)
	assert.Equal(t, TypeProductInventory, got.Type)
	assert.Equal(t, ScopeLowStock, got.Status)

	got = c.Classify(ctx, "chào bạn", "", nil)
	assert.Equal(t, TypeGeneral, got.Type)
}

func TestClassifyRejectsInvalidModelOutput(t *testing.T) {
	p := llmtest.New(`{"type": "delete_everything"}`)
	c := newTestClassifier(p)

	got := c.Classify(context.Background(), "thống kê khách hàng", "", nil)

	assert.Equal(t, TypeCustomerStats, got.Type)
}
