package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeywords(t *testing.T) {
	tests := []struct {
		message    string
		want       Type
		confidence float64
	}{
		{"Doanh thu hôm nay bao nhiêu?", AdminAnalytics, 0.95},
		{"xuất báo cáo doanh thu tháng này", AdminAnalytics, 0.95},
		{"Thông tin Nguyễn Văn A", AdminAnalytics, 0.95},
		{"thông tin sản phẩm Wool Coat", ProductAdvice, 0.6},
		{"Có nước hoa nào mùi gỗ không?", ProductAdvice, 0.85},
		{"Tư vấn size cho mình", SizeRecommendation, 0.7},
		{"Cao 175cm nặng 70kg", SizeRecommendation, 0.7},
		{"Kiểm tra đơn hàng giúp mình", OrderLookup, 0.8},
		{"Thêm vào giỏ giúp mình", AddToCart, 0.9},
		{"Phối đồ đi tiệc", StyleMatching, 0.7},
		{"Phí ship bao nhiêu?", PolicyFAQ, 0.8},
		{"Mình muốn đổi trả", PolicyFAQ, 0.7},
		{"Có quần jean không", ProductAdvice, 0.6},
		{"Happy Polo", ProductAdvice, 0.6},
		{"xin chào", General, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			got := Keywords(tt.message)
			assert.Equal(t, tt.want, got.Type)
			assert.Equal(t, tt.confidence, got.Confidence)
			assert.Equal(t, SourceKeyword, got.Source)
		})
	}
}

func TestAdminRequiresRole(t *testing.T) {
	assert.Equal(t, RoleAdmin, Keywords("doanh thu tuần này").RequiredRole)
	assert.Empty(t, Keywords("xin chào").RequiredRole)
}

func TestParse(t *testing.T) {
	got, err := Parse(" Size_Recommendation ")
	assert.NoError(t, err)
	assert.Equal(t, SizeRecommendation, got)

	got, err = Parse("return_exchange")
	assert.NoError(t, err)
	assert.Equal(t, PolicyFAQ, got)

	got, err = Parse("weather")
	assert.Error(t, err)
	assert.Equal(t, General, got)

	for _, tt := range All() {
		assert.True(t, tt.Valid())
	}
}
