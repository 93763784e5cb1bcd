package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/appraisal-cli/internal/model"
)

func TestMaxBid(t *testing.T) {
	// 300000*0.70 - 25000 - 10000 - min(25000, 45000)
	assert.InDelta(t, 150000, MaxBid(300000, DefaultRepairs), 0.001)
	// Selling costs below the cap: 100000*0.70 - 25000 - 10000 - 15000
	assert.InDelta(t, 20000, MaxBid(100000, DefaultRepairs), 0.001)
	assert.Zero(t, MaxBid(50000, DefaultRepairs))
	assert.InDelta(t, 175000, MaxBid(300000, 0), 0.001)
}

func ptr(v float64) *float64 { return &v }

func TestRecommend(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		conf     model.Confidence
		judgment *float64
		maxBid   *float64
		want     model.Recommendation
	}{
		{"no value", 0, model.ConfidenceHigh, nil, nil, model.RecommendSkip},
		{"no judgment high", 300000, model.ConfidenceHigh, nil, nil, model.RecommendBid},
		{"no judgment medium", 300000, model.ConfidenceMedium, nil, nil, model.RecommendReview},
		{"no judgment low", 300000, model.ConfidenceLow, nil, nil, model.RecommendReview},
		{"bid covers judgment", 300000, model.ConfidenceMedium, ptr(140000), ptr(150000), model.RecommendBid},
		{"bid covers judgment low confidence", 300000, model.ConfidenceLow, ptr(140000), ptr(150000), model.RecommendReview},
		{"bid within 80%", 300000, model.ConfidenceHigh, ptr(180000), ptr(150000), model.RecommendReview},
		{"bid far short", 300000, model.ConfidenceHigh, ptr(250000), ptr(150000), model.RecommendSkip},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Recommend(tt.value, tt.conf, tt.judgment, tt.maxBid))
		})
	}
}
