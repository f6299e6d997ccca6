package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTags_HotVerifiedToken(t *testing.T) {
	in := TagInput{
		Input: Input{
			Age:          10 * time.Minute,
			MentionCount: 6,
			HasMarket:    true,
			Volume24h:    150000,
			LiquidityUSD: 60000,
			Verified:     true,
		},
		RiskScore: 5,
	}
	got := Tags(in)
	for _, want := range []string{TagLowRisk, TagUltraFresh, TagTrending, TagHighVolume, TagGoodLiquidity, TagVerified} {
		assert.Contains(t, got, want)
	}
	assert.NotContains(t, got, TagHighRisk)
	assert.NotContains(t, got, TagNoDexData)
}

func TestTags_NoMarketData(t *testing.T) {
	in := TagInput{
		Input:     Input{Age: 2 * time.Hour, MentionCount: 1},
		RiskScore: 100,
	}
	got := Tags(in)
	assert.Contains(t, got, TagHighRisk)
	assert.Contains(t, got, TagNew)
	assert.Contains(t, got, TagNoDexData)
	assert.NotContains(t, got, TagLowRisk)
	assert.NotContains(t, got, TagTrending)
}

func TestTags_FreshnessBuckets(t *testing.T) {
	tests := []struct {
		age  time.Duration
		want string
	}{
		{5 * time.Minute, TagUltraFresh},
		{45 * time.Minute, TagFresh},
		{10 * time.Hour, TagNew},
	}
	for _, tt := range tests {
		got := Tags(TagInput{Input: Input{Age: tt.age, HasMarket: true}, RiskScore: 50})
		assert.Contains(t, got, tt.want, "age=%v", tt.age)
	}

	// Older than a day gets no freshness tag at all.
	got := Tags(TagInput{Input: Input{Age: 48 * time.Hour, HasMarket: true}, RiskScore: 50})
	for _, tag := range []string{TagUltraFresh, TagFresh, TagNew} {
		assert.NotContains(t, got, tag)
	}
}

func TestTags_PopularityBuckets(t *testing.T) {
	got := Tags(TagInput{Input: Input{MentionCount: 5, HasMarket: true, Age: 48 * time.Hour}, RiskScore: 50})
	assert.Contains(t, got, TagTrending)
	assert.NotContains(t, got, TagPopular)

	got = Tags(TagInput{Input: Input{MentionCount: 3, HasMarket: true, Age: 48 * time.Hour}, RiskScore: 50})
	assert.Contains(t, got, TagPopular)
	assert.NotContains(t, got, TagTrending)
}

func TestTags_AlphaHunter(t *testing.T) {
	got := Tags(TagInput{Input: Input{HasMarket: true, Age: 48 * time.Hour}, RiskScore: 50, TopHunterNamed: true})
	assert.Contains(t, got, TagAlphaHunter)
}

func TestTags_PumpingDumping(t *testing.T) {
	got := Tags(TagInput{Input: Input{HasMarket: true, Change24h: 80, Age: 48 * time.Hour}, RiskScore: 50})
	assert.Contains(t, got, TagPumping)

	got = Tags(TagInput{Input: Input{HasMarket: true, Change24h: -35, Age: 48 * time.Hour}, RiskScore: 50})
	assert.Contains(t, got, TagDumping)
}
