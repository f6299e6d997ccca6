package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRiskScore_EstablishedHighLiquidityToken(t *testing.T) {
	// 6 distinct sources, 10 minutes old, deep liquidity, verified, busy.
	in := Input{
		Age:            10 * time.Minute,
		MentionCount:   6,
		Engagement:     50, // neutral bucket
		SignatureCount: 1500,
		HasMarket:      true,
		LiquidityUSD:   60000,
		Volume24h:      150000,
		Verified:       true,
	}
	// 50 +40(age) -25(mentions) -20(liq) -15(vol) -15(verified) -10(sigs)
	assert.Equal(t, 5, RiskScore(in))
}

func TestRiskScore_UnknownTokenClampsHigh(t *testing.T) {
	in := Input{
		Age:            2 * time.Hour,
		MentionCount:   1,
		Engagement:     0,
		SignatureCount: 3,
		HasMarket:      false,
	}
	// 50 +10 +20 +15(engagement<10) +20(no market) +15(sigs<10) -> clamp 100
	assert.Equal(t, 100, RiskScore(in))
}

func TestRiskScore_Bounded(t *testing.T) {
	ages := []time.Duration{0, 45 * time.Minute, 5 * time.Hour, 30 * 24 * time.Hour}
	mentions := []int{0, 1, 3, 6}
	engagements := []int{0, 50, 200, 1000}
	liqs := []float64{0, 500, 20000, 80000}
	for _, age := range ages {
		for _, m := range mentions {
			for _, e := range engagements {
				for _, l := range liqs {
					for _, hasMarket := range []bool{true, false} {
						s := RiskScore(Input{
							Age: age, MentionCount: m, Engagement: e,
							HasMarket: hasMarket, LiquidityUSD: l,
							HasConcentration: true, ConcentrationRisk: 90,
						})
						assert.GreaterOrEqual(t, s, 0)
						assert.LessOrEqual(t, s, 100)
					}
				}
			}
		}
	}
}

func TestRiskScore_Deterministic(t *testing.T) {
	in := Input{
		Age: 3 * time.Hour, MentionCount: 2, Engagement: 120,
		SignatureCount: 400, HasMarket: true, LiquidityUSD: 15000,
		Volume24h: 40000, HasConcentration: true, ConcentrationRisk: 70,
	}
	first := RiskScore(in)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, RiskScore(in))
	}
}

func TestRiskScore_ConcentrationContribution(t *testing.T) {
	base := Input{Age: 2 * time.Hour, MentionCount: 3, Engagement: 50, SignatureCount: 100, HasMarket: true, LiquidityUSD: 20000, Volume24h: 5000}
	withConc := base
	withConc.HasConcentration = true
	withConc.ConcentrationRisk = 90
	// 90 * 0.3 = +27
	assert.Equal(t, RiskScore(base)+27, RiskScore(withConc))
}

func TestConcentrationRisk_Bands(t *testing.T) {
	tests := []struct {
		share float64
		known bool
		want  float64
	}{
		{95, true, 90},
		{80.5, true, 90},
		{70, true, 70},
		{50, true, 50},
		{30, true, 30},
		{5, true, 10},
		{0, true, 10},
		{0, false, 50},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ConcentrationRisk(tt.share, tt.known), "share=%v known=%v", tt.share, tt.known)
	}
}

func TestSocialScore(t *testing.T) {
	assert.Equal(t, 0, SocialScore(0, 0))
	assert.Equal(t, 12, SocialScore(1, 0))
	assert.Equal(t, 36+10, SocialScore(3, 150))
	assert.Equal(t, 100, SocialScore(10, 5000)) // capped
}

func TestLiquidityScore(t *testing.T) {
	assert.Equal(t, 10, LiquidityScore(true, 0, 0))      // floor
	assert.Equal(t, 45, LiquidityScore(true, 45000, 0))
	assert.Equal(t, 100, LiquidityScore(true, 500000, 0)) // cap
	assert.Equal(t, 40, LiquidityScore(false, 0, 60))
	assert.Equal(t, 20, LiquidityScore(false, 0, 95)) // floor without market
}

func TestCompositeRank(t *testing.T) {
	// An extra mention outweighs everything but a large risk gap.
	a := CompositeRank(5, 40, 60)
	b := CompositeRank(4, 40, 60)
	assert.Greater(t, a, b)

	// At equal mentions, lower risk ranks higher.
	c := CompositeRank(4, 20, 60)
	assert.Greater(t, c, b)

	same1 := CompositeRank(3, 50, 40)
	same2 := CompositeRank(3, 50, 40)
	assert.Equal(t, same1, same2)
}
