package scoring

import (
	"math"
	"time"
)

// Input bundles everything the scorer looks at for one address. All
// scoring functions are pure: same input, same output, no clock reads.
// Callers pass Age explicitly.
type Input struct {
	Age            time.Duration
	MentionCount   int
	Engagement     int // sum of likes+shares across kept mentions
	SignatureCount int

	// Market is nil-equivalent when HasMarket is false.
	HasMarket    bool
	LiquidityUSD float64
	Volume24h    float64
	Change24h    float64
	Verified     bool

	// ConcentrationRisk is the 0-100 holder-concentration band.
	HasConcentration  bool
	ConcentrationRisk float64
}

// ConcentrationRisk maps the top-5 holder share of supply (percent) to a
// 0-100 risk band. When supply or holder data is unavailable the band is a
// neutral 50.
func ConcentrationRisk(topShare float64, known bool) float64 {
	if !known {
		return 50
	}
	switch {
	case topShare > 80:
		return 90
	case topShare > 60:
		return 70
	case topShare > 40:
		return 50
	case topShare > 20:
		return 30
	default:
		return 10
	}
}

// RiskScore computes the heuristic 0-100 risk score. Starts at 50, applies
// each signal adjustment, clamps and rounds.
func RiskScore(in Input) int {
	score := 50.0

	switch {
	case in.Age < 30*time.Minute:
		score += 40
	case in.Age < time.Hour:
		score += 25
	case in.Age < 24*time.Hour:
		score += 10
	case in.Age > 7*24*time.Hour:
		score -= 15
	}

	switch {
	case in.MentionCount > 5:
		score -= 25
	case in.MentionCount > 2:
		score -= 15
	case in.MentionCount == 1:
		score += 20
	}

	switch {
	case in.Engagement > 500:
		score -= 20
	case in.Engagement > 100:
		score -= 10
	case in.Engagement < 10:
		score += 15
	}

	if in.HasMarket {
		switch {
		case in.LiquidityUSD > 50000:
			score -= 20
		case in.LiquidityUSD > 10000:
			score -= 10
		case in.LiquidityUSD < 1000:
			score += 25
		}
		switch {
		case in.Volume24h > 100000:
			score -= 15
		case in.Volume24h < 1000:
			score += 10
		}
		if in.Verified {
			score -= 15
		}
	} else {
		score += 20
	}

	if in.HasConcentration {
		score += in.ConcentrationRisk * 0.3
	}

	switch {
	case in.SignatureCount > 1000:
		score -= 10
	case in.SignatureCount < 10:
		score += 15
	}

	return clampInt(int(math.Round(score)), 0, 100)
}

// SocialScore rewards independent validation and raw engagement.
// min(100, mentions*12 + likes/15).
func SocialScore(mentionCount, totalLikes int) int {
	s := mentionCount*12 + totalLikes/15
	if s > 100 {
		return 100
	}
	return s
}

// LiquidityScore is a 0-100 depth proxy. With market data it is
// liquidity/1000 clamped to [10,100]; without, it degrades to the inverse
// of risk with a floor of 20.
func LiquidityScore(hasMarket bool, liquidityUSD float64, riskScore int) int {
	if hasMarket {
		return clampInt(int(liquidityUSD/1000), 10, 100)
	}
	s := 100 - riskScore
	if s < 20 {
		return 20
	}
	return s
}

// CompositeRank is the published sort key, higher is better. It ties
// independent validation (mentions), inverse risk, and social weight
// together rather than ranking on any single metric.
func CompositeRank(mentionCount, riskScore, socialScore int) float64 {
	return float64(mentionCount*10) + float64(100-riskScore) + float64(socialScore)/10
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
