package scoring

import "time"

// Tag names published on scored contracts.
const (
	TagLowRisk       = "LOW_RISK"
	TagHighRisk      = "HIGH_RISK"
	TagUltraFresh    = "ULTRA_FRESH"
	TagFresh         = "FRESH"
	TagNew           = "NEW"
	TagTrending      = "TRENDING"
	TagPopular       = "POPULAR"
	TagAlphaHunter   = "ALPHA_HUNTER"
	TagHighVolume    = "HIGH_VOLUME"
	TagGoodLiquidity = "GOOD_LIQUIDITY"
	TagPumping       = "PUMPING"
	TagDumping       = "DUMPING"
	TagVerified      = "VERIFIED"
	TagNoDexData     = "NO_DEX_DATA"
)

// TagInput extends the score input with the bits only tagging needs.
type TagInput struct {
	Input
	RiskScore      int
	TopHunterNamed bool // any mentioning source is in the top-hunters allowlist
}

// Tags applies every independent tag rule and returns all that match.
// Order is fixed so output is deterministic.
func Tags(in TagInput) []string {
	var tags []string

	if in.RiskScore < 30 {
		tags = append(tags, TagLowRisk)
	} else if in.RiskScore > 70 {
		tags = append(tags, TagHighRisk)
	}

	switch {
	case in.Age < 30*time.Minute:
		tags = append(tags, TagUltraFresh)
	case in.Age < time.Hour:
		tags = append(tags, TagFresh)
	case in.Age < 24*time.Hour:
		tags = append(tags, TagNew)
	}

	if in.MentionCount > 4 {
		tags = append(tags, TagTrending)
	} else if in.MentionCount > 2 {
		tags = append(tags, TagPopular)
	}

	if in.TopHunterNamed {
		tags = append(tags, TagAlphaHunter)
	}

	if in.HasMarket {
		if in.Volume24h > 100000 {
			tags = append(tags, TagHighVolume)
		}
		if in.LiquidityUSD > 50000 {
			tags = append(tags, TagGoodLiquidity)
		}
		if in.Change24h > 50 {
			tags = append(tags, TagPumping)
		} else if in.Change24h < -20 {
			tags = append(tags, TagDumping)
		}
		if in.Verified {
			tags = append(tags, TagVerified)
		}
	} else {
		tags = append(tags, TagNoDexData)
	}

	return tags
}
