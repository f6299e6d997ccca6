package models

import "time"

// Mention is one candidate address found inside one post.
type Mention struct {
	Address  string    `json:"address"`
	Source   string    `json:"source"`
	PostID   string    `json:"post_id"`
	Text     string    `json:"text"`
	PostedAt time.Time `json:"posted_at"`
	Likes    int       `json:"likes"`
	Shares   int       `json:"shares"`
}

// Candidate aggregates every mention of one address during a single scan
// cycle. An address counts once per distinct source no matter how many
// times the same account posts it.
type Candidate struct {
	Address  string
	Sources  map[string]bool
	Mentions []Mention
}

func NewCandidate(address string) *Candidate {
	return &Candidate{Address: address, Sources: make(map[string]bool)}
}

// Add records a mention, keeping at most one mention per post.
func (c *Candidate) Add(m Mention) {
	c.Sources[m.Source] = true
	for _, existing := range c.Mentions {
		if existing.PostID == m.PostID && existing.Source == m.Source {
			return
		}
	}
	c.Mentions = append(c.Mentions, m)
}

func (c *Candidate) MentionCount() int { return len(c.Sources) }

func (c *Candidate) SourceList() []string {
	out := make([]string, 0, len(c.Sources))
	for s := range c.Sources {
		out = append(out, s)
	}
	return out
}

// Engagement sums likes and shares across all kept mentions.
func (c *Candidate) Engagement() int {
	total := 0
	for _, m := range c.Mentions {
		total += m.Likes + m.Shares
	}
	return total
}

// TokenSupply is the parsed result of a mint's supply lookup.
type TokenSupply struct {
	Amount   float64 `json:"amount"`
	Decimals int     `json:"decimals"`
}

// ChainInfo is the on-chain snapshot for one address at scan time.
type ChainInfo struct {
	Address           string       `json:"address"`
	Owner             string       `json:"owner"`
	Lamports          uint64       `json:"lamports"`
	Supply            *TokenSupply `json:"supply,omitempty"`
	TopHolders        []float64    `json:"top_holders,omitempty"`
	FirstSeen         time.Time    `json:"first_seen"`
	SignatureCount    int          `json:"signature_count"`
	SigLimitHit       bool         `json:"sig_limit_hit"`
	ConcentrationRisk float64      `json:"concentration_risk"`
}

// Age reports how long ago the address was first seen, relative to now.
func (ci *ChainInfo) Age(now time.Time) time.Duration {
	return now.Sub(ci.FirstSeen)
}

// MarketInfo is the DEX aggregator view of one address. Absent entirely
// when no trading pair exists.
type MarketInfo struct {
	PriceUSD     float64 `json:"price_usd"`
	Volume24h    float64 `json:"volume_24h"`
	MarketCap    float64 `json:"market_cap"`
	LiquidityUSD float64 `json:"liquidity_usd"`
	Change24h    float64 `json:"change_24h"`
	PairURL      string  `json:"pair_url"`
	Verified     bool    `json:"verified"`
}

// TokenMeta carries descriptive token fields. Synthetic marks the
// placeholder fallback derived from the address itself; downstream code
// must never treat a synthetic symbol as a real identity signal.
type TokenMeta struct {
	Symbol    string `json:"symbol"`
	Name      string `json:"name"`
	Decimals  int    `json:"decimals"`
	Holders   int    `json:"holders"` // -1 when unknown
	Synthetic bool   `json:"synthetic"`
}

// ScoredContract is the published unit: one scored, tagged, ranked address.
type ScoredContract struct {
	Address        string      `json:"address"`
	Symbol         string      `json:"symbol"`
	Name           string      `json:"name"`
	Synthetic      bool        `json:"metadata_synthetic"`
	MentionCount   int         `json:"mention_count"`
	Sources        []string    `json:"sources"`
	Mentions       []Mention   `json:"mentions"`
	RiskScore      int         `json:"risk_score"`
	SocialScore    int         `json:"social_score"`
	LiquidityScore int         `json:"liquidity_score"`
	Tags           []string    `json:"tags"`
	Market         *MarketInfo `json:"market,omitempty"`
	Holders        int         `json:"holders"`
	FirstSeen      time.Time   `json:"first_seen"`
	AgeApproximate bool        `json:"age_approximate"`
	SignatureCount int         `json:"signature_count"`
	ScannedAt      time.Time   `json:"scanned_at"`
}

// ScanStats is the summary published alongside each contracts update.
type ScanStats struct {
	LowRisk  int `json:"low_risk"`
	Trending int `json:"trending"`
	Fresh    int `json:"fresh"`
}
