package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/alpha-radar/pkg/models"
)

// Enricher looks up market data and token metadata for addresses. The two
// lookups hit different providers and are independently tolerant of total
// failure: market absence degrades scoring, metadata absence falls back to
// a synthetic placeholder.
type Enricher struct {
	dexScreenerBase string
	jupiterBase     string
	client          *http.Client
}

func NewEnricher(dexScreenerBase, jupiterBase string) *Enricher {
	return &Enricher{
		dexScreenerBase: strings.TrimRight(dexScreenerBase, "/"),
		jupiterBase:     strings.TrimRight(jupiterBase, "/"),
		client:          &http.Client{Timeout: 5 * time.Second},
	}
}

// dexPair mirrors the fields we read from DexScreener's pair objects.
// Several numeric fields arrive as strings; flexFloat absorbs both.
type dexPair struct {
	URL      string    `json:"url"`
	PriceUSD flexFloat `json:"priceUsd"`
	Volume   struct {
		H24 flexFloat `json:"h24"`
	} `json:"volume"`
	PriceChange struct {
		H24 flexFloat `json:"h24"`
	} `json:"priceChange"`
	Liquidity struct {
		USD flexFloat `json:"usd"`
	} `json:"liquidity"`
	FDV       flexFloat `json:"fdv"`
	BaseToken struct {
		Symbol string `json:"symbol"`
		Name   string `json:"name"`
	} `json:"baseToken"`
	Info *struct {
		ImageURL string `json:"imageUrl"`
	} `json:"info"`
	Labels []string `json:"labels"`
}

// FetchMarket returns the most liquid pair's view of an address, or nil
// when no trading venue lists it. Network and parse failures also return
// nil: market absence is a scoring signal, not an error.
func (e *Enricher) FetchMarket(ctx context.Context, address string) *models.MarketInfo {
	body, err := e.getJSON(ctx, e.dexScreenerBase+"/latest/dex/tokens/"+address)
	if err != nil {
		log.Debug().Err(err).Str("addr", address).Msg("dexscreener fetch failed")
		return nil
	}

	var resp struct {
		Pairs []dexPair `json:"pairs"`
	}
	if err := json.Unmarshal(body, &resp); err != nil || len(resp.Pairs) == 0 {
		return nil
	}

	best := resp.Pairs[0]
	for _, p := range resp.Pairs[1:] {
		if float64(p.Liquidity.USD) > float64(best.Liquidity.USD) {
			best = p
		}
	}

	return &models.MarketInfo{
		PriceUSD:     float64(best.PriceUSD),
		Volume24h:    float64(best.Volume.H24),
		MarketCap:    float64(best.FDV),
		LiquidityUSD: float64(best.Liquidity.USD),
		Change24h:    float64(best.PriceChange.H24),
		PairURL:      best.URL,
		Verified:     pairVerified(best),
	}
}

// pairVerified: DexScreener marks enhanced/verified listings with info
// payloads and labels.
func pairVerified(p dexPair) bool {
	if p.Info != nil && p.Info.ImageURL != "" {
		return true
	}
	for _, l := range p.Labels {
		if strings.EqualFold(l, "verified") {
			return true
		}
	}
	return false
}

// FetchMeta resolves symbol/name/decimals/holders for a mint, trying the
// Jupiter token API first and DexScreener's baseToken fields second. When
// every source fails it synthesizes a placeholder from the address itself,
// marked Synthetic so downstream never mistakes it for a real identity.
func (e *Enricher) FetchMeta(ctx context.Context, address string) models.TokenMeta {
	if meta, ok := e.jupiterMeta(ctx, address); ok {
		return meta
	}
	if meta, ok := e.dexScreenerMeta(ctx, address); ok {
		return meta
	}
	return SyntheticMeta(address)
}

func (e *Enricher) jupiterMeta(ctx context.Context, address string) (models.TokenMeta, bool) {
	body, err := e.getJSON(ctx, e.jupiterBase+"/token/"+address)
	if err != nil {
		return models.TokenMeta{}, false
	}

	var token struct {
		Symbol      string `json:"symbol"`
		Name        string `json:"name"`
		Decimals    int    `json:"decimals"`
		HolderCount int    `json:"holder_count"`
	}
	if err := json.Unmarshal(body, &token); err != nil || token.Symbol == "" {
		return models.TokenMeta{}, false
	}

	holders := token.HolderCount
	if holders == 0 {
		holders = -1
	}
	return models.TokenMeta{
		Symbol:   token.Symbol,
		Name:     token.Name,
		Decimals: token.Decimals,
		Holders:  holders,
	}, true
}

func (e *Enricher) dexScreenerMeta(ctx context.Context, address string) (models.TokenMeta, bool) {
	body, err := e.getJSON(ctx, e.dexScreenerBase+"/latest/dex/tokens/"+address)
	if err != nil {
		return models.TokenMeta{}, false
	}

	var resp struct {
		Pairs []dexPair `json:"pairs"`
	}
	if err := json.Unmarshal(body, &resp); err != nil || len(resp.Pairs) == 0 {
		return models.TokenMeta{}, false
	}
	base := resp.Pairs[0].BaseToken
	if base.Symbol == "" {
		return models.TokenMeta{}, false
	}
	return models.TokenMeta{Symbol: base.Symbol, Name: base.Name, Holders: -1}, true
}

// SyntheticMeta derives a deterministic placeholder identity from the
// address. Holders is unknown (-1) and Synthetic is set.
func SyntheticMeta(address string) models.TokenMeta {
	tail := address
	if len(tail) > 4 {
		tail = tail[len(tail)-4:]
	}
	head := address
	if len(head) > 4 {
		head = head[:4]
	}
	return models.TokenMeta{
		Symbol:    strings.ToUpper(tail),
		Name:      "Token " + head + "…" + tail,
		Holders:   -1,
		Synthetic: true,
	}
}

func (e *Enricher) getJSON(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("status %d from %s", resp.StatusCode, url)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 4<<20))
}

// flexFloat decodes JSON numbers that may arrive as numbers or strings.
// Parse failures coerce to 0 rather than propagating.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexFloat(v)
	return nil
}
