package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mint = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"

func TestFetchMarket_PicksMostLiquidPair(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"pairs":[
			{"url":"https://dexscreener.com/solana/shallow","priceUsd":"0.001","volume":{"h24":100},"liquidity":{"usd":5000},"fdv":10000,"priceChange":{"h24":-5},"baseToken":{"symbol":"TST","name":"Test"}},
			{"url":"https://dexscreener.com/solana/deep","priceUsd":"0.0012","volume":{"h24":"120000"},"liquidity":{"usd":"60000"},"fdv":"500000","priceChange":{"h24":"55.5"},"baseToken":{"symbol":"TST","name":"Test"},"info":{"imageUrl":"https://img"}}
		]}`)
	}))
	defer srv.Close()

	e := NewEnricher(srv.URL, srv.URL)
	mi := e.FetchMarket(context.Background(), mint)
	require.NotNil(t, mi)

	assert.Equal(t, "https://dexscreener.com/solana/deep", mi.PairURL)
	assert.Equal(t, 0.0012, mi.PriceUSD)
	assert.Equal(t, 120000.0, mi.Volume24h)
	assert.Equal(t, 60000.0, mi.LiquidityUSD)
	assert.Equal(t, 500000.0, mi.MarketCap)
	assert.Equal(t, 55.5, mi.Change24h)
	assert.True(t, mi.Verified)
}

func TestFetchMarket_NoPairs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"pairs":null}`)
	}))
	defer srv.Close()

	e := NewEnricher(srv.URL, srv.URL)
	assert.Nil(t, e.FetchMarket(context.Background(), mint))
}

func TestFetchMarket_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	e := NewEnricher(srv.URL, srv.URL)
	assert.Nil(t, e.FetchMarket(context.Background(), mint))
}

func TestFetchMarket_GarbageNumbersCoerceToZero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"pairs":[{"url":"u","priceUsd":"not-a-number","volume":{"h24":"??"},"liquidity":{"usd":null},"baseToken":{"symbol":"X","name":"X"}}]}`)
	}))
	defer srv.Close()

	e := NewEnricher(srv.URL, srv.URL)
	mi := e.FetchMarket(context.Background(), mint)
	require.NotNil(t, mi)
	assert.Zero(t, mi.PriceUSD)
	assert.Zero(t, mi.Volume24h)
	assert.Zero(t, mi.LiquidityUSD)
}

func TestFetchMeta_JupiterFirst(t *testing.T) {
	jup := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"symbol":"BONK","name":"Bonk","decimals":5,"holder_count":650000}`)
	}))
	defer jup.Close()

	e := NewEnricher("http://127.0.0.1:0", jup.URL)
	meta := e.FetchMeta(context.Background(), mint)

	assert.Equal(t, "BONK", meta.Symbol)
	assert.Equal(t, "Bonk", meta.Name)
	assert.Equal(t, 5, meta.Decimals)
	assert.Equal(t, 650000, meta.Holders)
	assert.False(t, meta.Synthetic)
}

func TestFetchMeta_DexScreenerFallback(t *testing.T) {
	dex := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"pairs":[{"baseToken":{"symbol":"WIF","name":"dogwifhat"}}]}`)
	}))
	defer dex.Close()

	// Jupiter unreachable.
	e := NewEnricher(dex.URL, "http://127.0.0.1:0")
	meta := e.FetchMeta(context.Background(), mint)

	assert.Equal(t, "WIF", meta.Symbol)
	assert.Equal(t, "dogwifhat", meta.Name)
	assert.Equal(t, -1, meta.Holders)
	assert.False(t, meta.Synthetic)
}

func TestFetchMeta_SyntheticFallback(t *testing.T) {
	e := NewEnricher("http://127.0.0.1:0", "http://127.0.0.1:0")
	meta := e.FetchMeta(context.Background(), mint)

	assert.Equal(t, "B263", meta.Symbol)
	assert.Equal(t, "Token DezX…B263", meta.Name)
	assert.Equal(t, -1, meta.Holders)
	assert.True(t, meta.Synthetic, "placeholder must be flagged synthetic")
}

func TestSyntheticMeta_Deterministic(t *testing.T) {
	a := SyntheticMeta(mint)
	b := SyntheticMeta(mint)
	assert.Equal(t, a, b)
}

func TestFlexFloat(t *testing.T) {
	var v struct {
		A flexFloat `json:"a"`
		B flexFloat `json:"b"`
		C flexFloat `json:"c"`
		D flexFloat `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":1.5,"b":"2.5","c":"junk","d":null}`), &v))
	assert.Equal(t, flexFloat(1.5), v.A)
	assert.Equal(t, flexFloat(2.5), v.B)
	assert.Equal(t, flexFloat(0), v.C)
	assert.Equal(t, flexFloat(0), v.D)
}
