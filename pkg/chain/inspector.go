package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/alpha-radar/pkg/models"
	"github.com/alpha-radar/pkg/scoring"
)

// Inspector reads Solana state for one address at a time over plain
// JSON-RPC, so it works against any provider (public mainnet, Helius,
// QuickNode, Chainstack). Calls are paced through a shared limiter to stay
// under public-endpoint rate limits.
type Inspector struct {
	rpcURL   string
	sigLimit int
	client   *http.Client
	limiter  *rate.Limiter
}

func NewInspector(rpcURL string, sigLimit int) *Inspector {
	if sigLimit <= 0 {
		sigLimit = 1000
	}
	return &Inspector{
		rpcURL:   rpcURL,
		sigLimit: sigLimit,
		client:   &http.Client{Timeout: 10 * time.Second},
		limiter:  rate.NewLimiter(rate.Limit(8), 2), // 8 req/s, small burst
	}
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int           `json:"id"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
	ID      int             `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (in *Inspector) rpcCall(ctx context.Context, method string, params []interface{}) (json.RawMessage, error) {
	if err := in.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqBody, _ := json.Marshal(rpcRequest{JSONRPC: "2.0", Method: method, Params: params, ID: 1})

	req, err := http.NewRequestWithContext(ctx, "POST", in.rpcURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := in.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, err
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return nil, fmt.Errorf("rpc unmarshal: %w", err)
	}
	if rpcResp.Error != nil {
		return nil, fmt.Errorf("rpc error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}
	return rpcResp.Result, nil
}

// Inspect builds the on-chain snapshot for one address. Returns (nil, nil)
// when the account does not exist; the caller drops the address for this
// cycle. Supply and holder lookups failing is expected (most addresses are
// not mints) and leaves those fields absent rather than erroring.
func (in *Inspector) Inspect(ctx context.Context, address string) (*models.ChainInfo, error) {
	acct, err := in.getAccountInfo(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("getAccountInfo %s: %w", address, err)
	}
	if acct == nil {
		return nil, nil
	}

	info := &models.ChainInfo{
		Address:  address,
		Owner:    acct.Owner,
		Lamports: acct.Lamports,
	}

	if supply, err := in.getTokenSupply(ctx, address); err == nil {
		info.Supply = supply
	}
	if info.Supply != nil {
		if holders, err := in.getLargestHolders(ctx, address); err == nil {
			info.TopHolders = holders
		} else {
			log.Debug().Err(err).Str("addr", abbrev(address)).Msg("largest accounts unavailable")
		}
	}

	first, count, limitHit, err := in.signatureHistory(ctx, address)
	if err != nil {
		// History failure is survivable: treat as brand new, which the
		// scorer reads as maximum-age risk.
		log.Warn().Err(err).Str("addr", abbrev(address)).Msg("signature history failed")
		first = time.Now().UTC()
	}
	info.FirstSeen = first
	info.SignatureCount = count
	info.SigLimitHit = limitHit

	topShare, known := topHolderShare(info)
	info.ConcentrationRisk = scoring.ConcentrationRisk(topShare, known)

	return info, nil
}

type accountInfo struct {
	Owner    string
	Lamports uint64
}

func (in *Inspector) getAccountInfo(ctx context.Context, address string) (*accountInfo, error) {
	result, err := in.rpcCall(ctx, "getAccountInfo", []interface{}{
		address,
		map[string]interface{}{"encoding": "base64"},
	})
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Value *struct {
			Owner    string `json:"owner"`
			Lamports uint64 `json:"lamports"`
		} `json:"value"`
	}
	if err := json.Unmarshal(result, &parsed); err != nil {
		return nil, err
	}
	if parsed.Value == nil {
		return nil, nil // account does not exist
	}
	return &accountInfo{Owner: parsed.Value.Owner, Lamports: parsed.Value.Lamports}, nil
}

func (in *Inspector) getTokenSupply(ctx context.Context, address string) (*models.TokenSupply, error) {
	result, err := in.rpcCall(ctx, "getTokenSupply", []interface{}{address})
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Value struct {
			Amount   string `json:"amount"`
			Decimals int    `json:"decimals"`
		} `json:"value"`
	}
	if err := json.Unmarshal(result, &parsed); err != nil {
		return nil, err
	}
	if parsed.Value.Amount == "" {
		return nil, fmt.Errorf("empty supply")
	}

	raw, err := strconv.ParseFloat(parsed.Value.Amount, 64)
	if err != nil {
		return nil, err
	}
	amount := raw
	for i := 0; i < parsed.Value.Decimals; i++ {
		amount /= 10
	}
	return &models.TokenSupply{Amount: amount, Decimals: parsed.Value.Decimals}, nil
}

func (in *Inspector) getLargestHolders(ctx context.Context, address string) ([]float64, error) {
	result, err := in.rpcCall(ctx, "getTokenLargestAccounts", []interface{}{address})
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Value []struct {
			UIAmount *float64 `json:"uiAmount"`
		} `json:"value"`
	}
	if err := json.Unmarshal(result, &parsed); err != nil {
		return nil, err
	}

	var holders []float64
	for _, v := range parsed.Value {
		if v.UIAmount != nil {
			holders = append(holders, *v.UIAmount)
		}
	}
	return holders, nil
}

// signatureHistory fetches up to sigLimit recent signatures. FirstSeen is
// the block time of the oldest signature in the window, an undercount of
// true age for very active addresses, which limitHit surfaces to callers.
func (in *Inspector) signatureHistory(ctx context.Context, address string) (firstSeen time.Time, count int, limitHit bool, err error) {
	result, err := in.rpcCall(ctx, "getSignaturesForAddress", []interface{}{
		address,
		map[string]interface{}{"limit": in.sigLimit},
	})
	if err != nil {
		return time.Time{}, 0, false, err
	}

	var sigs []struct {
		Signature string `json:"signature"`
		BlockTime *int64 `json:"blockTime"`
	}
	if err := json.Unmarshal(result, &sigs); err != nil {
		return time.Time{}, 0, false, err
	}

	if len(sigs) == 0 {
		// No retrievable history: treat the address as first seen now.
		return time.Now().UTC(), 0, false, nil
	}

	// Signatures come back newest first; the oldest is the last entry
	// with a block time.
	first := time.Now().UTC()
	for i := len(sigs) - 1; i >= 0; i-- {
		if sigs[i].BlockTime != nil {
			first = time.Unix(*sigs[i].BlockTime, 0).UTC()
			break
		}
	}
	return first, len(sigs), len(sigs) >= in.sigLimit, nil
}

// topHolderShare returns the top-5 holders' share of supply in percent.
func topHolderShare(info *models.ChainInfo) (share float64, known bool) {
	if info.Supply == nil || info.Supply.Amount <= 0 || len(info.TopHolders) == 0 {
		return 0, false
	}
	top := info.TopHolders
	if len(top) > 5 {
		top = top[:5]
	}
	sum := 0.0
	for _, h := range top {
		sum += h
	}
	return sum / info.Supply.Amount * 100, true
}

func abbrev(addr string) string {
	if len(addr) > 12 {
		return addr[:6] + "..." + addr[len(addr)-4:]
	}
	return addr
}
