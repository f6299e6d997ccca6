package scan

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/alpha-radar/pkg/config"
	"github.com/alpha-radar/pkg/extractor"
	"github.com/alpha-radar/pkg/models"
	"github.com/alpha-radar/pkg/scoring"
	"github.com/alpha-radar/pkg/twitter"
)

// SourceReader fetches recent relevant posts for one source.
type SourceReader interface {
	FetchRecent(ctx context.Context, src *twitter.Source, max int) []twitter.Post
}

// Inspector reads on-chain state. (nil, nil) means the account does not
// exist.
type Inspector interface {
	Inspect(ctx context.Context, address string) (*models.ChainInfo, error)
}

// Enricher reads market data and token metadata.
type Enricher interface {
	FetchMarket(ctx context.Context, address string) *models.MarketInfo
	FetchMeta(ctx context.Context, address string) models.TokenMeta
}

// Publisher pushes events to subscribers. The orchestrator never touches
// the transport.
type Publisher interface {
	Broadcast(event string, payload interface{})
}

// Recorder persists scan history. May be nil (history is best-effort).
type Recorder interface {
	BeginRun(startedAt time.Time) (int64, error)
	FinishRun(runID int64, contracts int, status, errMsg string) error
	SaveSnapshots(runID int64, contracts []models.ScoredContract) error
	LogMention(m models.Mention) error
	SaveCursor(handle, userID, lastTweetID string) error
}

// Orchestrator drives one full scan cycle: all sources, then all unique
// addresses, then scoring, ranking, and publishing. Sources and addresses
// are processed strictly one at a time with pacing delays: every
// downstream provider rate-limits, and concurrent fan-out gets us banned.
type Orchestrator struct {
	cfg       *config.Config
	sources   []*twitter.Source
	reader    SourceReader
	inspector Inspector
	enricher  Enricher
	cache     *Cache
	pub       Publisher
	rec       Recorder
}

func NewOrchestrator(cfg *config.Config, sources []*twitter.Source, reader SourceReader,
	inspector Inspector, enricher Enricher, cache *Cache, pub Publisher, rec Recorder) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		sources:   sources,
		reader:    reader,
		inspector: inspector,
		enricher:  enricher,
		cache:     cache,
		pub:       pub,
		rec:       rec,
	}
}

func (o *Orchestrator) Sources() []*twitter.Source { return o.sources }

func (o *Orchestrator) Cache() *Cache { return o.cache }

// Trigger starts a scan cycle in the background if none is running.
// Returns false when one is already active (the request is a no-op, not
// an error).
func (o *Orchestrator) Trigger(ctx context.Context) bool {
	if !o.cache.TryStart() {
		log.Info().Msg("scan already in progress, trigger ignored")
		return false
	}
	go o.runClaimed(ctx)
	return true
}

// RunCycle runs a scan synchronously (scheduler entry point). No-op when
// a cycle is already active.
func (o *Orchestrator) RunCycle(ctx context.Context) {
	if !o.cache.TryStart() {
		log.Info().Msg("scan already in progress, scheduled run skipped")
		return
	}
	o.runClaimed(ctx)
}

// runClaimed executes one cycle. The caller has already claimed the
// single-flight slot; the deferred finalizer releases it no matter how the
// cycle ends.
func (o *Orchestrator) runClaimed(ctx context.Context) {
	started := time.Now().UTC()
	var runID int64
	if o.rec != nil {
		if id, err := o.rec.BeginRun(started); err == nil {
			runID = id
		} else {
			log.Warn().Err(err).Msg("scan history unavailable")
		}
	}

	var cycleErr error
	var published int

	defer func() {
		if r := recover(); r != nil {
			cycleErr = fmt.Errorf("scan panic: %v", r)
		}
		o.cache.Finish()

		if cycleErr != nil {
			log.Error().Err(cycleErr).Msg("scan cycle failed")
			o.pub.Broadcast(hubEventScanError, map[string]string{"error": cycleErr.Error()})
			if o.rec != nil && runID != 0 {
				o.rec.FinishRun(runID, 0, "error", cycleErr.Error())
			}
		} else if o.rec != nil && runID != 0 {
			o.rec.FinishRun(runID, published, "ok", "")
		}

		_, lastUpdate := o.cache.Snapshot()
		o.pub.Broadcast(hubEventScanStatus, map[string]interface{}{
			"inProgress": false,
			"lastScan":   lastUpdate,
		})
	}()

	o.pub.Broadcast(hubEventScanStatus, map[string]interface{}{
		"inProgress": true,
		"stage":      "fetching_posts",
	})

	candidates, order := o.collectMentions(ctx)
	log.Info().Int("addresses", len(order)).Msg("🔎 mention collection done")

	o.pub.Broadcast(hubEventScanStatus, map[string]interface{}{
		"inProgress": true,
		"stage":      "processing_addresses",
		"total":      len(order),
	})

	contracts := o.processAddresses(ctx, candidates, order, started)

	// Composite rank: mentions dominate, then inverse risk, then social
	// weight. SliceStable keeps discovery order for exact ties.
	sort.SliceStable(contracts, func(i, j int) bool {
		ri := scoring.CompositeRank(contracts[i].MentionCount, contracts[i].RiskScore, contracts[i].SocialScore)
		rj := scoring.CompositeRank(contracts[j].MentionCount, contracts[j].RiskScore, contracts[j].SocialScore)
		return ri > rj
	})

	if ctx.Err() != nil {
		cycleErr = ctx.Err()
		return
	}

	now := time.Now().UTC()
	o.cache.Publish(contracts, now)
	published = len(contracts)

	if o.rec != nil && runID != 0 {
		if err := o.rec.SaveSnapshots(runID, contracts); err != nil {
			log.Warn().Err(err).Msg("snapshot persist failed")
		}
	}

	o.pub.Broadcast(hubEventContractsUpdate, map[string]interface{}{
		"contracts":  contracts,
		"lastUpdate": now,
		"stats":      statsFor(contracts),
	})

	log.Info().Int("contracts", published).Dur("took", time.Since(started)).Msg("✅ scan published")
}

// collectMentions drives every source reader in turn, extracting and
// aggregating candidate addresses. One source failing (reader returns
// empty) never aborts the cycle.
func (o *Orchestrator) collectMentions(ctx context.Context) (map[string]*models.Candidate, []string) {
	candidates := make(map[string]*models.Candidate)
	var order []string // discovery order, the map alone would be random

	for i, src := range o.sources {
		if ctx.Err() != nil {
			return candidates, order
		}

		posts := o.reader.FetchRecent(ctx, src, o.cfg.MaxTweets)
		for _, post := range posts {
			for _, addr := range extractor.Extract(post.Text) {
				cand, ok := candidates[addr]
				if !ok {
					cand = models.NewCandidate(addr)
					candidates[addr] = cand
					order = append(order, addr)
				}
				m := models.Mention{
					Address:  addr,
					Source:   src.Handle,
					PostID:   post.ID,
					Text:     post.Text,
					PostedAt: post.CreatedAt,
					Likes:    post.Likes,
					Shares:   post.Shares,
				}
				cand.Add(m)
				if o.rec != nil {
					o.rec.LogMention(m)
				}
			}
		}

		if o.rec != nil {
			o.rec.SaveCursor(src.Handle, src.UserID, src.LastTweetID)
		}

		if i < len(o.sources)-1 {
			pace(ctx, o.cfg.SourceDelay)
		}
	}

	return candidates, order
}

// processAddresses enriches and scores each unique address in discovery
// order. Missing accounts and stale low-interest addresses are dropped;
// market absence only degrades the score.
func (o *Orchestrator) processAddresses(ctx context.Context, candidates map[string]*models.Candidate, order []string, now time.Time) []models.ScoredContract {
	var contracts []models.ScoredContract

	for i, addr := range order {
		if ctx.Err() != nil {
			return contracts
		}

		cand := candidates[addr]

		info, err := o.inspector.Inspect(ctx, addr)
		if err != nil {
			log.Warn().Err(err).Str("addr", addr).Msg("chain inspection failed, skipping")
			pace(ctx, o.cfg.AddressDelay)
			continue
		}
		if info == nil {
			log.Debug().Str("addr", addr).Msg("no on-chain account, skipping")
			pace(ctx, o.cfg.AddressDelay)
			continue
		}

		age := info.Age(now)

		// Stale unless popular: a week-old contract nobody but one or
		// two accounts mention is noise, not alpha.
		if age > 7*24*time.Hour && cand.MentionCount() < 3 {
			log.Debug().Str("addr", addr).Int("mentions", cand.MentionCount()).Msg("stale address dropped")
			pace(ctx, o.cfg.AddressDelay)
			continue
		}

		market := o.enricher.FetchMarket(ctx, addr)
		meta := o.enricher.FetchMeta(ctx, addr)

		contracts = append(contracts, o.score(cand, info, market, meta, age, now))

		if (i+1)%5 == 0 {
			o.pub.Broadcast(hubEventScanStatus, map[string]interface{}{
				"inProgress": true,
				"stage":      "processing_addresses",
				"done":       i + 1,
				"total":      len(order),
			})
		}

		if i < len(order)-1 {
			pace(ctx, o.cfg.AddressDelay)
		}
	}

	return contracts
}

func (o *Orchestrator) score(cand *models.Candidate, info *models.ChainInfo,
	market *models.MarketInfo, meta models.TokenMeta, age time.Duration, now time.Time) models.ScoredContract {

	in := scoring.Input{
		Age:               age,
		MentionCount:      cand.MentionCount(),
		Engagement:        cand.Engagement(),
		SignatureCount:    info.SignatureCount,
		HasMarket:         market != nil,
		HasConcentration:  info.Supply != nil && len(info.TopHolders) > 0,
		ConcentrationRisk: info.ConcentrationRisk,
	}
	if market != nil {
		in.LiquidityUSD = market.LiquidityUSD
		in.Volume24h = market.Volume24h
		in.Change24h = market.Change24h
		in.Verified = market.Verified
	}

	risk := scoring.RiskScore(in)

	topHunter := false
	for src := range cand.Sources {
		if o.cfg.IsTopHunter(src) {
			topHunter = true
			break
		}
	}

	totalLikes := 0
	for _, m := range cand.Mentions {
		totalLikes += m.Likes
	}
	social := scoring.SocialScore(cand.MentionCount(), totalLikes)

	return models.ScoredContract{
		Address:        cand.Address,
		Symbol:         meta.Symbol,
		Name:           meta.Name,
		Synthetic:      meta.Synthetic,
		MentionCount:   cand.MentionCount(),
		Sources:        cand.SourceList(),
		Mentions:       cand.Mentions,
		RiskScore:      risk,
		SocialScore:    social,
		LiquidityScore: scoring.LiquidityScore(market != nil, liquidityOf(market), risk),
		Tags:           scoring.Tags(scoring.TagInput{Input: in, RiskScore: risk, TopHunterNamed: topHunter}),
		Market:         market,
		Holders:        meta.Holders,
		FirstSeen:      info.FirstSeen,
		AgeApproximate: info.SigLimitHit,
		SignatureCount: info.SignatureCount,
		ScannedAt:      now,
	}
}

func liquidityOf(m *models.MarketInfo) float64 {
	if m == nil {
		return 0
	}
	return m.LiquidityUSD
}

// pace sleeps for d unless the context ends first.
func pace(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}

// Event names on the push channel. Kept as locals so the orchestrator
// depends only on the Publisher interface, not the transport package.
const (
	hubEventContractsUpdate = "contracts-update"
	hubEventScanStatus      = "scan-status"
	hubEventScanError       = "scan-error"
)
