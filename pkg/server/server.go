package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/alpha-radar/pkg/config"
	"github.com/alpha-radar/pkg/db"
	"github.com/alpha-radar/pkg/extractor"
	"github.com/alpha-radar/pkg/models"
	"github.com/alpha-radar/pkg/scan"
)

// Subscribers is what the server needs from the WebSocket layer.
type Subscribers interface {
	ServeWS(w http.ResponseWriter, r *http.Request)
	ClientCount() int
}

// History is the optional sqlite-backed run log.
type History interface {
	RecentRuns(limit int) ([]db.RunSummary, error)
}

// Server exposes the scan results over REST plus the /ws upgrade.
type Server struct {
	cfg       *config.Config
	orch      *scan.Orchestrator
	inspector scan.Inspector
	enricher  scan.Enricher
	subs      Subscribers
	history   History
	started   time.Time
}

func New(cfg *config.Config, orch *scan.Orchestrator, inspector scan.Inspector,
	enricher scan.Enricher, subs Subscribers, history History) *Server {
	return &Server{
		cfg:       cfg,
		orch:      orch,
		inspector: inspector,
		enricher:  enricher,
		subs:      subs,
		history:   history,
		started:   time.Now().UTC(),
	}
}

// Router builds the full route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(corsMiddleware, logMiddleware)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/scan", s.handleScan).Methods("GET", "OPTIONS")
	api.HandleFunc("/scan/trigger", s.handleTrigger).Methods("POST", "OPTIONS")
	api.HandleFunc("/contract/{address}", s.handleContract).Methods("GET", "OPTIONS")
	api.HandleFunc("/status", s.handleStatus).Methods("GET", "OPTIONS")
	api.HandleFunc("/hunters", s.handleHunters).Methods("GET", "OPTIONS")
	api.HandleFunc("/health", s.handleHealth).Methods("GET", "OPTIONS")
	api.HandleFunc("/runs", s.handleRuns).Methods("GET", "OPTIONS")

	r.HandleFunc("/ws", s.subs.ServeWS)
	return r
}

// Run serves until ctx is cancelled, then drains with a short grace
// period.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("🌐 api server started")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug().Str("method", r.Method).Str("path", r.URL.Path).
			Dur("took", time.Since(start)).Msg("request")
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{"success": false, "error": msg})
}

// handleScan returns the cached ranked feed. An empty cache with no scan
// running kicks one off in the background so the first caller primes the
// system instead of polling forever.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	cache := s.orch.Cache()
	contracts, lastUpdate := cache.Snapshot()

	triggered := false
	if len(contracts) == 0 && !cache.InProgress() {
		triggered = s.orch.Trigger(context.Background())
	}

	if contracts == nil {
		contracts = []models.ScoredContract{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"contracts":  contracts,
		"count":      len(contracts),
		"lastUpdate": lastUpdate,
		"scanning":   cache.InProgress(),
		"stats":      cache.Stats(),
		"triggered":  triggered,
	})
}

func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	// The scan outlives this request; the request context dies the moment
	// the handler returns, which would kill the cycle mid-flight.
	if !s.orch.Trigger(context.Background()) {
		writeError(w, http.StatusTooManyRequests, "scan already in progress")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "scan started",
	})
}

// handleContract serves a single address: the cached scored entry when we
// have one, merged with a fresh on-chain and market read.
func (s *Server) handleContract(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]
	if !extractor.IsValidAddress(address) {
		writeError(w, http.StatusBadRequest, "not a valid solana address")
		return
	}

	info, err := s.inspector.Inspect(r.Context(), address)
	if err != nil {
		writeError(w, http.StatusBadGateway, "chain lookup failed")
		return
	}
	if info == nil {
		writeError(w, http.StatusNotFound, "no account found at this address")
		return
	}

	resp := map[string]interface{}{
		"success": true,
		"address": address,
		"chain":   info,
		"market":  s.enricher.FetchMarket(r.Context(), address),
		"meta":    s.enricher.FetchMeta(r.Context(), address),
	}
	if cached, ok := s.orch.Cache().Lookup(address); ok {
		resp["scored"] = cached
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	cache := s.orch.Cache()
	_, lastUpdate := cache.Snapshot()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"scanning":  cache.InProgress(),
		"lastScan":  lastUpdate,
		"contracts": cache.Len(),
		"stats":     cache.Stats(),
		"clients":   s.subs.ClientCount(),
		"hunters":   len(s.orch.Sources()),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) handleHunters(w http.ResponseWriter, r *http.Request) {
	type hunterView struct {
		Handle     string `json:"handle"`
		ProfileURL string `json:"profile_url"`
		Top        bool   `json:"top"`
		LastPostID string `json:"last_post_id,omitempty"`
	}

	var hunters []hunterView
	for _, src := range s.orch.Sources() {
		hunters = append(hunters, hunterView{
			Handle:     src.Handle,
			ProfileURL: src.ProfileURL(),
			Top:        s.cfg.IsTopHunter(src.Handle),
			LastPostID: src.LastTweetID,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"hunters": hunters,
		"count":   len(hunters),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"status":  "ok",
		"dependencies": map[string]interface{}{
			"twitterAPI":  s.cfg.TwitterBearerToken != "",
			"nitter":      len(s.cfg.NitterInstances) > 0,
			"solanaRPC":   s.cfg.SolanaRPCURL,
			"dexScreener": s.cfg.DexScreenerAPI,
			"history":     s.history != nil,
		},
	})
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"runs":    []db.RunSummary{},
		})
		return
	}
	runs, err := s.history.RecentRuns(20)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	if runs == nil {
		runs = []db.RunSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"runs":    runs,
	})
}
