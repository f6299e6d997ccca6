package scan

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/alpha-radar/pkg/models"
	"github.com/alpha-radar/pkg/scoring"
)

// Cache holds the single current ranked result set. One writer (the
// orchestrator's publish step), many readers (REST handlers, fan-out).
// Publishing replaces the whole slice; readers always see either the
// previous complete set or the new complete set, never a partial one.
type Cache struct {
	mu         sync.RWMutex
	contracts  []models.ScoredContract
	lastUpdate time.Time

	inProgress atomic.Bool
}

func NewCache() *Cache {
	return &Cache{}
}

// Snapshot returns the current ranked list and its publish time. The
// returned slice must not be mutated by callers.
func (c *Cache) Snapshot() ([]models.ScoredContract, time.Time) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.contracts, c.lastUpdate
}

// Publish atomically replaces the result set.
func (c *Cache) Publish(contracts []models.ScoredContract, at time.Time) {
	c.mu.Lock()
	c.contracts = contracts
	c.lastUpdate = at
	c.mu.Unlock()
}

// TryStart claims the single-flight scan slot. False means a scan is
// already running and the caller must not start another.
func (c *Cache) TryStart() bool {
	return c.inProgress.CompareAndSwap(false, true)
}

// Finish releases the scan slot.
func (c *Cache) Finish() {
	c.inProgress.Store(false)
}

func (c *Cache) InProgress() bool {
	return c.inProgress.Load()
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.contracts)
}

// Lookup returns the cached entry for an address, if present.
func (c *Cache) Lookup(address string) (models.ScoredContract, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, sc := range c.contracts {
		if sc.Address == address {
			return sc, true
		}
	}
	return models.ScoredContract{}, false
}

// Stats summarizes the current set for status payloads.
func (c *Cache) Stats() models.ScanStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return statsFor(c.contracts)
}

func statsFor(contracts []models.ScoredContract) models.ScanStats {
	var st models.ScanStats
	for _, sc := range contracts {
		if sc.RiskScore < 30 {
			st.LowRisk++
		}
		if sc.MentionCount > 4 {
			st.Trending++
		}
		for _, tag := range sc.Tags {
			if tag == scoring.TagUltraFresh || tag == scoring.TagFresh || tag == scoring.TagNew {
				st.Fresh++
				break
			}
		}
	}
	return st
}
