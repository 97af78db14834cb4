package plan

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/atomic"
	"golang.org/x/sync/singleflight"
)

// Plan is a compiled statement and the layout the engine reads its rows with
type Plan struct {
	Key Key
	// Description is the query label used in summaries, e.g. "find customer"
	Description string
	// Properties holds the property path read from each selected column, in column order
	Properties []string
	stats      Stats
}

func (p *Plan) Stats() *Stats {
	return &p.stats
}

// Stats are the execution statistics of a plan. Safe for concurrent use.
type Stats struct {
	count       atomic.Int64
	rows        atomic.Int64
	totalMicros atomic.Int64
	maxMicros   atomic.Int64
}

// StatsSnapshot is a point in time copy of Stats
type StatsSnapshot struct {
	Count       int64 `json:"count" yaml:"count"`
	Rows        int64 `json:"rows" yaml:"rows"`
	TotalMicros int64 `json:"totalMicros" yaml:"totalMicros"`
	MaxMicros   int64 `json:"maxMicros" yaml:"maxMicros"`
	MeanMicros  int64 `json:"meanMicros" yaml:"meanMicros"`
}

// Add records one execution
func (s *Stats) Add(elapsed time.Duration, rows int) {
	micros := elapsed.Microseconds()
	s.count.Inc()
	s.rows.Add(int64(rows))
	s.totalMicros.Add(micros)
	for {
		max := s.maxMicros.Load()
		if micros <= max || s.maxMicros.CAS(max, micros) {
			return
		}
	}
}

func (s *Stats) Snapshot() StatsSnapshot {
	snap := StatsSnapshot{
		Count:       s.count.Load(),
		Rows:        s.rows.Load(),
		TotalMicros: s.totalMicros.Load(),
		MaxMicros:   s.maxMicros.Load(),
	}
	if snap.Count > 0 {
		snap.MeanMicros = snap.TotalMicros / snap.Count
	}
	return snap
}

// Cache holds compiled plans by key. It is passed to the engine and shared by
// all queries compiled by it.
type Cache struct {
	mu     sync.RWMutex
	plans  map[Key]*Plan
	group  singleflight.Group
	hits   atomic.Int64
	misses atomic.Int64
}

type CacheStats struct {
	Size   int   `json:"size" yaml:"size"`
	Hits   int64 `json:"hits" yaml:"hits"`
	Misses int64 `json:"misses" yaml:"misses"`
}

func NewCache() *Cache {
	return &Cache{plans: make(map[Key]*Plan)}
}

func (c *Cache) get(key Key) (*Plan, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.plans[key]
	return p, ok
}

// GetOrCompute returns the plan for key, calling compute when it is not cached.
// Concurrent callers for the same key wait for a single compute call.
// A failed compute is not cached.
func (c *Cache) GetOrCompute(key Key, compute func() (*Plan, error)) (*Plan, error) {
	if p, ok := c.get(key); ok {
		c.hits.Inc()
		return p, nil
	}

	v, err, _ := c.group.Do(key.flightKey(), func() (interface{}, error) {
		if p, ok := c.get(key); ok {
			return p, nil
		}
		p, err := compute()
		if err != nil {
			return nil, err
		}
		p.Key = key
		c.mu.Lock()
		c.plans[key] = p
		c.mu.Unlock()
		c.misses.Inc()
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Plan), nil
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.plans)
}

func (c *Cache) Stats() CacheStats {
	return CacheStats{Size: c.Len(), Hits: c.hits.Load(), Misses: c.misses.Load()}
}

// Plans returns the cached plans ordered by SQL
func (c *Cache) Plans() []*Plan {
	c.mu.RLock()
	plans := make([]*Plan, 0, len(c.plans))
	for _, p := range c.plans {
		plans = append(plans, p)
	}
	c.mu.RUnlock()

	sort.Slice(plans, func(i, j int) bool {
		return plans[i].Key.SQL < plans[j].Key.SQL
	})
	return plans
}

func (c *Cache) Clear() {
	c.mu.Lock()
	c.plans = make(map[Key]*Plan)
	c.mu.Unlock()
	c.hits.Store(0)
	c.misses.Store(0)
}
