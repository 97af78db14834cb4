package plan

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

func TestCacheComputesOnce(t *testing.T) {
	c := NewCache()
	key := NewKey("select t0.id from customer t0", false, false, "")
	calls := atomic.NewInt32(0)

	var wg sync.WaitGroup
	plans := make([]*Plan, 50)
	for i := range plans {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := c.GetOrCompute(key, func() (*Plan, error) {
				calls.Inc()
				time.Sleep(10 * time.Millisecond)
				return &Plan{Description: "find customer", Properties: []string{"id"}}, nil
			})
			assert.NoError(t, err)
			plans[i] = p
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, p := range plans {
		assert.Same(t, plans[0], p)
	}
	assert.Equal(t, key, plans[0].Key)

	stats := c.Stats()
	assert.Equal(t, 1, stats.Size)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestCacheHitsAndErrors(t *testing.T) {
	c := NewCache()
	key := NewKey("select 1", true, false, "")

	_, err := c.GetOrCompute(key, func() (*Plan, error) {
		return nil, errors.New("bad column")
	})
	assert.EqualError(t, err, "bad column")
	assert.Equal(t, 0, c.Len())

	compute := func() (*Plan, error) { return &Plan{}, nil }
	p1, err := c.GetOrCompute(key, compute)
	require.NoError(t, err)
	p2, err := c.GetOrCompute(NewKey("select 1", true, false, ""), compute)
	require.NoError(t, err)
	assert.Same(t, p1, p2)

	assert.Equal(t, CacheStats{Size: 1, Hits: 1, Misses: 1}, c.Stats())

	c.Clear()
	assert.Equal(t, CacheStats{}, c.Stats())
}

func TestCachePlansOrdered(t *testing.T) {
	c := NewCache()
	for _, sql := range []string{"select b", "select a", "select c"} {
		_, err := c.GetOrCompute(NewKey(sql, false, false, ""), func() (*Plan, error) { return &Plan{}, nil })
		require.NoError(t, err)
	}

	var sqls []string
	for _, p := range c.Plans() {
		sqls = append(sqls, p.Key.SQL)
	}
	assert.Equal(t, []string{"select a", "select b", "select c"}, sqls)
}

func TestStats(t *testing.T) {
	p := &Plan{}
	p.Stats().Add(300*time.Microsecond, 2)
	p.Stats().Add(100*time.Microsecond, 0)
	p.Stats().Add(200*time.Microsecond, 1)

	assert.Equal(t, StatsSnapshot{Count: 3, Rows: 3, TotalMicros: 600, MaxMicros: 300, MeanMicros: 200},
		p.Stats().Snapshot())
	assert.Equal(t, StatsSnapshot{}, (&Plan{}).Stats().Snapshot())
}
