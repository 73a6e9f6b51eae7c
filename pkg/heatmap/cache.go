package heatmap

import (
	"sync"

	"github.com/ChicagoDave/latamgrid/pkg/dataset"
)

// Result is a computed heatmap for one metric over one snapshot. Values must
// not be modified.
type Result struct {
	Metric Metric
	Values map[string]float64
	Scale  Scale
}

// Compute extracts values for m and builds their scale.
func Compute(m Metric, snap *dataset.Snapshot) Result {
	values := m.Values(snap)
	return Result{Metric: m, Values: values, Scale: Build(values)}
}

// Color returns the fill for a named country.
func (r Result) Color(name string) string {
	return r.Scale.ColorFor(r.Values, name)
}

// Legend returns the legend for the result's scale.
func (r Result) Legend() Legend {
	return r.Scale.Legend(r.Metric.Title())
}

// Cache keeps the most recent Result, keyed by metric id and snapshot
// identity. Safe for concurrent use.
type Cache struct {
	mu       sync.Mutex
	metricID string
	snapKey  string
	snapID   string
	result   Result
	valid    bool
}

// Get returns the cached result when the metric and snapshot match the last
// call, and computes a fresh one otherwise.
func (c *Cache) Get(m Metric, snap *dataset.Snapshot) Result {
	var key, id string
	if snap != nil {
		key, id = snap.Key, snap.ID
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valid && c.metricID == m.ID && c.snapKey == key && c.snapID == id {
		return c.result
	}
	c.result = Compute(m, snap)
	c.metricID, c.snapKey, c.snapID = m.ID, key, id
	c.valid = true
	return c.result
}

// Reset empties the cache.
func (c *Cache) Reset() {
	c.mu.Lock()
	c.valid = false
	c.result = Result{}
	c.mu.Unlock()
}
