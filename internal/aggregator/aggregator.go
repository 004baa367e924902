// Package aggregator counts field values per category.
package aggregator

import (
	"time"

	"github.com/Nao-Mk2/access-log-top/internal/model"
)

// Table maps an observed key to its occurrence count. It never shrinks.
type Table struct {
	counts map[string]int64
	total  int64
}

// NewTable returns an empty Table.
func NewTable() *Table {
	return &Table{counts: make(map[string]int64)}
}

// Add increases the count of key by n.
func (t *Table) Add(key string, n int64) {
	t.counts[key] += n
	t.total += n
}

// Count returns the count of key.
func (t *Table) Count(key string) int64 {
	return t.counts[key]
}

// Len returns the number of distinct keys.
func (t *Table) Len() int {
	return len(t.counts)
}

// Total returns the sum of all counts.
func (t *Table) Total() int64 {
	return t.total
}

// Each calls fn for every key in unspecified order.
func (t *Table) Each(fn func(key string, count int64)) {
	for k, v := range t.counts {
		fn(k, v)
	}
}

// Aggregator holds one Table per category plus the line counters of the
// lines it has seen. It is not safe for concurrent use; run one per worker
// and Merge the shards.
type Aggregator struct {
	tables map[model.Category]*Table
	stats  model.RunStats
}

// New returns an Aggregator with an empty table for every category.
func New() *Aggregator {
	a := &Aggregator{tables: make(map[model.Category]*Table, len(model.Categories()))}
	for _, c := range model.Categories() {
		a.tables[c] = NewTable()
	}
	return a
}

// Observe counts every present field of f.
func (a *Aggregator) Observe(f *model.Fields) {
	for c, t := range a.tables {
		if v, ok := f.Value(c); ok {
			t.Add(v, 1)
		}
	}
}

// Table returns the table of category c.
func (a *Aggregator) Table(c model.Category) *Table {
	return a.tables[c]
}

// Stats returns the line counters and timing.
func (a *Aggregator) Stats() model.RunStats {
	return a.stats
}

// AddStats accumulates the line counters of s.
func (a *Aggregator) AddStats(s model.RunStats) {
	a.stats.Add(s)
}

// SetTiming records when the run started and how long it took.
func (a *Aggregator) SetTiming(started time.Time, elapsed time.Duration) {
	a.stats.Started = started
	a.stats.Elapsed = elapsed
}

// Merge adds the counts and counters of o into a.
func (a *Aggregator) Merge(o *Aggregator) {
	for c, t := range o.tables {
		dst := a.tables[c]
		t.Each(func(k string, n int64) {
			dst.Add(k, n)
		})
	}
	a.stats.Add(o.stats)
}
