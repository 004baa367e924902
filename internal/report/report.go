// Package report turns the final frequency tables into ranked top-N sections.
package report

import (
	"math"
	"math/bits"
	"sort"
	"time"

	"github.com/Nao-Mk2/access-log-top/internal/aggregator"
	"github.com/Nao-Mk2/access-log-top/internal/config"
	"github.com/Nao-Mk2/access-log-top/internal/model"
)

// Record is one ranked key of a category.
type Record struct {
	Key     string  `json:"key" yaml:"key"`
	Value   int64   `json:"value" yaml:"value"`
	Percent float64 `json:"percent" yaml:"percent"`
}

// Section is the ranking of one category.
type Section struct {
	Category model.Category `json:"-" yaml:"-"`
	TopN     int            `json:"topn" yaml:"topn"`
	Total    int64          `json:"total" yaml:"total"`
	Records  []Record       `json:"records" yaml:"records"`
}

// Stats is the optional run summary emitted under "_stats".
type Stats struct {
	Parsed         int64   `json:"parsed" yaml:"parsed"`
	Matched        int64   `json:"matched" yaml:"matched"`
	Skipped        int64   `json:"skipped" yaml:"skipped"`
	Duration       string  `json:"duration" yaml:"duration"`
	LinesPerSecond float64 `json:"lines/s" yaml:"lines/s"`
	Started        string  `json:"started" yaml:"started"`
}

// Report holds one Section per category in report order.
type Report struct {
	Stats    *Stats
	Sections []Section
}

// Build ranks every category of a using the cutoffs in r.
func Build(a *aggregator.Aggregator, r *config.Rules) *Report {
	rep := &Report{}
	for _, c := range model.Categories() {
		t := a.Table(c)
		n := r.Cutoff(c)
		rep.Sections = append(rep.Sections, Section{
			Category: c,
			TopN:     n,
			Total:    t.Total(),
			Records:  Rank(t, n),
		})
	}
	return rep
}

// WithStats attaches the run summary of s.
func (r *Report) WithStats(s model.RunStats) *Report {
	r.Stats = NewStats(s)
	return r
}

// Section returns the section of category c.
func (r *Report) Section(c model.Category) (Section, bool) {
	for _, s := range r.Sections {
		if s.Category == c {
			return s, true
		}
	}
	return Section{}, false
}

// NewStats summarises s. Matched counts only the lines that reached the
// frequency tables.
func NewStats(s model.RunStats) *Stats {
	return &Stats{
		Parsed:         s.Parsed,
		Matched:        s.Counted(),
		Skipped:        s.Skipped,
		Duration:       s.Elapsed.Round(time.Millisecond).String(),
		LinesPerSecond: math.Round(s.LinesPerSecond()*100) / 100,
		Started:        s.Started.Format(time.RFC3339),
	}
}

// Rank returns the n most frequent keys of t, highest count first. Equal
// counts are ordered by key so the output is reproducible.
func Rank(t *aggregator.Table, n int) []Record {
	records := make([]Record, 0, t.Len())
	t.Each(func(k string, v int64) {
		records = append(records, Record{Key: k, Value: v})
	})
	sort.Slice(records, func(i, j int) bool {
		if records[i].Value == records[j].Value {
			return records[i].Key < records[j].Key
		}
		return records[i].Value > records[j].Value
	})
	if n < len(records) {
		records = records[:n]
	}
	total := t.Total()
	for i := range records {
		records[i].Percent = Percent(records[i].Value, total)
	}
	return records
}

// Percent returns 100*value/total rounded to two decimals, half to even.
// The division is done on integers so boundary values such as 0.125 round
// exactly instead of depending on their binary representation.
func Percent(value, total int64) float64 {
	if total <= 0 || value <= 0 {
		return 0
	}
	if value > total {
		return math.RoundToEven(float64(value)*10000/float64(total)) / 100
	}
	t := uint64(total)
	hi, lo := bits.Mul64(uint64(value), 10000)
	q, r := bits.Div64(hi, lo, t)
	switch twice := 2 * r; {
	case twice > t:
		q++
	case twice == t && q%2 == 1:
		q++
	}
	return float64(q) / 100
}
