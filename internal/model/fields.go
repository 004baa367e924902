package model

import "time"

// Fields is one access-log line after parsing. The classifier rewrites
// Request in place and may set UserReq or Sitemap; an empty derived value
// means the rule did not fire.
type Fields struct {
	IP        string
	Request   string
	Status    string
	Referrer  string
	UserAgent string

	UserReq string
	Sitemap string
}

// Value returns the field tracked by category c and whether it is present.
func (f *Fields) Value(c Category) (string, bool) {
	switch c {
	case CategoryIP:
		return f.IP, true
	case CategoryStatus:
		return f.Status, true
	case CategoryRequest:
		return f.Request, true
	case CategoryReferrer:
		return f.Referrer, true
	case CategoryUserAgent:
		return f.UserAgent, true
	case CategoryUserReq:
		return f.UserReq, f.UserReq != ""
	case CategorySitemap:
		return f.Sitemap, f.Sitemap != ""
	}
	return "", false
}

// RunStats counts what happened to the input lines of one run.
type RunStats struct {
	Parsed  int64 // every input line
	Matched int64 // lines satisfying the line grammar
	Skipped int64 // matched lines discarded by the skip rule
	Started time.Time
	Elapsed time.Duration
}

// Counted returns the number of lines that reached the frequency tables.
func (s RunStats) Counted() int64 {
	return s.Matched - s.Skipped
}

// LinesPerSecond returns the input throughput over Elapsed.
func (s RunStats) LinesPerSecond() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Parsed) / s.Elapsed.Seconds()
}

// Add accumulates the line counters of o into s.
func (s *RunStats) Add(o RunStats) {
	s.Parsed += o.Parsed
	s.Matched += o.Matched
	s.Skipped += o.Skipped
}
