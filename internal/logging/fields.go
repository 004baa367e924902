package logging

import (
	"log/slog"
	"time"
)

// Common field names.
const (
	FieldSource   = "source"
	FieldLines    = "lines"
	FieldParsed   = "parsed"
	FieldMatched  = "matched"
	FieldSkipped  = "skipped"
	FieldRate     = "lines_per_second"
	FieldDuration = "duration"
	FieldWorkers  = "workers"
	FieldError    = "error"
)

// Source returns a slog attribute for an input source name.
func Source(name string) slog.Attr {
	return slog.String(FieldSource, name)
}

// Lines returns a slog attribute for a raw line count.
func Lines(n int64) slog.Attr {
	return slog.Int64(FieldLines, n)
}

// Parsed returns a slog attribute for the number of input lines.
func Parsed(n int64) slog.Attr {
	return slog.Int64(FieldParsed, n)
}

// Matched returns a slog attribute for the number of counted lines.
func Matched(n int64) slog.Attr {
	return slog.Int64(FieldMatched, n)
}

// Skipped returns a slog attribute for the number of discarded lines.
func Skipped(n int64) slog.Attr {
	return slog.Int64(FieldSkipped, n)
}

// Rate returns a slog attribute for throughput in lines per second.
func Rate(perSecond float64) slog.Attr {
	return slog.Float64(FieldRate, perSecond)
}

// Duration returns a slog attribute for an elapsed time.
func Duration(d time.Duration) slog.Attr {
	return slog.Duration(FieldDuration, d)
}

// Workers returns a slog attribute for the worker count.
func Workers(n int) slog.Attr {
	return slog.Int(FieldWorkers, n)
}

// Error returns a slog attribute for an error.
func Error(err error) slog.Attr {
	return slog.String(FieldError, err.Error())
}
