package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Nao-Mk2/access-log-top/internal/config"
	"github.com/Nao-Mk2/access-log-top/internal/model"
)

// Options holds the flags that are not plain config keys.
type Options struct {
	ConfigFile string
	TopN       map[string]int
}

// flagKeys maps flag names to the config keys they override.
var flagKeys = map[string]string{
	"default-topn":     "default_topn",
	"skip-profile":     "skip_profile",
	"skip-pattern":     "skip_patterns",
	"user-status-gate": "user_status_gate",
	"classify-cache":   "classify_cache",
	"workers":          "workers",
	"batch-size":       "batch_size",
	"progress-every":   "progress_every",
	"format":           "format",
	"stats":            "stats",
	"verbose":          "verbose",
	"query":            "query",
	"metrics-file":     "metrics_file",
	"log-level":        "logging.level",
	"log-format":       "logging.format",
	"groups":           "cloudwatch.groups",
	"region":           "cloudwatch.region",
	"profile":          "cloudwatch.profile",
	"filter-pattern":   "cloudwatch.filter_pattern",
	"start":            "cloudwatch.start",
	"end":              "cloudwatch.end",
}

// AddFlags registers the analysis flags on fs.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	d := config.Default()

	fs.StringVarP(&o.ConfigFile, "config", "c", "", "config file (default: ./.access-log-top.yaml or $HOME/.access-log-top.yaml)")
	fs.StringToIntVar(&o.TopN, "topn", nil, "per-category cutoff, e.g. --topn req=100,ip=5")
	fs.Int("default-topn", d.DefaultTopN, "cutoff for categories without an explicit one")
	fs.String("skip-profile", d.SkipProfile, "noise paths to discard: canonical or legacy")
	fs.StringSlice("skip-pattern", nil, "regexp of request paths to discard (replaces --skip-profile)")
	fs.Bool("user-status-gate", d.UserStatusGate, "count user paths only for 200 responses")
	fs.Bool("classify-cache", d.ClassifyCache, "memoise classification per request path")
	fs.IntP("workers", "w", d.Workers, "parse/classify workers")
	fs.Int("batch-size", d.BatchSize, "lines handed to a worker at once")
	fs.Int64("progress-every", d.ProgressEvery, "log progress every N input lines in verbose mode (0 disables)")
	fs.StringP("format", "f", d.Format, "output format: json, yaml, text")
	fs.Bool("stats", d.Stats, "include the _stats section")
	fs.BoolP("verbose", "v", d.Verbose, "log progress and a run summary to stderr")
	fs.StringP("query", "q", "", "JMESPath expression applied to the report")
	fs.String("metrics-file", "", "write Prometheus metrics to this textfile")
	fs.String("log-level", d.Logging.Level, "log level in verbose mode: debug, info, warn, error")
	fs.String("log-format", d.Logging.Format, "log format: text, json")
	fs.StringSlice("groups", nil, "CloudWatch log groups to read (or set LOG_GROUP_NAMES)")
	fs.String("region", "", "AWS region (optional; falls back to AWS defaults)")
	fs.String("profile", "", "AWS shared config profile (or set AWS_PROFILE)")
	fs.String("filter-pattern", "", "CloudWatch Logs filter pattern")
	fs.String("start", "", "CloudWatch start time RFC3339 (default: end - 24h)")
	fs.String("end", "", "CloudWatch end time RFC3339 (default: now)")
}

// BindFlags makes the flags of fs override their config keys in v.
func BindFlags(fs *pflag.FlagSet, v *viper.Viper) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			return fmt.Errorf("flag --%s not registered", name)
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind --%s: %w", name, err)
		}
	}
	return nil
}

// LoadConfig merges defaults, the config file, environment and flags, then
// validates and compiles the result. Every error it returns is a usage error.
func (o *Options) LoadConfig(fs *pflag.FlagSet, v *viper.Viper) (*config.Config, *config.Rules, error) {
	if err := BindFlags(fs, v); err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load(v, o.ConfigFile)
	if err != nil {
		return nil, nil, usageError{err}
	}
	if err := o.applyTopN(cfg); err != nil {
		return nil, nil, usageError{err}
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, usageError{err}
	}
	rules, err := cfg.Compile()
	if err != nil {
		return nil, nil, usageError{err}
	}
	return cfg, rules, nil
}

// applyTopN overlays the --topn entries on the configured cutoffs.
func (o *Options) applyTopN(cfg *config.Config) error {
	if len(o.TopN) == 0 {
		return nil
	}
	merged := make(map[string]int, len(cfg.TopN)+len(o.TopN))
	for k, n := range cfg.TopN {
		merged[k] = n
	}
	for k, n := range o.TopN {
		if _, err := model.ParseCategory(k); err != nil {
			return fmt.Errorf("--topn %s=%d: %w", k, n, err)
		}
		merged[k] = n
	}
	cfg.TopN = merged
	return nil
}

// ResolveTimeWindow computes the [start,end] from optional RFC3339 strings.
// Rules:
// - both empty: last 24h ending at now
// - only start: end = now
// - only end: start = end - 24h
// - both set: validate start <= end
func ResolveTimeWindow(startStr, endStr string, now time.Time) (time.Time, time.Time, error) {
	if startStr == "" && endStr == "" {
		return now.Add(-24 * time.Hour), now, nil
	}
	var start, end time.Time
	var err error
	if startStr != "" {
		start, err = time.Parse(time.RFC3339, startStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("--start: %w", err)
		}
	}
	if endStr != "" {
		end, err = time.Parse(time.RFC3339, endStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("--end: %w", err)
		}
	}
	if startStr != "" && endStr == "" {
		end = now
	} else if startStr == "" && endStr != "" {
		start = end.Add(-24 * time.Hour)
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, ErrStartAfterEnd
	}
	return start, end, nil
}

// ErrStartAfterEnd represents an invalid time window where start > end.
var ErrStartAfterEnd = errors.New("start is after end")

// usageError marks errors caused by flags or configuration. They exit 2.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

// IsUsageError reports whether err was caused by bad flags or configuration.
func IsUsageError(err error) bool {
	var u usageError
	return errors.As(err, &u)
}
