// Package config holds the settings of one access-log-top run and compiles
// them into the immutable Rules shared by the parser, classifier and reporter.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Skip rule profiles.
const (
	SkipProfileCanonical = "canonical"
	SkipProfileLegacy    = "legacy"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatText = "text"
)

const (
	// DefaultLinePattern is the access-log grammar. Only 2xx and 3xx
	// responses match; every other status is filtered out on purpose.
	DefaultLinePattern = `^\S+ ` +
		`(?P<ip>\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}) - - ` +
		`\[.+\] ` +
		`"[A-Za-z]{3,6} (?P<req>\S+) [A-Za-z]{0,4}/\d\.\d" ` +
		`(?P<status>[23]\d\d) ` +
		`\d+ ` +
		`"(?P<referrer>.+)" ` +
		`"(?P<useragent>.+)"$`

	DefaultUserPattern    = `/user/`
	DefaultEntityPattern  = `(/(?:release|artist|event|release-group)/[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12})/?`
	DefaultSitemapPattern = `/sitemap-`

	DefaultTopN          = 20
	DefaultProgressEvery = 100000
	DefaultBatchSize     = 1024
)

// skipProfiles maps a profile name to its skip patterns.
var skipProfiles = map[string][]string{
	SkipProfileCanonical: {`/favicon\.ico$`, `/(?:ws|search|static)[/?]`},
	SkipProfileLegacy:    {`/favicon\.ico$`, `/ws[/?]`},
}

// SkipProfilePatterns returns the skip patterns of a named profile.
func SkipProfilePatterns(name string) ([]string, bool) {
	p, ok := skipProfiles[name]
	if !ok {
		return nil, false
	}
	return append([]string(nil), p...), true
}

// Config is the full set of settings after defaults, config file,
// environment and flags have been merged.
type Config struct {
	TopN        map[string]int `mapstructure:"topn"`
	DefaultTopN int            `mapstructure:"default_topn"`

	LinePattern    string   `mapstructure:"line_pattern"`
	SkipProfile    string   `mapstructure:"skip_profile"`
	SkipPatterns   []string `mapstructure:"skip_patterns"`
	UserPattern    string   `mapstructure:"user_pattern"`
	EntityPattern  string   `mapstructure:"entity_pattern"`
	SitemapPattern string   `mapstructure:"sitemap_pattern"`
	UserStatusGate bool     `mapstructure:"user_status_gate"`

	ClassifyCache    bool          `mapstructure:"classify_cache"`
	ClassifyCacheTTL time.Duration `mapstructure:"classify_cache_ttl"`

	Workers       int   `mapstructure:"workers"`
	BatchSize     int   `mapstructure:"batch_size"`
	ProgressEvery int64 `mapstructure:"progress_every"`

	Format      string `mapstructure:"format"`
	Stats       bool   `mapstructure:"stats"`
	Verbose     bool   `mapstructure:"verbose"`
	Query       string `mapstructure:"query"`
	MetricsFile string `mapstructure:"metrics_file"`

	Logging    LoggingConfig    `mapstructure:"logging"`
	CloudWatch CloudWatchConfig `mapstructure:"cloudwatch"`
}

// LoggingConfig holds diagnostic logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CloudWatchConfig selects CloudWatch Logs groups to read access-log lines from.
type CloudWatchConfig struct {
	Groups        []string `mapstructure:"groups"`
	Region        string   `mapstructure:"region"`
	Profile       string   `mapstructure:"profile"`
	FilterPattern string   `mapstructure:"filter_pattern"`
	Start         string   `mapstructure:"start"`
	End           string   `mapstructure:"end"`
}

// Default returns the canonical configuration.
func Default() *Config {
	return &Config{
		TopN: map[string]int{
			"req":     50,
			"sitemap": 10,
		},
		DefaultTopN:      DefaultTopN,
		LinePattern:      DefaultLinePattern,
		SkipProfile:      SkipProfileCanonical,
		UserPattern:      DefaultUserPattern,
		EntityPattern:    DefaultEntityPattern,
		SitemapPattern:   DefaultSitemapPattern,
		ClassifyCache:    true,
		ClassifyCacheTTL: 10 * time.Minute,
		Workers:          runtime.NumCPU(),
		BatchSize:        DefaultBatchSize,
		ProgressEvery:    DefaultProgressEvery,
		Format:           FormatJSON,
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks values that do not need compiling.
func (c *Config) Validate() error {
	switch c.Format {
	case FormatJSON, FormatYAML:
	case FormatText:
		if c.Query != "" {
			return fmt.Errorf("--query requires json or yaml output, got %q", c.Format)
		}
	default:
		return fmt.Errorf("unknown output format %q", c.Format)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("batch_size must be at least 1, got %d", c.BatchSize)
	}
	if c.ProgressEvery < 0 {
		return fmt.Errorf("progress_every must not be negative, got %d", c.ProgressEvery)
	}
	if c.DefaultTopN < 0 {
		return fmt.Errorf("default_topn must not be negative, got %d", c.DefaultTopN)
	}
	if len(c.SkipPatterns) == 0 {
		if _, ok := skipProfiles[c.SkipProfile]; !ok {
			return fmt.Errorf("unknown skip profile %q (want %s)", c.SkipProfile, strings.Join(profileNames(), ", "))
		}
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("unknown log format %q", c.Logging.Format)
	}
	return nil
}

func profileNames() []string {
	return []string{SkipProfileCanonical, SkipProfileLegacy}
}
