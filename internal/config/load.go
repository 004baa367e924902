package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. ACCESS_LOG_TOP_WORKERS.
const EnvPrefix = "ACCESS_LOG_TOP"

// NewViper returns a viper instance carrying the defaults and environment
// bindings. Callers bind their flags to it before calling Load.
func NewViper() *viper.Viper {
	v := viper.New()
	d := Default()

	v.SetDefault("topn", d.TopN)
	v.SetDefault("default_topn", d.DefaultTopN)
	v.SetDefault("line_pattern", d.LinePattern)
	v.SetDefault("skip_profile", d.SkipProfile)
	v.SetDefault("skip_patterns", []string{})
	v.SetDefault("user_pattern", d.UserPattern)
	v.SetDefault("entity_pattern", d.EntityPattern)
	v.SetDefault("sitemap_pattern", d.SitemapPattern)
	v.SetDefault("user_status_gate", d.UserStatusGate)
	v.SetDefault("classify_cache", d.ClassifyCache)
	v.SetDefault("classify_cache_ttl", d.ClassifyCacheTTL)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("batch_size", d.BatchSize)
	v.SetDefault("progress_every", d.ProgressEvery)
	v.SetDefault("format", d.Format)
	v.SetDefault("stats", d.Stats)
	v.SetDefault("verbose", d.Verbose)
	v.SetDefault("query", d.Query)
	v.SetDefault("metrics_file", d.MetricsFile)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("cloudwatch.groups", []string{})
	v.SetDefault("cloudwatch.region", "")
	v.SetDefault("cloudwatch.profile", "")
	v.SetDefault("cloudwatch.filter_pattern", "")
	v.SetDefault("cloudwatch.start", "")
	v.SetDefault("cloudwatch.end", "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The AWS and log-group variables keep their conventional names.
	_ = v.BindEnv("cloudwatch.groups", EnvPrefix+"_CLOUDWATCH_GROUPS", "LOG_GROUP_NAMES")
	_ = v.BindEnv("cloudwatch.region", EnvPrefix+"_CLOUDWATCH_REGION", "AWS_REGION")
	_ = v.BindEnv("cloudwatch.profile", EnvPrefix+"_CLOUDWATCH_PROFILE", "AWS_PROFILE")

	return v
}

// Load reads the config file into v and decodes the merged settings.
// An explicit cfgFile must exist; otherwise .access-log-top.yaml is looked
// up in the working directory and the home directory, and may be absent.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(".access-log-top")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.CloudWatch.Groups = ParseGroups(cfg.CloudWatch.Groups)
	return cfg, nil
}

// ParseGroups trims group names and drops empties. Each element may itself
// be a comma-separated list, as LOG_GROUP_NAMES is.
func ParseGroups(in []string) []string {
	var groups []string
	for _, s := range in {
		for _, g := range strings.Split(s, ",") {
			g = strings.TrimSpace(g)
			if g != "" {
				groups = append(groups, g)
			}
		}
	}
	return groups
}
