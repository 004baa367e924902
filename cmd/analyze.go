package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Nao-Mk2/access-log-top/internal/classifier"
	"github.com/Nao-Mk2/access-log-top/internal/client"
	"github.com/Nao-Mk2/access-log-top/internal/config"
	"github.com/Nao-Mk2/access-log-top/internal/inspector"
	"github.com/Nao-Mk2/access-log-top/internal/logging"
	"github.com/Nao-Mk2/access-log-top/internal/metrics"
	"github.com/Nao-Mk2/access-log-top/internal/output"
	"github.com/Nao-Mk2/access-log-top/internal/parser"
	"github.com/Nao-Mk2/access-log-top/internal/report"
	"github.com/Nao-Mk2/access-log-top/internal/source"
)

// newCloudWatchClient is replaced in tests.
var newCloudWatchClient = func(ctx context.Context, o client.AuthOptions) (*client.CloudWatchClient, error) {
	return client.NewCloudWatchClient(ctx, client.NewCloudWatchOptions(o)...)
}

// NewLogger builds the diagnostic logger. Outside verbose mode only
// warnings and errors are written.
func NewLogger(w io.Writer, cfg *config.Config) *logging.Logger {
	level := logging.ParseLevel(cfg.Logging.Level)
	if !cfg.Verbose && level < slog.LevelWarn {
		level = slog.LevelWarn
	}
	return logging.New(w, level, cfg.Logging.Format)
}

// analyze runs one pass over the inputs and prints the report.
func analyze(ctx context.Context, s Streams, cfg *config.Config, rules *config.Rules, args []string) error {
	log := NewLogger(s.Err, cfg)

	renderer, err := output.New(cfg.Format)
	if err != nil {
		return usageError{err}
	}
	if cfg.Query != "" {
		if err := output.ValidateQuery(cfg.Query); err != nil {
			return usageError{err}
		}
	}
	sources, err := buildSources(ctx, s.In, cfg, args, time.Now())
	if err != nil {
		return err
	}

	var m *metrics.Handler
	if cfg.MetricsFile != "" {
		m = metrics.New()
	}
	var copts []classifier.Option
	if cfg.ClassifyCache {
		copts = append(copts, classifier.WithCache(cfg.ClassifyCacheTTL))
	}
	progress := cfg.ProgressEvery
	if !cfg.Verbose {
		progress = 0
	}

	in := inspector.New(parser.New(rules), classifier.New(rules, copts...), inspector.Options{
		Workers:       cfg.Workers,
		BatchSize:     cfg.BatchSize,
		ProgressEvery: progress,
		Logger:        log.With(logging.Workers(cfg.Workers)),
		Metrics:       m,
	})
	agg, err := in.Run(ctx, sources)
	if err != nil {
		return err
	}

	rep := report.Build(agg, rules)
	if cfg.Stats {
		rep.WithStats(agg.Stats())
	}
	var doc any = rep
	if cfg.Query != "" {
		if doc, err = output.Query(rep, cfg.Query); err != nil {
			return err
		}
	}

	w := bufio.NewWriter(s.Out)
	if err := renderer.Render(w, doc); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if m != nil {
		if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}

// buildSources returns the file arguments in order followed by the
// configured CloudWatch groups. With neither, stdin is read.
func buildSources(ctx context.Context, stdin io.Reader, cfg *config.Config, args []string, now time.Time) ([]source.Source, error) {
	groups := cfg.CloudWatch.Groups
	var sources []source.Source
	if len(args) > 0 || len(groups) == 0 {
		sources = source.FromArgs(args, stdin)
	}
	if len(groups) == 0 {
		return sources, nil
	}

	start, end, err := ResolveTimeWindow(cfg.CloudWatch.Start, cfg.CloudWatch.End, now)
	if err != nil {
		return nil, usageError{fmt.Errorf("invalid time window: %w", err)}
	}
	cw, err := newCloudWatchClient(ctx, client.AuthOptions{
		Region:  cfg.CloudWatch.Region,
		Profile: cfg.CloudWatch.Profile,
	})
	if err != nil {
		return nil, fmt.Errorf("create CloudWatch client: %w", err)
	}
	for _, g := range groups {
		sources = append(sources, &source.CloudWatch{
			Client:        cw,
			Group:         g,
			FilterPattern: cfg.CloudWatch.FilterPattern,
			Start:         start,
			End:           end,
		})
	}
	return sources, nil
}
