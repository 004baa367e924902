// Package inspector runs the single streaming pass over the input: it reads
// every source in order and feeds bounded batches of lines to a pool of
// parse/classify workers, each counting into its own aggregator shard.
package inspector

import (
	"context"
	"errors"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Nao-Mk2/access-log-top/internal/aggregator"
	"github.com/Nao-Mk2/access-log-top/internal/classifier"
	"github.com/Nao-Mk2/access-log-top/internal/logging"
	"github.com/Nao-Mk2/access-log-top/internal/metrics"
	"github.com/Nao-Mk2/access-log-top/internal/model"
	"github.com/Nao-Mk2/access-log-top/internal/parser"
	"github.com/Nao-Mk2/access-log-top/internal/source"
)

// ErrNoSources is returned by Run when it is given nothing to read.
var ErrNoSources = errors.New("no input sources")

// Options tunes a run. Zero values select the defaults.
type Options struct {
	Workers       int
	BatchSize     int
	ProgressEvery int64 // 0 disables progress lines
	Logger        *logging.Logger
	Metrics       *metrics.Handler
}

// Inspector aggregates lines from sources.
type Inspector struct {
	parser     *parser.Parser
	classifier *classifier.Classifier
	workers    int
	batchSize  int
	progress   int64
	log        *logging.Logger
	metrics    *metrics.Handler
	now        func() time.Time
}

// New creates an Inspector.
func New(p *parser.Parser, c *classifier.Classifier, o Options) *Inspector {
	in := &Inspector{
		parser:     p,
		classifier: c,
		workers:    o.Workers,
		batchSize:  o.BatchSize,
		progress:   o.ProgressEvery,
		log:        o.Logger,
		metrics:    o.Metrics,
		now:        time.Now,
	}
	if in.workers < 1 {
		in.workers = runtime.NumCPU()
	}
	if in.batchSize < 1 {
		in.batchSize = 1024
	}
	if in.log == nil {
		in.log = logging.Discard()
	}
	return in
}

// Run reads every source and returns the merged aggregation with its run
// stats filled in. On error or cancellation no partial result is returned.
func (in *Inspector) Run(ctx context.Context, sources []source.Source) (*aggregator.Aggregator, error) {
	if len(sources) == 0 {
		return nil, ErrNoSources
	}
	started := in.now()

	g, ctx := errgroup.WithContext(ctx)
	batches := make(chan []string, in.workers)

	g.Go(func() error {
		defer close(batches)
		return in.read(ctx, sources, batches)
	})

	shards := make([]*aggregator.Aggregator, in.workers)
	for i := range shards {
		shard := aggregator.New()
		shards[i] = shard
		g.Go(func() error {
			for b := range batches {
				in.process(shard, b)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := shards[0]
	for _, s := range shards[1:] {
		result.Merge(s)
	}
	stats := result.Stats()
	stats.Started = started
	stats.Elapsed = in.now().Sub(started)
	result.SetTiming(stats.Started, stats.Elapsed)

	in.log.Info("done",
		logging.Parsed(stats.Parsed),
		logging.Matched(stats.Counted()),
		logging.Skipped(stats.Skipped),
		logging.Rate(stats.LinesPerSecond()),
		logging.Duration(stats.Elapsed),
	)
	if in.metrics != nil {
		in.metrics.ObserveRun(result, stats)
	}
	return result, nil
}

// read fills batches from the sources in order. Line count and batch
// contents are owned by this goroutine alone.
func (in *Inspector) read(ctx context.Context, sources []source.Source, out chan<- []string) error {
	var lines int64
	batch := make([]string, 0, in.batchSize)
	send := func() error {
		if len(batch) == 0 {
			return nil
		}
		select {
		case out <- batch:
		case <-ctx.Done():
			return ctx.Err()
		}
		batch = make([]string, 0, in.batchSize)
		return nil
	}

	for _, src := range sources {
		in.log.Debug("reading", logging.Source(src.Name()))
		err := src.Lines(ctx, func(line string) error {
			batch = append(batch, line)
			lines++
			if in.progress > 0 && lines%in.progress == 0 {
				in.log.Info("progress", logging.Lines(lines))
			}
			if len(batch) == cap(batch) {
				return send()
			}
			return nil
		})
		if err != nil {
			return err
		}
		in.log.Debug("finished", logging.Source(src.Name()), logging.Lines(lines))
	}
	return send()
}

// process runs parse, classify and count over one batch.
func (in *Inspector) process(a *aggregator.Aggregator, batch []string) {
	var s model.RunStats
	for _, line := range batch {
		s.Parsed++
		f, ok := in.parser.Parse(line)
		if !ok {
			continue
		}
		s.Matched++
		if !in.classifier.Classify(&f) {
			s.Skipped++
			continue
		}
		a.Observe(&f)
	}
	a.AddStats(s)
	if in.metrics != nil {
		in.metrics.ObserveBatch(s)
	}
}
