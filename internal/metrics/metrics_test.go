package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nao-Mk2/access-log-top/internal/aggregator"
	"github.com/Nao-Mk2/access-log-top/internal/model"
)

func TestObserveBatch(t *testing.T) {
	h := New()
	h.ObserveBatch(model.RunStats{Parsed: 10, Matched: 8, Skipped: 2})
	h.ObserveBatch(model.RunStats{Parsed: 5, Matched: 5})

	assert.Equal(t, 2.0, testutil.ToFloat64(h.BatchesTotal))
	assert.Equal(t, 15.0, testutil.ToFloat64(h.LinesTotal.WithLabelValues(OutcomeParsed)))
	assert.Equal(t, 13.0, testutil.ToFloat64(h.LinesTotal.WithLabelValues(OutcomeMatched)))
	assert.Equal(t, 2.0, testutil.ToFloat64(h.LinesTotal.WithLabelValues(OutcomeSkipped)))
}

func TestObserveRun(t *testing.T) {
	a := aggregator.New()
	a.Observe(&model.Fields{IP: "1.1.1.1", Request: "/a", Status: "200", Referrer: "-", UserAgent: "ua"})
	a.Observe(&model.Fields{IP: "2.2.2.2", Request: "/a", Status: "200", Referrer: "-", UserAgent: "ua"})

	h := New()
	started := time.Unix(1700000000, 0)
	h.ObserveRun(a, model.RunStats{Started: started, Elapsed: 1500 * time.Millisecond})

	assert.Equal(t, 2.0, testutil.ToFloat64(h.DistinctKeys.WithLabelValues("ip")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.DistinctKeys.WithLabelValues("req")))
	assert.Equal(t, 0.0, testutil.ToFloat64(h.DistinctKeys.WithLabelValues("sitemap")))
	assert.Equal(t, 2.0, testutil.ToFloat64(h.CategoryTotal.WithLabelValues("status")))
	assert.Equal(t, 1.5, testutil.ToFloat64(h.RunDuration))
	assert.Equal(t, 1700000000.0, testutil.ToFloat64(h.LastRunUnixtime))
}

func TestWriteTextfile(t *testing.T) {
	h := New()
	h.ObserveBatch(model.RunStats{Parsed: 3, Matched: 2, Skipped: 1})

	path := filepath.Join(t.TempDir(), "access_log_top.prom")
	require.NoError(t, h.WriteTextfile(path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(b)
	assert.True(t, strings.Contains(out, `access_log_top_lines_total{outcome="parsed"} 3`), out)
	assert.True(t, strings.Contains(out, `access_log_top_lines_total{outcome="skipped"} 1`), out)
	assert.True(t, strings.Contains(out, "access_log_top_batches_total 1"), out)
}
