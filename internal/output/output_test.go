package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Nao-Mk2/access-log-top/internal/model"
	"github.com/Nao-Mk2/access-log-top/internal/report"
)

func sampleReport() *report.Report {
	return &report.Report{
		Sections: []report.Section{
			{
				Category: model.CategoryIP,
				TopN:     20,
				Total:    3,
				Records: []report.Record{
					{Key: "1.2.3.4", Value: 2, Percent: 66.67},
					{Key: "9.9.9.9", Value: 1, Percent: 33.33},
				},
			},
			{
				Category: model.CategoryReferrer,
				TopN:     20,
				Total:    1,
				Records:  []report.Record{{Key: "https://x/?a=1&b=<2>", Value: 1, Percent: 100}},
			},
			{Category: model.CategorySitemap, TopN: 10, Records: []report.Record{}},
		},
	}
}

func TestNew(t *testing.T) {
	for _, format := range []string{"json", "yaml", "text", ""} {
		r, err := New(format)
		require.NoError(t, err, format)
		assert.NotNil(t, r)
	}
	_, err := New("xml")
	assert.Error(t, err)
}

func TestJSONRenderer(t *testing.T) {
	r, err := New("json")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, sampleReport()))

	want := `{
    "Top ip": {
        "topn": 20,
        "total": 3,
        "records": [
            {
                "key": "1.2.3.4",
                "value": 2,
                "percent": 66.67
            },
            {
                "key": "9.9.9.9",
                "value": 1,
                "percent": 33.33
            }
        ]
    },
    "Top referrer": {
        "topn": 20,
        "total": 1,
        "records": [
            {
                "key": "https://x/?a=1&b=<2>",
                "value": 1,
                "percent": 100
            }
        ]
    },
    "Top sitemap": {
        "topn": 10,
        "total": 0,
        "records": []
    }
}
`
	assert.Equal(t, want, buf.String())
}

func TestYAMLRenderer(t *testing.T) {
	r, err := New("yaml")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, sampleReport()))

	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	root := doc.Content[0]
	require.Equal(t, yaml.MappingNode, root.Kind)
	var keys []string
	for i := 0; i < len(root.Content); i += 2 {
		keys = append(keys, root.Content[i].Value)
	}
	assert.Equal(t, []string{"Top ip", "Top referrer", "Top sitemap"}, keys)

	var decoded map[string]report.Section
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, int64(3), decoded["Top ip"].Total)
	assert.Equal(t, "https://x/?a=1&b=<2>", decoded["Top referrer"].Records[0].Key)
	assert.Empty(t, decoded["Top sitemap"].Records)
}

func TestTextRenderer(t *testing.T) {
	rep := sampleReport()
	rep.Stats = &report.Stats{Parsed: 12345, Matched: 3, Skipped: 1, Duration: "2ms", LinesPerSecond: 6172500, Started: "2024-01-01T00:00:00Z"}

	var buf bytes.Buffer
	require.NoError(t, (&TextRenderer{NoColor: true}).Render(&buf, rep))
	out := buf.String()

	assert.NotContains(t, out, "\x1b[")
	assert.Contains(t, out, "parsed 12,345  matched 3  skipped 1  duration 2ms  6,172,500.00 lines/s")
	assert.Contains(t, out, "Top ip (top 20 of 3)\n")
	assert.Contains(t, out, "  KEY      COUNT  PERCENT\n")
	assert.Contains(t, out, "  1.2.3.4      2   66.67%\n")
	assert.Contains(t, out, "Top sitemap (top 10 of 0)\n  (no entries)\n")
	assert.Less(t, strings.Index(out, "Top ip"), strings.Index(out, "Top referrer"))
}

func TestTextRendererWideKeys(t *testing.T) {
	rep := &report.Report{Sections: []report.Section{{
		Category: model.CategoryUserAgent,
		TopN:     20,
		Total:    3,
		Records: []report.Record{
			{Key: "日本", Value: 2, Percent: 66.67},
			{Key: "é-agent", Value: 1, Percent: 33.33},
		},
	}}}

	var buf bytes.Buffer
	require.NoError(t, (&TextRenderer{NoColor: true}).Render(&buf, rep))
	out := buf.String()

	assert.Contains(t, out, "  KEY      COUNT  PERCENT\n")
	assert.Contains(t, out, "  日本"+strings.Repeat(" ", 3)+"      2   66.67%\n")
	assert.Contains(t, out, "  é-agent      1   33.33%\n")
}

func TestDisplayWidth(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"abc", 3},
		{"é-agent", 7},
		{"日本", 4},
		{"ＡＢ", 4},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, displayWidth(tt.in), tt.in)
	}
}

func TestTextRendererNeedsReport(t *testing.T) {
	err := (&TextRenderer{}).Render(&bytes.Buffer{}, map[string]any{})
	assert.Error(t, err)
}

func TestQuery(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want any
	}{
		{"first key", `"Top ip".records[0].key`, "1.2.3.4"},
		{"keys in lexical order", `keys(@)`, []any{"Top ip", "Top referrer", "Top sitemap"}},
		{"projection", `"Top ip".records[*].value`, []any{float64(2), float64(1)}},
		{"filter", `"Top ip".records[?percent > ` + "`50`" + `].key`, []any{"1.2.3.4"}},
		{"html kept", `"Top referrer".records[0].key`, "https://x/?a=1&b=<2>"},
		{"missing", `"Top status"`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Query(sampleReport(), tt.expr)
			require.NoError(t, err)
			if list, ok := got.([]any); ok && tt.name == "keys in lexical order" {
				assert.ElementsMatch(t, tt.want, list)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQueryInvalid(t *testing.T) {
	_, err := Query(sampleReport(), "records[")
	assert.Error(t, err)
	assert.Error(t, ValidateQuery("records["))
	assert.NoError(t, ValidateQuery(`"Top ip".records[0]`))
}
