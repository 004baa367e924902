// Package loggen writes synthetic access-log lines in the format the line
// grammar expects. Output is reproducible for a given seed.
package loggen

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/brianvoe/gofakeit/v6"
)

const timeLayout = "02/Jan/2006:15:04:05 -0700"

var (
	entityTypes = []string{"release", "artist", "event", "release-group"}
	statuses    = []string{"200", "200", "200", "200", "301", "302", "304", "404", "500"}
	noise       = []string{"/favicon.ico", "/ws/2/artist", "/search?query=x", "/static/app.js"}
)

// Generator produces access-log lines.
type Generator struct {
	f *gofakeit.Faker
}

// New returns a Generator seeded with seed.
func New(seed int64) *Generator {
	return &Generator{f: gofakeit.New(seed)}
}

// Line returns one access-log line.
func (g *Generator) Line() string {
	f := g.f
	return fmt.Sprintf("%s %s - - [%s] \"%s %s HTTP/1.1\" %s %d \"%s\" \"%s\"",
		f.DomainName(),
		f.IPv4Address(),
		f.Date().Format(timeLayout),
		f.RandomString([]string{"GET", "GET", "GET", "POST", "HEAD"}),
		g.Path(),
		f.RandomString(statuses),
		f.Number(0, 100000),
		g.referrer(),
		f.UserAgent(),
	)
}

// Path returns a request target drawn from the kinds of pages the
// classifier distinguishes.
func (g *Generator) Path() string {
	f := g.f
	switch f.Number(0, 9) {
	case 0, 1:
		path := "/" + f.RandomString(entityTypes) + "/" + strings.ToLower(f.UUID())
		if f.Bool() {
			path += "/" + f.Word()
		}
		return path
	case 2:
		return "/user/" + f.Username() + "/ratings"
	case 3:
		return fmt.Sprintf("/sitemap-%d.xml", f.Number(1, 50))
	case 4:
		return f.RandomString(noise)
	default:
		return "/" + f.Word() + "/" + f.Word()
	}
}

func (g *Generator) referrer() string {
	if g.f.Number(0, 3) == 0 {
		return g.f.URL()
	}
	return "-"
}

// Write writes n lines to w.
func (g *Generator) Write(w io.Writer, n int) error {
	bw := bufio.NewWriter(w)
	for i := 0; i < n; i++ {
		if _, err := bw.WriteString(g.Line()); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}
