// Package parser extracts the tracked fields from one access-log line.
package parser

import (
	"regexp"

	"github.com/Nao-Mk2/access-log-top/internal/config"
	"github.com/Nao-Mk2/access-log-top/internal/model"
)

// Parser matches lines against the compiled line grammar. It is safe for
// concurrent use.
type Parser struct {
	re        *regexp.Regexp
	ip        int
	req       int
	status    int
	referrer  int
	useragent int
}

// New returns a Parser for the line pattern in r. Compile has already
// checked that every named group exists.
func New(r *config.Rules) *Parser {
	re := r.Line
	return &Parser{
		re:        re,
		ip:        re.SubexpIndex("ip"),
		req:       re.SubexpIndex("req"),
		status:    re.SubexpIndex("status"),
		referrer:  re.SubexpIndex("referrer"),
		useragent: re.SubexpIndex("useragent"),
	}
}

// Parse returns the fields of line, or false when the line does not satisfy
// the grammar. There is no partial extraction.
func (p *Parser) Parse(line string) (model.Fields, bool) {
	m := p.re.FindStringSubmatch(line)
	if m == nil {
		return model.Fields{}, false
	}
	return model.Fields{
		IP:        m[p.ip],
		Request:   m[p.req],
		Status:    m[p.status],
		Referrer:  m[p.referrer],
		UserAgent: m[p.useragent],
	}, true
}
