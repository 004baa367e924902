package config

import (
	"fmt"
	"regexp"

	"github.com/Nao-Mk2/access-log-top/internal/model"
)

// LineGroups are the named groups a line pattern must define.
var LineGroups = []string{"ip", "req", "status", "referrer", "useragent"}

// Rules is the compiled, read-only form of a Config. Build it once with
// Compile and share it between goroutines.
type Rules struct {
	Line    *regexp.Regexp
	Skip    []*regexp.Regexp
	User    *regexp.Regexp
	Entity  *regexp.Regexp
	Sitemap *regexp.Regexp

	UserStatusGate bool

	cutoffs map[model.Category]int
}

// Compile validates the patterns and cutoffs of c and returns its Rules.
func (c *Config) Compile() (*Rules, error) {
	r := &Rules{UserStatusGate: c.UserStatusGate}

	var err error
	if r.Line, err = compile("line_pattern", c.LinePattern); err != nil {
		return nil, err
	}
	for _, name := range LineGroups {
		if r.Line.SubexpIndex(name) < 0 {
			return nil, fmt.Errorf("line_pattern: missing named group %q", name)
		}
	}
	if r.User, err = compile("user_pattern", c.UserPattern); err != nil {
		return nil, err
	}
	if r.Entity, err = compile("entity_pattern", c.EntityPattern); err != nil {
		return nil, err
	}
	if r.Entity.NumSubexp() < 1 {
		return nil, fmt.Errorf("entity_pattern: needs a capture group for the collapsed path")
	}
	if r.Sitemap, err = compile("sitemap_pattern", c.SitemapPattern); err != nil {
		return nil, err
	}

	skip := c.SkipPatterns
	if len(skip) == 0 {
		p, ok := SkipProfilePatterns(c.SkipProfile)
		if !ok {
			return nil, fmt.Errorf("unknown skip profile %q", c.SkipProfile)
		}
		skip = p
	}
	for _, s := range skip {
		re, err := compile("skip_patterns", s)
		if err != nil {
			return nil, err
		}
		r.Skip = append(r.Skip, re)
	}

	if r.cutoffs, err = c.cutoffs(); err != nil {
		return nil, err
	}
	return r, nil
}

// Cutoff returns the number of ranked records reported for category cat.
func (r *Rules) Cutoff(cat model.Category) int {
	return r.cutoffs[cat]
}

// cutoffs expands TopN over every category, rejecting unknown names.
func (c *Config) cutoffs() (map[model.Category]int, error) {
	if c.DefaultTopN < 0 {
		return nil, fmt.Errorf("default_topn must not be negative, got %d", c.DefaultTopN)
	}
	out := make(map[model.Category]int, len(model.Categories()))
	for _, cat := range model.Categories() {
		out[cat] = c.DefaultTopN
	}
	for name, n := range c.TopN {
		cat, err := model.ParseCategory(name)
		if err != nil {
			return nil, fmt.Errorf("topn: %w", err)
		}
		if n < 0 {
			return nil, fmt.Errorf("topn: %s must not be negative, got %d", name, n)
		}
		out[cat] = n
	}
	return out, nil
}

func compile(key, pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, fmt.Errorf("%s: empty pattern", key)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return re, nil
}
