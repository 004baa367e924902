// Package classifier applies the request rule chain to parsed access-log
// fields: skip noise, mark user requests, collapse entity pages and bucket
// sitemap crawls.
package classifier

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/Nao-Mk2/access-log-top/internal/config"
	"github.com/Nao-Mk2/access-log-top/internal/model"
)

// SitemapsKey replaces every sitemap request path.
const SitemapsKey = "sitemaps"

// Kind is the rule that decided a request path.
type Kind int

const (
	KindPlain Kind = iota
	KindSkip
	KindUser
	KindEntity
	KindSitemap
)

func (k Kind) String() string {
	switch k {
	case KindSkip:
		return "skip"
	case KindUser:
		return "user"
	case KindEntity:
		return "entity"
	case KindSitemap:
		return "sitemap"
	}
	return "plain"
}

// Decision is the outcome of the rule chain for one request path.
// Request is the rewritten path for KindEntity and KindSitemap.
type Decision struct {
	Kind    Kind
	Request string
}

// Classifier is safe for concurrent use.
type Classifier struct {
	rules *config.Rules
	cache *gocache.Cache
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithCache memoises decisions per request path for ttl.
func WithCache(ttl time.Duration) Option {
	return func(c *Classifier) {
		if ttl > 0 {
			c.cache = gocache.New(ttl, 2*ttl)
		}
	}
}

// New returns a Classifier for r.
func New(r *config.Rules, opts ...Option) *Classifier {
	c := &Classifier{rules: r}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Classify applies the rule chain to f in place. It returns false when the
// line must be discarded.
func (c *Classifier) Classify(f *model.Fields) bool {
	d := c.Decide(f.Request, f.Status)
	switch d.Kind {
	case KindSkip:
		return false
	case KindUser:
		f.UserReq = f.Request
	case KindEntity:
		f.Request = d.Request
	case KindSitemap:
		f.Request = d.Request
		f.Sitemap = f.IP + " " + f.UserAgent
	}
	return true
}

// Decide runs the rule chain for a request path. status only matters when
// the user rule is gated on 200 responses.
func (c *Classifier) Decide(req, status string) Decision {
	if c.cache == nil {
		return c.decide(req, status)
	}
	key := req
	if c.rules.UserStatusGate {
		key = status + " " + req
	}
	if v, ok := c.cache.Get(key); ok {
		return v.(Decision)
	}
	d := c.decide(req, status)
	c.cache.SetDefault(key, d)
	return d
}

func (c *Classifier) decide(req, status string) Decision {
	for _, re := range c.rules.Skip {
		if re.MatchString(req) {
			return Decision{Kind: KindSkip}
		}
	}
	if c.rules.User.MatchString(req) && (!c.rules.UserStatusGate || status == "200") {
		return Decision{Kind: KindUser}
	}
	if m := c.rules.Entity.FindStringSubmatch(req); m != nil {
		return Decision{Kind: KindEntity, Request: m[1]}
	}
	if c.rules.Sitemap.MatchString(req) {
		return Decision{Kind: KindSitemap, Request: SitemapsKey}
	}
	return Decision{Kind: KindPlain}
}

// CacheSize returns the number of memoised paths, or 0 without a cache.
func (c *Classifier) CacheSize() int {
	if c.cache == nil {
		return 0
	}
	return c.cache.ItemCount()
}
