// Package filter implements the protocol facet filter and the predicate
// filter that together decide which packets appear in a view.
package filter

import (
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"

	"caramelo/internal/metrics"
	"caramelo/internal/models"
)

// Predicate is a compiled operator expression. A predicate that failed to
// compile, or whose evaluation fails for a packet, lets the packet through.
type Predicate struct {
	src  string
	root node
	err  error
}

// Compile parses src. Empty (or all-blank) text yields a predicate that
// matches everything. Syntax errors are kept on the predicate, see Err.
func Compile(src string) *Predicate {
	p := &Predicate{src: src}
	if strings.TrimSpace(src) == "" {
		return p
	}
	p.root, p.err = parse(src)
	return p
}

// Source returns the text the predicate was compiled from.
func (p *Predicate) Source() string {
	if p == nil {
		return ""
	}
	return p.src
}

// Err returns the compile error, if any.
func (p *Predicate) Err() error {
	if p == nil {
		return nil
	}
	return p.err
}

// Eval evaluates the predicate strictly. A predicate that failed to compile
// reports its compile error.
func (p *Predicate) Eval(pkt *models.Packet) (bool, error) {
	if p == nil || p.root == nil {
		if p != nil && p.err != nil {
			return true, p.err
		}
		return true, nil
	}
	return evalBool(p.root, pkt)
}

// Match reports whether pkt passes. Any error counts as a pass.
func (p *Predicate) Match(pkt *models.Packet) bool {
	if p == nil || p.root == nil {
		return true
	}
	ok, err := p.Eval(pkt)
	if err != nil {
		metrics.PredicateFailOpenTotal.Inc()
		if log.IsLevelEnabled(log.DebugLevel) {
			log.WithFields(log.Fields{
				"number":    pkt.Number,
				"predicate": p.src,
			}).WithError(err).Debug("Predicate evaluation failed, including packet")
		}
		return true
	}
	return ok
}

const (
	defaultCacheTTL = 10 * time.Minute
	cacheCleanup    = 5 * time.Minute
)

// Compiler caches compiled predicates by source text so that sessions
// switching between the same expressions do not reparse them.
type Compiler struct {
	cache *cache.Cache
}

// NewCompiler creates a Compiler whose entries expire ttl after compilation.
func NewCompiler(ttl time.Duration) *Compiler {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Compiler{cache: cache.New(ttl, cacheCleanup)}
}

// Compile returns the cached predicate for src, compiling it on a miss.
func (c *Compiler) Compile(src string) *Predicate {
	if v, ok := c.cache.Get(src); ok {
		return v.(*Predicate)
	}
	p := Compile(src)
	c.cache.SetDefault(src, p)
	return p
}
