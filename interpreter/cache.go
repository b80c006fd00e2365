package interpreter

import (
	"encoding/hex"
	"sync"

	"github.com/cnf/structhash"
	"github.com/emirpasic/gods/maps/linkedhashmap"

	"github.com/example/expressions/ast"
)

// cacheKey identifies a parse: the same text parsed with another mode or
// location setting yields a different tree.
type cacheKey struct {
	Source    string `hash:"name:source"`
	Mode      int    `hash:"name:mode"`
	Locations bool   `hash:"name:locations"`
}

func (k cacheKey) digest() string {
	return hex.EncodeToString(structhash.Sha1(k, 1))
}

// parseCache keeps the most recently used trees. Trees are immutable, so
// one entry may serve concurrent evaluations.
type parseCache struct {
	mu      sync.Mutex
	size    int
	entries *linkedhashmap.Map // digest -> ast.Node, least recently used first
}

func newParseCache(size int) *parseCache {
	return &parseCache{size: size, entries: linkedhashmap.New()}
}

func (c *parseCache) get(key cacheKey) (ast.Node, bool) {
	if c.size == 0 {
		return nil, false
	}
	d := key.digest()

	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.entries.Get(d)
	if !ok {
		return nil, false
	}
	c.entries.Remove(d)
	c.entries.Put(d, v)

	return v.(ast.Node), true
}

func (c *parseCache) put(key cacheKey, n ast.Node) {
	if c.size == 0 {
		return
	}
	d := key.digest()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries.Remove(d)
	c.entries.Put(d, n)
	for c.entries.Size() > c.size {
		it := c.entries.Iterator()
		if !it.First() {
			break
		}
		c.entries.Remove(it.Key())
	}
}

func (c *parseCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.entries.Size()
}
