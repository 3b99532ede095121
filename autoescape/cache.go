package autoescape

import (
	"container/list"
	"sync"
)

// defaultCacheCapacity bounds the package-level cache ProcessRawText uses.
// The ported source memoizes with an unbounded lru_cache, which is fine for
// a short-lived template compiler process but not for a long-lived server;
// this caps the resident set instead.
const defaultCacheCapacity = 4096

type cacheKey struct {
	raw string
	ctx Context
}

type cacheValue struct {
	key        cacheKey
	next       Context
	normalized string
	errContext Context
	errSuffix  string
	err        error
}

// Cache is a bounded LRU memoizing ProcessRawTextUncached, keyed by the
// (raw text, starting context) pair — process_raw_text is a pure function
// of those two inputs, so the same pair always recomputes the same result
// and is safe to cache across calls and across templates. A Cache is safe
// for concurrent use: a template engine renders many requests at once,
// all funneling through the same cache.
type Cache struct {
	capacity int

	mu    sync.Mutex
	ll    *list.List
	items map[cacheKey]*list.Element
}

// NewCache returns a Cache holding at most capacity entries, evicting the
// least recently used entry once full. A non-positive capacity makes
// Process always recompute without caching anything.
func NewCache(capacity int) *Cache {
	return &Cache{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[cacheKey]*list.Element),
	}
}

// Process returns the memoized result of ProcessRawTextUncached(raw, ctx).
func (c *Cache) Process(raw string, ctx Context) (next Context, normalized string, errContext Context, errSuffix string, err error) {
	if c.capacity <= 0 {
		return ProcessRawTextUncached(raw, ctx)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey{raw: raw, ctx: ctx}
	if el, ok := c.items[key]; ok {
		c.ll.MoveToFront(el)
		v := el.Value.(*cacheValue)
		return v.next, v.normalized, v.errContext, v.errSuffix, v.err
	}

	next, normalized, errContext, errSuffix, err = ProcessRawTextUncached(raw, ctx)
	el := c.ll.PushFront(&cacheValue{key, next, normalized, errContext, errSuffix, err})
	c.items[key] = el
	if c.ll.Len() > c.capacity {
		oldest := c.ll.Back()
		c.ll.Remove(oldest)
		delete(c.items, oldest.Value.(*cacheValue).key)
	}
	return next, normalized, errContext, errSuffix, err
}

var defaultCache = NewCache(defaultCacheCapacity)

// ProcessRawText is ProcessRawTextUncached memoized in a package-level
// cache of defaultCacheCapacity entries. Most callers want this; use
// Cache/NewCache directly to size or isolate the cache instead (for
// example, one Cache per long-lived template set).
//
// Chunk boundaries are assumed to be safe split points (never splitting a
// sensitive token like "<!--" or "</script" across two calls); the caller
// is responsible for that, not this package.
func ProcessRawText(raw string, ctx Context) (next Context, normalized string, errContext Context, errSuffix string, err error) {
	return defaultCache.Process(raw, ctx)
}
