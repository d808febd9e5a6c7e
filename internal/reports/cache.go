package reports

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"focolare/internal/cache"
	"focolare/internal/core"
)

// Cache memoizes per-household summaries behind an explicit invalidation
// contract: every receipt, budget or category mutation for a household
// drops all of that household's cached reports. Entries also age out via
// the LRU's TTL, so a missed invalidation is bounded in time.
type Cache struct {
	mu sync.Mutex
	// keys tracks which cache keys belong to each household so a whole
	// household can be invalidated at once.
	keys map[string]map[string]struct{}
	lru  *cache.LRU[core.Summary]
}

func NewCache(maxSize int, ttl time.Duration) *Cache {
	return &Cache{
		keys: make(map[string]map[string]struct{}),
		lru:  cache.NewLRU[core.Summary](maxSize, ttl),
	}
}

func (c *Cache) Get(householdID string, f core.ReceiptFilter) (core.Summary, bool) {
	return c.lru.Get(cacheKey(householdID, f))
}

func (c *Cache) Set(householdID string, f core.ReceiptFilter, s core.Summary) {
	key := cacheKey(householdID, f)
	c.mu.Lock()
	if c.keys[householdID] == nil {
		c.keys[householdID] = make(map[string]struct{})
	}
	c.keys[householdID][key] = struct{}{}
	c.mu.Unlock()
	c.lru.Set(key, s)
}

// InvalidateHousehold drops every cached summary of one household. This is
// the hook wired to mutation events (receipt/budget/category create, update,
// delete).
func (c *Cache) InvalidateHousehold(householdID string) {
	c.mu.Lock()
	keys := c.keys[householdID]
	delete(c.keys, householdID)
	c.mu.Unlock()
	for key := range keys {
		c.lru.Delete(key)
	}
}

// CleanExpired lets the cache janitor sweep this cache too.
func (c *Cache) CleanExpired() int {
	return c.lru.CleanExpired()
}

func (c *Cache) Len() int {
	return c.lru.Len()
}

// cacheKey builds a deterministic key from the household and every filter
// field; category ids are sorted so equivalent filters share an entry.
func cacheKey(householdID string, f core.ReceiptFilter) string {
	var b strings.Builder
	b.WriteString(householdID)
	b.WriteByte('|')
	if !f.From.IsZero() {
		b.WriteString(f.From.Format("2006-01-02"))
	}
	b.WriteByte('|')
	if !f.To.IsZero() {
		b.WriteString(f.To.Format("2006-01-02"))
	}
	b.WriteByte('|')
	cats := append([]string(nil), f.CategoryIDs...)
	sort.Strings(cats)
	b.WriteString(strings.Join(cats, ","))
	b.WriteByte('|')
	if f.MinAmount != nil {
		b.WriteString(strconv.FormatInt(f.MinAmount.Cents, 10))
	}
	b.WriteByte('|')
	if f.MaxAmount != nil {
		b.WriteString(strconv.FormatInt(f.MaxAmount.Cents, 10))
	}
	b.WriteByte('|')
	b.WriteString(strings.ToLower(f.Search))
	return b.String()
}
