// Package alias implements the optional one-shot snapshot-rename used
// when -r/RenameSnapshot is active (spec §4.6): the first original
// snapshot name seen is cached alongside a freshly generated 32-hex-char
// UUID, and every subsequent lookup for that same name returns the
// cached alias.
package alias

import (
	"strings"

	"github.com/google/uuid"
)

// Cache is the single-shot rename cache. The zero value is ready to
// use with renaming inactive; NewCache(true) returns an active one.
type Cache struct {
	enabled  bool
	original string
	alias    string
	seen     bool
}

// NewCache returns a Cache with renaming enabled or disabled per
// active.
func NewCache(active bool) *Cache {
	return &Cache{enabled: active}
}

// Alias returns the replacement for origin. When renaming is inactive
// it returns origin unchanged. When active, the first call caches
// origin alongside a freshly generated UUID and returns it; subsequent
// calls return the cached UUID only when origin matches the cached
// input, and return origin unchanged otherwise (spec §4.6).
func (c *Cache) Alias(origin string) string {
	if !c.enabled {
		return origin
	}
	if c.seen {
		if c.original == origin {
			return c.alias
		}
		return origin
	}
	c.original = origin
	c.alias = newUUIDHex()
	c.seen = true
	return c.alias
}

// Reset clears the cached name/alias pair, for test isolation (spec §9:
// "a clean implementation should hold this inside the aliasing
// component with an explicit reset for tests").
func (c *Cache) Reset() {
	c.original = ""
	c.alias = ""
	c.seen = false
}

// Active reports whether renaming is enabled for this cache.
func (c *Cache) Active() bool { return c.enabled }

func newUUIDHex() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}
