package cache

import "time"

// CacheService defines the behavior for caching mechanisms.
// The catalog reference loader keeps its category/color/size lists behind this.
type CacheService interface {
	// Get retrieves a value from the cache.
	// Returns value, true if found; nil, false otherwise.
	Get(key string) (interface{}, bool)

	// Set adds a value to the cache with a TTL
	Set(key string, value interface{}, duration time.Duration)

	// Delete removes a value from the cache
	Delete(key string)

	// Flush removes all items
	Flush()
}
