package llm

import (
	"crypto/sha256"
	"time"

	"github.com/coocood/freecache"
)

// replyCache keeps raw relay replies for text prompts so an identical text
// scan does not spend another relay call.
type replyCache struct {
	cache *freecache.Cache
	ttl   int
}

// newReplyCache creates a cache of sizeMB megabytes. freecache enforces its
// own 512KB minimum.
func newReplyCache(sizeMB int, ttl time.Duration) *replyCache {
	if sizeMB <= 0 {
		sizeMB = 8
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	return &replyCache{
		cache: freecache.NewCache(sizeMB * 1024 * 1024),
		ttl:   max(int(ttl.Seconds()), 1),
	}
}

func cacheKey(prompt string) []byte {
	sum := sha256.Sum256([]byte(prompt))
	return sum[:]
}

func (c *replyCache) get(prompt string) (string, bool) {
	val, err := c.cache.Get(cacheKey(prompt))
	if err != nil {
		return "", false
	}
	return string(val), true
}

func (c *replyCache) set(prompt, reply string) {
	_ = c.cache.Set(cacheKey(prompt), []byte(reply), c.ttl)
}
