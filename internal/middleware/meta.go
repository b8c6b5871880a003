package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const (
	metaKey        = "erp.meta"
	metaStartedKey = "erp.meta_started"
	cacheHeader    = "X-Cache"
)

// ResponseMeta starts metadata collection for the envelope "meta" block.
// Handlers annotate it with NoteMeta or NoteCacheHit and read it back with Meta.
func ResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(metaStartedKey, time.Now())
		c.Set(metaKey, map[string]interface{}{})
		c.Next()
	}
}

// NoteMeta stores one entry for the current response.
func NoteMeta(c *gin.Context, key string, value interface{}) {
	if c == nil {
		return
	}
	metaOf(c)[key] = value
}

// NoteCacheHit records whether a read was served from Redis and mirrors it in
// the X-Cache header.
func NoteCacheHit(c *gin.Context, hit bool) {
	if c == nil {
		return
	}
	NoteMeta(c, "cache_hit", hit)
	if hit {
		c.Header(cacheHeader, "HIT")
		return
	}
	c.Header(cacheHeader, "MISS")
}

// Meta returns a snapshot of the notes plus the time spent so far. It is
// meant to be called right before the response is written.
func Meta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	notes := metaOf(c)
	out := make(map[string]interface{}, len(notes)+1)
	for k, v := range notes {
		out[k] = v
	}
	if v, ok := c.Get(metaStartedKey); ok {
		if started, ok := v.(time.Time); ok {
			out["processing_time_ms"] = time.Since(started).Milliseconds()
		}
	}
	return out
}

func metaOf(c *gin.Context) map[string]interface{} {
	if v, ok := c.Get(metaKey); ok {
		if notes, ok := v.(map[string]interface{}); ok {
			return notes
		}
	}
	notes := map[string]interface{}{}
	c.Set(metaKey, notes)
	return notes
}
