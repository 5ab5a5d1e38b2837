package properties

import (
	"encoding/json"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

const (
	defaultCacheSize   = 8 * 1024 * 1024
	listingCacheExpire = 5 * 60 // seconds
)

// listingCache keeps serialized public listings. Any write clears it.
type listingCache struct {
	cache *freecache.Cache
}

func newListingCache(size int) *listingCache {
	if size <= 0 {
		size = defaultCacheSize
	}
	return &listingCache{
		cache: freecache.NewCache(size),
	}
}

func (c *listingCache) get(key string, v any) bool {
	cached, err := c.cache.Get([]byte(key))
	if err != nil {
		return false
	}
	if err := json.Unmarshal(cached, v); err != nil {
		log.Errorf("unmarshal cached listing [%s]: %s", key, err)
		c.cache.Del([]byte(key))
		return false
	}
	log.Tracef("listing [%s] served from cache", key)
	return true
}

func (c *listingCache) set(key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Errorf("marshal listing [%s] for cache: %s", key, err)
		return
	}
	if err := c.cache.Set([]byte(key), data, listingCacheExpire); err != nil {
		log.Errorf("set listing cache [%s]: %s", key, err)
	}
}

func (c *listingCache) clear() {
	c.cache.Clear()
}

func buildingsKey() string              { return "buildings" }
func buildingKey(id string) string      { return "building::" + id }
func unitsKey(buildingID string) string { return "units::" + buildingID }
