package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UserStatsKey returns the cache key for a player's aggregated game stats.
func (r *CacheKeyStruct) UserStatsKey(username string) string {
	return fmt.Sprintf("stats:user:%s", username)
}

// ServerStatsKey returns the cache key for the server-wide game stats.
func (r *CacheKeyStruct) ServerStatsKey() string {
	return "stats:server"
}

var CacheKey = NewCacheKeyStruct()
