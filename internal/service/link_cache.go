// LinkCache — LRU-кэш подписанных ссылок на документы с TTL.
// Обёртка над hashicorp/golang-lru/v2/expirable.
package service

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus-метрики кэша ссылок.
var (
	linkCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cs_link_cache_hits_total",
		Help: "Общее количество попаданий в кэш подписанных ссылок.",
	})
	linkCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cs_link_cache_misses_total",
		Help: "Общее количество промахов кэша подписанных ссылок.",
	})
)

// LinkCache хранит выданные ссылки по ключу bucket/path.
// TTL кэша должен быть меньше срока действия ссылки, иначе клиент
// получит уже истёкшую ссылку.
type LinkCache struct {
	cache *expirable.LRU[string, string]
}

// NewLinkCache создаёт кэш на maxSize ссылок со временем жизни ttl.
func NewLinkCache(maxSize int, ttl time.Duration) *LinkCache {
	return &LinkCache{cache: expirable.NewLRU[string, string](maxSize, nil, ttl)}
}

func linkKey(bucket, path string) string {
	return bucket + "/" + path
}

// Get возвращает ссылку из кэша.
func (c *LinkCache) Get(bucket, path string) (string, bool) {
	url, ok := c.cache.Get(linkKey(bucket, path))
	if ok {
		linkCacheHitsTotal.Inc()
		return url, true
	}
	linkCacheMissesTotal.Inc()
	return "", false
}

// Set сохраняет ссылку.
func (c *LinkCache) Set(bucket, path, url string) {
	c.cache.Add(linkKey(bucket, path), url)
}

// Len возвращает число ссылок в кэше.
func (c *LinkCache) Len() int {
	return c.cache.Len()
}
