package services

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"fileshare/models"
	"fileshare/utils"
)

var (
	detailsCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fileshare_details_cache_hits_total",
		Help: "File details cache hits",
	})
	detailsCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fileshare_details_cache_misses_total",
		Help: "File details cache misses",
	})
)

// DetailsCache 상세 조회 결과를 TTL과 함께 캐시한다. 다운로드 시 무효화된다.
type DetailsCache struct {
	store FileStore
	cache *expirable.LRU[string, models.FileDetails]
}

// NewDetailsCache 상세 캐시 생성
func NewDetailsCache(store FileStore, size int, ttl time.Duration) *DetailsCache {
	return &DetailsCache{
		store: store,
		cache: expirable.NewLRU[string, models.FileDetails](size, nil, ttl),
	}
}

// Get 캐시를 먼저 보고, 없으면 스토어에서 읽어 채운다.
func (c *DetailsCache) Get(ctx context.Context, id string) (models.FileDetails, error) {
	if id == "" {
		return models.FileDetails{}, validationError(MsgFileIDRequired)
	}
	if !utils.IsValidID(id) {
		return models.FileDetails{}, notFoundError(MsgFileNotFound)
	}
	if details, ok := c.cache.Get(id); ok {
		detailsCacheHits.Inc()
		return details, nil
	}
	detailsCacheMisses.Inc()

	details, err := c.store.GetDetails(ctx, id)
	if err != nil {
		return models.FileDetails{}, err
	}
	c.cache.Add(id, details)
	return details, nil
}

// Invalidate 다운로드 카운터가 바뀐 항목 제거
func (c *DetailsCache) Invalidate(id string) {
	c.cache.Remove(id)
}

// Len 현재 캐시된 항목 수
func (c *DetailsCache) Len() int {
	return c.cache.Len()
}
