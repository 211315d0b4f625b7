package services

import (
	"context"
	"strconv"
	"time"

	"github.com/cppla/contactbox/utils"
)

const listTTL = 10 * time.Minute

// listCache keeps one cached list per write generation of a collection.
// A read that raced a write stores under the old generation, which no later reader asks for.
type listCache struct {
	cache utils.Cache
	name  string
}

func newListCache(cache utils.Cache, name string) listCache {
	if cache == nil {
		cache = utils.NopCache{}
	}
	return listCache{cache: cache, name: name}
}

func (l listCache) prefix() string { return "cache:" + l.name + ":" }

// get returns the key for the current generation and whether dst was filled from it.
// An empty key means the generation is unknown and nothing may be cached.
func (l listCache) get(ctx context.Context, dst interface{}) (string, bool) {
	gen, ok := l.cache.Generation(ctx, l.name)
	if !ok {
		return "", false
	}
	key := l.prefix() + "list:" + strconv.FormatInt(gen, 10)
	return key, l.cache.GetJSON(ctx, key, dst)
}

func (l listCache) set(ctx context.Context, key string, v interface{}) {
	if key != "" {
		l.cache.SetJSON(ctx, key, v, listTTL)
	}
}

// invalidate runs after every write.
func (l listCache) invalidate(ctx context.Context) {
	l.cache.Bump(ctx, l.name)
	l.cache.InvalidateByPrefix(ctx, l.prefix())
}
