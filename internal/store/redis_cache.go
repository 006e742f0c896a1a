package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/shortlink-web/internal/shortener"
)

// RedisCache wraps a Repository with a Redis read-through cache.
// Cache failures are ignored and fall back to the wrapped store.
type RedisCache struct {
	store    shortener.Repository
	client   redis.UniversalClient
	prefix   string
	indexKey string
	ttl      time.Duration
}

// NewRedisCache creates a caching decorator; a zero ttl caches forever.
func NewRedisCache(store shortener.Repository, client redis.UniversalClient, ttl time.Duration) *RedisCache {
	return &RedisCache{
		store:    store,
		client:   client,
		prefix:   "cache:link:",
		indexKey: "cache:link_url:",
		ttl:      ttl,
	}
}

// FindByURL checks the cached URL index before asking the store.
func (r *RedisCache) FindByURL(ctx context.Context, url string) (*shortener.ShortLink, error) {
	hash := shortener.HashURL(url)

	if id, err := r.client.Get(ctx, r.indexKey+string(hash)).Result(); err == nil {
		if link, err := r.fromCache(ctx, shortener.ShortID(id)); err == nil {
			return link, nil
		}
	}

	link, err := r.store.FindByURL(ctx, url)
	if err != nil {
		return nil, err
	}

	r.remember(ctx, link)

	return link, nil
}

// FindByShortID checks the cache before asking the store.
func (r *RedisCache) FindByShortID(ctx context.Context, id shortener.ShortID) (*shortener.ShortLink, error) {
	if link, err := r.fromCache(ctx, id); err == nil {
		return link, nil
	}

	link, err := r.store.FindByShortID(ctx, id)
	if err != nil {
		return nil, err
	}

	r.remember(ctx, link)

	return link, nil
}

// Insert writes through to the store and caches whichever record it kept.
func (r *RedisCache) Insert(ctx context.Context, link *shortener.ShortLink) (*shortener.ShortLink, error) {
	stored, err := r.store.Insert(ctx, link)
	if err != nil {
		return nil, err
	}

	r.remember(ctx, stored)

	return stored, nil
}

func (r *RedisCache) fromCache(ctx context.Context, id shortener.ShortID) (*shortener.ShortLink, error) {
	fields, err := r.client.HGetAll(ctx, r.prefix+string(id)).Result()
	if err != nil {
		return nil, err
	}

	link, ok := decodeLink(fields)
	if !ok {
		return nil, shortener.ErrNotFound
	}

	return link, nil
}

func (r *RedisCache) remember(ctx context.Context, link *shortener.ShortLink) {
	key := r.prefix + string(link.ShortID)
	indexKey := r.indexKey + string(link.URLHash)

	pipe := r.client.Pipeline()
	pipe.HSet(ctx, key, linkFields(link)...)
	pipe.Set(ctx, indexKey, string(link.ShortID), r.ttl)

	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}

	_, _ = pipe.Exec(ctx)
}

var _ shortener.Repository = (*RedisCache)(nil)
