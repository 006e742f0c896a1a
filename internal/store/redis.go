package store

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/shortlink-web/internal/shortener"
)

// createDocument writes the link hash in one step, and only when the key is
// still free. It returns 1 when written.
var createDocument = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
	return 0
end
redis.call("HSET", KEYS[1], unpack(ARGV))
return 1
`)

// RedisStore keeps each link as a Redis hash document ("link:<id>") plus a
// URL index hash ("link_urls": urlHash -> id).
type RedisStore struct {
	client   redis.UniversalClient
	prefix   string
	indexKey string
}

// NewRedisStore creates a new Redis-backed link store.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{
		client:   client,
		prefix:   "link:",
		indexKey: "link_urls",
	}
}

func (r *RedisStore) FindByURL(ctx context.Context, url string) (*shortener.ShortLink, error) {
	id, err := r.client.HGet(ctx, r.indexKey, string(shortener.HashURL(url))).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, shortener.ErrNotFound
		}

		return nil, err
	}

	return r.FindByShortID(ctx, shortener.ShortID(id))
}

func (r *RedisStore) FindByShortID(ctx context.Context, id shortener.ShortID) (*shortener.ShortLink, error) {
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

// Insert creates the document atomically and only then claims the URL in
// the index with HSETNX, so the index never points at a missing
// document. The loser of a race removes its own document and returns the
// winner's record. Re-inserting an identical link is a no-op.
func (r *RedisStore) Insert(ctx context.Context, link *shortener.ShortLink) (*shortener.ShortLink, error) {
	stored := *link
	if stored.URLHash == "" {
		stored.URLHash = shortener.HashURL(stored.OriginalURL)
	}

	key := r.prefix + string(stored.ShortID)

	written, err := createDocument.Run(ctx, r.client, []string{key}, linkFields(&stored)...).Int()
	if err != nil {
		return nil, err
	}

	fresh := written == 1
	if !fresh {
		if err := r.sameURL(ctx, &stored); err != nil {
			return nil, err
		}
	}

	claimed, err := r.client.HSetNX(ctx, r.indexKey, string(stored.URLHash), string(stored.ShortID)).Result()
	if err != nil {
		return nil, err
	}

	if claimed {
		return &stored, nil
	}

	winner, err := r.FindByURL(ctx, stored.OriginalURL)
	if err != nil {
		return nil, err
	}

	if fresh && winner.ShortID != stored.ShortID {
		if err := r.client.Del(ctx, key).Err(); err != nil {
			return nil, err
		}
	}

	return winner, nil
}

// sameURL accepts an existing document only when it stores the same URL,
// which is what a redelivered replication event looks like.
func (r *RedisStore) sameURL(ctx context.Context, link *shortener.ShortLink) error {
	existing, err := r.FindByShortID(ctx, link.ShortID)
	if errors.Is(err, shortener.ErrNotFound) {
		return shortener.ErrDuplicateID
	}

	if err != nil {
		return err
	}

	if existing.URLHash != link.URLHash {
		return shortener.ErrDuplicateID
	}

	return nil
}

// Ping checks Redis connectivity.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// linkFields flattens a link into HSET field/value pairs.
func linkFields(link *shortener.ShortLink) []any {
	return []any{
		"short_id", string(link.ShortID),
		"original_url", link.OriginalURL,
		"url_hash", string(link.URLHash),
		"created_at", link.CreatedAt.UnixNano(),
	}
}

// decodeLink rejects hashes missing the identifier or the destination, so a
// partial write never resolves to an empty redirect.
func decodeLink(fields map[string]string) (*shortener.ShortLink, bool) {
	if fields["short_id"] == "" || fields["original_url"] == "" {
		return nil, false
	}

	var createdAt time.Time

	if ts, ok := fields["created_at"]; ok {
		if nanos, err := strconv.ParseInt(ts, 10, 64); err == nil {
			createdAt = time.Unix(0, nanos).UTC()
		}
	}

	return &shortener.ShortLink{
		ShortID:     shortener.ShortID(fields["short_id"]),
		OriginalURL: fields["original_url"],
		URLHash:     shortener.URLHash(fields["url_hash"]),
		CreatedAt:   createdAt,
	}, true
}

var _ shortener.Repository = (*RedisStore)(nil)
