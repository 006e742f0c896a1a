package shortener_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/jaevor/go-nanoid"
	"github.com/serroba/shortlink-web/internal/events"
	"github.com/serroba/shortlink-web/internal/messaging"
	"github.com/serroba/shortlink-web/internal/shortener"
	"github.com/serroba/shortlink-web/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testURL = "https://example.com"

var errStorage = errors.New("connection refused")

// mockRepository fails on demand.
type mockRepository struct {
	findByURLErr     error
	findByShortIDErr error
	insertErr        error
}

func (m *mockRepository) FindByURL(_ context.Context, _ string) (*shortener.ShortLink, error) {
	if m.findByURLErr != nil {
		return nil, m.findByURLErr
	}

	return nil, shortener.ErrNotFound
}

func (m *mockRepository) FindByShortID(_ context.Context, _ shortener.ShortID) (*shortener.ShortLink, error) {
	if m.findByShortIDErr != nil {
		return nil, m.findByShortIDErr
	}

	return nil, shortener.ErrNotFound
}

func (m *mockRepository) Insert(_ context.Context, link *shortener.ShortLink) (*shortener.ShortLink, error) {
	if m.insertErr != nil {
		return nil, m.insertErr
	}

	return link, nil
}

// recorder captures published events.
type recorder struct {
	mu     sync.Mutex
	events []*events.LinkCreated
	err    error
}

func (r *recorder) publish(event *events.LinkCreated) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, event)

	return r.err
}

func newTestService(t *testing.T, repo shortener.Repository) (*shortener.Service, *recorder) {
	t.Helper()

	gen, err := nanoid.Standard(8)
	require.NoError(t, err)

	rec := &recorder{}

	return shortener.NewService(repo, gen, rec.publish, zap.NewNop()), rec
}

func TestService_Submit(t *testing.T) {
	t.Run("creates link for new url", func(t *testing.T) {
		memStore := store.NewMemoryStore()
		svc, rec := newTestService(t, memStore)

		link, err := svc.Submit(context.Background(), testURL)

		require.NoError(t, err)
		assert.Len(t, string(link.ShortID), 8)
		assert.Equal(t, testURL, link.OriginalURL)
		assert.Equal(t, 1, memStore.Len())
		require.Len(t, rec.events, 1)
		assert.Equal(t, string(link.ShortID), rec.events[0].ShortID)
	})

	t.Run("same url returns same link without new record", func(t *testing.T) {
		memStore := store.NewMemoryStore()
		svc, rec := newTestService(t, memStore)

		first, err1 := svc.Submit(context.Background(), testURL)
		second, err2 := svc.Submit(context.Background(), testURL)

		require.NoError(t, err1)
		require.NoError(t, err2)
		assert.Equal(t, first.ShortID, second.ShortID)
		assert.Equal(t, 1, memStore.Len())
		assert.Len(t, rec.events, 1)
	})

	t.Run("different urls get different links", func(t *testing.T) {
		svc, _ := newTestService(t, store.NewMemoryStore())

		first, _ := svc.Submit(context.Background(), "https://example.com/a")
		second, _ := svc.Submit(context.Background(), "https://example.com/b")

		assert.NotEqual(t, first.ShortID, second.ShortID)
	})

	t.Run("concurrent submissions of one url create one record", func(t *testing.T) {
		memStore := store.NewMemoryStore()
		svc, rec := newTestService(t, memStore)

		var wg sync.WaitGroup

		ids := make([]shortener.ShortID, 25)

		for i := range ids {
			wg.Add(1)

			go func(i int) {
				defer wg.Done()

				if link, err := svc.Submit(context.Background(), testURL); err == nil {
					ids[i] = link.ShortID
				}
			}(i)
		}

		wg.Wait()

		assert.Equal(t, 1, memStore.Len())
		assert.Len(t, rec.events, 1)

		for _, id := range ids {
			assert.Equal(t, ids[0], id)
		}
	})

	t.Run("empty url is invalid input", func(t *testing.T) {
		svc, _ := newTestService(t, store.NewMemoryStore())

		for _, url := range []string{"", "   "} {
			link, err := svc.Submit(context.Background(), url)

			assert.Nil(t, link)
			assert.Equal(t, shortener.InvalidInput, shortener.KindOf(err))
			assert.Equal(t, "provide a valid url", shortener.Message(err))
		}
	})

	t.Run("trims surrounding whitespace", func(t *testing.T) {
		svc, _ := newTestService(t, store.NewMemoryStore())

		link, err := svc.Submit(context.Background(), "  "+testURL+"\n")

		require.NoError(t, err)
		assert.Equal(t, testURL, link.OriginalURL)
	})

	t.Run("lookup failure is storage unavailable", func(t *testing.T) {
		svc, rec := newTestService(t, &mockRepository{findByURLErr: errStorage})

		_, err := svc.Submit(context.Background(), testURL)

		assert.Equal(t, shortener.StorageUnavailable, shortener.KindOf(err))
		assert.ErrorIs(t, err, errStorage)
		assert.Empty(t, rec.events)
	})

	t.Run("insert failure is storage unavailable", func(t *testing.T) {
		svc, rec := newTestService(t, &mockRepository{insertErr: errStorage})

		_, err := svc.Submit(context.Background(), testURL)

		assert.Equal(t, shortener.StorageUnavailable, shortener.KindOf(err))
		assert.Empty(t, rec.events)
	})

	t.Run("publish failure does not fail submission", func(t *testing.T) {
		gen, _ := nanoid.Standard(8)
		failing := messaging.Publish[events.LinkCreated](func(_ *events.LinkCreated) error {
			return errors.New("publish error")
		})
		svc := shortener.NewService(store.NewMemoryStore(), gen, failing, zap.NewNop())

		link, err := svc.Submit(context.Background(), testURL)

		require.NoError(t, err)
		assert.NotEmpty(t, link.ShortID)
	})
}

func TestService_Resolve(t *testing.T) {
	t.Run("resolves submitted link back to url", func(t *testing.T) {
		svc, _ := newTestService(t, store.NewMemoryStore())
		link, err := svc.Submit(context.Background(), testURL)
		require.NoError(t, err)

		target, err := svc.Resolve(context.Background(), link.ShortID)

		require.NoError(t, err)
		assert.Equal(t, testURL, target)
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		svc, _ := newTestService(t, store.NewMemoryStore())

		target, err := svc.Resolve(context.Background(), "abc123")

		assert.Empty(t, target)
		assert.Equal(t, shortener.NotFound, shortener.KindOf(err))
		assert.Equal(t, "short url does not exist", shortener.Message(err))
	})

	t.Run("empty id is not found", func(t *testing.T) {
		svc, _ := newTestService(t, store.NewMemoryStore())

		_, err := svc.Resolve(context.Background(), "")

		assert.Equal(t, shortener.NotFound, shortener.KindOf(err))
	})

	t.Run("store failure is storage unavailable", func(t *testing.T) {
		svc, _ := newTestService(t, &mockRepository{findByShortIDErr: errStorage})

		_, err := svc.Resolve(context.Background(), "abc123")

		assert.Equal(t, shortener.StorageUnavailable, shortener.KindOf(err))
	})
}

func TestService_Lookup(t *testing.T) {
	t.Run("returns full record", func(t *testing.T) {
		svc, _ := newTestService(t, store.NewMemoryStore())
		created, _ := svc.Submit(context.Background(), testURL)

		link, err := svc.Lookup(context.Background(), created.ShortID)

		require.NoError(t, err)
		assert.Equal(t, created.ShortID, link.ShortID)
		assert.Equal(t, shortener.HashURL(testURL), link.URLHash)
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		svc, _ := newTestService(t, store.NewMemoryStore())

		_, err := svc.Lookup(context.Background(), "abc123")

		assert.Equal(t, shortener.NotFound, shortener.KindOf(err))
	})

	t.Run("store failure is storage unavailable", func(t *testing.T) {
		svc, _ := newTestService(t, &mockRepository{findByShortIDErr: errStorage})

		_, err := svc.Lookup(context.Background(), "abc123")

		assert.Equal(t, shortener.StorageUnavailable, shortener.KindOf(err))
	})
}
