package container_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
	"github.com/samber/do"
	"github.com/serroba/shortlink-web/internal/container"
	"github.com/serroba/shortlink-web/internal/events"
	"github.com/serroba/shortlink-web/internal/messaging"
	"github.com/serroba/shortlink-web/internal/shortener"
	"github.com/serroba/shortlink-web/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func validOptions() *container.Options {
	return &container.Options{
		Port:      8888,
		IDLength:  8,
		Store:     container.StoreMemory,
		RedisAddr: "localhost:6379",
		LogFormat: container.LogFormatConsole,
		LogLevel:  "info",
	}
}

func newMemoryInjector(t *testing.T) *do.Injector {
	t.Helper()

	injector := do.New()
	do.ProvideValue(injector, validOptions())
	do.ProvideValue(injector, zap.NewNop())
	container.RepositoryPackage(injector)
	container.PublisherPackage(injector)
	container.ServicePackage(injector)
	container.HealthPackage(injector)
	container.HTTPPackage(injector)

	t.Cleanup(func() { _ = injector.Shutdown() })

	return injector
}

func TestHTTPPackage(t *testing.T) {
	injector := newMemoryInjector(t)

	router := do.MustInvoke[*chi.Mux](injector)
	_ = do.MustInvoke[huma.API](injector)

	t.Run("api creates link", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/links", strings.NewReader(`{"url":"https://example.com/a"}`))
		req.Header.Set("Content-Type", "application/json")

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	})

	t.Run("form link redirects", func(t *testing.T) {
		form := url.Values{"url": {"https://example.com/b"}}
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		repo := do.MustInvoke[shortener.Repository](injector)
		link, err := repo.FindByURL(t.Context(), "https://example.com/b")
		require.NoError(t, err)

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/"+string(link.ShortID), nil))

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "https://example.com/b", rec.Header().Get("Location"))
	})

	t.Run("health without backends is ok", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	})

	t.Run("api docs live under api prefix", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/openapi.json", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("docs name resolves like any short id", func(t *testing.T) {
		for _, path := range []string{"/docs", "/openapi.json"} {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

			assert.Equal(t, http.StatusNotFound, rec.Code, path)
			assert.Contains(t, rec.Body.String(), "short url does not exist", path)
		}
	})

	t.Run("unknown route is not found page", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/a/b/c", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	})
}

func TestRepositoryPackage(t *testing.T) {
	injector := newMemoryInjector(t)

	repo := do.MustInvoke[shortener.Repository](injector)

	assert.IsType(t, &store.MemoryStore{}, repo)
}

func TestPublisherPackage(t *testing.T) {
	t.Run("discards when events are disabled", func(t *testing.T) {
		injector := newMemoryInjector(t)

		publish := do.MustInvoke[messaging.Publish[events.LinkCreated]](injector)

		assert.NoError(t, publish(&events.LinkCreated{ShortID: "abc"}))
	})
}

func TestServicePackage(t *testing.T) {
	t.Run("rejects invalid id length", func(t *testing.T) {
		opts := validOptions()
		opts.IDLength = 0

		injector := do.New()
		do.ProvideValue(injector, opts)
		do.ProvideValue(injector, zap.NewNop())
		container.RepositoryPackage(injector)
		container.PublisherPackage(injector)
		container.ServicePackage(injector)

		_, err := do.Invoke[*shortener.Service](injector)

		assert.Error(t, err)
	})
}

func TestNewLogger(t *testing.T) {
	for _, format := range []string{container.LogFormatConsole, container.LogFormatJSON} {
		logger, err := container.NewLogger(format, "debug")
		require.NoError(t, err)
		assert.True(t, logger.Core().Enabled(zap.DebugLevel))
	}

	_, err := container.NewLogger(container.LogFormatJSON, "loud")
	assert.Error(t, err)
}
