package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	scrapererrors "github.com/scrapeworks/oxygencrawler/pkg/errors"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := New(baseURL, Options{
		Timeout:           2 * time.Second,
		RequestsPerSecond: 100,
		SkipRobots:        true,
	})
	assert.NoError(t, err)
	return client
}

func TestGetSetsBrowserHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		assert.NotEmpty(t, r.Header.Get("Accept"))
		assert.NotEmpty(t, r.Header.Get("Accept-Language"))
		assert.NotEmpty(t, r.Header.Get("referer"))

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html><body>Hello, World!</body></html>"))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	reader, err := client.Get(context.Background(), DefaultContext, server.URL)
	assert.NoError(t, err)

	body, err := io.ReadAll(reader)
	assert.NoError(t, err)
	assert.Contains(t, string(body), "Hello, World!")
}

func TestContextsKeepSeparateCookies(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/set" {
			http.SetCookie(w, &http.Cookie{Name: "currency", Value: "eur", Path: "/"})
			w.Write([]byte("ok"))
			return
		}

		cookie, err := r.Cookie("currency")
		if err != nil {
			w.Write([]byte("none"))
			return
		}
		w.Write([]byte(cookie.Value))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	assert.NoError(t, client.Context("eur"))

	// Set the cookie in the eur context only
	_, err := client.Get(context.Background(), "eur", server.URL+"/set")
	assert.NoError(t, err)

	reader, err := client.Get(context.Background(), "eur", server.URL+"/check")
	assert.NoError(t, err)
	body, _ := io.ReadAll(reader)
	assert.Equal(t, "eur", string(body))

	// The default context must not carry it
	reader, err = client.Get(context.Background(), DefaultContext, server.URL+"/check")
	assert.NoError(t, err)
	body, _ = io.ReadAll(reader)
	assert.Equal(t, "none", string(body))
}

func TestPostFormSendsFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "UpdateCurrency", r.PostForm.Get("Action"))
		assert.Equal(t, "token-1", r.PostForm.Get("NewCurrency"))
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.PostForm(context.Background(), DefaultContext, server.URL, url.Values{
		"Action":      {"UpdateCurrency"},
		"NewCurrency": {"token-1"},
	})
	assert.NoError(t, err)
}

func TestRateLimitedResponseBlocksFollowUps(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	mockCache := newMockCache()
	client, err := New(server.URL, Options{
		RequestsPerSecond: 100,
		Cache:             mockCache,
		BlockKey:          "test_blocked",
		BlockTime:         time.Minute,
		SkipRobots:        true,
	})
	assert.NoError(t, err)

	_, err = client.Get(context.Background(), DefaultContext, server.URL)
	assert.Error(t, err)

	var scraperErr *scrapererrors.ScraperError
	assert.ErrorAs(t, err, &scraperErr)
	assert.Equal(t, scrapererrors.ErrorTypeRateLimit, scraperErr.Type)

	// The block is recorded, so the next request fails without hitting the host
	_, cacheErr := mockCache.Get("test_blocked")
	assert.NoError(t, cacheErr)

	_, err = client.Get(context.Background(), DefaultContext, server.URL)
	assert.ErrorAs(t, err, &scraperErr)
	assert.Equal(t, scrapererrors.ErrorTypeRateLimit, scraperErr.Type)
}

func TestRobotsDisallowIsHonored(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("User-agent: *\nDisallow: /private/\n"))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html></html>"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client, err := New(server.URL, Options{RequestsPerSecond: 100})
	assert.NoError(t, err)

	_, err = client.Get(context.Background(), DefaultContext, server.URL+"/public/")
	assert.NoError(t, err)

	_, err = client.Get(context.Background(), DefaultContext, server.URL+"/private/page")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "robots.txt")
}

func TestUnknownContextErrors(t *testing.T) {
	client := newTestClient(t, "https://example.com")

	_, err := client.Get(context.Background(), "missing", "https://example.com/")
	assert.Error(t, err)
}

// mockCache is a simple in-memory CacheService for tests
type mockCache struct {
	values map[string][]byte
}

func newMockCache() *mockCache {
	return &mockCache{values: make(map[string][]byte)}
}

func (m *mockCache) Get(key string) ([]byte, error) {
	if v, ok := m.values[key]; ok {
		return v, nil
	}
	return nil, &mockCacheMiss{}
}

func (m *mockCache) Set(key string, value []byte, expiration time.Duration) error {
	m.values[key] = value
	return nil
}

func (m *mockCache) Delete(key string) error {
	delete(m.values, key)
	return nil
}

type mockCacheMiss struct{}

func (e *mockCacheMiss) Error() string { return "cache miss" }
