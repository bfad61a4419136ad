package session

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scrapeworks/oxygencrawler/config"
)

type recordedPost struct {
	cookieContext string
	url           string
	form          url.Values
}

// mockFetcher records contexts and form posts
type mockFetcher struct {
	contexts []string
	posts    []recordedPost
	postErr  map[string]error // keyed by cookie context
}

func (m *mockFetcher) Context(name string) error {
	m.contexts = append(m.contexts, name)
	return nil
}

func (m *mockFetcher) PostForm(ctx context.Context, cookieContext, rawURL string, form url.Values) (io.Reader, error) {
	if err := m.postErr[cookieContext]; err != nil {
		return nil, err
	}
	m.posts = append(m.posts, recordedPost{cookieContext: cookieContext, url: rawURL, form: form})
	return strings.NewReader("ok"), nil
}

// mockBuilder records which currencies were built
type mockBuilder struct {
	built    []string
	buildErr error
}

func (m *mockBuilder) Build(ctx context.Context, currency config.Currency) error {
	if m.buildErr != nil {
		return m.buildErr
	}
	m.built = append(m.built, currency.Code)
	return nil
}

func testCurrencies() ([]config.Currency, config.Currency) {
	currencies := []config.Currency{
		{Code: "eur", Symbol: "€", Token: "eur-token", Country: "Republic of Ireland"},
		{Code: "gbp", Symbol: "£", Token: "gbp-token", Country: "United Kingdom"},
	}
	usd := config.Currency{Code: "usd", Symbol: "$", Token: "usd-token", Country: "United States"}
	return currencies, usd
}

func TestRunEstablishesAllSessions(t *testing.T) {
	fetcher := &mockFetcher{}
	builder := &mockBuilder{}
	currencies, usd := testCurrencies()

	boot := New(fetcher, builder, "https://site/frontendhandler.ashx", currencies, usd)
	err := boot.Run(context.Background())
	assert.NoError(t, err)

	// One named context per currency
	assert.Equal(t, []string{"eur", "gbp"}, fetcher.contexts)

	// One handshake per currency plus the default, in order
	assert.Len(t, fetcher.posts, 3)
	assert.Equal(t, "eur", fetcher.posts[0].cookieContext)
	assert.Equal(t, "UpdateCurrency", fetcher.posts[0].form.Get("Action"))
	assert.Equal(t, "eur-token", fetcher.posts[0].form.Get("NewCurrency"))
	assert.Equal(t, "Republic of Ireland", fetcher.posts[0].form.Get("NewCountry"))
	assert.Equal(t, "gbp", fetcher.posts[1].cookieContext)
	assert.Equal(t, "", fetcher.posts[2].cookieContext)
	assert.Equal(t, "usd-token", fetcher.posts[2].form.Get("NewCurrency"))

	// Price tables built per currency, after the handshake
	assert.Equal(t, []string{"eur", "gbp"}, builder.built)

	// Readiness signaled
	select {
	case <-boot.Ready():
	default:
		t.Fatal("Ready channel not closed after Run")
	}
}

func TestRunSignalsReadyExactlyOnce(t *testing.T) {
	fetcher := &mockFetcher{}
	currencies, usd := testCurrencies()

	boot := New(fetcher, &mockBuilder{}, "https://site/handler", currencies, usd)
	assert.NoError(t, boot.Run(context.Background()))

	// A second Run must not panic on a double close
	assert.NotPanics(t, func() {
		boot.Run(context.Background())
	})
}

func TestRunContinuesPastFailedCurrency(t *testing.T) {
	fetcher := &mockFetcher{postErr: map[string]error{"eur": errors.New("boom")}}
	builder := &mockBuilder{}
	currencies, usd := testCurrencies()

	boot := New(fetcher, builder, "https://site/handler", currencies, usd)
	err := boot.Run(context.Background())
	assert.NoError(t, err)

	// eur failed, gbp and the default still happened
	assert.Equal(t, []string{"gbp"}, builder.built)
	assert.Len(t, fetcher.posts, 2)

	select {
	case <-boot.Ready():
	default:
		t.Fatal("Ready channel not closed despite a failed currency")
	}
}

func TestRunDefaultSessionFailureStillSignalsReady(t *testing.T) {
	fetcher := &mockFetcher{postErr: map[string]error{"": errors.New("boom")}}
	currencies, usd := testCurrencies()

	boot := New(fetcher, &mockBuilder{}, "https://site/handler", currencies, usd)
	err := boot.Run(context.Background())
	assert.Error(t, err)

	select {
	case <-boot.Ready():
	default:
		t.Fatal("Ready channel not closed after default session failure")
	}
}

func TestRunWithoutBuilder(t *testing.T) {
	fetcher := &mockFetcher{}
	_, usd := testCurrencies()

	// USD-only deployment: no currencies, no price builder
	boot := New(fetcher, nil, "https://site/handler", nil, usd)
	assert.NoError(t, boot.Run(context.Background()))

	assert.Empty(t, fetcher.contexts)
	assert.Len(t, fetcher.posts, 1)
	assert.Equal(t, "", fetcher.posts[0].cookieContext)
}
