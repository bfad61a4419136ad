package session

import (
	"context"
	"io"
	"net/url"
	"sync"

	"github.com/scrapeworks/oxygencrawler/config"
	"github.com/scrapeworks/oxygencrawler/logger"
	"github.com/scrapeworks/oxygencrawler/pkg/errors"
)

// Fetcher is the slice of the fetch layer the bootstrapper needs
type Fetcher interface {
	Context(name string) error
	PostForm(ctx context.Context, cookieContext, rawURL string, form url.Values) (io.Reader, error)
}

// PriceBuilder fills a currency's price table within its session context
type PriceBuilder interface {
	Build(ctx context.Context, currency config.Currency) error
}

// Bootstrapper establishes one cookie session per currency before the crawl
// starts. Each currency gets its own context, a preference-setting form POST
// and a price-table pass; the default currency's preference is set on the
// unnamed context the traversal runs in. Run signals readiness exactly once,
// and the engine must not issue its first traversal request before then.
type Bootstrapper struct {
	fetcher         Fetcher
	builder         PriceBuilder
	endpoint        string
	currencies      []config.Currency
	defaultCurrency config.Currency

	ready chan struct{}
	once  sync.Once
	log   *logger.Logger
}

// New creates a bootstrapper. builder may be nil for USD-only runs with no
// price tables.
func New(fetcher Fetcher, builder PriceBuilder, endpoint string, currencies []config.Currency, defaultCurrency config.Currency) *Bootstrapper {
	return &Bootstrapper{
		fetcher:         fetcher,
		builder:         builder,
		endpoint:        endpoint,
		currencies:      currencies,
		defaultCurrency: defaultCurrency,
		ready:           make(chan struct{}),
		log:             logger.ForSession(),
	}
}

// Ready is closed once all currency sessions are established and the
// traversal may start.
func (b *Bootstrapper) Ready() <-chan struct{} {
	return b.ready
}

// Run bootstraps every currency session, then the default session, then
// signals readiness. A failed currency session is logged and skipped: its
// price lookups will come back absent, which downstream treats as a normal
// miss. The returned error reports a failed default-session handshake, which
// still does not stop the crawl from being attempted.
func (b *Bootstrapper) Run(ctx context.Context) error {
	defer b.once.Do(func() { close(b.ready) })

	for _, currency := range b.currencies {
		if err := b.establish(ctx, currency); err != nil {
			b.log.Warn().
				Err(err).
				Str("currency", currency.Code).
				Msg("Currency session failed, prices for it will be absent")
			continue
		}

		if b.builder == nil {
			continue
		}
		if err := b.builder.Build(ctx, currency); err != nil {
			b.log.Warn().
				Err(err).
				Str("currency", currency.Code).
				Msg("Price table pass failed, prices for it will be absent")
		}
	}

	// The traversal pass itself runs under the default currency
	if _, err := b.fetcher.PostForm(ctx, "", b.endpoint, b.formFor(b.defaultCurrency)); err != nil {
		return errors.NewSession(b.defaultCurrency.Code, "default currency handshake failed", err)
	}

	b.log.Info().
		Int("currencies", len(b.currencies)).
		Str("default", b.defaultCurrency.Code).
		Msg("Currency sessions established")

	return nil
}

func (b *Bootstrapper) establish(ctx context.Context, currency config.Currency) error {
	if err := b.fetcher.Context(currency.Code); err != nil {
		return err
	}

	if _, err := b.fetcher.PostForm(ctx, currency.Code, b.endpoint, b.formFor(currency)); err != nil {
		return errors.NewSession(currency.Code, "currency handshake failed", err)
	}
	return nil
}

func (b *Bootstrapper) formFor(currency config.Currency) url.Values {
	return url.Values{
		"Action":      {"UpdateCurrency"},
		"NewCurrency": {currency.Token},
		"NewCountry":  {currency.Country},
	}
}
