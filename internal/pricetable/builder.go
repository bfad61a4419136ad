package pricetable

import (
	"context"
	"io"

	"github.com/PuerkitoBio/goquery"

	"github.com/scrapeworks/oxygencrawler/config"
	"github.com/scrapeworks/oxygencrawler/helpers"
	"github.com/scrapeworks/oxygencrawler/internal/product"
	"github.com/scrapeworks/oxygencrawler/logger"
	"github.com/scrapeworks/oxygencrawler/pkg/errors"
)

// Fetcher is the slice of the fetch layer the builder needs
type Fetcher interface {
	Get(ctx context.Context, cookieContext, rawURL string) (io.Reader, error)
}

// Selectors for the view-all listing page
const (
	listingTileSelector  = ".homeProducts"
	listingLinkSelector  = "a"
	listingPriceSelector = ".price"
)

// Builder fills a Table from the site's view-all listing, fetched once per
// currency context so the page carries that currency's prices.
type Builder struct {
	fetcher    Fetcher
	table      *Table
	listingURL string
	log        *logger.Logger
}

// NewBuilder creates a price table builder
func NewBuilder(fetcher Fetcher, table *Table, listingURL string) *Builder {
	return &Builder{
		fetcher:    fetcher,
		table:      table,
		listingURL: listingURL,
		log:        logger.ForPriceTable(),
	}
}

// Build fetches the listing in the currency's cookie context and records a
// (code, price) entry per listing tile. Tiles with no link or no parseable
// price are skipped silently.
func (b *Builder) Build(ctx context.Context, currency config.Currency) error {
	body, err := b.fetcher.Get(ctx, currency.Code, b.listingURL)
	if err != nil {
		return err
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return errors.NewParsing(currency.Code, "failed to parse listing page", err)
	}

	count := 0
	doc.Find(listingTileSelector).Each(func(i int, tile *goquery.Selection) {
		href, exists := tile.Find(listingLinkSelector).First().Attr("href")
		if !exists {
			return
		}
		code := helpers.TrimmedPath(href)
		if code == "" {
			return
		}

		price, ok := product.ParseListingPrice(tile.Find(listingPriceSelector).Text(), currency.Symbol)
		if !ok {
			return
		}

		b.table.Set(currency.Code, code, price)
		count++
	})

	b.log.Info().
		Str("currency", currency.Code).
		Int("entries", count).
		Msg("Price table populated")

	return nil
}
