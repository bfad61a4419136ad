package engine

import (
	"context"
	"encoding/json"
	"io"

	"github.com/PuerkitoBio/goquery"

	"github.com/scrapeworks/oxygencrawler/internal/pricetable"
	"github.com/scrapeworks/oxygencrawler/internal/product"
	"github.com/scrapeworks/oxygencrawler/internal/traversal"
	"github.com/scrapeworks/oxygencrawler/logger"
	"github.com/scrapeworks/oxygencrawler/services/publisher"
)

// Fetcher is the slice of the fetch layer the engine needs
type Fetcher interface {
	Get(ctx context.Context, cookieContext, rawURL string) (io.Reader, error)
}

// Extractor turns a fetched product page into a record
type Extractor interface {
	Extract(doc *goquery.Document, pageURL string) product.Record
}

// Config tunes a single crawl
type Config struct {
	StartURL  string
	MaxPages  int // 0 = unlimited
	StreamKey string
}

// Engine runs one crawl: a FIFO traversal from the start URL under the
// default currency session, applying the link policy to every fetched page,
// extracting each terminal (product) page and publishing the assembled
// record.
type Engine struct {
	fetcher   Fetcher
	policy    *traversal.Policy
	extractor Extractor
	prices    *pricetable.Table
	publisher publisher.Publisher
	cfg       Config
	log       *logger.Logger
}

// New creates an engine. prices may be nil for USD-only runs; the records
// then carry no localized prices.
func New(fetcher Fetcher, policy *traversal.Policy, extractor Extractor, prices *pricetable.Table, pub publisher.Publisher, cfg Config) *Engine {
	return &Engine{
		fetcher:   fetcher,
		policy:    policy,
		extractor: extractor,
		prices:    prices,
		publisher: pub,
		cfg:       cfg,
		log:       logger.ForEngine(),
	}
}

// Run blocks until the bootstrap gate opens, then crawls until the queue is
// exhausted, the page budget is spent, or the context is canceled.
func (e *Engine) Run(ctx context.Context, ready <-chan struct{}) error {
	select {
	case <-ready:
	case <-ctx.Done():
		return ctx.Err()
	}

	queue := []string{e.cfg.StartURL}
	visited := make(map[string]bool)
	pagesFetched := 0
	productsEmitted := 0

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.cfg.MaxPages > 0 && pagesFetched >= e.cfg.MaxPages {
			e.log.Warn().Int("max_pages", e.cfg.MaxPages).Msg("Page budget spent, stopping traversal")
			break
		}

		pageURL := queue[0]
		queue = queue[1:]
		if visited[pageURL] {
			continue
		}
		visited[pageURL] = true

		doc, err := e.fetchDocument(ctx, pageURL)
		if err != nil {
			e.log.Warn().Err(err).Str("url", pageURL).Msg("Skipping page")
			continue
		}
		pagesFetched++

		decision := e.policy.Evaluate(doc, pageURL)
		for _, link := range decision.Follow {
			if !visited[link] {
				queue = append(queue, link)
			}
		}

		for _, link := range decision.Terminal {
			if visited[link] {
				continue
			}
			visited[link] = true

			if e.cfg.MaxPages > 0 && pagesFetched >= e.cfg.MaxPages {
				break
			}

			productDoc, err := e.fetchDocument(ctx, link)
			if err != nil {
				e.log.Warn().Err(err).Str("url", link).Msg("Skipping product page")
				continue
			}
			pagesFetched++

			if err := e.emit(productDoc, link); err != nil {
				e.log.Error().Err(err).Str("url", link).Msg("Failed to publish product")
				continue
			}
			productsEmitted++
		}
	}

	if err := e.publisher.TrimStreams(); err != nil {
		e.log.Error().Err(err).Msg("Failed to trim streams")
	}

	e.logCrawlStats(pagesFetched, productsEmitted)
	return nil
}

func (e *Engine) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	body, err := e.fetcher.Get(ctx, "", pageURL)
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(body)
}

// emit extracts the product, merges in the localized prices and publishes
// the record.
func (e *Engine) emit(doc *goquery.Document, pageURL string) error {
	record := e.extractor.Extract(doc, pageURL)
	e.assembleRecord(&record)

	data, err := json.Marshal(record)
	if err != nil {
		return err
	}

	if logger.IsDebugEnabled() {
		e.log.Debug().
			Str("code", record.Code).
			Str("type", record.Type).
			Str("usd_price", record.USDPrice).
			Msg("Product extracted")
	}

	return e.publisher.Publish(e.cfg.StreamKey, data)
}

// assembleRecord pops the product's code from each currency table. A miss
// leaves the field absent; each code's price is consumed at most once.
func (e *Engine) assembleRecord(record *product.Record) {
	if e.prices == nil {
		return
	}
	if price, ok := e.prices.Pop("eur", record.Code); ok {
		record.EURPrice = price
	}
	if price, ok := e.prices.Pop("gbp", record.Code); ok {
		record.GBPPrice = price
	}
}

// logCrawlStats reports what the crawl covered. Leftover price entries are
// products that were listed but never reached by traversal; that is worth
// knowing about but is not an error.
func (e *Engine) logCrawlStats(pagesFetched, productsEmitted int) {
	event := e.log.Info().
		Int("pages_fetched", pagesFetched).
		Int("products_emitted", productsEmitted)
	if e.prices != nil {
		event = event.
			Int("eur_prices_unconsumed", e.prices.Len("eur")).
			Int("gbp_prices_unconsumed", e.prices.Len("gbp"))
	}
	event.Msg("Crawl finished")
}
