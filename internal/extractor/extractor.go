package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/scrapeworks/oxygencrawler/helpers"
	"github.com/scrapeworks/oxygencrawler/internal/product"
)

// Selectors contains the CSS selectors for a product detail page. Kept as
// data so a site layout change is a config edit, not a code change.
type Selectors struct {
	Designer   string
	Name       string
	Price      string
	Accordion  string
	Thumbnails string
	SizePanel  string
}

// DefaultSelectors returns the selectors for the site's current layout
func DefaultSelectors() Selectors {
	return Selectors{
		Designer:   ".details h2 a",
		Name:       ".details h2",
		Price:      ".details .price",
		Accordion:  "#accordion div div",
		Thumbnails: "#thumbnailsMobile img",
		SizePanel:  "#SizePanel a",
	}
}

// Extractor turns a fetched detail-page document into a product record.
// Every field degrades to its zero value on a selector miss; extraction
// never fails.
type Extractor struct {
	baseURL        string
	currencySymbol string
	selectors      Selectors
}

// New creates an extractor. Image paths found on the page are prefixed with
// baseURL; currencySymbol is stripped from the price label before parsing.
func New(baseURL, currencySymbol string, selectors Selectors) *Extractor {
	return &Extractor{
		baseURL:        strings.TrimSuffix(baseURL, "/"),
		currencySymbol: currencySymbol,
		selectors:      selectors,
	}
}

// Extract produces all fields of a product record except the localized
// price lookups, which belong to the record assembler.
func (e *Extractor) Extract(doc *goquery.Document, pageURL string) product.Record {
	name := strings.TrimSpace(doc.Find(e.selectors.Name).First().Text())
	description := e.description(doc)
	usdPrice, discount := product.ParsePrice(doc.Find(e.selectors.Price).First().Text(), e.currencySymbol)

	return product.Record{
		Gender:       product.GenderWomen,
		Designer:     strings.TrimSpace(doc.Find(e.selectors.Designer).First().Text()),
		Code:         helpers.LastPathSegment(pageURL),
		Name:         name,
		Type:         product.CategoryFor(name),
		Description:  description,
		RawColor:     product.DetectColor(description),
		ImageURLs:    e.imageURLs(doc),
		USDPrice:     usdPrice,
		SaleDiscount: discount,
		StockStatus:  e.stockStatus(doc),
		Link:         pageURL,
	}
}

// description joins the general description block with the sentence-joined
// lines of the "fit & sizing" panel, dropping empty lines.
func (e *Extractor) description(doc *goquery.Document) string {
	accordion := doc.Find(e.selectors.Accordion)

	general := strings.TrimSpace(accordion.Eq(0).Text())

	var lines []string
	accordion.Eq(1).Find("div div").Each(func(i int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			lines = append(lines, text)
		}
	})
	sizeFit := strings.Join(lines, ". ")

	return strings.TrimSpace(general + " " + sizeFit)
}

// imageURLs collects absolute image URLs in DOM order. The site stores each
// thumbnail's image path in its id attribute.
func (e *Extractor) imageURLs(doc *goquery.Document) []string {
	var urls []string
	doc.Find(e.selectors.Thumbnails).Each(func(i int, s *goquery.Selection) {
		if path, exists := s.Attr("id"); exists && path != "" {
			urls = append(urls, e.baseURL+path)
		}
	})
	return urls
}

// stockStatus maps each size label to a stock code. The site hides sold-out
// sizes with an inline "display:none;" style.
func (e *Extractor) stockStatus(doc *goquery.Document) map[string]int {
	status := make(map[string]int)
	doc.Find(e.selectors.SizePanel).Each(func(i int, s *goquery.Selection) {
		label := strings.TrimSpace(s.Text())
		if label == "" {
			return
		}
		style, _ := s.Attr("style")
		if style == "display:none;" {
			status[label] = product.StockOutOfStock
		} else {
			status[label] = product.StockInStock
		}
	})
	return status
}
