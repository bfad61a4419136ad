package pricetable

import "sync"

// Table maps product codes to localized price strings, one mapping per
// currency. Entries are consumed with Pop so each code's price is used at
// most once per crawl; whatever is left at the end belongs to products the
// traversal never reached, which is not an error.
type Table struct {
	mu     sync.Mutex
	prices map[string]map[string]string
}

// New creates a table with an empty mapping for each currency
func New(currencies ...string) *Table {
	prices := make(map[string]map[string]string, len(currencies))
	for _, currency := range currencies {
		prices[currency] = make(map[string]string)
	}
	return &Table{prices: prices}
}

// Set stores the price for a product code in a currency's mapping
func (t *Table) Set(currency, code, price string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.prices[currency] == nil {
		t.prices[currency] = make(map[string]string)
	}
	t.prices[currency][code] = price
}

// Pop returns the price for a code and removes it from the table. The second
// return value is false when the code is absent, including on a second Pop
// for the same code.
func (t *Table) Pop(currency, code string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entries, ok := t.prices[currency]
	if !ok {
		return "", false
	}
	price, ok := entries[code]
	if !ok {
		return "", false
	}
	delete(entries, code)
	return price, true
}

// Len returns the number of unconsumed entries for a currency
func (t *Table) Len(currency string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.prices[currency])
}
