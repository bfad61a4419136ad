package product

import (
	"strconv"
	"strings"
)

// ParsePrice parses a detail-page price label like "$120.00 $80.00" into the
// full (pre-discount) price and the discount percentage. A label with a
// single token ("$50.00") means no sale: the token is both prices and the
// discount is 0. Missing numeric tokens count as 0, and a full price of 0
// yields a 0% discount rather than a division.
func ParsePrice(label, symbol string) (string, float64) {
	cleaned := strings.ReplaceAll(label, symbol, "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	tokens := strings.Fields(cleaned)
	if len(tokens) == 0 {
		return "", 0
	}

	fullPrice := tokens[0]
	fullValue := parseAmount(fullPrice)
	discountedValue := parseAmount(tokens[len(tokens)-1])

	if fullValue == 0 {
		return fullPrice, 0
	}

	discount := (fullValue - discountedValue) / fullValue * 100
	return fullPrice, discount
}

// ParseListingPrice extracts the current price token from a listing-tile
// price label, handling "12.00 (was 20.00)" style strings by taking the
// leading number. The second return value is false when the label holds no
// token at all.
func ParseListingPrice(label, symbol string) (string, bool) {
	cleaned := strings.ReplaceAll(label, symbol, "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	tokens := strings.Fields(cleaned)
	if len(tokens) == 0 {
		return "", false
	}
	return tokens[0], true
}

func parseAmount(token string) float64 {
	if token == "" {
		return 0
	}
	value, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0
	}
	return value
}
