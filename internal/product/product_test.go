package product

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategoryFor(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"Suede Ankle Boots", CategoryShoes},
		{"Retro SNEAKERS in white", CategoryShoes},
		{"Leather Shoulder Bag", CategoryBags},
		{"Wide Brim Hat", CategoryAccessories},
		{"Temporary Tattoo Set", CategoryAccessories},
		{"Silk Wrap Dress", CategoryApparel},
		{"", CategoryApparel},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, CategoryFor(tt.name), "name: %q", tt.name)
	}
}

func TestDetectColor(t *testing.T) {
	// First left-to-right match wins, not vocabulary order
	assert.Equal(t, "black", DetectColor("A sleek black jacket with gold zippers"))
	assert.Equal(t, "gold", DetectColor("Gold sandals with black soles"))

	// Case-insensitive, word boundaries required
	assert.Equal(t, "ivory", DetectColor("An IVORY gown"))
	assert.Equal(t, "", DetectColor("A blacksmith-inspired print"))

	// No vocabulary match
	assert.Equal(t, "", DetectColor("Comfortable cotton wrap dress"))

	// Both gray spellings
	assert.Equal(t, "grey", DetectColor("a grey knit"))
	assert.Equal(t, "gray", DetectColor("a gray knit"))
}

func TestParsePrice(t *testing.T) {
	price, discount := ParsePrice("$120.00 $80.00", "$")
	assert.Equal(t, "120.00", price)
	assert.InDelta(t, 33.33, discount, 0.01)

	price, discount = ParsePrice("$50.00", "$")
	assert.Equal(t, "50.00", price)
	assert.Equal(t, 0.0, discount)

	// Thousands separators are stripped
	price, discount = ParsePrice("$1,200.00 $600.00", "$")
	assert.Equal(t, "1200.00", price)
	assert.InDelta(t, 50.0, discount, 0.01)

	// Zero base price must not divide
	price, discount = ParsePrice("$0 $0", "$")
	assert.Equal(t, "0", price)
	assert.Equal(t, 0.0, discount)

	// Empty label
	price, discount = ParsePrice("", "$")
	assert.Equal(t, "", price)
	assert.Equal(t, 0.0, discount)

	// Other currency symbols
	price, _ = ParsePrice("€65.00", "€")
	assert.Equal(t, "65.00", price)
}

func TestParseListingPrice(t *testing.T) {
	price, ok := ParseListingPrice("£12.00 (was 20.00)", "£")
	assert.True(t, ok)
	assert.Equal(t, "12.00", price)

	price, ok = ParseListingPrice("€1,065.00", "€")
	assert.True(t, ok)
	assert.Equal(t, "1065.00", price)

	_, ok = ParseListingPrice("   ", "€")
	assert.False(t, ok)
}
