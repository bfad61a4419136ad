package product

import "strings"

// categoryKeywords pairs a category code with the name keywords that imply
// it. An ordered slice keeps "first match wins" deterministic; a map would
// not. The site has very few shoes and accessories, which is why so few
// words are tagged as such.
type categoryKeywords struct {
	code  string
	words []string
}

var categoryTable = []categoryKeywords{
	{CategoryShoes, []string{"sneakers", "boots"}},
	{CategoryBags, []string{"bag"}},
	{CategoryAccessories, []string{"hat", "tattoo"}},
}

// CategoryFor guesses the category from keywords in the product name. The
// site does not label product types, so this is the best available signal;
// the vast majority of items are apparel, which is the default.
func CategoryFor(name string) string {
	lower := strings.ToLower(name)
	for _, entry := range categoryTable {
		for _, word := range entry.words {
			if strings.Contains(lower, word) {
				return entry.code
			}
		}
	}
	return CategoryApparel
}
