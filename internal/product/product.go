package product

// GenderWomen is the only gender the site sells; nothing on a product page
// says otherwise.
const GenderWomen = "F"

// Stock codes for a single size label
const (
	StockOutOfStock = 1
	StockInStock    = 3
)

// Category codes
const (
	CategoryApparel     = "A"
	CategoryShoes       = "S"
	CategoryBags        = "B"
	CategoryJewelry     = "J"
	CategoryAccessories = "R"
)

// Record represents one scraped product
type Record struct {
	Gender       string         `json:"gender"`
	Designer     string         `json:"designer"`
	Code         string         `json:"code"`
	Name         string         `json:"name"`
	Type         string         `json:"type"`
	Description  string         `json:"description"`
	RawColor     string         `json:"raw_color,omitempty"`
	ImageURLs    []string       `json:"image_urls"`
	USDPrice     string         `json:"usd_price"`
	SaleDiscount float64        `json:"sale_discount"`
	StockStatus  map[string]int `json:"stock_status"`
	Link         string         `json:"link"`
	EURPrice     string         `json:"eur_price,omitempty"`
	GBPPrice     string         `json:"gbp_price,omitempty"`
}
