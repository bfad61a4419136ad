package config

import (
	"os"
	"strconv"
	"time"

	"github.com/scrapeworks/oxygencrawler/pkg/errors"
)

// Currency describes one currency/country preference supported by the site.
// Token is the opaque identifier the site expects in the UpdateCurrency form.
type Currency struct {
	Code    string
	Symbol  string
	Token   string
	Country string
}

// Config represents the application configuration
type Config struct {
	// Site configuration
	BaseURL          string
	CurrencyEndpoint string
	ListingPath      string

	// Redis configuration
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	// Memcache configuration
	MemcacheAddr string

	// Fetch configuration
	RequestTimeout    time.Duration
	RequestsPerSecond float64
	FetchBlockTime    time.Duration
	MaxPages          int

	// Currency configuration
	MultiCurrency bool
	EURToken      string
	EURCountry    string
	GBPToken      string
	GBPCountry    string
	USDToken      string
	USDCountry    string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	streamCount, _ := strconv.Atoi(getEnv("REDIS_STREAM_COUNT", "1"))
	streamMaxLen, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAX_LENGTH", "500"))
	timeout, _ := strconv.Atoi(getEnv("REQUEST_TIMEOUT_SECONDS", "10"))
	rps, _ := strconv.ParseFloat(getEnv("REQUESTS_PER_SECOND", "2"), 64)
	blockTime, _ := strconv.Atoi(getEnv("FETCH_BLOCK_SECONDS", "500"))
	maxPages, _ := strconv.Atoi(getEnv("MAX_PAGES", "0"))
	multiCurrency, _ := strconv.ParseBool(getEnv("MULTI_CURRENCY", "true"))

	return Config{
		BaseURL:              getEnv("BASE_URL", "https://www.oxygenboutique.com"),
		CurrencyEndpoint:     getEnv("CURRENCY_ENDPOINT", "https://www.oxygenboutique.com/frontendhandler.ashx"),
		ListingPath:          getEnv("LISTING_PATH", "/search-results?ViewAll=1"),
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:              redisDB,
		RedisStream:          getEnv("REDIS_STREAM", "products"),
		RedisStreamCount:     streamCount,
		RedisStreamMaxLength: streamMaxLen,
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", "localhost:11211"),
		RequestTimeout:       time.Duration(timeout) * time.Second,
		RequestsPerSecond:    rps,
		FetchBlockTime:       time.Duration(blockTime) * time.Second,
		MaxPages:             maxPages,
		MultiCurrency:        multiCurrency,
		EURToken:             getEnv("EUR_CURRENCY_TOKEN", "72105097-911D-4366-A591-DA74A2DAA544"),
		EURCountry:           getEnv("EUR_COUNTRY", "Republic of Ireland"),
		GBPToken:             getEnv("GBP_CURRENCY_TOKEN", "b2dd6e5d-5336-4195-b966-2c81d2b34899"),
		GBPCountry:           getEnv("GBP_COUNTRY", "United Kingdom"),
		USDToken:             getEnv("USD_CURRENCY_TOKEN", "519EFDE3-30C5-49EF-8F8D-AD1ACF82DB0A"),
		USDCountry:           getEnv("USD_COUNTRY", "United States"),
		Environment:          getEnv("OXYGEN_ENVIRONMENT", "development"),
	}
}

// Validate checks the configuration for values the crawl cannot run without
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.NewConfiguration("BASE_URL must not be empty", nil)
	}
	if c.CurrencyEndpoint == "" {
		return errors.NewConfiguration("CURRENCY_ENDPOINT must not be empty", nil)
	}
	if c.RequestsPerSecond <= 0 {
		return errors.NewConfiguration("REQUESTS_PER_SECOND must be positive", nil)
	}
	if c.RequestTimeout <= 0 {
		return errors.NewConfiguration("REQUEST_TIMEOUT_SECONDS must be positive", nil)
	}
	return nil
}

// Currencies returns the non-default currencies that get their own session
// context and price table. Empty when multi-currency support is disabled.
func (c *Config) Currencies() []Currency {
	if !c.MultiCurrency {
		return nil
	}
	return []Currency{
		{Code: "eur", Symbol: "€", Token: c.EURToken, Country: c.EURCountry},
		{Code: "gbp", Symbol: "£", Token: c.GBPToken, Country: c.GBPCountry},
	}
}

// DefaultCurrency returns the currency the traversal pass runs under.
func (c *Config) DefaultCurrency() Currency {
	return Currency{Code: "usd", Symbol: "$", Token: c.USDToken, Country: c.USDCountry}
}

// ListingURL returns the absolute URL of the view-all listing page.
func (c *Config) ListingURL() string {
	return c.BaseURL + c.ListingPath
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
