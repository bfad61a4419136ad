package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/scrapeworks/oxygencrawler/config"
	"github.com/scrapeworks/oxygencrawler/internal/engine"
	"github.com/scrapeworks/oxygencrawler/internal/extractor"
	"github.com/scrapeworks/oxygencrawler/internal/pricetable"
	"github.com/scrapeworks/oxygencrawler/internal/session"
	"github.com/scrapeworks/oxygencrawler/internal/traversal"
	"github.com/scrapeworks/oxygencrawler/logger"
	"github.com/scrapeworks/oxygencrawler/services/cache"
	"github.com/scrapeworks/oxygencrawler/services/fetcher"
	"github.com/scrapeworks/oxygencrawler/services/publisher"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("base_url", cfg.BaseURL).
		Bool("multi_currency", cfg.MultiCurrency).
		Msg("Starting application")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Initialize services
	services, err := initializeServices(ctx, &cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer services.Cleanup()

	// Wire up the crawl
	policy, err := traversal.NewPolicy(cfg.BaseURL, traversal.DefaultRules())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create traversal policy")
	}

	usd := cfg.DefaultCurrency()
	extract := extractor.New(cfg.BaseURL, usd.Symbol, extractor.DefaultSelectors())

	currencies := cfg.Currencies()
	var prices *pricetable.Table
	var builder session.PriceBuilder
	if len(currencies) > 0 {
		codes := make([]string, len(currencies))
		for i, currency := range currencies {
			codes[i] = currency.Code
		}
		prices = pricetable.New(codes...)
		builder = pricetable.NewBuilder(services.Fetcher, prices, cfg.ListingURL())
	}

	boot := session.New(services.Fetcher, builder, cfg.CurrencyEndpoint, currencies, usd)

	crawl := engine.New(services.Fetcher, policy, extract, prices, services.Publisher, engine.Config{
		StartURL:  cfg.BaseURL,
		MaxPages:  cfg.MaxPages,
		StreamKey: "b64_products",
	})

	// Run the crawl in a goroutine
	crawlDone := make(chan error, 1)
	go func() {
		if err := boot.Run(ctx); err != nil {
			log.Warn().Err(err).Msg("Currency bootstrap incomplete")
		}
		crawlDone <- crawl.Run(ctx, boot.Ready())
	}()

	// Wait for shutdown signal or crawl completion
	select {
	case sig := <-sigChan:
		log.Info().
			Str("signal", sig.String()).
			Msg("Received shutdown signal")
		cancel()
		<-crawlDone
	case err := <-crawlDone:
		if err != nil {
			log.Error().Err(err).Msg("Crawl exited with error")
		} else {
			log.Info().Msg("Crawl completed")
		}
	}

	// Graceful shutdown
	log.Info().Msg("Shutting down gracefully...")
}

// Services holds all the initialized services
type Services struct {
	Cache     cache.CacheService
	Publisher publisher.Publisher
	Fetcher   *fetcher.Client
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Publisher != nil {
		s.Publisher.Close()
	}
}

// initializeServices initializes all required services
func initializeServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	services := &Services{}

	// Initialize cache service
	cacheService := cache.NewMemcacheService(cfg.MemcacheAddr)
	if cacheService == nil {
		return nil, fmt.Errorf("failed to create cache service")
	}
	services.Cache = cacheService

	logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)

	// Initialize publisher
	redisPublisher := publisher.NewRedisPublisher(
		ctx,
		cfg.RedisAddr,
		cfg.RedisDB,
		cfg.RedisStream,
		cfg.RedisStreamCount,
		cfg.RedisStreamMaxLength,
	)
	if redisPublisher == nil {
		return nil, fmt.Errorf("failed to create redis publisher")
	}
	services.Publisher = redisPublisher

	logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
		cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)

	// Initialize the fetch client
	fetchClient, err := fetcher.New(cfg.BaseURL, fetcher.Options{
		Timeout:           cfg.RequestTimeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Cache:             cacheService,
		BlockKey:          "oxygen_rate_limited",
		BlockTime:         cfg.FetchBlockTime,
	})
	if err != nil {
		return nil, err
	}
	services.Fetcher = fetchClient

	return services, nil
}
