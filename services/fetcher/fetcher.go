package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	mathrand "math/rand"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"golang.org/x/net/html/charset"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"

	"github.com/scrapeworks/oxygencrawler/logger"
	"github.com/scrapeworks/oxygencrawler/pkg/errors"
	"github.com/scrapeworks/oxygencrawler/services/cache"
)

// HTTP header configurations
var (
	userAgents = []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/112.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.0.3 Safari/605.1.15",
	}

	referers = []string{
		"https://www.google.com/",
		"https://www.bing.com/",
		"https://duckduckgo.com/",
	}
)

// DefaultContext is the unnamed cookie context traversal requests run in.
const DefaultContext = ""

// Options configures a Client.
type Options struct {
	Timeout           time.Duration
	RequestsPerSecond float64
	Cache             cache.CacheService
	BlockKey          string
	BlockTime         time.Duration
	SkipRobots        bool
}

// Client fetches pages from a single site. Each named context gets its own
// cookie jar, so a currency preference set in one context never leaks into
// another. All contexts share one rate limiter.
type Client struct {
	baseURL   *url.URL
	limiter   *rate.Limiter
	cacheSvc  cache.CacheService
	blockKey  string
	blockTime time.Duration

	skipRobots bool
	robots     *robotstxt.RobotsData
	robotsOnce sync.Once

	mu       sync.Mutex
	contexts map[string]*http.Client
	timeout  time.Duration

	log *logger.Logger
}

// New creates a fetch client for the given site
func New(baseURL string, opts Options) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.NewConfiguration(fmt.Sprintf("invalid base URL %q", baseURL), err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}

	c := &Client{
		baseURL:    u,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		cacheSvc:   opts.Cache,
		blockKey:   opts.BlockKey,
		blockTime:  opts.BlockTime,
		skipRobots: opts.SkipRobots,
		contexts:   make(map[string]*http.Client),
		timeout:    timeout,
		log:        logger.ForFetcher(),
	}

	// The default context always exists
	if err := c.Context(DefaultContext); err != nil {
		return nil, err
	}

	return c, nil
}

// Context ensures a named cookie context exists. Creating a context that
// already exists is a no-op, so the session bootstrapper can call this freely.
func (c *Client) Context(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.contexts[name]; ok {
		return nil
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return errors.NewSession(name, "failed to create cookie jar", err)
	}

	c.contexts[name] = &http.Client{
		Timeout: c.timeout,
		Jar:     jar,
	}
	return nil
}

// Get fetches a URL within the given cookie context and returns its body as
// a UTF-8 reader.
func (c *Client) Get(ctx context.Context, cookieContext, rawURL string) (io.Reader, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.NewNetwork(cookieContext, "failed to create request", err)
	}
	return c.do(ctx, cookieContext, req)
}

// PostForm submits a form within the given cookie context. The site's
// currency handshake is a plain form POST whose response sets the session
// cookies the context keeps.
func (c *Client) PostForm(ctx context.Context, cookieContext, rawURL string, form url.Values) (io.Reader, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.NewNetwork(cookieContext, "failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(ctx, cookieContext, req)
}

func (c *Client) do(ctx context.Context, cookieContext string, req *http.Request) (io.Reader, error) {
	// Check if a previous response blocked us out
	if c.cacheSvc != nil && c.blockKey != "" {
		if _, err := c.cacheSvc.Get(c.blockKey); err == nil {
			return nil, errors.NewRateLimit(c.blockKey, c.blockTime)
		}
	}

	if !c.allowedByRobots(req.URL) {
		return nil, errors.NewNetwork(cookieContext, fmt.Sprintf("disallowed by robots.txt: %s", req.URL.Path), nil)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.NewNetwork(cookieContext, "rate limiter wait canceled", err)
	}

	c.setBrowserHeaders(req)

	client, err := c.clientFor(cookieContext)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.NewNetwork(cookieContext, fmt.Sprintf("failed to fetch %s", req.URL), err)
	}
	defer resp.Body.Close()

	// Check for rate limiting
	if slices.Contains([]int{http.StatusTooManyRequests, 430}, resp.StatusCode) {
		if c.cacheSvc != nil && c.blockKey != "" {
			c.cacheSvc.Set(c.blockKey, []byte(fmt.Sprintf("%d", c.blockTime/time.Second)), c.blockTime)
		}
		return nil, errors.NewRateLimit(c.blockKey, c.blockTime)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewNetwork(cookieContext, fmt.Sprintf("fetch %s unexpected status code: %d", req.URL, resp.StatusCode), nil)
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewNetwork(cookieContext, "failed to read response body", err)
	}

	return decodeUTF8(bodyBytes, resp.Header.Get("Content-Type"))
}

func (c *Client) clientFor(cookieContext string) (*http.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	client, ok := c.contexts[cookieContext]
	if !ok {
		return nil, errors.NewSession(cookieContext, "unknown cookie context", nil)
	}
	return client, nil
}

func (c *Client) setBrowserHeaders(req *http.Request) {
	rnd := mathrand.New(mathrand.NewSource(time.Now().UnixNano()))

	req.Header.Set("User-Agent", userAgents[rnd.Intn(len(userAgents))])
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7")
	req.Header.Set("Accept-Language", "en-GB,en-US;q=0.9,en;q=0.8")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("referer", referers[rnd.Intn(len(referers))])
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("upgrade-insecure-requests", "1")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "cross-site")
	req.Header.Set("Sec-Fetch-User", "?1")
}

// allowedByRobots checks robots.txt for the site, fetched once per client and
// failing open: an unreachable or malformed robots.txt never stops the crawl.
func (c *Client) allowedByRobots(u *url.URL) bool {
	if c.skipRobots {
		return true
	}

	c.robotsOnce.Do(func() {
		robotsURL := c.baseURL.ResolveReference(&url.URL{Path: "/robots.txt"}).String()

		client, err := c.clientFor(DefaultContext)
		if err != nil {
			return
		}

		resp, err := client.Get(robotsURL)
		if err != nil {
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return
		}

		data, err := robotstxt.FromResponse(resp)
		if err != nil {
			c.log.Warn().Err(err).Msg("Failed to parse robots.txt")
			return
		}
		c.robots = data
	})

	if c.robots == nil {
		return true
	}
	return c.robots.TestAgent(u.Path, "Mozilla/5.0")
}

// decodeUTF8 converts a response body to UTF-8 based on the Content-Type
// header and the body content itself.
func decodeUTF8(bodyBytes []byte, contentType string) (io.Reader, error) {
	encoding, name, _ := charset.DetermineEncoding(bodyBytes, contentType)

	// If already UTF-8, return as is
	if name == "utf-8" || name == "UTF-8" {
		return bytes.NewReader(bodyBytes), nil
	}

	utf8Reader := encoding.NewDecoder().Reader(bytes.NewReader(bodyBytes))
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, utf8Reader); err != nil {
		return nil, fmt.Errorf("failed to read converted UTF-8 body: %w", err)
	}

	return &buf, nil
}
