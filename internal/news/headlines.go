package news

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"

	"growdash/internal/interfaces"
	"growdash/internal/logger"
	"growdash/internal/store"
	"growdash/internal/types"
)

// Source defines a news source configuration
type Source struct {
	Name      string
	BaseURL   string
	TopicPath string // e.g., "/news/tags/{topic}.html"
	Selectors headlineSelectors
	RateLimit time.Duration
}

// headlineSelectors defines CSS selectors for extracting headline data
type headlineSelectors struct {
	Container string
	Title     string
	URL       string
}

// defaultSources returns the financial news sources to scrape
func defaultSources() []Source {
	return []Source{
		{
			Name:      "MoneyControl",
			BaseURL:   "https://www.moneycontrol.com",
			TopicPath: "/news/tags/{topic}.html",
			Selectors: headlineSelectors{
				Container: "li.clearfix",
				Title:     "h2 a, h3 a",
				URL:       "h2 a, h3 a",
			},
			RateLimit: 2 * time.Second,
		},
		{
			Name:      "EconomicTimes",
			BaseURL:   "https://economictimes.indiatimes.com",
			TopicPath: "/topic/{topic}",
			Selectors: headlineSelectors{
				Container: "div.story-box",
				Title:     "a",
				URL:       "a",
			},
			RateLimit: 2 * time.Second,
		},
	}
}

// headlineCache stores scraped headlines per topic with a TTL
type headlineCache struct {
	mu   sync.RWMutex
	data map[string]*cacheEntry
	ttl  time.Duration
}

type cacheEntry struct {
	headlines []types.Headline
	timestamp time.Time
}

func newHeadlineCache(ttl time.Duration) *headlineCache {
	cache := &headlineCache{
		data: make(map[string]*cacheEntry),
		ttl:  ttl,
	}

	go cache.cleanupLoop()

	return cache
}

func (c *headlineCache) get(topic string) ([]types.Headline, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.data[topic]
	if !exists {
		return nil, false
	}

	if time.Since(entry.timestamp) > c.ttl {
		return nil, false
	}

	return entry.headlines, true
}

func (c *headlineCache) set(topic string, headlines []types.Headline) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[topic] = &cacheEntry{
		headlines: headlines,
		timestamp: time.Now(),
	}
}

// cleanupLoop periodically removes expired entries
func (c *headlineCache) cleanupLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.cleanup()
	}
}

func (c *headlineCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for topic, entry := range c.data {
		if now.Sub(entry.timestamp) > c.ttl {
			delete(c.data, topic)
		}
	}
}

// Service scrapes market headlines with per-topic caching
type Service struct {
	sources []Source
	cache   *headlineCache
	timeout time.Duration
	enabled bool
}

var _ interfaces.HeadlineProvider = (*Service)(nil)

// NewService creates a headline service from the application config
func NewService(cfg *store.Config) *Service {
	ttl := time.Duration(cfg.News.CacheMinutes) * time.Minute
	if ttl <= 0 {
		ttl = time.Hour
	}

	return &Service{
		sources: defaultSources(),
		cache:   newHeadlineCache(ttl),
		timeout: 30 * time.Second,
		enabled: cfg.News.Enabled,
	}
}

// Headlines returns recent headlines for a topic, cached or fresh
func (s *Service) Headlines(ctx context.Context, topic string, max int) ([]types.Headline, error) {
	if !s.enabled {
		return []types.Headline{}, nil
	}
	if max < 1 {
		max = 1
	}

	topic = strings.ToLower(strings.TrimSpace(topic))
	if topic == "" {
		return []types.Headline{}, nil
	}

	if cached, ok := s.cache.get(topic); ok {
		logger.Debug(ctx, "Using cached headlines", "topic", topic, "headlines", len(cached))
		return capHeadlines(cached, max), nil
	}

	logger.Info(ctx, "Fetching fresh headlines", "topic", topic, "sources", len(s.sources))
	headlines := s.scrapeAll(ctx, topic, max)

	s.cache.set(topic, headlines)

	return capHeadlines(headlines, max), nil
}

// scrapeAll collects headlines across all configured sources
func (s *Service) scrapeAll(ctx context.Context, topic string, max int) []types.Headline {
	perSource := max / len(s.sources)
	if perSource < 1 {
		perSource = 1
	}

	all := []types.Headline{}
	for _, source := range s.sources {
		headlines, err := s.scrapeSource(ctx, source, topic, perSource)
		if err != nil {
			logger.ErrorWithErr(ctx, "Failed to scrape source", err, "source", source.Name, "topic", topic)
			continue
		}
		all = append(all, headlines...)

		// Rate limiting between sources
		time.Sleep(source.RateLimit)
	}

	logger.Info(ctx, "Headline scraping completed", "topic", topic, "headlines", len(all))
	return all
}

// scrapeSource scrapes headlines from a single news source
func (s *Service) scrapeSource(ctx context.Context, source Source, topic string, max int) ([]types.Headline, error) {
	headlines := []types.Headline{}

	c := colly.NewCollector(
		colly.AllowedDomains(getDomain(source.BaseURL)),
		colly.MaxDepth(1),
		colly.Async(false),
	)

	c.SetRequestTimeout(s.timeout)

	// Set user agent to avoid being blocked
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	})

	c.OnHTML(source.Selectors.Container, func(e *colly.HTMLElement) {
		if len(headlines) >= max {
			return
		}

		title := strings.TrimSpace(e.ChildText(source.Selectors.Title))
		if title == "" {
			return
		}

		headlineURL := e.ChildAttr(source.Selectors.URL, "href")
		if headlineURL == "" {
			return
		}

		if !strings.HasPrefix(headlineURL, "http") {
			headlineURL = source.BaseURL + headlineURL
		}

		headlines = append(headlines, types.Headline{
			Source: source.Name,
			Title:  title,
			URL:    headlineURL,
		})
	})

	c.OnError(func(r *colly.Response, err error) {
		logger.ErrorWithErr(ctx, "Scraping error", err, "source", source.Name, "url", r.Request.URL.String())
	})

	topicURL := source.BaseURL + strings.ReplaceAll(source.TopicPath, "{topic}", topic)

	err := c.Visit(topicURL)
	if err != nil {
		return nil, fmt.Errorf("failed to visit %s: %w", topicURL, err)
	}

	c.Wait()

	return headlines, nil
}

func capHeadlines(headlines []types.Headline, max int) []types.Headline {
	if len(headlines) <= max {
		return headlines
	}
	return headlines[:max]
}

// getDomain extracts domain from URL
func getDomain(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
