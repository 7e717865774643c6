package rates

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"finreport/internal/config"
	"finreport/internal/core"
	"finreport/internal/log"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// DefaultConcurrency bounds parallel symbol requests.
const DefaultConcurrency = 4

// StockClient queries an Alpha Vantage-style GLOBAL_QUOTE endpoint, one
// request per symbol.
type StockClient struct {
	http        *http.Client
	concurrency int
	limiter     *rate.Limiter
	cache       *cache.Cache
	logger      *log.Logger
}

// NewStockClient creates a client running at most concurrency requests at
// once. rps > 0 additionally paces requests to rps per second.
func NewStockClient(httpClient *http.Client, concurrency int, rps float64, logger *log.Logger) *StockClient {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	c := &StockClient{
		http:        defaultClient(httpClient),
		concurrency: concurrency,
		logger:      log.OrDiscard(logger).WithComponent(log.ComponentRates),
	}
	if rps > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return c
}

// WithCache keeps successful per-symbol results for ttl. A ttl <= 0 disables caching.
func (c *StockClient) WithCache(ttl time.Duration) *StockClient {
	if ttl > 0 {
		c.cache = cache.New(ttl, 2*ttl)
	}
	return c
}

type globalQuoteResponse struct {
	GlobalQuote map[string]any `json:"Global Quote"`
}

// Prices returns one entry per symbol that the provider answered, in
// settings order. A quote without a price has a nil Price. A symbol whose
// request fails is logged and omitted; other symbols are unaffected.
//
// A missing key or URL returns core.ErrConfiguration before any request.
func (c *StockClient) Prices(ctx context.Context, api config.APIConfig, s core.Settings) ([]core.StockPrice, error) {
	if err := api.Validate(); err != nil {
		return nil, err
	}

	results := make([]*core.StockPrice, len(s.Stocks))
	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i, symbol := range s.Stocks {
		i, symbol := i, symbol
		g.Go(func() error {
			sp, err := c.price(ctx, api, symbol)
			if err != nil {
				c.logger.ErrorContext(ctx, "Stock price request failed",
					log.FieldOperation, log.OpStocks, log.FieldSymbol, symbol, log.FieldError, err)
				return nil
			}
			results[i] = sp
			return nil
		})
	}
	_ = g.Wait()

	out := make([]core.StockPrice, 0, len(results))
	for _, sp := range results {
		if sp != nil {
			out = append(out, *sp)
		}
	}
	c.logger.InfoContext(ctx, "Stock prices fetched",
		log.FieldOperation, log.OpStocks, log.FieldRows, len(out))
	return out, nil
}

func (c *StockClient) price(ctx context.Context, api config.APIConfig, symbol string) (*core.StockPrice, error) {
	if c.cache != nil {
		if v, ok := c.cache.Get(symbol); ok {
			sp := v.(core.StockPrice)
			return &sp, nil
		}
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrTransientNetwork, err)
		}
	}

	rawURL, err := buildURL(api.BaseURL, map[string]string{
		"function": "GLOBAL_QUOTE",
		"symbol":   symbol,
		"apikey":   api.Key,
	})
	if err != nil {
		return nil, err
	}
	var body globalQuoteResponse
	if err := getJSON(ctx, c.http, rawURL, nil, &body); err != nil {
		return nil, err
	}

	sp := &core.StockPrice{Stock: symbol, Price: c.parsePrice(ctx, symbol, body.GlobalQuote["05. price"])}
	if c.cache != nil {
		c.cache.SetDefault(symbol, *sp)
	}
	return sp, nil
}

// parsePrice accepts the provider's string form or a bare number. Blank or
// missing prices are nil; unparseable text is nil and logged.
func (c *StockClient) parsePrice(ctx context.Context, symbol string, raw any) *float64 {
	switch v := raw.(type) {
	case float64:
		return &v
	case string:
		v = strings.TrimSpace(v)
		if v == "" {
			return nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			c.logger.WarnContext(ctx, "Unparseable stock price",
				log.FieldOperation, log.OpStocks, log.FieldSymbol, symbol, "price", v)
			return nil
		}
		return &f
	default:
		return nil
	}
}
