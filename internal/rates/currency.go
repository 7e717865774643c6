package rates

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"finreport/internal/config"
	"finreport/internal/core"
	"finreport/internal/log"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
)

// CurrencyClient queries a currencylayer-style "live" endpoint.
type CurrencyClient struct {
	http   *http.Client
	cache  *cache.Cache
	logger *log.Logger
}

func NewCurrencyClient(httpClient *http.Client, logger *log.Logger) *CurrencyClient {
	return &CurrencyClient{
		http:   defaultClient(httpClient),
		logger: log.OrDiscard(logger).WithComponent(log.ComponentRates),
	}
}

// WithCache keeps successful responses for ttl. A ttl <= 0 disables caching.
func (c *CurrencyClient) WithCache(ttl time.Duration) *CurrencyClient {
	if ttl > 0 {
		c.cache = cache.New(ttl, 2*ttl)
	}
	return c
}

type liveResponse struct {
	Quotes map[string]float64 `json:"quotes"`
}

// Rates returns, for every user currency quoted by the provider, the value
// of one unit of base in that currency: round(1/quote, 4), or 0 for a zero
// quote. Entries follow the settings order; unquoted currencies are left out.
//
// A missing key or URL returns core.ErrConfiguration before any request.
// Any request or decoding failure is logged and yields an empty result.
func (c *CurrencyClient) Rates(ctx context.Context, api config.APIConfig, s core.Settings, base string) ([]core.CurrencyRate, error) {
	if err := api.Validate(); err != nil {
		return nil, err
	}
	out := []core.CurrencyRate{}
	if len(s.Currencies) == 0 {
		return out, nil
	}

	base = strings.ToUpper(strings.TrimSpace(base))
	joined := strings.Join(s.Currencies, ",")
	key := base + ":" + joined
	if c.cache != nil {
		if v, ok := c.cache.Get(key); ok {
			return append(out, v.([]core.CurrencyRate)...), nil
		}
	}

	rawURL, err := buildURL(api.BaseURL, map[string]string{
		"access_key": api.Key,
		"currencies": joined,
		"source":     base,
	})
	if err != nil {
		return nil, err
	}

	var body liveResponse
	header := http.Header{"apikey": []string{api.Key}}
	if err := getJSON(ctx, c.http, rawURL, header, &body); err != nil {
		level := c.logger.ErrorContext
		if errors.Is(ctx.Err(), context.Canceled) {
			level = c.logger.WarnContext
		}
		level(ctx, "Currency rates request failed",
			log.FieldOperation, log.OpCurrency, log.FieldCurrency, base, log.FieldError, err)
		return out, nil
	}

	for _, cur := range s.Currencies {
		v, ok := body.Quotes[base+cur]
		if !ok {
			c.logger.WarnContext(ctx, "No quote for currency",
				log.FieldOperation, log.OpCurrency, log.FieldCurrency, cur)
			continue
		}
		out = append(out, core.CurrencyRate{Currency: cur, Rate: invert(v)})
	}

	if c.cache != nil {
		c.cache.SetDefault(key, append([]core.CurrencyRate(nil), out...))
	}
	c.logger.InfoContext(ctx, "Currency rates fetched",
		log.FieldOperation, log.OpCurrency, log.FieldRows, len(out))
	return out, nil
}

func invert(v float64) float64 {
	if v == 0 {
		return 0
	}
	return decimal.NewFromInt(1).Div(decimal.NewFromFloat(v)).Round(4).InexactFloat64()
}
