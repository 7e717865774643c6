package rates

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"finreport/internal/config"
	"finreport/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrencyClient_Rates(t *testing.T) {
	var gotQuery, gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotHeader = r.Header.Get("apikey")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success": true, "source": "RUB", "quotes": {"RUBEUR": 0.0, "RUBUSD": 90.0}}`))
	}))
	defer srv.Close()

	c := NewCurrencyClient(srv.Client(), nil)
	api := config.APIConfig{Key: "secret", BaseURL: srv.URL + "/live"}
	got, err := c.Rates(context.Background(), api, core.Settings{Currencies: []string{"USD", "EUR", "GBP"}}, "RUB")
	require.NoError(t, err)

	assert.Equal(t, []core.CurrencyRate{
		{Currency: "USD", Rate: 0.0111},
		{Currency: "EUR", Rate: 0},
	}, got)
	assert.Equal(t, "secret", gotHeader)
	assert.Contains(t, gotQuery, "access_key=secret")
	assert.Contains(t, gotQuery, "currencies=USD%2CEUR%2CGBP")
	assert.Contains(t, gotQuery, "source=RUB")
}

func TestCurrencyClient_MissingConfigMakesNoRequest(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	c := NewCurrencyClient(srv.Client(), nil)
	settings := core.Settings{Currencies: []string{"USD"}}

	for _, api := range []config.APIConfig{
		{BaseURL: srv.URL},
		{Key: "secret"},
	} {
		_, err := c.Rates(context.Background(), api, settings, "RUB")
		assert.True(t, errors.Is(err, core.ErrConfiguration), "got %v", err)
	}
	assert.Equal(t, int32(0), calls.Load())
}

func TestCurrencyClient_FailuresDegradeToEmpty(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}},
		{"malformed body", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"quotes": `))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := NewCurrencyClient(srv.Client(), nil)
			got, err := c.Rates(context.Background(), config.APIConfig{Key: "k", BaseURL: srv.URL},
				core.Settings{Currencies: []string{"USD"}}, "RUB")
			require.NoError(t, err)
			assert.NotNil(t, got)
			assert.Empty(t, got)
		})
	}

	t.Run("unreachable host", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		c := NewCurrencyClient(&http.Client{Timeout: time.Second}, nil)
		got, err := c.Rates(context.Background(), config.APIConfig{Key: "k", BaseURL: url},
			core.Settings{Currencies: []string{"USD"}}, "RUB")
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestCurrencyClient_Cache(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "down", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"quotes": {"RUBUSD": 100}}`))
	}))
	defer srv.Close()

	c := NewCurrencyClient(srv.Client(), nil).WithCache(time.Minute)
	api := config.APIConfig{Key: "k", BaseURL: srv.URL}
	settings := core.Settings{Currencies: []string{"USD"}}

	first, _ := c.Rates(context.Background(), api, settings, "RUB")
	assert.Empty(t, first, "failure should degrade")

	for i := 0; i < 2; i++ {
		got, err := c.Rates(context.Background(), api, settings, "RUB")
		require.NoError(t, err)
		assert.Equal(t, []core.CurrencyRate{{Currency: "USD", Rate: 0.01}}, got)
	}
	assert.Equal(t, int32(2), calls.Load(), "failures are not cached, successes are")
}

func TestCurrencyClient_NoCurrencies(t *testing.T) {
	c := NewCurrencyClient(nil, nil)
	got, err := c.Rates(context.Background(), config.APIConfig{Key: "k", BaseURL: "http://127.0.0.1:1"}, core.Settings{}, "RUB")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func stockServer(t *testing.T, bodies map[string]string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		q := r.URL.Query()
		if q.Get("function") != "GLOBAL_QUOTE" || q.Get("apikey") != "k" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		body, ok := bodies[q.Get("symbol")]
		if !ok {
			http.Error(w, "unknown", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestStockClient_Prices(t *testing.T) {
	srv, _ := stockServer(t, map[string]string{
		"AAPL":  `{"Global Quote": {"01. symbol": "AAPL", "05. price": "150.1200"}}`,
		"AMZN":  `{"Global Quote": {"05. price": "  "}}`,
		"GOOGL": `{"Global Quote": {}}`,
		"MSFT":  `{"Information": "rate limit"}`,
		"TSLA":  `{"Global Quote": {"05. price": "n/a"}}`,
	})

	c := NewStockClient(srv.Client(), 2, 0, nil)
	got, err := c.Prices(context.Background(), config.APIConfig{Key: "k", BaseURL: srv.URL},
		core.Settings{Stocks: []string{"AAPL", "AMZN", "GOOGL", "MSFT", "TSLA"}})
	require.NoError(t, err)
	require.Len(t, got, 5)

	assert.Equal(t, "AAPL", got[0].Stock)
	require.NotNil(t, got[0].Price)
	assert.Equal(t, 150.12, *got[0].Price)
	for _, sp := range got[1:] {
		assert.Nil(t, sp.Price, sp.Stock)
	}
	assert.Equal(t, []string{"AAPL", "AMZN", "GOOGL", "MSFT", "TSLA"},
		[]string{got[0].Stock, got[1].Stock, got[2].Stock, got[3].Stock, got[4].Stock})
}

func TestStockClient_OneFailingSymbolIsOmitted(t *testing.T) {
	srv, _ := stockServer(t, map[string]string{
		"AAPL": `{"Global Quote": {"05. price": "10"}}`,
	})

	c := NewStockClient(srv.Client(), 4, 0, nil)
	got, err := c.Prices(context.Background(), config.APIConfig{Key: "k", BaseURL: srv.URL},
		core.Settings{Stocks: []string{"BROKEN", "AAPL"}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "AAPL", got[0].Stock)
	assert.Equal(t, 10.0, *got[0].Price)
}

func TestStockClient_MissingConfigMakesNoRequest(t *testing.T) {
	srv, calls := stockServer(t, nil)
	c := NewStockClient(srv.Client(), 1, 0, nil)

	_, err := c.Prices(context.Background(), config.APIConfig{BaseURL: srv.URL}, core.Settings{Stocks: []string{"AAPL"}})
	assert.True(t, errors.Is(err, core.ErrConfiguration), "got %v", err)
	assert.Equal(t, int32(0), calls.Load())
}

func TestStockClient_CacheAndPacing(t *testing.T) {
	srv, calls := stockServer(t, map[string]string{
		"AAPL": `{"Global Quote": {"05. price": "1.5"}}`,
		"AMZN": `{"Global Quote": {"05. price": "2.5"}}`,
	})
	c := NewStockClient(srv.Client(), 0, 1000, nil).WithCache(time.Minute)
	api := config.APIConfig{Key: "k", BaseURL: srv.URL}
	settings := core.Settings{Stocks: []string{"AAPL", "AMZN"}}

	for i := 0; i < 3; i++ {
		got, err := c.Prices(context.Background(), api, settings)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, 2.5, *got[1].Price)
	}
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, DefaultConcurrency, c.concurrency)
}

func TestStockClient_CanceledContextSkipsPacedRequests(t *testing.T) {
	srv, calls := stockServer(t, map[string]string{"AAPL": `{"Global Quote": {"05. price": "1"}}`})
	c := NewStockClient(srv.Client(), 1, 0.001, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	got, err := c.Prices(ctx, config.APIConfig{Key: "k", BaseURL: srv.URL}, core.Settings{Stocks: []string{"AAPL"}})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, int32(0), calls.Load())
}

func TestInvert(t *testing.T) {
	assert.Equal(t, 0.0111, invert(90))
	assert.Equal(t, 0.0, invert(0))
	assert.Equal(t, 1.0, invert(1))
	assert.Equal(t, 0.0104, invert(96.1234))
}
