// Package rates fetches currency rates and stock prices from remote providers.
//
// Provider credentials are passed on every call as a config.APIConfig and
// checked before any request is made. Network and decoding problems never
// fail a call: currency rates degrade to an empty list, stock prices skip
// the affected symbol.
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"finreport/internal/core"
)

// DefaultTimeout applies when no http.Client is supplied.
const DefaultTimeout = 20 * time.Second

func defaultClient(c *http.Client) *http.Client {
	if c != nil {
		return c
	}
	return &http.Client{Timeout: DefaultTimeout}
}

// buildURL merges params into the query of base.
func buildURL(base string, params map[string]string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("%w: invalid API URL %q: %v", core.ErrConfiguration, base, err)
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// getJSON performs a GET and decodes a 2xx JSON body into out. Every failure
// is wrapped in core.ErrTransientNetwork.
func getJSON(ctx context.Context, client *http.Client, rawURL string, header http.Header, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", core.ErrTransientNetwork, err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrTransientNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("%w: unexpected status %s", core.ErrTransientNetwork, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", core.ErrTransientNetwork, err)
	}
	return nil
}
