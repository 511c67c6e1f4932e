package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Source answers one price lookup for a canonical symbol. Implementations
// translate the symbol through their own SymbolTable; a symbol the source
// does not list yields ErrNotListed.
type Source interface {
	Name() string
	Price(ctx context.Context, symbol string) (float64, error)
}

// ErrNotListed means the source has no mapping for the requested symbol.
var ErrNotListed = errors.New("symbol not listed on source")

// ErrRateLimited marks an upstream 429/418 response. The aggregator treats
// it like any other failed fetch for the cycle; the limiter spacing means
// the next scheduled call is already backed off.
var ErrRateLimited = errors.New("source rate limited")

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// getJSON issues a GET with query params and decodes the JSON body into v.
func getJSON(ctx context.Context, client *http.Client, baseURL string, params url.Values, v any) error {
	u := baseURL
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == 418 {
		io.Copy(io.Discard, resp.Body)
		return ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}
