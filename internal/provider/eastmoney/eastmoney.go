// Package eastmoney resolves display names and symbol codes through the
// Eastmoney push2/search APIs.
package eastmoney

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"

	"stockticker/internal/httpx"
	"stockticker/internal/provider"
	"stockticker/internal/quote"
)

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=eastmoney_test -destination=mock_http_client_test.go -source=eastmoney.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

const (
	defaultQuoteEndpoint  = "http://push2.eastmoney.com/api/qt/stock/get"
	defaultSearchEndpoint = "https://searchapi.eastmoney.com/api/suggest/get"
	defaultTimeout        = 5 * time.Second

	// f58 carries the security name in push2 responses.
	nameField = "f58,f59"

	maxBody = 1 << 20
)

type Config struct {
	Name           string
	QuoteEndpoint  string
	SearchEndpoint string
	SearchToken    string
	Timeout        time.Duration
}

type Client struct {
	cfg        Config
	httpClient HTTPClient
	header     http.Header
}

// Option is a configuration option for the Eastmoney client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(hc HTTPClient) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithHeader adds headers to every request.
func WithHeader(header http.Header) Option {
	return func(c *Client) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

func New(cfg Config, options ...Option) *Client {
	if cfg.Name == "" {
		cfg.Name = "Eastmoney"
	}
	if cfg.QuoteEndpoint == "" {
		cfg.QuoteEndpoint = defaultQuoteEndpoint
	}
	if cfg.SearchEndpoint == "" {
		cfg.SearchEndpoint = defaultSearchEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	c := &Client{cfg: cfg, httpClient: http.DefaultClient, header: http.Header{}}
	c.header.Set("User-Agent", httpx.BrowserUserAgent)
	c.header.Set("Referer", "https://quote.eastmoney.com/")
	c.header.Set("Connection", "keep-alive")
	for _, option := range options {
		option(c)
	}
	return c
}

func (c *Client) Name() string { return c.cfg.Name }

// SecID maps a 6-digit code to the push2 market.code form: market 1 for
// Shanghai (6xx), 0 for Shenzhen (0xx/3xx).
func SecID(symbol string) (string, bool) {
	if len(symbol) != 6 {
		return "", false
	}
	switch symbol[0] {
	case '6':
		return "1." + symbol, true
	case '0', '3':
		return "0." + symbol, true
	}
	return "", false
}

// Resolve fetches the display name (field f58) for symbol.
func (c *Client) Resolve(ctx context.Context, symbol string) (string, error) {
	secid, ok := SecID(symbol)
	if !ok {
		return "", &provider.Error{Kind: quote.ErrNameUnresolved, Err: fmt.Errorf("unsupported symbol %q", symbol)}
	}
	u := fmt.Sprintf("%s?secid=%s&fields=%s", c.cfg.QuoteEndpoint, secid, nameField)
	body, err := c.get(ctx, u)
	if err != nil {
		return "", err
	}
	name := gjson.GetBytes(body, "data.f58").String()
	if name == "" {
		return "", &provider.Error{Kind: quote.ErrNameUnresolved, Err: fmt.Errorf("empty f58")}
	}
	return name, nil
}

// SearchCode finds the 6-digit code for a display name via the suggest API.
func (c *Client) SearchCode(ctx context.Context, name string) (string, error) {
	u := fmt.Sprintf("%s?input=%s&type=14&token=%s&count=10",
		c.cfg.SearchEndpoint, url.QueryEscape(name), c.cfg.SearchToken)
	body, err := c.get(ctx, u)
	if err != nil {
		return "", err
	}
	for _, row := range gjson.GetBytes(body, "QuotationCodeTable.Data").Array() {
		code := row.Get("Code").String()
		if row.Get("Name").String() == "" || len(code) != 6 || !isDigits(code) {
			continue
		}
		return code, nil
	}
	return "", &provider.Error{Kind: quote.ErrNameUnresolved, Err: fmt.Errorf("no 6-digit match")}
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, &provider.Error{Kind: quote.ErrNetworkFailure, Err: err}
	}
	for key, values := range c.header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, provider.Classify(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &provider.Error{Kind: quote.ErrHTTPStatus, Status: resp.StatusCode}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, provider.Classify(err)
	}
	if !gjson.ValidBytes(body) {
		return nil, &provider.Error{Kind: quote.ErrMalformedPayload, Err: fmt.Errorf("invalid JSON")}
	}
	return body, nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}
