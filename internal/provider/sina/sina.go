// Package sina resolves display names and symbol codes through the Sina
// finance text endpoints.
package sina

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/sync/singleflight"

	"stockticker/internal/httpx"
	"stockticker/internal/provider"
	"stockticker/internal/quote"
)

const (
	defaultQuoteEndpoint  = "https://hq.sinajs.cn/list="
	defaultSearchEndpoint = "https://suggest3.sinajs.cn/suggest/type=11&key="
	defaultTimeout        = 5 * time.Second

	maxBody = 1 << 20
)

type Config struct {
	Name           string
	QuoteEndpoint  string // full symbol is appended
	SearchEndpoint string // query-escaped name is appended
	Timeout        time.Duration
}

type Client struct {
	cfg    Config
	client *httpx.Client

	// coalesce concurrent searches for the same name
	sf singleflight.Group
}

func New(cfg Config, hc *httpx.Client) *Client {
	if cfg.Name == "" {
		cfg.Name = "Sina"
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
	return &Client{cfg: cfg, client: hc}
}

func (c *Client) Name() string { return c.cfg.Name }

// FullSymbol prefixes a 6-digit code with its exchange: sh for 6xx,
// sz for 0xx/3xx. Anything else passes through unchanged.
func FullSymbol(symbol string) string {
	if len(symbol) != 6 || !isDigits(symbol) {
		return symbol
	}
	switch symbol[0] {
	case '6':
		return "sh" + symbol
	case '0', '3':
		return "sz" + symbol
	}
	return symbol
}

// Resolve fetches the display name for symbol. The endpoint answers with a
// JS variable assignment: var hq_str_sh600000="浦发银行,10.00,...";
func (c *Client) Resolve(ctx context.Context, symbol string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	full := FullSymbol(symbol)
	body, err := c.get(ctx, c.cfg.QuoteEndpoint+full, "https://finance.sina.com.cn/")
	if err != nil {
		return "", err
	}

	marker := fmt.Sprintf("var hq_str_%s=", full)
	content := string(body)
	if !strings.Contains(content, marker) {
		return "", &provider.Error{Kind: quote.ErrNameUnresolved, Err: fmt.Errorf("no hq_str for %s", full)}
	}
	start := strings.Index(content, `"`)
	end := strings.LastIndex(content, `"`)
	if start < 0 || end <= start {
		return "", &provider.Error{Kind: quote.ErrMalformedPayload, Err: fmt.Errorf("unquoted hq_str body")}
	}
	name := strings.TrimSpace(strings.SplitN(content[start+1:end], ",", 2)[0])
	if name == "" {
		return "", &provider.Error{Kind: quote.ErrNameUnresolved, Err: fmt.Errorf("empty name field")}
	}
	// The endpoint sometimes echoes a placeholder instead of a real name;
	// treating it as resolved would pin it on the record forever.
	if strings.HasPrefix(name, "股票") || strings.HasPrefix(name, "Stock") {
		return "", &provider.Error{Kind: quote.ErrNameUnresolved, Err: fmt.Errorf("placeholder name %q", name)}
	}
	return name, nil
}

// SearchCode finds the 6-digit code for a display name. The endpoint wraps a
// JSON array of [name, code, ...] tuples in JS text. Concurrent searches for
// the same name are coalesced.
func (c *Client) SearchCode(ctx context.Context, name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("empty search name")
	}
	v, err, _ := c.sf.Do(name, func() (any, error) {
		ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
		body, err := c.get(ctx, c.cfg.SearchEndpoint+url.QueryEscape(name), "https://finance.sina.com.cn/")
		if err != nil {
			return "", err
		}
		return matchCode(string(body))
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func matchCode(content string) (string, error) {
	start := strings.Index(content, "[[")
	end := strings.LastIndex(content, "]]")
	if start < 0 || end <= start {
		return "", &provider.Error{Kind: quote.ErrMalformedPayload, Err: fmt.Errorf("no tuple array")}
	}
	rows := gjson.Parse(content[start : end+2])
	for _, row := range rows.Array() {
		fields := row.Array()
		if len(fields) < 2 {
			continue
		}
		code := fields[1].String()
		if len(code) == 6 && isDigits(code) {
			return code, nil
		}
	}
	return "", &provider.Error{Kind: quote.ErrNameUnresolved, Err: fmt.Errorf("no 6-digit match")}
}

func (c *Client) get(ctx context.Context, u, referer string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, &provider.Error{Kind: quote.ErrNetworkFailure, Err: err}
	}
	req.Header.Set("Referer", referer)
	req.Header.Set("Connection", "keep-alive")
	resp, err := c.client.Do(ctx, req)
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
