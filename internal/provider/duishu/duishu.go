// Package duishu implements the primary intraday quote endpoint.
package duishu

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/tidwall/gjson"

	"stockticker/internal/httpx"
	"stockticker/internal/provider"
	"stockticker/internal/quote"
)

const (
	defaultEndpoint = "https://api.duishu.com/hangqing/stock/fenshi"
	defaultTimeout  = 10 * time.Second

	// Envelope status for a successful response.
	statusOK = 10000

	maxBody = 4 << 20
)

type Config struct {
	Name     string
	Endpoint string
	Timeout  time.Duration
	Headers  map[string]string
}

type Client struct {
	cfg    Config
	client *httpx.Client
}

func New(cfg Config, hc *httpx.Client) *Client {
	if cfg.Name == "" {
		cfg.Name = "Duishu"
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{cfg: cfg, client: hc}
}

func (c *Client) Name() string { return c.cfg.Name }

// Fetch retrieves the fenshi payload for symbol and returns the `data`
// document. The response body is sometimes only partially unicode-escaped;
// when plain JSON parsing fails the body gets a decode retry.
func (c *Client) Fetch(ctx context.Context, symbol string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	u := fmt.Sprintf("%s?time_type=F&code=%s&get_zhutu=1&get_pankou=1", c.cfg.Endpoint, url.QueryEscape(symbol))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, &provider.Error{Kind: quote.ErrNetworkFailure, Err: err}
	}
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Referer", "https://www.duishu.com/")
	req.Header.Set("Connection", "keep-alive")
	for k, v := range c.cfg.Headers {
		req.Header.Set(k, v)
	}

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

	body, ok := decodeBody(body)
	if !ok {
		return nil, &provider.Error{Kind: quote.ErrMalformedPayload, Err: fmt.Errorf("invalid JSON body")}
	}
	root := gjson.ParseBytes(body)
	if code := root.Get("code"); !code.Exists() || code.Int() != statusOK {
		return nil, &provider.Error{Kind: quote.ErrMalformedPayload,
			Err: fmt.Errorf("envelope code=%d msg=%q", root.Get("code").Int(), root.Get("msg").String())}
	}
	data := root.Get("data")
	if !data.Exists() {
		return nil, &provider.Error{Kind: quote.ErrMalformedPayload, Err: fmt.Errorf("missing data")}
	}
	return []byte(data.Raw), nil
}

// decodeBody validates the body as JSON, retrying once with \uXXXX escape
// expansion when the upstream double-escapes its unicode.
func decodeBody(body []byte) ([]byte, bool) {
	if gjson.ValidBytes(body) {
		return body, true
	}
	if !strings.Contains(string(body), `\u`) {
		return nil, false
	}
	decoded := unescapeUnicode(string(body))
	if gjson.Valid(decoded) {
		return []byte(decoded), true
	}
	return nil, false
}

// unescapeUnicode expands literal \uXXXX sequences, pairing UTF-16
// surrogates. Anything that does not parse is copied through verbatim.
func unescapeUnicode(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] == '\\' && i+5 < len(s) && s[i+1] == 'u' {
			if r, ok := hex4(s[i+2 : i+6]); ok {
				i += 6
				if utf16.IsSurrogate(rune(r)) && i+5 < len(s) && s[i] == '\\' && s[i+1] == 'u' {
					if r2, ok2 := hex4(s[i+2 : i+6]); ok2 {
						if dec := utf16.DecodeRune(rune(r), rune(r2)); dec != 0xFFFD {
							b.WriteRune(dec)
							i += 6
							continue
						}
					}
				}
				b.WriteRune(rune(r))
				continue
			}
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}

func hex4(s string) (uint32, bool) {
	var v uint32
	for i := 0; i < 4; i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			v = v<<4 | uint32(c-'0')
		case c >= 'a' && c <= 'f':
			v = v<<4 | uint32(c-'a'+10)
		case c >= 'A' && c <= 'F':
			v = v<<4 | uint32(c-'A'+10)
		default:
			return 0, false
		}
	}
	return v, true
}
