package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Watch is one tracked security. Name is optional; the engine resolves
// missing names at fetch time.
type Watch struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name,omitempty"`
}

type QuoteAPI struct {
	Endpoint   string `json:"endpoint"`
	TimeoutSec int    `json:"timeout_sec"`
}

type Sina struct {
	QuoteEndpoint  string `json:"quote_endpoint"`
	SearchEndpoint string `json:"search_endpoint"`
	TimeoutSec     int    `json:"timeout_sec"`
}

type Eastmoney struct {
	QuoteEndpoint  string `json:"quote_endpoint"`
	SearchEndpoint string `json:"search_endpoint"`
	SearchToken    string `json:"search_token"`
	TimeoutSec     int    `json:"timeout_sec"`
}

type Chart struct {
	FixedPercentage bool    `json:"fixed_percentage"`
	MaxPercentage   float64 `json:"max_percentage"`
}

type Config struct {
	Symbols            []Watch   `json:"symbols"`
	RefreshIntervalSec int       `json:"refresh_interval_sec"`
	QueueSize          int       `json:"queue_size"`
	Quote              QuoteAPI  `json:"quote"`
	Sina               Sina      `json:"sina"`
	Eastmoney          Eastmoney `json:"eastmoney"`
	Chart              Chart     `json:"chart"`
}

func Default() Config {
	return Config{
		Symbols: []Watch{
			{Symbol: "002624"},
			{Symbol: "000001"},
			{Symbol: "000002"},
			{Symbol: "601318"},
			{Symbol: "600519"},
		},
		RefreshIntervalSec: 3,
		QueueSize:          32,
		Quote: QuoteAPI{
			Endpoint:   "https://api.duishu.com/hangqing/stock/fenshi",
			TimeoutSec: 10,
		},
		Sina: Sina{
			QuoteEndpoint:  "https://hq.sinajs.cn/list=",
			SearchEndpoint: "https://suggest3.sinajs.cn/suggest/type=11&key=",
			TimeoutSec:     5,
		},
		Eastmoney: Eastmoney{
			QuoteEndpoint:  "http://push2.eastmoney.com/api/qt/stock/get",
			SearchEndpoint: "https://searchapi.eastmoney.com/api/suggest/get",
			SearchToken:    "D43BF722C8E33BDC906FB84D85E326E8",
			TimeoutSec:     5,
		},
		Chart: Chart{FixedPercentage: true, MaxPercentage: 10},
	}
}

// Load reads JSON config from path. If path is empty or the file does not
// exist, it returns defaults. Environment variables override select fields.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		if _, err := os.Stat("config.json"); err == nil {
			path = "config.json"
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := json.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	applyEnv(&cfg)
	if len(cfg.Symbols) == 0 {
		cfg.Symbols = Default().Symbols
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TICKER_SYMBOLS"); v != "" {
		syms := splitCSV(v)
		if len(syms) > 0 {
			cfg.Symbols = cfg.Symbols[:0]
			for _, s := range syms {
				cfg.Symbols = append(cfg.Symbols, Watch{Symbol: s})
			}
		}
	}
	if v := os.Getenv("TICKER_REFRESH_SEC"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x > 0 {
			cfg.RefreshIntervalSec = x
		}
	}
	if v := os.Getenv("TICKER_QUEUE_SIZE"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x > 0 {
			cfg.QueueSize = x
		}
	}
	if v := os.Getenv("TICKER_QUOTE_ENDPOINT"); v != "" {
		cfg.Quote.Endpoint = v
	}
	if v := os.Getenv("TICKER_QUOTE_TIMEOUT_SEC"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x > 0 {
			cfg.Quote.TimeoutSec = x
		}
	}
	if v := os.Getenv("TICKER_CHART_FIXED"); v != "" {
		switch strings.ToLower(v) {
		case "1", "true", "yes", "y":
			cfg.Chart.FixedPercentage = true
		case "0", "false", "no", "n":
			cfg.Chart.FixedPercentage = false
		}
	}
	if v := os.Getenv("TICKER_CHART_MAX_PCT"); v != "" {
		var x float64
		fmt.Sscanf(v, "%f", &x)
		if x > 0 {
			cfg.Chart.MaxPercentage = x
		}
	}
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
