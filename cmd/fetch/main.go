package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"stockticker/internal/chart"
	"stockticker/internal/config"
	"stockticker/internal/httpx"
	"stockticker/internal/parse"
	"stockticker/internal/provider"
	"stockticker/internal/provider/duishu"
	"stockticker/internal/provider/eastmoney"
	"stockticker/internal/provider/sina"
	"stockticker/internal/quote"
)

// One-shot fetch for inspection: pull a single symbol through the same
// pipeline the ticker runs, then dump the record and chart geometry as JSON.
func main() {
	var symbol string
	var search string
	var configPath string
	var timeout int

	flag.StringVar(&symbol, "symbol", getenv("SYMBOL", "002624"), "6-digit A-share symbol")
	flag.StringVar(&search, "search", "", "look up a symbol by name instead of fetching")
	flag.StringVar(&configPath, "config", getenv("CONFIG_FILE", ""), "path to config.json (optional)")
	flag.IntVar(&timeout, "timeout", 15, "request timeout seconds")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	hc := httpx.New(time.Duration(timeout) * time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
	defer cancel()

	sinaClient := sina.New(sina.Config{
		QuoteEndpoint:  cfg.Sina.QuoteEndpoint,
		SearchEndpoint: cfg.Sina.SearchEndpoint,
		Timeout:        time.Duration(cfg.Sina.TimeoutSec) * time.Second,
	}, hc)
	eastClient := eastmoney.New(eastmoney.Config{
		QuoteEndpoint:  cfg.Eastmoney.QuoteEndpoint,
		SearchEndpoint: cfg.Eastmoney.SearchEndpoint,
		SearchToken:    cfg.Eastmoney.SearchToken,
		Timeout:        time.Duration(cfg.Eastmoney.TimeoutSec) * time.Second,
	}, eastmoney.WithHTTPClient(hc.HTTP))

	if search != "" {
		code, err := sinaClient.SearchCode(ctx, search)
		if err != nil || code == "" {
			if err != nil {
				log.Printf("sina search %q: %v", search, err)
			}
			code, err = eastClient.SearchCode(ctx, search)
		}
		if err != nil {
			log.Fatalf("search %q: %v", search, err)
		}
		if code == "" {
			log.Fatalf("search %q: no match", search)
		}
		fmt.Println(code)
		return
	}

	quotes := duishu.New(duishu.Config{
		Endpoint: cfg.Quote.Endpoint,
		Timeout:  time.Duration(cfg.Quote.TimeoutSec) * time.Second,
	}, hc)

	rec := quote.NewRecord(symbol, "")
	payload, err := quotes.Fetch(ctx, symbol)
	if err != nil {
		log.Fatalf("%s fetch: %v (%s)", symbol, err, provider.KindOf(err))
	}
	ok, err := parse.Quote(rec, payload)
	if err != nil {
		log.Fatalf("%s parse: %v", symbol, err)
	}
	if !ok {
		log.Fatalf("%s: payload carried no usable price", symbol)
	}

	if !rec.HasRealName() {
		if name, err := sinaClient.Resolve(ctx, symbol); err == nil && name != "" {
			rec.DisplayName = name
			rec.NameResolved = true
		} else if name, err := eastClient.Resolve(ctx, symbol); err == nil && name != "" {
			rec.DisplayName = name
			rec.NameResolved = true
		}
	}

	policy := chart.FixedBand
	if !cfg.Chart.FixedPercentage {
		policy = chart.DynamicBand
	}
	out := struct {
		Record *quote.Record `json:"record"`
		Chart  *chart.Layout `json:"chart,omitempty"`
	}{Record: rec}
	layout, err := chart.Normalize(rec.Series, rec.PreviousClose, rec.Symbol, chart.Options{
		Policy:          policy,
		DefaultLimitPct: cfg.Chart.MaxPercentage,
	})
	if err != nil {
		log.Printf("%s chart: %v", symbol, err)
	} else {
		out.Chart = &layout
	}

	b, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(b))
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
