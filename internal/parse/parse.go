// Package parse turns raw fenshi payloads into partial updates on a quote
// record. The upstream reshapes its JSON freely, so every extraction step is
// a tolerant probe: a miss in one step never aborts the rest.
package parse

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"stockticker/internal/quote"
)

// Probe orders. First hit wins.
var (
	nameKeys  = []string{"name", "stock_name", "title", "display_name"}
	priceKeys = []string{"current_price", "current", "last_price", "price"}
	lineLists = []string{"zhutu.left_line_list", "zhutu.right_line_list"}
)

// ErrInvalidPayload is returned when the payload is not a JSON object at all.
type ErrInvalidPayload struct{ Reason string }

func (e *ErrInvalidPayload) Error() string { return fmt.Sprintf("invalid payload: %s", e.Reason) }

// Quote applies one raw payload to rec and reports whether a usable price
// was extracted. Name, order book and series are updated even when price
// extraction fails; a false return leaves the previous price untouched.
func Quote(rec *quote.Record, payload []byte) (bool, error) {
	if !gjson.ValidBytes(payload) {
		return false, &ErrInvalidPayload{Reason: "not JSON"}
	}
	root := gjson.ParseBytes(payload)
	// Tolerate callers handing over the full envelope instead of `data`.
	if d := root.Get("data"); d.Exists() && root.Get("code").Exists() {
		root = d
	}
	if !root.IsObject() {
		return false, &ErrInvalidPayload{Reason: "not an object"}
	}

	extractName(rec, root)
	extractBook(rec, root)
	extractSeries(rec, root)
	if extractPrice(rec, root) {
		return true, nil
	}
	return fallbackPrice(rec, root), nil
}

// Series re-extracts only the intraday series from payload.
func Series(rec *quote.Record, payload []byte) error {
	if !gjson.ValidBytes(payload) {
		return &ErrInvalidPayload{Reason: "not JSON"}
	}
	root := gjson.ParseBytes(payload)
	if d := root.Get("data"); d.Exists() && root.Get("code").Exists() {
		root = d
	}
	extractSeries(rec, root)
	return nil
}

func extractName(rec *quote.Record, root gjson.Result) {
	for _, key := range nameKeys {
		if v := root.Get(key); v.Exists() && v.String() != "" {
			rec.DisplayName = v.String()
			return
		}
	}
}

// extractBook reads the five-level depth from the pankou sub-object. Keys
// follow the {side}{i}_{p|v} pattern: b1_p/b1_v buy side, a1_p/a1_v sell
// side. A level missing either half of its pair is omitted; display-time
// padding restores the full ladder.
func extractBook(rec *quote.Record, root gjson.Result) {
	pankou := root.Get("pankou")
	if !pankou.IsObject() {
		return
	}
	book := &quote.OrderBook{}
	for i := 1; i <= quote.DepthLevels; i++ {
		if lv, ok := level(pankou, "b", i); ok {
			book.Buy = append(book.Buy, lv)
		}
	}
	for i := 1; i <= quote.DepthLevels; i++ {
		if lv, ok := level(pankou, "a", i); ok {
			book.Sell = append(book.Sell, lv)
		}
	}
	rec.Book = book
}

func level(pankou gjson.Result, side string, i int) (quote.Level, bool) {
	p := pankou.Get(fmt.Sprintf("%s%d_p", side, i))
	v := pankou.Get(fmt.Sprintf("%s%d_v", side, i))
	if !p.Exists() || !v.Exists() {
		return quote.Level{}, false
	}
	return quote.Level{Price: p.Float(), Volume: v.Int()}, true
}

// extractSeries pairs the top-level timestamp array `t` with the first
// non-empty price series under zhutu.left_line_list, truncating to the
// shorter of the two and dropping samples where either side is null, zero
// or negative. The result replaces the record's series wholesale.
func extractSeries(rec *quote.Record, root gjson.Result) {
	series := []quote.SeriesPoint{}
	defer func() { rec.Series = series }()

	times := root.Get("t")
	if !times.IsArray() {
		return
	}
	var prices gjson.Result
	for _, line := range root.Get("zhutu.left_line_list").Array() {
		if data := line.Get("data"); data.IsArray() && len(data.Array()) > 0 {
			prices = data
			break
		}
	}
	if !prices.IsArray() {
		return
	}
	ts := times.Array()
	ps := prices.Array()
	n := len(ts)
	if len(ps) < n {
		n = len(ps)
	}
	for i := 0; i < n; i++ {
		if ts[i].Type == gjson.Null || ps[i].Type == gjson.Null {
			continue
		}
		if ts[i].Int() <= 0 || ps[i].Float() <= 0 {
			continue
		}
		series = append(series, quote.SeriesPoint{Time: ts[i].Int(), Price: ps[i].Float()})
	}
}

// extractPrice runs the first three price strategies in priority order:
// last positive intraday sample, top-level price fields, then the order
// book's own price fields. Each sets price + change and short-circuits.
func extractPrice(rec *quote.Record, root gjson.Result) bool {
	// Strategy a: intraday series.
	zhutu := root.Get("zhutu")
	if zhutu.IsObject() {
		preClose := zhutu.Get("pre_close").Float()
		if preClose > 0 {
			rec.PreviousClose = preClose
		}
		for _, line := range zhutu.Get("left_line_list").Array() {
			data := line.Get("data")
			if !data.IsArray() || len(data.Array()) == 0 {
				continue
			}
			if price, ok := lastPositive(data); ok {
				setPrice(rec, price, preClose)
				return true
			}
		}
	}

	// Strategy b: top-level numeric fields.
	if price, preClose, ok := priceFromFields(root); ok {
		setPrice(rec, price, preClose)
		return true
	}

	// Strategy c: the order-book sub-object's own price fields.
	if pankou := root.Get("pankou"); pankou.IsObject() {
		if price, preClose, ok := priceFromFields(pankou); ok {
			setPrice(rec, price, preClose)
			return true
		}
	}
	return false
}

// fallbackPrice is strategy d: scan every known line-series structure for
// the last positive value. No reference is available on this path, so the
// change is pinned to +0.00%.
func fallbackPrice(rec *quote.Record, root gjson.Result) bool {
	for _, key := range lineLists {
		for _, line := range root.Get(key).Array() {
			data := line.Get("data")
			if !data.IsArray() || len(data.Array()) == 0 {
				continue
			}
			if price, ok := lastPositive(data); ok {
				setPrice(rec, price, 0)
				return true
			}
		}
	}
	return false
}

func priceFromFields(obj gjson.Result) (price, preClose float64, ok bool) {
	for _, key := range priceKeys {
		v := obj.Get(key)
		if !v.Exists() || v.Type != gjson.Number || v.Float() <= 0 {
			continue
		}
		return v.Float(), obj.Get("pre_close").Float(), true
	}
	return 0, 0, false
}

func lastPositive(data gjson.Result) (float64, bool) {
	arr := data.Array()
	for i := len(arr) - 1; i >= 0; i-- {
		if arr[i].Type != gjson.Null && arr[i].Float() > 0 {
			return arr[i].Float(), true
		}
	}
	return 0, false
}

// setPrice formats the price with two decimals and derives the signed
// change percent against preClose; without a positive reference the change
// reads +0.00%.
func setPrice(rec *quote.Record, price, preClose float64) {
	rec.LastPrice = decimal.NewFromFloat(price).StringFixed(2)
	rec.ChangePercent = ChangePercent(price, preClose)
	if preClose > 0 {
		rec.PreviousClose = preClose
	}
}

// ChangePercent formats (price-preClose)/preClose*100 with an explicit sign
// and two decimals. A non-positive reference yields +0.00%.
func ChangePercent(price, preClose float64) string {
	if preClose <= 0 {
		return "+0.00%"
	}
	pct := decimal.NewFromFloat(price).
		Sub(decimal.NewFromFloat(preClose)).
		Div(decimal.NewFromFloat(preClose)).
		Mul(decimal.NewFromInt(100)).
		Round(2)
	s := pct.StringFixed(2)
	if pct.Sign() >= 0 {
		s = "+" + s
	}
	return s + "%"
}
