// Package quote defines the in-memory representation of one security's
// latest known state plus the error taxonomy shared by the fetch pipeline.
package quote

// ErrorKind classifies what went wrong during a fetch or parse.
type ErrorKind string

const (
	ErrNone             ErrorKind = ""
	ErrNetworkFailure   ErrorKind = "network_failure"
	ErrTimeout          ErrorKind = "timeout"
	ErrHTTPStatus       ErrorKind = "http_status"
	ErrMalformedPayload ErrorKind = "malformed_payload"
	ErrNoUsablePrice    ErrorKind = "no_usable_price"
	ErrNoReference      ErrorKind = "no_reference"
	ErrNameUnresolved   ErrorKind = "name_unresolved"
)

// DepthLevels is the number of order-book levels per side.
const DepthLevels = 5

// SeriesPoint is one intraday sample: epoch timestamp + price.
type SeriesPoint struct {
	Time  int64   `json:"time"`
	Price float64 `json:"price"`
}

// Level is one order-book entry.
type Level struct {
	Price  float64 `json:"price"`
	Volume int64   `json:"volume"`
}

// OrderBook holds up to five buy and five sell levels as parsed.
// Missing levels are omitted here; Padded fills them for display.
type OrderBook struct {
	Buy  []Level `json:"buy"`
	Sell []Level `json:"sell"`
}

// Padded returns exactly DepthLevels buy and sell entries, filling gaps
// with zero levels so the display layer always sees a full ladder.
func (b *OrderBook) Padded() (buy, sell []Level) {
	buy = make([]Level, DepthLevels)
	sell = make([]Level, DepthLevels)
	if b != nil {
		copy(buy, b.Buy)
		copy(sell, b.Sell)
	}
	return buy, sell
}

// Record is the canonical state for one tracked security.
//
// Symbol is set at construction and never mutated. Only the scheduler's
// worker writes the remaining fields; everyone else reads snapshots
// delivered through the completion callback.
type Record struct {
	Symbol        string        `json:"symbol"`
	DisplayName   string        `json:"display_name"`
	NameResolved  bool          `json:"name_resolved"`
	NameTried     bool          `json:"-"`
	LastPrice     string        `json:"last_price,omitempty"`
	ChangePercent string        `json:"change_percent,omitempty"`
	PreviousClose float64       `json:"previous_close,omitempty"`
	Series        []SeriesPoint `json:"series,omitempty"`
	Book          *OrderBook    `json:"order_book,omitempty"`
	LastErr       ErrorKind     `json:"last_error,omitempty"`
}

// Placeholder is the display name used before resolution succeeds.
func Placeholder(symbol string) string { return "Stock" + symbol }

// NewRecord creates a record for symbol. An empty name gets the placeholder.
func NewRecord(symbol, name string) *Record {
	if name == "" {
		name = Placeholder(symbol)
	}
	return &Record{Symbol: symbol, DisplayName: name}
}

// HasRealName reports whether DisplayName is something better than the
// placeholder.
func (r *Record) HasRealName() bool {
	return r.DisplayName != "" && r.DisplayName != Placeholder(r.Symbol)
}

// Clone returns a deep copy suitable for handing to another goroutine.
func (r *Record) Clone() *Record {
	c := *r
	if r.Series != nil {
		c.Series = make([]SeriesPoint, len(r.Series))
		copy(c.Series, r.Series)
	}
	if r.Book != nil {
		book := &OrderBook{
			Buy:  make([]Level, len(r.Book.Buy)),
			Sell: make([]Level, len(r.Book.Sell)),
		}
		copy(book.Buy, r.Book.Buy)
		copy(book.Sell, r.Book.Sell)
		c.Book = book
	}
	return &c
}
