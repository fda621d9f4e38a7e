// Package rotate cycles through the configured symbol list to pick the
// symbol shown on each tick. Owned by the caller; not goroutine-safe.
package rotate

// Cursor yields symbols round-robin.
type Cursor struct {
	symbols []string
	next    int
}

func New(symbols []string) *Cursor {
	return &Cursor{symbols: symbols}
}

// Next returns the current symbol and advances. ok is false when the list
// is empty.
func (c *Cursor) Next() (symbol string, ok bool) {
	if len(c.symbols) == 0 {
		return "", false
	}
	symbol = c.symbols[c.next%len(c.symbols)]
	c.next++
	return symbol, true
}

// Len reports the number of tracked symbols.
func (c *Cursor) Len() int { return len(c.symbols) }
