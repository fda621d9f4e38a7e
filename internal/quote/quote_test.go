package quote

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRecord_PlaceholderName(t *testing.T) {
	r := NewRecord("600000", "")
	require.Equal(t, "Stock600000", r.DisplayName)
	require.False(t, r.HasRealName())

	r2 := NewRecord("600000", "浦发银行")
	require.True(t, r2.HasRealName())
}

func TestOrderBook_Padded_FillsToFiveLevels(t *testing.T) {
	b := &OrderBook{
		Buy:  []Level{{Price: 10.1, Volume: 200}, {Price: 10.0, Volume: 300}},
		Sell: []Level{{Price: 10.2, Volume: 150}},
	}
	buy, sell := b.Padded()
	require.Len(t, buy, DepthLevels)
	require.Len(t, sell, DepthLevels)
	require.Equal(t, Level{Price: 10.1, Volume: 200}, buy[0])
	require.Equal(t, Level{}, buy[2])
	require.Equal(t, Level{}, sell[4])
}

func TestOrderBook_Padded_NilBook(t *testing.T) {
	var b *OrderBook
	buy, sell := b.Padded()
	require.Len(t, buy, DepthLevels)
	require.Len(t, sell, DepthLevels)
	for i := range buy {
		require.Zero(t, buy[i].Price)
		require.Zero(t, sell[i].Volume)
	}
}

func TestRecord_Clone_IsDeep(t *testing.T) {
	r := NewRecord("000001", "平安银行")
	r.Series = []SeriesPoint{{Time: 1, Price: 10.0}}
	r.Book = &OrderBook{Buy: []Level{{Price: 9.9, Volume: 100}}}

	c := r.Clone()
	c.Series[0].Price = 99
	c.Book.Buy[0].Volume = 1

	require.Equal(t, 10.0, r.Series[0].Price)
	require.Equal(t, int64(100), r.Book.Buy[0].Volume)
}
