// Package chart maps an intraday price series onto a bounded, symmetric
// percentage band with render-ready point and gridline geometry. Pure
// functions only; any renderer can consume the output.
package chart

import (
	"errors"
	"strings"

	"stockticker/internal/quote"
)

// Policy selects how the band limit is derived.
type Policy int

const (
	// FixedBand uses the security-class limit-of-change rules.
	FixedBand Policy = iota
	// DynamicBand sizes the band to the series' widest excursion from the
	// reference, floored at 1% of the reference.
	DynamicBand
)

// Options tunes normalization.
type Options struct {
	Policy Policy
	// DefaultLimitPct applies under FixedBand when the symbol matches no
	// board rule. Zero means 10.
	DefaultLimitPct float64
}

// Band is the symmetric percentage range. MinPct always equals MaxPct so
// the zero line stays vertically centered.
type Band struct {
	MinPct float64
	MaxPct float64
}

// Point is one normalized sample. X is in [0,1]; Y is the fraction of the
// band, positive up. Y is deliberately not clamped: under DynamicBand,
// rounding can push it slightly outside [-1,1].
type Point struct {
	X float64
	Y float64
}

// Gridline marks a session time boundary for the renderer.
type Gridline struct {
	Index       int
	Label       string
	MiddayClose bool
}

// Layout is the full render-ready geometry for one series.
type Layout struct {
	Band      Band
	Points    []Point
	Gridlines []Gridline
}

// ErrNoReference is returned when neither a previous close nor a first
// series point can anchor the band. The caller should render nothing.
var ErrNoReference = errors.New("chart: no reference price")

// A full mainland session is 241 one-minute samples (09:30-11:30,
// 13:00-15:00 inclusive). Below 60 samples gridlines carry no information.
const (
	SessionPoints = 241
	minGridPoints = 60
)

var sessionLabels = []string{
	"09:30", "10:00", "10:30", "11:00", "11:30",
	"13:00", "13:30", "14:00", "14:30",
}

const middayCloseIndex = 120

// BoardLimitPct returns the daily limit-of-change percentage for a symbol:
// 5 for special-treatment securities, 20 for the innovation and growth
// boards, 10 for the standard boards, otherwise def.
func BoardLimitPct(symbol string, def float64) float64 {
	if def <= 0 {
		def = 10
	}
	if strings.Contains(symbol, "ST") || strings.Contains(symbol, "*") {
		return 5
	}
	for _, p := range []string{"688", "300", "301"} {
		if strings.HasPrefix(symbol, p) {
			return 20
		}
	}
	for _, p := range []string{"600", "000", "001", "002", "003"} {
		if strings.HasPrefix(symbol, p) {
			return 10
		}
	}
	return def
}

// Normalize maps series onto the band for symbol. previousClose anchors the
// zero line when positive; otherwise the first series point does.
func Normalize(series []quote.SeriesPoint, previousClose float64, symbol string, opt Options) (Layout, error) {
	reference := previousClose
	if reference <= 0 && len(series) > 0 {
		reference = series[0].Price
	}
	if reference <= 0 {
		return Layout{}, ErrNoReference
	}

	var limitPct, maxChange float64
	switch opt.Policy {
	case DynamicBand:
		maxChange = widestExcursion(series, reference)
		if maxChange <= 0 {
			maxChange = reference * 0.01
		}
		limitPct = maxChange / reference * 100
	default:
		limitPct = BoardLimitPct(symbol, opt.DefaultLimitPct)
		maxChange = reference * limitPct / 100
	}

	points := make([]Point, 0, len(series))
	for i, p := range series {
		points = append(points, Point{
			X: float64(i) / float64(len(series)),
			Y: (p.Price - reference) / maxChange,
		})
	}

	return Layout{
		Band:      Band{MinPct: limitPct, MaxPct: limitPct},
		Points:    points,
		Gridlines: gridlines(len(series)),
	}, nil
}

func widestExcursion(series []quote.SeriesPoint, reference float64) float64 {
	var up, down float64
	for _, p := range series {
		if d := p.Price - reference; d > up {
			up = d
		}
		if d := reference - p.Price; d > down {
			down = d
		}
	}
	if up > down {
		return up
	}
	return down
}

// gridlines suggests time-marker indices: the half-hour session boundaries
// for a full session, a proportional spread for partial data, nothing when
// fewer than 60 samples are present.
func gridlines(n int) []Gridline {
	if n < minGridPoints {
		return nil
	}
	if n >= SessionPoints {
		out := make([]Gridline, 0, len(sessionLabels)+1)
		for i, label := range sessionLabels {
			idx := i * 30
			out = append(out, Gridline{Index: idx, Label: label, MiddayClose: idx == middayCloseIndex})
		}
		out = append(out, Gridline{Index: n - 1, Label: "15:00"})
		return out
	}
	interval := n / 8
	if interval < 30 {
		interval = 30
	}
	var out []Gridline
	for i := 0; i < n; i += interval {
		g := Gridline{Index: i}
		switch {
		case i == 0:
			g.Label = "open"
		case i >= n-1:
			g.Label = "close"
		}
		out = append(out, g)
	}
	return out
}
