package models

// Trend labels produced by the five-way trend classification.
const (
	TrendStrongUptrend   = "strong_uptrend"
	TrendUptrend         = "uptrend"
	TrendSideways        = "sideways"
	TrendDowntrend       = "downtrend"
	TrendStrongDowntrend = "strong_downtrend"
)

// Crossover states for the EMA20/SMA50 relationship.
const (
	CrossoverBullish = "bullish_cross"
	CrossoverBearish = "bearish_cross"
	CrossoverAbove   = "above"
	CrossoverBelow   = "below"
)

// MACDResult holds the MACD line, signal line, and histogram.
type MACDResult struct {
	Value     float64 `json:"value"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

// VolumeInfo compares the newest bar's volume against the preceding average.
type VolumeInfo struct {
	Current int64   `json:"current"`
	Average float64 `json:"average"`
	Ratio   float64 `json:"ratio"`
}

// SRLevels holds nearest swing-derived support and resistance levels,
// ordered nearest-first relative to the current price.
type SRLevels struct {
	Support    []float64 `json:"support"`
	Resistance []float64 `json:"resistance"`
}

// Gap is a price gap between consecutive bars. Top and Bottom bound the
// unfilled range; Filled is set once a later bar trades back into it.
type Gap struct {
	Direction string  `json:"direction"` // "up" or "down"
	Top       float64 `json:"top"`
	Bottom    float64 `json:"bottom"`
	BarsAgo   int     `json:"bars_ago"`
	Filled    bool    `json:"filled"`
}

// RecentMoves holds percentage moves over fixed lookbacks. Nil means the
// series was too short for that lookback.
type RecentMoves struct {
	Bars5  *float64 `json:"bars_5,omitempty"`
	Bars10 *float64 `json:"bars_10,omitempty"`
	Bars20 *float64 `json:"bars_20,omitempty"`
}

// IndicatorSummary is a pure snapshot of every indicator over one bar
// sequence. Recomputing it from the same bars yields identical results.
// Nil pointers and empty strings mean the series was too short for that
// indicator.
type IndicatorSummary struct {
	Ticker     string      `json:"ticker"`
	Close      float64     `json:"close"`
	RSI        *float64    `json:"rsi,omitempty"`
	MACD       *MACDResult `json:"macd,omitempty"`
	EMA20      *float64    `json:"ema20,omitempty"`
	SMA20      *float64    `json:"sma20,omitempty"`
	SMA50      *float64    `json:"sma50,omitempty"`
	SMA200     *float64    `json:"sma200,omitempty"`
	ATR        *float64    `json:"atr,omitempty"`
	ADX        *float64    `json:"adx,omitempty"`
	Volume     VolumeInfo  `json:"volume"`
	Levels     SRLevels    `json:"levels"`
	Crossover  string      `json:"crossover,omitempty"`
	Trend      string      `json:"trend,omitempty"`
	Moves      RecentMoves `json:"moves"`
	OpenGaps   []Gap       `json:"open_gaps,omitempty"`
	BarCount   int         `json:"bar_count"`
}
