// Package models defines data structures for Sift
package models

import "time"

// Bar is a single OHLCV bar. Bar slices are held newest-first at API
// boundaries; indicator code reverses into chronological order itself.
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Quote is a point-in-time snapshot for one symbol.
type Quote struct {
	Symbol           string  `json:"symbol"`
	Name             string  `json:"name"`
	Price            float64 `json:"price"`
	Change           float64 `json:"change"`
	ChangePercent    float64 `json:"change_percent"`
	Volume           int64   `json:"volume"`
	AvgVolume        int64   `json:"avg_volume"` // 3-month average daily volume
	DayLow           float64 `json:"day_low"`
	DayHigh          float64 `json:"day_high"`
	FiftyDayAvg      float64 `json:"fifty_day_avg"`
	TwoHundredDayAvg float64 `json:"two_hundred_day_avg"`
	MarketCap        float64 `json:"market_cap,omitempty"`
	// EarningsAt is the next scheduled earnings report, zero when unknown.
	EarningsAt time.Time `json:"earnings_at,omitempty"`
}

// NewsHeadline is one news item attached to a symbol.
type NewsHeadline struct {
	Title       string    `json:"title"`
	Publisher   string    `json:"publisher"`
	URL         string    `json:"url,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// Fundamentals holds the subset of fundamental data used in deep analysis.
// All fields are best-effort; zero values mean the provider had no data.
type Fundamentals struct {
	MarketCap       float64 `json:"market_cap"`
	TrailingPE      float64 `json:"trailing_pe"`
	ForwardPE       float64 `json:"forward_pe"`
	EPS             float64 `json:"eps"`
	Beta            float64 `json:"beta"`
	ProfitMargin    float64 `json:"profit_margin"`
	RevenueGrowth   float64 `json:"revenue_growth"`
	DebtToEquity    float64 `json:"debt_to_equity"`
	ShortPctFloat   float64 `json:"short_pct_float"`
	TargetMeanPrice float64 `json:"target_mean_price"`
}
