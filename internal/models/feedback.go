package models

import "time"

// TradeOutcome records how a previously surfaced idea played out. Outcomes
// feed the historical digest included in deep-analysis prompts.
type TradeOutcome struct {
	ID         string    `json:"id" badgerhold:"key"`
	Ticker     string    `json:"ticker"`
	Mode       ScanMode  `json:"mode" badgerhold:"index"`
	Signal     string    `json:"signal"` // BUY or SELL
	Confidence float64   `json:"confidence"`
	EntryPrice float64   `json:"entry_price"`
	ExitPrice  float64   `json:"exit_price"`
	PnLPercent float64   `json:"pnl_percent"`
	Win        bool      `json:"win"`
	Notes      string    `json:"notes,omitempty"`
	OpenedAt   time.Time `json:"opened_at"`
	ClosedAt   time.Time `json:"closed_at"`
}

// FeedbackStats aggregates outcomes for one scan mode.
type FeedbackStats struct {
	Mode       ScanMode  `json:"mode"`
	Trades     int       `json:"trades"`
	Wins       int       `json:"wins"`
	WinRate    float64   `json:"win_rate"`
	AvgPnL     float64   `json:"avg_pnl"`
	LastClosed time.Time `json:"last_closed,omitempty"`
}
