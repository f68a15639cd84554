package models

import "time"

// ScanMode selects the intraday or multi-day scan pipeline.
type ScanMode string

const (
	ScanModeIntraday ScanMode = "INTRADAY"
	ScanModeMultiday ScanMode = "MULTIDAY"
)

// Key returns the cache-row id for this mode.
func (m ScanMode) Key() string {
	if m == ScanModeIntraday {
		return "scan:intraday"
	}
	return "scan:multiday"
}

// Signal directions. HOLD and SKIP appear only in AIEval; ideas carry
// BUY or SELL exclusively.
const (
	SignalBuy  = "BUY"
	SignalSell = "SELL"
	SignalHold = "HOLD"
	SignalSkip = "SKIP"
)

// Candidate is a scan-cycle working record: one quote, its indicator
// summary, and the rank-derived debug fields behind the composite score.
// Candidates live for one cycle only and are never persisted.
type Candidate struct {
	Ticker        string
	Name          string
	Price         float64
	Change        float64
	ChangePercent float64
	Volume        int64
	AvgVolume     int64
	DayLow        float64
	DayHigh       float64
	SMA50Day      float64 // quote-supplied 50-day average
	SMA200Day     float64 // quote-supplied 200-day average
	Summary       *IndicatorSummary
	Sources       []string // universe sources that contributed this ticker

	// Rank inputs and sub-scores, populated by the composite scorers.
	VolumeRatio      float64
	DollarVolume     float64
	ATRPercent       float64
	VolRatioScore    float64
	DollarVolScore   float64
	ATRScore         float64
	TrendScore       float64
	PullbackScore    float64
	ExtensionPenalty float64
	Score            float64
}

// AIEval is one screening verdict from the batch pass.
type AIEval struct {
	Ticker     string  `json:"ticker"`
	Signal     string  `json:"signal"` // BUY, SELL, HOLD, SKIP
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// ScenarioProbs is a three-way bull/neutral/bear outlook summing to 100.
type ScenarioProbs struct {
	Bull    int `json:"bull"`
	Neutral int `json:"neutral"`
	Bear    int `json:"bear"`
}

// TradeIdea is one actionable output of a scan cycle. Field names follow
// the serving contract, so tags here are camelCase.
type TradeIdea struct {
	Ticker        string         `json:"ticker"`
	Name          string         `json:"name"`
	Price         float64        `json:"price"`
	Change        float64        `json:"change"`
	ChangePercent float64        `json:"changePercent"`
	Signal        string         `json:"signal"` // BUY or SELL only
	Confidence    float64        `json:"confidence"`
	Reason        string         `json:"reason"`
	Tags          []string       `json:"tags,omitempty"`
	Mode          ScanMode       `json:"mode"`
	EntryPrice    float64        `json:"entryPrice,omitempty"`
	StopLoss      float64        `json:"stopLoss,omitempty"`
	Target        float64        `json:"target,omitempty"`
	Probabilities *ScenarioProbs `json:"probabilities,omitempty"`
}

// ScanResult is the persisted cache row for one scan type.
type ScanResult struct {
	ID        string      `json:"id" badgerhold:"key"`
	Ideas     []TradeIdea `json:"data"`
	ScannedAt time.Time   `json:"scanned_at"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// IdeasResponse is the combined serving contract for both scan types.
type IdeasResponse struct {
	IntradayIdeas []TradeIdea `json:"intradayIdeas"`
	MultiDayIdeas []TradeIdea `json:"multiDayIdeas"`
	Timestamp     time.Time   `json:"timestamp"`

	// Cached is true only when no scan cycle ran for this response: both
	// lists came straight from the cache. A refresh of either mode clears
	// it, even when the other mode's gate stayed closed.
	Cached bool `json:"cached,omitempty"`
}

// TickerAnalysis is the deep single-ticker result shared by Pass 2 and the
// on-demand analysis path.
type TickerAnalysis struct {
	Idea      TradeIdea         `json:"idea"`
	Summary   *IndicatorSummary `json:"summary,omitempty"`
	Rationale string            `json:"rationale,omitempty"`
	Generated time.Time         `json:"generated"`
}
