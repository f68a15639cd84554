package interfaces

import (
	"context"

	"github.com/bobmcallan/sift/internal/models"
)

// ScannerService runs scan cycles and serves cached trade ideas.
type ScannerService interface {
	// GetIdeas returns both cached idea lists. When refresh is true a
	// best-effort refresh runs first, still subject to market-hours and
	// trading-day gating; Cached reports whether any list was rebuilt.
	GetIdeas(ctx context.Context, refresh bool) (*models.IdeasResponse, error)

	// Refresh runs one orchestrator cycle for the given mode. force
	// bypasses all staleness and market-hours gating and rebuilds the
	// day's list from scratch.
	Refresh(ctx context.Context, mode models.ScanMode, force bool) (*models.ScanResult, error)

	// RefreshIfStale refreshes only when the staleness policy says so.
	// Used by the scheduler; a skipped refresh returns (nil, nil).
	RefreshIfStale(ctx context.Context, mode models.ScanMode) (*models.ScanResult, error)

	// AnalyzeTicker runs the deep single-ticker analysis path. It shares
	// the prompt shape with Pass 2 so on-demand and batch signals agree.
	AnalyzeTicker(ctx context.Context, ticker string, mode models.ScanMode) (*models.TickerAnalysis, error)
}

// FeedbackService records closed-trade outcomes and summarizes them for
// inclusion in deep-analysis prompts.
type FeedbackService interface {
	// Record validates and persists one outcome.
	Record(ctx context.Context, outcome *models.TradeOutcome) error

	// Digest returns a compact win/loss history summary for a mode, or ""
	// when no history exists.
	Digest(ctx context.Context, mode models.ScanMode) (string, error)

	// Stats aggregates outcomes for a mode.
	Stats(ctx context.Context, mode models.ScanMode) (*models.FeedbackStats, error)
}
