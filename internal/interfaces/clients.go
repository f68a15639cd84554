// Package interfaces defines service contracts for Sift
package interfaces

import (
	"context"

	"github.com/bobmcallan/sift/internal/models"
)

// Predefined mover screens offered by the market-data provider.
const (
	MoversGainers    = "day_gainers"
	MoversLosers     = "day_losers"
	MoversMostActive = "most_actives"
)

// MarketDataClient provides read-only market data. All methods are consumed
// defensively: callers treat empty results as "no data", never as fatal.
type MarketDataClient interface {
	// GetCandles retrieves OHLCV bars for a symbol, newest-first.
	// interval is a provider interval ("1d", "5m"); rng a window ("3mo", "1y").
	GetCandles(ctx context.Context, symbol, interval, rng string) ([]models.Bar, error)

	// GetQuotes retrieves snapshot quotes for up to ~50 symbols per call.
	GetQuotes(ctx context.Context, symbols []string) ([]models.Quote, error)

	// GetMovers retrieves one of the predefined mover screens.
	GetMovers(ctx context.Context, screen string, limit int) ([]models.Quote, error)

	// GetNews retrieves recent headlines for a symbol.
	GetNews(ctx context.Context, symbol string, limit int) ([]models.NewsHeadline, error)

	// GetFundamentals retrieves best-effort fundamental data for a symbol.
	GetFundamentals(ctx context.Context, symbol string) (*models.Fundamentals, error)
}

// InferenceClient generates free-form text from a system instruction and a
// user prompt. Implementations own model/credential rotation and rate-limit
// cooldowns; a rate-limited combo is retried on the next combo transparently.
type InferenceClient interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}
