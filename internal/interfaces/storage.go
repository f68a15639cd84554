package interfaces

import (
	"context"

	"github.com/bobmcallan/sift/internal/models"
)

// ScanStore persists one cache row per scan type.
type ScanStore interface {
	// GetScan returns the row for id, or (nil, nil) when none exists.
	GetScan(ctx context.Context, id string) (*models.ScanResult, error)

	// UpsertScan writes the row, replacing any existing one (last writer
	// wins; the staleness gate prevents concurrent cycles, not a lock).
	UpsertScan(ctx context.Context, row *models.ScanResult) error
}

// FeedbackStore persists closed-trade outcomes.
type FeedbackStore interface {
	// SaveOutcome appends or replaces one outcome by id.
	SaveOutcome(ctx context.Context, outcome *models.TradeOutcome) error

	// ListOutcomes returns outcomes for a mode, newest first, capped at
	// limit (0 means no cap).
	ListOutcomes(ctx context.Context, mode models.ScanMode, limit int) ([]*models.TradeOutcome, error)
}

// StorageManager aggregates the stores behind one lifecycle.
type StorageManager interface {
	Scans() ScanStore
	Feedback() FeedbackStore
	Close() error
}
