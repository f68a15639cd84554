package surrealdb

import (
	"context"
	"fmt"
	"time"

	"github.com/bobmcallan/sift/internal/common"
	"github.com/bobmcallan/sift/internal/interfaces"
	"github.com/bobmcallan/sift/internal/models"
	"github.com/google/uuid"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// outcomeSelectFields aliases outcome_id to id for struct mapping.
const outcomeSelectFields = `outcome_id AS id, ticker, mode, signal, confidence,
	entry_price, exit_price, pnl_percent, win, notes, opened_at, closed_at`

// FeedbackStore implements interfaces.FeedbackStore using SurrealDB.
type FeedbackStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

// NewFeedbackStore creates a new FeedbackStore.
func NewFeedbackStore(db *surrealdb.DB, logger *common.Logger) *FeedbackStore {
	return &FeedbackStore{db: db, logger: logger}
}

func (s *FeedbackStore) SaveOutcome(ctx context.Context, outcome *models.TradeOutcome) error {
	if outcome == nil {
		return fmt.Errorf("outcome is required")
	}
	if outcome.ID == "" {
		outcome.ID = fmt.Sprintf("to_%s", uuid.New().String()[:8])
	}
	if outcome.ClosedAt.IsZero() {
		outcome.ClosedAt = time.Now()
	}

	sql := `UPSERT $rid SET
		outcome_id = $outcome_id, ticker = $ticker, mode = $mode, signal = $signal,
		confidence = $confidence, entry_price = $entry_price, exit_price = $exit_price,
		pnl_percent = $pnl_percent, win = $win, notes = $notes,
		opened_at = $opened_at, closed_at = $closed_at`
	vars := map[string]any{
		"rid":         surrealmodels.NewRecordID("trade_outcome", outcome.ID),
		"outcome_id":  outcome.ID,
		"ticker":      outcome.Ticker,
		"mode":        string(outcome.Mode),
		"signal":      outcome.Signal,
		"confidence":  outcome.Confidence,
		"entry_price": outcome.EntryPrice,
		"exit_price":  outcome.ExitPrice,
		"pnl_percent": outcome.PnLPercent,
		"win":         outcome.Win,
		"notes":       outcome.Notes,
		"opened_at":   outcome.OpenedAt,
		"closed_at":   outcome.ClosedAt,
	}

	if _, err := surrealdb.Query[any](ctx, s.db, sql, vars); err != nil {
		return fmt.Errorf("failed to save outcome: %w", err)
	}
	return nil
}

func (s *FeedbackStore) ListOutcomes(ctx context.Context, mode models.ScanMode, limit int) ([]*models.TradeOutcome, error) {
	sql := "SELECT " + outcomeSelectFields + " FROM trade_outcome"
	vars := map[string]any{}

	if mode != "" {
		sql += " WHERE mode = $mode"
		vars["mode"] = string(mode)
	}

	// outcome_id as tiebreaker for deterministic ordering when timestamps are equal
	sql += " ORDER BY closed_at DESC, outcome_id DESC"

	if limit > 0 {
		sql += " LIMIT $limit"
		vars["limit"] = limit
	}

	results, err := surrealdb.Query[[]models.TradeOutcome](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list outcomes: %w", err)
	}

	outcomes := make([]*models.TradeOutcome, 0)
	if results != nil && len(*results) > 0 {
		for i := range (*results)[0].Result {
			outcomes = append(outcomes, &(*results)[0].Result[i])
		}
	}
	return outcomes, nil
}

// Compile-time check
var _ interfaces.FeedbackStore = (*FeedbackStore)(nil)
