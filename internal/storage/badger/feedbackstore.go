package badger

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/timshannon/badgerhold/v4"

	"github.com/bobmcallan/sift/internal/common"
	"github.com/bobmcallan/sift/internal/models"
)

type feedbackStorage struct {
	store  *Store
	logger *common.Logger
}

// NewFeedbackStorage creates a FeedbackStore backed by BadgerHold.
func NewFeedbackStorage(store *Store, logger *common.Logger) *feedbackStorage {
	return &feedbackStorage{store: store, logger: logger}
}

func (s *feedbackStorage) SaveOutcome(_ context.Context, outcome *models.TradeOutcome) error {
	if outcome == nil {
		return fmt.Errorf("outcome is required")
	}
	if outcome.ID == "" {
		outcome.ID = fmt.Sprintf("to_%s", uuid.New().String()[:8])
	}

	if err := s.store.db.Upsert(outcome.ID, outcome); err != nil {
		return fmt.Errorf("failed to save outcome '%s': %w", outcome.ID, err)
	}
	s.logger.Debug().Str("id", outcome.ID).Str("ticker", outcome.Ticker).Msg("Outcome saved")
	return nil
}

func (s *feedbackStorage) ListOutcomes(_ context.Context, mode models.ScanMode, limit int) ([]*models.TradeOutcome, error) {
	var rows []models.TradeOutcome

	var query *badgerhold.Query
	if mode != "" {
		query = badgerhold.Where("Mode").Eq(mode).Index("Mode")
	}
	if err := s.store.db.Find(&rows, query); err != nil {
		return nil, fmt.Errorf("failed to list outcomes: %w", err)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].ClosedAt.Equal(rows[j].ClosedAt) {
			return rows[i].ID > rows[j].ID
		}
		return rows[i].ClosedAt.After(rows[j].ClosedAt)
	})

	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	out := make([]*models.TradeOutcome, len(rows))
	for i := range rows {
		out[i] = &rows[i]
	}
	return out, nil
}
