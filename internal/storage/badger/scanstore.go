package badger

import (
	"context"
	"fmt"

	"github.com/timshannon/badgerhold/v4"

	"github.com/bobmcallan/sift/internal/common"
	"github.com/bobmcallan/sift/internal/models"
)

type scanStorage struct {
	store  *Store
	logger *common.Logger
}

// NewScanStorage creates a ScanStore backed by BadgerHold.
func NewScanStorage(store *Store, logger *common.Logger) *scanStorage {
	return &scanStorage{store: store, logger: logger}
}

func (s *scanStorage) GetScan(_ context.Context, id string) (*models.ScanResult, error) {
	var row models.ScanResult
	err := s.store.db.Get(id, &row)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get scan '%s': %w", id, err)
	}
	return &row, nil
}

func (s *scanStorage) UpsertScan(_ context.Context, row *models.ScanResult) error {
	if row == nil || row.ID == "" {
		return fmt.Errorf("scan row requires an id")
	}
	if err := s.store.db.Upsert(row.ID, row); err != nil {
		return fmt.Errorf("failed to save scan '%s': %w", row.ID, err)
	}
	s.logger.Debug().Str("id", row.ID).Int("ideas", len(row.Ideas)).Msg("Scan saved")
	return nil
}
