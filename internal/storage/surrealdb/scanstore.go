package surrealdb

import (
	"context"
	"fmt"

	"github.com/bobmcallan/sift/internal/common"
	"github.com/bobmcallan/sift/internal/interfaces"
	"github.com/bobmcallan/sift/internal/models"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// scanSelectFields aliases scan_id to id and ideas to data for struct mapping.
const scanSelectFields = `scan_id AS id, ideas AS data, scanned_at, expires_at`

// ScanStore implements interfaces.ScanStore using SurrealDB.
type ScanStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

// NewScanStore creates a new ScanStore.
func NewScanStore(db *surrealdb.DB, logger *common.Logger) *ScanStore {
	return &ScanStore{db: db, logger: logger}
}

func (s *ScanStore) GetScan(ctx context.Context, id string) (*models.ScanResult, error) {
	sql := "SELECT " + scanSelectFields + " FROM $rid"
	vars := map[string]any{
		"rid": surrealmodels.NewRecordID("scan_cache", id),
	}

	results, err := surrealdb.Query[[]models.ScanResult](ctx, s.db, sql, vars)
	if err != nil {
		if isNotFoundError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get scan %s: %w", id, err)
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, nil
	}
	return &(*results)[0].Result[0], nil
}

func (s *ScanStore) UpsertScan(ctx context.Context, row *models.ScanResult) error {
	if row == nil || row.ID == "" {
		return fmt.Errorf("scan result requires an id")
	}

	sql := `UPSERT $rid SET
		scan_id = $scan_id, ideas = $ideas,
		scanned_at = $scanned_at, expires_at = $expires_at`
	vars := map[string]any{
		"rid":        surrealmodels.NewRecordID("scan_cache", row.ID),
		"scan_id":    row.ID,
		"ideas":      row.Ideas,
		"scanned_at": row.ScannedAt,
		"expires_at": row.ExpiresAt,
	}

	if _, err := surrealdb.Query[any](ctx, s.db, sql, vars); err != nil {
		return fmt.Errorf("failed to upsert scan %s: %w", row.ID, err)
	}

	s.logger.Debug().
		Str("scan_id", row.ID).
		Int("ideas", len(row.Ideas)).
		Msg("Scan result saved")
	return nil
}

// Compile-time check
var _ interfaces.ScanStore = (*ScanStore)(nil)
