package badger

import (
	"github.com/bobmcallan/sift/internal/common"
	"github.com/bobmcallan/sift/internal/interfaces"
)

// Manager implements interfaces.StorageManager over one embedded
// BadgerHold database.
type Manager struct {
	store    *Store
	scans    *scanStorage
	feedback *feedbackStorage
}

// NewManager opens the database at path and wires the stores.
func NewManager(logger *common.Logger, path string) (*Manager, error) {
	store, err := NewStore(logger, path)
	if err != nil {
		return nil, err
	}

	return &Manager{
		store:    store,
		scans:    NewScanStorage(store, logger),
		feedback: NewFeedbackStorage(store, logger),
	}, nil
}

func (m *Manager) Scans() interfaces.ScanStore {
	return m.scans
}

func (m *Manager) Feedback() interfaces.FeedbackStore {
	return m.feedback
}

func (m *Manager) Close() error {
	return m.store.Close()
}

// Compile-time check
var _ interfaces.StorageManager = (*Manager)(nil)
