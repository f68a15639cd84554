package feedback

import (
	"context"
	"testing"
	"time"

	"github.com/bobmcallan/sift/internal/common"
	"github.com/bobmcallan/sift/internal/interfaces"
	"github.com/bobmcallan/sift/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock storage ---

type mockFeedbackStore struct {
	saved      []*models.TradeOutcome
	listResult []*models.TradeOutcome
	listErr    error
	gotMode    models.ScanMode
	gotLimit   int
}

func (m *mockFeedbackStore) SaveOutcome(_ context.Context, o *models.TradeOutcome) error {
	m.saved = append(m.saved, o)
	return nil
}

func (m *mockFeedbackStore) ListOutcomes(_ context.Context, mode models.ScanMode, limit int) ([]*models.TradeOutcome, error) {
	m.gotMode = mode
	m.gotLimit = limit
	return m.listResult, m.listErr
}

type mockStorage struct {
	feedback *mockFeedbackStore
}

func (m *mockStorage) Scans() interfaces.ScanStore        { return nil }
func (m *mockStorage) Feedback() interfaces.FeedbackStore { return m.feedback }
func (m *mockStorage) Close() error                       { return nil }

func newTestService() (*Service, *mockFeedbackStore) {
	store := &mockFeedbackStore{}
	svc := NewService(&mockStorage{feedback: store}, common.NewSilentLogger())
	return svc, store
}

// --- Record ---

func TestRecord_ComputesDerivedFields(t *testing.T) {
	svc, store := newTestService()

	outcome := &models.TradeOutcome{
		Ticker:     "nvda",
		Mode:       models.ScanModeMultiday,
		Signal:     models.SignalBuy,
		EntryPrice: 500,
		ExitPrice:  520,
	}
	err := svc.Record(context.Background(), outcome)
	require.NoError(t, err)
	require.Len(t, store.saved, 1)

	saved := store.saved[0]
	assert.Equal(t, "NVDA", saved.Ticker)
	assert.InDelta(t, 4.0, saved.PnLPercent, 0.001)
	assert.True(t, saved.Win)
	assert.False(t, saved.ClosedAt.IsZero())
}

func TestRecord_ShortProfitInverts(t *testing.T) {
	svc, store := newTestService()

	outcome := &models.TradeOutcome{
		Ticker:     "TSLA",
		Mode:       models.ScanModeIntraday,
		Signal:     models.SignalSell,
		EntryPrice: 100,
		ExitPrice:  90,
	}
	require.NoError(t, svc.Record(context.Background(), outcome))

	saved := store.saved[0]
	assert.InDelta(t, 10.0, saved.PnLPercent, 0.001)
	assert.True(t, saved.Win)
}

func TestRecord_Validation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	tests := []struct {
		name    string
		outcome *models.TradeOutcome
	}{
		{"nil outcome", nil},
		{"missing ticker", &models.TradeOutcome{Mode: models.ScanModeIntraday, Signal: models.SignalBuy, EntryPrice: 1, ExitPrice: 1}},
		{"bad signal", &models.TradeOutcome{Ticker: "AAPL", Mode: models.ScanModeIntraday, Signal: "HOLD", EntryPrice: 1, ExitPrice: 1}},
		{"bad mode", &models.TradeOutcome{Ticker: "AAPL", Mode: "weekly", Signal: models.SignalBuy, EntryPrice: 1, ExitPrice: 1}},
		{"zero entry", &models.TradeOutcome{Ticker: "AAPL", Mode: models.ScanModeIntraday, Signal: models.SignalBuy, ExitPrice: 1}},
		{"zero exit", &models.TradeOutcome{Ticker: "AAPL", Mode: models.ScanModeIntraday, Signal: models.SignalBuy, EntryPrice: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, svc.Record(ctx, tt.outcome))
		})
	}
}

// --- Digest ---

func TestDigest_EmptyHistory(t *testing.T) {
	svc, store := newTestService()

	digest, err := svc.Digest(context.Background(), models.ScanModeMultiday)
	require.NoError(t, err)
	assert.Empty(t, digest)
	assert.Equal(t, models.ScanModeMultiday, store.gotMode)
}

func TestDigest_SummarizesHistory(t *testing.T) {
	svc, store := newTestService()
	now := time.Now()

	// Newest first, as the store contract returns them.
	store.listResult = []*models.TradeOutcome{
		{Ticker: "AAPL", Signal: models.SignalBuy, PnLPercent: 5.0, Win: true, ClosedAt: now},
		{Ticker: "TSLA", Signal: models.SignalBuy, PnLPercent: -3.0, Notes: "stopped out", ClosedAt: now.Add(-time.Hour)},
		{Ticker: "MSFT", Signal: models.SignalBuy, PnLPercent: 2.0, Win: true, ClosedAt: now.Add(-2 * time.Hour)},
		{Ticker: "NVDA", Signal: models.SignalSell, PnLPercent: -1.0, ClosedAt: now.Add(-3 * time.Hour)},
	}

	digest, err := svc.Digest(context.Background(), models.ScanModeMultiday)
	require.NoError(t, err)

	assert.Contains(t, digest, "4 closed")
	assert.Contains(t, digest, "50% winners")
	assert.Contains(t, digest, "avg P&L +0.8%")
	assert.Contains(t, digest, "TSLA BUY -3.0% (stopped out)")
	assert.Contains(t, digest, "NVDA SELL -1.0%")
}

// --- Stats ---

func TestStats_Aggregates(t *testing.T) {
	svc, store := newTestService()
	now := time.Now()

	store.listResult = []*models.TradeOutcome{
		{Ticker: "AAPL", PnLPercent: 6.0, Win: true, ClosedAt: now},
		{Ticker: "TSLA", PnLPercent: -2.0, ClosedAt: now.Add(-time.Hour)},
	}

	stats, err := svc.Stats(context.Background(), models.ScanModeIntraday)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Trades)
	assert.Equal(t, 1, stats.Wins)
	assert.InDelta(t, 0.5, stats.WinRate, 0.001)
	assert.InDelta(t, 2.0, stats.AvgPnL, 0.001)
	assert.Equal(t, now, stats.LastClosed)
	assert.Equal(t, 0, store.gotLimit)
}

func TestStats_Empty(t *testing.T) {
	svc, _ := newTestService()

	stats, err := svc.Stats(context.Background(), models.ScanModeIntraday)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Trades)
	assert.Equal(t, 0.0, stats.WinRate)
}
