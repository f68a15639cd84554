// Package feedback records closed-trade outcomes and summarizes them for
// inclusion in deep-analysis prompts.
package feedback

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bobmcallan/sift/internal/common"
	"github.com/bobmcallan/sift/internal/interfaces"
	"github.com/bobmcallan/sift/internal/models"
)

// Compile-time interface check
var _ interfaces.FeedbackService = (*Service)(nil)

// digestOutcomes caps how much history feeds a prompt digest.
const digestOutcomes = 50

// Service implements FeedbackService.
type Service struct {
	storage interfaces.StorageManager
	logger  *common.Logger
}

// NewService creates a new feedback service.
func NewService(storage interfaces.StorageManager, logger *common.Logger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
	}
}

// Record validates and persists one closed-trade outcome.
func (s *Service) Record(ctx context.Context, outcome *models.TradeOutcome) error {
	if outcome == nil {
		return fmt.Errorf("outcome is required")
	}
	if outcome.Ticker == "" {
		return fmt.Errorf("ticker is required")
	}
	if outcome.Signal != models.SignalBuy && outcome.Signal != models.SignalSell {
		return fmt.Errorf("signal must be %s or %s", models.SignalBuy, models.SignalSell)
	}
	if outcome.Mode != models.ScanModeIntraday && outcome.Mode != models.ScanModeMultiday {
		return fmt.Errorf("mode must be %s or %s", models.ScanModeIntraday, models.ScanModeMultiday)
	}
	if outcome.EntryPrice <= 0 || outcome.ExitPrice <= 0 {
		return fmt.Errorf("entry and exit prices must be positive")
	}

	outcome.Ticker = strings.ToUpper(outcome.Ticker)
	if outcome.PnLPercent == 0 && outcome.EntryPrice > 0 {
		pnl := (outcome.ExitPrice - outcome.EntryPrice) / outcome.EntryPrice * 100
		if outcome.Signal == models.SignalSell {
			pnl = -pnl
		}
		outcome.PnLPercent = pnl
	}
	outcome.Win = outcome.PnLPercent > 0
	if outcome.ClosedAt.IsZero() {
		outcome.ClosedAt = time.Now()
	}

	if err := s.storage.Feedback().SaveOutcome(ctx, outcome); err != nil {
		return fmt.Errorf("failed to record outcome: %w", err)
	}

	s.logger.Info().
		Str("ticker", outcome.Ticker).
		Str("mode", string(outcome.Mode)).
		Float64("pnl_pct", outcome.PnLPercent).
		Bool("win", outcome.Win).
		Msg("Trade outcome recorded")
	return nil
}

// Digest returns a compact win/loss summary for a mode, suitable for
// embedding in a prompt. Empty string when no history exists.
func (s *Service) Digest(ctx context.Context, mode models.ScanMode) (string, error) {
	outcomes, err := s.storage.Feedback().ListOutcomes(ctx, mode, digestOutcomes)
	if err != nil {
		return "", fmt.Errorf("failed to load outcomes: %w", err)
	}
	if len(outcomes) == 0 {
		return "", nil
	}

	stats := aggregate(mode, outcomes)

	var b strings.Builder
	fmt.Fprintf(&b, "Past %s ideas: %d closed, %.0f%% winners, avg P&L %+.1f%%.",
		mode, stats.Trades, stats.WinRate*100, stats.AvgPnL)

	losses := recentLosses(outcomes, 3)
	if len(losses) > 0 {
		b.WriteString(" Recent losers:")
		for _, o := range losses {
			fmt.Fprintf(&b, " %s %s %+.1f%%", o.Ticker, o.Signal, o.PnLPercent)
			if o.Notes != "" {
				fmt.Fprintf(&b, " (%s)", o.Notes)
			}
			b.WriteString(";")
		}
	}
	return strings.TrimSuffix(b.String(), ";"), nil
}

// Stats aggregates outcomes for a mode.
func (s *Service) Stats(ctx context.Context, mode models.ScanMode) (*models.FeedbackStats, error) {
	outcomes, err := s.storage.Feedback().ListOutcomes(ctx, mode, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load outcomes: %w", err)
	}
	return aggregate(mode, outcomes), nil
}

func aggregate(mode models.ScanMode, outcomes []*models.TradeOutcome) *models.FeedbackStats {
	stats := &models.FeedbackStats{Mode: mode}
	if len(outcomes) == 0 {
		return stats
	}

	var pnlSum float64
	for _, o := range outcomes {
		stats.Trades++
		if o.Win {
			stats.Wins++
		}
		pnlSum += o.PnLPercent
		if o.ClosedAt.After(stats.LastClosed) {
			stats.LastClosed = o.ClosedAt
		}
	}
	stats.WinRate = float64(stats.Wins) / float64(stats.Trades)
	stats.AvgPnL = pnlSum / float64(stats.Trades)
	return stats
}

// recentLosses returns up to n losing outcomes, newest first.
func recentLosses(outcomes []*models.TradeOutcome, n int) []*models.TradeOutcome {
	losses := make([]*models.TradeOutcome, 0, n)
	for _, o := range outcomes {
		if o.Win {
			continue
		}
		losses = append(losses, o)
		if len(losses) == n {
			break
		}
	}
	return losses
}
