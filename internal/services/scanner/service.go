// Package scanner implements the two-pass market scan pipeline: universe
// assembly, composite ranking, batched AI screening, deep per-ticker
// analysis, and the cached idea lists served to clients.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bobmcallan/sift/internal/common"
	"github.com/bobmcallan/sift/internal/interfaces"
	"github.com/bobmcallan/sift/internal/models"
)

// Compile-time interface check
var _ interfaces.ScannerService = (*Service)(nil)

// errNoInference is returned by the scan paths when the service was wired
// without an AI backend (keyless startup).
var errNoInference = errors.New("inference client not configured")

// Service implements ScannerService.
type Service struct {
	storage   interfaces.StorageManager
	market    interfaces.MarketDataClient
	inference interfaces.InferenceClient
	feedback  interfaces.FeedbackService
	clock     *common.MarketClock
	config    *common.Config
	logger    *common.Logger

	now func() time.Time // injectable for tests
}

// NewService creates a new scanner service.
func NewService(
	storage interfaces.StorageManager,
	market interfaces.MarketDataClient,
	inference interfaces.InferenceClient,
	feedback interfaces.FeedbackService,
	clock *common.MarketClock,
	config *common.Config,
	logger *common.Logger,
) *Service {
	return &Service{
		storage:   storage,
		market:    market,
		inference: inference,
		feedback:  feedback,
		clock:     clock,
		config:    config,
		logger:    logger,
		now:       time.Now,
	}
}

// GetIdeas serves both cached idea lists. With refresh, a best-effort
// staleness-gated refresh runs first; a fresh cache or a closed market
// leaves the rows untouched, and refresh failures fall back to the cache.
func (s *Service) GetIdeas(ctx context.Context, refresh bool) (*models.IdeasResponse, error) {
	refreshed := false
	if refresh {
		for _, mode := range []models.ScanMode{models.ScanModeIntraday, models.ScanModeMultiday} {
			row, err := s.RefreshIfStale(ctx, mode)
			if err != nil {
				s.logger.Warn().Err(err).Str("mode", string(mode)).Msg("Refresh failed; serving cache")
				continue
			}
			if row != nil {
				refreshed = true
			}
		}
	}

	resp := &models.IdeasResponse{
		IntradayIdeas: []models.TradeIdea{},
		MultiDayIdeas: []models.TradeIdea{},
		Timestamp:     s.now(),
		Cached:        !refreshed,
	}
	if row, err := s.storage.Scans().GetScan(ctx, models.ScanModeIntraday.Key()); err != nil {
		s.logger.Warn().Err(err).Msg("Intraday cache read failed")
	} else if row != nil && len(row.Ideas) > 0 {
		resp.IntradayIdeas = row.Ideas
	}
	if row, err := s.storage.Scans().GetScan(ctx, models.ScanModeMultiday.Key()); err != nil {
		s.logger.Warn().Err(err).Msg("Multiday cache read failed")
	} else if row != nil && len(row.Ideas) > 0 {
		resp.MultiDayIdeas = row.Ideas
	}
	return resp, nil
}

// Refresh runs one full scan cycle: universe, enrichment, ranking, both AI
// passes, merge into the day's cached list, upsert. force restarts the
// day's list from scratch instead of merging.
func (s *Service) Refresh(ctx context.Context, mode models.ScanMode, force bool) (*models.ScanResult, error) {
	if s.inference == nil {
		return nil, errNoInference
	}

	now := s.now()
	started := time.Now()

	var prev *models.ScanResult
	if row, err := s.storage.Scans().GetScan(ctx, mode.Key()); err != nil {
		s.logger.Warn().Err(err).Str("mode", string(mode)).Msg("Cache read failed; treating as empty")
	} else {
		prev = row
	}

	var cands []*models.Candidate
	if mode == models.ScanModeIntraday {
		cands = s.buildIntradayUniverse(ctx)
	} else {
		cands = s.buildMultidayUniverse(ctx, now)
	}
	s.logger.Info().Str("mode", string(mode)).Int("universe", len(cands)).Msg("Scan cycle started")

	s.enrichCandidates(ctx, cands)

	if mode == models.ScanModeIntraday {
		ScoreInPlay(cands)
	} else {
		ScoreSwingSetups(cands)
	}

	shortlist, err := s.runPass1(ctx, mode, cands)
	if err != nil {
		return nil, fmt.Errorf("scan cycle aborted: %w", err)
	}

	byTicker := make(map[string]*models.Candidate, len(cands))
	for _, c := range cands {
		byTicker[c.Ticker] = c
	}
	fresh, err := s.runPass2(ctx, mode, shortlist, byTicker)
	if err != nil {
		return nil, fmt.Errorf("scan cycle aborted: %w", err)
	}

	// Same-trading-day rows merge; a new day or a forced refresh starts
	// over so yesterday's ideas never leak forward.
	var existing []models.TradeIdea
	if !force && prev != nil && s.clock.SameTradingDay(prev.ScannedAt, now) {
		existing = prev.Ideas
	}
	merged := mergeIdeas(existing, fresh)

	ttl := common.MultidayScanTTL
	if mode == models.ScanModeIntraday {
		ttl = common.IntradayScanTTL
	}
	row := &models.ScanResult{
		ID:        mode.Key(),
		Ideas:     merged,
		ScannedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := s.storage.Scans().UpsertScan(ctx, row); err != nil {
		return nil, fmt.Errorf("failed to cache scan result: %w", err)
	}

	s.logger.Info().
		Str("mode", string(mode)).
		Int("universe", len(cands)).
		Int("shortlist", len(shortlist)).
		Int("new_ideas", len(fresh)).
		Int("total_ideas", len(merged)).
		Dur("took", time.Since(started)).
		Msg("Scan cycle complete")
	return row, nil
}

// RefreshIfStale runs a cycle only when the staleness policy says so: the
// row is expired or from a previous trading day, and the mode's
// market-hours gate is open. A skipped refresh returns (nil, nil).
func (s *Service) RefreshIfStale(ctx context.Context, mode models.ScanMode) (*models.ScanResult, error) {
	now := s.now()

	row, err := s.storage.Scans().GetScan(ctx, mode.Key())
	if err != nil {
		return nil, fmt.Errorf("failed to read scan cache: %w", err)
	}

	// The trading-day boundary wins over TTL: yesterday's row is stale
	// even when its TTL has not elapsed.
	sameDay := row != nil && s.clock.SameTradingDay(row.ScannedAt, now)
	stale := row == nil || !sameDay || now.After(row.ExpiresAt)
	if !stale {
		return nil, nil
	}

	switch mode {
	case models.ScanModeIntraday:
		// Refreshing outside the session would ingest stale movers data.
		if !s.clock.IsMarketHours(now) {
			return nil, nil
		}
	case models.ScanModeMultiday:
		todayEmpty := row == nil || !sameDay || len(row.Ideas) == 0
		if !s.clock.InMultidayWindow(now) && !(s.clock.IsMarketHours(now) && todayEmpty) {
			return nil, nil
		}
	}

	return s.Refresh(ctx, mode, false)
}

// mergeIdeas folds fresh ideas into the day's list: same-ticker entries
// are replaced in place, new tickers appended, so earlier finds survive
// cycles that do not rediscover them.
func mergeIdeas(existing, fresh []models.TradeIdea) []models.TradeIdea {
	merged := make([]models.TradeIdea, len(existing))
	copy(merged, existing)

	for _, idea := range fresh {
		replaced := false
		for i := range merged {
			if merged[i].Ticker == idea.Ticker {
				merged[i] = idea
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, idea)
		}
	}
	return merged
}

func (s *Service) feedbackDigest(ctx context.Context, mode models.ScanMode) string {
	if s.feedback == nil {
		return ""
	}
	digest, err := s.feedback.Digest(ctx, mode)
	if err != nil {
		s.logger.Debug().Err(err).Msg("Feedback digest unavailable")
		return ""
	}
	return digest
}
