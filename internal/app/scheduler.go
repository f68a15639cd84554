package app

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/bobmcallan/sift/internal/common"
	"github.com/bobmcallan/sift/internal/interfaces"
	"github.com/bobmcallan/sift/internal/models"
)

// cycleTimeout bounds one scheduled scan cycle end to end.
const cycleTimeout = 10 * time.Minute

// scanScheduler drives RefreshIfStale on cron schedules. The entries fire
// more often than scans run; the staleness policy decides whether a fire
// actually rebuilds anything, so a missed window self-heals on the next
// fire.
type scanScheduler struct {
	cron    *cron.Cron
	scanner interfaces.ScannerService
	logger  *common.Logger
}

func newScanScheduler(scanner interfaces.ScannerService, config *common.Config, logger *common.Logger) (*scanScheduler, error) {
	s := &scanScheduler{
		cron:    cron.New(),
		scanner: scanner,
		logger:  logger,
	}

	entries := []struct {
		name string
		spec string
		mode models.ScanMode
	}{
		{"intraday", config.Scan.IntradayCron, models.ScanModeIntraday},
		{"multiday_open", config.Scan.MultidayOpenCron, models.ScanModeMultiday},
		{"multiday_close", config.Scan.MultidayCloseCron, models.ScanModeMultiday},
	}
	for _, e := range entries {
		if e.spec == "" {
			continue
		}
		mode := e.mode
		if _, err := s.cron.AddFunc(e.spec, func() { s.runCycle(mode) }); err != nil {
			return nil, err
		}
	}

	// The sweep re-checks both modes, catching the opportunistic multi-day
	// fill when the day's list is empty.
	if spec := config.Scan.SweepCron; spec != "" {
		if _, err := s.cron.AddFunc(spec, func() {
			s.runCycle(models.ScanModeIntraday)
			s.runCycle(models.ScanModeMultiday)
		}); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func (s *scanScheduler) Start() {
	s.cron.Start()
	s.logger.Info().Int("entries", len(s.cron.Entries())).Msg("Scan scheduler started")
}

// Stop halts scheduling and waits for any in-flight cycle to finish.
func (s *scanScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info().Msg("Scan scheduler stopped")
}

func (s *scanScheduler) runCycle(mode models.ScanMode) {
	ctx, cancel := context.WithTimeout(context.Background(), cycleTimeout)
	defer cancel()

	start := time.Now()
	result, err := s.scanner.RefreshIfStale(ctx, mode)
	if err != nil {
		s.logger.Warn().Err(err).Str("mode", string(mode)).Msg("Scheduled scan failed")
		return
	}
	if result == nil {
		return // cache still fresh, or outside the scan window
	}
	s.logger.Info().
		Str("mode", string(mode)).
		Int("ideas", len(result.Ideas)).
		Dur("elapsed", time.Since(start)).
		Msg("Scheduled scan complete")
}
