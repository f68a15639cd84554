package scanner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bobmcallan/sift/internal/models"
)

// analyzeDeadline bounds the whole on-demand path: quote, candles, news,
// fundamentals, and the inference call. Exceeding it returns a timeout to
// the caller instead of a partial result.
const analyzeDeadline = 90 * time.Second

// AnalyzeTicker runs the deep single-ticker analysis on demand. It builds a
// candidate from a live quote and hands it to the same deep-analysis path
// Pass 2 uses, so on-demand and batch signals never diverge.
func (s *Service) AnalyzeTicker(ctx context.Context, ticker string, mode models.ScanMode) (*models.TickerAnalysis, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, fmt.Errorf("ticker is required")
	}
	if mode != models.ScanModeIntraday && mode != models.ScanModeMultiday {
		mode = models.ScanModeMultiday
	}
	if s.inference == nil {
		return nil, errNoInference
	}

	ctx, cancel := context.WithTimeout(ctx, analyzeDeadline)
	defer cancel()

	started := time.Now()

	quotes, err := s.market.GetQuotes(ctx, []string{ticker})
	if err != nil {
		return nil, fmt.Errorf("quote fetch failed for %s: %w", ticker, err)
	}
	if len(quotes) == 0 {
		return nil, fmt.Errorf("no quote data for %s", ticker)
	}
	cand := candidateFromQuote(quotes[0], "analyze")

	idea, summary, err := s.deepAnalysis(ctx, mode, cand, s.feedbackDigest(ctx, mode))
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("ticker", ticker).
		Str("mode", string(mode)).
		Str("signal", idea.Signal).
		Float64("confidence", idea.Confidence).
		Dur("took", time.Since(started)).
		Msg("Ticker analysis complete")

	return &models.TickerAnalysis{
		Idea:      *idea,
		Summary:   summary,
		Rationale: idea.Reason,
		Generated: s.now(),
	}, nil
}
