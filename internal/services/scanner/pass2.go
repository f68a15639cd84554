package scanner

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bobmcallan/sift/internal/models"
	"github.com/bobmcallan/sift/internal/signals"
)

const (
	pass2Concurrency = 5
	pass2Timeout     = 60 * time.Second

	deepCandleRange = "1y"
	deepNewsLimit   = 5

	minIdeaConfidence     = 7.0
	relaxedIdeaConfidence = 6.0
	maxIdeas              = 6
)

// runPass2 deep-analyzes the shortlist, one inference call per ticker.
// Tickers are isolated: one failure drops that ticker only. The error is
// non-nil when every ticker failed.
func (s *Service) runPass2(ctx context.Context, mode models.ScanMode, shortlist []models.AIEval, byTicker map[string]*models.Candidate) ([]models.TradeIdea, error) {
	if len(shortlist) == 0 {
		return nil, nil
	}

	digest := s.feedbackDigest(ctx, mode)

	type result struct {
		idea *models.TradeIdea
		err  error
	}
	results := make([]result, len(shortlist))

	var wg sync.WaitGroup
	sem := make(chan struct{}, pass2Concurrency)
	for i, eval := range shortlist {
		cand := byTicker[eval.Ticker]
		if cand == nil {
			results[i] = result{err: fmt.Errorf("no candidate data for %s", eval.Ticker)}
			continue
		}
		wg.Add(1)
		go func(i int, cand *models.Candidate) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			tctx, cancel := context.WithTimeout(ctx, pass2Timeout)
			defer cancel()

			idea, _, err := s.deepAnalysis(tctx, mode, cand, digest)
			results[i] = result{idea: idea, err: err}
		}(i, cand)
	}
	wg.Wait()

	var ideas []models.TradeIdea
	failed := 0
	var lastErr error
	for i, r := range results {
		if r.err != nil {
			failed++
			lastErr = r.err
			s.logger.Warn().Err(r.err).Str("ticker", shortlist[i].Ticker).Msg("Deep analysis failed; ticker dropped")
			continue
		}
		if r.idea != nil {
			ideas = append(ideas, *r.idea)
		}
	}
	if failed == len(shortlist) {
		return nil, fmt.Errorf("deep analysis pass failed: %w", lastErr)
	}

	if mode == models.ScanModeMultiday {
		s.applyRegimeAdjustment(ctx, ideas)
	}
	return selectIdeas(mode, ideas), nil
}

// deepAnalysis runs the full single-ticker path: rich candle window, full
// indicator summary, news, fundamentals, past-performance digest, one
// inference call. Shared by Pass 2 and AnalyzeTicker so batch and
// on-demand signals never diverge.
func (s *Service) deepAnalysis(ctx context.Context, mode models.ScanMode, cand *models.Candidate, feedbackDigest string) (*models.TradeIdea, *models.IndicatorSummary, error) {
	summary := cand.Summary
	if bars, err := s.market.GetCandles(ctx, cand.Ticker, "1d", deepCandleRange); err == nil && len(bars) > 0 {
		summary = signals.BuildSummary(cand.Ticker, bars)
	} else if err != nil {
		s.logger.Debug().Err(err).Str("ticker", cand.Ticker).Msg("Deep candle fetch failed; using screen summary")
	}
	if summary == nil {
		return nil, nil, fmt.Errorf("no indicator data for %s", cand.Ticker)
	}

	news, err := s.market.GetNews(ctx, cand.Ticker, deepNewsLimit)
	if err != nil {
		s.logger.Debug().Err(err).Str("ticker", cand.Ticker).Msg("News fetch failed")
	}
	fund, err := s.market.GetFundamentals(ctx, cand.Ticker)
	if err != nil {
		s.logger.Debug().Err(err).Str("ticker", cand.Ticker).Msg("Fundamentals fetch failed")
	}

	prompt := buildDeepPrompt(mode, cand, summary, news, fund, feedbackDigest)
	text, err := s.inference.Generate(ctx, deepSystemInstruction, prompt)
	if err != nil {
		return nil, nil, fmt.Errorf("inference failed for %s: %w", cand.Ticker, err)
	}

	eval, status := parseDeepResponse(text)
	if status == ParseFailed {
		return nil, nil, fmt.Errorf("unparseable analysis for %s", cand.Ticker)
	}
	if status == ParseRepaired {
		s.logger.Debug().Str("ticker", cand.Ticker).Msg("Analysis response repaired")
	}

	idea := &models.TradeIdea{
		Ticker:        cand.Ticker,
		Name:          cand.Name,
		Price:         cand.Price,
		Change:        cand.Change,
		ChangePercent: cand.ChangePercent,
		Signal:        eval.Signal,
		Confidence:    clampConfidence(float64(eval.Confidence)),
		Reason:        eval.Reason,
		Tags:          cand.Sources,
		Mode:          mode,
		EntryPrice:    float64(eval.EntryPrice),
		StopLoss:      float64(eval.StopLoss),
		Target:        float64(eval.Target),
		Probabilities: eval.probs(),
	}
	return idea, summary, nil
}

// applyRegimeAdjustment shifts multi-day confidence once per cycle based on
// where the broad-market proxy sits against its 50- and 200-bar averages:
// below both fades longs and favors shorts, above both the reverse.
func (s *Service) applyRegimeAdjustment(ctx context.Context, ideas []models.TradeIdea) {
	if len(ideas) == 0 {
		return
	}
	proxy := s.config.Scan.MarketProxy
	if proxy == "" {
		return
	}

	bars, err := s.market.GetCandles(ctx, proxy, "1d", deepCandleRange)
	if err != nil {
		s.logger.Warn().Err(err).Str("proxy", proxy).Msg("Regime check failed; skipping adjustment")
		return
	}
	sma50 := signals.SMA(bars, 50)
	sma200 := signals.SMA(bars, 200)
	if len(bars) == 0 || sma50 == nil || sma200 == nil {
		return
	}
	price := bars[0].Close

	var shift float64
	switch {
	case price < *sma50 && price < *sma200:
		shift = -1
	case price > *sma50 && price > *sma200:
		shift = 1
	default:
		return
	}

	for i := range ideas {
		adj := shift
		if ideas[i].Signal == models.SignalSell {
			adj = -shift
		}
		ideas[i].Confidence = clampConfidence(ideas[i].Confidence + adj)
	}
	s.logger.Debug().Str("proxy", proxy).Float64("shift", shift).Msg("Regime adjustment applied")
}

// selectIdeas applies the confidence floor (multi-day relaxes one point
// when nothing clears the bar; intraday never relaxes), sorts by
// confidence, and truncates.
func selectIdeas(mode models.ScanMode, ideas []models.TradeIdea) []models.TradeIdea {
	kept := filterByConfidence(ideas, minIdeaConfidence)
	if len(kept) == 0 && mode == models.ScanModeMultiday {
		kept = filterByConfidence(ideas, relaxedIdeaConfidence)
	}

	sort.Slice(kept, func(i, j int) bool {
		if kept[i].Confidence != kept[j].Confidence {
			return kept[i].Confidence > kept[j].Confidence
		}
		return kept[i].Ticker < kept[j].Ticker
	})
	if len(kept) > maxIdeas {
		kept = kept[:maxIdeas]
	}
	return kept
}

func filterByConfidence(ideas []models.TradeIdea, floor float64) []models.TradeIdea {
	kept := make([]models.TradeIdea, 0, len(ideas))
	for _, idea := range ideas {
		if idea.Signal != models.SignalBuy && idea.Signal != models.SignalSell {
			continue
		}
		if idea.Confidence >= floor {
			kept = append(kept, idea)
		}
	}
	return kept
}

func clampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}
