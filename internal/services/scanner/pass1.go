package scanner

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/bobmcallan/sift/internal/models"
)

// Pass-1 shape: how many ranked candidates reach the screen, how they are
// batched, and how many survivors advance to deep analysis.
const (
	pass1TopIntraday = 15
	pass1TopMultiday = 30
	pass1BatchSize   = 20

	pass1MinConfidence = 6.0

	shortlistIntraday = 5
	shortlistMultiday = 8
)

// runPass1 screens the top-ranked candidates in batches and returns the
// deep-analysis shortlist. The error is non-nil only when every batch's
// inference call failed; parse failures degrade to empty batches.
func (s *Service) runPass1(ctx context.Context, mode models.ScanMode, cands []*models.Candidate) ([]models.AIEval, error) {
	top, capN := pass1TopMultiday, shortlistMultiday
	if mode == models.ScanModeIntraday {
		top, capN = pass1TopIntraday, shortlistIntraday
	}
	if len(cands) > top {
		cands = cands[:top]
	}
	if len(cands) == 0 {
		return nil, nil
	}

	inBatch := make(map[string]bool, len(cands))
	for _, c := range cands {
		inBatch[c.Ticker] = true
	}

	var survivors []models.AIEval
	batches, failures := 0, 0
	var lastErr error

	for start := 0; start < len(cands); start += pass1BatchSize {
		end := start + pass1BatchSize
		if end > len(cands) {
			end = len(cands)
		}
		batches++

		prompt := buildScreenPrompt(mode, cands[start:end])
		text, err := s.inference.Generate(ctx, screenSystemInstruction, prompt)
		if err != nil {
			failures++
			lastErr = err
			s.logger.Warn().Err(err).Str("mode", string(mode)).Int("batch", batches).Msg("Screen batch failed")
			continue
		}

		evals, status := parseEvalArray(text)
		switch status {
		case ParseFailed:
			s.logger.Warn().Str("mode", string(mode)).Int("batch", batches).Msg("Screen response unparseable; batch dropped")
			continue
		case ParseRepaired:
			s.logger.Debug().Str("mode", string(mode)).Int("batch", batches).Msg("Screen response repaired")
		}

		for _, e := range evals {
			e.Ticker = strings.ToUpper(e.Ticker)
			e.Signal = strings.ToUpper(e.Signal)
			if !inBatch[e.Ticker] {
				continue
			}
			if e.Signal != models.SignalBuy && e.Signal != models.SignalSell {
				continue
			}
			if e.Confidence < pass1MinConfidence {
				continue
			}
			survivors = append(survivors, e)
		}
	}

	if batches > 0 && failures == batches {
		return nil, fmt.Errorf("screening pass failed: %w", lastErr)
	}

	sort.Slice(survivors, func(i, j int) bool {
		if survivors[i].Confidence != survivors[j].Confidence {
			return survivors[i].Confidence > survivors[j].Confidence
		}
		return survivors[i].Ticker < survivors[j].Ticker
	})

	// A model occasionally emits a ticker twice; keep the strongest verdict.
	shortlist := make([]models.AIEval, 0, capN)
	picked := make(map[string]bool)
	for _, e := range survivors {
		if picked[e.Ticker] {
			continue
		}
		picked[e.Ticker] = true
		shortlist = append(shortlist, e)
		if len(shortlist) == capN {
			break
		}
	}
	return shortlist, nil
}
