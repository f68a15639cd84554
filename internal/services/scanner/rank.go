package scanner

import (
	"math"
	"sort"

	"github.com/bobmcallan/sift/internal/models"
)

// rankToScore maps a 1-based rank within a set of size total onto [0,10]:
// rank 1 scores 10, rank total scores 0, linear between.
func rankToScore(rank, total int) float64 {
	if total <= 1 {
		return 10
	}
	return 10 * float64(total-rank) / float64(total-1)
}

// rankDesc assigns 1-based ranks by metric descending and stores the
// rank-mapped score via assign. Equal metric values share a rank, so
// candidates identical on a metric always receive the same component score.
func rankDesc(cands []*models.Candidate, metric func(*models.Candidate) float64, assign func(*models.Candidate, float64)) {
	idx := make([]int, len(cands))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		ma, mb := metric(cands[idx[a]]), metric(cands[idx[b]])
		if ma != mb {
			return ma > mb
		}
		return cands[idx[a]].Ticker < cands[idx[b]].Ticker
	})
	total := len(cands)
	rank := 1
	for pos, i := range idx {
		if pos > 0 && metric(cands[i]) != metric(cands[idx[pos-1]]) {
			rank = pos + 1
		}
		assign(cands[i], rankToScore(rank, total))
	}
}

// ScoreInPlay scores and sorts an intraday candidate set in place. The
// volume, dollar-volume and ATR components are rank-derived across this
// slice, so scores are set-relative: values from different sets must never
// be compared, only the ordering within one set is meaningful.
func ScoreInPlay(cands []*models.Candidate) {
	if len(cands) == 0 {
		return
	}
	for _, c := range cands {
		c.VolumeRatio = volumeRatioOf(c)
		c.DollarVolume = c.Price * float64(c.Volume)
		c.ATRPercent = atrPercentOf(c)
	}

	rankDesc(cands,
		func(c *models.Candidate) float64 { return c.VolumeRatio },
		func(c *models.Candidate, v float64) { c.VolRatioScore = v })
	rankDesc(cands,
		func(c *models.Candidate) float64 { return c.DollarVolume },
		func(c *models.Candidate, v float64) { c.DollarVolScore = v })
	rankDesc(cands,
		func(c *models.Candidate) float64 { return c.ATRPercent },
		func(c *models.Candidate, v float64) { c.ATRScore = v })

	for _, c := range cands {
		c.TrendScore = intradayTrendScore(c)
		c.ExtensionPenalty = math.Max(0, math.Abs(c.ChangePercent)-3) * 0.7
		c.Score = 0.30*c.VolRatioScore + 0.25*c.DollarVolScore + 0.20*c.ATRScore + 0.25*c.TrendScore - c.ExtensionPenalty
	}
	sortByScore(cands)
}

// ScoreSwingSetups scores and sorts a multi-day candidate set in place:
// trend quality weighted over pullback quality, minus over-extension
// penalties.
func ScoreSwingSetups(cands []*models.Candidate) {
	for _, c := range cands {
		c.VolumeRatio = volumeRatioOf(c)
		c.DollarVolume = c.Price * float64(c.Volume)
		c.ATRPercent = atrPercentOf(c)
		c.TrendScore = swingTrendScore(c)
		c.PullbackScore = swingPullbackScore(c)
		c.ExtensionPenalty = swingPenalty(c)
		c.Score = 0.6*c.TrendScore + 0.4*c.PullbackScore - c.ExtensionPenalty
	}
	sortByScore(cands)
}

// intradayTrendScore awards 2 points for each of: price above SMA20, SMA50
// and SMA200, positive MACD histogram, and RSI in the 45-65 sweet spot.
func intradayTrendScore(c *models.Candidate) float64 {
	var score float64
	if v := sma20Of(c); v > 0 && c.Price > v {
		score += 2
	}
	if v := sma50Of(c); v > 0 && c.Price > v {
		score += 2
	}
	if v := sma200Of(c); v > 0 && c.Price > v {
		score += 2
	}
	if c.Summary != nil && c.Summary.MACD != nil && c.Summary.MACD.Histogram > 0 {
		score += 2
	}
	if c.Summary != nil && c.Summary.RSI != nil && *c.Summary.RSI >= 45 && *c.Summary.RSI <= 65 {
		score += 2
	}
	return score
}

func swingTrendScore(c *models.Candidate) float64 {
	var score float64
	if v := sma50Of(c); v > 0 && c.Price > v {
		score += 3
	}
	if v := sma200Of(c); v > 0 && c.Price > v {
		score += 3
	}
	if s50, s200 := sma50Of(c), sma200Of(c); s50 > 0 && s200 > 0 && s50 > s200 {
		score += 2
	}
	if c.Summary != nil && c.Summary.MACD != nil && c.Summary.MACD.Histogram > 0 {
		score += 2
	}
	return score
}

// swingPullbackScore rewards setups resting near the 20-day average with
// a cooled-off RSI and no runaway recent move.
func swingPullbackScore(c *models.Candidate) float64 {
	var score float64
	if v := sma20Of(c); v > 0 && math.Abs(c.Price-v)/v <= 0.03 {
		score += 5
	}
	if c.Summary != nil && c.Summary.RSI != nil && *c.Summary.RSI >= 40 && *c.Summary.RSI <= 55 {
		score += 3
	}
	if m := move5(c); m != nil && math.Abs(*m) < 8 {
		score += 2
	}
	return score
}

func swingPenalty(c *models.Candidate) float64 {
	var penalty float64
	if m := move5(c); m != nil && math.Abs(*m) > 15 {
		penalty += 3
	}
	if m := move10(c); m != nil && math.Abs(*m) > 25 {
		penalty += 3
	}
	return penalty
}

// volumeRatioOf prefers the indicator-derived ratio and falls back to the
// quote's volume over its 3-month average.
func volumeRatioOf(c *models.Candidate) float64 {
	if c.Summary != nil && c.Summary.Volume.Ratio > 0 {
		return c.Summary.Volume.Ratio
	}
	if c.AvgVolume > 0 {
		return float64(c.Volume) / float64(c.AvgVolume)
	}
	return 0
}

func atrPercentOf(c *models.Candidate) float64 {
	if c.Summary == nil || c.Summary.ATR == nil || c.Price <= 0 {
		return 0
	}
	return *c.Summary.ATR / c.Price * 100
}

func sma20Of(c *models.Candidate) float64 {
	if c.Summary != nil && c.Summary.SMA20 != nil {
		return *c.Summary.SMA20
	}
	return 0
}

// sma50Of and sma200Of fall back to the quote-supplied day averages when
// the enrichment window was too short to compute the real thing.
func sma50Of(c *models.Candidate) float64 {
	if c.Summary != nil && c.Summary.SMA50 != nil {
		return *c.Summary.SMA50
	}
	return c.SMA50Day
}

func sma200Of(c *models.Candidate) float64 {
	if c.Summary != nil && c.Summary.SMA200 != nil {
		return *c.Summary.SMA200
	}
	return c.SMA200Day
}

func move5(c *models.Candidate) *float64 {
	if c.Summary == nil {
		return nil
	}
	return c.Summary.Moves.Bars5
}

func move10(c *models.Candidate) *float64 {
	if c.Summary == nil {
		return nil
	}
	return c.Summary.Moves.Bars10
}

// sortByScore orders by composite descending, ticker ascending on ties.
func sortByScore(cands []*models.Candidate) {
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].Score != cands[j].Score {
			return cands[i].Score > cands[j].Score
		}
		return cands[i].Ticker < cands[j].Ticker
	})
}
