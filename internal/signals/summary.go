package signals

import "github.com/bobmcallan/sift/internal/models"

// Default indicator parameters used for the per-ticker summary.
const (
	rsiPeriod    = 14
	macdFast     = 12
	macdSlow     = 26
	macdSignal   = 9
	atrPeriod    = 14
	adxPeriod    = 14
	volumePeriod = 20
	srLookback   = 5
	srCount      = 2
	gapWindow    = 60
)

// BuildSummary computes the full indicator set for a ticker from
// newest-first daily bars. Indicators that lack enough history stay nil
// (or empty for labels); the summary itself is always returned.
func BuildSummary(ticker string, bars []models.Bar) *models.IndicatorSummary {
	summary := &models.IndicatorSummary{
		Ticker:   ticker,
		BarCount: len(bars),
	}
	if len(bars) == 0 {
		return summary
	}

	summary.Close = bars[0].Close
	summary.RSI = RSI(bars, rsiPeriod)
	summary.MACD = MACD(bars, macdFast, macdSlow, macdSignal)
	summary.EMA20 = EMA(bars, 20)
	summary.SMA20 = SMA(bars, 20)
	summary.SMA50 = SMA(bars, 50)
	summary.SMA200 = SMA(bars, 200)
	summary.ATR = ATR(bars, atrPeriod)
	summary.ADX = ADX(bars, adxPeriod)
	summary.Volume = VolumeRatio(bars, volumePeriod)
	summary.Levels = SupportResistance(bars, srLookback, srCount)
	summary.Crossover = Crossover(bars)
	summary.Moves = models.RecentMoves{
		Bars5:  RecentMove(bars, 5),
		Bars10: RecentMove(bars, 10),
		Bars20: RecentMove(bars, 20),
	}

	// Trend needs both long averages.
	if summary.SMA50 != nil && summary.SMA200 != nil {
		summary.Trend = Trend(summary.Close, *summary.SMA50, *summary.SMA200)
	}

	for _, g := range Gaps(bars, gapWindow) {
		if !g.Filled {
			summary.OpenGaps = append(summary.OpenGaps, g)
		}
	}

	return summary
}
