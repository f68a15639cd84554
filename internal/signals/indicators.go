// Package signals provides technical indicator calculations.
//
// All public functions take bars newest-first (the API-boundary convention)
// and are total: when the series is too short they return nil (or the zero
// label) instead of an error. Rolling computations reverse into
// chronological order internally without mutating the input.
package signals

import (
	"math"
	"sort"

	"github.com/bobmcallan/sift/internal/models"
)

// chronological returns a reversed copy of bars, oldest-first.
func chronological(bars []models.Bar) []models.Bar {
	out := make([]models.Bar, len(bars))
	for i, b := range bars {
		out[len(bars)-1-i] = b
	}
	return out
}

func closes(bars []models.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

func fptr(v float64) *float64 { return &v }

// emaSeries computes an exponential moving average over chronological
// values, seeded with the simple mean of the first period values. The
// returned series aligns with values[period-1:].
func emaSeries(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return nil
	}
	k := 2.0 / float64(period+1)
	sum := 0.0
	for _, v := range values[:period] {
		sum += v
	}
	ema := sum / float64(period)

	out := make([]float64, 0, len(values)-period+1)
	out = append(out, ema)
	for _, v := range values[period:] {
		ema = v*k + ema*(1-k)
		out = append(out, ema)
	}
	return out
}

// wilderSeries smooths chronological values with factor 1/period, seeded
// with the simple mean of the first period values. The returned series
// aligns with values[period-1:].
func wilderSeries(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return nil
	}
	sum := 0.0
	for _, v := range values[:period] {
		sum += v
	}
	avg := sum / float64(period)

	out := make([]float64, 0, len(values)-period+1)
	out = append(out, avg)
	for _, v := range values[period:] {
		avg = (avg*float64(period-1) + v) / float64(period)
		out = append(out, avg)
	}
	return out
}

// trueRanges returns the TR series for chronological bars, aligned with
// bars[1:].
func trueRanges(bars []models.Bar) []float64 {
	if len(bars) < 2 {
		return nil
	}
	out := make([]float64, 0, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		h, l, prevClose := bars[i].High, bars[i].Low, bars[i-1].Close
		tr := math.Max(h-l, math.Max(math.Abs(h-prevClose), math.Abs(l-prevClose)))
		out = append(out, tr)
	}
	return out
}

// SMA returns the simple moving average of the newest period closes.
func SMA(bars []models.Bar, period int) *float64 {
	if period <= 0 || len(bars) < period {
		return nil
	}
	sum := 0.0
	for i := 0; i < period; i++ {
		sum += bars[i].Close
	}
	return fptr(sum / float64(period))
}

// EMA returns the exponential moving average of closes over the whole
// series, seeded with the simple mean of the oldest period closes.
func EMA(bars []models.Bar, period int) *float64 {
	series := emaSeries(closes(chronological(bars)), period)
	if series == nil {
		return nil
	}
	return fptr(series[len(series)-1])
}

// RSI returns the Wilder-smoothed relative strength index. The seed
// average gain/loss is the simple mean over the first period deltas;
// later deltas fold in as avg = (avg*(period-1) + delta) / period.
// Requires at least period+1 bars.
func RSI(bars []models.Bar, period int) *float64 {
	if period <= 0 || len(bars) < period+1 {
		return nil
	}
	c := closes(chronological(bars))

	var gains, losses float64
	for i := 1; i <= period; i++ {
		delta := c[i] - c[i-1]
		if delta > 0 {
			gains += delta
		} else {
			losses -= delta
		}
	}
	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	for i := period + 1; i < len(c); i++ {
		delta := c[i] - c[i-1]
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return fptr(100)
	}
	rs := avgGain / avgLoss
	return fptr(100 - 100/(1+rs))
}

// MACD returns the MACD line (fast EMA minus slow EMA), its signal line
// (EMA of the MACD line), and the histogram. Requires at least
// slow+signal bars.
func MACD(bars []models.Bar, fast, slow, signal int) *models.MACDResult {
	if len(bars) < slow+signal {
		return nil
	}
	c := closes(chronological(bars))

	fastSeries := emaSeries(c, fast)
	slowSeries := emaSeries(c, slow)
	if fastSeries == nil || slowSeries == nil {
		return nil
	}

	// Both series end at the newest bar; align them from the slow start.
	offset := slow - fast
	line := make([]float64, len(slowSeries))
	for i := range slowSeries {
		line[i] = fastSeries[i+offset] - slowSeries[i]
	}

	signalSeries := emaSeries(line, signal)
	if signalSeries == nil {
		return nil
	}

	value := line[len(line)-1]
	sig := signalSeries[len(signalSeries)-1]
	return &models.MACDResult{
		Value:     value,
		Signal:    sig,
		Histogram: value - sig,
	}
}

// ATR returns the Wilder-smoothed average true range,
// TR = max(h-l, |h-prevClose|, |l-prevClose|). Requires period+1 bars.
func ATR(bars []models.Bar, period int) *float64 {
	if period <= 0 || len(bars) < period+1 {
		return nil
	}
	series := wilderSeries(trueRanges(chronological(bars)), period)
	if series == nil {
		return nil
	}
	return fptr(series[len(series)-1])
}

// ADX returns the Wilder-smoothed average directional index. Requires
// 2*period+1 bars.
func ADX(bars []models.Bar, period int) *float64 {
	if period <= 0 || len(bars) < 2*period+1 {
		return nil
	}
	chron := chronological(bars)

	n := len(chron)
	plusDM := make([]float64, 0, n-1)
	minusDM := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		up := chron[i].High - chron[i-1].High
		down := chron[i-1].Low - chron[i].Low
		p, m := 0.0, 0.0
		if up > down && up > 0 {
			p = up
		}
		if down > up && down > 0 {
			m = down
		}
		plusDM = append(plusDM, p)
		minusDM = append(minusDM, m)
	}

	smPlus := wilderSeries(plusDM, period)
	smMinus := wilderSeries(minusDM, period)
	smTR := wilderSeries(trueRanges(chron), period)
	if smPlus == nil || smMinus == nil || smTR == nil {
		return nil
	}

	dx := make([]float64, len(smTR))
	for i := range smTR {
		if smTR[i] == 0 {
			continue
		}
		plusDI := 100 * smPlus[i] / smTR[i]
		minusDI := 100 * smMinus[i] / smTR[i]
		if sum := plusDI + minusDI; sum != 0 {
			dx[i] = 100 * math.Abs(plusDI-minusDI) / sum
		}
	}

	adxSeries := wilderSeries(dx, period)
	if adxSeries == nil {
		return nil
	}
	return fptr(adxSeries[len(adxSeries)-1])
}

// Crossover compares EMA20 against SMA50 on the full series and on the
// series with the newest bar removed. It reports bullish_cross or
// bearish_cross only on the transition bar, otherwise above/below.
// Requires at least 52 bars; returns "" below that.
func Crossover(bars []models.Bar) string {
	if len(bars) < 52 {
		return ""
	}

	curEMA, curSMA := EMA(bars, 20), SMA(bars, 50)
	prevEMA, prevSMA := EMA(bars[1:], 20), SMA(bars[1:], 50)
	if curEMA == nil || curSMA == nil || prevEMA == nil || prevSMA == nil {
		return ""
	}

	curAbove := *curEMA > *curSMA
	prevAbove := *prevEMA > *prevSMA

	switch {
	case curAbove && !prevAbove:
		return models.CrossoverBullish
	case !curAbove && prevAbove:
		return models.CrossoverBearish
	case curAbove:
		return models.CrossoverAbove
	default:
		return models.CrossoverBelow
	}
}

// Trend classifies price against the 50- and 200-period averages into one
// of five labels; sideways is the catch-all for mixed configurations.
func Trend(price, sma50, sma200 float64) string {
	switch {
	case price > sma50 && sma50 > sma200:
		return models.TrendStrongUptrend
	case price > sma50 && price > sma200:
		return models.TrendUptrend
	case price < sma50 && sma50 < sma200:
		return models.TrendStrongDowntrend
	case price < sma50 && price < sma200:
		return models.TrendDowntrend
	default:
		return models.TrendSideways
	}
}

// VolumeRatio compares the newest bar's volume against the mean of the
// preceding period bars. With fewer than period preceding bars the average
// is undefined: only Current is set, Average and Ratio stay 0.
func VolumeRatio(bars []models.Bar, period int) models.VolumeInfo {
	if len(bars) == 0 {
		return models.VolumeInfo{}
	}

	info := models.VolumeInfo{Current: bars[0].Volume}

	if period <= 0 || len(bars) < period+1 {
		return info
	}
	prior := bars[1 : period+1]

	var sum int64
	for _, b := range prior {
		sum += b.Volume
	}
	info.Average = float64(sum) / float64(len(prior))
	if info.Average > 0 {
		info.Ratio = float64(info.Current) / info.Average
	}
	return info
}

// SupportResistance finds strict swing highs and lows: a bar whose extreme
// exceeds every bar within lookback positions on both sides. It returns
// the count nearest swing lows below the current price (support) and
// swing highs above it (resistance), nearest-first.
func SupportResistance(bars []models.Bar, lookback, count int) models.SRLevels {
	levels := models.SRLevels{}
	if lookback <= 0 || count <= 0 || len(bars) < 2*lookback+1 {
		return levels
	}

	price := bars[0].Close
	chron := chronological(bars)

	var swingHighs, swingLows []float64
	for i := lookback; i < len(chron)-lookback; i++ {
		isHigh, isLow := true, true
		for j := i - lookback; j <= i+lookback; j++ {
			if j == i {
				continue
			}
			if chron[j].High >= chron[i].High {
				isHigh = false
			}
			if chron[j].Low <= chron[i].Low {
				isLow = false
			}
			if !isHigh && !isLow {
				break
			}
		}
		if isHigh {
			swingHighs = append(swingHighs, chron[i].High)
		}
		if isLow {
			swingLows = append(swingLows, chron[i].Low)
		}
	}

	for _, h := range swingHighs {
		if h > price {
			levels.Resistance = append(levels.Resistance, h)
		}
	}
	for _, l := range swingLows {
		if l < price {
			levels.Support = append(levels.Support, l)
		}
	}

	sort.Float64s(levels.Resistance) // nearest above first
	sort.Sort(sort.Reverse(sort.Float64Slice(levels.Support)))

	if len(levels.Resistance) > count {
		levels.Resistance = levels.Resistance[:count]
	}
	if len(levels.Support) > count {
		levels.Support = levels.Support[:count]
	}
	return levels
}

// Gaps detects price gaps within the newest maxBars bars. A gap up opens
// when a bar's low exceeds the previous bar's high (gap down mirrors);
// it is marked filled once any later bar's opposite extreme trades back
// into the gap range. Gaps are returned newest-first.
func Gaps(bars []models.Bar, maxBars int) []models.Gap {
	if len(bars) < 2 {
		return nil
	}
	chron := chronological(bars)
	n := len(chron)

	start := n - maxBars
	if start < 1 {
		start = 1
	}

	var gaps []models.Gap
	for i := start; i < n; i++ {
		prev, cur := chron[i-1], chron[i]

		if cur.Low > prev.High {
			g := models.Gap{
				Direction: "up",
				Top:       cur.Low,
				Bottom:    prev.High,
				BarsAgo:   n - 1 - i,
			}
			for j := i + 1; j < n; j++ {
				if chron[j].Low < g.Top {
					g.Filled = true
					break
				}
			}
			gaps = append(gaps, g)
		}

		if cur.High < prev.Low {
			g := models.Gap{
				Direction: "down",
				Top:       prev.Low,
				Bottom:    cur.High,
				BarsAgo:   n - 1 - i,
			}
			for j := i + 1; j < n; j++ {
				if chron[j].High > g.Bottom {
					g.Filled = true
					break
				}
			}
			gaps = append(gaps, g)
		}
	}

	// Newest first, matching the bar convention.
	sort.SliceStable(gaps, func(i, j int) bool { return gaps[i].BarsAgo < gaps[j].BarsAgo })
	return gaps
}

// RecentMove returns the percentage change from n bars ago to the newest
// close. Requires n+1 bars and a non-zero reference close.
func RecentMove(bars []models.Bar, n int) *float64 {
	if n <= 0 || len(bars) < n+1 {
		return nil
	}
	past := bars[n].Close
	if past == 0 {
		return nil
	}
	return fptr((bars[0].Close - past) / past * 100)
}
