package scanner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/sift/internal/interfaces"
	"github.com/bobmcallan/sift/internal/models"
	testcommon "github.com/bobmcallan/sift/test/common"
)

func moverQuote(ticker string, price, changePct float64, volume, avgVolume int64) models.Quote {
	return models.Quote{
		Symbol:        ticker,
		Name:          ticker + " Inc",
		Price:         price,
		ChangePercent: changePct,
		Volume:        volume,
		AvgVolume:     avgVolume,
	}
}

func TestBuildIntradayUniverse_AppliesFilters(t *testing.T) {
	env := newTestEnv(t)
	env.market.Movers[interfaces.MoversGainers] = []models.Quote{
		moverQuote("GOOD", 50, 3.0, 5_000_000, 2_000_000),
		moverQuote("CHEAP", 12, 5.0, 5_000_000, 2_000_000),  // price < $20
		moverQuote("THIN", 50, 5.0, 400_000, 200_000),       // volume < 1M
		moverQuote("FLAT", 50, 0.4, 5_000_000, 2_000_000),   // |change| < 1%
	}
	env.market.Movers[interfaces.MoversLosers] = []models.Quote{
		moverQuote("DOWN", 80, -4.0, 3_000_000, 2_000_000),
	}

	cands := env.svc.buildIntradayUniverse(context.Background())
	require.Len(t, cands, 2)
	assert.Equal(t, "DOWN", cands[0].Ticker)
	assert.Equal(t, "GOOD", cands[1].Ticker)
}

func TestBuildIntradayUniverse_DedupesAcrossScreens(t *testing.T) {
	env := newTestEnv(t)
	q := moverQuote("BOTH", 50, 3.0, 5_000_000, 2_000_000)
	env.market.Movers[interfaces.MoversGainers] = []models.Quote{q}
	env.market.Movers[interfaces.MoversLosers] = []models.Quote{q}

	cands := env.svc.buildIntradayUniverse(context.Background())
	require.Len(t, cands, 1)
	assert.ElementsMatch(t, []string{"gainers", "losers"}, cands[0].Sources)
}

func TestBuildIntradayUniverse_MoversFailureDegrades(t *testing.T) {
	env := newTestEnv(t)
	env.market.MoversErr = errors.New("upstream 500")

	cands := env.svc.buildIntradayUniverse(context.Background())
	assert.Empty(t, cands)
}

func TestBuildMultidayUniverse_UnionsSources(t *testing.T) {
	env := newTestEnv(t)
	env.svc.config.Scan.CoreTickers = []string{"AAPL", "MSFT"}
	env.svc.config.Scan.Holdings = []string{"aapl", "JPM"} // overlaps core

	// One mover passing the momentum filters, one carrying earnings inside
	// the 5-14 day window, one passing neither.
	hot := moverQuote("HOTT", 40, 4.0, 8_000_000, 2_000_000)
	earner := moverQuote("ERNG", 15, 0.5, 500_000, 500_000)
	earner.EarningsAt = tradingNow.Add(7 * 24 * time.Hour)
	dud := moverQuote("DUDD", 5, 0.1, 100_000, 100_000)
	env.market.Movers[interfaces.MoversMostActive] = []models.Quote{hot, earner, dud}

	for _, ticker := range []string{"AAPL", "MSFT", "JPM"} {
		env.market.Quotes[ticker] = moverQuote(ticker, 150, 0.5, 2_000_000, 2_000_000)
	}

	cands := env.svc.buildMultidayUniverse(context.Background(), tradingNow)

	got := make(map[string][]string, len(cands))
	for _, c := range cands {
		got[c.Ticker] = c.Sources
	}
	require.Len(t, got, 5)
	assert.Contains(t, got, "AAPL")
	assert.Contains(t, got, "MSFT")
	assert.Contains(t, got, "JPM")
	assert.Contains(t, got, "HOTT")
	assert.Contains(t, got, "ERNG")
	assert.NotContains(t, got, "DUDD")

	assert.ElementsMatch(t, []string{"core", "holdings"}, got["AAPL"])
	assert.Equal(t, []string{"movers"}, got["HOTT"])
	assert.Equal(t, []string{"earnings"}, got["ERNG"])
}

func TestBuildMultidayUniverse_EarningsWindowBounds(t *testing.T) {
	env := newTestEnv(t)

	soon := moverQuote("SOON", 15, 0.5, 500_000, 500_000)
	soon.EarningsAt = tradingNow.Add(2 * 24 * time.Hour) // too close
	far := moverQuote("FARR", 15, 0.5, 500_000, 500_000)
	far.EarningsAt = tradingNow.Add(20 * 24 * time.Hour) // too far
	edge := moverQuote("EDGE", 15, 0.5, 500_000, 500_000)
	edge.EarningsAt = tradingNow.Add(5 * 24 * time.Hour)
	env.market.Movers[interfaces.MoversGainers] = []models.Quote{soon, far, edge}

	cands := env.svc.buildMultidayUniverse(context.Background(), tradingNow)
	require.Len(t, cands, 1)
	assert.Equal(t, "EDGE", cands[0].Ticker)
}

func TestHotSectors_TopThreeByAbsoluteMove(t *testing.T) {
	env := newTestEnv(t)
	// Give four proxies candle histories with distinct 5-bar moves; the
	// rest have no data and drop out.
	setMove := func(proxy string, movePct float64) {
		bars := testcommon.GenerateBars(10, 100, 0)
		bars[0].Close = 100 * (1 + movePct/100)
		env.market.Candles[proxy] = bars
	}
	setMove("XLE", 8)
	setMove("XLK", -6)
	setMove("XLF", 4)
	setMove("XLP", 1)

	hot := env.svc.hotSectors(context.Background())
	assert.Equal(t, []string{"XLE", "XLK", "XLF"}, hot)
}

func TestEnrichCandidates(t *testing.T) {
	t.Run("attaches summaries", func(t *testing.T) {
		env := newTestEnv(t)
		env.market.Candles["HAVE"] = testcommon.GenerateBars(60, 50, 0.1)

		cands := []*models.Candidate{
			{Ticker: "HAVE", Price: 55},
			{Ticker: "MISS", Price: 30},
		}
		env.svc.enrichCandidates(context.Background(), cands)

		require.NotNil(t, cands[0].Summary)
		assert.Equal(t, 60, cands[0].Summary.BarCount)
		require.NotNil(t, cands[1].Summary) // no history still yields a summary
		assert.Equal(t, 0, cands[1].Summary.BarCount)
	})

	t.Run("fetch failure degrades candidate", func(t *testing.T) {
		env := newTestEnv(t)
		env.market.CandleErr = errors.New("rate limited")

		cands := []*models.Candidate{{Ticker: "HAVE", Price: 55}}
		env.svc.enrichCandidates(context.Background(), cands)
		assert.Nil(t, cands[0].Summary)
	})
}
