package scanner

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/sift/internal/models"
	testcommon "github.com/bobmcallan/sift/test/common"
)

func deepCandidates(tickers ...string) ([]models.AIEval, map[string]*models.Candidate) {
	shortlist := make([]models.AIEval, 0, len(tickers))
	byTicker := make(map[string]*models.Candidate, len(tickers))
	for _, ticker := range tickers {
		shortlist = append(shortlist, models.AIEval{Ticker: ticker, Signal: models.SignalBuy, Confidence: 7})
		byTicker[ticker] = inPlayCandidate(ticker, 100, 2_000_000, 2, 1.5, 2)
	}
	return shortlist, byTicker
}

func TestRunPass2_BuildsIdeasFromDeepCalls(t *testing.T) {
	env := newTestEnv(t)
	env.inference.Responses = []string{deepBuyResponse}

	shortlist, byTicker := deepCandidates("NVDA", "AMD")
	ideas, err := env.svc.runPass2(context.Background(), models.ScanModeIntraday, shortlist, byTicker)
	require.NoError(t, err)
	require.Len(t, ideas, 2)

	for _, idea := range ideas {
		assert.Equal(t, models.SignalBuy, idea.Signal)
		assert.InDelta(t, 8.0, idea.Confidence, 1e-9)
		assert.InDelta(t, 100.0, idea.EntryPrice, 1e-9)
		assert.InDelta(t, 95.0, idea.StopLoss, 1e-9)
		assert.InDelta(t, 112.0, idea.Target, 1e-9)
		require.NotNil(t, idea.Probabilities)
		assert.Equal(t, 100, idea.Probabilities.Bull+idea.Probabilities.Neutral+idea.Probabilities.Bear)
	}
}

func TestRunPass2_PerTickerFailureDropsOnlyThatTicker(t *testing.T) {
	env := newTestEnv(t)
	env.inference.Respond = func(system, prompt string) (string, error) {
		if strings.Contains(prompt, "(BAD)") {
			return "", errors.New("inference blew up")
		}
		return deepBuyResponse, nil
	}

	shortlist, byTicker := deepCandidates("GOOD", "BAD")
	ideas, err := env.svc.runPass2(context.Background(), models.ScanModeIntraday, shortlist, byTicker)
	require.NoError(t, err)
	require.Len(t, ideas, 1)
	assert.Equal(t, "GOOD", ideas[0].Ticker)
}

func TestRunPass2_AllTickersFailedReturnsError(t *testing.T) {
	env := newTestEnv(t)
	env.inference.Err = errors.New("exhausted")

	shortlist, byTicker := deepCandidates("NVDA", "AMD")
	_, err := env.svc.runPass2(context.Background(), models.ScanModeIntraday, shortlist, byTicker)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deep analysis pass failed")
}

func TestRunPass2_UsesFeedbackDigest(t *testing.T) {
	env := newTestEnv(t)
	env.feedback.DigestText = "Past INTRADAY ideas: 4 closed, 50% winners."
	env.inference.Responses = []string{deepBuyResponse}

	shortlist, byTicker := deepCandidates("NVDA")
	_, err := env.svc.runPass2(context.Background(), models.ScanModeIntraday, shortlist, byTicker)
	require.NoError(t, err)
	require.NotEmpty(t, env.inference.Prompts)
	assert.Contains(t, env.inference.Prompts[0], "PAST SCANNER PERFORMANCE")
	assert.Contains(t, env.inference.Prompts[0], env.feedback.DigestText)
}

// --- regime adjustment ---

func regimeBars(price, sma float64) []models.Bar {
	// 250 flat bars at sma, newest bar at price: SMA50 and SMA200 both
	// land near sma while the close sits at price.
	bars := testcommon.GenerateBars(250, sma, 0)
	bars[0].Close = price
	return bars
}

func TestApplyRegimeAdjustment_BearMarketFadesLongs(t *testing.T) {
	env := newTestEnv(t)
	env.svc.config.Scan.MarketProxy = "SPY"
	env.market.Candles["SPY"] = regimeBars(80, 100)

	ideas := []models.TradeIdea{
		{Ticker: "LONG", Signal: models.SignalBuy, Confidence: 8},
		{Ticker: "SHRT", Signal: models.SignalSell, Confidence: 8},
	}
	env.svc.applyRegimeAdjustment(context.Background(), ideas)

	assert.InDelta(t, 7.0, ideas[0].Confidence, 1e-9)
	assert.InDelta(t, 9.0, ideas[1].Confidence, 1e-9)
}

func TestApplyRegimeAdjustment_BullMarketBoostsLongs(t *testing.T) {
	env := newTestEnv(t)
	env.svc.config.Scan.MarketProxy = "SPY"
	env.market.Candles["SPY"] = regimeBars(120, 100)

	ideas := []models.TradeIdea{
		{Ticker: "LONG", Signal: models.SignalBuy, Confidence: 8},
		{Ticker: "SHRT", Signal: models.SignalSell, Confidence: 8},
	}
	env.svc.applyRegimeAdjustment(context.Background(), ideas)

	assert.InDelta(t, 9.0, ideas[0].Confidence, 1e-9)
	assert.InDelta(t, 7.0, ideas[1].Confidence, 1e-9)
}

func TestApplyRegimeAdjustment_MixedRegimeNoShift(t *testing.T) {
	env := newTestEnv(t)
	env.svc.config.Scan.MarketProxy = "SPY"
	// Close between the long and short averages: no adjustment.
	bars := testcommon.GenerateBars(250, 100, 0)
	for i := 1; i < 50; i++ {
		bars[i].Close = 120
	}
	bars[0].Close = 105
	env.market.Candles["SPY"] = bars

	ideas := []models.TradeIdea{{Ticker: "LONG", Signal: models.SignalBuy, Confidence: 8}}
	env.svc.applyRegimeAdjustment(context.Background(), ideas)
	assert.InDelta(t, 8.0, ideas[0].Confidence, 1e-9)
}

func TestApplyRegimeAdjustment_ClampsAtBounds(t *testing.T) {
	env := newTestEnv(t)
	env.svc.config.Scan.MarketProxy = "SPY"
	env.market.Candles["SPY"] = regimeBars(120, 100)

	ideas := []models.TradeIdea{{Ticker: "MAXD", Signal: models.SignalBuy, Confidence: 10}}
	env.svc.applyRegimeAdjustment(context.Background(), ideas)
	assert.InDelta(t, 10.0, ideas[0].Confidence, 1e-9)
}

// --- final selection ---

func TestSelectIdeas_ConfidenceFloorAndTruncation(t *testing.T) {
	var ideas []models.TradeIdea
	for i, conf := range []float64{9.5, 9, 8.5, 8, 7.5, 7.2, 7.1, 6.5} {
		ideas = append(ideas, models.TradeIdea{
			Ticker:     string(rune('A' + i)),
			Signal:     models.SignalBuy,
			Confidence: conf,
		})
	}

	kept := selectIdeas(models.ScanModeIntraday, ideas)
	require.Len(t, kept, maxIdeas)
	assert.InDelta(t, 9.5, kept[0].Confidence, 1e-9)
	for i := 1; i < len(kept); i++ {
		assert.GreaterOrEqual(t, kept[i-1].Confidence, kept[i].Confidence)
	}
	for _, idea := range kept {
		assert.GreaterOrEqual(t, idea.Confidence, minIdeaConfidence)
	}
}

func TestSelectIdeas_DropsHoldRegardlessOfConfidence(t *testing.T) {
	ideas := []models.TradeIdea{
		{Ticker: "HOLD", Signal: models.SignalHold, Confidence: 10},
		{Ticker: "BUYS", Signal: models.SignalBuy, Confidence: 8},
	}
	kept := selectIdeas(models.ScanModeIntraday, ideas)
	require.Len(t, kept, 1)
	assert.Equal(t, "BUYS", kept[0].Ticker)
}

func TestSelectIdeas_MultidayRelaxesFloor(t *testing.T) {
	ideas := []models.TradeIdea{
		{Ticker: "MEH", Signal: models.SignalBuy, Confidence: 6.5},
	}

	// Intraday never relaxes.
	assert.Empty(t, selectIdeas(models.ScanModeIntraday, ideas))

	kept := selectIdeas(models.ScanModeMultiday, ideas)
	require.Len(t, kept, 1)
	assert.Equal(t, "MEH", kept[0].Ticker)
}

func TestSelectIdeas_NoRelaxWhenSomethingClearsTheBar(t *testing.T) {
	ideas := []models.TradeIdea{
		{Ticker: "GOOD", Signal: models.SignalBuy, Confidence: 7.5},
		{Ticker: "MEH", Signal: models.SignalBuy, Confidence: 6.5},
	}
	kept := selectIdeas(models.ScanModeMultiday, ideas)
	require.Len(t, kept, 1)
	assert.Equal(t, "GOOD", kept[0].Ticker)
}

func TestSelectIdeas_EqualConfidenceTickerOrder(t *testing.T) {
	ideas := []models.TradeIdea{
		{Ticker: "ZZZ", Signal: models.SignalBuy, Confidence: 8},
		{Ticker: "AAA", Signal: models.SignalSell, Confidence: 8},
	}
	kept := selectIdeas(models.ScanModeIntraday, ideas)
	require.Len(t, kept, 2)
	assert.Equal(t, "AAA", kept[0].Ticker)
	assert.Equal(t, "ZZZ", kept[1].Ticker)
}
