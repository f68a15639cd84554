package scanner

import (
	"fmt"
	"strings"

	"github.com/bobmcallan/sift/internal/models"
)

// System instructions for the two inference passes. The deep instruction is
// shared by the on-demand analysis path, keeping batch and on-demand
// signals aligned.
const (
	screenSystemInstruction = "You are a fast equity screener. You receive one line of price and indicator data per ticker and return one verdict per ticker. Respond with ONLY a JSON array, no markdown fences, no prose."

	deepSystemInstruction = "You are a disciplined short-term trading analyst. Weigh technicals first, then news and fundamentals. Recommend BUY or SELL only when the setup is clear; otherwise HOLD. Respond with ONLY a JSON object, no markdown fences, no prose."
)

// buildScreenPrompt formats one Pass-1 batch: a digest line per candidate
// plus the verdict contract.
func buildScreenPrompt(mode models.ScanMode, batch []*models.Candidate) string {
	var sb strings.Builder

	horizon := "a 2-10 day swing trade"
	if mode == models.ScanModeIntraday {
		horizon = "a trade in today's session"
	}
	fmt.Fprintf(&sb, "Screen these %d stocks for %s.\n\n", len(batch), horizon)

	for _, c := range batch {
		sb.WriteString(digestLine(c))
		sb.WriteString("\n")
	}

	sb.WriteString(`
For each ticker return {"ticker", "signal", "confidence", "reason"}:
- signal: BUY, SELL, HOLD, or SKIP
- confidence: 0-10, where 6+ means a setup you would actually trade
- reason: one short sentence

Return ONLY a JSON array with one entry per ticker, no markdown code fences.`)

	return sb.String()
}

// digestLine formats one candidate as a compact single-line indicator
// digest. Indicators the series was too short for are simply omitted.
func digestLine(c *models.Candidate) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s $%.2f %+.1f%% vol %s", c.Ticker, c.Price, c.ChangePercent, formatVolume(c.Volume))
	if c.VolumeRatio > 0 {
		fmt.Fprintf(&sb, " (%.1fx avg)", c.VolumeRatio)
	}

	s := c.Summary
	if s == nil {
		return sb.String()
	}
	if s.RSI != nil {
		fmt.Fprintf(&sb, " | RSI %.0f", *s.RSI)
	}
	if s.MACD != nil {
		fmt.Fprintf(&sb, " MACD hist %+.2f", s.MACD.Histogram)
	}
	if c.ATRPercent > 0 {
		fmt.Fprintf(&sb, " ATR %.1f%%", c.ATRPercent)
	}
	if s.ADX != nil {
		fmt.Fprintf(&sb, " ADX %.0f", *s.ADX)
	}
	if s.Trend != "" {
		fmt.Fprintf(&sb, " trend %s", s.Trend)
	}
	if s.Crossover != "" {
		fmt.Fprintf(&sb, " ema20/sma50 %s", s.Crossover)
	}
	if m := s.Moves.Bars5; m != nil {
		fmt.Fprintf(&sb, " 5d %+.1f%%", *m)
	}
	return sb.String()
}

// buildDeepPrompt formats the full single-ticker analysis request used by
// Pass 2 and the on-demand analyze path.
func buildDeepPrompt(mode models.ScanMode, c *models.Candidate, summary *models.IndicatorSummary, news []models.NewsHeadline, fund *models.Fundamentals, feedbackDigest string) string {
	var sb strings.Builder

	horizon := "a multi-day swing trade (2-10 trading days)"
	if mode == models.ScanModeIntraday {
		horizon = "an intraday trade (entry and exit today)"
	}
	name := c.Name
	if name == "" {
		name = c.Ticker
	}
	fmt.Fprintf(&sb, "Evaluate %s (%s) for %s.\n\n", name, c.Ticker, horizon)

	fmt.Fprintf(&sb, "QUOTE: price $%.2f, change %+.2f (%+.2f%%), volume %s, day range $%.2f-$%.2f\n",
		c.Price, c.Change, c.ChangePercent, formatVolume(c.Volume), c.DayLow, c.DayHigh)

	if summary != nil {
		sb.WriteString("\nINDICATORS:\n")
		sb.WriteString(indicatorBlock(summary))
	}

	if len(news) > 0 {
		sb.WriteString("\nRECENT NEWS:\n")
		for i, n := range news {
			fmt.Fprintf(&sb, "%d. \"%s\" - %s (%s)\n", i+1, n.Title, n.Publisher, n.PublishedAt.Format("2006-01-02"))
		}
	}

	if fund != nil {
		sb.WriteString("\nFUNDAMENTALS:\n")
		sb.WriteString(fundamentalsBlock(fund))
	}

	if feedbackDigest != "" {
		sb.WriteString("\nPAST SCANNER PERFORMANCE:\n")
		sb.WriteString(feedbackDigest)
		sb.WriteString("\n")
	}

	sb.WriteString(`
Return ONLY valid JSON:
{
  "signal": "BUY|SELL|HOLD",
  "confidence": 0-10,
  "reason": "2-3 sentences: the setup, and what would invalidate it",
  "entry": suggested entry price,
  "stop": stop loss price,
  "target": profit target price,
  "probabilities": {"bull": 0-100, "neutral": 0-100, "bear": 0-100}
}

Rules:
- probabilities must sum to 100
- stop and target must be consistent with the signal direction
- confidence 7+ means you would take this trade now
- Return ONLY the JSON object, no markdown code fences, no explanation`)

	return sb.String()
}

// indicatorBlock renders the summary one indicator per line, skipping
// anything the series was too short to compute.
func indicatorBlock(s *models.IndicatorSummary) string {
	var sb strings.Builder
	if s.RSI != nil {
		fmt.Fprintf(&sb, "- RSI(14): %.1f\n", *s.RSI)
	}
	if s.MACD != nil {
		fmt.Fprintf(&sb, "- MACD: %.3f, signal %.3f, histogram %+.3f\n", s.MACD.Value, s.MACD.Signal, s.MACD.Histogram)
	}
	if s.EMA20 != nil {
		fmt.Fprintf(&sb, "- EMA20: %.2f\n", *s.EMA20)
	}
	if s.SMA20 != nil {
		fmt.Fprintf(&sb, "- SMA20: %.2f\n", *s.SMA20)
	}
	if s.SMA50 != nil {
		fmt.Fprintf(&sb, "- SMA50: %.2f\n", *s.SMA50)
	}
	if s.SMA200 != nil {
		fmt.Fprintf(&sb, "- SMA200: %.2f\n", *s.SMA200)
	}
	if s.ATR != nil {
		fmt.Fprintf(&sb, "- ATR(14): %.2f\n", *s.ATR)
	}
	if s.ADX != nil {
		fmt.Fprintf(&sb, "- ADX(14): %.1f\n", *s.ADX)
	}
	if s.Volume.Ratio > 0 {
		fmt.Fprintf(&sb, "- Volume: %s, %.1fx the 20-day average\n", formatVolume(s.Volume.Current), s.Volume.Ratio)
	}
	if s.Trend != "" {
		fmt.Fprintf(&sb, "- Trend: %s\n", s.Trend)
	}
	if s.Crossover != "" {
		fmt.Fprintf(&sb, "- EMA20/SMA50: %s\n", s.Crossover)
	}
	if len(s.Levels.Support) > 0 {
		fmt.Fprintf(&sb, "- Support: %s\n", formatLevels(s.Levels.Support))
	}
	if len(s.Levels.Resistance) > 0 {
		fmt.Fprintf(&sb, "- Resistance: %s\n", formatLevels(s.Levels.Resistance))
	}
	if m := s.Moves.Bars5; m != nil {
		fmt.Fprintf(&sb, "- 5-day move: %+.1f%%\n", *m)
	}
	if m := s.Moves.Bars10; m != nil {
		fmt.Fprintf(&sb, "- 10-day move: %+.1f%%\n", *m)
	}
	if m := s.Moves.Bars20; m != nil {
		fmt.Fprintf(&sb, "- 20-day move: %+.1f%%\n", *m)
	}
	for _, g := range s.OpenGaps {
		fmt.Fprintf(&sb, "- Open gap %s: %.2f-%.2f (%d bars ago)\n", g.Direction, g.Bottom, g.Top, g.BarsAgo)
	}
	return sb.String()
}

func fundamentalsBlock(f *models.Fundamentals) string {
	var sb strings.Builder
	if f.MarketCap > 0 {
		fmt.Fprintf(&sb, "- Market cap: %s\n", formatMarketCap(f.MarketCap))
	}
	if f.TrailingPE > 0 {
		fmt.Fprintf(&sb, "- Trailing P/E: %.1f\n", f.TrailingPE)
	}
	if f.ForwardPE > 0 {
		fmt.Fprintf(&sb, "- Forward P/E: %.1f\n", f.ForwardPE)
	}
	if f.EPS != 0 {
		fmt.Fprintf(&sb, "- EPS: %.2f\n", f.EPS)
	}
	if f.Beta > 0 {
		fmt.Fprintf(&sb, "- Beta: %.2f\n", f.Beta)
	}
	if f.ProfitMargin != 0 {
		fmt.Fprintf(&sb, "- Profit margin: %.1f%%\n", f.ProfitMargin*100)
	}
	if f.RevenueGrowth != 0 {
		fmt.Fprintf(&sb, "- Revenue growth: %.1f%%\n", f.RevenueGrowth*100)
	}
	if f.DebtToEquity > 0 {
		fmt.Fprintf(&sb, "- Debt/equity: %.1f\n", f.DebtToEquity)
	}
	if f.ShortPctFloat > 0 {
		fmt.Fprintf(&sb, "- Short interest: %.1f%% of float\n", f.ShortPctFloat*100)
	}
	if f.TargetMeanPrice > 0 {
		fmt.Fprintf(&sb, "- Analyst mean target: %.2f\n", f.TargetMeanPrice)
	}
	return sb.String()
}

func formatVolume(v int64) string {
	switch {
	case v >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", float64(v)/1e9)
	case v >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(v)/1e6)
	case v >= 1_000:
		return fmt.Sprintf("%.1fK", float64(v)/1e3)
	default:
		return fmt.Sprintf("%d", v)
	}
}

func formatMarketCap(v float64) string {
	switch {
	case v >= 1e12:
		return fmt.Sprintf("$%.2fT", v/1e12)
	case v >= 1e9:
		return fmt.Sprintf("$%.1fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("$%.1fM", v/1e6)
	default:
		return fmt.Sprintf("$%.0f", v)
	}
}

func formatLevels(levels []float64) string {
	parts := make([]string, len(levels))
	for i, l := range levels {
		parts[i] = fmt.Sprintf("%.2f", l)
	}
	return strings.Join(parts, ", ")
}
