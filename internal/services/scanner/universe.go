package scanner

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bobmcallan/sift/internal/interfaces"
	"github.com/bobmcallan/sift/internal/models"
	"github.com/bobmcallan/sift/internal/signals"
)

// Universe sizing and filter thresholds.
const (
	moversFetchLimit = 50

	multidayMinPrice    = 10.0
	multidayMinVolume   = 1_000_000
	multidayMinVolRatio = 1.5
	multidayMinChange   = 2.0

	intradayMinPrice  = 20.0
	intradayMinVolume = 1_000_000
	intradayMinChange = 1.0

	earningsWindowMin = 5 * 24 * time.Hour
	earningsWindowMax = 14 * 24 * time.Hour

	sectorProxyCount = 3
	sectorProxyNames = 4

	enrichConcurrency = 5
	enrichCandleRange = "3mo"
)

// sectorProxies maps sector ETFs to representative large-cap names. The 3
// proxies with the largest absolute 5-day move contribute names to the
// multi-day universe.
var sectorProxies = map[string][]string{
	"XLB": {"LIN", "APD", "SHW", "FCX"},
	"XLC": {"META", "GOOGL", "NFLX", "DIS"},
	"XLE": {"XOM", "CVX", "COP", "SLB"},
	"XLF": {"JPM", "BAC", "WFC", "GS"},
	"XLI": {"CAT", "GE", "UNP", "BA"},
	"XLK": {"AAPL", "MSFT", "NVDA", "AVGO"},
	"XLP": {"PG", "KO", "PEP", "COST"},
	"XLU": {"NEE", "SO", "DUK", "D"},
	"XLV": {"UNH", "LLY", "JNJ", "ABBV"},
	"XLY": {"AMZN", "TSLA", "HD", "MCD"},
}

func candidateFromQuote(q models.Quote, source string) *models.Candidate {
	return &models.Candidate{
		Ticker:        strings.ToUpper(q.Symbol),
		Name:          q.Name,
		Price:         q.Price,
		Change:        q.Change,
		ChangePercent: q.ChangePercent,
		Volume:        q.Volume,
		AvgVolume:     q.AvgVolume,
		DayLow:        q.DayLow,
		DayHigh:       q.DayHigh,
		SMA50Day:      q.FiftyDayAvg,
		SMA200Day:     q.TwoHundredDayAvg,
		Sources:       []string{source},
	}
}

// buildIntradayUniverse returns the deduplicated gainers+losers set with
// the large-cap in-play filters applied.
func (s *Service) buildIntradayUniverse(ctx context.Context) []*models.Candidate {
	seen := make(map[string]*models.Candidate)

	for _, screen := range []string{interfaces.MoversGainers, interfaces.MoversLosers} {
		quotes, err := s.market.GetMovers(ctx, screen, moversFetchLimit)
		if err != nil {
			s.logger.Warn().Err(err).Str("screen", screen).Msg("Movers fetch failed")
			continue
		}
		source := "gainers"
		if screen == interfaces.MoversLosers {
			source = "losers"
		}
		for _, q := range quotes {
			if q.Price < intradayMinPrice || q.Volume < intradayMinVolume || math.Abs(q.ChangePercent) < intradayMinChange {
				continue
			}
			t := strings.ToUpper(q.Symbol)
			if t == "" {
				continue
			}
			if c, ok := seen[t]; ok {
				c.Sources = appendSource(c.Sources, source)
				continue
			}
			seen[t] = candidateFromQuote(q, source)
		}
	}
	return sortedCandidates(seen)
}

// buildMultidayUniverse assembles the swing-scan union: core list, hottest
// sector names, filtered movers, upcoming-earnings names, and holdings.
func (s *Service) buildMultidayUniverse(ctx context.Context, now time.Time) []*models.Candidate {
	sources := make(map[string][]string)
	add := func(ticker, source string) {
		t := strings.ToUpper(strings.TrimSpace(ticker))
		if t == "" {
			return
		}
		sources[t] = appendSource(sources[t], source)
	}

	for _, t := range s.config.Scan.CoreTickers {
		add(t, "core")
	}
	for _, t := range s.config.Scan.Holdings {
		add(t, "holdings")
	}
	for _, proxy := range s.hotSectors(ctx) {
		for i, name := range sectorProxies[proxy] {
			if i == sectorProxyNames {
				break
			}
			add(name, "sector:"+proxy)
		}
	}

	// Mover screens contribute twice: filtered high-momentum names, and any
	// name reporting earnings 5-14 days out regardless of the filters.
	moverQuotes := make(map[string]models.Quote)
	for _, screen := range []string{interfaces.MoversMostActive, interfaces.MoversGainers, interfaces.MoversLosers} {
		quotes, err := s.market.GetMovers(ctx, screen, moversFetchLimit)
		if err != nil {
			s.logger.Warn().Err(err).Str("screen", screen).Msg("Movers fetch failed")
			continue
		}
		for _, q := range quotes {
			t := strings.ToUpper(q.Symbol)
			if t == "" {
				continue
			}
			if _, ok := moverQuotes[t]; !ok {
				moverQuotes[t] = q
			}

			volRatio := 0.0
			if q.AvgVolume > 0 {
				volRatio = float64(q.Volume) / float64(q.AvgVolume)
			}
			if q.Price >= multidayMinPrice && q.Volume >= multidayMinVolume &&
				volRatio >= multidayMinVolRatio && math.Abs(q.ChangePercent) >= multidayMinChange {
				add(t, "movers")
			}
			if !q.EarningsAt.IsZero() {
				until := q.EarningsAt.Sub(now)
				if until >= earningsWindowMin && until <= earningsWindowMax {
					add(t, "earnings")
				}
			}
		}
	}

	tickers := make([]string, 0, len(sources))
	for t := range sources {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	// One quote batch covers every ticker the mover screens did not.
	need := make([]string, 0, len(tickers))
	for _, t := range tickers {
		if _, ok := moverQuotes[t]; !ok {
			need = append(need, t)
		}
	}
	fetched := s.fetchQuotes(ctx, need)

	seen := make(map[string]*models.Candidate)
	for _, t := range tickers {
		q, ok := moverQuotes[t]
		if !ok {
			q, ok = fetched[t]
		}
		if !ok || q.Price <= 0 {
			continue
		}
		c := candidateFromQuote(q, sources[t][0])
		c.Sources = sources[t]
		seen[t] = c
	}
	return sortedCandidates(seen)
}

// hotSectors returns the sector proxies with the largest absolute 5-day
// move, strongest first.
func (s *Service) hotSectors(ctx context.Context) []string {
	proxies := make([]string, 0, len(sectorProxies))
	for p := range sectorProxies {
		proxies = append(proxies, p)
	}
	sort.Strings(proxies)

	type sectorMove struct {
		proxy string
		move  float64
	}
	moves := make([]sectorMove, 0, len(proxies))

	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, enrichConcurrency)
	for _, proxy := range proxies {
		wg.Add(1)
		go func(proxy string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			bars, err := s.market.GetCandles(ctx, proxy, "1d", "1mo")
			if err != nil {
				s.logger.Debug().Err(err).Str("proxy", proxy).Msg("Sector proxy candles failed")
				return
			}
			m := signals.RecentMove(bars, 5)
			if m == nil {
				return
			}
			mu.Lock()
			moves = append(moves, sectorMove{proxy: proxy, move: math.Abs(*m)})
			mu.Unlock()
		}(proxy)
	}
	wg.Wait()

	sort.Slice(moves, func(i, j int) bool {
		if moves[i].move != moves[j].move {
			return moves[i].move > moves[j].move
		}
		return moves[i].proxy < moves[j].proxy
	})
	if len(moves) > sectorProxyCount {
		moves = moves[:sectorProxyCount]
	}

	out := make([]string, len(moves))
	for i, m := range moves {
		out[i] = m.proxy
	}
	return out
}

// fetchQuotes batch-fetches quotes in provider-sized chunks. Failed chunks
// degrade to missing tickers, never abort the cycle.
func (s *Service) fetchQuotes(ctx context.Context, tickers []string) map[string]models.Quote {
	out := make(map[string]models.Quote, len(tickers))
	const chunkSize = 50
	for start := 0; start < len(tickers); start += chunkSize {
		end := start + chunkSize
		if end > len(tickers) {
			end = len(tickers)
		}
		quotes, err := s.market.GetQuotes(ctx, tickers[start:end])
		if err != nil {
			s.logger.Warn().Err(err).Int("count", end-start).Msg("Quote batch failed")
			continue
		}
		for _, q := range quotes {
			out[strings.ToUpper(q.Symbol)] = q
		}
	}
	return out
}

// enrichCandidates attaches an IndicatorSummary to each candidate. A failed
// fetch leaves Summary nil: the candidate degrades, the cycle continues.
func (s *Service) enrichCandidates(ctx context.Context, cands []*models.Candidate) {
	var wg sync.WaitGroup
	sem := make(chan struct{}, enrichConcurrency)
	for _, c := range cands {
		wg.Add(1)
		go func(c *models.Candidate) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			bars, err := s.market.GetCandles(ctx, c.Ticker, "1d", enrichCandleRange)
			if err != nil {
				s.logger.Debug().Err(err).Str("ticker", c.Ticker).Msg("Candle fetch failed; candidate degraded")
				return
			}
			c.Summary = signals.BuildSummary(c.Ticker, bars)
		}(c)
	}
	wg.Wait()
}

func appendSource(sources []string, source string) []string {
	for _, s := range sources {
		if s == source {
			return sources
		}
	}
	return append(sources, source)
}

// sortedCandidates flattens the dedup map in ticker order so cycles are
// reproducible before ranking reorders them.
func sortedCandidates(seen map[string]*models.Candidate) []*models.Candidate {
	cands := make([]*models.Candidate, 0, len(seen))
	for _, c := range seen {
		cands = append(cands, c)
	}
	sort.Slice(cands, func(i, j int) bool { return cands[i].Ticker < cands[j].Ticker })
	return cands
}
