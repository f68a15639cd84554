// Package common provides shared test infrastructure
package common

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bobmcallan/sift/internal/interfaces"
	"github.com/bobmcallan/sift/internal/models"
)

// MockMarketDataClient implements MarketDataClient for testing. Unset maps
// yield empty results, matching the defensive real-client contract.
type MockMarketDataClient struct {
	mu sync.Mutex

	Candles      map[string][]models.Bar
	Quotes       map[string]models.Quote
	Movers       map[string][]models.Quote
	News         map[string][]models.NewsHeadline
	Fundamentals map[string]*models.Fundamentals

	CandleErr error
	QuoteErr  error
	MoversErr error

	GetCandlesCalls int
	GetQuotesCalls  int
	GetMoversCalls  int
	GetNewsCalls    int
	GetFundCalls    int
}

// NewMockMarketDataClient creates an empty market-data mock.
func NewMockMarketDataClient() *MockMarketDataClient {
	return &MockMarketDataClient{
		Candles:      make(map[string][]models.Bar),
		Quotes:       make(map[string]models.Quote),
		Movers:       make(map[string][]models.Quote),
		News:         make(map[string][]models.NewsHeadline),
		Fundamentals: make(map[string]*models.Fundamentals),
	}
}

func (m *MockMarketDataClient) GetCandles(ctx context.Context, symbol, interval, rng string) ([]models.Bar, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetCandlesCalls++
	if m.CandleErr != nil {
		return nil, m.CandleErr
	}
	return m.Candles[strings.ToUpper(symbol)], nil
}

func (m *MockMarketDataClient) GetQuotes(ctx context.Context, symbols []string) ([]models.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetQuotesCalls++
	if m.QuoteErr != nil {
		return nil, m.QuoteErr
	}
	quotes := make([]models.Quote, 0, len(symbols))
	for _, s := range symbols {
		if q, ok := m.Quotes[strings.ToUpper(s)]; ok {
			quotes = append(quotes, q)
		}
	}
	return quotes, nil
}

func (m *MockMarketDataClient) GetMovers(ctx context.Context, screen string, limit int) ([]models.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetMoversCalls++
	if m.MoversErr != nil {
		return nil, m.MoversErr
	}
	quotes := m.Movers[screen]
	if limit > 0 && len(quotes) > limit {
		quotes = quotes[:limit]
	}
	return quotes, nil
}

func (m *MockMarketDataClient) GetNews(ctx context.Context, symbol string, limit int) ([]models.NewsHeadline, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetNewsCalls++
	news := m.News[strings.ToUpper(symbol)]
	if limit > 0 && len(news) > limit {
		news = news[:limit]
	}
	return news, nil
}

func (m *MockMarketDataClient) GetFundamentals(ctx context.Context, symbol string) (*models.Fundamentals, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetFundCalls++
	return m.Fundamentals[strings.ToUpper(symbol)], nil
}

// Ensure mock implements the interface
var _ interfaces.MarketDataClient = (*MockMarketDataClient)(nil)

// MockInferenceClient implements InferenceClient for testing. Respond, when
// set, builds the response from the prompt; otherwise Responses are consumed
// in order, the last one repeating.
type MockInferenceClient struct {
	mu sync.Mutex

	Respond   func(system, prompt string) (string, error)
	Responses []string
	Err       error

	// BlockUntilDone makes Generate wait for ctx cancellation and return
	// ctx.Err(), for deadline tests.
	BlockUntilDone bool

	Calls   int
	Prompts []string
	Systems []string
}

// NewMockInferenceClient creates an inference mock returning the given
// responses in order.
func NewMockInferenceClient(responses ...string) *MockInferenceClient {
	return &MockInferenceClient{Responses: responses}
}

func (m *MockInferenceClient) Generate(ctx context.Context, system, prompt string) (string, error) {
	m.mu.Lock()
	call := m.Calls
	m.Calls++
	m.Systems = append(m.Systems, system)
	m.Prompts = append(m.Prompts, prompt)
	block := m.BlockUntilDone
	m.mu.Unlock()

	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Respond != nil {
		return m.Respond(system, prompt)
	}
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Responses) == 0 {
		return "", fmt.Errorf("mock inference: no responses configured")
	}
	if call >= len(m.Responses) {
		call = len(m.Responses) - 1
	}
	return m.Responses[call], nil
}

var _ interfaces.InferenceClient = (*MockInferenceClient)(nil)

// MockStorageManager implements StorageManager over in-memory maps.
type MockStorageManager struct {
	ScanStore     *MockScanStore
	FeedbackStore *MockFeedbackStore
}

// NewMockStorageManager creates an empty in-memory storage manager.
func NewMockStorageManager() *MockStorageManager {
	return &MockStorageManager{
		ScanStore:     &MockScanStore{Rows: make(map[string]*models.ScanResult)},
		FeedbackStore: &MockFeedbackStore{},
	}
}

func (m *MockStorageManager) Scans() interfaces.ScanStore        { return m.ScanStore }
func (m *MockStorageManager) Feedback() interfaces.FeedbackStore { return m.FeedbackStore }
func (m *MockStorageManager) Close() error                       { return nil }

var _ interfaces.StorageManager = (*MockStorageManager)(nil)

// MockScanStore is an in-memory ScanStore. Rows are copied on read and
// write so tests can't mutate the store through shared slices.
type MockScanStore struct {
	mu sync.Mutex

	Rows    map[string]*models.ScanResult
	GetErr  error
	SaveErr error

	Upserts int
}

func (m *MockScanStore) GetScan(ctx context.Context, id string) (*models.ScanResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	row, ok := m.Rows[id]
	if !ok {
		return nil, nil
	}
	cp := *row
	cp.Ideas = append([]models.TradeIdea(nil), row.Ideas...)
	return &cp, nil
}

func (m *MockScanStore) UpsertScan(ctx context.Context, row *models.ScanResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Upserts++
	cp := *row
	cp.Ideas = append([]models.TradeIdea(nil), row.Ideas...)
	m.Rows[row.ID] = &cp
	return nil
}

var _ interfaces.ScanStore = (*MockScanStore)(nil)

// MockFeedbackStore is an in-memory FeedbackStore holding outcomes in
// insertion order.
type MockFeedbackStore struct {
	mu sync.Mutex

	Outcomes []*models.TradeOutcome
	SaveErr  error
	ListErr  error
}

func (m *MockFeedbackStore) SaveOutcome(ctx context.Context, outcome *models.TradeOutcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	for i, o := range m.Outcomes {
		if o.ID == outcome.ID && outcome.ID != "" {
			m.Outcomes[i] = outcome
			return nil
		}
	}
	m.Outcomes = append(m.Outcomes, outcome)
	return nil
}

func (m *MockFeedbackStore) ListOutcomes(ctx context.Context, mode models.ScanMode, limit int) ([]*models.TradeOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	var out []*models.TradeOutcome
	for i := len(m.Outcomes) - 1; i >= 0; i-- {
		if m.Outcomes[i].Mode != mode {
			continue
		}
		out = append(out, m.Outcomes[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

var _ interfaces.FeedbackStore = (*MockFeedbackStore)(nil)

// MockFeedbackService implements FeedbackService with canned values.
type MockFeedbackService struct {
	DigestText  string
	DigestErr   error
	RecordErr   error
	StatsResult *models.FeedbackStats

	RecordCalls int
	DigestCalls int
}

func (m *MockFeedbackService) Record(ctx context.Context, outcome *models.TradeOutcome) error {
	m.RecordCalls++
	return m.RecordErr
}

func (m *MockFeedbackService) Digest(ctx context.Context, mode models.ScanMode) (string, error) {
	m.DigestCalls++
	return m.DigestText, m.DigestErr
}

func (m *MockFeedbackService) Stats(ctx context.Context, mode models.ScanMode) (*models.FeedbackStats, error) {
	if m.StatsResult != nil {
		return m.StatsResult, nil
	}
	return &models.FeedbackStats{Mode: mode}, nil
}

var _ interfaces.FeedbackService = (*MockFeedbackService)(nil)

// GenerateBars produces n synthetic daily bars, newest-first, walking the
// close by step per bar from base at the oldest bar. step > 0 trends up.
func GenerateBars(n int, base, step float64) []models.Bar {
	bars := make([]models.Bar, n)
	day := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		// index 0 is the newest bar
		cl := base + step*float64(n-1-i)
		bars[i] = models.Bar{
			Date:   day.AddDate(0, 0, -i),
			Open:   cl - step/2,
			High:   cl + 1,
			Low:    cl - 1,
			Close:  cl,
			Volume: 1_000_000,
		}
	}
	return bars
}
