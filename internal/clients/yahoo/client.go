// Package yahoo provides a client for the Yahoo Finance public API
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/sift/internal/common"
	"github.com/bobmcallan/sift/internal/interfaces"
	"github.com/bobmcallan/sift/internal/models"
)

// flexFloat64 handles JSON values that may be a number, a string, or the
// provider's {"raw": n, "fmt": "..."} wrapper (which is {} when absent).
type flexFloat64 float64

func (f *flexFloat64) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = flexFloat64(num)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "" || s == "N/A" {
			*f = 0
			return nil
		}
		num, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = flexFloat64(num)
		return nil
	}

	var wrapped struct {
		Raw *float64 `json:"raw"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil {
		if wrapped.Raw != nil {
			*f = flexFloat64(*wrapped.Raw)
		} else {
			*f = 0
		}
		return nil
	}

	return fmt.Errorf("cannot unmarshal %s into float64", string(data))
}

const (
	DefaultBaseURL   = "https://query1.finance.yahoo.com"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5 // requests per second

	// Yahoo rejects the default Go user agent.
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
)

// Client implements the MarketDataClient interface against Yahoo Finance.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(userAgent string) ClientOption {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// NewClient creates a new Yahoo Finance client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		userAgent: DefaultUserAgent,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Yahoo API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// get performs a rate-limited GET request
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().Str("url", c.baseURL+path).Msg("Yahoo API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// GetCandles retrieves OHLCV bars for a symbol, newest-first. Sessions the
// provider reports as null (halts, partial data) are skipped.
func (c *Client) GetCandles(ctx context.Context, symbol, interval, rng string) ([]models.Bar, error) {
	params := url.Values{}
	params.Set("interval", interval)
	params.Set("range", rng)
	params.Set("includePrePost", "false")

	path := fmt.Sprintf("/v8/finance/chart/%s", url.PathEscape(symbol))

	var resp chartResponse
	if err := c.get(ctx, path, params, &resp); err != nil {
		return nil, err
	}

	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("chart %s: %s", symbol, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, nil
	}

	result := resp.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, nil
	}
	quote := result.Indicators.Quote[0]

	n := len(result.Timestamp)
	bars := make([]models.Bar, 0, n)
	for i := 0; i < n; i++ {
		if i >= len(quote.Close) || quote.Close[i] == nil {
			continue
		}
		if i >= len(quote.Open) || i >= len(quote.High) || i >= len(quote.Low) {
			continue
		}
		if quote.Open[i] == nil || quote.High[i] == nil || quote.Low[i] == nil {
			continue
		}

		bar := models.Bar{
			Date:  time.Unix(result.Timestamp[i], 0).UTC(),
			Open:  *quote.Open[i],
			High:  *quote.High[i],
			Low:   *quote.Low[i],
			Close: *quote.Close[i],
		}
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			bar.Volume = *quote.Volume[i]
		}
		bars = append(bars, bar)
	}

	// Provider order is oldest-first; callers expect newest-first.
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}

	return bars, nil
}

// chartResponse represents the chart API response
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *apiErrorBody `json:"error"`
	} `json:"chart"`
}

type apiErrorBody struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// GetQuotes retrieves snapshot quotes for a batch of symbols.
func (c *Client) GetQuotes(ctx context.Context, symbols []string) ([]models.Quote, error) {
	if len(symbols) == 0 {
		return nil, nil
	}

	params := url.Values{}
	params.Set("symbols", strings.Join(symbols, ","))

	var resp quoteResponse
	if err := c.get(ctx, "/v7/finance/quote", params, &resp); err != nil {
		return nil, err
	}

	if resp.QuoteResponse.Error != nil {
		return nil, fmt.Errorf("quote: %s", resp.QuoteResponse.Error.Description)
	}

	quotes := make([]models.Quote, 0, len(resp.QuoteResponse.Result))
	for _, q := range resp.QuoteResponse.Result {
		quotes = append(quotes, q.toQuote())
	}

	return quotes, nil
}

// quoteResult represents one symbol in the quote API response
type quoteResult struct {
	Symbol                     string      `json:"symbol"`
	ShortName                  string      `json:"shortName"`
	LongName                   string      `json:"longName"`
	RegularMarketPrice         flexFloat64 `json:"regularMarketPrice"`
	RegularMarketChange        flexFloat64 `json:"regularMarketChange"`
	RegularMarketChangePercent flexFloat64 `json:"regularMarketChangePercent"`
	RegularMarketVolume        int64       `json:"regularMarketVolume"`
	AverageDailyVolume3Month   int64       `json:"averageDailyVolume3Month"`
	RegularMarketDayLow        flexFloat64 `json:"regularMarketDayLow"`
	RegularMarketDayHigh       flexFloat64 `json:"regularMarketDayHigh"`
	FiftyDayAverage            flexFloat64 `json:"fiftyDayAverage"`
	TwoHundredDayAverage       flexFloat64 `json:"twoHundredDayAverage"`
	MarketCap                  flexFloat64 `json:"marketCap"`
	EarningsTimestamp          int64       `json:"earningsTimestamp"`
}

func (q quoteResult) toQuote() models.Quote {
	name := q.ShortName
	if name == "" {
		name = q.LongName
	}

	quote := models.Quote{
		Symbol:           q.Symbol,
		Name:             name,
		Price:            float64(q.RegularMarketPrice),
		Change:           float64(q.RegularMarketChange),
		ChangePercent:    float64(q.RegularMarketChangePercent),
		Volume:           q.RegularMarketVolume,
		AvgVolume:        q.AverageDailyVolume3Month,
		DayLow:           float64(q.RegularMarketDayLow),
		DayHigh:          float64(q.RegularMarketDayHigh),
		FiftyDayAvg:      float64(q.FiftyDayAverage),
		TwoHundredDayAvg: float64(q.TwoHundredDayAverage),
		MarketCap:        float64(q.MarketCap),
	}
	if q.EarningsTimestamp > 0 {
		quote.EarningsAt = time.Unix(q.EarningsTimestamp, 0).UTC()
	}
	return quote
}

type quoteResponse struct {
	QuoteResponse struct {
		Result []quoteResult `json:"result"`
		Error  *apiErrorBody `json:"error"`
	} `json:"quoteResponse"`
}

// GetMovers retrieves one of the predefined mover screens (day_gainers,
// day_losers, most_actives).
func (c *Client) GetMovers(ctx context.Context, screen string, limit int) ([]models.Quote, error) {
	if limit <= 0 {
		limit = 25
	}
	if limit > 100 {
		limit = 100
	}

	params := url.Values{}
	params.Set("scrIds", screen)
	params.Set("count", strconv.Itoa(limit))

	var resp screenerResponse
	if err := c.get(ctx, "/v1/finance/screener/predefined/saved", params, &resp); err != nil {
		return nil, err
	}

	if resp.Finance.Error != nil {
		return nil, fmt.Errorf("screener %s: %s", screen, resp.Finance.Error.Description)
	}
	if len(resp.Finance.Result) == 0 {
		return nil, nil
	}

	quotes := make([]models.Quote, 0, len(resp.Finance.Result[0].Quotes))
	for _, q := range resp.Finance.Result[0].Quotes {
		quotes = append(quotes, q.toQuote())
	}

	c.logger.Debug().Str("screen", screen).Int("results", len(quotes)).Msg("Yahoo screener returned results")

	return quotes, nil
}

type screenerResponse struct {
	Finance struct {
		Result []struct {
			ID     string        `json:"id"`
			Quotes []quoteResult `json:"quotes"`
		} `json:"result"`
		Error *apiErrorBody `json:"error"`
	} `json:"finance"`
}

// GetNews retrieves recent headlines for a symbol.
func (c *Client) GetNews(ctx context.Context, symbol string, limit int) ([]models.NewsHeadline, error) {
	if limit <= 0 {
		limit = 10
	}

	params := url.Values{}
	params.Set("q", symbol)
	params.Set("newsCount", strconv.Itoa(limit))
	params.Set("quotesCount", "0")

	var resp searchResponse
	if err := c.get(ctx, "/v1/finance/search", params, &resp); err != nil {
		return nil, err
	}

	news := make([]models.NewsHeadline, 0, len(resp.News))
	for _, item := range resp.News {
		headline := models.NewsHeadline{
			Title:     item.Title,
			Publisher: item.Publisher,
			URL:       item.Link,
		}
		if item.ProviderPublishTime > 0 {
			headline.PublishedAt = time.Unix(item.ProviderPublishTime, 0).UTC()
		}
		news = append(news, headline)
	}

	return news, nil
}

type searchResponse struct {
	News []struct {
		Title               string `json:"title"`
		Publisher           string `json:"publisher"`
		Link                string `json:"link"`
		ProviderPublishTime int64  `json:"providerPublishTime"`
	} `json:"news"`
}

// GetFundamentals retrieves best-effort fundamental data for a symbol.
// Missing modules or fields decode to zero values rather than failing.
func (c *Client) GetFundamentals(ctx context.Context, symbol string) (*models.Fundamentals, error) {
	params := url.Values{}
	params.Set("modules", "summaryDetail,defaultKeyStatistics,financialData")

	path := fmt.Sprintf("/v10/finance/quoteSummary/%s", url.PathEscape(symbol))

	var resp quoteSummaryResponse
	if err := c.get(ctx, path, params, &resp); err != nil {
		return nil, err
	}

	if resp.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("quote summary %s: %s", symbol, resp.QuoteSummary.Error.Description)
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return nil, nil
	}

	r := resp.QuoteSummary.Result[0]

	trailingPE := r.SummaryDetail.TrailingPE
	if trailingPE == 0 {
		trailingPE = r.DefaultKeyStatistics.TrailingPE
	}
	beta := r.SummaryDetail.Beta
	if beta == 0 {
		beta = r.DefaultKeyStatistics.Beta
	}

	return &models.Fundamentals{
		MarketCap:       float64(r.SummaryDetail.MarketCap),
		TrailingPE:      float64(trailingPE),
		ForwardPE:       float64(r.SummaryDetail.ForwardPE),
		EPS:             float64(r.DefaultKeyStatistics.TrailingEps),
		Beta:            float64(beta),
		ProfitMargin:    float64(r.FinancialData.ProfitMargins),
		RevenueGrowth:   float64(r.FinancialData.RevenueGrowth),
		DebtToEquity:    float64(r.FinancialData.DebtToEquity),
		ShortPctFloat:   float64(r.DefaultKeyStatistics.ShortPercentOfFloat),
		TargetMeanPrice: float64(r.FinancialData.TargetMeanPrice),
	}, nil
}

// quoteSummaryResponse represents the quoteSummary API response. All numeric
// fields arrive as {"raw": n, "fmt": "..."} wrappers.
type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			SummaryDetail struct {
				MarketCap  flexFloat64 `json:"marketCap"`
				TrailingPE flexFloat64 `json:"trailingPE"`
				ForwardPE  flexFloat64 `json:"forwardPE"`
				Beta       flexFloat64 `json:"beta"`
			} `json:"summaryDetail"`
			DefaultKeyStatistics struct {
				TrailingEps         flexFloat64 `json:"trailingEps"`
				TrailingPE          flexFloat64 `json:"trailingPE"`
				Beta                flexFloat64 `json:"beta"`
				ShortPercentOfFloat flexFloat64 `json:"shortPercentOfFloat"`
			} `json:"defaultKeyStatistics"`
			FinancialData struct {
				ProfitMargins   flexFloat64 `json:"profitMargins"`
				RevenueGrowth   flexFloat64 `json:"revenueGrowth"`
				DebtToEquity    flexFloat64 `json:"debtToEquity"`
				TargetMeanPrice flexFloat64 `json:"targetMeanPrice"`
			} `json:"financialData"`
		} `json:"result"`
		Error *apiErrorBody `json:"error"`
	} `json:"quoteSummary"`
}

// Ensure Client implements MarketDataClient
var _ interfaces.MarketDataClient = (*Client)(nil)
