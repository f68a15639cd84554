package yahoo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGetCandles_ParsesChart(t *testing.T) {
	base := time.Date(2026, 1, 5, 14, 30, 0, 0, time.UTC)
	ts := []int64{base.Unix(), base.AddDate(0, 0, 1).Unix(), base.AddDate(0, 0, 2).Unix()}

	mockResponse := map[string]interface{}{
		"chart": map[string]interface{}{
			"result": []map[string]interface{}{
				{
					"timestamp": ts,
					"indicators": map[string]interface{}{
						"quote": []map[string]interface{}{
							{
								"open":   []interface{}{99.5, 100.5, 101.5},
								"high":   []interface{}{101.0, 102.0, 103.0},
								"low":    []interface{}{99.0, 100.0, 101.0},
								"close":  []interface{}{100.0, 101.0, 102.0},
								"volume": []interface{}{1000000, 1100000, 1200000},
							},
						},
					},
				},
			},
			"error": nil,
		},
	}

	var capturedPath string
	var capturedRange string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedPath = r.URL.Path
		capturedRange = r.URL.Query().Get("range")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(mockResponse)
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))

	bars, err := client.GetCandles(context.Background(), "AAPL", "1d", "3mo")
	if err != nil {
		t.Fatalf("GetCandles failed: %v", err)
	}

	if capturedPath != "/v8/finance/chart/AAPL" {
		t.Errorf("Expected path /v8/finance/chart/AAPL, got %s", capturedPath)
	}
	if capturedRange != "3mo" {
		t.Errorf("Expected range 3mo, got %s", capturedRange)
	}

	if len(bars) != 3 {
		t.Fatalf("Expected 3 bars, got %d", len(bars))
	}

	// Newest first: the last provider entry becomes bars[0].
	if bars[0].Close != 102.0 {
		t.Errorf("Expected newest close 102.0, got %.2f", bars[0].Close)
	}
	if bars[2].Close != 100.0 {
		t.Errorf("Expected oldest close 100.0, got %.2f", bars[2].Close)
	}
	if bars[0].Volume != 1200000 {
		t.Errorf("Expected newest volume 1200000, got %d", bars[0].Volume)
	}
	if !bars[2].Date.Equal(base) {
		t.Errorf("Expected oldest date %v, got %v", base, bars[2].Date)
	}
}

func TestGetCandles_SkipsNullSessions(t *testing.T) {
	mockResponse := map[string]interface{}{
		"chart": map[string]interface{}{
			"result": []map[string]interface{}{
				{
					"timestamp": []int64{1000, 2000, 3000},
					"indicators": map[string]interface{}{
						"quote": []map[string]interface{}{
							{
								"open":   []interface{}{99.5, nil, 101.5},
								"high":   []interface{}{101.0, nil, 103.0},
								"low":    []interface{}{99.0, nil, 101.0},
								"close":  []interface{}{100.0, nil, 102.0},
								"volume": []interface{}{1000000, nil, 1200000},
							},
						},
					},
				},
			},
		},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(mockResponse)
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))

	bars, err := client.GetCandles(context.Background(), "AAPL", "1d", "3mo")
	if err != nil {
		t.Fatalf("GetCandles failed: %v", err)
	}

	if len(bars) != 2 {
		t.Fatalf("Expected null session skipped, got %d bars", len(bars))
	}
	if bars[0].Close != 102.0 || bars[1].Close != 100.0 {
		t.Errorf("Unexpected closes: %.2f, %.2f", bars[0].Close, bars[1].Close)
	}
}

func TestGetCandles_ChartError(t *testing.T) {
	mockResponse := map[string]interface{}{
		"chart": map[string]interface{}{
			"result": nil,
			"error": map[string]interface{}{
				"code":        "Not Found",
				"description": "No data found, symbol may be delisted",
			},
		},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(mockResponse)
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))

	_, err := client.GetCandles(context.Background(), "NOPE", "1d", "3mo")
	if err == nil {
		t.Fatal("Expected error for chart error body")
	}
}

func TestGetQuotes_ParsesResponse(t *testing.T) {
	earnings := time.Date(2026, 2, 10, 21, 0, 0, 0, time.UTC)

	mockResponse := map[string]interface{}{
		"quoteResponse": map[string]interface{}{
			"result": []map[string]interface{}{
				{
					"symbol":                     "AAPL",
					"shortName":                  "Apple Inc.",
					"regularMarketPrice":         231.5,
					"regularMarketChange":        4.2,
					"regularMarketChangePercent": 1.85,
					"regularMarketVolume":        55000000,
					"averageDailyVolume3Month":   60000000,
					"regularMarketDayLow":        228.1,
					"regularMarketDayHigh":       232.9,
					"fiftyDayAverage":            225.4,
					"twoHundredDayAverage":       210.7,
					"marketCap":                  3500000000000.0,
					"earningsTimestamp":          earnings.Unix(),
				},
				{
					"symbol":             "MSFT",
					"longName":           "Microsoft Corporation",
					"regularMarketPrice": 502.0,
				},
			},
		},
	}

	var capturedSymbols string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedSymbols = r.URL.Query().Get("symbols")
		json.NewEncoder(w).Encode(mockResponse)
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))

	quotes, err := client.GetQuotes(context.Background(), []string{"AAPL", "MSFT"})
	if err != nil {
		t.Fatalf("GetQuotes failed: %v", err)
	}

	if capturedSymbols != "AAPL,MSFT" {
		t.Errorf("Expected symbols 'AAPL,MSFT', got '%s'", capturedSymbols)
	}
	if len(quotes) != 2 {
		t.Fatalf("Expected 2 quotes, got %d", len(quotes))
	}

	aapl := quotes[0]
	if aapl.Symbol != "AAPL" || aapl.Name != "Apple Inc." {
		t.Errorf("Unexpected identity: %s / %s", aapl.Symbol, aapl.Name)
	}
	if aapl.Price != 231.5 {
		t.Errorf("Expected price 231.5, got %.2f", aapl.Price)
	}
	if aapl.ChangePercent != 1.85 {
		t.Errorf("Expected change pct 1.85, got %.2f", aapl.ChangePercent)
	}
	if aapl.FiftyDayAvg != 225.4 || aapl.TwoHundredDayAvg != 210.7 {
		t.Errorf("Unexpected averages: %.2f / %.2f", aapl.FiftyDayAvg, aapl.TwoHundredDayAvg)
	}
	if !aapl.EarningsAt.Equal(earnings) {
		t.Errorf("Expected earnings %v, got %v", earnings, aapl.EarningsAt)
	}

	// longName fallback when shortName is absent.
	if quotes[1].Name != "Microsoft Corporation" {
		t.Errorf("Expected longName fallback, got '%s'", quotes[1].Name)
	}
	if !quotes[1].EarningsAt.IsZero() {
		t.Errorf("Expected zero earnings time, got %v", quotes[1].EarningsAt)
	}
}

func TestGetQuotes_EmptySymbols(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))

	quotes, err := client.GetQuotes(context.Background(), nil)
	if err != nil {
		t.Fatalf("GetQuotes failed: %v", err)
	}
	if quotes != nil {
		t.Errorf("Expected nil quotes, got %v", quotes)
	}
	if called {
		t.Error("Expected no HTTP call for empty symbol list")
	}
}

func TestGetMovers_ParsesScreener(t *testing.T) {
	mockResponse := map[string]interface{}{
		"finance": map[string]interface{}{
			"result": []map[string]interface{}{
				{
					"id": "day_gainers",
					"quotes": []map[string]interface{}{
						{"symbol": "RKT", "regularMarketPrice": 18.5, "regularMarketChangePercent": 12.4},
						{"symbol": "PLTR", "regularMarketPrice": 44.1, "regularMarketChangePercent": 8.2},
					},
				},
			},
		},
	}

	var capturedScrIds, capturedCount string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedScrIds = r.URL.Query().Get("scrIds")
		capturedCount = r.URL.Query().Get("count")
		json.NewEncoder(w).Encode(mockResponse)
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))

	quotes, err := client.GetMovers(context.Background(), "day_gainers", 25)
	if err != nil {
		t.Fatalf("GetMovers failed: %v", err)
	}

	if capturedScrIds != "day_gainers" {
		t.Errorf("Expected scrIds day_gainers, got %s", capturedScrIds)
	}
	if capturedCount != "25" {
		t.Errorf("Expected count 25, got %s", capturedCount)
	}
	if len(quotes) != 2 {
		t.Fatalf("Expected 2 quotes, got %d", len(quotes))
	}
	if quotes[0].Symbol != "RKT" || quotes[0].ChangePercent != 12.4 {
		t.Errorf("Unexpected first mover: %+v", quotes[0])
	}
}

func TestGetMovers_LimitClamping(t *testing.T) {
	var counts []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		counts = append(counts, r.URL.Query().Get("count"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"finance": map[string]interface{}{"result": []map[string]interface{}{}},
		})
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))

	if _, err := client.GetMovers(context.Background(), "day_gainers", 0); err != nil {
		t.Fatalf("GetMovers failed: %v", err)
	}
	if _, err := client.GetMovers(context.Background(), "day_gainers", 500); err != nil {
		t.Fatalf("GetMovers failed: %v", err)
	}

	if len(counts) != 2 || counts[0] != "25" || counts[1] != "100" {
		t.Errorf("Expected counts [25 100], got %v", counts)
	}
}

func TestGetNews_ParsesSearch(t *testing.T) {
	published := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)

	mockResponse := map[string]interface{}{
		"news": []map[string]interface{}{
			{
				"title":               "Apple unveils new product line",
				"publisher":           "Reuters",
				"link":                "https://example.com/apple",
				"providerPublishTime": published.Unix(),
			},
		},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("quotesCount") != "0" {
			t.Errorf("Expected quotesCount=0, got %s", r.URL.Query().Get("quotesCount"))
		}
		json.NewEncoder(w).Encode(mockResponse)
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))

	news, err := client.GetNews(context.Background(), "AAPL", 5)
	if err != nil {
		t.Fatalf("GetNews failed: %v", err)
	}

	if len(news) != 1 {
		t.Fatalf("Expected 1 headline, got %d", len(news))
	}
	if news[0].Title != "Apple unveils new product line" || news[0].Publisher != "Reuters" {
		t.Errorf("Unexpected headline: %+v", news[0])
	}
	if !news[0].PublishedAt.Equal(published) {
		t.Errorf("Expected publish time %v, got %v", published, news[0].PublishedAt)
	}
}

func TestGetFundamentals_UnwrapsRawValues(t *testing.T) {
	mockResponse := map[string]interface{}{
		"quoteSummary": map[string]interface{}{
			"result": []map[string]interface{}{
				{
					"summaryDetail": map[string]interface{}{
						"marketCap":  map[string]interface{}{"raw": 3.5e12, "fmt": "3.5T"},
						"trailingPE": map[string]interface{}{"raw": 35.2, "fmt": "35.20"},
						"forwardPE":  map[string]interface{}{"raw": 30.1, "fmt": "30.10"},
						"beta":       map[string]interface{}{}, // absent
					},
					"defaultKeyStatistics": map[string]interface{}{
						"trailingEps":         map[string]interface{}{"raw": 6.59, "fmt": "6.59"},
						"beta":                map[string]interface{}{"raw": 1.25, "fmt": "1.25"},
						"shortPercentOfFloat": map[string]interface{}{"raw": 0.0089, "fmt": "0.89%"},
					},
					"financialData": map[string]interface{}{
						"profitMargins":   map[string]interface{}{"raw": 0.26, "fmt": "26%"},
						"revenueGrowth":   map[string]interface{}{"raw": 0.08, "fmt": "8%"},
						"debtToEquity":    map[string]interface{}{"raw": 154.0, "fmt": "154.0"},
						"targetMeanPrice": map[string]interface{}{"raw": 250.0, "fmt": "250.00"},
					},
				},
			},
		},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(mockResponse)
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))

	f, err := client.GetFundamentals(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("GetFundamentals failed: %v", err)
	}
	if f == nil {
		t.Fatal("Expected fundamentals, got nil")
	}

	if f.MarketCap != 3.5e12 {
		t.Errorf("Expected market cap 3.5e12, got %.0f", f.MarketCap)
	}
	if f.TrailingPE != 35.2 {
		t.Errorf("Expected trailing PE 35.2, got %.2f", f.TrailingPE)
	}
	if f.EPS != 6.59 {
		t.Errorf("Expected EPS 6.59, got %.2f", f.EPS)
	}
	// summaryDetail.beta was the empty wrapper; key stats value wins.
	if f.Beta != 1.25 {
		t.Errorf("Expected beta fallback 1.25, got %.2f", f.Beta)
	}
	if f.ShortPctFloat != 0.0089 {
		t.Errorf("Expected short pct 0.0089, got %.4f", f.ShortPctFloat)
	}
}

func TestGetFundamentals_EmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"quoteSummary": map[string]interface{}{"result": []map[string]interface{}{}},
		})
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))

	f, err := client.GetFundamentals(context.Background(), "NOPE")
	if err != nil {
		t.Fatalf("GetFundamentals failed: %v", err)
	}
	if f != nil {
		t.Errorf("Expected nil fundamentals for empty result, got %+v", f)
	}
}

func TestGet_SetsUserAgent(t *testing.T) {
	var capturedUA string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedUA = r.Header.Get("User-Agent")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"quoteResponse": map[string]interface{}{"result": []map[string]interface{}{}},
		})
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL), WithUserAgent("sift-test/1.0"))

	if _, err := client.GetQuotes(context.Background(), []string{"SPY"}); err != nil {
		t.Fatalf("GetQuotes failed: %v", err)
	}
	if capturedUA != "sift-test/1.0" {
		t.Errorf("Expected custom user agent, got '%s'", capturedUA)
	}
}

func TestGet_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("rate limit exceeded"))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))

	_, err := client.GetQuotes(context.Background(), []string{"SPY"})
	if err == nil {
		t.Fatal("Expected error on 429 response")
	}

	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("Expected *APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("Expected status 429, got %d", apiErr.StatusCode)
	}
}

func TestFlexFloat64_Variants(t *testing.T) {
	var payload struct {
		A flexFloat64 `json:"a"`
		B flexFloat64 `json:"b"`
		C flexFloat64 `json:"c"`
		D flexFloat64 `json:"d"`
		E flexFloat64 `json:"e"`
	}

	raw := `{"a": 1.5, "b": "2.5", "c": {"raw": 3.5, "fmt": "3.50"}, "d": {}, "e": "N/A"}`
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if payload.A != 1.5 || payload.B != 2.5 || payload.C != 3.5 {
		t.Errorf("Unexpected values: %v %v %v", payload.A, payload.B, payload.C)
	}
	if payload.D != 0 || payload.E != 0 {
		t.Errorf("Expected zero for empty wrapper and N/A, got %v %v", payload.D, payload.E)
	}
}
