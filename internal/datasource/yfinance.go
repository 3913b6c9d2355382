package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/seenimoa/financeflow/pkg/models"
	"github.com/seenimoa/financeflow/pkg/utils"
)

// DefaultYahooBaseURL is the public Yahoo Finance query host.
const DefaultYahooBaseURL = "https://query1.finance.yahoo.com"

// DefaultConcurrency is the number of quote requests kept in flight.
const DefaultConcurrency = 5

// DefaultRate is the request budget against Yahoo, in requests per second.
const DefaultRate = 5

// YFinanceOptions configures a YFinance source. Zero values take defaults.
type YFinanceOptions struct {
	BaseURL     string
	Timeout     time.Duration
	Concurrency int
	Client      *http.Client
	Limiter     *rate.Limiter
	Logger      *slog.Logger
}

// YFinance fetches quotes from the Yahoo Finance chart API.
type YFinance struct {
	baseURL     string
	client      *http.Client
	limiter     *rate.Limiter
	concurrency int
	log         *slog.Logger
}

// NewYFinance creates a Yahoo Finance data source.
func NewYFinance(opts YFinanceOptions) *YFinance {
	y := &YFinance{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		client:      opts.Client,
		limiter:     opts.Limiter,
		concurrency: opts.Concurrency,
		log:         opts.Logger,
	}
	if y.baseURL == "" {
		y.baseURL = DefaultYahooBaseURL
	}
	if y.client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		y.client = &http.Client{Timeout: timeout}
	}
	if y.limiter == nil {
		y.limiter = rate.NewLimiter(DefaultRate, DefaultRate)
	}
	if y.concurrency <= 0 {
		y.concurrency = DefaultConcurrency
	}
	if y.log == nil {
		y.log = slog.Default()
	}
	return y
}

// Name returns the data source name.
func (y *YFinance) Name() string { return "Yahoo Finance" }

// --- Yahoo Finance v8 chart types ---

type yfChartResponse struct {
	Chart struct {
		Result []yfChartResult `json:"result"`
		Error  *yfError        `json:"error"`
	} `json:"chart"`
}

type yfChartResult struct {
	Meta yfChartMeta `json:"meta"`
}

type yfChartMeta struct {
	Symbol             string   `json:"symbol"`
	Currency           string   `json:"currency"`
	RegularMarketPrice *float64 `json:"regularMarketPrice"`
	PreviousClose      *float64 `json:"previousClose"`
	ChartPreviousClose *float64 `json:"chartPreviousClose"`
}

type yfError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// --- Public methods ---

// GetQuote returns the current quote for symbol. The symbol is requested as
// written; no exchange suffix is added.
func (y *YFinance) GetQuote(ctx context.Context, symbol string) (models.StockData, error) {
	if err := y.limiter.Wait(ctx); err != nil {
		return models.StockData{}, fmt.Errorf("yfinance %s: rate limit wait: %w", symbol, err)
	}

	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=1d", y.baseURL, url.PathEscape(symbol))
	body, err := doGet(ctx, y.client, u, map[string]string{
		"Accept": "application/json",
	})
	if err != nil {
		return models.StockData{}, fmt.Errorf("yfinance chart %s: %w", symbol, err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return models.StockData{}, fmt.Errorf("read response: %w", err)
	}

	var resp yfChartResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return models.StockData{}, fmt.Errorf("parse yfinance chart: %w", err)
	}
	if resp.Chart.Error != nil {
		return models.StockData{}, fmt.Errorf("%w: %s: %s", ErrTickerNotFound, symbol, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return models.StockData{}, fmt.Errorf("%w: %s", ErrTickerNotFound, symbol)
	}

	meta := resp.Chart.Result[0].Meta
	prev := meta.PreviousClose
	if prev == nil || *prev == 0 {
		prev = meta.ChartPreviousClose
	}
	if meta.RegularMarketPrice == nil || *meta.RegularMarketPrice == 0 || prev == nil || *prev == 0 {
		return models.StockData{}, fmt.Errorf("%w: %s", ErrIncompleteQuote, symbol)
	}

	return stockData(symbol, *meta.RegularMarketPrice, *prev), nil
}

// GetQuotes fetches quotes for symbols concurrently. Symbols that fail or
// lack price data are logged and left out; the result holds whatever was
// gathered and is never nil.
func (y *YFinance) GetQuotes(ctx context.Context, symbols []string) map[string]models.StockData {
	out := make(map[string]models.StockData, len(symbols))
	if len(symbols) == 0 {
		return out
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(y.concurrency)

	for _, sym := range symbols {
		g.Go(func() error {
			q, err := y.GetQuote(gctx, sym)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				y.log.Warn("quote unavailable", "symbol", sym, "error", err)
				return nil
			}
			mu.Lock()
			out[sym] = q
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		y.log.Error("quote batch failed", "symbols", len(symbols), "fetched", len(out), "error", err)
	}
	return out
}

// stockData derives the rounded quote fields from the unrounded price and
// previous close.
func stockData(symbol string, price, prev float64) models.StockData {
	return models.StockData{
		Symbol:        symbol,
		Price:         utils.Round2(price),
		Change:        utils.Round2(price - prev),
		PercentChange: utils.Round2((price - prev) / prev * 100),
	}
}
