package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"marketdigest/internal/components/chrono"
	"marketdigest/internal/components/telemetry"
	"marketdigest/internal/scrapers/scraperutil"

	"github.com/go-resty/resty/v2"
)

const DefaultBaseUrl = "https://query1.finance.yahoo.com"

const (
	report_client_quote = "client.quote"
)

type Options struct {
	BaseUrl string
	Timeout time.Duration
}

type Client struct {
	http *resty.Client
	time chrono.API
	tel  telemetry.API
}

func NewClient(opts Options, time chrono.API, tel telemetry.API) (Client, error) {
	tel = telemetry.NewScopedAPI("yahoo_scraper", tel)

	baseUrl := opts.BaseUrl
	if baseUrl == "" {
		baseUrl = DefaultBaseUrl
	}
	httpClient, err := scraperutil.NewClient(scraperutil.ClientOptions{
		Name:    "yahoo",
		BaseUrl: baseUrl,
		Timeout: opts.Timeout,
	}, tel)
	if err != nil {
		return Client{}, err
	}

	return Client{http: httpClient, time: time, tel: tel}, nil
}

// Quote is the daily close of a symbol and, when available, the close before it.
type Quote struct {
	Symbol      string
	Latest      float64
	Previous    float64
	HasPrevious bool
	Date        time.Time
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Symbol               string `json:"symbol"`
		ExchangeTimezoneName string `json:"exchangeTimezoneName"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close []*float64 `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
}

var ErrNoCloses = errors.New("no closing prices")

// Quote fetches the most recent daily closes of `symbol`.
func (c Client) Quote(ctx context.Context, symbol string) (Quote, error) {
	c.tel.ReportDebug("quote", symbol)

	res, err := c.http.R().
		SetContext(ctx).
		SetPathParam("symbol", symbol).
		SetQueryParams(map[string]string{
			"range":    "5d",
			"interval": "1d",
		}).
		Get("/v8/finance/chart/{symbol}")
	err = scraperutil.CheckResponse(res, err)
	if err != nil {
		c.tel.ReportBroken(report_client_quote, fmt.Errorf("fetch: %w", err), symbol)
		return Quote{}, err
	}

	var parsed chartResponse
	err = json.Unmarshal(res.Body(), &parsed)
	if err != nil {
		c.tel.ReportBroken(report_client_quote, fmt.Errorf("json unmarshal: %w", err), symbol)
		return Quote{}, err
	}

	quote, err := c.parseChart(symbol, parsed)
	if err != nil {
		c.tel.ReportWarning(report_client_quote, err, symbol)
		return Quote{}, err
	}
	return quote, nil
}

func (c Client) parseChart(symbol string, parsed chartResponse) (Quote, error) {
	if parsed.Chart.Error != nil {
		return Quote{}, fmt.Errorf("%s: %s", parsed.Chart.Error.Code, parsed.Chart.Error.Description)
	}
	if len(parsed.Chart.Result) == 0 {
		return Quote{}, fmt.Errorf("%s: empty chart result", symbol)
	}
	result := parsed.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return Quote{}, fmt.Errorf("%s: %w", symbol, ErrNoCloses)
	}

	closes := result.Indicators.Quote[0].Close
	loc := c.time.Location()
	if result.Meta.ExchangeTimezoneName != "" {
		exchangeLoc, err := time.LoadLocation(result.Meta.ExchangeTimezoneName)
		if err == nil {
			loc = exchangeLoc
		}
	}

	type point struct {
		close float64
		at    time.Time
	}
	var points []point
	for i, close := range closes {
		if close == nil || i >= len(result.Timestamp) {
			continue
		}
		points = append(points, point{
			close: *close,
			at:    time.Unix(result.Timestamp[i], 0).In(loc),
		})
	}
	if len(points) == 0 {
		return Quote{}, fmt.Errorf("%s: %w", symbol, ErrNoCloses)
	}

	last := points[len(points)-1]
	quote := Quote{
		Symbol: symbol,
		Latest: last.close,
		Date:   last.at,
	}
	if len(points) > 1 {
		quote.Previous = points[len(points)-2].close
		quote.HasPrevious = true
	}
	return quote, nil
}
