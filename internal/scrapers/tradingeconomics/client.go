package tradingeconomics

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"marketdigest/internal/components/telemetry"
	"marketdigest/internal/scrapers/scraperutil"
	"marketdigest/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

const DefaultBaseUrl = "https://tradingeconomics.com"

const (
	report_client_interest_rate = "client.interest-rate"
)

type Options struct {
	BaseUrl string
	Timeout time.Duration
}

type Client struct {
	http *resty.Client
	tel  telemetry.API
}

func NewClient(opts Options, tel telemetry.API) (Client, error) {
	tel = telemetry.NewScopedAPI("tradingeconomics_scraper", tel)

	baseUrl := opts.BaseUrl
	if baseUrl == "" {
		baseUrl = DefaultBaseUrl
	}
	httpClient, err := scraperutil.NewClient(scraperutil.ClientOptions{
		Name:    "tradingeconomics",
		BaseUrl: baseUrl,
		Timeout: opts.Timeout,
		Browser: true,
	}, tel)
	if err != nil {
		return Client{}, err
	}
	return Client{http: httpClient, tel: tel}, nil
}

var ErrRateNotFound = errors.New("interest rate not found on page")

// USInterestRate scrapes the latest value of the US benchmark interest rate, as displayed
// (ex. "5.50").
func (c Client) USInterestRate(ctx context.Context) (string, error) {
	res, err := c.http.R().
		SetContext(ctx).
		Get("/united-states/interest-rate")
	err = scraperutil.CheckResponse(res, err)
	if err != nil {
		c.tel.ReportBroken(report_client_interest_rate, fmt.Errorf("fetch: %w", err))
		return "", err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		c.tel.ReportBroken(report_client_interest_rate, fmt.Errorf("parse html: %w", err))
		return "", err
	}

	span := doc.Find("span.datatable-item.datatable-item-last").First()
	rate := htmlutil.CleanText(span.Text())
	if rate == "" {
		c.tel.ReportWarning(report_client_interest_rate, ErrRateNotFound)
		return "", ErrRateNotFound
	}
	return rate, nil
}
