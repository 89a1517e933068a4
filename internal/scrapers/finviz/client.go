package finviz

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"marketdigest/internal/components/telemetry"
	"marketdigest/internal/scrapers/scraperutil"
	"marketdigest/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

const DefaultBaseUrl = "https://finviz.com"

// DefaultTableIndex is the position of the movers table among the tables of the page.
const DefaultTableIndex = 2

const (
	report_client_premarket_movers = "client.premarket-movers"
)

type Options struct {
	BaseUrl string
	Timeout time.Duration
	// TableIndex selects the movers table, nil means DefaultTableIndex.
	TableIndex *int
}

type Client struct {
	http       *resty.Client
	tableIndex int
	tel        telemetry.API
}

func NewClient(opts Options, tel telemetry.API) (Client, error) {
	tel = telemetry.NewScopedAPI("finviz_scraper", tel)

	baseUrl := opts.BaseUrl
	if baseUrl == "" {
		baseUrl = DefaultBaseUrl
	}
	httpClient, err := scraperutil.NewClient(scraperutil.ClientOptions{
		Name:    "finviz",
		BaseUrl: baseUrl,
		Timeout: opts.Timeout,
		Browser: true,
	}, tel)
	if err != nil {
		return Client{}, err
	}

	tableIndex := DefaultTableIndex
	if opts.TableIndex != nil {
		tableIndex = *opts.TableIndex
	}
	if tableIndex < 0 {
		return Client{}, fmt.Errorf("finviz: negative table index %d", tableIndex)
	}
	return Client{http: httpClient, tableIndex: tableIndex, tel: tel}, nil
}

// PremarketMovers returns the premarket movers table as rendered on the page.
func (c Client) PremarketMovers(ctx context.Context) (htmlutil.Table, error) {
	res, err := c.http.R().
		SetContext(ctx).
		Get("/premarket.ashx")
	err = scraperutil.CheckResponse(res, err)
	if err != nil {
		c.tel.ReportBroken(report_client_premarket_movers, fmt.Errorf("fetch: %w", err))
		return htmlutil.Table{}, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		c.tel.ReportBroken(report_client_premarket_movers, fmt.Errorf("parse html: %w", err))
		return htmlutil.Table{}, err
	}

	tables := htmlutil.ExtractTables(doc.Selection)
	if len(tables) <= c.tableIndex {
		err = fmt.Errorf("page has %d tables, expected at least %d", len(tables), c.tableIndex+1)
		c.tel.ReportBroken(report_client_premarket_movers, err)
		return htmlutil.Table{}, err
	}

	table := tables[c.tableIndex]
	if len(table.Header) == 0 {
		err = fmt.Errorf("table %d has no header", c.tableIndex)
		c.tel.ReportBroken(report_client_premarket_movers, err)
		return htmlutil.Table{}, err
	}
	return table, nil
}
