package tonghuashun

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"marketdigest/internal/components/chrono"
	"marketdigest/internal/components/telemetry"
	"marketdigest/internal/scrapers/scraperutil"

	"github.com/go-resty/resty/v2"
)

const DefaultBaseUrl = "https://data.10jqka.com.cn"

const (
	report_client_limit_up_pool = "client.limit-up-pool"
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
	tel = telemetry.NewScopedAPI("tonghuashun_scraper", tel)

	baseUrl := opts.BaseUrl
	if baseUrl == "" {
		baseUrl = DefaultBaseUrl
	}
	httpClient, err := scraperutil.NewClient(scraperutil.ClientOptions{
		Name:    "tonghuashun",
		BaseUrl: baseUrl,
		Timeout: opts.Timeout,
	}, tel)
	if err != nil {
		return Client{}, err
	}
	return Client{http: httpClient, time: time, tel: tel}, nil
}

// LimitUp is a stock that hit its daily limit-up price.
type LimitUp struct {
	Code         string
	Name         string
	Latest       string
	ChangeRate   string
	FirstLimitUp string
	LastLimitUp  string
	HighDays     string
	Reason       string
	TurnoverRate string
	OrderAmount  string
}

type poolResponse struct {
	Data *struct {
		Info []map[string]json.RawMessage `json:"info"`
	} `json:"data"`
}

// LimitUpPool fetches the first page (50 entries) of today's limit-up pool.
func (c Client) LimitUpPool(ctx context.Context) ([]LimitUp, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"page":  "1",
			"limit": "50",
			"_":     scraperutil.CacheBuster(c.time.Now()),
		}).
		Get("/dataapi/limit_up/limit_up_pool")
	err = scraperutil.CheckResponse(res, err)
	if err != nil {
		c.tel.ReportBroken(report_client_limit_up_pool, fmt.Errorf("fetch: %w", err))
		return nil, err
	}

	rows, err := c.parsePool(res.Body())
	if err != nil {
		c.tel.ReportBroken(report_client_limit_up_pool, err)
		return nil, err
	}
	return rows, nil
}

func (c Client) parsePool(body []byte) ([]LimitUp, error) {
	var parsed poolResponse
	err := json.Unmarshal(body, &parsed)
	if err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	if parsed.Data == nil {
		return nil, fmt.Errorf("response has no data.info")
	}

	rows := make([]LimitUp, 0, len(parsed.Data.Info))
	for i, item := range parsed.Data.Info {
		code := scraperutil.RawString(item, "code")
		name := scraperutil.RawString(item, "name")
		if code == "" || name == "" {
			return nil, fmt.Errorf("info[%d]: missing code or name", i)
		}
		rows = append(rows, LimitUp{
			Code:         code,
			Name:         name,
			Latest:       scraperutil.RawString(item, "latest"),
			ChangeRate:   scraperutil.RawString(item, "change_rate"),
			FirstLimitUp: c.clockTime(scraperutil.RawString(item, "first_limit_up_time")),
			LastLimitUp:  c.clockTime(scraperutil.RawString(item, "last_limit_up_time")),
			HighDays:     scraperutil.RawString(item, "high_days"),
			Reason:       scraperutil.RawString(item, "reason_type"),
			TurnoverRate: scraperutil.RawString(item, "turnover_rate"),
			OrderAmount:  scraperutil.RawString(item, "order_amount"),
		})
	}
	return rows, nil
}

// clockTime renders a unix timestamp as a local time of day, anything else is passed through.
func (c Client) clockTime(raw string) string {
	seconds, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || seconds <= 0 {
		return raw
	}
	return time.Unix(seconds, 0).In(c.time.Location()).Format(time.TimeOnly)
}
