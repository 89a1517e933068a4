package eastmoney

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"marketdigest/internal/components/chrono"
	"marketdigest/internal/components/telemetry"
	"marketdigest/internal/scrapers/scraperutil"

	"github.com/go-resty/resty/v2"
)

// DefaultMirrors are the redundant hosts of the quote API, tried in order.
var DefaultMirrors = []string{
	"https://push2.eastmoney.com",
	"https://push2delay.eastmoney.com",
	"http://push2.eastmoney.com",
	"http://push2delay.eastmoney.com",
}

const (
	report_client_fund_flow = "client.fund-flow"
)

type Options struct {
	Mirrors []string
	Timeout time.Duration
}

type Client struct {
	http    *resty.Client
	mirrors []string
	time    chrono.API
	tel     telemetry.API
}

func NewClient(opts Options, time chrono.API, tel telemetry.API) (Client, error) {
	tel = telemetry.NewScopedAPI("eastmoney_scraper", tel)

	httpClient, err := scraperutil.NewClient(scraperutil.ClientOptions{
		Name:    "eastmoney",
		Timeout: opts.Timeout,
	}, tel)
	if err != nil {
		return Client{}, err
	}

	mirrors := opts.Mirrors
	if len(mirrors) == 0 {
		mirrors = DefaultMirrors
	}
	return Client{http: httpClient, mirrors: mirrors, time: time, tel: tel}, nil
}

// FundFlow is one row of the main-capital net inflow ranking, values are kept as the
// upstream renders them ("-" when unavailable).
type FundFlow struct {
	Code          string
	Name          string
	Price         string
	Change        string
	MainNet       string
	SuperLargeNet string
	LargeNet      string
	MediumNet     string
	SmallNet      string
}

var fundFlowQuery = map[string]string{
	"pn":     "1",
	"pz":     "100",
	"po":     "1",
	"np":     "1",
	"ut":     "b2884a393a59ad64002292a3e90d46a5",
	"fltt":   "2",
	"invt":   "2",
	"fid":    "f62",
	"fs":     "m:0+t:6,m:0+t:13,m:0+t:80,m:1+t:2,m:1+t:23",
	"fields": "f12,f14,f2,f3,f62,f184,f66,f69,f72,f75,f78,f81,f84,f87",
}

var ErrEmptyRanking = errors.New("empty fund flow ranking")

// FundFlow fetches the ranking from the first mirror that returns a non-empty, well-formed payload.
func (c Client) FundFlow(ctx context.Context) ([]FundFlow, error) {
	rows, mirror, err := scraperutil.FirstValid(ctx, c.mirrors, c.fetchFundFlow, func(rows []FundFlow) error {
		if len(rows) == 0 {
			return ErrEmptyRanking
		}
		return nil
	})
	if err != nil {
		c.tel.ReportBroken(report_client_fund_flow, err)
		return nil, err
	}
	c.tel.ReportDebug("fund flow mirror", mirror, len(rows))
	return rows, nil
}

type clistResponse struct {
	Data *struct {
		Diff json.RawMessage `json:"diff"`
	} `json:"data"`
}

func (c Client) fetchFundFlow(ctx context.Context, mirror string) ([]FundFlow, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(fundFlowQuery).
		SetQueryParam("_", scraperutil.CacheBuster(c.time.Now())).
		Get(strings.TrimRight(mirror, "/") + "/api/qt/clist/get")
	err = scraperutil.CheckResponse(res, err)
	if err != nil {
		return nil, err
	}
	return parseFundFlow(res.Body())
}

func parseFundFlow(body []byte) ([]FundFlow, error) {
	var parsed clistResponse
	err := json.Unmarshal(body, &parsed)
	if err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	if parsed.Data == nil || len(parsed.Data.Diff) == 0 {
		return nil, nil
	}

	items, err := decodeDiff(parsed.Data.Diff)
	if err != nil {
		return nil, err
	}

	rows := make([]FundFlow, 0, len(items))
	for i, item := range items {
		code := scraperutil.RawString(item, "f12")
		name := scraperutil.RawString(item, "f14")
		if code == "" || name == "" {
			return nil, fmt.Errorf("diff[%d]: missing code or name", i)
		}
		rows = append(rows, FundFlow{
			Code:          code,
			Name:          name,
			Price:         scraperutil.RawString(item, "f2"),
			Change:        scraperutil.RawString(item, "f3"),
			MainNet:       scraperutil.RawString(item, "f62"),
			SuperLargeNet: scraperutil.RawString(item, "f66"),
			LargeNet:      scraperutil.RawString(item, "f69"),
			MediumNet:     scraperutil.RawString(item, "f75"),
			SmallNet:      scraperutil.RawString(item, "f78"),
		})
	}
	return rows, nil
}

// decodeDiff accepts both the array form (np=1) and the index-keyed object form of `diff`.
func decodeDiff(raw json.RawMessage) ([]map[string]json.RawMessage, error) {
	var list []map[string]json.RawMessage
	err := json.Unmarshal(raw, &list)
	if err == nil {
		return list, nil
	}

	var keyed map[string]map[string]json.RawMessage
	err = json.Unmarshal(raw, &keyed)
	if err != nil {
		return nil, fmt.Errorf("unexpected diff shape: %w", err)
	}
	keys := make([]string, 0, len(keyed))
	for k := range keyed {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		if errA != nil || errB != nil {
			return keys[i] < keys[j]
		}
		return a < b
	})
	for _, k := range keys {
		list = append(list, keyed[k])
	}
	return list, nil
}
