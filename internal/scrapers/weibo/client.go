package weibo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"marketdigest/internal/components/telemetry"
	"marketdigest/internal/scrapers/scraperutil"

	"github.com/go-resty/resty/v2"
)

const DefaultBaseUrl = "https://weibo.com"

const (
	report_client_hot_band = "client.hot-band"
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
	tel = telemetry.NewScopedAPI("weibo_scraper", tel)

	baseUrl := opts.BaseUrl
	if baseUrl == "" {
		baseUrl = DefaultBaseUrl
	}
	httpClient, err := scraperutil.NewClient(scraperutil.ClientOptions{
		Name:    "weibo",
		BaseUrl: baseUrl,
		Timeout: opts.Timeout,
	}, tel)
	if err != nil {
		return Client{}, err
	}
	httpClient.SetHeader("referer", "https://s.weibo.com/top/summary")

	return Client{http: httpClient, tel: tel}, nil
}

type hotBandResponse struct {
	Data *struct {
		BandList []struct {
			Word string `json:"word"`
		} `json:"band_list"`
	} `json:"data"`
}

// HotSearch returns the words of the hot search list in ranking order.
func (c Client) HotSearch(ctx context.Context) ([]string, error) {
	res, err := c.http.R().
		SetContext(ctx).
		Get("/ajax/statuses/hot_band")
	err = scraperutil.CheckResponse(res, err)
	if err != nil {
		c.tel.ReportBroken(report_client_hot_band, fmt.Errorf("fetch: %w", err))
		return nil, err
	}

	var parsed hotBandResponse
	err = json.Unmarshal(res.Body(), &parsed)
	if err != nil {
		c.tel.ReportBroken(report_client_hot_band, fmt.Errorf("json unmarshal: %w", err))
		return nil, err
	}
	if parsed.Data == nil {
		err = fmt.Errorf("response has no data.band_list")
		c.tel.ReportBroken(report_client_hot_band, err)
		return nil, err
	}

	var words []string
	for _, band := range parsed.Data.BandList {
		word := strings.TrimSpace(band.Word)
		if word == "" {
			continue
		}
		words = append(words, word)
	}
	return words, nil
}
