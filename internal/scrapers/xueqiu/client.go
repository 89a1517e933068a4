package xueqiu

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"marketdigest/internal/components/chrono"
	"marketdigest/internal/components/telemetry"
	"marketdigest/internal/scrapers/scraperutil"
	"marketdigest/lib/htmlutil"

	"github.com/go-resty/resty/v2"
)

const DefaultBaseUrl = "https://xueqiu.com"

const (
	report_client_prime_session = "client.prime-session"
	report_client_hot_statuses  = "client.hot-statuses"
)

// HotWords is the fixed vocabulary counted in the hot statuses.
var HotWords = []string{
	"中船防务", "航发", "军工", "机器人", "宁德", "卫星", "券商",
	"新能源", "芯片", "锂电池", "半导体", "AI", "创新药",
	"光伏", "通信", "ChatGPT", "智能驾驶", "汽车",
}

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
	tel = telemetry.NewScopedAPI("xueqiu_scraper", tel)

	baseUrl := opts.BaseUrl
	if baseUrl == "" {
		baseUrl = DefaultBaseUrl
	}
	httpClient, err := scraperutil.NewClient(scraperutil.ClientOptions{
		Name:    "xueqiu",
		BaseUrl: baseUrl,
		Timeout: opts.Timeout,
		Browser: true,
		Cookies: true,
	}, tel)
	if err != nil {
		return Client{}, err
	}
	return Client{http: httpClient, time: time, tel: tel}, nil
}

type status struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

type hotListResponse struct {
	Items []struct {
		status
		OriginalStatus *status `json:"original_status"`
	} `json:"items"`
}

// HotStatuses returns the visible text (title and body) of the current hot statuses.
// The API refuses requests without the cookies set by the landing page, so it is
// requested first within the same cookie jar.
func (c Client) HotStatuses(ctx context.Context) ([]string, error) {
	res, err := c.http.R().
		SetContext(ctx).
		Get("/")
	if err != nil {
		c.tel.ReportBroken(report_client_prime_session, err)
		return nil, err
	}
	if res.IsError() {
		c.tel.ReportWarning(report_client_prime_session, res.Status())
	}

	res, err = c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"since_id": "-1",
			"max_id":   "-1",
			"size":     "50",
			"_":        scraperutil.CacheBuster(c.time.Now()),
		}).
		Get("/statuses/hot/listV2.json")
	err = scraperutil.CheckResponse(res, err)
	if err != nil {
		c.tel.ReportBroken(report_client_hot_statuses, fmt.Errorf("fetch: %w", err))
		return nil, err
	}

	var parsed hotListResponse
	err = json.Unmarshal(res.Body(), &parsed)
	if err != nil {
		c.tel.ReportBroken(report_client_hot_statuses, fmt.Errorf("json unmarshal: %w", err))
		return nil, err
	}

	texts := make([]string, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		s := item.status
		if s.Title == "" && s.Text == "" && item.OriginalStatus != nil {
			s = *item.OriginalStatus
		}
		texts = append(texts, htmlutil.StripTags(s.Title+" "+s.Text))
	}
	return texts, nil
}

type WordCount struct {
	Word  string
	Count int
}

// CountWords counts, for every word, the number of texts that mention it. The result is
// ordered by count descending, ties keep the order in which words were first seen.
func CountWords(texts []string, words []string) []WordCount {
	counts := map[string]int{}
	var seen []string
	for _, text := range texts {
		for _, word := range words {
			if !strings.Contains(text, word) {
				continue
			}
			if counts[word] == 0 {
				seen = append(seen, word)
			}
			counts[word]++
		}
	}

	out := make([]WordCount, len(seen))
	for i, word := range seen {
		out[i] = WordCount{Word: word, Count: counts[word]}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}
