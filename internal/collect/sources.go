package collect

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"marketdigest/internal/components/chrono"
	"marketdigest/internal/components/telemetry"
	"marketdigest/internal/dataset"
	"marketdigest/internal/scrapers/eastmoney"
	"marketdigest/internal/scrapers/finviz"
	"marketdigest/internal/scrapers/scraperutil"
	"marketdigest/internal/scrapers/tonghuashun"
	"marketdigest/internal/scrapers/tradingeconomics"
	"marketdigest/internal/scrapers/weibo"
	"marketdigest/internal/scrapers/xueqiu"
	"marketdigest/internal/scrapers/yahoo"
	"marketdigest/lib/htmlutil"
)

const (
	FileIndices      = "indices.csv"
	FileHKChina      = "hk_china.csv"
	FileUSMarkets    = "us_markets.csv"
	FileFX           = "fx.csv"
	FileGlobalETF    = "global_etf.csv"
	FileRates        = "rates.csv"
	FilePremarket    = "premarket.csv"
	FileWorldIndices = "world_indices.csv"
	FileLimitUp      = "limit_up.csv"
	FileFundFlow     = "fund_flow.csv"
	FileWeiboHot     = "weibo_hot.csv"
	FileXueqiuHot    = "xueqiu_hot.csv"
)

type Ticker struct {
	Name   string
	Symbol string
}

var (
	AShareIndices = []Ticker{
		{"上证指数", "000001.SS"},
		{"深证成指", "399001.SZ"},
		{"创业板指", "399006.SZ"},
	}
	HKChinaStocks = []Ticker{
		{"腾讯控股", "0700.HK"},
		{"阿里巴巴", "9988.HK"},
		{"比亚迪", "1211.HK"},
		{"KWEB中概ETF", "KWEB"},
	}
	USMarkets = []Ticker{
		{"纳斯达克", "^IXIC"},
		{"标普500", "^GSPC"},
		{"道琼斯", "^DJI"},
		{"特斯拉", "TSLA"},
		{"苹果", "AAPL"},
		{"KWEB", "KWEB"},
	}
	CommoditiesFX = []Ticker{
		{"黄金", "GC=F"},
		{"原油", "CL=F"},
		{"铜", "HG=F"},
		{"布伦特原油", "BZ=F"},
		{"美元指数", "DX-Y.NYB"},
		{"离岸人民币", "CNH=X"},
	}
	GlobalETFs = []Ticker{
		{"A股ETF-ASHR", "ASHR"},
		{"中概ETF-KWEB", "KWEB"},
		{"恒生ETF-EWH", "EWH"},
	}
	WorldIndices = []Ticker{
		{"恒生指数", "^HSI"},
		{"新加坡STI", "^STI"},
		{"日经225", "^N225"},
		{"富时A50", "XCHA.DE"},
		{"德国DAX", "^GDAXI"},
	}
)

type Quoter interface {
	Quote(ctx context.Context, symbol string) (yahoo.Quote, error)
}

type FundFlowSource interface {
	FundFlow(ctx context.Context) ([]eastmoney.FundFlow, error)
}

type LimitUpSource interface {
	LimitUpPool(ctx context.Context) ([]tonghuashun.LimitUp, error)
}

type HotSearchSource interface {
	HotSearch(ctx context.Context) ([]string, error)
}

type HotStatusSource interface {
	HotStatuses(ctx context.Context) ([]string, error)
}

type InterestRateSource interface {
	USInterestRate(ctx context.Context) (string, error)
}

type PremarketSource interface {
	PremarketMovers(ctx context.Context) (htmlutil.Table, error)
}

// Sources are the upstream clients the default adapters read from.
type Sources struct {
	Quotes    Quoter
	FundFlow  FundFlowSource
	LimitUp   LimitUpSource
	HotSearch HotSearchSource
	HotStatus HotStatusSource
	Rates     InterestRateSource
	Premarket PremarketSource
}

// NewSources creates the production clients, every request is bounded by `timeout`.
func NewSources(timeout time.Duration, clock chrono.API, tel telemetry.API) (Sources, error) {
	quotes, err := yahoo.NewClient(yahoo.Options{Timeout: timeout}, clock, tel)
	if err != nil {
		return Sources{}, err
	}
	fundFlow, err := eastmoney.NewClient(eastmoney.Options{Timeout: timeout}, clock, tel)
	if err != nil {
		return Sources{}, err
	}
	limitUp, err := tonghuashun.NewClient(tonghuashun.Options{Timeout: timeout}, clock, tel)
	if err != nil {
		return Sources{}, err
	}
	hotSearch, err := weibo.NewClient(weibo.Options{Timeout: timeout}, tel)
	if err != nil {
		return Sources{}, err
	}
	hotStatus, err := xueqiu.NewClient(xueqiu.Options{Timeout: timeout}, clock, tel)
	if err != nil {
		return Sources{}, err
	}
	rates, err := tradingeconomics.NewClient(tradingeconomics.Options{Timeout: timeout}, tel)
	if err != nil {
		return Sources{}, err
	}
	premarket, err := finviz.NewClient(finviz.Options{Timeout: timeout}, tel)
	if err != nil {
		return Sources{}, err
	}

	return Sources{
		Quotes:    quotes,
		FundFlow:  fundFlow,
		LimitUp:   limitUp,
		HotSearch: hotSearch,
		HotStatus: hotStatus,
		Rates:     rates,
		Premarket: premarket,
	}, nil
}

// DefaultAdapters returns every source in collection order.
func DefaultAdapters(s Sources) []Adapter {
	return []Adapter{
		NewWithBOM("A股主要指数", FileIndices, s.indices),
		New("港股与中概股行情", FileHKChina, s.quoteTable(FileHKChina, HKChinaStocks)),
		New("美股主要指数/科技股/中概ETF", FileUSMarkets, s.quoteTable(FileUSMarkets, USMarkets)),
		New("大宗商品/期货/外汇", FileFX, s.quoteTable(FileFX, CommoditiesFX)),
		New("全球ETF资金流", FileGlobalETF, s.quoteTable(FileGlobalETF, GlobalETFs)),
		New("全球主要利率", FileRates, s.rates),
		New("美股盘前异动榜", FilePremarket, s.premarket),
		New("国际主要指数", FileWorldIndices, s.quoteTable(FileWorldIndices, WorldIndices)),
		New("同花顺涨停雷达", FileLimitUp, s.limitUp),
		New("东方财富主力资金流向", FileFundFlow, s.fundFlow),
		New("微博热搜榜", FileWeiboHot, s.hotSearch),
		New("雪球热词", FileXueqiuHot, s.hotWords),
	}
}

// quotes fetches every ticker, skipping the ones that fail. It only fails when no ticker
// could be fetched.
func (s Sources) quotes(ctx context.Context, tickers []Ticker) ([]Ticker, []yahoo.Quote, error) {
	var found []Ticker
	var quotes []yahoo.Quote
	var errList []error
	for _, ticker := range tickers {
		quote, err := s.Quotes.Quote(ctx, ticker.Symbol)
		if err != nil {
			errList = append(errList, fmt.Errorf("%s (%s): %w", ticker.Name, ticker.Symbol, err))
			continue
		}
		found = append(found, ticker)
		quotes = append(quotes, quote)
	}
	if len(quotes) == 0 {
		return nil, nil, fmt.Errorf("%w: %w", ErrNoData, errors.Join(errList...))
	}
	return found, quotes, nil
}

func (s Sources) indices(ctx context.Context) (dataset.Dataset, error) {
	tickers, quotes, err := s.quotes(ctx, AShareIndices)
	if err != nil {
		return dataset.Dataset{}, err
	}

	ds := dataset.New(FileIndices, "指数", "收盘点位", "涨跌幅", "日期")
	for i, quote := range quotes {
		change := "-"
		if quote.HasPrevious {
			change = scraperutil.FormatChange(quote.Latest, quote.Previous)
		}
		ds.Append(
			tickers[i].Name,
			scraperutil.FormatPrice(quote.Latest),
			change,
			quote.Date.Format(time.DateOnly),
		)
	}
	return ds, nil
}

func (s Sources) quoteTable(name string, tickers []Ticker) FetchFunc {
	return func(ctx context.Context) (dataset.Dataset, error) {
		found, quotes, err := s.quotes(ctx, tickers)
		if err != nil {
			return dataset.Dataset{}, err
		}

		ds := dataset.New(name, "名称", "代码", "收盘", "涨跌幅")
		for i, quote := range quotes {
			prev := quote.Latest
			if quote.HasPrevious {
				prev = quote.Previous
			}
			ds.Append(
				found[i].Name,
				found[i].Symbol,
				scraperutil.FormatPrice(quote.Latest),
				scraperutil.FormatChange(quote.Latest, prev),
			)
		}
		return ds, nil
	}
}

func (s Sources) rates(ctx context.Context) (dataset.Dataset, error) {
	rate, err := s.Rates.USInterestRate(ctx)
	if err != nil {
		return dataset.Dataset{}, err
	}
	ds := dataset.New(FileRates, "美国基准利率")
	ds.Append(rate)
	return ds, nil
}

func (s Sources) premarket(ctx context.Context) (dataset.Dataset, error) {
	table, err := s.Premarket.PremarketMovers(ctx)
	if err != nil {
		return dataset.Dataset{}, err
	}
	ds := dataset.New(FilePremarket, table.Header...)
	for _, row := range table.Rows {
		ds.Append(row...)
	}
	return ds, nil
}

func (s Sources) limitUp(ctx context.Context) (dataset.Dataset, error) {
	rows, err := s.LimitUp.LimitUpPool(ctx)
	if err != nil {
		return dataset.Dataset{}, err
	}
	ds := dataset.New(
		FileLimitUp,
		"代码", "名称", "最新价", "涨跌幅", "首次涨停", "最后涨停",
		"连板天数", "涨停原因", "换手率", "封单额",
	)
	for _, r := range rows {
		ds.Append(
			r.Code, r.Name, r.Latest, r.ChangeRate, r.FirstLimitUp, r.LastLimitUp,
			r.HighDays, r.Reason, r.TurnoverRate, r.OrderAmount,
		)
	}
	return ds, nil
}

func (s Sources) fundFlow(ctx context.Context) (dataset.Dataset, error) {
	rows, err := s.FundFlow.FundFlow(ctx)
	if err != nil {
		return dataset.Dataset{}, err
	}
	ds := dataset.New(
		FileFundFlow,
		"代码", "名称", "最新价", "涨跌幅", "主力净流入",
		"超大单净流入", "大单净流入", "中单净流入", "小单净流入",
	)
	for _, r := range rows {
		ds.Append(
			r.Code, r.Name, r.Price, r.Change, r.MainNet,
			r.SuperLargeNet, r.LargeNet, r.MediumNet, r.SmallNet,
		)
	}
	return ds, nil
}

func (s Sources) hotSearch(ctx context.Context) (dataset.Dataset, error) {
	words, err := s.HotSearch.HotSearch(ctx)
	if err != nil {
		return dataset.Dataset{}, err
	}
	ds := dataset.New(FileWeiboHot, "热搜词")
	for _, word := range words {
		ds.Append(word)
	}
	return ds, nil
}

func (s Sources) hotWords(ctx context.Context) (dataset.Dataset, error) {
	texts, err := s.HotStatus.HotStatuses(ctx)
	if err != nil {
		return dataset.Dataset{}, err
	}
	ds := dataset.New(FileXueqiuHot, "热词", "出现次数")
	for _, wc := range xueqiu.CountWords(texts, xueqiu.HotWords) {
		ds.Append(wc.Word, strconv.Itoa(wc.Count))
	}
	return ds, nil
}
