package report

import (
	"path/filepath"
	"strings"
	"time"

	"marketdigest/internal/collect"
	"marketdigest/internal/components/chrono"
)

const closingLine = "*本报告由自动化脚本采集生成*"

// Section is one heading of the report and the dataset summarized under it.
type Section struct {
	Title   string
	File    string
	Limit   int
	Columns []string
}

// DefaultSections is the fixed layout of the daily report.
var DefaultSections = []Section{
	{Title: "A股主要指数", File: collect.FileIndices, Limit: 5},
	{Title: "港股与中概股行情", File: collect.FileHKChina, Limit: 5},
	{Title: "美股主要指数/ETF", File: collect.FileUSMarkets, Limit: 5},
	{Title: "大宗商品/期货/外汇", File: collect.FileFX, Limit: 5},
	{Title: "全球ETF资金流", File: collect.FileGlobalETF, Limit: 5},
	{Title: "国际主要指数", File: collect.FileWorldIndices, Limit: 5},
	{Title: "东方财富主力资金流向（前10）", File: collect.FileFundFlow, Limit: 10},
	{Title: "同花顺涨停雷达（前10）", File: collect.FileLimitUp, Limit: 10},
	{Title: "微博热搜榜（前10）", File: collect.FileWeiboHot, Limit: 10},
	{Title: "雪球热词（Top10）", File: collect.FileXueqiuHot, Limit: 10},
}

// Assembler composes the report from the datasets present in Dir. It never touches the
// network, the output only depends on the contents of Dir and the date.
type Assembler struct {
	Dir      string
	Sections []Section
	Clock    chrono.API
}

func NewAssembler(dir string, clock chrono.API) Assembler {
	return Assembler{Dir: dir, Sections: DefaultSections, Clock: clock}
}

func (a Assembler) Assemble() string {
	var sb strings.Builder
	sb.WriteString("# ")
	sb.WriteString(a.Clock.Now().Format(time.DateOnly))
	sb.WriteString(" 多市场采集报告\n")

	for i, section := range a.Sections {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("\n## ")
		sb.WriteString(section.Title)
		sb.WriteString("\n")
		sb.WriteString(Summarize(filepath.Join(a.Dir, section.File), section.Columns, section.Limit))
	}

	sb.WriteString("\n\n")
	sb.WriteString(closingLine)
	return sb.String()
}
