// Package notion pushes the report as a new Notion page.
package notion

import (
	"context"
	"fmt"
	"time"

	"marketdigest/internal/components/telemetry"
	"marketdigest/internal/sinks"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultBaseUrl = "https://api.notion.com"
	ApiVersion     = "2022-06-28"
	// BlockSize is the maximum length of the text of one paragraph block.
	BlockSize = 1800
)

const (
	report_client_push = "client.push"
)

type Options struct {
	Token   string
	PageId  string
	Title   string
	BaseUrl string
	Timeout time.Duration
}

type Client struct {
	http   *resty.Client
	token  string
	pageId string
	title  string
	tel    telemetry.API
}

func NewClient(opts Options, tel telemetry.API) Client {
	tel = telemetry.NewScopedAPI("notion_sink", tel)

	baseUrl := opts.BaseUrl
	if baseUrl == "" {
		baseUrl = DefaultBaseUrl
	}
	return Client{
		http:   sinks.NewHttpClient(baseUrl, opts.Timeout, tel),
		token:  opts.Token,
		pageId: opts.PageId,
		title:  opts.Title,
		tel:    tel,
	}
}

func (c Client) Name() string {
	return "notion"
}

type richText struct {
	Type string `json:"type"`
	Text struct {
		Content string `json:"content"`
	} `json:"text"`
}

func newRichText(content string) []richText {
	rt := richText{Type: "text"}
	rt.Text.Content = content
	return []richText{rt}
}

type paragraph struct {
	RichText []richText `json:"rich_text"`
}

type block struct {
	Object    string    `json:"object"`
	Type      string    `json:"type"`
	Paragraph paragraph `json:"paragraph"`
}

type parent struct {
	PageId string `json:"page_id"`
}

type createPageRequest struct {
	Parent     parent                `json:"parent"`
	Properties map[string][]richText `json:"properties"`
	Children   []block               `json:"children"`
}

func newCreatePageRequest(pageId, title, text string) createPageRequest {
	chunks := sinks.Chunk(text, BlockSize)
	blocks := make([]block, len(chunks))
	for i, chunk := range chunks {
		blocks[i] = block{
			Object:    "block",
			Type:      "paragraph",
			Paragraph: paragraph{RichText: newRichText(chunk)},
		}
	}
	return createPageRequest{
		Parent:     parent{PageId: pageId},
		Properties: map[string][]richText{"title": newRichText(title)},
		Children:   blocks,
	}
}

// Push creates a child page of the configured page holding `text` split into paragraph
// blocks.
func (c Client) Push(ctx context.Context, text string) error {
	if c.token == "" || c.pageId == "" {
		return fmt.Errorf("notion: %w (token and page id are required)", sinks.ErrMissingCredentials)
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(c.token).
		SetHeader("Notion-Version", ApiVersion).
		SetBody(newCreatePageRequest(c.pageId, c.title, text)).
		Post("/v1/pages")
	err = sinks.CheckResponse(res, err)
	if err != nil {
		c.tel.ReportBroken(report_client_push, err)
		return fmt.Errorf("notion: %w", err)
	}
	return nil
}
