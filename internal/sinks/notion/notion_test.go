package notion

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"marketdigest/internal/components/telemetry"
	"marketdigest/internal/sinks"

	"github.com/stretchr/testify/require"
)

func TestPush(t *testing.T) {
	var (
		method, path, auth, version string
		body                        []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		path = r.URL.Path
		auth = r.Header.Get("Authorization")
		version = r.Header.Get("Notion-Version")
		body, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{"object":"page","id":"new-page"}`))
	}))
	defer srv.Close()

	client := NewClient(Options{
		Token:   "secret",
		PageId:  "parent-page",
		Title:   "A股日交易分析报告",
		BaseUrl: srv.URL,
	}, &telemetry.Recorder{})

	report := strings.Repeat("a", 3990) + "尾巴数据报告结束啦"
	require.Equal(t, 3999, len([]rune(report)))
	report += "!"

	err := client.Push(context.Background(), report)
	require.NoError(t, err)

	require.Equal(t, http.MethodPost, method)
	require.Equal(t, "/v1/pages", path)
	require.Equal(t, "Bearer secret", auth)
	require.Equal(t, ApiVersion, version)

	var req createPageRequest
	require.NoError(t, json.Unmarshal(body, &req))
	require.Equal(t, "parent-page", req.Parent.PageId)
	require.Equal(t, "A股日交易分析报告", req.Properties["title"][0].Text.Content)

	require.Len(t, req.Children, 3)
	var rebuilt strings.Builder
	for i, b := range req.Children {
		require.Equal(t, "paragraph", b.Type)
		content := b.Paragraph.RichText[0].Text.Content
		if i < 2 {
			require.Equal(t, BlockSize, len([]rune(content)))
		}
		rebuilt.WriteString(content)
	}
	require.Equal(t, 400, len([]rune(req.Children[2].Paragraph.RichText[0].Text.Content)))
	require.Equal(t, report, rebuilt.String())
}

func TestPushMissingCredentials(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	client := NewClient(Options{Token: "secret", BaseUrl: srv.URL}, &telemetry.Recorder{})
	err := client.Push(context.Background(), "report")
	require.ErrorIs(t, err, sinks.ErrMissingCredentials)
	require.False(t, called)
}

func TestPushRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"object":"error","code":"unauthorized"}`))
	}))
	defer srv.Close()

	rec := &telemetry.Recorder{}
	client := NewClient(Options{Token: "bad", PageId: "page", BaseUrl: srv.URL}, rec)
	err := client.Push(context.Background(), "report")
	require.ErrorIs(t, err, sinks.ErrRejected)
	require.ErrorContains(t, err, "401")
	require.True(t, rec.HasReport(telemetry.LevelBroken, report_client_push))
}
