package weibo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"marketdigest/internal/components/telemetry"

	"github.com/stretchr/testify/require"
)

func TestHotSearch(t *testing.T) {
	var referer string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		referer = r.Header.Get("Referer")
		w.Write([]byte(`{"ok":1,"data":{"band_list":[
			{"word":"A股大涨","num":1234},
			{"note":"ad without word"},
			{"word":" 央行降准 "}
		]}}`))
	}))
	defer srv.Close()

	client, err := NewClient(Options{BaseUrl: srv.URL}, &telemetry.Recorder{})
	require.NoError(t, err)

	words, err := client.HotSearch(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"A股大涨", "央行降准"}, words)
	require.Equal(t, "https://s.weibo.com/top/summary", referer)
}

func TestHotSearchMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":-100,"url":"https://passport.weibo.com"}`))
	}))
	defer srv.Close()

	rec := &telemetry.Recorder{}
	client, err := NewClient(Options{BaseUrl: srv.URL}, rec)
	require.NoError(t, err)

	_, err = client.HotSearch(context.Background())
	require.Error(t, err)
	require.True(t, rec.HasReport(telemetry.LevelBroken, "weibo_scraper: client.hot-band"))
}
