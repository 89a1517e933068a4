package restyutil

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

type memoryOutput struct {
	mutex sync.Mutex
	files map[string]string
}

func (m *memoryOutput) Write(name, contents string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.files[name] = contents
}

func TestDump(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"diff":[]}}`))
	}))
	defer srv.Close()

	out := &memoryOutput{files: map[string]string{}}
	client := resty.New()
	Dump(client, "eastmoney", out)

	_, err := client.R().
		SetHeader("Authorization", "Bearer secret").
		Get(srv.URL + "/api/qt/clist/get")
	require.NoError(t, err)
	_, err = client.R().SetBody("a=1").Post(srv.URL + "/form")
	require.NoError(t, err)

	require.Len(t, out.files, 2)
	first := out.files["eastmoney-1.txt"]
	require.True(t, strings.HasPrefix(first, "---- REQUEST ----\n\nGET "+srv.URL+"/api/qt/clist/get"))
	require.Contains(t, first, "Authorization: <redacted>")
	require.NotContains(t, first, "secret")
	require.Contains(t, first, "200 OK")
	require.True(t, strings.HasSuffix(first, `{"data":{"diff":[]}}`))

	require.Contains(t, out.files["eastmoney-2.txt"], "a=1")
}

func TestFilesystemOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dump")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stale.txt"), []byte("old"), 0600))

	out, err := NewFilesystemOutput(dir)
	require.NoError(t, err)
	out.Write("weibo-1.txt", "contents")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "weibo-1.txt", entries[0].Name())
}
