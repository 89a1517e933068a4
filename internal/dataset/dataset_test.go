package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestAppendPadsToSchema(t *testing.T) {
	d := New("quotes", "名称", "代码", "收盘")
	d.Append("腾讯控股", "0700.HK")
	d.Append("阿里巴巴", "9988.HK", "80.1", "extra")

	expected := [][]string{
		{"腾讯控股", "0700.HK", ""},
		{"阿里巴巴", "9988.HK", "80.1"},
	}
	if diff := cmp.Diff(expected, d.Rows); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
	require.True(t, d.Valid())
	require.False(t, New("empty", "a").Valid())
}

func TestWriteReadBOM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "indices.csv")

	d := New("indices", "指数", "收盘点位", "涨跌幅", "日期")
	d.Append("上证指数", "3200.12", "0.52%", "2024-05-10")
	err := WriteCSV(path, d, WriteOptions{BOM: true})
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(raw), "\ufeff指数,"))

	read, err := ReadCSV(path)
	require.NoError(t, err)
	require.Equal(t, d.Columns, read.Columns)
	require.Equal(t, d.Rows, read.Rows)
}

func TestReadCSVEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, nil, 0600))

	_, err := ReadCSV(path)
	require.ErrorIs(t, err, ErrEmpty)
}

func TestDecodeRaggedRows(t *testing.T) {
	d, err := Decode(strings.NewReader("a,b,c\n1,2\n3,4,5\n"))
	require.NoError(t, err)
	require.Equal(t, [][]string{{"1", "2", ""}, {"3", "4", "5"}}, d.Rows)
}

func TestProjectAndHead(t *testing.T) {
	d := New("flow", "代码", "名称", "涨跌幅")
	for _, code := range []string{"1", "2", "3"} {
		d.Append(code, "n"+code, code+"%")
	}

	p, err := d.Project([]string{"名称", "代码"})
	require.NoError(t, err)
	require.Equal(t, []string{"名称", "代码"}, p.Columns)
	require.Equal(t, []string{"n2", "2"}, p.Rows[1])

	_, err = d.Project([]string{"missing"})
	require.Error(t, err)

	require.Len(t, d.Head(2).Rows, 2)
	require.Len(t, d.Head(10).Rows, 3)
}
