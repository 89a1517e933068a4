package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	err := os.WriteFile(path, []byte(contents), 0600)
	if err != nil {
		t.Fatal(err)
	}
}

// unsetEnv clears `key` for the duration of the test, restoring it afterwards.
func unsetEnv(t *testing.T, key string) {
	t.Setenv(key, "")
	os.Unsetenv(key)
}

func TestReadLayered(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "marketdigest.json5"), `{
		// comments are allowed
		notion: { token: "base-token", page_id: "base-page" },
		report: { title: "base title" },
	}`)
	writeFile(t, filepath.Join(dir, "marketdigest.local.json5"), `{
		notion: { token: "local-token" },
	}`)

	settings, err := ReadLayered[Settings](filepath.Join(dir, "marketdigest.json5"))
	require.NoError(t, err)
	require.Equal(t, "local-token", settings.Notion.Token)
	require.Equal(t, "base-page", settings.Notion.PageId)
	require.Equal(t, "base title", settings.Report.Title)
}

func TestReadLayeredMissing(t *testing.T) {
	_, err := ReadLayered[Settings](filepath.Join(t.TempDir(), "marketdigest.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"NOTION_TOKEN":              "env-token",
		"TELEGRAM_CHAT_ID":          "",
		"MARKETDIGEST_HTTP_TIMEOUT": "30",
	}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	s := Settings{
		Notion:   NotionSettings{Token: "file-token", PageId: "file-page"},
		Telegram: TelegramSettings{ChatId: "file-chat"},
	}
	ApplyEnv(&s, lookup)

	require.Equal(t, "env-token", s.Notion.Token)
	require.Equal(t, "file-page", s.Notion.PageId)
	// empty variables do not clobber file values
	require.Equal(t, "file-chat", s.Telegram.ChatId)
	require.Equal(t, 30*time.Second, s.HttpTimeout())
}

func TestLoad(t *testing.T) {
	for _, key := range []string{
		"NOTION_TOKEN", "NOTION_PAGE_ID", "REPORT_TITLE",
		"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID",
		"MARKETDIGEST_OTLP_ENDPOINT", "MARKETDIGEST_HTTP_TIMEOUT",
	} {
		unsetEnv(t, key)
	}
	t.Setenv("TELEGRAM_BOT_TOKEN", "from-env")

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".env"), "TELEGRAM_CHAT_ID='12345'\nTELEGRAM_BOT_TOKEN=from-dotenv\n")
	writeFile(t, filepath.Join(dir, "marketdigest.json5"), `{telegram: {bot_token: "from-file"}}`)

	settings, err := Load(filepath.Join(dir, "marketdigest.json5"))
	require.NoError(t, err)

	require.Equal(t, "from-env", settings.Telegram.BotToken)
	require.Equal(t, "12345", settings.Telegram.ChatId)
	require.Equal(t, DefaultReportTitle, settings.Report.Title)
	require.Equal(t, DefaultHttpTimeout, settings.HttpTimeout())
}
