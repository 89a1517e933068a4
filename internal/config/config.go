package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"marketdigest/internal/components/telemetry"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"github.com/titanous/json5"
)

const (
	DefaultReportTitle = "A股日交易分析报告"
	DefaultHttpTimeout = 15 * time.Second
	DefaultConfigPath  = "marketdigest.json5"
)

type NotionSettings struct {
	Token  string `json:"token"`
	PageId string `json:"page_id"`
}

type TelegramSettings struct {
	BotToken string `json:"bot_token"`
	ChatId   string `json:"chat_id"`
}

type ReportSettings struct {
	Title string `json:"title"`
}

type HttpSettings struct {
	TimeoutSeconds int `json:"timeout_seconds"`
}

type Settings struct {
	Notion   NotionSettings       `json:"notion"`
	Telegram TelegramSettings     `json:"telegram"`
	Report   ReportSettings       `json:"report"`
	Http     HttpSettings         `json:"http"`
	Otlp     telemetry.OtlpConfig `json:"otlp"`
}

// HttpTimeout is the bound applied to every outgoing request.
func (s Settings) HttpTimeout() time.Duration {
	if s.Http.TimeoutSeconds <= 0 {
		return DefaultHttpTimeout
	}
	return time.Duration(s.Http.TimeoutSeconds) * time.Second
}

// Load resolves settings in the following order, where later sources win:
// 1. built-in defaults
// 2. <path> and <path without ext>.local.<ext>
// 3. environment variables (a .env file next to the config fills in unset variables)
func Load(path string) (Settings, error) {
	envFile := filepath.Join(filepath.Dir(path), ".env")
	if _, err := os.Stat(envFile); err == nil {
		err = godotenv.Load(envFile)
		if err != nil {
			return Settings{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	settings, err := ReadLayered[Settings](path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Settings{}, err
	}

	ApplyEnv(&settings, os.LookupEnv)
	if settings.Report.Title == "" {
		settings.Report.Title = DefaultReportTitle
	}
	return settings, nil
}

// LookupFunc has the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides settings with every non-empty environment variable it knows about.
func ApplyEnv(s *Settings, lookup LookupFunc) {
	set := func(target *string, key string) {
		value, ok := lookup(key)
		if ok && value != "" {
			*target = value
		}
	}

	set(&s.Notion.Token, "NOTION_TOKEN")
	set(&s.Notion.PageId, "NOTION_PAGE_ID")
	set(&s.Report.Title, "REPORT_TITLE")
	set(&s.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")
	set(&s.Telegram.ChatId, "TELEGRAM_CHAT_ID")
	set(&s.Otlp.HttpEndpoint, "MARKETDIGEST_OTLP_ENDPOINT")

	timeout, ok := lookup("MARKETDIGEST_HTTP_TIMEOUT")
	if ok && timeout != "" {
		seconds, err := strconv.Atoi(timeout)
		if err != nil {
			slog.Warn("ignoring invalid MARKETDIGEST_HTTP_TIMEOUT", "value", timeout, "err", err)
			return
		}
		s.Http.TimeoutSeconds = seconds
	}
}

func splitExt(f string) (string, string) {
	for i := len(f) - 1; i >= 0; i-- {
		if f[i] == '.' {
			return f[0:i], f[i+1:]
		}
	}
	return f, ""
}

// ReadLayered reads a json5 file and merges `<name>.local.<ext>` on top of it.
// It returns os.ErrNotExist only when neither file exists.
func ReadLayered[T any](name string) (T, error) {
	var out T
	allNotFound := true

	prefix, ext := splitExt(filepath.Base(name))
	localPath := filepath.Join(
		filepath.Dir(name),
		fmt.Sprintf("%s.local.%s", prefix, ext),
	)

	defaultFile, err := os.ReadFile(name)
	if err != nil && !os.IsNotExist(err) {
		return out, err
	}
	if len(defaultFile) > 0 {
		err = json5.Unmarshal(defaultFile, &out)
		if err != nil {
			return out, fmt.Errorf("parse %s: %w", name, err)
		}
		allNotFound = false
	}

	localFile, err := os.ReadFile(localPath)
	if err != nil && !os.IsNotExist(err) {
		return out, err
	}
	if len(localFile) > 0 {
		var override T
		err = json5.Unmarshal(localFile, &override)
		if err != nil {
			return out, fmt.Errorf("parse %s: %w", localPath, err)
		}
		err = mergo.Merge(&out, override, mergo.WithOverride)
		if err != nil {
			return out, err
		}
		slog.Debug("merging config with local overrides", "local", localPath)
		allNotFound = false
	}

	if allNotFound {
		return out, os.ErrNotExist
	}
	return out, nil
}
