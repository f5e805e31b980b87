package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/shouni/go-doc-exact/pkg/document"
	"github.com/shouni/go-doc-exact/pkg/extract"
	"github.com/shouni/go-doc-exact/pkg/httpclient"
	"github.com/shouni/go-doc-exact/pkg/nav"
	"github.com/shouni/go-doc-exact/pkg/retry"
	"github.com/shouni/go-doc-exact/pkg/scraper"
)

const (
	// DefaultStartURL はドキュメントサイトの入口です。
	DefaultStartURL = "https://lmaobox.net/lua/"
	// DefaultOutput は出力ファイル名です。
	DefaultOutput = "lmaobox_lua_documentation.md"
)

// Config はクロール 1 回分の設定です。
type Config struct {
	StartURL string `yaml:"start_url"`
	Output   string `yaml:"output"`
	Title    string `yaml:"title"`
	// FeedURL が指定された場合、ナビゲーションの代わりにフィードの項目をリンク一覧として使います。
	FeedURL string `yaml:"feed_url"`
	// HTMLOutput と ReportOutput は空の場合は出力しません。
	HTMLOutput   string        `yaml:"html_output"`
	ReportOutput string        `yaml:"report_output"`
	PageDelay    time.Duration `yaml:"page_delay"`

	Fetch     Fetch     `yaml:"fetch"`
	Selectors Selectors `yaml:"selectors"`
}

// Fetch は HTTP 取得とリトライの設定です。
type Fetch struct {
	Timeout     time.Duration `yaml:"timeout"`
	MaxAttempts uint64        `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
	UserAgent   string        `yaml:"user_agent"`
	MaxBodySize int64         `yaml:"max_body_size"`
}

// Selectors はサイト構造に依存する CSS セレクターです。
type Selectors struct {
	Nav     string `yaml:"nav"`
	Link    string `yaml:"link"`
	Content string `yaml:"content"`
	Title   string `yaml:"title"`
}

// Default は既定値で埋めた Config を返します。
func Default() *Config {
	return &Config{
		StartURL:  DefaultStartURL,
		Output:    DefaultOutput,
		Title:     document.DefaultTitle,
		PageDelay: scraper.DefaultPageDelay,
		Fetch: Fetch{
			Timeout:     httpclient.DefaultHTTPTimeout,
			MaxAttempts: retry.DefaultMaxAttempts,
			BaseDelay:   retry.DefaultBaseDelay,
			UserAgent:   httpclient.UserAgent,
			MaxBodySize: httpclient.MaxBodySize,
		},
		Selectors: Selectors{
			Nav:     nav.DefaultNavSelector,
			Link:    nav.DefaultLinkSelector,
			Content: extract.DefaultContentSelector,
			Title:   extract.DefaultTitleSelector,
		},
	}
}

// NavSelectors はナビゲーション用のセレクターを返します。
func (c *Config) NavSelectors() nav.Selectors {
	return nav.Selectors{Nav: c.Selectors.Nav, Link: c.Selectors.Link}
}

// Validate は設定値を検証します。
func (c *Config) Validate() error {
	if c.StartURL == "" {
		return ErrNoStartURL
	}
	if !isHTTPURL(c.StartURL) {
		return fmt.Errorf("%w: %s", ErrInvalidScheme, c.StartURL)
	}
	if c.FeedURL != "" && !isHTTPURL(c.FeedURL) {
		return fmt.Errorf("%w: %s", ErrInvalidScheme, c.FeedURL)
	}
	if c.Output == "" {
		return ErrNoOutput
	}
	if c.Fetch.MaxAttempts < 1 {
		return ErrInvalidAttempts
	}
	if c.PageDelay < 0 || c.Fetch.BaseDelay < 0 {
		return ErrInvalidDelay
	}
	if c.Fetch.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	return nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
