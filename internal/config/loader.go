package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigFile はカレントディレクトリで探す設定ファイル名です。
	DefaultConfigFile = ".doc-exact.yaml"
	// xdgConfigFile は XDG_CONFIG_HOME 以下の相対パスです。
	xdgConfigFile = "doc-exact/config.yaml"
	// EnvPrefix は設定を上書きする環境変数の接頭辞です。
	EnvPrefix = "DOC_EXACT_"
)

// ErrConfigNotFound は設定ファイルが存在しない場合のエラーです。
var ErrConfigNotFound = errors.New("設定ファイルが見つかりません")

// LoadFile は YAML ファイルを既定値の上に重ねて読み込みます。
// ファイルに書かれていない項目は既定値のままです。
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("設定ファイルの読み込みに失敗しました: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("設定ファイルの解析に失敗しました (%s): %w", path, err)
	}
	return cfg, nil
}

// FindConfigFile は次の順で設定ファイルを探します。
//  1. configPath が指定されていればそれ
//  2. カレントディレクトリの .doc-exact.yaml
//  3. $XDG_CONFIG_HOME/doc-exact/config.yaml
//
// 見つからない場合は空文字列を返します。
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		p := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	if p, err := xdg.SearchConfigFile(xdgConfigFile); err == nil {
		return p
	}
	return ""
}

// Load は設定ファイルの探索と読み込み、環境変数の適用までを行います。
// configPath が明示されていて見つからない場合は ErrConfigNotFound を返します。
func Load(configPath string) (*Config, error) {
	cfg := Default()

	path := FindConfigFile(configPath)
	switch {
	case path != "":
		loaded, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	case configPath != "":
		return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv は .env ファイルを読み込み、DOC_EXACT_* 環境変数で設定を上書きします。
// .env がなくてもエラーにはしません。既に設定済みの環境変数は .env で上書きされません。
func (c *Config) ApplyEnv(envFiles ...string) error {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf(".env の読み込みに失敗しました: %w", err)
	}

	c.StartURL = envOr("URL", c.StartURL)
	c.Output = envOr("OUTPUT", c.Output)
	c.Title = envOr("TITLE", c.Title)
	c.FeedURL = envOr("FEED_URL", c.FeedURL)
	c.HTMLOutput = envOr("HTML_OUTPUT", c.HTMLOutput)
	c.ReportOutput = envOr("REPORT_OUTPUT", c.ReportOutput)
	c.PageDelay = envDuration("PAGE_DELAY", c.PageDelay)

	c.Fetch.Timeout = envDuration("TIMEOUT", c.Fetch.Timeout)
	c.Fetch.MaxAttempts = envUint("MAX_ATTEMPTS", c.Fetch.MaxAttempts)
	c.Fetch.BaseDelay = envDuration("BASE_DELAY", c.Fetch.BaseDelay)
	c.Fetch.UserAgent = envOr("USER_AGENT", c.Fetch.UserAgent)
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		return v
	}
	return fallback
}

func envUint(key string, fallback uint64) uint64 {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
