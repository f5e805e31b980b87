package cmd

import (
	"fmt"
	"net/url"
	"time"

	"github.com/shouni/go-doc-exact/internal/config"
)

// ensureScheme は、URLのスキームが存在しない場合に https:// を補完します。
func ensureScheme(rawURL string) (string, error) {
	// 1. まず現在のURLをパース
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("URLのパースエラー: %w", err)
	}

	// 2. スキームが既に存在する場合のチェック
	if parsedURL.Scheme != "" {
		if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			return "", fmt.Errorf("無効なURLスキームです。httpまたはhttpsを指定してください: %s", rawURL)
		}
		return rawURL, nil
	}

	// 3. スキームがない場合、HTTPSをデフォルトとして付与
	return "https://" + rawURL, nil
}

// overallTimeout は 1 回の取得 (全試行と待機を含む) に許す時間です。
// 各試行のタイムアウトと、base * 2^k + 1s の待機の合計を上限とします。
func overallTimeout(f *config.Fetch) time.Duration {
	total := time.Duration(0)
	for k := uint64(0); k < f.MaxAttempts; k++ {
		total += f.Timeout
		if k+1 < f.MaxAttempts {
			total += f.BaseDelay*time.Duration(int64(1)<<min(k, 30)) + time.Second
		}
	}
	return total
}
