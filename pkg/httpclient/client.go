package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/charmbracelet/log"

	"github.com/shouni/go-doc-exact/pkg/retry"
)

const (
	// HTTPクライアント関連の定数
	DefaultHTTPTimeout = 30 * time.Second
	MaxBodySize        = int64(10 * 1024 * 1024) // 10MB: レスポンスボディの最大読み込みサイズ

	// サイトからのブロックを避けるためのUser-Agent
	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/118.0.0.0 Safari/537.36"

	// errorBodyPreviewLimit はエラーメッセージに含めるボディの最大バイト数です。
	errorBodyPreviewLimit = 1024
)

// ErrFetchFailed は全ての試行が失敗したことを示します。
// 呼び出し元はこのエラーを「コンテンツなし」として扱い、そのページをスキップします。
var ErrFetchFailed = errors.New("コンテンツを取得できませんでした")

// Doer は、標準の *http.Client.Do()と互換性のあるHTTPクライアントのインターフェースを定義します。
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPStatusError は成功 (2xx/3xx) 以外のステータスコードを示すエラー型です。
type HTTPStatusError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPStatusError) Error() string {
	body := strings.TrimSpace(string(e.Body))
	if body == "" {
		return fmt.Sprintf("HTTPステータスエラー: ステータスコード %d, ボディなし", e.StatusCode)
	}
	if len(body) > errorBodyPreviewLimit {
		body = body[:errorBodyPreviewLimit] + "..."
	}
	return fmt.Sprintf("HTTPステータスエラー: ステータスコード %d, ボディ: %s", e.StatusCode, body)
}

// Client はHTTP GETと指数バックオフ+ジッターによるリトライを管理します。
// 同一の Client を使い回すことで、接続を再利用します。
type Client struct {
	httpClient  Doer
	retryConfig retry.Config
	userAgent   string
	maxBodySize int64
	logger      *log.Logger
	timer       backoff.Timer
}

// ClientOption はClientの設定を行うための関数型です。
type ClientOption func(*Client)

// WithHTTPClient はカスタムのDoerを設定します。
func WithHTTPClient(doer Doer) ClientOption {
	return func(c *Client) {
		c.httpClient = doer
	}
}

// WithMaxAttempts は初回を含む最大試行回数を設定します。
func WithMaxAttempts(n uint64) ClientOption {
	return func(c *Client) {
		c.retryConfig.MaxAttempts = n
	}
}

// WithBaseDelay はバックオフの基準待機時間を設定します。
func WithBaseDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.retryConfig.BaseDelay = d
	}
}

// WithMaxJitter は待機時間に加える乱数の上限を設定します。
func WithMaxJitter(d time.Duration) ClientOption {
	return func(c *Client) {
		c.retryConfig.MaxJitter = d
	}
}

// WithUserAgent は User-Agent ヘッダーを上書きします。
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithMaxBodySize はレスポンスボディの最大読み込みサイズを設定します。
func WithMaxBodySize(size int64) ClientOption {
	return func(c *Client) {
		if size > 0 {
			c.maxBodySize = size
		}
	}
}

// WithLogger は診断メッセージの出力先を設定します。
func WithLogger(logger *log.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTimer はリトライ待機用のタイマーを差し替えます。
func WithTimer(t backoff.Timer) ClientOption {
	return func(c *Client) {
		c.timer = t
	}
}

// New は、新しいClientを生成します。
func New(timeout time.Duration, options ...ClientOption) *Client {
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		retryConfig: retry.DefaultConfig(),
		userAgent:   UserAgent,
		maxBodySize: MaxBodySize,
		logger:      log.New(io.Discard),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// FetchBytes はURLに対してGETを行い、レスポンスボディを返します。
// 全ての試行が失敗した場合は ErrFetchFailed をラップしたエラーを返します。
func (c *Client) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	attempt := 0

	// 1. 一度の試行。失敗した試行ごとに診断を出す
	op := func() error {
		attempt++
		var fetchErr error
		body, fetchErr = c.doFetch(ctx, url)
		if fetchErr != nil {
			c.logger.Warn("フェッチエラー", "url", url, "attempt", attempt, "max_attempts", c.retryConfig.MaxAttempts, "err", fetchErr)
		}
		return fetchErr
	}

	// 2. リトライ前の待機時間を通知
	notify := retry.WithNotify(func(err error, n int, wait time.Duration) {
		c.logger.Info("リトライします", "url", url, "wait", wait.Round(10*time.Millisecond))
	})

	opts := []retry.Option{notify}
	if c.timer != nil {
		opts = append(opts, retry.WithTimer(c.timer))
	}

	err := retry.Do(ctx, c.retryConfig, fmt.Sprintf("URL(%s)のフェッチ", url), op, nil, opts...)
	if err != nil {
		c.logger.Error("全ての試行が失敗しました", "url", url, "attempts", attempt)
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	return body, nil
}

// addCommonHeaders は共通のHTTPヘッダーを設定します。
func (c *Client) addCommonHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.userAgent)
}

// doFetch は実際の一度のHTTP GETリクエストを実行します。
func (c *Client) doFetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("GETリクエスト作成に失敗しました: %w", err)
	}
	c.addCommonHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストに失敗しました (ネットワーク/接続エラー): %w", err)
	}
	defer resp.Body.Close()

	if resp.ContentLength > c.maxBodySize {
		return nil, fmt.Errorf("レスポンスボディが最大サイズ (%dバイト) を超えました", c.maxBodySize)
	}

	// 1バイト余分に読み、Content-Length のない応答でも上限超過を検出する
	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み込みに失敗しました: %w", err)
	}
	if int64(len(bodyBytes)) > c.maxBodySize {
		return nil, fmt.Errorf("レスポンスボディが最大サイズ (%dバイト) を超えました", c.maxBodySize)
	}

	if err := checkResponse(resp.StatusCode, bodyBytes); err != nil {
		return nil, err
	}
	return bodyBytes, nil
}

// checkResponse は 2xx/3xx 以外のステータスコードを HTTPStatusError として返します。
func checkResponse(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 400 {
		return nil
	}
	return &HTTPStatusError{
		StatusCode: statusCode,
		Body:       body,
	}
}

// IsHTTPStatusError は与えられたエラーがステータスコードエラーであるかを判断します。
func IsHTTPStatusError(err error) bool {
	if err == nil {
		return false
	}
	var statusErr *HTTPStatusError
	return errors.As(err, &statusErr)
}
