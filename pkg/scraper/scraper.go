package scraper

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/shouni/go-doc-exact/pkg/extract"
	"github.com/shouni/go-doc-exact/pkg/types"
)

const (
	// DefaultPageDelay は、ページ取得ごとに挟む待機時間 (サーバーへの配慮) です。
	DefaultPageDelay = 2 * time.Second
)

// PageExtractor は 1 ページを取得して本文を変換する機能です。*extract.Extractor がこれを満たします。
type PageExtractor interface {
	FetchAndExtract(ctx context.Context, url string) (*extract.Page, error)
}

// PageHandler は本文を変換できたページごとに、リンク順で呼び出されます。
type PageHandler func(page *extract.Page)

// Scraper はリンクを 1 件ずつ順番に処理します。並列には実行しません。
type Scraper struct {
	extractor PageExtractor
	delay     time.Duration
	logger    *log.Logger
}

// Option は Scraper の設定を行うための関数型です。
type Option func(*Scraper)

// WithLogger は診断メッセージの出力先を設定します。
func WithLogger(logger *log.Logger) Option {
	return func(s *Scraper) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewScraper は Scraper を初期化します。delay が負の場合は 0 として扱います。
func NewScraper(extractor PageExtractor, delay time.Duration, opts ...Option) *Scraper {
	if delay < 0 {
		delay = 0
	}
	s := &Scraper{
		extractor: extractor,
		delay:     delay,
		logger:    log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scrape は urls を順番に処理し、リンク順の結果を返します。
// 取得に失敗したページはスキップして次へ進みます。待機は結果に関わらず各リンクの後に入ります。
// コンテキストがキャンセルされた場合は、それまでの結果とコンテキストのエラーを返します。
func (s *Scraper) Scrape(ctx context.Context, urls []string, onPage PageHandler) ([]types.PageResult, error) {
	results := make([]types.PageResult, 0, len(urls))

	for i, u := range urls {
		s.logger.Info("ページを取得します", "url", u, "index", i+1, "total", len(urls))
		results = append(results, s.scrapeOne(ctx, u, onPage))

		if err := sleep(ctx, s.delay); err != nil {
			return results, err
		}
	}
	return results, nil
}

// scrapeOne は 1 リンク分の処理を行います。
func (s *Scraper) scrapeOne(ctx context.Context, u string, onPage PageHandler) types.PageResult {
	page, err := s.extractor.FetchAndExtract(ctx, u)
	if err != nil {
		s.logger.Warn("ページをスキップします", "url", u, "err", err)
		return types.PageResult{URL: u, Status: types.StatusFailed, Error: err}
	}

	if !page.HasContent {
		s.logger.Debug("本文領域が見つかりません", "url", u)
		return types.PageResult{URL: u, Status: types.StatusNoContent}
	}

	if onPage != nil {
		onPage(page)
	}
	return types.PageResult{
		URL:    u,
		Title:  page.Title,
		Status: types.StatusOK,
		Bytes:  len(page.Markdown),
	}
}

// sleep は d だけ待機します。待機中にコンテキストが終了した場合はそのエラーを返します。
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
