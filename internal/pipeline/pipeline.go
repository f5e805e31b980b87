package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/log"

	"github.com/shouni/go-doc-exact/internal/config"
	"github.com/shouni/go-doc-exact/internal/logging"
	"github.com/shouni/go-doc-exact/pkg/document"
	"github.com/shouni/go-doc-exact/pkg/extract"
	"github.com/shouni/go-doc-exact/pkg/feed"
	"github.com/shouni/go-doc-exact/pkg/httpclient"
	"github.com/shouni/go-doc-exact/pkg/nav"
	"github.com/shouni/go-doc-exact/pkg/report"
	"github.com/shouni/go-doc-exact/pkg/scraper"
	"github.com/shouni/go-doc-exact/pkg/types"
)

var (
	// ErrStartPage は開始ページを取得できなかった場合のエラーです。この場合は何も出力しません。
	ErrStartPage = errors.New("開始ページの取得に失敗しました")
	// ErrFeed はリンク一覧のフィードを取得・解析できなかった場合のエラーです。
	ErrFeed = errors.New("フィードの取得に失敗しました")
)

// Fetcher は Pipeline が依存する取得機能です。*httpclient.Client がこれを満たします。
type Fetcher interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

// Result はクロール 1 回分の結果です。
type Result struct {
	Document *document.Document
	Links    []string
	Pages    []types.PageResult
}

// Pipeline は設定に従ってドキュメントサイト全体を 1 つの Markdown にまとめます。
type Pipeline struct {
	cfg     *config.Config
	fetcher Fetcher
	logger  *log.Logger
}

// Option は Pipeline の設定を行うための関数型です。
type Option func(*Pipeline)

// WithFetcher は取得機能を差し替えます。
func WithFetcher(f Fetcher) Option {
	return func(p *Pipeline) {
		if f != nil {
			p.fetcher = f
		}
	}
}

// WithLogger は診断メッセージの出力先を設定します。
func WithLogger(logger *log.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewFetcher は設定から httpclient.Client を生成します。
func NewFetcher(cfg *config.Config, logger *log.Logger, extra ...httpclient.ClientOption) *httpclient.Client {
	opts := []httpclient.ClientOption{
		httpclient.WithMaxAttempts(cfg.Fetch.MaxAttempts),
		httpclient.WithBaseDelay(cfg.Fetch.BaseDelay),
		httpclient.WithUserAgent(cfg.Fetch.UserAgent),
		httpclient.WithMaxBodySize(cfg.Fetch.MaxBodySize),
		httpclient.WithLogger(logger),
	}
	return httpclient.New(cfg.Fetch.Timeout, append(opts, extra...)...)
}

// New は Pipeline を初期化します。Fetcher が指定されない場合は設定から生成します。
func New(cfg *config.Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:    cfg,
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.fetcher == nil {
		p.fetcher = NewFetcher(cfg, p.logger)
	}
	return p
}

// DiscoverLinks は開始ページ (またはフィード) からクロール対象のリンクを求めます。
// リンクは一度だけ、開始ページからのみ求めます。
func (p *Pipeline) DiscoverLinks(ctx context.Context) ([]string, error) {
	var source feed.LinkSource
	var err error

	if p.cfg.FeedURL != "" {
		source, err = p.feedSource(ctx)
	} else {
		source, err = p.navSource(ctx)
	}
	if err != nil {
		return nil, err
	}

	links := feed.GetAllLinks(source)
	p.logger.Info("リンクを検出しました", "count", len(links))
	return links, nil
}

func (p *Pipeline) navSource(ctx context.Context) (feed.LinkSource, error) {
	body, err := p.fetcher.FetchBytes(ctx, p.cfg.StartURL)
	if err != nil {
		return nil, fmt.Errorf("%w (URL: %s): %w", ErrStartPage, p.cfg.StartURL, err)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("%w (URL: %s): レスポンスボディが空です", ErrStartPage, p.cfg.StartURL)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("開始ページのHTML解析に失敗しました: %w", err)
	}
	return &nav.Source{Doc: doc, BaseURL: p.cfg.StartURL, Selectors: p.cfg.NavSelectors()}, nil
}

// feedSource はフィードの項目リンクをフィードの URL 基準で解決し、重複を除いて返します。
func (p *Pipeline) feedSource(ctx context.Context) (feed.LinkSource, error) {
	parsed, err := feed.NewParser(p.fetcher).FetchAndParse(ctx, p.cfg.FeedURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFeed, err)
	}
	links, err := nav.ResolveUnique(p.cfg.FeedURL, feed.NewFeedAdapter(parsed).GetLinks())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFeed, err)
	}
	return staticLinks(links), nil
}

// staticLinks は解決済みのリンク一覧を feed.LinkSource として扱います。
type staticLinks []string

func (s staticLinks) GetLinks() []string { return s }

// NewExtractor は設定のセレクターを反映した Extractor を生成します。
func (p *Pipeline) NewExtractor() (*extract.Extractor, error) {
	return extract.NewExtractor(p.fetcher,
		extract.WithContentSelector(p.cfg.Selectors.Content),
		extract.WithTitleSelector(p.cfg.Selectors.Title),
	)
}

// Run はクロールを実行し、設定された出力ファイルを書き出します。
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	// 1. 開始ページからリンクを求める
	links, err := p.DiscoverLinks(ctx)
	if err != nil {
		return nil, err
	}

	extractor, err := p.NewExtractor()
	if err != nil {
		return nil, fmt.Errorf("Extractorの初期化エラー: %w", err)
	}

	// 2. 出力ドキュメントを初期化し、リンク順に節を追加する
	doc := document.New(p.cfg.Title)
	s := scraper.NewScraper(extractor, p.cfg.PageDelay, scraper.WithLogger(p.logger))
	pages, scrapeErr := s.Scrape(ctx, links, func(page *extract.Page) {
		doc.AddSection(page.Title, page.Markdown)
	})

	result := &Result{Document: doc, Links: links, Pages: pages}
	if scrapeErr != nil {
		return result, fmt.Errorf("クロールが中断されました: %w", scrapeErr)
	}

	counts := types.Counts(pages)
	p.logger.Info("クロールが完了しました",
		"converted", counts[types.StatusOK],
		"no_content", counts[types.StatusNoContent],
		"failed", counts[types.StatusFailed],
	)

	// 3. 出力ファイルを書き出す
	if err := doc.WriteFile(p.cfg.Output); err != nil {
		p.logger.Error("ドキュメントを書き出せませんでした", "path", p.cfg.Output, "err", err)
		return result, err
	}
	p.logger.Info("ドキュメントを書き出しました", "path", p.cfg.Output, "bytes", doc.Len())

	// 4. 任意の出力
	if err := p.writeExtras(result); err != nil {
		return result, err
	}
	return result, nil
}

func (p *Pipeline) writeExtras(result *Result) error {
	if path := p.cfg.HTMLOutput; path != "" {
		if err := result.Document.WriteHTMLFile(path); err != nil {
			p.logger.Error("HTMLを書き出せませんでした", "path", path, "err", err)
			return err
		}
		p.logger.Info("HTMLを書き出しました", "path", path)
	}

	if path := p.cfg.ReportOutput; path != "" {
		if err := p.writeReport(path, result.Pages); err != nil {
			p.logger.Error("レポートを書き出せませんでした", "path", path, "err", err)
			return err
		}
		p.logger.Info("レポートを書き出しました", "path", path)
	}
	return nil
}

func (p *Pipeline) writeReport(path string, pages []types.PageResult) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("出力ディレクトリの作成に失敗しました: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("レポートファイルの作成に失敗しました: %w", err)
	}
	defer f.Close()

	_, err = report.Write(f, report.Summary{
		Title:    p.cfg.Title,
		StartURL: p.cfg.StartURL,
		Output:   p.cfg.Output,
		Results:  pages,
	})
	return err
}

// ConvertPage は 1 ページを取得し、本文領域の変換結果を返します。
func (p *Pipeline) ConvertPage(ctx context.Context, url string) (*extract.Page, error) {
	extractor, err := p.NewExtractor()
	if err != nil {
		return nil, fmt.Errorf("Extractorの初期化エラー: %w", err)
	}
	return extractor.FetchAndExtract(ctx, url)
}
