package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ----------------------------------------------------------------------
// 定数定義 (解析関連のみ)
// ----------------------------------------------------------------------
const (
	// DefaultContentSelector は本文領域 (MkDocs Material のコンテンツ枠) です。
	DefaultContentSelector = "div.md-content"
	// DefaultTitleSelector はページタイトルとして使う見出しです。
	DefaultTitleSelector = "h1"
	// FallbackTitle は URL からタイトルを作れない場合のタイトルです。
	FallbackTitle = "Home"
)

// Page は 1 ページ分の抽出結果です。
type Page struct {
	URL   string
	Title string
	// Markdown は本文領域の変換結果です。HasContent が false の場合は空です。
	Markdown string
	// HasContent は本文領域が見つかったかどうかです。
	HasContent bool
}

// Extractor は、Fetcher を使ってコンテンツ抽出プロセスを管理します。
type Extractor struct {
	fetcher         Fetcher
	contentSelector string
	titleSelector   string
}

// Option は Extractor の設定を行うための関数型です。
type Option func(*Extractor)

// WithContentSelector は本文領域のセレクターを設定します。
func WithContentSelector(selector string) Option {
	return func(e *Extractor) {
		if selector != "" {
			e.contentSelector = selector
		}
	}
}

// WithTitleSelector はページタイトルのセレクターを設定します。
func WithTitleSelector(selector string) Option {
	return func(e *Extractor) {
		if selector != "" {
			e.titleSelector = selector
		}
	}
}

// NewExtractor は、新しいExtractorのインスタンスを生成します。
func NewExtractor(fetcher Fetcher, opts ...Option) (*Extractor, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("extract.NewExtractor: Fetcher cannot be nil")
	}
	e := &Extractor{
		fetcher:         fetcher,
		contentSelector: DefaultContentSelector,
		titleSelector:   DefaultTitleSelector,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// ----------------------------------------------------------------------
// メイン関数 (メソッド化)
// ----------------------------------------------------------------------

// FetchAndExtract は指定されたURLからページを取得し、本文領域を Markdown に変換します。
// 取得に失敗した場合はエラーを返します。本文領域がない場合はエラーではなく HasContent=false です。
func (e *Extractor) FetchAndExtract(ctx context.Context, url string) (*Page, error) {
	// 1. Fetcherから生のバイト配列を取得 (通信の責務)
	htmlBytes, err := e.fetcher.FetchBytes(ctx, url)
	if err != nil {
		return nil, err
	}

	// 2. Extractor内でgoquery.Documentに変換 (解析の責務)
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(htmlBytes))
	if err != nil {
		return nil, fmt.Errorf("HTML解析に失敗しました: %w", err)
	}

	return e.Extract(doc, url), nil
}

// Extract は解析済みのドキュメントから本文領域とタイトルを取り出します。
func (e *Extractor) Extract(doc *goquery.Document, url string) *Page {
	page := &Page{URL: url}

	content := doc.Find(e.contentSelector).First()
	if content.Length() == 0 {
		return page
	}

	page.HasContent = true
	page.Title = e.resolveTitle(doc, url)
	page.Markdown = ConvertSelection(content)
	return page
}

// resolveTitle は最初の見出し、URL の最後のパス要素、"Home" の順にタイトルを決めます。
func (e *Extractor) resolveTitle(doc *goquery.Document, url string) string {
	if heading := doc.Find(e.titleSelector).First(); heading.Length() > 0 {
		return heading.Text()
	}
	return TitleFromURL(url)
}

// TitleFromURL は URL の最後の "/" 以降を返します。空の場合は FallbackTitle です。
func TitleFromURL(url string) string {
	last := url[strings.LastIndex(url, "/")+1:]
	if last == "" {
		return FallbackTitle
	}
	return last
}
