package nav

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	// DefaultNavSelector はサイドバーのナビゲーション領域 (MkDocs Material) です。
	DefaultNavSelector = "nav.md-nav--primary"
	// DefaultLinkSelector はナビゲーション領域内のページリンクです。
	DefaultLinkSelector = "a.md-nav__link"
)

// Selectors はナビゲーション領域とリンクを特定するセレクターです。
type Selectors struct {
	Nav  string
	Link string
}

// DefaultSelectors は既定のセレクターを返します。
func DefaultSelectors() Selectors {
	return Selectors{
		Nav:  DefaultNavSelector,
		Link: DefaultLinkSelector,
	}
}

// ExtractLinks はナビゲーション領域からリンクを取り出し、重複のない絶対URLの一覧を返します。
// ナビゲーション領域がない場合は空のスライスを返します。
func ExtractLinks(doc *goquery.Document, baseURL string, sel Selectors) ([]string, error) {
	if sel.Nav == "" || sel.Link == "" {
		sel = DefaultSelectors()
	}

	navRegion := doc.Find(sel.Nav).First()
	if navRegion.Length() == 0 {
		return []string{}, nil
	}

	var hrefs []string
	navRegion.Find(sel.Link).Each(func(_ int, a *goquery.Selection) {
		if href, ok := a.Attr("href"); ok {
			hrefs = append(hrefs, href)
		}
	})

	return ResolveUnique(baseURL, hrefs)
}

// ResolveUnique は href を baseURL 基準で絶対URLに解決し、出現順を保って重複を除きます。
// 空の href、"#" で始まるフラグメント、"javascript:" は除外されます。
func ResolveUnique(baseURL string, hrefs []string) ([]string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("ベースURLのパースエラー: %w", err)
	}

	links := make([]string, 0, len(hrefs))
	seen := make(map[string]struct{}, len(hrefs))
	for _, href := range hrefs {
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
			continue
		}
		ref, err := url.Parse(href)
		if err != nil {
			continue
		}
		full := base.ResolveReference(ref).String()
		if _, ok := seen[full]; ok {
			continue
		}
		seen[full] = struct{}{}
		links = append(links, full)
	}
	return links, nil
}

// Source はナビゲーション領域を feed.LinkSource として扱うためのアダプターです。
type Source struct {
	Doc       *goquery.Document
	BaseURL   string
	Selectors Selectors
}

// GetLinks はナビゲーションのリンクを返します。解決できない場合は空のスライスです。
func (s *Source) GetLinks() []string {
	if s == nil || s.Doc == nil {
		return []string{}
	}
	links, err := ExtractLinks(s.Doc, s.BaseURL, s.Selectors)
	if err != nil {
		return []string{}
	}
	return links
}
