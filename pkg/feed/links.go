package feed

import (
	"github.com/mmcdole/gofeed"
)

// 汎用抽出のためのインターフェースとアダプター

// LinkSource は、リンクのリストを提供できる任意の型を表します。
// ナビゲーション領域 (nav.Source) とフィード (FeedAdapter) の両方がこれを満たします。
type LinkSource interface {
	GetLinks() []string
}

// FeedAdapter は gofeed.Feed を LinkSource に適合させるためのアダプターです。
type FeedAdapter struct {
	*gofeed.Feed
}

// NewFeedAdapter は gofeed.Feed から新しいアダプターを作成します。
func NewFeedAdapter(feed *gofeed.Feed) *FeedAdapter {
	return &FeedAdapter{Feed: feed}
}

// GetLinks は LinkSource インターフェースを満たし、gofeed.Feed の記事リンクを出現順に返します。
func (a *FeedAdapter) GetLinks() []string {
	if a == nil || a.Feed == nil || len(a.Items) == 0 {
		return []string{}
	}

	urls := make([]string, 0, len(a.Items))
	for _, item := range a.Items {
		if item.Link != "" {
			urls = append(urls, item.Link)
		}
	}
	return urls
}

// GetAllLinks は LinkSource からリンクを抽出する汎用関数です。
func GetAllLinks(source LinkSource) []string {
	if source == nil {
		return []string{}
	}
	return source.GetLinks()
}
