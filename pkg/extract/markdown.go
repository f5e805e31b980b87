package extract

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// ToMarkdown は HTML ノードを Markdown テキストに変換します。
// 対応していない要素は子ノードの変換結果を順に連結したものになります。
func ToMarkdown(n *html.Node) string {
	if n == nil {
		return ""
	}

	switch n.Type {
	case html.TextNode:
		return n.Data
	case html.ElementNode:
		// 下の switch で処理
	case html.DocumentNode:
		return convertChildren(n)
	default:
		// コメント、DOCTYPE などは出力しない
		return ""
	}

	switch n.Data {
	case "code":
		return "`" + flatten(n) + "`"
	case "pre":
		if code := findFirst(n, "code"); code != nil {
			return "```\n" + flatten(code) + "\n```\n"
		}
		return "```\n" + flatten(n) + "\n```\n"
	case "h1", "h2", "h3", "h4", "h5", "h6":
		level, _ := strconv.Atoi(n.Data[1:])
		return strings.Repeat("#", level) + " " + flatten(n) + "\n\n"
	case "p":
		return flatten(n) + "\n\n"
	case "ul":
		var sb strings.Builder
		for _, li := range childElements(n, "li") {
			sb.WriteString("- " + ToMarkdown(li) + "\n")
		}
		return sb.String()
	case "ol":
		var sb strings.Builder
		for i, li := range childElements(n, "li") {
			sb.WriteString(strconv.Itoa(i+1) + ". " + ToMarkdown(li) + "\n")
		}
		return sb.String()
	case "li":
		// ネストしたリストも含め、テキストに平坦化される
		return flatten(n)
	case "a":
		return "[" + flatten(n) + "](" + attr(n, "href") + ")"
	case "br":
		return "\n"
	default:
		return convertChildren(n)
	}
}

// ConvertSelection は選択範囲の各ノードの直下の子を順に変換して連結します。
func ConvertSelection(s *goquery.Selection) string {
	var sb strings.Builder
	for _, n := range s.Nodes {
		sb.WriteString(convertChildren(n))
	}
	return sb.String()
}

// convertChildren は直下の子ノードを文書順に変換し、区切りなしで連結します。
func convertChildren(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(ToMarkdown(c))
	}
	return sb.String()
}

// flatten は部分木の全テキストを goquery の Text() で取り出します。
func flatten(n *html.Node) string {
	return goquery.NewDocumentFromNode(n).Text()
}

// findFirst は n の子孫から最初の tag 要素を深さ優先で探します。
func findFirst(n *html.Node, tag string) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == tag {
			return c
		}
		if found := findFirst(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// childElements は n の直下にある tag 要素だけを返します。
func childElements(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == tag {
			out = append(out, c)
		}
	}
	return out
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
