package document

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
)

// DefaultTitle は出力ドキュメントの先頭に置く見出しです。
const DefaultTitle = "Lmaobox Lua Documentation"

// Document は追記専用の出力バッファです。
// 先頭のタイトル行のあとに、変換できたページごとの節がリンク順に並びます。
type Document struct {
	title    string
	buf      strings.Builder
	sections int
}

// New はタイトル行 "# <title>\n\n" で初期化された Document を返します。
func New(title string) *Document {
	if title == "" {
		title = DefaultTitle
	}
	d := &Document{title: title}
	d.buf.WriteString("# " + title + "\n\n")
	return d
}

// AddSection は "## <title>\n\n" と本文を追記します。
func (d *Document) AddSection(title, body string) {
	d.buf.WriteString("## " + title + "\n\n")
	d.buf.WriteString(body)
	d.sections++
}

// Title はドキュメントのタイトルを返します。
func (d *Document) Title() string { return d.title }

// Sections は追記された節の数を返します。
func (d *Document) Sections() int { return d.sections }

// Len は現在のバッファの長さ (バイト) を返します。
func (d *Document) Len() int { return d.buf.Len() }

func (d *Document) String() string { return d.buf.String() }

// WriteFile はバッファを UTF-8 のテキストファイルとして書き出します。
func (d *Document) WriteFile(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("出力ディレクトリの作成に失敗しました: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(d.buf.String()), 0o644); err != nil {
		return fmt.Errorf("出力ファイルへの書き込みに失敗しました: %w", err)
	}
	return nil
}

// RenderHTML は Markdown を goldmark で HTML に変換し、単体で開けるページとして書き出します。
func (d *Document) RenderHTML(w io.Writer) error {
	var body bytes.Buffer
	if err := goldmark.Convert([]byte(d.buf.String()), &body); err != nil {
		return fmt.Errorf("HTMLへの変換に失敗しました: %w", err)
	}

	_, err := fmt.Fprintf(w, htmlPage, html.EscapeString(d.title), body.String())
	return err
}

// WriteHTMLFile は RenderHTML の結果をファイルに書き出します。
func (d *Document) WriteHTMLFile(path string) error {
	var out bytes.Buffer
	if err := d.RenderHTML(&out); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("出力ディレクトリの作成に失敗しました: %w", err)
		}
	}
	if err := os.WriteFile(path, out.Bytes(), 0o644); err != nil {
		return fmt.Errorf("HTMLファイルへの書き込みに失敗しました: %w", err)
	}
	return nil
}

const htmlPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
</head>
<body>
%s</body>
</html>
`
