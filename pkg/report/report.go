package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	textUtils "github.com/shouni/go-utils/text"

	"github.com/shouni/go-doc-exact/pkg/types"
)

// Summary はクロール 1 回分の集計です。
type Summary struct {
	Title    string
	StartURL string
	Output   string
	Results  []types.PageResult
}

// Write はクロール結果を Markdown のレポートとして w に書き出します。
// 戻り値は書き出したバイト数です。
func Write(w io.Writer, s Summary) (int, error) {
	md := markdown.NewMarkdown(w)

	// 1. ヘッダー
	md.H1(textUtils.NormalizeText(s.Title) + " クロールレポート")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"項目", "値"},
		Rows: [][]string{
			{"開始URL", "`" + s.StartURL + "`"},
			{"出力ファイル", "`" + s.Output + "`"},
		},
	})
	md.PlainText("")

	// 2. 集計
	writeSummary(md, s.Results)

	// 3. ページ一覧
	writePages(md, s.Results)

	return len(md.String()), md.Build()
}

func writeSummary(md *markdown.Markdown, results []types.PageResult) {
	counts := types.Counts(results)

	md.H2("集計")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"結果", "件数"},
		Rows: [][]string{
			{"検出したリンク", strconv.Itoa(len(results))},
			{"変換済み", strconv.Itoa(counts[types.StatusOK])},
			{"本文なし", strconv.Itoa(counts[types.StatusNoContent])},
			{"取得失敗", strconv.Itoa(counts[types.StatusFailed])},
		},
		Alignment: []markdown.TableAlignment{markdown.AlignLeft, markdown.AlignRight},
	})
	md.PlainText("")

	if len(results) == 0 {
		return
	}

	chart := piechart.NewPieChart(io.Discard, piechart.WithTitle("ページの処理結果"), piechart.WithShowData(true))
	for _, st := range []types.Status{types.StatusOK, types.StatusNoContent, types.StatusFailed} {
		if counts[st] > 0 {
			chart.LabelAndIntValue(string(st), uint64(counts[st]))
		}
	}
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")

	if counts[types.StatusFailed] > 0 {
		md.Warningf("%d 件のページを取得できませんでした。出力には含まれていません。", counts[types.StatusFailed])
		md.PlainText("")
	}
}

func writePages(md *markdown.Markdown, results []types.PageResult) {
	md.H2("ページ")
	md.PlainText("")

	if len(results) == 0 {
		md.PlainText("リンクが見つかりませんでした。")
		return
	}

	rows := make([][]string, 0, len(results))
	for i, r := range results {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			string(r.Status),
			textUtils.NormalizeText(r.Title),
			r.URL,
			strconv.Itoa(r.Bytes),
		})
	}
	md.Table(markdown.TableSet{
		Header:    []string{"#", "結果", "タイトル", "URL", "バイト"},
		Rows:      rows,
		Alignment: []markdown.TableAlignment{markdown.AlignRight},
	})
}
