package report

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/go-doc-exact/pkg/types"
)

func TestWrite(t *testing.T) {
	results := []types.PageResult{
		{URL: "https://example.com/lua/a", Title: "Intro", Status: types.StatusOK, Bytes: 120},
		{URL: "https://example.com/lua/b", Status: types.StatusFailed, Error: errors.New("boom")},
		{URL: "https://example.com/lua/c", Status: types.StatusNoContent},
	}

	var buf bytes.Buffer
	n, err := Write(&buf, Summary{
		Title:    "Docs",
		StartURL: "https://example.com/lua/",
		Output:   "out.md",
		Results:  results,
	})
	require.NoError(t, err)
	assert.Equal(t, buf.Len(), n)

	out := buf.String()
	assert.Contains(t, out, "# Docs クロールレポート")
	assert.Contains(t, out, "| 開始URL | `https://example.com/lua/` |")
	assert.Contains(t, out, "| 検出したリンク | 3 |")
	assert.Contains(t, out, "| 変換済み | 1 |")
	assert.Contains(t, out, "| 本文なし | 1 |")
	assert.Contains(t, out, "| 取得失敗 | 1 |")
	assert.Contains(t, out, "| 1 | ok | Intro | https://example.com/lua/a | 120 |")
	assert.Contains(t, out, "```mermaid")
	assert.Contains(t, out, "[!WARNING]")
}

func TestWrite_NoLinks(t *testing.T) {
	var buf bytes.Buffer
	_, err := Write(&buf, Summary{Title: "Docs", StartURL: "https://example.com/", Output: "out.md"})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "| 検出したリンク | 0 |")
	assert.Contains(t, out, "リンクが見つかりませんでした。")
	assert.NotContains(t, out, "```mermaid")
}
