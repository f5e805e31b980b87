package document

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	assert.Equal(t, "# Lmaobox Lua Documentation\n\n", New("").String())
	assert.Equal(t, "# My Docs\n\n", New("My Docs").String())
}

func TestAddSection(t *testing.T) {
	d := New("Docs")
	d.AddSection("Intro", "# Intro\n\nHello\n\n")
	d.AddSection("callbacks", "- a\n")

	expected := "# Docs\n\n" +
		"## Intro\n\n# Intro\n\nHello\n\n" +
		"## callbacks\n\n- a\n"
	assert.Equal(t, expected, d.String())
	assert.Equal(t, 2, d.Sections())
	assert.Equal(t, len(expected), d.Len())
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.md")

	d := New("Docs")
	d.AddSection("日本語", "本文\n\n")
	require.NoError(t, d.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, d.String(), string(data))
}

func TestWriteFile_Error(t *testing.T) {
	dir := t.TempDir()
	// ディレクトリをファイルとして書き込もうとすると失敗する
	err := New("Docs").WriteFile(dir)
	assert.Error(t, err)
}

func TestRenderHTML(t *testing.T) {
	d := New("A & B")
	d.AddSection("Usage", "Call `draw.Line`.\n\n```\nprint(1)\n```\n")

	var out bytes.Buffer
	require.NoError(t, d.RenderHTML(&out))

	html := out.String()
	assert.Contains(t, html, "<title>A &amp; B</title>")
	assert.Contains(t, html, "<h2>Usage</h2>")
	assert.Contains(t, html, "<code>draw.Line</code>")
	assert.Contains(t, html, "<pre><code>print(1)\n</code></pre>")
}

func TestWriteHTMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.html")
	require.NoError(t, New("Docs").WriteHTMLFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<h1>Docs</h1>")
}
