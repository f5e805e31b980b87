package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/go-doc-exact/internal/config"
	"github.com/shouni/go-doc-exact/pkg/httpclient"
	"github.com/shouni/go-doc-exact/pkg/types"
)

const startPage = `<html><body>
<nav class="md-nav md-nav--primary">
  <a class="md-nav__link" href="intro/">Intro</a>
  <a class="md-nav__link" href="broken/">Broken</a>
  <a class="md-nav__link" href="empty/">Empty</a>
  <a class="md-nav__link" href="callbacks">Callbacks</a>
  <a class="md-nav__link" href="intro/">Intro again</a>
</nav>
</body></html>`

// docSite は MkDocs 風のドキュメントサイトを模したテストサーバーです。
type docSite struct {
	mu   sync.Mutex
	hits map[string]int
}

func (s *docSite) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.hits[r.URL.Path]++
	s.mu.Unlock()

	switch r.URL.Path {
	case "/lua/":
		_, _ = w.Write([]byte(startPage))
	case "/lua/intro/":
		_, _ = w.Write([]byte(`<html><body><div class="md-content"><h1>Introduction</h1><p>Use <code>print</code>.</p></div></body></html>`))
	case "/lua/broken/":
		http.Error(w, "boom", http.StatusInternalServerError)
	case "/lua/empty/":
		_, _ = w.Write([]byte(`<html><body><main>no content region</main></body></html>`))
	case "/lua/callbacks":
		_, _ = w.Write([]byte(`<html><body><div class="md-content"><ul><li>Draw</li><li>CreateMove</li></ul></div></body></html>`))
	case "/feed.xml":
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(`<?xml version="1.0"?><rss version="2.0"><channel><title>t</title>
<item><title>C</title><link>/lua/callbacks</link></item>
<item><title>I</title><link>/lua/intro/</link></item>
<item><title>C2</title><link>/lua/callbacks</link></item>
</channel></rss>`))
	default:
		http.NotFound(w, r)
	}
}

func (s *docSite) count(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

func newTestConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.StartURL = baseURL + "/lua/"
	cfg.Output = filepath.Join(t.TempDir(), "out", "docs.md")
	cfg.PageDelay = 0
	cfg.Fetch.MaxAttempts = 2
	cfg.Fetch.BaseDelay = 0
	cfg.Fetch.Timeout = 5 * time.Second
	return cfg
}

func newTestPipeline(cfg *config.Config) *Pipeline {
	fetcher := NewFetcher(cfg, nil, httpclient.WithMaxJitter(0))
	return New(cfg, WithFetcher(fetcher))
}

func TestRun(t *testing.T) {
	site := &docSite{hits: map[string]int{}}
	server := httptest.NewServer(site)
	defer server.Close()

	cfg := newTestConfig(t, server.URL)
	result, err := newTestPipeline(cfg).Run(context.Background())
	require.NoError(t, err)

	expected := "# Lmaobox Lua Documentation\n\n" +
		"## Introduction\n\n# Introduction\n\nUse print.\n\n" +
		"## callbacks\n\n- Draw\n- CreateMove\n"

	data, err := os.ReadFile(cfg.Output)
	require.NoError(t, err)
	assert.Equal(t, expected, string(data))
	assert.Equal(t, expected, result.Document.String())
	assert.Equal(t, 2, strings.Count(string(data), "\n## "))

	// 重複リンクは 1 度だけ、失敗したページは全試行分アクセスされる
	assert.Equal(t, []string{
		server.URL + "/lua/intro/",
		server.URL + "/lua/broken/",
		server.URL + "/lua/empty/",
		server.URL + "/lua/callbacks",
	}, result.Links)
	assert.Equal(t, 1, site.count("/lua/intro/"))
	assert.Equal(t, 2, site.count("/lua/broken/"))

	require.Len(t, result.Pages, 4)
	assert.Equal(t, types.StatusOK, result.Pages[0].Status)
	assert.Equal(t, types.StatusFailed, result.Pages[1].Status)
	assert.ErrorIs(t, result.Pages[1].Error, httpclient.ErrFetchFailed)
	assert.Equal(t, types.StatusNoContent, result.Pages[2].Status)
	assert.Equal(t, types.StatusOK, result.Pages[3].Status)
}

func TestRun_ExtraOutputs(t *testing.T) {
	server := httptest.NewServer(&docSite{hits: map[string]int{}})
	defer server.Close()

	cfg := newTestConfig(t, server.URL)
	dir := t.TempDir()
	cfg.Title = "Test Docs"
	cfg.HTMLOutput = filepath.Join(dir, "docs.html")
	cfg.ReportOutput = filepath.Join(dir, "report.md")

	_, err := newTestPipeline(cfg).Run(context.Background())
	require.NoError(t, err)

	html, err := os.ReadFile(cfg.HTMLOutput)
	require.NoError(t, err)
	assert.Contains(t, string(html), "<title>Test Docs</title>")
	assert.Contains(t, string(html), "<h2>Introduction</h2>")

	rep, err := os.ReadFile(cfg.ReportOutput)
	require.NoError(t, err)
	assert.Contains(t, string(rep), "| 検出したリンク | 4 |")
	assert.Contains(t, string(rep), "| 取得失敗 | 1 |")
}

func TestRun_StartPageFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cfg := newTestConfig(t, server.URL)
	result, err := newTestPipeline(cfg).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStartPage))
	assert.Nil(t, result)

	_, statErr := os.Stat(cfg.Output)
	assert.True(t, os.IsNotExist(statErr), "出力ファイルは作成されないこと")
}

func TestRun_EmptyStartPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := newTestConfig(t, server.URL)
	result, err := newTestPipeline(cfg).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStartPage)
	assert.Nil(t, result)

	_, statErr := os.Stat(cfg.Output)
	assert.True(t, os.IsNotExist(statErr), "空の開始ページでは出力ファイルを作成しないこと")
}

func TestRun_NoNavigation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><p>nothing here</p></body></html>`))
	}))
	defer server.Close()

	cfg := newTestConfig(t, server.URL)
	result, err := newTestPipeline(cfg).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.Links)

	data, err := os.ReadFile(cfg.Output)
	require.NoError(t, err)
	assert.Equal(t, "# Lmaobox Lua Documentation\n\n", string(data))
}

func TestRun_Canceled(t *testing.T) {
	server := httptest.NewServer(&docSite{hits: map[string]int{}})
	defer server.Close()

	cfg := newTestConfig(t, server.URL)
	cfg.PageDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	result, err := newTestPipeline(cfg).Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)
	assert.Len(t, result.Pages, 1)

	_, statErr := os.Stat(cfg.Output)
	assert.True(t, os.IsNotExist(statErr))
}

func TestDiscoverLinks_Feed(t *testing.T) {
	site := &docSite{hits: map[string]int{}}
	server := httptest.NewServer(site)
	defer server.Close()

	cfg := newTestConfig(t, server.URL)
	cfg.FeedURL = server.URL + "/feed.xml"

	links, err := newTestPipeline(cfg).DiscoverLinks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{
		server.URL + "/lua/callbacks",
		server.URL + "/lua/intro/",
	}, links)
	assert.Equal(t, 0, site.count("/lua/"), "フィード使用時は開始ページを取得しない")
}

func TestDiscoverLinks_FeedFailure(t *testing.T) {
	server := httptest.NewServer(&docSite{hits: map[string]int{}})
	defer server.Close()

	cfg := newTestConfig(t, server.URL)
	cfg.FeedURL = server.URL + "/missing.xml"

	_, err := newTestPipeline(cfg).DiscoverLinks(context.Background())
	assert.ErrorIs(t, err, ErrFeed)
}

func TestConvertPage(t *testing.T) {
	server := httptest.NewServer(&docSite{hits: map[string]int{}})
	defer server.Close()

	cfg := newTestConfig(t, server.URL)
	page, err := newTestPipeline(cfg).ConvertPage(context.Background(), server.URL+"/lua/intro/")
	require.NoError(t, err)
	assert.True(t, page.HasContent)
	assert.Equal(t, "Introduction", page.Title)
	assert.Equal(t, "# Introduction\n\nUse print.\n\n", page.Markdown)
}
