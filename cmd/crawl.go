package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/shouni/go-doc-exact/internal/config"
	"github.com/shouni/go-doc-exact/internal/pipeline"
)

// crawl コマンドのフラグ
var crawlOpts struct {
	url    string
	output string
	title  string
	delay  time.Duration
	feed   string
	html   string
	report string
}

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "ドキュメントサイトの全ページを取得し、1つのMarkdownファイルにまとめます",
	Long: `開始ページのナビゲーションからページ一覧を求め、各ページの本文を順番に取得して
Markdown に変換し、1つのファイルに書き出します。取得できなかったページはスキップします。`,
	Args: cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. 設定にフラグを反映して検証
		cfg := *globalConfig
		if err := applyCrawlFlags(cmd, &cfg); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("設定が不正です: %w", err)
		}

		p, err := newPipeline(&cfg)
		if err != nil {
			return err
		}

		// 2. 割り込みで中断できるようにして実行
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		globalLogger.Info("クロールを開始します", "url", cfg.StartURL, "output", cfg.Output)
		if _, err := p.Run(ctx); err != nil {
			if errors.Is(err, pipeline.ErrStartPage) {
				return fmt.Errorf("開始ページを取得できなかったため中止しました: %w", err)
			}
			return fmt.Errorf("クロールの実行エラー: %w", err)
		}
		return nil
	},
}

// applyCrawlFlags は明示的に指定された crawl のフラグだけを設定に反映します。
func applyCrawlFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("url") {
		u, err := ensureScheme(crawlOpts.url)
		if err != nil {
			return fmt.Errorf("URLスキームの処理エラー: %w", err)
		}
		cfg.StartURL = u
	}
	if flags.Changed("feed") {
		u, err := ensureScheme(crawlOpts.feed)
		if err != nil {
			return fmt.Errorf("URLスキームの処理エラー: %w", err)
		}
		cfg.FeedURL = u
	}
	if flags.Changed("output") {
		cfg.Output = crawlOpts.output
	}
	if flags.Changed("title") {
		cfg.Title = crawlOpts.title
	}
	if flags.Changed("delay") {
		cfg.PageDelay = crawlOpts.delay
	}
	if flags.Changed("html") {
		cfg.HTMLOutput = crawlOpts.html
	}
	if flags.Changed("report") {
		cfg.ReportOutput = crawlOpts.report
	}
	return nil
}

func init() {
	defaults := config.Default()

	crawlCmd.Flags().StringVarP(&crawlOpts.url, "url", "u", defaults.StartURL, "クロールを開始するドキュメントのURL")
	crawlCmd.Flags().StringVarP(&crawlOpts.output, "output", "o", defaults.Output, "出力するMarkdownファイルのパス")
	crawlCmd.Flags().StringVar(&crawlOpts.title, "title", defaults.Title, "出力ドキュメントの見出し")
	crawlCmd.Flags().DurationVar(&crawlOpts.delay, "delay", defaults.PageDelay, "ページ取得ごとの待機時間")
	crawlCmd.Flags().StringVar(&crawlOpts.feed, "feed", "", "ナビゲーションの代わりにページ一覧として使うRSS/AtomフィードのURL")
	crawlCmd.Flags().StringVar(&crawlOpts.html, "html", "", "HTMLとしても書き出す場合の出力パス")
	crawlCmd.Flags().StringVar(&crawlOpts.report, "report", "", "クロールレポート (Markdown) の出力パス")
}
