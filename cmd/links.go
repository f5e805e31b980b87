package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// links コマンドのフラグ
var (
	linksURL  string
	linksFeed string
)

var linksCmd = &cobra.Command{
	Use:   "links",
	Short: "クロール対象のページ一覧を表示します (取得は開始ページのみ)",
	Long:  `開始ページのナビゲーション、または --feed で指定したRSS/Atomフィードから、crawl が処理するリンクを順番に表示します。`,
	Args:  cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := *globalConfig
		if linksURL != "" {
			u, err := ensureScheme(linksURL)
			if err != nil {
				return fmt.Errorf("URLスキームの処理エラー: %w", err)
			}
			cfg.StartURL = u
		}
		if linksFeed != "" {
			u, err := ensureScheme(linksFeed)
			if err != nil {
				return fmt.Errorf("URLスキームの処理エラー: %w", err)
			}
			cfg.FeedURL = u
		}

		p, err := newPipeline(&cfg)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), overallTimeout(&cfg.Fetch))
		defer cancel()

		links, err := p.DiscoverLinks(ctx)
		if err != nil {
			return fmt.Errorf("リンクの取得エラー: %w", err)
		}

		out := cmd.OutOrStdout()
		for i, link := range links {
			fmt.Fprintf(out, "[%d] %s\n", i+1, link)
		}
		fmt.Fprintf(out, "合計: %d 件\n", len(links))
		return nil
	},
}

func init() {
	linksCmd.Flags().StringVarP(&linksURL, "url", "u", "", "開始ページのURL (未指定時は設定の start_url)")
	linksCmd.Flags().StringVar(&linksFeed, "feed", "", "リンク一覧として使うRSS/AtomフィードのURL")
}
