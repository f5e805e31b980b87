package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var convertURL string

var convertCmd = &cobra.Command{
	Use:   "convert [URL]",
	Short: "1ページの本文をMarkdownに変換して標準出力に表示します",
	Long:  `指定したページを取得し、本文領域を crawl と同じ規則で Markdown に変換して表示します。`,
	Args:  cobra.MaximumNArgs(1),

	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. 処理対象URLの決定 (フラグ優先)
		target := convertURL
		if target == "" && len(args) > 0 {
			target = args[0]
		}
		if target == "" {
			return fmt.Errorf("URLが指定されていません")
		}

		processedURL, err := ensureScheme(target)
		if err != nil {
			return fmt.Errorf("URLスキームの処理エラー: %w", err)
		}

		// 2. 依存性の初期化
		cfg := *globalConfig
		p, err := newPipeline(&cfg)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), overallTimeout(&cfg.Fetch))
		defer cancel()

		// 3. 取得と変換
		page, err := p.ConvertPage(ctx, processedURL)
		if err != nil {
			return fmt.Errorf("コンテンツ変換エラー (URL: %s): %w", processedURL, err)
		}

		// 4. 結果の出力
		out := cmd.OutOrStdout()
		if !page.HasContent {
			fmt.Fprintf(out, "本文領域 (%s) が見つかりませんでした\n", cfg.Selectors.Content)
			return nil
		}
		fmt.Fprintf(out, "## %s\n\n%s", page.Title, page.Markdown)
		return nil
	},
}

func init() {
	convertCmd.Flags().StringVarP(&convertURL, "url", "u", "", "変換対象のURL")
}
