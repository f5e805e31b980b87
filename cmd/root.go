package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	clibase "github.com/shouni/go-cli-base"
	"github.com/spf13/cobra"

	"github.com/shouni/go-doc-exact/internal/config"
	"github.com/shouni/go-doc-exact/internal/logging"
	"github.com/shouni/go-doc-exact/internal/pipeline"
	"github.com/shouni/go-doc-exact/pkg/httpclient"
	"github.com/shouni/go-doc-exact/pkg/retry"
)

// --- グローバル定数 ---

const (
	appName           = "doc-exact"
	defaultTimeoutSec = int(httpclient.DefaultHTTPTimeout / time.Second) // 秒
	defaultMaxRetries = retry.DefaultMaxAttempts                         // 初回を含む試行回数
)

// --- グローバル変数とフラグ構造体 ---

// AppFlags はこのアプリケーション固有の永続フラグを保持
type AppFlags struct {
	TimeoutSec int           // --timeout タイムアウト
	MaxRetries int           // --max-retries 初回を含む最大試行回数
	BaseDelay  time.Duration // --base-delay バックオフの基準待機時間
	ConfigPath string        // --config 設定ファイル
}

var (
	Flags AppFlags // アプリケーション固有フラグにアクセスするためのグローバル変数

	globalConfig  *config.Config
	globalLogger  *log.Logger
	globalFetcher *httpclient.Client
)

// --- 初期化とロジック (clibaseへのコールバックとして利用) ---

// addAppPersistentFlags は、アプリケーション固有の永続フラグをルートコマンドに追加します。
func addAppPersistentFlags(rootCmd *cobra.Command) {
	rootCmd.PersistentFlags().IntVar(
		&Flags.TimeoutSec,
		"timeout",
		defaultTimeoutSec,
		"HTTPリクエストのタイムアウト時間（秒）",
	)
	rootCmd.PersistentFlags().IntVar(
		&Flags.MaxRetries,
		"max-retries",
		defaultMaxRetries,
		"HTTPリクエストの最大試行回数（初回を含む）",
	)
	rootCmd.PersistentFlags().DurationVar(
		&Flags.BaseDelay,
		"base-delay",
		retry.DefaultBaseDelay,
		"リトライ待機の基準時間（試行ごとに2倍）",
	)
	rootCmd.PersistentFlags().StringVar(
		&Flags.ConfigPath,
		"config",
		"",
		"設定ファイル (YAML) のパス。未指定時は ./.doc-exact.yaml、$XDG_CONFIG_HOME/doc-exact/config.yaml を探します",
	)
}

// initAppPreRunE は、clibase共通処理の後に実行される、アプリケーション固有のPersistentPreRunEです。
// NOTE: clibaseの PersistentPreRunE チェーンにより、clibase.Flags.Verbose はこの関数実行前に設定済み
func initAppPreRunE(cmd *cobra.Command, args []string) error {
	globalLogger = logging.New(os.Stderr, clibase.Flags.Verbose)

	// 1. 既定値 < 設定ファイル < 環境変数
	cfg, err := config.Load(Flags.ConfigPath)
	if err != nil {
		return fmt.Errorf("設定の読み込みに失敗しました: %w", err)
	}

	// 2. < コマンドラインフラグ
	applyRootFlags(cmd, cfg)
	globalConfig = cfg

	globalLogger.Debug("HTTPクライアントを設定しました",
		"timeout", cfg.Fetch.Timeout,
		"max_attempts", cfg.Fetch.MaxAttempts,
		"base_delay", cfg.Fetch.BaseDelay,
	)

	// 共有フェッチャーの初期化
	globalFetcher = pipeline.NewFetcher(cfg, globalLogger)
	return nil
}

// applyRootFlags は明示的に指定された永続フラグだけを設定に反映します。
func applyRootFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("timeout") {
		cfg.Fetch.Timeout = time.Duration(Flags.TimeoutSec) * time.Second
	}
	if flags.Changed("max-retries") && Flags.MaxRetries >= 0 {
		cfg.Fetch.MaxAttempts = uint64(Flags.MaxRetries)
	}
	if flags.Changed("base-delay") {
		cfg.Fetch.BaseDelay = Flags.BaseDelay
	}
}

// GetGlobalFetcher は、初期化されたフェッチャーを返す関数 (DIの代わり)
func GetGlobalFetcher() *httpclient.Client {
	return globalFetcher
}

// newPipeline は共有の設定、ロガー、フェッチャーから Pipeline を生成します。
func newPipeline(cfg *config.Config) (*pipeline.Pipeline, error) {
	fetcher := GetGlobalFetcher()
	if fetcher == nil {
		return nil, fmt.Errorf("HTTPクライアントの取得に失敗しました")
	}
	return pipeline.New(cfg, pipeline.WithFetcher(fetcher), pipeline.WithLogger(globalLogger)), nil
}

// --- エントリポイント ---

// Execute は、アプリケーションを実行するメイン関数です。clibaseのExecuteを使用する。
func Execute() {
	clibase.Execute(
		appName,
		addAppPersistentFlags,
		initAppPreRunE,
		crawlCmd,
		linksCmd,
		convertCmd,
	)
}
