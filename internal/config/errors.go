package config

import "errors"

// 設定の検証エラー。Validate が返し、呼び出し側は errors.Is で判別できます。
var (
	// ErrNoStartURL は開始URLが空の場合のエラーです。
	ErrNoStartURL = errors.New("開始URLが指定されていません")
	// ErrInvalidScheme は開始URLまたはフィードURLが http/https ではない場合のエラーです。
	ErrInvalidScheme = errors.New("URLのスキームは http または https である必要があります")
	// ErrInvalidAttempts は試行回数が 1 未満の場合のエラーです。
	ErrInvalidAttempts = errors.New("試行回数は 1 以上である必要があります")
	// ErrInvalidDelay は待機時間が負の場合のエラーです。
	ErrInvalidDelay = errors.New("待機時間は 0 以上である必要があります")
	// ErrInvalidTimeout はタイムアウトが正でない場合のエラーです。
	ErrInvalidTimeout = errors.New("タイムアウトは正の値である必要があります")
	// ErrNoOutput は出力パスが空の場合のエラーです。
	ErrNoOutput = errors.New("出力ファイルが指定されていません")
)
