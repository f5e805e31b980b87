package types

// Status は 1 ページ分の処理結果の種類です。
type Status string

const (
	// StatusOK は本文を変換して出力に追加したことを示します。
	StatusOK Status = "ok"
	// StatusNoContent は取得には成功したが本文領域がなかったことを示します。
	StatusNoContent Status = "no-content"
	// StatusFailed は全ての試行で取得に失敗したことを示します。
	StatusFailed Status = "failed"
)

// PageResult は、特定のURLの処理結果、またはその処理中に発生したエラーを保持します。
// これは、Scraperの出力、クロールレポートの入力として利用されます。
type PageResult struct {
	URL    string // 処理対象のURL
	Title  string // 出力に使った見出し (StatusOK の場合のみ)
	Status Status // 処理結果
	Bytes  int    // 変換後の本文の長さ (バイト)
	Error  error  // 処理中に発生したエラー
}

// Counts はステータスごとの件数を返します。
func Counts(results []PageResult) map[Status]int {
	counts := map[Status]int{
		StatusOK:        0,
		StatusNoContent: 0,
		StatusFailed:    0,
	}
	for _, r := range results {
		counts[r.Status]++
	}
	return counts
}
