package logging

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// Prefix は全ての診断メッセージに付く接頭辞です。
const Prefix = "doc-exact"

// New は w に書き出す charmbracelet/log のロガーを生成します。
// verbose の場合は Debug レベルまで出力します。
func New(w io.Writer, verbose bool) *log.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		Prefix:          Prefix,
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
	})
}

// Discard は何も出力しないロガーを返します。
func Discard() *log.Logger {
	return log.New(io.Discard)
}
