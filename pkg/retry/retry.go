package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	// リトライ関連の定数
	DefaultMaxAttempts = 5 // 初回を含む最大試行回数

	// バックオフのカスタム設定
	DefaultBaseDelay = 1 * time.Second
	DefaultMaxJitter = 1 * time.Second

	// maxShift は 2^k の桁あふれを防ぐための上限です。
	maxShift = 30

	// maxWait は待機時間の上限です。これを超える計算結果はこの値に丸めます。
	maxWait = time.Duration(math.MaxInt64)
)

// Operation はリトライ可能な処理を表す関数です。成功時は nil を返します。
type Operation func() error

// ShouldRetryFunc はエラーを受け取り、そのエラーがリトライ可能かどうかを判定する関数です。
type ShouldRetryFunc func(error) bool

// NotifyFunc は失敗した試行の直後、次の待機に入る前に呼び出されます。
// attempt は失敗した試行の番号 (1始まり)、wait は次の試行までの待機時間です。
type NotifyFunc func(err error, attempt int, wait time.Duration)

// Config はリトライ動作を設定するための構造体です。
type Config struct {
	MaxAttempts uint64
	BaseDelay   time.Duration
	MaxJitter   time.Duration
}

// DefaultConfig は推奨されるデフォルト設定を返します。
func DefaultConfig() Config {
	return Config{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		MaxJitter:   DefaultMaxJitter,
	}
}

// JitterBackOff は base * 2^k に [0, MaxJitter) の一様乱数を加えた待機時間を返す backoff.BackOff です。
// k は 0 始まりのリトライ番号です。
type JitterBackOff struct {
	BaseDelay time.Duration
	MaxJitter time.Duration

	attempt    int
	randInt64N func(n int64) int64
}

// NewJitterBackOff は新しい JitterBackOff を生成します。
func NewJitterBackOff(base, jitter time.Duration) *JitterBackOff {
	return &JitterBackOff{
		BaseDelay:  base,
		MaxJitter:  jitter,
		randInt64N: rand.Int64N,
	}
}

// NextBackOff は backoff.BackOff を満たします。
func (b *JitterBackOff) NextBackOff() time.Duration {
	shift := b.attempt
	if shift > maxShift {
		shift = maxShift
	}
	b.attempt++

	wait := maxWait
	if b.BaseDelay <= maxWait>>uint(shift) {
		wait = b.BaseDelay << uint(shift)
	}
	if b.MaxJitter > 0 {
		jitter := time.Duration(b.randInt64N(int64(b.MaxJitter)))
		if wait > maxWait-jitter {
			return maxWait
		}
		wait += jitter
	}
	return wait
}

// Reset は backoff.BackOff を満たします。
func (b *JitterBackOff) Reset() {
	b.attempt = 0
}

// options は Do の任意設定です。
type options struct {
	timer  backoff.Timer
	notify NotifyFunc
}

// Option は Do の挙動を変更する関数型です。
type Option func(*options)

// WithTimer は待機に使うタイマーを差し替えます。テストで実時間の待機を避けるために使用します。
func WithTimer(t backoff.Timer) Option {
	return func(o *options) {
		o.timer = t
	}
}

// WithNotify は各リトライの直前に呼び出される関数を設定します。
func WithNotify(fn NotifyFunc) Option {
	return func(o *options) {
		o.notify = fn
	}
}

// newBackOffPolicy は Config から試行回数とコンテキストを反映した BackOff を組み立てます。
func newBackOffPolicy(ctx context.Context, cfg Config) backoff.BackOff {
	attempts := cfg.MaxAttempts
	if attempts == 0 {
		attempts = 1
	}
	b := backoff.WithMaxRetries(NewJitterBackOff(cfg.BaseDelay, cfg.MaxJitter), attempts-1)
	return backoff.WithContext(b, ctx)
}

// Do は指数バックオフとジッターを使用して操作をリトライします。
// 最大 cfg.MaxAttempts 回まで op を実行し、shouldRetryFn が false を返したエラーでは即座に中止します。
func Do(ctx context.Context, cfg Config, operationName string, op Operation, shouldRetryFn ShouldRetryFunc, opts ...Option) error {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	attempt := 0
	var lastErr error

	// リトライ処理内で実行される実際の操作
	retryableOp := func() error {
		attempt++
		err := op()
		if err == nil {
			return nil // 成功
		}
		lastErr = err

		if shouldRetryFn != nil && !shouldRetryFn(err) {
			return backoff.Permanent(err) // 永続エラーとしてラップし、即時終了
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		if o.notify != nil {
			o.notify(err, attempt, wait)
		}
	}

	err := backoff.RetryNotifyWithTimer(retryableOp, newBackOffPolicy(ctx, cfg), notify, o.timer)
	if err == nil {
		return nil
	}

	// コンテキストキャンセル/タイムアウトのエラー処理
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%sに失敗しました: コンテキストタイムアウト/キャンセル: %w", operationName, ctxErr)
		}
	}

	if shouldRetryFn != nil && lastErr != nil && !shouldRetryFn(lastErr) {
		return fmt.Errorf("致命的なエラーのためリトライを中止: %w", lastErr)
	}

	// リトライ上限到達
	return fmt.Errorf("%sに失敗しました: 最大試行回数 (%d回) に到達。最終エラー: %w", operationName, attempt, lastErr)
}
