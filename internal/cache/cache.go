// Package cache はRedisを用いたリードスルーキャッシュを提供する。
// キャッシュ操作はすべてベストエフォートであり、失敗してもエラーを返さず、
// ログとメトリクスに記録した上でデータベースへの読み取りに劣化する。
package cache

import (
	"context"
	"time"
)

// Cache はキャッシュ操作のインターフェース。
// サービス層はこのインターフェース経由でキャッシュを利用し、
// 実装（Redis / 無効）の違いを意識しない。
type Cache interface {
	// Get はキーに対応する値をdestへJSONデコードする。
	// ヒットした場合にtrueを返す。ミス・デコード失敗・接続エラーはすべてfalse。
	Get(ctx context.Context, key string, dest any) bool

	// GetMany は複数キーの値を一括取得する。
	// 結果はkeysと同じ長さ・同じ順序で、ミスしたキーの位置はnilになる。
	// 接続エラー時はすべてnilの結果を返す。
	GetMany(ctx context.Context, keys []string) [][]byte

	// Set は値をJSONエンコードしてTTL付きで保存する。
	Set(ctx context.Context, key string, value any, ttl time.Duration)

	// Delete は指定されたキーを削除する。存在しないキーは無視する。
	Delete(ctx context.Context, keys ...string)

	// DeleteByPattern はグロブパターンに一致するキーをすべて削除する。
	DeleteByPattern(ctx context.Context, pattern string)
}

// Noop はキャッシュ無効時の実装。すべての操作が何もしない。
// REDIS_ADDR未設定のデプロイで使用される。
type Noop struct{}

// NewNoop はキャッシュ無効の実装を返す。
func NewNoop() *Noop {
	return &Noop{}
}

// Get は常にミスを返す。
func (*Noop) Get(ctx context.Context, key string, dest any) bool { return false }

// GetMany はすべてミスとして同じ長さのnilスライスを返す。
func (*Noop) GetMany(ctx context.Context, keys []string) [][]byte {
	return make([][]byte, len(keys))
}

// Set は何もしない。
func (*Noop) Set(ctx context.Context, key string, value any, ttl time.Duration) {}

// Delete は何もしない。
func (*Noop) Delete(ctx context.Context, keys ...string) {}

// DeleteByPattern は何もしない。
func (*Noop) DeleteByPattern(ctx context.Context, pattern string) {}
