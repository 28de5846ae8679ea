package cache

import "fmt"

// キャッシュキーの構築関数群。
// キーの形式はリソース種別をプレフィックスとし、リスト系キーは
// ページネーションとフィルタの全パラメータをキーに含める。
// フィルタ未指定は "all" として正規化する。

// RepoListKey はリポジトリ一覧のキャッシュキーを返す。
func RepoListKey(page, limit int) string {
	return fmt.Sprintf("repos:all:%d:%d", page, limit)
}

// RepoKey はリポジトリ詳細のキャッシュキーを返す。
func RepoKey(id string) string {
	return "repos:" + id
}

// UserReposKey はユーザー別リポジトリ一覧のキャッシュキーを返す。
func UserReposKey(userID string) string {
	return "repos:user:" + userID
}

// EventListKey はイベント一覧のキャッシュキーを返す。
// eventTypeとstatusは未指定の場合 "all" に正規化される。
func EventListKey(page, limit int, eventType, status string) string {
	return fmt.Sprintf("events:all:%d:%d:%s:%s", page, limit, orAll(eventType), orAll(status))
}

// EventKey はイベント詳細のキャッシュキーを返す。
func EventKey(id string) string {
	return "events:" + id
}

// UpcomingEventsKey は開催予定イベント一覧のキャッシュキー。
const UpcomingEventsKey = "events:upcoming"

// NewsListKey はニュース一覧のキャッシュキーを返す。
func NewsListKey(page, limit int, category string) string {
	return fmt.Sprintf("news:all:%d:%d:%s", page, limit, orAll(category))
}

// NewsKey はニュース詳細のキャッシュキーを返す。
func NewsKey(id string) string {
	return "news:" + id
}

// StoreListKey はストアアイテム一覧のキャッシュキーを返す。
func StoreListKey(page, limit int, category, status string) string {
	return fmt.Sprintf("store:items:%d:%d:%s:%s", page, limit, orAll(category), orAll(status))
}

// StoreItemKey はストアアイテム詳細のキャッシュキーを返す。
func StoreItemKey(id string) string {
	return "store:item:" + id
}

// UserToolsKey はユーザーが公開したツール一覧のキャッシュキーを返す。
func UserToolsKey(userID string) string {
	return "store:user:tools:" + userID
}

// IdeaListKey はアイデア一覧のキャッシュキーを返す。
func IdeaListKey(page, limit int) string {
	return fmt.Sprintf("ideas:all:%d:%d", page, limit)
}

// IdeaKey はアイデア詳細のキャッシュキーを返す。
func IdeaKey(id string) string {
	return "ideas:" + id
}

// リソース種別ごとの無効化パターン。
// 作成時はリソース配下の全キー、更新・削除時はリスト系キーのみを無効化する。
const (
	RepoPattern      = "repos:*"
	RepoListPattern  = "repos:all:*"
	EventPattern     = "events:*"
	EventListPattern = "events:all:*"
	NewsPattern      = "news:*"
	NewsListPattern  = "news:all:*"
	StorePattern     = "store:*"
	StoreListPattern = "store:items:*"
	IdeaPattern      = "ideas:*"
	IdeaListPattern  = "ideas:all:*"
)

func orAll(s string) string {
	if s == "" {
		return "all"
	}
	return s
}
