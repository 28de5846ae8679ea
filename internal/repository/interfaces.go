// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/Zemon-tech/ZEMON/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。
	Create(ctx context.Context, user *model.User) error

	// Update はユーザーのプロフィール情報を更新する。
	Update(ctx context.Context, user *model.User) error
}

// RepoRepository は共有リポジトリデータの永続化インターフェース。
type RepoRepository interface {
	// FindByID は指定IDのリポジトリを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Repo, error)

	// FindByGitHubURL は正規化済みGitHub URLでリポジトリを検索する。
	// 重複登録チェックに使用する。見つからない場合はnilを返す。
	FindByGitHubURL(ctx context.Context, githubURL string) (*model.Repo, error)

	// List はリポジトリ一覧を登録日時の降順で取得し、総件数とともに返す。
	List(ctx context.Context, offset, limit int) ([]*model.Repo, int, error)

	// ListByUser は指定ユーザーが登録したリポジトリ一覧を返す。
	ListByUser(ctx context.Context, userID string) ([]*model.Repo, error)

	// Create はリポジトリを作成する。
	Create(ctx context.Context, repo *model.Repo) error

	// Update はリポジトリの全可変カラム（メタデータ・likes・comments）を更新する。
	Update(ctx context.Context, repo *model.Repo) error

	// Delete は指定IDのリポジトリを削除する。
	Delete(ctx context.Context, id string) error
}

// EventRepository はイベントデータの永続化インターフェース。
type EventRepository interface {
	// FindByID は指定IDのイベントを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Event, error)

	// List はイベント一覧を開始日時の昇順で取得し、総件数とともに返す。
	// eventTypeが空でない場合は種別で絞り込む。
	// statusが空でない場合はnowを基準とした日付条件に変換して絞り込む
	// （upcoming: start_date > now, ongoing: start_date <= now <= end_date, past: end_date < now）。
	List(ctx context.Context, offset, limit int, eventType string, status model.EventStatus, now time.Time) ([]*model.Event, int, error)

	// ListUpcoming は開催予定イベントを開始日時の昇順で取得する。
	ListUpcoming(ctx context.Context, now time.Time, limit int) ([]*model.Event, error)

	// Create はイベントを作成する。
	Create(ctx context.Context, event *model.Event) error

	// Update はイベントの全可変カラム（詳細・attendees）を更新する。
	Update(ctx context.Context, event *model.Event) error

	// Delete は指定IDのイベントを削除する。
	Delete(ctx context.Context, id string) error

	// IncrementViews は閲覧数をアトミックにインクリメントする。
	IncrementViews(ctx context.Context, id string) error
}

// NewsRepository はニュースデータの永続化インターフェース。
type NewsRepository interface {
	// FindByID は指定IDのニュース記事を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.News, error)

	// FindBySourceURL はRSS取り込み元URLで記事を検索する。
	// インポータの重複排除に使用する。見つからない場合はnilを返す。
	FindBySourceURL(ctx context.Context, sourceURL string) (*model.News, error)

	// List はニュース一覧を作成日時の降順で取得し、総件数とともに返す。
	// categoryが空でない場合はカテゴリで絞り込む。
	List(ctx context.Context, offset, limit int, category string) ([]*model.News, int, error)

	// Create はニュース記事を作成する。
	Create(ctx context.Context, news *model.News) error

	// Update はニュース記事の全可変カラム（本文・likes・comments）を更新する。
	Update(ctx context.Context, news *model.News) error

	// Delete は指定IDのニュース記事を削除する。
	Delete(ctx context.Context, id string) error

	// IncrementViews は閲覧数をアトミックにインクリメントする。
	IncrementViews(ctx context.Context, id string) error
}

// StoreRepository はストアアイテムデータの永続化インターフェース。
type StoreRepository interface {
	// FindByID は指定IDのストアアイテムを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.StoreItem, error)

	// List はストアアイテム一覧を作成日時の降順で取得し、総件数とともに返す。
	// category/statusが空でない場合はそれぞれで絞り込む。
	List(ctx context.Context, offset, limit int, category, status string) ([]*model.StoreItem, int, error)

	// ListByAuthor は指定ユーザーが公開したアイテム一覧を返す。
	ListByAuthor(ctx context.Context, userID string) ([]*model.StoreItem, error)

	// Create はストアアイテムを作成する。
	Create(ctx context.Context, item *model.StoreItem) error

	// Update はストアアイテムの全可変カラム（詳細・reviews・集計値）を更新する。
	Update(ctx context.Context, item *model.StoreItem) error

	// Delete は指定IDのストアアイテムを削除する。
	Delete(ctx context.Context, id string) error

	// IncrementViews は閲覧数をアトミックにインクリメントする。
	IncrementViews(ctx context.Context, id string) error
}

// IdeaRepository はアイデアデータの永続化インターフェース。
type IdeaRepository interface {
	// FindByID は指定IDのアイデアを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Idea, error)

	// List はアイデア一覧を作成日時の降順で取得し、総件数とともに返す。
	List(ctx context.Context, offset, limit int) ([]*model.Idea, int, error)

	// Create はアイデアを作成する。
	Create(ctx context.Context, idea *model.Idea) error

	// Update はアイデアの全可変カラム（本文・comments）を更新する。
	Update(ctx context.Context, idea *model.Idea) error

	// Delete は指定IDのアイデアを削除する。
	Delete(ctx context.Context, id string) error
}

// ResourceRepository はコミュニティリソースデータの永続化インターフェース。
type ResourceRepository interface {
	// FindByID は指定IDのリソースを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.CommunityResource, error)

	// List はリソース一覧を作成日時の降順で全件取得する。
	List(ctx context.Context) ([]*model.CommunityResource, error)

	// Create はリソースを作成する。
	Create(ctx context.Context, resource *model.CommunityResource) error

	// Delete は指定IDのリソースを削除する。
	Delete(ctx context.Context, id string) error
}
