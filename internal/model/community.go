package model

import "time"

// Idea はコミュニティに投稿されたアイデアを表す。
// commentsはideasテーブルのjsonbカラムに埋め込みで格納する。
type Idea struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Author      string        `json:"author"`
	AuthorName  string        `json:"author_name,omitempty"`
	Comments    []IdeaComment `json:"comments"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// IdeaComment はアイデアに埋め込まれるコメントを表す。
// 投稿者名とアバターURLを非正規化して保持する。
type IdeaComment struct {
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Avatar    string    `json:"avatar,omitempty"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// IdeaList はアイデア一覧レスポンスのキャッシュ単位。
type IdeaList struct {
	Ideas      []*Idea    `json:"ideas"`
	Pagination Pagination `json:"pagination"`
}

// CommunityResource はコミュニティで共有された学習リソースを表す。
type CommunityResource struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	ResourceType string    `json:"resourceType"`
	URL          string    `json:"url"`
	AddedBy      string    `json:"addedBy"`
	AddedByName  string    `json:"added_by_name,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ResourceTypes はコミュニティリソースの有効タイプ一覧。
var ResourceTypes = []string{"PDF", "VIDEO", "TOOL"}

// IsValidResourceType は指定タイプが有効かどうかを返す。
func IsValidResourceType(t string) bool {
	for _, v := range ResourceTypes {
		if v == t {
			return true
		}
	}
	return false
}
