package model

import "time"

// News はテックニュース記事を表す。
// likes/commentsはnewsテーブルのjsonbカラムに埋め込みで格納する。
// SourceURLはRSSインポータが取り込んだ記事の重複排除キー（手動投稿では空）。
type News struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Excerpt   string    `json:"excerpt,omitempty"`
	Category  string    `json:"category"`
	Image     string    `json:"image,omitempty"`
	Tags      []string  `json:"tags"`
	SourceURL string    `json:"source_url,omitempty"`
	Views     int       `json:"views"`
	Likes     []string  `json:"likes"`
	Comments  []Comment `json:"comments"`
	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ToggleLike は指定ユーザーのいいねをトグルする。
func (n *News) ToggleLike(userID string) {
	for i, id := range n.Likes {
		if id == userID {
			n.Likes = append(n.Likes[:i], n.Likes[i+1:]...)
			return
		}
	}
	n.Likes = append(n.Likes, userID)
}

// NewsList はニュース一覧レスポンスのキャッシュ単位。
type NewsList struct {
	News       []*News    `json:"news"`
	Pagination Pagination `json:"pagination"`
}
