package model

import "time"

// StoreItem は開発者ツールストアの掲載アイテムを表す。
// reviewsはstore_itemsテーブルのjsonbカラムに埋め込みで格納する。
type StoreItem struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Thumbnail     string    `json:"thumbnail,omitempty"`
	Images        []string  `json:"images"`
	URL           string    `json:"url"`
	DevDocs       string    `json:"dev_docs,omitempty"`
	GitHubURL     string    `json:"github_url,omitempty"`
	Category      string    `json:"category"`
	Tags          []string  `json:"tags"`
	Price         string    `json:"price,omitempty"`
	Author        string    `json:"author"`
	AuthorName    string    `json:"author_name,omitempty"`
	Reviews       []Review  `json:"reviews"`
	AverageRating float64   `json:"average_rating"`
	TotalReviews  int       `json:"total_reviews"`
	Views         int       `json:"views"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ストアアイテムの掲載ステータス。
// 現行の設計では作成時に無条件でapprovedが設定され、モデレーション操作は存在しない。
const (
	StoreStatusPending  = "pending"
	StoreStatusApproved = "approved"
	StoreStatusRejected = "rejected"
)

// StoreCategories はストアアイテムの有効カテゴリ一覧。
var StoreCategories = []string{
	"Developer Tools", "Productivity", "Design", "Testing",
	"Analytics", "DevOps", "Security", "Database",
}

// Review はストアアイテムに埋め込まれるレビューを表す。
// 再レビュー時の同一性判定はUserNameで行う（ユーザーIDではない）。
// 表示名が衝突した場合に他ユーザーのレビューを上書きする挙動は元実装を踏襲している。
type Review struct {
	UserID    string    `json:"user_id,omitempty"`
	UserName  string    `json:"user_name"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

// UpsertReview はレビューを追加または上書きし、集計値を再計算する。
func (s *StoreItem) UpsertReview(review Review) {
	replaced := false
	for i := range s.Reviews {
		if s.Reviews[i].UserName == review.UserName {
			s.Reviews[i] = review
			replaced = true
			break
		}
	}
	if !replaced {
		s.Reviews = append(s.Reviews, review)
	}
	s.recalcRating()
}

// recalcRating はreviewsからaverage_ratingとtotal_reviewsを再計算する。
func (s *StoreItem) recalcRating() {
	s.TotalReviews = len(s.Reviews)
	if s.TotalReviews == 0 {
		s.AverageRating = 0
		return
	}
	sum := 0
	for _, r := range s.Reviews {
		sum += r.Rating
	}
	s.AverageRating = float64(sum) / float64(s.TotalReviews)
}

// StoreItemList はストアアイテム一覧レスポンスのキャッシュ単位。
type StoreItemList struct {
	Items      []*StoreItem `json:"items"`
	Pagination Pagination   `json:"pagination"`
}
