package model

import "time"

// Repo は共有されたオープンソースリポジトリを表す。
// likes/commentsはreposテーブルのjsonbカラムに埋め込みで格納する。
type Repo struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Owner               string    `json:"owner"`
	GitHubURL           string    `json:"github_url"`
	Description         string    `json:"description,omitempty"`
	Stars               int       `json:"stars"`
	Forks               int       `json:"forks"`
	Contributors        int       `json:"contributors"`
	ProgrammingLanguage string    `json:"programming_language"`
	Topics              []string  `json:"topics"`
	Tags                []string  `json:"tags"`
	Likes               []string  `json:"likes"`
	Comments            []Comment `json:"comments"`
	AddedBy             string    `json:"added_by"`
	AddedByName         string    `json:"added_by_name,omitempty"`
	AddedByAvatar       string    `json:"added_by_avatar,omitempty"`
	LastSynced          time.Time `json:"last_synced"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// Comment はリポジトリ・ニュースに埋め込まれるコメントを表す。
type Comment struct {
	UserID    string    `json:"user"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// HasLike は指定ユーザーがすでにいいね済みかどうかを返す。
func (r *Repo) HasLike(userID string) bool {
	for _, id := range r.Likes {
		if id == userID {
			return true
		}
	}
	return false
}

// ToggleLike は指定ユーザーのいいねをトグルする。
// すでに存在する場合は取り除き、存在しない場合は追加する。
func (r *Repo) ToggleLike(userID string) {
	for i, id := range r.Likes {
		if id == userID {
			r.Likes = append(r.Likes[:i], r.Likes[i+1:]...)
			return
		}
	}
	r.Likes = append(r.Likes, userID)
}

// GitHubSnapshot はGitHub APIから取得したリポジトリメタデータのスナップショット。
// 作成時と同期時に毎回取得し、単独ではキャッシュしない。
type GitHubSnapshot struct {
	Owner        string
	Name         string
	Description  string
	Stars        int
	Forks        int
	Contributors int
	Language     string
	Topics       []string
}

// RepoList はリポジトリ一覧レスポンスのキャッシュ単位。
type RepoList struct {
	Repos      []*Repo    `json:"repos"`
	Pagination Pagination `json:"pagination"`
}
