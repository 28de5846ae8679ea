// Package model はドメインモデルを定義する。
package model

import "time"

// User は登録ユーザーを表す。
// PasswordHashはAPIレスポンスに含めない。
type User struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	PasswordHash    string     `json:"-"`
	Name            string     `json:"name"`
	DisplayName     string     `json:"displayName,omitempty"`
	Avatar          string     `json:"avatar,omitempty"`
	Role            Role       `json:"role"`
	Company         string     `json:"company,omitempty"`
	GitHub          string     `json:"github,omitempty"`
	GitHubUsername  string     `json:"github_username,omitempty"`
	LinkedIn        string     `json:"linkedin,omitempty"`
	PersonalWebsite string     `json:"personalWebsite,omitempty"`
	Education       *Education `json:"education,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// Role はユーザーの権限区分を表す。
type Role string

const (
	// RoleUser は一般ユーザー。
	RoleUser Role = "user"
	// RoleAdmin は管理者。
	RoleAdmin Role = "admin"
)

// Education はユーザーの学歴情報。usersテーブルのjsonbカラムに格納する。
type Education struct {
	University     string `json:"university,omitempty"`
	GraduationYear int    `json:"graduationYear,omitempty"`
}

// PublicProfile は公開プロフィール表示用のユーザー情報を返す。
// メールアドレスなどの非公開情報を除外する。
func (u *User) PublicProfile() map[string]any {
	return map[string]any{
		"id":              u.ID,
		"name":            u.Name,
		"displayName":     u.DisplayName,
		"avatar":          u.Avatar,
		"company":         u.Company,
		"github":          u.GitHub,
		"linkedin":        u.LinkedIn,
		"personalWebsite": u.PersonalWebsite,
		"education":       u.Education,
	}
}
