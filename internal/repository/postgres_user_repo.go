package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"github.com/Zemon-tech/ZEMON/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

const userColumns = `id, email, password_hash, name, display_name, avatar, role,
	        company, github, github_username, linkedin, personal_website,
	        education, created_at, updated_at`

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)

	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	return user, nil
}

// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)

	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("メールアドレスによるユーザーの検索に失敗しました: %w", err)
	}
	return user, nil
}

// Create はユーザーを作成する。
// メールアドレスの一意制約違反はmodel.APIError（DUPLICATE_EMAIL）として返す。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	education, err := marshalEducation(user.Education)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, name, display_name, avatar, role,
		                    company, github, github_username, linkedin, personal_website,
		                    education, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		user.ID, user.Email, user.PasswordHash, user.Name, user.DisplayName,
		user.Avatar, user.Role, user.Company, user.GitHub, user.GitHubUsername,
		user.LinkedIn, user.PersonalWebsite, education,
		user.CreatedAt, user.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return model.NewDuplicateEmailError()
	}
	if err != nil {
		return fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
	}
	return nil
}

// Update はユーザーのプロフィール情報を更新する。
func (r *PostgresUserRepo) Update(ctx context.Context, user *model.User) error {
	education, err := marshalEducation(user.Education)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE users SET
		    name = $2, display_name = $3, avatar = $4, company = $5,
		    github = $6, github_username = $7, linkedin = $8,
		    personal_website = $9, education = $10, updated_at = $11
		 WHERE id = $1`,
		user.ID, user.Name, user.DisplayName, user.Avatar, user.Company,
		user.GitHub, user.GitHubUsername, user.LinkedIn,
		user.PersonalWebsite, education, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("ユーザーの更新に失敗しました: %w", err)
	}
	return nil
}

// scanUser は1行分のユーザーデータを読み取る。
func scanUser(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	var education []byte

	if err := row.Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.Name, &user.DisplayName,
		&user.Avatar, &user.Role, &user.Company, &user.GitHub, &user.GitHubUsername,
		&user.LinkedIn, &user.PersonalWebsite, &education,
		&user.CreatedAt, &user.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if len(education) > 0 {
		user.Education = &model.Education{}
		if err := json.Unmarshal(education, user.Education); err != nil {
			return nil, fmt.Errorf("学歴情報のデコードに失敗しました: %w", err)
		}
	}

	return user, nil
}

// marshalEducation は学歴情報をjsonbカラム用にエンコードする。nilはNULLとして格納する。
func marshalEducation(e *model.Education) ([]byte, error) {
	if e == nil {
		return nil, nil
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("学歴情報のエンコードに失敗しました: %w", err)
	}
	return data, nil
}

// isUniqueViolation はPostgreSQLの一意制約違反かどうかを判定する。
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	pqErr, ok := err.(*pq.Error)
	return ok && pqErr.Code == "23505"
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
