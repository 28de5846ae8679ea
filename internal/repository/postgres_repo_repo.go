package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Zemon-tech/ZEMON/internal/model"
)

// PostgresRepoRepo はPostgreSQLを使用した共有リポジトリのリポジトリ。
type PostgresRepoRepo struct {
	db *sql.DB
}

// NewPostgresRepoRepo はPostgresRepoRepoを生成する。
func NewPostgresRepoRepo(db *sql.DB) *PostgresRepoRepo {
	return &PostgresRepoRepo{db: db}
}

// 登録者の表示名とアバターをJOINで非正規化して返す。
const repoSelect = `SELECT r.id, r.github_url, r.owner, r.name, r.description,
	        r.stars, r.forks, r.contributors, r.programming_language,
	        r.topics, r.tags, r.likes, r.comments,
	        r.added_by, u.name, u.avatar,
	        r.last_synced, r.created_at, r.updated_at
	 FROM repos r
	 INNER JOIN users u ON r.added_by = u.id`

// FindByID は指定IDのリポジトリを取得する。見つからない場合はnilを返す。
func (r *PostgresRepoRepo) FindByID(ctx context.Context, id string) (*model.Repo, error) {
	row := r.db.QueryRowContext(ctx, repoSelect+` WHERE r.id = $1`, id)

	repo, err := scanRepo(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("リポジトリの取得に失敗しました: %w", err)
	}
	return repo, nil
}

// FindByGitHubURL は正規化済みGitHub URLでリポジトリを検索する。見つからない場合はnilを返す。
func (r *PostgresRepoRepo) FindByGitHubURL(ctx context.Context, githubURL string) (*model.Repo, error) {
	row := r.db.QueryRowContext(ctx, repoSelect+` WHERE r.github_url = $1`, githubURL)

	repo, err := scanRepo(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GitHub URLによるリポジトリの検索に失敗しました: %w", err)
	}
	return repo, nil
}

// List はリポジトリ一覧を登録日時の降順で取得し、総件数とともに返す。
func (r *PostgresRepoRepo) List(ctx context.Context, offset, limit int) ([]*model.Repo, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM repos`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("リポジトリ総件数の取得に失敗しました: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		repoSelect+` ORDER BY r.created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("リポジトリ一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	repos, err := collectRepos(rows)
	if err != nil {
		return nil, 0, err
	}
	return repos, total, nil
}

// ListByUser は指定ユーザーが登録したリポジトリ一覧を返す。
func (r *PostgresRepoRepo) ListByUser(ctx context.Context, userID string) ([]*model.Repo, error) {
	rows, err := r.db.QueryContext(ctx,
		repoSelect+` WHERE r.added_by = $1 ORDER BY r.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("ユーザー別リポジトリ一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return collectRepos(rows)
}

// Create はリポジトリを作成する。
// GitHub URLの一意制約違反はmodel.APIError（DUPLICATE_REPO）として返す。
func (r *PostgresRepoRepo) Create(ctx context.Context, repo *model.Repo) error {
	topics, err := jsonbValue(repo.Topics)
	if err != nil {
		return err
	}
	tags, err := jsonbValue(repo.Tags)
	if err != nil {
		return err
	}
	likes, err := jsonbValue(repo.Likes)
	if err != nil {
		return err
	}
	comments, err := jsonbValue(repo.Comments)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO repos (id, github_url, owner, name, description,
		                    stars, forks, contributors, programming_language,
		                    topics, tags, likes, comments, added_by,
		                    last_synced, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		repo.ID, repo.GitHubURL, repo.Owner, repo.Name, repo.Description,
		repo.Stars, repo.Forks, repo.Contributors, repo.ProgrammingLanguage,
		topics, tags, likes, comments, repo.AddedBy,
		repo.LastSynced, repo.CreatedAt, repo.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return model.NewDuplicateRepoError()
	}
	if err != nil {
		return fmt.Errorf("リポジトリの作成に失敗しました: %w", err)
	}
	return nil
}

// Update はリポジトリの全可変カラムを更新する。
func (r *PostgresRepoRepo) Update(ctx context.Context, repo *model.Repo) error {
	topics, err := jsonbValue(repo.Topics)
	if err != nil {
		return err
	}
	tags, err := jsonbValue(repo.Tags)
	if err != nil {
		return err
	}
	likes, err := jsonbValue(repo.Likes)
	if err != nil {
		return err
	}
	comments, err := jsonbValue(repo.Comments)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE repos SET
		    description = $2, stars = $3, forks = $4, contributors = $5,
		    programming_language = $6, topics = $7, tags = $8,
		    likes = $9, comments = $10, last_synced = $11, updated_at = $12
		 WHERE id = $1`,
		repo.ID, repo.Description, repo.Stars, repo.Forks, repo.Contributors,
		repo.ProgrammingLanguage, topics, tags, likes, comments,
		repo.LastSynced, repo.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("リポジトリの更新に失敗しました: %w", err)
	}
	return nil
}

// Delete は指定IDのリポジトリを削除する。
func (r *PostgresRepoRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM repos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("リポジトリの削除に失敗しました: %w", err)
	}
	return nil
}

// rowScanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

// scanRepo は1行分のリポジトリデータを読み取る。
func scanRepo(row rowScanner) (*model.Repo, error) {
	repo := &model.Repo{}
	var topics, tags, likes, comments []byte

	if err := row.Scan(
		&repo.ID, &repo.GitHubURL, &repo.Owner, &repo.Name, &repo.Description,
		&repo.Stars, &repo.Forks, &repo.Contributors, &repo.ProgrammingLanguage,
		&topics, &tags, &likes, &comments,
		&repo.AddedBy, &repo.AddedByName, &repo.AddedByAvatar,
		&repo.LastSynced, &repo.CreatedAt, &repo.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if err := scanJSONB(topics, &repo.Topics); err != nil {
		return nil, err
	}
	if err := scanJSONB(tags, &repo.Tags); err != nil {
		return nil, err
	}
	if err := scanJSONB(likes, &repo.Likes); err != nil {
		return nil, err
	}
	if err := scanJSONB(comments, &repo.Comments); err != nil {
		return nil, err
	}

	return repo, nil
}

// collectRepos は結果セットの全行を読み取る。
func collectRepos(rows *sql.Rows) ([]*model.Repo, error) {
	var repos []*model.Repo
	for rows.Next() {
		repo, err := scanRepo(rows)
		if err != nil {
			return nil, fmt.Errorf("リポジトリの読み取りに失敗しました: %w", err)
		}
		repos = append(repos, repo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("リポジトリ一覧の走査に失敗しました: %w", err)
	}
	return repos, nil
}

// compile-time interface check
var _ RepoRepository = (*PostgresRepoRepo)(nil)
