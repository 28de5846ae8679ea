package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Zemon-tech/ZEMON/internal/model"
)

// PostgresIdeaRepo はPostgreSQLを使用したアイデアリポジトリ。
type PostgresIdeaRepo struct {
	db *sql.DB
}

// NewPostgresIdeaRepo はPostgresIdeaRepoを生成する。
func NewPostgresIdeaRepo(db *sql.DB) *PostgresIdeaRepo {
	return &PostgresIdeaRepo{db: db}
}

const ideaSelect = `SELECT i.id, i.title, i.description, i.author, u.name,
	        i.comments, i.created_at, i.updated_at
	 FROM ideas i
	 INNER JOIN users u ON i.author = u.id`

// FindByID は指定IDのアイデアを取得する。見つからない場合はnilを返す。
func (r *PostgresIdeaRepo) FindByID(ctx context.Context, id string) (*model.Idea, error) {
	row := r.db.QueryRowContext(ctx, ideaSelect+` WHERE i.id = $1`, id)

	idea, err := scanIdea(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("アイデアの取得に失敗しました: %w", err)
	}
	return idea, nil
}

// List はアイデア一覧を作成日時の降順で取得し、総件数とともに返す。
func (r *PostgresIdeaRepo) List(ctx context.Context, offset, limit int) ([]*model.Idea, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ideas`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("アイデア総件数の取得に失敗しました: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		ideaSelect+` ORDER BY i.created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("アイデア一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var ideas []*model.Idea
	for rows.Next() {
		idea, err := scanIdea(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("アイデアの読み取りに失敗しました: %w", err)
		}
		ideas = append(ideas, idea)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("アイデア一覧の走査に失敗しました: %w", err)
	}

	return ideas, total, nil
}

// Create はアイデアを作成する。
func (r *PostgresIdeaRepo) Create(ctx context.Context, idea *model.Idea) error {
	comments, err := jsonbValue(idea.Comments)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO ideas (id, title, description, author, comments, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		idea.ID, idea.Title, idea.Description, idea.Author, comments,
		idea.CreatedAt, idea.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("アイデアの作成に失敗しました: %w", err)
	}
	return nil
}

// Update はアイデアの全可変カラムを更新する。
func (r *PostgresIdeaRepo) Update(ctx context.Context, idea *model.Idea) error {
	comments, err := jsonbValue(idea.Comments)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE ideas SET
		    title = $2, description = $3, comments = $4, updated_at = $5
		 WHERE id = $1`,
		idea.ID, idea.Title, idea.Description, comments, idea.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("アイデアの更新に失敗しました: %w", err)
	}
	return nil
}

// Delete は指定IDのアイデアを削除する。
func (r *PostgresIdeaRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM ideas WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("アイデアの削除に失敗しました: %w", err)
	}
	return nil
}

// scanIdea は1行分のアイデアデータを読み取る。
func scanIdea(row rowScanner) (*model.Idea, error) {
	idea := &model.Idea{}
	var comments []byte

	if err := row.Scan(
		&idea.ID, &idea.Title, &idea.Description, &idea.Author, &idea.AuthorName,
		&comments, &idea.CreatedAt, &idea.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if err := scanJSONB(comments, &idea.Comments); err != nil {
		return nil, err
	}

	return idea, nil
}

// PostgresResourceRepo はPostgreSQLを使用したコミュニティリソースリポジトリ。
type PostgresResourceRepo struct {
	db *sql.DB
}

// NewPostgresResourceRepo はPostgresResourceRepoを生成する。
func NewPostgresResourceRepo(db *sql.DB) *PostgresResourceRepo {
	return &PostgresResourceRepo{db: db}
}

const resourceSelect = `SELECT r.id, r.title, r.description, r.resource_type, r.url,
	        r.added_by, u.name, r.created_at, r.updated_at
	 FROM community_resources r
	 INNER JOIN users u ON r.added_by = u.id`

// FindByID は指定IDのリソースを取得する。見つからない場合はnilを返す。
func (r *PostgresResourceRepo) FindByID(ctx context.Context, id string) (*model.CommunityResource, error) {
	resource := &model.CommunityResource{}
	err := r.db.QueryRowContext(ctx, resourceSelect+` WHERE r.id = $1`, id).Scan(
		&resource.ID, &resource.Title, &resource.Description, &resource.ResourceType, &resource.URL,
		&resource.AddedBy, &resource.AddedByName, &resource.CreatedAt, &resource.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("リソースの取得に失敗しました: %w", err)
	}
	return resource, nil
}

// List はリソース一覧を作成日時の降順で全件取得する。
func (r *PostgresResourceRepo) List(ctx context.Context) ([]*model.CommunityResource, error) {
	rows, err := r.db.QueryContext(ctx, resourceSelect+` ORDER BY r.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("リソース一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var resources []*model.CommunityResource
	for rows.Next() {
		resource := &model.CommunityResource{}
		if err := rows.Scan(
			&resource.ID, &resource.Title, &resource.Description, &resource.ResourceType, &resource.URL,
			&resource.AddedBy, &resource.AddedByName, &resource.CreatedAt, &resource.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("リソースの読み取りに失敗しました: %w", err)
		}
		resources = append(resources, resource)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("リソース一覧の走査に失敗しました: %w", err)
	}

	return resources, nil
}

// Create はリソースを作成する。
func (r *PostgresResourceRepo) Create(ctx context.Context, resource *model.CommunityResource) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO community_resources (id, title, description, resource_type, url,
		                                  added_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		resource.ID, resource.Title, resource.Description, resource.ResourceType, resource.URL,
		resource.AddedBy, resource.CreatedAt, resource.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("リソースの作成に失敗しました: %w", err)
	}
	return nil
}

// Delete は指定IDのリソースを削除する。
func (r *PostgresResourceRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM community_resources WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("リソースの削除に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface checks
var (
	_ IdeaRepository     = (*PostgresIdeaRepo)(nil)
	_ ResourceRepository = (*PostgresResourceRepo)(nil)
)
