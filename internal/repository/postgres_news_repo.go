package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Zemon-tech/ZEMON/internal/model"
)

// PostgresNewsRepo はPostgreSQLを使用したニュースリポジトリ。
type PostgresNewsRepo struct {
	db *sql.DB
}

// NewPostgresNewsRepo はPostgresNewsRepoを生成する。
func NewPostgresNewsRepo(db *sql.DB) *PostgresNewsRepo {
	return &PostgresNewsRepo{db: db}
}

const newsColumns = `id, title, content, excerpt, image, category, tags,
	        source_url, likes, comments, views, created_by, created_at, updated_at`

// FindByID は指定IDのニュース記事を取得する。見つからない場合はnilを返す。
func (r *PostgresNewsRepo) FindByID(ctx context.Context, id string) (*model.News, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+newsColumns+` FROM news WHERE id = $1`, id)

	news, err := scanNews(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ニュース記事の取得に失敗しました: %w", err)
	}
	return news, nil
}

// FindBySourceURL はRSS取り込み元URLで記事を検索する。見つからない場合はnilを返す。
func (r *PostgresNewsRepo) FindBySourceURL(ctx context.Context, sourceURL string) (*model.News, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+newsColumns+` FROM news WHERE source_url = $1`, sourceURL)

	news, err := scanNews(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("取り込み元URLによるニュース記事の検索に失敗しました: %w", err)
	}
	return news, nil
}

// List はニュース一覧を作成日時の降順で取得し、総件数とともに返す。
func (r *PostgresNewsRepo) List(ctx context.Context, offset, limit int, category string) ([]*model.News, int, error) {
	where := ``
	args := []any{}
	n := 0

	if category != "" {
		n++
		where = fmt.Sprintf(` WHERE category = $%d`, n)
		args = append(args, category)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM news`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ニュース総件数の取得に失敗しました: %w", err)
	}

	query := `SELECT ` + newsColumns + ` FROM news` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, n+1, n+2)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ニュース一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var list []*model.News
	for rows.Next() {
		news, err := scanNews(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("ニュース記事の読み取りに失敗しました: %w", err)
		}
		list = append(list, news)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("ニュース一覧の走査に失敗しました: %w", err)
	}

	return list, total, nil
}

// Create はニュース記事を作成する。
func (r *PostgresNewsRepo) Create(ctx context.Context, news *model.News) error {
	tags, err := jsonbValue(news.Tags)
	if err != nil {
		return err
	}
	likes, err := jsonbValue(news.Likes)
	if err != nil {
		return err
	}
	comments, err := jsonbValue(news.Comments)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO news (id, title, content, excerpt, image, category, tags,
		                   source_url, likes, comments, views, created_by,
		                   created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		news.ID, news.Title, news.Content, news.Excerpt, news.Image, news.Category, tags,
		news.SourceURL, likes, comments, news.Views, nullString(news.CreatedBy),
		news.CreatedAt, news.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("ニュース記事の作成に失敗しました: %w", err)
	}
	return nil
}

// Update はニュース記事の全可変カラムを更新する。
func (r *PostgresNewsRepo) Update(ctx context.Context, news *model.News) error {
	tags, err := jsonbValue(news.Tags)
	if err != nil {
		return err
	}
	likes, err := jsonbValue(news.Likes)
	if err != nil {
		return err
	}
	comments, err := jsonbValue(news.Comments)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE news SET
		    title = $2, content = $3, excerpt = $4, image = $5,
		    category = $6, tags = $7, likes = $8, comments = $9, updated_at = $10
		 WHERE id = $1`,
		news.ID, news.Title, news.Content, news.Excerpt, news.Image,
		news.Category, tags, likes, comments, news.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("ニュース記事の更新に失敗しました: %w", err)
	}
	return nil
}

// Delete は指定IDのニュース記事を削除する。
func (r *PostgresNewsRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM news WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ニュース記事の削除に失敗しました: %w", err)
	}
	return nil
}

// IncrementViews は閲覧数をアトミックにインクリメントする。
func (r *PostgresNewsRepo) IncrementViews(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE news SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ニュース閲覧数の更新に失敗しました: %w", err)
	}
	return nil
}

// scanNews は1行分のニュースデータを読み取る。
func scanNews(row rowScanner) (*model.News, error) {
	news := &model.News{}
	var tags, likes, comments []byte
	var createdBy sql.NullString

	if err := row.Scan(
		&news.ID, &news.Title, &news.Content, &news.Excerpt, &news.Image, &news.Category, &tags,
		&news.SourceURL, &likes, &comments, &news.Views, &createdBy,
		&news.CreatedAt, &news.UpdatedAt,
	); err != nil {
		return nil, err
	}

	news.CreatedBy = nullStringValue(createdBy)

	if err := scanJSONB(tags, &news.Tags); err != nil {
		return nil, err
	}
	if err := scanJSONB(likes, &news.Likes); err != nil {
		return nil, err
	}
	if err := scanJSONB(comments, &news.Comments); err != nil {
		return nil, err
	}

	return news, nil
}

// compile-time interface check
var _ NewsRepository = (*PostgresNewsRepo)(nil)
