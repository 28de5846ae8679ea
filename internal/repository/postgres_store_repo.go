package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Zemon-tech/ZEMON/internal/model"
)

// PostgresStoreRepo はPostgreSQLを使用したストアアイテムリポジトリ。
type PostgresStoreRepo struct {
	db *sql.DB
}

// NewPostgresStoreRepo はPostgresStoreRepoを生成する。
func NewPostgresStoreRepo(db *sql.DB) *PostgresStoreRepo {
	return &PostgresStoreRepo{db: db}
}

const storeSelect = `SELECT s.id, s.name, s.description, s.thumbnail, s.images,
	        s.url, s.dev_docs, s.github_url, s.category, s.tags, s.price,
	        s.author, u.name, s.reviews, s.average_rating, s.total_reviews,
	        s.views, s.status, s.created_at, s.updated_at
	 FROM store_items s
	 INNER JOIN users u ON s.author = u.id`

// FindByID は指定IDのストアアイテムを取得する。見つからない場合はnilを返す。
func (r *PostgresStoreRepo) FindByID(ctx context.Context, id string) (*model.StoreItem, error) {
	row := r.db.QueryRowContext(ctx, storeSelect+` WHERE s.id = $1`, id)

	item, err := scanStoreItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ストアアイテムの取得に失敗しました: %w", err)
	}
	return item, nil
}

// List はストアアイテム一覧を作成日時の降順で取得し、総件数とともに返す。
func (r *PostgresStoreRepo) List(ctx context.Context, offset, limit int, category, status string) ([]*model.StoreItem, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	n := 0

	if category != "" {
		n++
		where += fmt.Sprintf(" AND s.category = $%d", n)
		args = append(args, category)
	}
	if status != "" {
		n++
		where += fmt.Sprintf(" AND s.status = $%d", n)
		args = append(args, status)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM store_items s` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ストアアイテム総件数の取得に失敗しました: %w", err)
	}

	listQuery := storeSelect + where + fmt.Sprintf(" ORDER BY s.created_at DESC LIMIT $%d OFFSET $%d", n+1, n+2)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ストアアイテム一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	items, err := collectStoreItems(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListByAuthor は指定ユーザーが公開したアイテム一覧を返す。
func (r *PostgresStoreRepo) ListByAuthor(ctx context.Context, userID string) ([]*model.StoreItem, error) {
	rows, err := r.db.QueryContext(ctx,
		storeSelect+` WHERE s.author = $1 ORDER BY s.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("ユーザー別ストアアイテム一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return collectStoreItems(rows)
}

// Create はストアアイテムを作成する。
func (r *PostgresStoreRepo) Create(ctx context.Context, item *model.StoreItem) error {
	images, err := jsonbValue(item.Images)
	if err != nil {
		return err
	}
	tags, err := jsonbValue(item.Tags)
	if err != nil {
		return err
	}
	reviews, err := jsonbValue(item.Reviews)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO store_items (id, name, description, thumbnail, images,
		                          url, dev_docs, github_url, category, tags, price,
		                          author, reviews, average_rating, total_reviews,
		                          views, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		item.ID, item.Name, item.Description, item.Thumbnail, images,
		item.URL, item.DevDocs, item.GitHubURL, item.Category, tags, item.Price,
		item.Author, reviews, item.AverageRating, item.TotalReviews,
		item.Views, item.Status, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("ストアアイテムの作成に失敗しました: %w", err)
	}
	return nil
}

// Update はストアアイテムの全可変カラムを更新する。
func (r *PostgresStoreRepo) Update(ctx context.Context, item *model.StoreItem) error {
	images, err := jsonbValue(item.Images)
	if err != nil {
		return err
	}
	tags, err := jsonbValue(item.Tags)
	if err != nil {
		return err
	}
	reviews, err := jsonbValue(item.Reviews)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE store_items SET
		    name = $2, description = $3, thumbnail = $4, images = $5,
		    url = $6, dev_docs = $7, github_url = $8, category = $9,
		    tags = $10, price = $11, reviews = $12, average_rating = $13,
		    total_reviews = $14, status = $15, updated_at = $16
		 WHERE id = $1`,
		item.ID, item.Name, item.Description, item.Thumbnail, images,
		item.URL, item.DevDocs, item.GitHubURL, item.Category,
		tags, item.Price, reviews, item.AverageRating,
		item.TotalReviews, item.Status, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("ストアアイテムの更新に失敗しました: %w", err)
	}
	return nil
}

// Delete は指定IDのストアアイテムを削除する。
func (r *PostgresStoreRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM store_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ストアアイテムの削除に失敗しました: %w", err)
	}
	return nil
}

// IncrementViews は閲覧数をアトミックにインクリメントする。
func (r *PostgresStoreRepo) IncrementViews(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE store_items SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ストアアイテム閲覧数の更新に失敗しました: %w", err)
	}
	return nil
}

// scanStoreItem は1行分のストアアイテムデータを読み取る。
func scanStoreItem(row rowScanner) (*model.StoreItem, error) {
	item := &model.StoreItem{}
	var images, tags, reviews []byte

	if err := row.Scan(
		&item.ID, &item.Name, &item.Description, &item.Thumbnail, &images,
		&item.URL, &item.DevDocs, &item.GitHubURL, &item.Category, &tags, &item.Price,
		&item.Author, &item.AuthorName, &reviews, &item.AverageRating, &item.TotalReviews,
		&item.Views, &item.Status, &item.CreatedAt, &item.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if err := scanJSONB(images, &item.Images); err != nil {
		return nil, err
	}
	if err := scanJSONB(tags, &item.Tags); err != nil {
		return nil, err
	}
	if err := scanJSONB(reviews, &item.Reviews); err != nil {
		return nil, err
	}

	return item, nil
}

// collectStoreItems は結果セットの全行を読み取る。
func collectStoreItems(rows *sql.Rows) ([]*model.StoreItem, error) {
	var items []*model.StoreItem
	for rows.Next() {
		item, err := scanStoreItem(rows)
		if err != nil {
			return nil, fmt.Errorf("ストアアイテムの読み取りに失敗しました: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ストアアイテム一覧の走査に失敗しました: %w", err)
	}
	return items, nil
}

// compile-time interface check
var _ StoreRepository = (*PostgresStoreRepo)(nil)
