package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Zemon-tech/ZEMON/internal/model"
)

// PostgresEventRepo はPostgreSQLを使用したイベントリポジトリ。
type PostgresEventRepo struct {
	db *sql.DB
}

// NewPostgresEventRepo はPostgresEventRepoを生成する。
func NewPostgresEventRepo(db *sql.DB) *PostgresEventRepo {
	return &PostgresEventRepo{db: db}
}

const eventSelect = `SELECT e.id, e.title, e.description, e.location, e.mode, e.type,
	        e.start_date, e.end_date, e.registration_url, e.capacity, e.website,
	        e.image, e.tags, e.organizer, u.name, e.attendees, e.views,
	        e.created_at, e.updated_at
	 FROM events e
	 INNER JOIN users u ON e.organizer = u.id`

// FindByID は指定IDのイベントを取得する。見つからない場合はnilを返す。
func (r *PostgresEventRepo) FindByID(ctx context.Context, id string) (*model.Event, error) {
	row := r.db.QueryRowContext(ctx, eventSelect+` WHERE e.id = $1`, id)

	event, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("イベントの取得に失敗しました: %w", err)
	}
	return event, nil
}

// List はイベント一覧を開始日時の昇順で取得し、総件数とともに返す。
// ステータスはDBに保存されないため、nowを基準とした日付条件に変換して絞り込む。
func (r *PostgresEventRepo) List(ctx context.Context, offset, limit int, eventType string, status model.EventStatus, now time.Time) ([]*model.Event, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	n := 0

	if eventType != "" {
		n++
		where += fmt.Sprintf(" AND e.type = $%d", n)
		args = append(args, eventType)
	}

	switch status {
	case model.EventStatusUpcoming:
		n++
		where += fmt.Sprintf(" AND e.start_date > $%d", n)
		args = append(args, now)
	case model.EventStatusOngoing:
		n++
		where += fmt.Sprintf(" AND e.start_date <= $%d AND e.end_date >= $%d", n, n)
		args = append(args, now)
	case model.EventStatusPast:
		n++
		where += fmt.Sprintf(" AND e.end_date < $%d", n)
		args = append(args, now)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM events e` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("イベント総件数の取得に失敗しました: %w", err)
	}

	listQuery := eventSelect + where + fmt.Sprintf(" ORDER BY e.start_date ASC LIMIT $%d OFFSET $%d", n+1, n+2)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("イベント一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	events, err := collectEvents(rows)
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// ListUpcoming は開催予定イベントを開始日時の昇順で取得する。
func (r *PostgresEventRepo) ListUpcoming(ctx context.Context, now time.Time, limit int) ([]*model.Event, error) {
	rows, err := r.db.QueryContext(ctx,
		eventSelect+` WHERE e.start_date > $1 ORDER BY e.start_date ASC LIMIT $2`,
		now, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("開催予定イベントの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return collectEvents(rows)
}

// Create はイベントを作成する。
func (r *PostgresEventRepo) Create(ctx context.Context, event *model.Event) error {
	tags, err := jsonbValue(event.Tags)
	if err != nil {
		return err
	}
	attendees, err := jsonbValue(event.Attendees)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO events (id, title, description, location, mode, type,
		                     start_date, end_date, registration_url, capacity, website,
		                     image, tags, organizer, attendees, views,
		                     created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		event.ID, event.Title, event.Description, event.Location, event.Mode, event.Type,
		event.StartDate, event.EndDate, event.RegistrationURL, event.Capacity, event.Website,
		event.Image, tags, event.Organizer, attendees, event.Views,
		event.CreatedAt, event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("イベントの作成に失敗しました: %w", err)
	}
	return nil
}

// Update はイベントの全可変カラムを更新する。
func (r *PostgresEventRepo) Update(ctx context.Context, event *model.Event) error {
	tags, err := jsonbValue(event.Tags)
	if err != nil {
		return err
	}
	attendees, err := jsonbValue(event.Attendees)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE events SET
		    title = $2, description = $3, location = $4, mode = $5, type = $6,
		    start_date = $7, end_date = $8, registration_url = $9,
		    capacity = $10, website = $11, image = $12, tags = $13,
		    attendees = $14, updated_at = $15
		 WHERE id = $1`,
		event.ID, event.Title, event.Description, event.Location, event.Mode, event.Type,
		event.StartDate, event.EndDate, event.RegistrationURL,
		event.Capacity, event.Website, event.Image, tags,
		attendees, event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("イベントの更新に失敗しました: %w", err)
	}
	return nil
}

// Delete は指定IDのイベントを削除する。
func (r *PostgresEventRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("イベントの削除に失敗しました: %w", err)
	}
	return nil
}

// IncrementViews は閲覧数をアトミックにインクリメントする。
func (r *PostgresEventRepo) IncrementViews(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE events SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("イベント閲覧数の更新に失敗しました: %w", err)
	}
	return nil
}

// scanEvent は1行分のイベントデータを読み取る。
func scanEvent(row rowScanner) (*model.Event, error) {
	event := &model.Event{}
	var tags, attendees []byte

	if err := row.Scan(
		&event.ID, &event.Title, &event.Description, &event.Location, &event.Mode, &event.Type,
		&event.StartDate, &event.EndDate, &event.RegistrationURL, &event.Capacity, &event.Website,
		&event.Image, &tags, &event.Organizer, &event.OrganizerName, &attendees, &event.Views,
		&event.CreatedAt, &event.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if err := scanJSONB(tags, &event.Tags); err != nil {
		return nil, err
	}
	if err := scanJSONB(attendees, &event.Attendees); err != nil {
		return nil, err
	}

	return event, nil
}

// collectEvents は結果セットの全行を読み取る。
func collectEvents(rows *sql.Rows) ([]*model.Event, error) {
	var events []*model.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("イベントの読み取りに失敗しました: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("イベント一覧の走査に失敗しました: %w", err)
	}
	return events, nil
}

// compile-time interface check
var _ EventRepository = (*PostgresEventRepo)(nil)
