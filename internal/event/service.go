// Package event はコミュニティイベント機能のドメインロジックを提供する。
package event

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Zemon-tech/ZEMON/internal/cache"
	"github.com/Zemon-tech/ZEMON/internal/model"
	"github.com/Zemon-tech/ZEMON/internal/repository"
)

// upcomingLimit は開催予定イベント一覧の最大件数。
const upcomingLimit = 10

// CreateInput はイベント作成の入力。
type CreateInput struct {
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Location        string    `json:"location"`
	Mode            string    `json:"mode"`
	Type            string    `json:"type"`
	StartDate       time.Time `json:"startDate"`
	EndDate         time.Time `json:"endDate"`
	RegistrationURL string    `json:"registrationUrl"`
	Capacity        int       `json:"capacity"`
	Website         string    `json:"website"`
	Image           string    `json:"image"`
	Tags            []string  `json:"tags"`
}

// UpdateInput はイベント更新の入力。nilフィールドは変更しない。
type UpdateInput struct {
	Title           *string    `json:"title"`
	Description     *string    `json:"description"`
	Location        *string    `json:"location"`
	Mode            *string    `json:"mode"`
	Type            *string    `json:"type"`
	StartDate       *time.Time `json:"startDate"`
	EndDate         *time.Time `json:"endDate"`
	RegistrationURL *string    `json:"registrationUrl"`
	Capacity        *int       `json:"capacity"`
	Website         *string    `json:"website"`
	Image           *string    `json:"image"`
	Tags            []string   `json:"tags"`
}

// EventWithStatus はレスポンス用にステータスを付与したイベント。
// ステータスはリクエスト時点のサーバー時刻から導出され、DBには保存されない。
type EventWithStatus struct {
	*model.Event
	Status model.EventStatus `json:"status"`
}

// EventListWithStatus はステータス付きイベント一覧。
type EventListWithStatus struct {
	Events     []*EventWithStatus `json:"events"`
	Pagination model.Pagination   `json:"pagination"`
}

// Service はイベントのサービス層。
type Service struct {
	eventRepo repository.EventRepository
	cache     cache.Cache
	ttl       time.Duration
	now       func() time.Time // テスト用に差し替え可能
}

// NewService はServiceを生成する。
func NewService(eventRepo repository.EventRepository, c cache.Cache, ttl time.Duration) *Service {
	return &Service{
		eventRepo: eventRepo,
		cache:     c,
		ttl:       ttl,
		now:       time.Now,
	}
}

// List はイベント一覧をページング付きで取得する。
// 種別・ステータスのフィルタ値はキャッシュキーに含まれる。
func (s *Service) List(ctx context.Context, page, limit int, eventType string, status model.EventStatus) (*EventListWithStatus, error) {
	key := cache.EventListKey(page, limit, eventType, string(status))

	var cached EventListWithStatus
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	now := s.now()
	pagination := model.Pagination{Page: page, Limit: limit}
	events, total, err := s.eventRepo.List(ctx, pagination.Offset(), limit, eventType, status, now)
	if err != nil {
		return nil, err
	}

	list := &EventListWithStatus{
		Events:     withStatus(events, now),
		Pagination: model.NewPagination(page, limit, total),
	}
	s.cache.Set(ctx, key, list, s.ttl)

	return list, nil
}

// Get はイベント詳細を取得し、閲覧数をインクリメントする。
// キャッシュされる値はインクリメント前の閲覧数を保持する。
func (s *Service) Get(ctx context.Context, id string) (*EventWithStatus, error) {
	key := cache.EventKey(id)

	var cached EventWithStatus
	if s.cache.Get(ctx, key, &cached) {
		// ヒット時も閲覧数は加算する
		if err := s.eventRepo.IncrementViews(ctx, id); err != nil {
			slog.Warn("イベント閲覧数の加算に失敗しました", slog.String("event_id", id), slog.String("error", err.Error()))
		}
		return &cached, nil
	}

	event, err := s.eventRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, model.NewNotFoundError("Event")
	}

	if err := s.eventRepo.IncrementViews(ctx, id); err != nil {
		slog.Warn("イベント閲覧数の加算に失敗しました", slog.String("event_id", id), slog.String("error", err.Error()))
	}

	result := &EventWithStatus{Event: event, Status: event.StatusAt(s.now())}
	s.cache.Set(ctx, key, result, s.ttl)

	return result, nil
}

// ListUpcoming は開催予定イベント一覧を取得する。
func (s *Service) ListUpcoming(ctx context.Context) ([]*EventWithStatus, error) {
	var cached []*EventWithStatus
	if s.cache.Get(ctx, cache.UpcomingEventsKey, &cached) {
		return cached, nil
	}

	now := s.now()
	events, err := s.eventRepo.ListUpcoming(ctx, now, upcomingLimit)
	if err != nil {
		return nil, err
	}

	result := withStatus(events, now)
	s.cache.Set(ctx, cache.UpcomingEventsKey, result, s.ttl)

	return result, nil
}

// Create はイベントを作成する。
func (s *Service) Create(ctx context.Context, userID string, input CreateInput) (*model.Event, error) {
	if err := validateEventInput(input); err != nil {
		return nil, err
	}

	now := s.now()
	event := &model.Event{
		ID:              uuid.New().String(),
		Title:           input.Title,
		Description:     input.Description,
		Location:        input.Location,
		Mode:            input.Mode,
		Type:            input.Type,
		StartDate:       input.StartDate,
		EndDate:         input.EndDate,
		RegistrationURL: input.RegistrationURL,
		Capacity:        input.Capacity,
		Website:         input.Website,
		Image:           input.Image,
		Tags:            input.Tags,
		Organizer:       userID,
		Attendees:       []string{userID},
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, err
	}

	s.cache.DeleteByPattern(ctx, cache.EventPattern)

	slog.Info("イベントを作成しました",
		slog.String("event_id", event.ID),
		slog.String("user_id", userID),
	)

	return event, nil
}

// Update はイベントを更新する。主催者のみ実行できる。
func (s *Service) Update(ctx context.Context, userID, id string, input UpdateInput) (*model.Event, error) {
	event, err := s.eventRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, model.NewNotFoundError("Event")
	}
	if event.Organizer != userID {
		return nil, model.NewForbiddenError("Only the organizer can modify this event")
	}

	applyEventUpdate(event, input)

	if event.EndDate.Before(event.StartDate) {
		return nil, model.NewInvalidRequestError("End date must not be before start date")
	}

	event.UpdatedAt = s.now()

	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, err
	}

	s.invalidateAfterWrite(ctx, id)
	return event, nil
}

// Delete はイベントを削除する。主催者のみ実行できる。
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	event, err := s.eventRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if event == nil {
		return model.NewNotFoundError("Event")
	}
	if event.Organizer != userID {
		return model.NewForbiddenError("Only the organizer can delete this event")
	}

	if err := s.eventRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidateAfterWrite(ctx, id)

	slog.Info("イベントを削除しました",
		slog.String("event_id", id),
		slog.String("user_id", userID),
	)

	return nil
}

// ToggleAttend は参加登録をトグルする。詳細キャッシュのみを無効化する。
func (s *Service) ToggleAttend(ctx context.Context, userID, id string) (*model.Event, error) {
	event, err := s.eventRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, model.NewNotFoundError("Event")
	}

	event.ToggleAttendee(userID)
	event.UpdatedAt = s.now()

	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, err
	}

	s.cache.Delete(ctx, cache.EventKey(id))
	return event, nil
}

// invalidateAfterWrite は更新・削除後のキャッシュ無効化を行う。
func (s *Service) invalidateAfterWrite(ctx context.Context, id string) {
	s.cache.Delete(ctx, cache.EventKey(id), cache.UpcomingEventsKey)
	s.cache.DeleteByPattern(ctx, cache.EventListPattern)
}

// validateEventInput は作成入力の必須項目と整合性を検証する。
func validateEventInput(input CreateInput) error {
	if input.Title == "" {
		return model.NewInvalidRequestError("Title is required")
	}
	if !isValidMode(input.Mode) {
		return model.NewInvalidRequestError("Mode must be one of: online, in-person, hybrid")
	}
	if !isValidType(input.Type) {
		return model.NewInvalidRequestError("Invalid event type")
	}
	if input.StartDate.IsZero() || input.EndDate.IsZero() {
		return model.NewInvalidRequestError("Start date and end date are required")
	}
	if input.EndDate.Before(input.StartDate) {
		return model.NewInvalidRequestError("End date must not be before start date")
	}
	return nil
}

func applyEventUpdate(event *model.Event, input UpdateInput) {
	if input.Title != nil {
		event.Title = *input.Title
	}
	if input.Description != nil {
		event.Description = *input.Description
	}
	if input.Location != nil {
		event.Location = *input.Location
	}
	if input.Mode != nil {
		event.Mode = *input.Mode
	}
	if input.Type != nil {
		event.Type = *input.Type
	}
	if input.StartDate != nil {
		event.StartDate = *input.StartDate
	}
	if input.EndDate != nil {
		event.EndDate = *input.EndDate
	}
	if input.RegistrationURL != nil {
		event.RegistrationURL = *input.RegistrationURL
	}
	if input.Capacity != nil {
		event.Capacity = *input.Capacity
	}
	if input.Website != nil {
		event.Website = *input.Website
	}
	if input.Image != nil {
		event.Image = *input.Image
	}
	if input.Tags != nil {
		event.Tags = input.Tags
	}
}

func isValidMode(mode string) bool {
	return mode == model.EventModeOnline || mode == model.EventModeInPerson || mode == model.EventModeHybrid
}

func isValidType(eventType string) bool {
	for _, t := range model.EventTypes {
		if t == eventType {
			return true
		}
	}
	return false
}

// withStatus はイベントのスライスにステータスを付与する。
func withStatus(events []*model.Event, now time.Time) []*EventWithStatus {
	result := make([]*EventWithStatus, 0, len(events))
	for _, e := range events {
		result = append(result, &EventWithStatus{Event: e, Status: e.StatusAt(now)})
	}
	return result
}
