// Package news はテックニュース機能のドメインロジックを提供する。
package news

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Zemon-tech/ZEMON/internal/cache"
	"github.com/Zemon-tech/ZEMON/internal/model"
	"github.com/Zemon-tech/ZEMON/internal/repository"
	"github.com/Zemon-tech/ZEMON/internal/security"
)

// CreateInput はニュース記事作成の入力。
type CreateInput struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Excerpt  string   `json:"excerpt"`
	Category string   `json:"category"`
	Image    string   `json:"image"`
	Tags     []string `json:"tags"`
}

// UpdateInput はニュース記事更新の入力。nilフィールドは変更しない。
type UpdateInput struct {
	Title    *string  `json:"title"`
	Content  *string  `json:"content"`
	Excerpt  *string  `json:"excerpt"`
	Category *string  `json:"category"`
	Image    *string  `json:"image"`
	Tags     []string `json:"tags"`
}

// Service はニュースのサービス層。
type Service struct {
	newsRepo  repository.NewsRepository
	sanitizer security.ContentSanitizerService
	cache     cache.Cache
	ttl       time.Duration
}

// NewService はServiceを生成する。
func NewService(newsRepo repository.NewsRepository, sanitizer security.ContentSanitizerService, c cache.Cache, ttl time.Duration) *Service {
	return &Service{
		newsRepo:  newsRepo,
		sanitizer: sanitizer,
		cache:     c,
		ttl:       ttl,
	}
}

// List はニュース一覧をページング付きで取得する。
func (s *Service) List(ctx context.Context, page, limit int, category string) (*model.NewsList, error) {
	key := cache.NewsListKey(page, limit, category)

	var cached model.NewsList
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	pagination := model.Pagination{Page: page, Limit: limit}
	list, total, err := s.newsRepo.List(ctx, pagination.Offset(), limit, category)
	if err != nil {
		return nil, err
	}

	result := &model.NewsList{
		News:       list,
		Pagination: model.NewPagination(page, limit, total),
	}
	s.cache.Set(ctx, key, result, s.ttl)

	return result, nil
}

// Get はニュース詳細を取得し、閲覧数をインクリメントする。
// キャッシュされる値はインクリメント前の閲覧数を保持する。
func (s *Service) Get(ctx context.Context, id string) (*model.News, error) {
	key := cache.NewsKey(id)

	var cached model.News
	if s.cache.Get(ctx, key, &cached) {
		if err := s.newsRepo.IncrementViews(ctx, id); err != nil {
			slog.Warn("ニュース閲覧数の加算に失敗しました", slog.String("news_id", id), slog.String("error", err.Error()))
		}
		return &cached, nil
	}

	news, err := s.newsRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if news == nil {
		return nil, model.NewNotFoundError("News article")
	}

	if err := s.newsRepo.IncrementViews(ctx, id); err != nil {
		slog.Warn("ニュース閲覧数の加算に失敗しました", slog.String("news_id", id), slog.String("error", err.Error()))
	}

	s.cache.Set(ctx, key, news, s.ttl)
	return news, nil
}

// Create はニュース記事を作成する。本文は保存前にサニタイズされる。
func (s *Service) Create(ctx context.Context, userID string, input CreateInput) (*model.News, error) {
	if input.Title == "" {
		return nil, model.NewInvalidRequestError("Title is required")
	}
	if input.Content == "" {
		return nil, model.NewInvalidRequestError("Content is required")
	}

	now := time.Now()
	news := &model.News{
		ID:        uuid.New().String(),
		Title:     input.Title,
		Content:   s.sanitizer.Sanitize(input.Content),
		Excerpt:   input.Excerpt,
		Category:  input.Category,
		Image:     input.Image,
		Tags:      input.Tags,
		CreatedBy: userID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.newsRepo.Create(ctx, news); err != nil {
		return nil, err
	}

	s.cache.DeleteByPattern(ctx, cache.NewsPattern)

	slog.Info("ニュース記事を作成しました",
		slog.String("news_id", news.ID),
		slog.String("user_id", userID),
	)

	return news, nil
}

// Update はニュース記事を更新する。投稿者のみ実行できる。
func (s *Service) Update(ctx context.Context, userID, id string, input UpdateInput) (*model.News, error) {
	news, err := s.newsRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if news == nil {
		return nil, model.NewNotFoundError("News article")
	}
	if news.CreatedBy != userID {
		return nil, model.NewForbiddenError("Only the author can modify this article")
	}

	if input.Title != nil {
		news.Title = *input.Title
	}
	if input.Content != nil {
		news.Content = s.sanitizer.Sanitize(*input.Content)
	}
	if input.Excerpt != nil {
		news.Excerpt = *input.Excerpt
	}
	if input.Category != nil {
		news.Category = *input.Category
	}
	if input.Image != nil {
		news.Image = *input.Image
	}
	if input.Tags != nil {
		news.Tags = input.Tags
	}
	news.UpdatedAt = time.Now()

	if err := s.newsRepo.Update(ctx, news); err != nil {
		return nil, err
	}

	s.invalidateAfterWrite(ctx, id)
	return news, nil
}

// Delete はニュース記事を削除する。投稿者のみ実行できる。
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	news, err := s.newsRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if news == nil {
		return model.NewNotFoundError("News article")
	}
	if news.CreatedBy != userID {
		return model.NewForbiddenError("Only the author can delete this article")
	}

	if err := s.newsRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidateAfterWrite(ctx, id)

	slog.Info("ニュース記事を削除しました",
		slog.String("news_id", id),
		slog.String("user_id", userID),
	)

	return nil
}

// ToggleLike はいいねをトグルする。詳細キャッシュのみを無効化する。
func (s *Service) ToggleLike(ctx context.Context, userID, id string) (*model.News, error) {
	news, err := s.newsRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if news == nil {
		return nil, model.NewNotFoundError("News article")
	}

	news.ToggleLike(userID)
	news.UpdatedAt = time.Now()

	if err := s.newsRepo.Update(ctx, news); err != nil {
		return nil, err
	}

	s.cache.Delete(ctx, cache.NewsKey(id))
	return news, nil
}

// AddComment はコメントを追加する。詳細キャッシュのみを無効化する。
func (s *Service) AddComment(ctx context.Context, userID, id, content string) (*model.News, error) {
	if content == "" {
		return nil, model.NewInvalidRequestError("Comment content is required")
	}

	news, err := s.newsRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if news == nil {
		return nil, model.NewNotFoundError("News article")
	}

	news.Comments = append(news.Comments, model.Comment{
		UserID:    userID,
		Content:   s.sanitizer.Sanitize(content),
		CreatedAt: time.Now(),
	})
	news.UpdatedAt = time.Now()

	if err := s.newsRepo.Update(ctx, news); err != nil {
		return nil, err
	}

	s.cache.Delete(ctx, cache.NewsKey(id))
	return news, nil
}

// invalidateAfterWrite は更新・削除後のキャッシュ無効化を行う。
func (s *Service) invalidateAfterWrite(ctx context.Context, id string) {
	s.cache.Delete(ctx, cache.NewsKey(id))
	s.cache.DeleteByPattern(ctx, cache.NewsListPattern)
}
