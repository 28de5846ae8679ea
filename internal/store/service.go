// Package store は開発者ツールストア機能のドメインロジックを提供する。
package store

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

// CreateInput はストアアイテム作成の入力。
type CreateInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Thumbnail   string   `json:"thumbnail"`
	Images      []string `json:"images"`
	URL         string   `json:"url"`
	DevDocs     string   `json:"dev_docs"`
	GitHubURL   string   `json:"github_url"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	Price       string   `json:"price"`
}

// UpdateInput はストアアイテム更新の入力。nilフィールドは変更しない。
type UpdateInput struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Thumbnail   *string  `json:"thumbnail"`
	Images      []string `json:"images"`
	URL         *string  `json:"url"`
	DevDocs     *string  `json:"dev_docs"`
	GitHubURL   *string  `json:"github_url"`
	Category    *string  `json:"category"`
	Tags        []string `json:"tags"`
	Price       *string  `json:"price"`
}

// ReviewInput はレビュー投稿の入力。
type ReviewInput struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// Service はストアのサービス層。
type Service struct {
	storeRepo repository.StoreRepository
	userRepo  repository.UserRepository
	sanitizer security.ContentSanitizerService
	cache     cache.Cache
	ttl       time.Duration
}

// NewService はServiceを生成する。
func NewService(storeRepo repository.StoreRepository, userRepo repository.UserRepository, sanitizer security.ContentSanitizerService, c cache.Cache, ttl time.Duration) *Service {
	return &Service{
		storeRepo: storeRepo,
		userRepo:  userRepo,
		sanitizer: sanitizer,
		cache:     c,
		ttl:       ttl,
	}
}

// List はストアアイテム一覧をページング付きで取得する。
func (s *Service) List(ctx context.Context, page, limit int, category, status string) (*model.StoreItemList, error) {
	key := cache.StoreListKey(page, limit, category, status)

	var cached model.StoreItemList
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	pagination := model.Pagination{Page: page, Limit: limit}
	items, total, err := s.storeRepo.List(ctx, pagination.Offset(), limit, category, status)
	if err != nil {
		return nil, err
	}

	list := &model.StoreItemList{
		Items:      items,
		Pagination: model.NewPagination(page, limit, total),
	}
	s.cache.Set(ctx, key, list, s.ttl)

	return list, nil
}

// Get はストアアイテム詳細を取得し、閲覧数をインクリメントする。
// キャッシュされる値はインクリメント前の閲覧数を保持する。
func (s *Service) Get(ctx context.Context, id string) (*model.StoreItem, error) {
	key := cache.StoreItemKey(id)

	var cached model.StoreItem
	if s.cache.Get(ctx, key, &cached) {
		if err := s.storeRepo.IncrementViews(ctx, id); err != nil {
			slog.Warn("ストアアイテム閲覧数の加算に失敗しました", slog.String("item_id", id), slog.String("error", err.Error()))
		}
		return &cached, nil
	}

	item, err := s.storeRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, model.NewNotFoundError("Store item")
	}

	if err := s.storeRepo.IncrementViews(ctx, id); err != nil {
		slog.Warn("ストアアイテム閲覧数の加算に失敗しました", slog.String("item_id", id), slog.String("error", err.Error()))
	}

	s.cache.Set(ctx, key, item, s.ttl)
	return item, nil
}

// ListUserTools は指定ユーザーが公開したツール一覧を取得する。
func (s *Service) ListUserTools(ctx context.Context, userID string) ([]*model.StoreItem, error) {
	key := cache.UserToolsKey(userID)

	var cached []*model.StoreItem
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	items, err := s.storeRepo.ListByAuthor(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, key, items, s.ttl)
	return items, nil
}

// Create はストアアイテムを公開する。
// ステータスは作成時に無条件でapprovedとなり、モデレーションフローは存在しない。
func (s *Service) Create(ctx context.Context, userID string, input CreateInput) (*model.StoreItem, error) {
	if input.Name == "" {
		return nil, model.NewInvalidRequestError("Name is required")
	}
	if input.URL == "" {
		return nil, model.NewInvalidRequestError("URL is required")
	}
	if !isValidCategory(input.Category) {
		return nil, model.NewInvalidRequestError("Invalid category")
	}

	now := time.Now()
	item := &model.StoreItem{
		ID:          uuid.New().String(),
		Name:        input.Name,
		Description: input.Description,
		Thumbnail:   input.Thumbnail,
		Images:      input.Images,
		URL:         input.URL,
		DevDocs:     input.DevDocs,
		GitHubURL:   input.GitHubURL,
		Category:    input.Category,
		Tags:        input.Tags,
		Price:       input.Price,
		Author:      userID,
		Status:      model.StoreStatusApproved,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.storeRepo.Create(ctx, item); err != nil {
		return nil, err
	}

	s.cache.DeleteByPattern(ctx, cache.StorePattern)

	slog.Info("ストアアイテムを公開しました",
		slog.String("item_id", item.ID),
		slog.String("user_id", userID),
	)

	return item, nil
}

// Update はストアアイテムを更新する。公開者のみ実行できる。
func (s *Service) Update(ctx context.Context, userID, id string, input UpdateInput) (*model.StoreItem, error) {
	item, err := s.storeRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, model.NewNotFoundError("Store item")
	}
	if item.Author != userID {
		return nil, model.NewForbiddenError("Only the author can modify this item")
	}

	if input.Name != nil {
		item.Name = *input.Name
	}
	if input.Description != nil {
		item.Description = *input.Description
	}
	if input.Thumbnail != nil {
		item.Thumbnail = *input.Thumbnail
	}
	if input.Images != nil {
		item.Images = input.Images
	}
	if input.URL != nil {
		item.URL = *input.URL
	}
	if input.DevDocs != nil {
		item.DevDocs = *input.DevDocs
	}
	if input.GitHubURL != nil {
		item.GitHubURL = *input.GitHubURL
	}
	if input.Category != nil {
		if !isValidCategory(*input.Category) {
			return nil, model.NewInvalidRequestError("Invalid category")
		}
		item.Category = *input.Category
	}
	if input.Tags != nil {
		item.Tags = input.Tags
	}
	if input.Price != nil {
		item.Price = *input.Price
	}
	item.UpdatedAt = time.Now()

	if err := s.storeRepo.Update(ctx, item); err != nil {
		return nil, err
	}

	s.invalidateAfterWrite(ctx, id, item.Author)
	return item, nil
}

// Delete はストアアイテムを削除する。公開者のみ実行できる。
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	item, err := s.storeRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if item == nil {
		return model.NewNotFoundError("Store item")
	}
	if item.Author != userID {
		return model.NewForbiddenError("Only the author can delete this item")
	}

	if err := s.storeRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidateAfterWrite(ctx, id, item.Author)

	slog.Info("ストアアイテムを削除しました",
		slog.String("item_id", id),
		slog.String("user_id", userID),
	)

	return nil
}

// AddReview はレビューを投稿する。
// 同一表示名による再投稿は既存レビューを上書きし、集計値が再計算される。
func (s *Service) AddReview(ctx context.Context, userID, id string, input ReviewInput) (*model.StoreItem, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, model.NewInvalidRequestError("Rating must be between 1 and 5")
	}

	item, err := s.storeRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, model.NewNotFoundError("Store item")
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, model.NewUnauthorizedError()
	}

	item.UpsertReview(model.Review{
		UserID:    userID,
		UserName:  user.Name,
		Rating:    input.Rating,
		Comment:   s.sanitizer.Sanitize(input.Comment),
		CreatedAt: time.Now(),
	})
	item.UpdatedAt = time.Now()

	if err := s.storeRepo.Update(ctx, item); err != nil {
		return nil, err
	}

	s.cache.Delete(ctx, cache.StoreItemKey(id))
	return item, nil
}

// invalidateAfterWrite は更新・削除後のキャッシュ無効化を行う。
func (s *Service) invalidateAfterWrite(ctx context.Context, id, authorID string) {
	s.cache.Delete(ctx, cache.StoreItemKey(id), cache.UserToolsKey(authorID))
	s.cache.DeleteByPattern(ctx, cache.StoreListPattern)
}

func isValidCategory(category string) bool {
	for _, c := range model.StoreCategories {
		if c == category {
			return true
		}
	}
	return false
}
