// Package community はアイデア投稿と学習リソース共有のドメインロジックを提供する。
package community

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

// IdeaInput はアイデア作成・更新の入力。
type IdeaInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ResourceInput はリソース共有の入力。
type ResourceInput struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	ResourceType string `json:"resourceType"`
	URL          string `json:"url"`
}

// Service はコミュニティのサービス層。
type Service struct {
	ideaRepo     repository.IdeaRepository
	resourceRepo repository.ResourceRepository
	userRepo     repository.UserRepository
	ssrfGuard    security.SSRFGuardService
	sanitizer    security.ContentSanitizerService
	cache        cache.Cache
	ttl          time.Duration
}

// NewService はServiceを生成する。
func NewService(
	ideaRepo repository.IdeaRepository,
	resourceRepo repository.ResourceRepository,
	userRepo repository.UserRepository,
	ssrfGuard security.SSRFGuardService,
	sanitizer security.ContentSanitizerService,
	c cache.Cache,
	ttl time.Duration,
) *Service {
	return &Service{
		ideaRepo:     ideaRepo,
		resourceRepo: resourceRepo,
		userRepo:     userRepo,
		ssrfGuard:    ssrfGuard,
		sanitizer:    sanitizer,
		cache:        c,
		ttl:          ttl,
	}
}

// ListIdeas はアイデア一覧をページング付きで取得する。
func (s *Service) ListIdeas(ctx context.Context, page, limit int) (*model.IdeaList, error) {
	key := cache.IdeaListKey(page, limit)

	var cached model.IdeaList
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	pagination := model.Pagination{Page: page, Limit: limit}
	ideas, total, err := s.ideaRepo.List(ctx, pagination.Offset(), limit)
	if err != nil {
		return nil, err
	}

	list := &model.IdeaList{
		Ideas:      ideas,
		Pagination: model.NewPagination(page, limit, total),
	}
	s.cache.Set(ctx, key, list, s.ttl)

	return list, nil
}

// GetIdea はアイデア詳細を取得する。
func (s *Service) GetIdea(ctx context.Context, id string) (*model.Idea, error) {
	key := cache.IdeaKey(id)

	var cached model.Idea
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	idea, err := s.ideaRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if idea == nil {
		return nil, model.NewNotFoundError("Idea")
	}

	s.cache.Set(ctx, key, idea, s.ttl)
	return idea, nil
}

// CreateIdea はアイデアを投稿する。
func (s *Service) CreateIdea(ctx context.Context, userID string, input IdeaInput) (*model.Idea, error) {
	if input.Title == "" {
		return nil, model.NewInvalidRequestError("Title is required")
	}
	if input.Description == "" {
		return nil, model.NewInvalidRequestError("Description is required")
	}

	now := time.Now()
	idea := &model.Idea{
		ID:          uuid.New().String(),
		Title:       input.Title,
		Description: input.Description,
		Author:      userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.ideaRepo.Create(ctx, idea); err != nil {
		return nil, err
	}

	s.cache.DeleteByPattern(ctx, cache.IdeaPattern)

	slog.Info("アイデアを投稿しました",
		slog.String("idea_id", idea.ID),
		slog.String("user_id", userID),
	)

	return idea, nil
}

// UpdateIdea はアイデアを更新する。投稿者のみ実行できる。
func (s *Service) UpdateIdea(ctx context.Context, userID, id string, input IdeaInput) (*model.Idea, error) {
	idea, err := s.ideaRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if idea == nil {
		return nil, model.NewNotFoundError("Idea")
	}
	if idea.Author != userID {
		return nil, model.NewForbiddenError("Only the author can modify this idea")
	}

	if input.Title != "" {
		idea.Title = input.Title
	}
	if input.Description != "" {
		idea.Description = input.Description
	}
	idea.UpdatedAt = time.Now()

	if err := s.ideaRepo.Update(ctx, idea); err != nil {
		return nil, err
	}

	s.invalidateIdeaAfterWrite(ctx, id)
	return idea, nil
}

// DeleteIdea はアイデアを削除する。投稿者のみ実行できる。
func (s *Service) DeleteIdea(ctx context.Context, userID, id string) error {
	idea, err := s.ideaRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if idea == nil {
		return model.NewNotFoundError("Idea")
	}
	if idea.Author != userID {
		return model.NewForbiddenError("Only the author can delete this idea")
	}

	if err := s.ideaRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidateIdeaAfterWrite(ctx, id)

	slog.Info("アイデアを削除しました",
		slog.String("idea_id", id),
		slog.String("user_id", userID),
	)

	return nil
}

// AddIdeaComment はアイデアにコメントを追加する。
// コメントには投稿者の表示名とアバターを非正規化して保持する。
func (s *Service) AddIdeaComment(ctx context.Context, userID, id, text string) (*model.Idea, error) {
	if text == "" {
		return nil, model.NewInvalidRequestError("Comment text is required")
	}

	idea, err := s.ideaRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if idea == nil {
		return nil, model.NewNotFoundError("Idea")
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, model.NewUnauthorizedError()
	}

	idea.Comments = append(idea.Comments, model.IdeaComment{
		UserID:    userID,
		Username:  user.Name,
		Avatar:    user.Avatar,
		Text:      s.sanitizer.Sanitize(text),
		CreatedAt: time.Now(),
	})
	idea.UpdatedAt = time.Now()

	if err := s.ideaRepo.Update(ctx, idea); err != nil {
		return nil, err
	}

	s.cache.Delete(ctx, cache.IdeaKey(id))
	return idea, nil
}

// ListResources はコミュニティリソース一覧を取得する。リソースはキャッシュしない。
func (s *Service) ListResources(ctx context.Context) ([]*model.CommunityResource, error) {
	return s.resourceRepo.List(ctx)
}

// CreateResource は学習リソースを共有する。
// URLはSSRF防止の静的検証を通過する必要がある。
func (s *Service) CreateResource(ctx context.Context, userID string, input ResourceInput) (*model.CommunityResource, error) {
	if input.Title == "" {
		return nil, model.NewInvalidRequestError("Title is required")
	}
	if !model.IsValidResourceType(input.ResourceType) {
		return nil, model.NewInvalidRequestError("Resource type must be one of: PDF, VIDEO, TOOL")
	}
	if err := s.ssrfGuard.ValidateURL(input.URL); err != nil {
		return nil, model.NewSSRFBlockedError()
	}

	now := time.Now()
	resource := &model.CommunityResource{
		ID:           uuid.New().String(),
		Title:        input.Title,
		Description:  input.Description,
		ResourceType: input.ResourceType,
		URL:          input.URL,
		AddedBy:      userID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.resourceRepo.Create(ctx, resource); err != nil {
		return nil, err
	}

	slog.Info("リソースを共有しました",
		slog.String("resource_id", resource.ID),
		slog.String("user_id", userID),
	)

	return resource, nil
}

// DeleteResource はリソースを削除する。共有者のみ実行できる。
func (s *Service) DeleteResource(ctx context.Context, userID, id string) error {
	resource, err := s.resourceRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if resource == nil {
		return model.NewNotFoundError("Resource")
	}
	if resource.AddedBy != userID {
		return model.NewForbiddenError("Only the user who shared this resource can delete it")
	}

	return s.resourceRepo.Delete(ctx, id)
}

// invalidateIdeaAfterWrite は更新・削除後のキャッシュ無効化を行う。
func (s *Service) invalidateIdeaAfterWrite(ctx context.Context, id string) {
	s.cache.Delete(ctx, cache.IdeaKey(id))
	s.cache.DeleteByPattern(ctx, cache.IdeaListPattern)
}
