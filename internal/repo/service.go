// Package repo はオープンソースリポジトリ共有機能のドメインロジックを提供する。
// GitHubメタデータの取得・同期パイプラインとリードスルーキャッシュを含む。
package repo

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Zemon-tech/ZEMON/internal/cache"
	"github.com/Zemon-tech/ZEMON/internal/model"
	"github.com/Zemon-tech/ZEMON/internal/repository"
	"github.com/Zemon-tech/ZEMON/internal/security"
)

// GitHubFetcher はGitHub APIからのメタデータ取得インターフェース。
type GitHubFetcher interface {
	// FetchRepo はリポジトリのメタデータを取得する。
	FetchRepo(ctx context.Context, owner, name string) (*model.GitHubSnapshot, error)
}

// URLValidator はGitHubリポジトリURLの検証関数。
// 検証成功時はowner/nameを返す。
type URLValidator func(rawURL string) (owner, name string, err error)

// UpdateInput はリポジトリ更新の入力。nilフィールドは変更しない。
type UpdateInput struct {
	Description *string  `json:"description"`
	Tags        []string `json:"tags"`
}

// Service はリポジトリ共有のサービス層。
type Service struct {
	repoRepo    repository.RepoRepository
	github      GitHubFetcher
	validateURL URLValidator
	canonical   func(owner, name string) string
	sanitizer   security.ContentSanitizerService
	cache       cache.Cache
	ttl         time.Duration
}

// NewService はServiceを生成する。
func NewService(
	repoRepo repository.RepoRepository,
	github GitHubFetcher,
	validateURL URLValidator,
	canonical func(owner, name string) string,
	sanitizer security.ContentSanitizerService,
	c cache.Cache,
	ttl time.Duration,
) *Service {
	return &Service{
		repoRepo:    repoRepo,
		github:      github,
		validateURL: validateURL,
		canonical:   canonical,
		sanitizer:   sanitizer,
		cache:       c,
		ttl:         ttl,
	}
}

// List はリポジトリ一覧をページング付きで取得する。
// キャッシュヒット時はデータベースへアクセスしない。
func (s *Service) List(ctx context.Context, page, limit int) (*model.RepoList, error) {
	key := cache.RepoListKey(page, limit)

	var cached model.RepoList
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	pagination := model.Pagination{Page: page, Limit: limit}
	repos, total, err := s.repoRepo.List(ctx, pagination.Offset(), limit)
	if err != nil {
		return nil, err
	}

	list := &model.RepoList{
		Repos:      repos,
		Pagination: model.NewPagination(page, limit, total),
	}
	s.cache.Set(ctx, key, list, s.ttl)

	return list, nil
}

// Get はリポジトリ詳細を取得する。
func (s *Service) Get(ctx context.Context, id string) (*model.Repo, error) {
	key := cache.RepoKey(id)

	var cached model.Repo
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	repo, err := s.repoRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if repo == nil {
		return nil, model.NewNotFoundError("Repository")
	}

	s.cache.Set(ctx, key, repo, s.ttl)
	return repo, nil
}

// ListByUser は指定ユーザーが登録したリポジトリ一覧を取得する。
func (s *Service) ListByUser(ctx context.Context, userID string) ([]*model.Repo, error) {
	key := cache.UserReposKey(userID)

	var cached []*model.Repo
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	repos, err := s.repoRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, key, repos, s.ttl)
	return repos, nil
}

// Create はGitHubリポジトリを登録する。
// パイプライン: URL検証 → 重複チェック → GitHubメタデータ取得 → 永続化。
// メタデータ取得に失敗した場合は登録全体を中断し、部分的な書き込みは行わない。
// languageはリクエスト指定値（小文字化）を優先し、未指定時はスナップショットの値を使う。
func (s *Service) Create(ctx context.Context, userID, rawURL, language string, tags []string) (*model.Repo, error) {
	owner, name, err := s.validateURL(rawURL)
	if err != nil {
		return nil, err
	}

	canonicalURL := s.canonical(owner, name)

	existing, err := s.repoRepo.FindByGitHubURL(ctx, canonicalURL)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, model.NewDuplicateRepoError()
	}

	snapshot, err := s.github.FetchRepo(ctx, owner, name)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	repo := &model.Repo{
		ID:                  uuid.New().String(),
		Name:                snapshot.Name,
		Owner:               snapshot.Owner,
		GitHubURL:           canonicalURL,
		Description:         snapshot.Description,
		Stars:               snapshot.Stars,
		Forks:               snapshot.Forks,
		Contributors:        snapshot.Contributors,
		ProgrammingLanguage: resolveLanguage(language, snapshot.Language),
		Topics:              snapshot.Topics,
		Tags:                tags,
		AddedBy:             userID,
		LastSynced:          now,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := s.repoRepo.Create(ctx, repo); err != nil {
		return nil, err
	}

	s.cache.DeleteByPattern(ctx, cache.RepoPattern)

	slog.Info("リポジトリを登録しました",
		slog.String("repo_id", repo.ID),
		slog.String("github_url", canonicalURL),
		slog.String("user_id", userID),
	)

	return repo, nil
}

// Update はリポジトリの編集可能フィールドを更新する。登録者のみ実行できる。
func (s *Service) Update(ctx context.Context, userID, id string, input UpdateInput) (*model.Repo, error) {
	repo, err := s.repoRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if repo == nil {
		return nil, model.NewNotFoundError("Repository")
	}
	if repo.AddedBy != userID {
		return nil, model.NewForbiddenError("Only the user who added this repository can modify it")
	}

	if input.Description != nil {
		repo.Description = *input.Description
	}
	if input.Tags != nil {
		repo.Tags = input.Tags
	}
	repo.UpdatedAt = time.Now()

	if err := s.repoRepo.Update(ctx, repo); err != nil {
		return nil, err
	}

	s.invalidateAfterWrite(ctx, id, repo.AddedBy)
	return repo, nil
}

// Delete はリポジトリを削除する。登録者のみ実行できる。
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	repo, err := s.repoRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if repo == nil {
		return model.NewNotFoundError("Repository")
	}
	if repo.AddedBy != userID {
		return model.NewForbiddenError("Only the user who added this repository can delete it")
	}

	if err := s.repoRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidateAfterWrite(ctx, id, repo.AddedBy)

	slog.Info("リポジトリを削除しました",
		slog.String("repo_id", id),
		slog.String("user_id", userID),
	)

	return nil
}

// Sync はGitHubから最新のメタデータを取得してリポジトリを上書きする。
// 取得に失敗した場合は既存のメタデータを変更しない。
func (s *Service) Sync(ctx context.Context, id string) (*model.Repo, error) {
	repo, err := s.repoRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if repo == nil {
		return nil, model.NewNotFoundError("Repository")
	}

	snapshot, err := s.github.FetchRepo(ctx, repo.Owner, repo.Name)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	repo.Description = snapshot.Description
	repo.Stars = snapshot.Stars
	repo.Forks = snapshot.Forks
	repo.Contributors = snapshot.Contributors
	repo.ProgrammingLanguage = resolveLanguage("", snapshot.Language)
	repo.Topics = snapshot.Topics
	repo.LastSynced = now
	repo.UpdatedAt = now

	if err := s.repoRepo.Update(ctx, repo); err != nil {
		return nil, err
	}

	s.invalidateAfterWrite(ctx, id, repo.AddedBy)

	slog.Info("リポジトリを同期しました",
		slog.String("repo_id", id),
		slog.Int("stars", repo.Stars),
	)

	return repo, nil
}

// ToggleLike はいいねをトグルする。
// エンゲージメント操作は詳細キャッシュのみを無効化し、一覧キャッシュはTTL失効に任せる。
func (s *Service) ToggleLike(ctx context.Context, userID, id string) (*model.Repo, error) {
	repo, err := s.repoRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if repo == nil {
		return nil, model.NewNotFoundError("Repository")
	}

	repo.ToggleLike(userID)
	repo.UpdatedAt = time.Now()

	if err := s.repoRepo.Update(ctx, repo); err != nil {
		return nil, err
	}

	s.cache.Delete(ctx, cache.RepoKey(id))
	return repo, nil
}

// AddComment はコメントを追加する。
func (s *Service) AddComment(ctx context.Context, userID, id, content string) (*model.Repo, error) {
	if content == "" {
		return nil, model.NewInvalidRequestError("Comment content is required")
	}

	repo, err := s.repoRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if repo == nil {
		return nil, model.NewNotFoundError("Repository")
	}

	repo.Comments = append(repo.Comments, model.Comment{
		UserID:    userID,
		Content:   s.sanitizer.Sanitize(content),
		CreatedAt: time.Now(),
	})
	repo.UpdatedAt = time.Now()

	if err := s.repoRepo.Update(ctx, repo); err != nil {
		return nil, err
	}

	s.cache.Delete(ctx, cache.RepoKey(id))
	return repo, nil
}

// invalidateAfterWrite は更新・削除・同期後のキャッシュ無効化を行う。
// 詳細キャッシュ・一覧キャッシュ・登録者のユーザー別キャッシュを対象とする。
func (s *Service) invalidateAfterWrite(ctx context.Context, id, ownerID string) {
	s.cache.Delete(ctx, cache.RepoKey(id), cache.UserReposKey(ownerID))
	s.cache.DeleteByPattern(ctx, cache.RepoListPattern)
}

// resolveLanguage は登録時の言語表記を決定する。
// リクエスト指定値 → スナップショットの言語 → "not specified" の順で採用し、
// いずれも小文字に正規化する。
func resolveLanguage(requested, snapshot string) string {
	if requested != "" {
		return strings.ToLower(requested)
	}
	if snapshot != "" {
		return strings.ToLower(snapshot)
	}
	return "not specified"
}
