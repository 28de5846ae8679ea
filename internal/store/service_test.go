package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Zemon-tech/ZEMON/internal/cache"
	"github.com/Zemon-tech/ZEMON/internal/model"
	"github.com/Zemon-tech/ZEMON/internal/security"
)

// fakeCache はテスト用のインメモリキャッシュ。
type fakeCache struct {
	entries map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]byte)}
}

func (f *fakeCache) Get(_ context.Context, key string, dest any) bool {
	data, ok := f.entries[key]
	if !ok {
		return false
	}
	return json.Unmarshal(data, dest) == nil
}

func (f *fakeCache) GetMany(_ context.Context, keys []string) [][]byte {
	results := make([][]byte, len(keys))
	for i, key := range keys {
		if data, ok := f.entries[key]; ok {
			results[i] = data
		}
	}
	return results
}

func (f *fakeCache) Set(_ context.Context, key string, value any, _ time.Duration) {
	if data, err := json.Marshal(value); err == nil {
		f.entries[key] = data
	}
}

func (f *fakeCache) Delete(_ context.Context, keys ...string) {
	for _, key := range keys {
		delete(f.entries, key)
	}
}

func (f *fakeCache) DeleteByPattern(_ context.Context, pattern string) {
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range f.entries {
		if strings.HasPrefix(key, prefix) {
			delete(f.entries, key)
		}
	}
}

// mockStoreRepo はテスト用のStoreRepositoryモック。
type mockStoreRepo struct {
	items       map[string]*model.StoreItem
	updateCalls int
}

func newMockStoreRepo() *mockStoreRepo {
	return &mockStoreRepo{items: make(map[string]*model.StoreItem)}
}

func (m *mockStoreRepo) FindByID(_ context.Context, id string) (*model.StoreItem, error) {
	i, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	return i, nil
}

func (m *mockStoreRepo) List(_ context.Context, _, _ int, category, status string) ([]*model.StoreItem, int, error) {
	var items []*model.StoreItem
	for _, i := range m.items {
		if category != "" && i.Category != category {
			continue
		}
		if status != "" && i.Status != status {
			continue
		}
		items = append(items, i)
	}
	return items, len(items), nil
}

func (m *mockStoreRepo) ListByAuthor(_ context.Context, userID string) ([]*model.StoreItem, error) {
	var items []*model.StoreItem
	for _, i := range m.items {
		if i.Author == userID {
			items = append(items, i)
		}
	}
	return items, nil
}

func (m *mockStoreRepo) Create(_ context.Context, item *model.StoreItem) error {
	m.items[item.ID] = item
	return nil
}

func (m *mockStoreRepo) Update(_ context.Context, item *model.StoreItem) error {
	m.updateCalls++
	m.items[item.ID] = item
	return nil
}

func (m *mockStoreRepo) Delete(_ context.Context, id string) error {
	delete(m.items, id)
	return nil
}

func (m *mockStoreRepo) IncrementViews(_ context.Context, id string) error {
	if i, ok := m.items[id]; ok {
		i.Views++
	}
	return nil
}

// mockUserRepo はテスト用のUserRepositoryモック。
type mockUserRepo struct {
	users map[string]*model.User
}

func (m *mockUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return u, nil
}

func (m *mockUserRepo) FindByEmail(_ context.Context, _ string) (*model.User, error) {
	return nil, nil
}

func (m *mockUserRepo) Create(_ context.Context, _ *model.User) error { return nil }
func (m *mockUserRepo) Update(_ context.Context, _ *model.User) error { return nil }

func newTestService(storeRepo *mockStoreRepo, users *mockUserRepo, c cache.Cache) *Service {
	return NewService(storeRepo, users, security.NewContentSanitizer(), c, time.Hour)
}

func validCreateInput() CreateInput {
	return CreateInput{
		Name:     "CoolLinter",
		URL:      "https://coollinter.dev",
		Category: "Developer Tools",
	}
}

// ストアアイテムは作成時に無条件でapprovedになる。
func TestCreateForcesApprovedStatus(t *testing.T) {
	repo := newMockStoreRepo()
	svc := newTestService(repo, &mockUserRepo{}, newFakeCache())

	created, err := svc.Create(context.Background(), "user-1", validCreateInput())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if created.Status != model.StoreStatusApproved {
		t.Errorf("Status = %q, want %q", created.Status, model.StoreStatusApproved)
	}
	if created.Author != "user-1" {
		t.Errorf("Author = %q", created.Author)
	}
}

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CreateInput)
	}{
		{name: "名前なし", mutate: func(in *CreateInput) { in.Name = "" }},
		{name: "URLなし", mutate: func(in *CreateInput) { in.URL = "" }},
		{name: "不正なカテゴリ", mutate: func(in *CreateInput) { in.Category = "Gardening" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(newMockStoreRepo(), &mockUserRepo{}, newFakeCache())
			input := validCreateInput()
			tt.mutate(&input)

			_, err := svc.Create(context.Background(), "user-1", input)

			var apiErr *model.APIError
			if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidRequest {
				t.Errorf("error = %v, want INVALID_REQUEST", err)
			}
		})
	}
}

func TestAddReview(t *testing.T) {
	repo := newMockStoreRepo()
	repo.items["s1"] = &model.StoreItem{ID: "s1", Reviews: []model.Review{}}
	users := &mockUserRepo{users: map[string]*model.User{
		"user-1": {ID: "user-1", Name: "Alice"},
	}}
	c := newFakeCache()
	c.entries[cache.StoreItemKey("s1")] = []byte(`{}`)
	c.entries[cache.StoreListKey(1, 12, "", "approved")] = []byte(`{}`)
	svc := newTestService(repo, users, c)

	updated, err := svc.AddReview(context.Background(), "user-1", "s1", ReviewInput{
		Rating:  4,
		Comment: "solid tool",
	})
	if err != nil {
		t.Fatalf("AddReview() error = %v", err)
	}

	if updated.TotalReviews != 1 {
		t.Errorf("TotalReviews = %d, want 1", updated.TotalReviews)
	}
	if updated.AverageRating != 4.0 {
		t.Errorf("AverageRating = %v, want 4.0", updated.AverageRating)
	}
	// レビューにはユーザーの表示名が記録される
	if updated.Reviews[0].UserName != "Alice" {
		t.Errorf("UserName = %q, want %q", updated.Reviews[0].UserName, "Alice")
	}
	// レビューは詳細キャッシュのみを無効化する
	if _, ok := c.entries[cache.StoreItemKey("s1")]; ok {
		t.Error("詳細キャッシュが無効化されていない")
	}
	if _, ok := c.entries[cache.StoreListKey(1, 12, "", "approved")]; !ok {
		t.Error("一覧キャッシュまで無効化された")
	}
}

// レビュー本文は保存前にサニタイズされる。
func TestAddReviewSanitizesComment(t *testing.T) {
	repo := newMockStoreRepo()
	repo.items["s1"] = &model.StoreItem{ID: "s1", Reviews: []model.Review{}}
	users := &mockUserRepo{users: map[string]*model.User{
		"user-1": {ID: "user-1", Name: "Alice"},
	}}
	svc := newTestService(repo, users, newFakeCache())

	updated, err := svc.AddReview(context.Background(), "user-1", "s1", ReviewInput{
		Rating:  4,
		Comment: `nice<script>alert(1)</script>`,
	})
	if err != nil {
		t.Fatalf("AddReview() error = %v", err)
	}

	if got := updated.Reviews[0].Comment; strings.Contains(got, "<script>") {
		t.Errorf("scriptタグが除去されていない: %q", got)
	}
}

func TestAddReviewRatingRange(t *testing.T) {
	repo := newMockStoreRepo()
	repo.items["s1"] = &model.StoreItem{ID: "s1"}
	svc := newTestService(repo, &mockUserRepo{}, newFakeCache())

	for _, rating := range []int{0, -1, 6} {
		_, err := svc.AddReview(context.Background(), "user-1", "s1", ReviewInput{Rating: rating})

		var apiErr *model.APIError
		if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidRequest {
			t.Errorf("rating %d: error = %v, want INVALID_REQUEST", rating, err)
		}
	}
}

func TestAddReviewUpsertsByUserName(t *testing.T) {
	repo := newMockStoreRepo()
	repo.items["s1"] = &model.StoreItem{
		ID: "s1",
		Reviews: []model.Review{
			{UserName: "Alice", Rating: 1, Comment: "early impression"},
		},
		AverageRating: 1,
		TotalReviews:  1,
	}
	users := &mockUserRepo{users: map[string]*model.User{
		"user-1": {ID: "user-1", Name: "Alice"},
	}}
	svc := newTestService(repo, users, newFakeCache())

	updated, err := svc.AddReview(context.Background(), "user-1", "s1", ReviewInput{
		Rating:  5,
		Comment: "improved a lot",
	})
	if err != nil {
		t.Fatalf("AddReview() error = %v", err)
	}

	if updated.TotalReviews != 1 {
		t.Errorf("TotalReviews = %d, want 1", updated.TotalReviews)
	}
	if updated.AverageRating != 5.0 {
		t.Errorf("AverageRating = %v, want 5.0", updated.AverageRating)
	}
}

func TestUpdateOwnership(t *testing.T) {
	repo := newMockStoreRepo()
	repo.items["s1"] = &model.StoreItem{ID: "s1", Author: "owner"}
	svc := newTestService(repo, &mockUserRepo{}, newFakeCache())

	name := "renamed"
	_, err := svc.Update(context.Background(), "someone-else", "s1", UpdateInput{Name: &name})

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeForbidden {
		t.Errorf("error = %v, want FORBIDDEN", err)
	}
	if repo.updateCalls != 0 {
		t.Error("認可エラー時にUpdateが呼ばれた")
	}
}

func TestDeleteInvalidatesUserTools(t *testing.T) {
	repo := newMockStoreRepo()
	repo.items["s1"] = &model.StoreItem{ID: "s1", Author: "owner"}
	c := newFakeCache()
	c.entries[cache.StoreItemKey("s1")] = []byte(`{}`)
	c.entries[cache.UserToolsKey("owner")] = []byte(`[]`)
	svc := newTestService(repo, &mockUserRepo{}, c)

	if err := svc.Delete(context.Background(), "owner", "s1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, ok := c.entries[cache.StoreItemKey("s1")]; ok {
		t.Error("詳細キャッシュが残っている")
	}
	if _, ok := c.entries[cache.UserToolsKey("owner")]; ok {
		t.Error("ユーザーツール一覧キャッシュが残っている")
	}
}
