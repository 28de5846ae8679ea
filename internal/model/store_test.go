package model

import (
	"testing"
	"time"
)

func TestStoreItemUpsertReview(t *testing.T) {
	item := &StoreItem{Reviews: []Review{}}

	item.UpsertReview(Review{UserName: "alice", Rating: 4, Comment: "good"})
	item.UpsertReview(Review{UserName: "bob", Rating: 2, Comment: "meh"})

	if item.TotalReviews != 2 {
		t.Fatalf("TotalReviews = %d, want 2", item.TotalReviews)
	}
	if item.AverageRating != 3.0 {
		t.Errorf("AverageRating = %v, want 3.0", item.AverageRating)
	}
}

func TestStoreItemUpsertReviewReplacesByUserName(t *testing.T) {
	item := &StoreItem{
		Reviews: []Review{
			{UserName: "alice", Rating: 1, Comment: "bad", CreatedAt: time.Now()},
			{UserName: "bob", Rating: 5, Comment: "great"},
		},
	}

	// 同じ表示名のレビューは追加ではなく上書きされる
	item.UpsertReview(Review{UserName: "alice", Rating: 5, Comment: "much better"})

	if item.TotalReviews != 2 {
		t.Fatalf("TotalReviews = %d, want 2", item.TotalReviews)
	}
	if item.AverageRating != 5.0 {
		t.Errorf("AverageRating = %v, want 5.0", item.AverageRating)
	}
	for _, r := range item.Reviews {
		if r.UserName == "alice" && r.Comment != "much better" {
			t.Errorf("aliceのレビューが上書きされていない: %+v", r)
		}
	}
}

func TestStoreItemRecalcRatingEmpty(t *testing.T) {
	item := &StoreItem{
		Reviews:       []Review{{UserName: "alice", Rating: 3}},
		AverageRating: 3,
		TotalReviews:  1,
	}

	item.Reviews = nil
	item.UpsertReview(Review{UserName: "bob", Rating: 4})
	item.Reviews = item.Reviews[:0]
	item.recalcRating()

	if item.AverageRating != 0 || item.TotalReviews != 0 {
		t.Errorf("空のレビューで AverageRating = %v, TotalReviews = %d", item.AverageRating, item.TotalReviews)
	}
}
