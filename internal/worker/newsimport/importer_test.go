package newsimport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Zemon-tech/ZEMON/internal/cache"
	"github.com/Zemon-tech/ZEMON/internal/model"
	"github.com/Zemon-tech/ZEMON/internal/security"
)

const rssFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Tech Feed</title>
    <link>https://feed.example</link>
    <item>
      <title>Go 1.26 Released</title>
      <link>https://feed.example/go-1-26</link>
      <description>&lt;p&gt;The Go team released 1.26.&lt;/p&gt;&lt;script&gt;alert(1)&lt;/script&gt;</description>
      <category>Golang</category>
      <category>Release</category>
      <pubDate>Mon, 02 Jun 2025 10:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Already Imported</title>
      <link>https://feed.example/old-article</link>
      <description>seen before</description>
    </item>
    <item>
      <title></title>
      <link>https://feed.example/no-title</link>
      <description>skipped for missing title</description>
    </item>
  </channel>
</rss>`

// permissiveGuard はテストサーバーへの接続を許可するSSRFガードのフェイク。
// 実ガードはループバックをブロックするため、httptestと併用できない。
type permissiveGuard struct {
	validateErr error
}

func (g *permissiveGuard) ValidateURL(_ string) error {
	return g.validateErr
}

func (g *permissiveGuard) NewSafeClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

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

// mockNewsRepo はテスト用のNewsRepositoryモック。
type mockNewsRepo struct {
	articles    map[string]*model.News
	createCalls int
}

func newMockNewsRepo() *mockNewsRepo {
	return &mockNewsRepo{articles: make(map[string]*model.News)}
}

func (m *mockNewsRepo) FindByID(_ context.Context, id string) (*model.News, error) {
	n, ok := m.articles[id]
	if !ok {
		return nil, nil
	}
	return n, nil
}

func (m *mockNewsRepo) FindBySourceURL(_ context.Context, sourceURL string) (*model.News, error) {
	for _, n := range m.articles {
		if n.SourceURL == sourceURL {
			return n, nil
		}
	}
	return nil, nil
}

func (m *mockNewsRepo) List(_ context.Context, _, _ int, _ string) ([]*model.News, int, error) {
	return nil, 0, nil
}

func (m *mockNewsRepo) Create(_ context.Context, news *model.News) error {
	m.createCalls++
	m.articles[news.ID] = news
	return nil
}

func (m *mockNewsRepo) Update(_ context.Context, news *model.News) error {
	m.articles[news.ID] = news
	return nil
}

func (m *mockNewsRepo) Delete(_ context.Context, id string) error {
	delete(m.articles, id)
	return nil
}

func (m *mockNewsRepo) IncrementViews(_ context.Context, _ string) error {
	return nil
}

// stubMetrics は取り込み件数の記録のみ追跡するMetricsCollector。
type stubMetrics struct {
	newsImported int
}

func (s *stubMetrics) RecordHTTPStatus(_ int)               {}
func (s *stubMetrics) RecordRequestLatency(_ time.Duration) {}
func (s *stubMetrics) RecordCacheHit(_ string)              {}
func (s *stubMetrics) RecordCacheMiss(_ string)             {}
func (s *stubMetrics) RecordGitHubFetchSuccess()            {}
func (s *stubMetrics) RecordGitHubFetchFailure(_ string)    {}
func (s *stubMetrics) RecordNewsImported(count int)         { s.newsImported += count }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestImporter(repo *mockNewsRepo, guard security.SSRFGuardService, c cache.Cache, collector *stubMetrics, feedURLs []string) *Importer {
	return NewImporter(
		repo,
		guard,
		security.NewContentSanitizer(),
		c,
		collector,
		testLogger(),
		feedURLs,
		5*time.Second,
		1<<20,
	)
}

func TestRunOnceImportsNewArticles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
		w.Write([]byte(rssFixture))
	}))
	defer server.Close()

	repo := newMockNewsRepo()
	// 2件目の記事は取り込み済み
	repo.articles["existing"] = &model.News{ID: "existing", SourceURL: "https://feed.example/old-article"}

	c := newFakeCache()
	c.entries[cache.NewsListKey(1, 10, "")] = []byte(`{}`)
	collector := &stubMetrics{}
	im := newTestImporter(repo, &permissiveGuard{}, c, collector, []string{server.URL})

	im.RunOnce(context.Background())

	if repo.createCalls != 1 {
		t.Fatalf("createCalls = %d, want 1", repo.createCalls)
	}

	var created *model.News
	for _, n := range repo.articles {
		if n.ID != "existing" {
			created = n
		}
	}
	if created == nil {
		t.Fatal("新規記事が保存されていない")
	}

	if created.Title != "Go 1.26 Released" {
		t.Errorf("Title = %q", created.Title)
	}
	if created.SourceURL != "https://feed.example/go-1-26" {
		t.Errorf("SourceURL = %q", created.SourceURL)
	}
	// 本文はサニタイズされる
	if strings.Contains(created.Content, "<script>") {
		t.Errorf("scriptタグが除去されていない: %q", created.Content)
	}
	// カテゴリは先頭カテゴリの小文字
	if created.Category != "golang" {
		t.Errorf("Category = %q, want %q", created.Category, "golang")
	}
	if len(created.Tags) != 2 || created.Tags[0] != "golang" || created.Tags[1] != "release" {
		t.Errorf("Tags = %v", created.Tags)
	}
	// 公開日時はpubDateから取得される
	wantPublished := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	if !created.CreatedAt.Equal(wantPublished) {
		t.Errorf("CreatedAt = %v, want %v", created.CreatedAt, wantPublished)
	}

	// 取り込み後はニュース一覧キャッシュが無効化される
	if _, ok := c.entries[cache.NewsListKey(1, 10, "")]; ok {
		t.Error("一覧キャッシュが無効化されていない")
	}
	if collector.newsImported != 1 {
		t.Errorf("newsImported = %d, want 1", collector.newsImported)
	}
}

// 2回目の巡回では同じ記事を再取り込みしない。
func TestRunOnceIsIdempotent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(rssFixture))
	}))
	defer server.Close()

	repo := newMockNewsRepo()
	collector := &stubMetrics{}
	im := newTestImporter(repo, &permissiveGuard{}, newFakeCache(), collector, []string{server.URL})

	im.RunOnce(context.Background())
	im.RunOnce(context.Background())

	if repo.createCalls != 2 {
		t.Errorf("createCalls = %d, want 2", repo.createCalls)
	}
	if collector.newsImported != 2 {
		t.Errorf("newsImported = %d, want 2", collector.newsImported)
	}
}

// SSRF検証に失敗したフィードはフェッチされない。
func TestRunOnceSkipsBlockedFeed(t *testing.T) {
	fetched := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fetched = true
		w.Write([]byte(rssFixture))
	}))
	defer server.Close()

	repo := newMockNewsRepo()
	collector := &stubMetrics{}
	guard := &permissiveGuard{validateErr: errors.New("URL host is blocked")}
	im := newTestImporter(repo, guard, newFakeCache(), collector, []string{server.URL})

	im.RunOnce(context.Background())

	if fetched {
		t.Error("ブロックされたフィードがフェッチされた")
	}
	if repo.createCalls != 0 {
		t.Errorf("createCalls = %d, want 0", repo.createCalls)
	}
}

// フィード単位の失敗は他のフィードの取り込みを妨げない。
func TestRunOnceContinuesAfterFeedFailure(t *testing.T) {
	okServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(rssFixture))
	}))
	defer okServer.Close()

	brokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer brokenServer.Close()

	repo := newMockNewsRepo()
	collector := &stubMetrics{}
	im := newTestImporter(repo, &permissiveGuard{}, newFakeCache(), collector, []string{brokenServer.URL, okServer.URL})

	im.RunOnce(context.Background())

	if repo.createCalls != 2 {
		t.Errorf("createCalls = %d, want 2", repo.createCalls)
	}
}

// 取り込みゼロの場合はキャッシュ無効化もメトリクス記録も行わない。
func TestRunOnceNoNewArticlesLeavesCacheIntact(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(`<?xml version="1.0"?><rss version="2.0"><channel><title>empty</title></channel></rss>`))
	}))
	defer server.Close()

	c := newFakeCache()
	c.entries[cache.NewsListKey(1, 10, "")] = []byte(`{}`)
	collector := &stubMetrics{}
	im := newTestImporter(newMockNewsRepo(), &permissiveGuard{}, c, collector, []string{server.URL})

	im.RunOnce(context.Background())

	if _, ok := c.entries[cache.NewsListKey(1, 10, "")]; !ok {
		t.Error("取り込みゼロなのに一覧キャッシュが無効化された")
	}
	if collector.newsImported != 0 {
		t.Errorf("newsImported = %d, want 0", collector.newsImported)
	}
}

func TestExcerptTruncatesPlainText(t *testing.T) {
	im := newTestImporter(newMockNewsRepo(), &permissiveGuard{}, newFakeCache(), &stubMetrics{}, nil)

	long := "<p>" + strings.Repeat("あ", 300) + "</p>"
	got := im.excerpt(long, "")

	if strings.Contains(got, "<p>") {
		t.Errorf("タグが残っている: %q", got)
	}
	if n := len([]rune(got)); n != excerptMaxLen {
		t.Errorf("抜粋の長さ = %d, want %d", n, excerptMaxLen)
	}
}
