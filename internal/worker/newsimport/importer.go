// Package newsimport はRSSフィードからのテックニュース自動取り込みを提供する。
package newsimport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html/charset"

	"github.com/Zemon-tech/ZEMON/internal/cache"
	"github.com/Zemon-tech/ZEMON/internal/metrics"
	"github.com/Zemon-tech/ZEMON/internal/model"
	"github.com/Zemon-tech/ZEMON/internal/repository"
	"github.com/Zemon-tech/ZEMON/internal/security"
)

// excerptMaxLen は記事抜粋の最大文字数。
const excerptMaxLen = 200

// Importer は設定されたRSSフィードを巡回し、未取り込みの記事を
// ニュースとして保存する。source_urlで重複排除する。
type Importer struct {
	newsRepo    repository.NewsRepository
	ssrfGuard   security.SSRFGuardService
	sanitizer   security.ContentSanitizerService
	cache       cache.Cache
	metrics     metrics.MetricsCollector
	logger      *slog.Logger
	feedURLs    []string
	timeout     time.Duration
	maxBodySize int64

	// 抜粋生成用。全タグを除去してプレーンテキスト化する。
	stripPolicy *bluemonday.Policy
}

// NewImporter はImporterの新しいインスタンスを生成する。
func NewImporter(
	newsRepo repository.NewsRepository,
	ssrfGuard security.SSRFGuardService,
	sanitizer security.ContentSanitizerService,
	c cache.Cache,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
	feedURLs []string,
	timeout time.Duration,
	maxBodySize int64,
) *Importer {
	return &Importer{
		newsRepo:    newsRepo,
		ssrfGuard:   ssrfGuard,
		sanitizer:   sanitizer,
		cache:       c,
		metrics:     collector,
		logger:      logger,
		feedURLs:    feedURLs,
		timeout:     timeout,
		maxBodySize: maxBodySize,
		stripPolicy: bluemonday.StrictPolicy(),
	}
}

// Start は指定間隔のティッカーでインポートサイクルを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (im *Importer) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	im.logger.Info("ニュースインポータを開始しました",
		slog.Duration("interval", interval),
		slog.Int("feed_count", len(im.feedURLs)),
	)

	// 起動直後に1回実行
	im.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			im.logger.Info("ニュースインポータを停止しました")
			return
		case <-ticker.C:
			im.RunOnce(ctx)
		}
	}
}

// RunOnce は全フィードを1回巡回する。フィード単位の失敗は記録して続行する。
func (im *Importer) RunOnce(ctx context.Context) {
	start := time.Now()
	total := 0

	for _, feedURL := range im.feedURLs {
		imported, err := im.importFeed(ctx, feedURL)
		if err != nil {
			im.logger.Error("フィードの取り込みに失敗しました",
				slog.String("feed_url", feedURL),
				slog.String("error", err.Error()),
			)
			continue
		}
		total += imported
	}

	if total > 0 {
		// 取り込んだ記事を一覧に反映させる
		im.cache.DeleteByPattern(ctx, cache.NewsPattern)
		im.metrics.RecordNewsImported(total)
	}

	im.logger.Info("インポートサイクルが完了しました",
		slog.Int("imported", total),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
}

// importFeed は単一フィードをフェッチ・パースし、新規記事を保存する。
func (im *Importer) importFeed(ctx context.Context, feedURL string) (int, error) {
	if err := im.ssrfGuard.ValidateURL(feedURL); err != nil {
		return 0, fmt.Errorf("SSRF検証に失敗: %w", err)
	}

	client := im.ssrfGuard.NewSafeClient(im.timeout)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return 0, fmt.Errorf("リクエスト作成に失敗: %w", err)
	}
	req.Header.Set("User-Agent", "Zemon/1.0 News Importer")
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, */*")

	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("HTTPリクエスト失敗: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("HTTPステータス %d が返されました", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, im.maxBodySize))
	if err != nil {
		return 0, fmt.Errorf("レスポンス読み取り失敗: %w", err)
	}

	// 文字コードをUTF-8に正規化してからパースする
	reader, err := charset.NewReader(bytes.NewReader(body), resp.Header.Get("Content-Type"))
	if err != nil {
		return 0, fmt.Errorf("文字コード判定に失敗: %w", err)
	}

	parsed, err := gofeed.NewParser().Parse(reader)
	if err != nil {
		return 0, fmt.Errorf("フィードのパースに失敗: %w", err)
	}

	imported := 0
	for _, item := range parsed.Items {
		if item == nil || item.Title == "" || item.Link == "" {
			continue
		}

		created, err := im.importItem(ctx, item)
		if err != nil {
			im.logger.Warn("記事の取り込みに失敗しました",
				slog.String("feed_url", feedURL),
				slog.String("link", item.Link),
				slog.String("error", err.Error()),
			)
			continue
		}
		if created {
			imported++
		}
	}

	im.logger.Info("フィードを取り込みました",
		slog.String("feed_url", feedURL),
		slog.Int("items_total", len(parsed.Items)),
		slog.Int("items_imported", imported),
	)

	return imported, nil
}

// importItem はフィード記事を1件保存する。既存記事はスキップしfalseを返す。
func (im *Importer) importItem(ctx context.Context, item *gofeed.Item) (bool, error) {
	existing, err := im.newsRepo.FindBySourceURL(ctx, item.Link)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}

	content := item.Content
	if content == "" {
		content = item.Description
	}

	now := time.Now()
	article := &model.News{
		ID:        uuid.New().String(),
		Title:     item.Title,
		Content:   im.sanitizer.Sanitize(content),
		Excerpt:   im.excerpt(item.Description, content),
		Category:  categoryOf(item),
		Tags:      tagsOf(item),
		SourceURL: item.Link,
		Likes:     []string{},
		Comments:  []model.Comment{},
		CreatedAt: publishedAt(item, now),
		UpdatedAt: now,
	}
	if item.Image != nil {
		article.Image = item.Image.URL
	}

	if err := im.newsRepo.Create(ctx, article); err != nil {
		return false, err
	}
	return true, nil
}

// excerpt は記事の抜粋をプレーンテキストで生成する。
func (im *Importer) excerpt(description, content string) string {
	source := description
	if source == "" {
		source = content
	}

	plain := strings.TrimSpace(im.stripPolicy.Sanitize(source))
	runes := []rune(plain)
	if len(runes) <= excerptMaxLen {
		return plain
	}
	return string(runes[:excerptMaxLen])
}

// categoryOf はフィード記事のカテゴリを決定する。未分類はgeneral。
func categoryOf(item *gofeed.Item) string {
	if len(item.Categories) > 0 && item.Categories[0] != "" {
		return strings.ToLower(item.Categories[0])
	}
	return "general"
}

// tagsOf はフィード記事のカテゴリ一覧をタグに変換する。
func tagsOf(item *gofeed.Item) []string {
	tags := make([]string, 0, len(item.Categories))
	for _, c := range item.Categories {
		if c == "" {
			continue
		}
		tags = append(tags, strings.ToLower(c))
	}
	return tags
}

// publishedAt は記事の公開日時を返す。不明な場合はフォールバックを使う。
func publishedAt(item *gofeed.Item, fallback time.Time) time.Time {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed
	}
	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed
	}
	return fallback
}
