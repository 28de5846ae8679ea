// Package github はGitHub APIからのリポジトリメタデータ取得を提供する。
// リポジトリ登録時と手動同期時の両方で使用される。
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/Zemon-tech/ZEMON/internal/metrics"
	"github.com/Zemon-tech/ZEMON/internal/model"
)

// defaultAPIBaseURL はGitHub REST APIのベースURL。
const defaultAPIBaseURL = "https://api.github.com"

// maxContributorsPerPage はコントリビューター数取得時の1ページあたりの最大件数。
// GitHub APIの上限に合わせる。
const maxContributorsPerPage = 100

// Client はGitHub APIのクライアント。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    metrics.MetricsCollector
	baseURL    string // テスト用にエンドポイントを差し替え可能
	token      string // 未設定の場合は未認証でアクセスする（レート制限が厳しくなる）
}

// NewClient はClientの新しいインスタンスを生成する。
// baseURLが空の場合はGitHub本番APIを使用する。
func NewClient(httpClient *http.Client, logger *slog.Logger, collector metrics.MetricsCollector, baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = defaultAPIBaseURL
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		metrics:    collector,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
	}
}

// ValidateURL はGitHubリポジトリURLを検証し、owner/nameを抽出する。
// スキームはhttp/https、ホストはgithub.com（www.付きも可）を受理し、
// 末尾の.gitと余分なパスセグメントは取り除かれる。
// 正規形への変換はCanonicalURLが担う。
func ValidateURL(rawURL string) (owner, name string, err error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", "", model.NewInvalidURLError("Invalid URL format")
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", "", model.NewInvalidURLError("URL must be a github.com repository URL")
	}
	host := strings.TrimPrefix(strings.ToLower(parsed.Host), "www.")
	if host != "github.com" {
		return "", "", model.NewInvalidURLError("URL must be a github.com repository URL")
	}

	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", model.NewInvalidURLError("URL must include both owner and repository name")
	}

	owner = parts[0]
	name = strings.TrimSuffix(parts[1], ".git")
	if name == "" {
		return "", "", model.NewInvalidURLError("URL must include both owner and repository name")
	}

	return owner, name, nil
}

// CanonicalURL はowner/nameから正規化されたリポジトリURLを構築する。
// 重複判定はこの正規形で行う。
func CanonicalURL(owner, name string) string {
	return fmt.Sprintf("https://github.com/%s/%s", owner, name)
}

// repoResponse はGitHub APIのリポジトリエンドポイントのレスポンス。
type repoResponse struct {
	Description     string   `json:"description"`
	StargazersCount int      `json:"stargazers_count"`
	ForksCount      int      `json:"forks_count"`
	Language        string   `json:"language"`
	Topics          []string `json:"topics"`
}

// FetchRepo はリポジトリのメタデータをGitHub APIから取得する。
// コントリビューター数の取得はベストエフォートで、失敗しても0件として続行する。
// リポジトリ本体の取得失敗は登録・同期処理全体を中断させるエラーとなる。
func (c *Client) FetchRepo(ctx context.Context, owner, name string) (*model.GitHubSnapshot, error) {
	body, err := c.get(ctx, fmt.Sprintf("%s/repos/%s/%s", c.baseURL, owner, name), owner, name)
	if err != nil {
		return nil, err
	}

	var repo repoResponse
	if err := json.Unmarshal(body, &repo); err != nil {
		c.metrics.RecordGitHubFetchFailure("parse")
		return nil, model.NewGitHubFetchFailedError("unexpected response from GitHub")
	}

	snapshot := &model.GitHubSnapshot{
		Owner:       owner,
		Name:        name,
		Description: repo.Description,
		Stars:       repo.StargazersCount,
		Forks:       repo.ForksCount,
		Language:    repo.Language,
		Topics:      repo.Topics,
	}

	snapshot.Contributors = c.fetchContributorCount(ctx, owner, name)

	c.metrics.RecordGitHubFetchSuccess()
	return snapshot, nil
}

// fetchContributorCount はコントリビューター数を取得する。
// 失敗時は0を返し、エラーは警告ログのみで呼び出し元へ伝播しない。
func (c *Client) fetchContributorCount(ctx context.Context, owner, name string) int {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/contributors?per_page=%d&anon=true",
		c.baseURL, owner, name, maxContributorsPerPage)

	body, err := c.get(ctx, endpoint, owner, name)
	if err != nil {
		c.logger.Warn("コントリビューター数の取得に失敗しました",
			slog.String("owner", owner),
			slog.String("name", name),
			slog.String("error", err.Error()),
		)
		return 0
	}

	var contributors []json.RawMessage
	if err := json.Unmarshal(body, &contributors); err != nil {
		c.logger.Warn("コントリビューターレスポンスのパースに失敗しました",
			slog.String("owner", owner),
			slog.String("name", name),
		)
		return 0
	}

	return len(contributors)
}

// get はGitHub APIへのGETリクエストを実行し、レスポンスボディを返す。
// ステータスコードをドメインエラーにマッピングする。
func (c *Client) get(ctx context.Context, endpoint, owner, name string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "Zemon/1.0")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordGitHubFetchFailure("network")
		c.logger.Error("GitHub APIの呼び出しに失敗しました",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()),
		)
		return nil, model.NewGitHubFetchFailedError("GitHub is unreachable")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		c.metrics.RecordGitHubFetchFailure("not_found")
		return nil, model.NewGitHubNotFoundError(owner, name)
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
		c.metrics.RecordGitHubFetchFailure("rate_limited")
		c.logger.Warn("GitHub APIのレート制限に達しました",
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, model.NewGitHubRateLimitedError()
	case resp.StatusCode != http.StatusOK:
		c.metrics.RecordGitHubFetchFailure("http_error")
		return nil, model.NewGitHubFetchFailedError(
			fmt.Sprintf("GitHub returned status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.RecordGitHubFetchFailure("read")
		return nil, model.NewGitHubFetchFailedError("failed to read GitHub response")
	}

	return body, nil
}
