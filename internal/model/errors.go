package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// ハンドラー層でエラーコードからHTTPステータスコードにマッピングされ、
// {"success":false,"message":...} のエンベロープで返却される。
type APIError struct {
	Code    string // エラーコード
	Message string // クライアント向けエラーメッセージ
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeInvalidURL         = "INVALID_URL"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeDuplicateRepo      = "DUPLICATE_REPO"
	ErrCodeDuplicateEmail     = "DUPLICATE_EMAIL"
	ErrCodeGitHubNotFound     = "GITHUB_NOT_FOUND"
	ErrCodeGitHubRateLimited  = "GITHUB_RATE_LIMITED"
	ErrCodeGitHubFetchFailed  = "GITHUB_FETCH_FAILED"
	ErrCodeSSRFBlocked        = "SSRF_BLOCKED"
)

// NewInvalidRequestError は入力検証エラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{Code: ErrCodeInvalidRequest, Message: reason}
}

// NewInvalidURLError は無効なURLエラーを生成する。
func NewInvalidURLError(reason string) *APIError {
	return &APIError{Code: ErrCodeInvalidURL, Message: reason}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{Code: ErrCodeUnauthorized, Message: "Authentication required"}
}

// NewInvalidCredentialsError は認証情報不一致エラーを生成する。
// メールアドレスの存在有無を秘匿するため、メッセージは共通化する。
func NewInvalidCredentialsError() *APIError {
	return &APIError{Code: ErrCodeInvalidCredentials, Message: "Invalid credentials"}
}

// NewForbiddenError は認可エラーを生成する。
func NewForbiddenError(reason string) *APIError {
	return &APIError{Code: ErrCodeForbidden, Message: reason}
}

// NewNotFoundError はエンティティ未検出エラーを生成する。
func NewNotFoundError(resource string) *APIError {
	return &APIError{Code: ErrCodeNotFound, Message: fmt.Sprintf("%s not found", resource)}
}

// NewDuplicateRepoError はリポジトリ重複登録エラーを生成する。
func NewDuplicateRepoError() *APIError {
	return &APIError{Code: ErrCodeDuplicateRepo, Message: "Repository already exists"}
}

// NewDuplicateEmailError はメールアドレス重複登録エラーを生成する。
func NewDuplicateEmailError() *APIError {
	return &APIError{Code: ErrCodeDuplicateEmail, Message: "Email already registered"}
}

// NewGitHubNotFoundError はGitHub上にリポジトリが存在しないエラーを生成する。
func NewGitHubNotFoundError(owner, name string) *APIError {
	return &APIError{
		Code:    ErrCodeGitHubNotFound,
		Message: fmt.Sprintf("GitHub repository %s/%s not found", owner, name),
	}
}

// NewGitHubRateLimitedError はGitHub APIレート制限エラーを生成する。
func NewGitHubRateLimitedError() *APIError {
	return &APIError{Code: ErrCodeGitHubRateLimited, Message: "GitHub API rate limit exceeded"}
}

// NewGitHubFetchFailedError はGitHubメタデータ取得失敗エラーを生成する。
func NewGitHubFetchFailedError(reason string) *APIError {
	return &APIError{
		Code:    ErrCodeGitHubFetchFailed,
		Message: fmt.Sprintf("Failed to fetch repository metadata: %s", reason),
	}
}

// NewSSRFBlockedError はセキュリティポリシーによるURLブロックエラーを生成する。
func NewSSRFBlockedError() *APIError {
	return &APIError{
		Code:    ErrCodeSSRFBlocked,
		Message: "Access to the specified URL is blocked by security policy",
	}
}
