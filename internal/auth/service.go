package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Zemon-tech/ZEMON/internal/model"
	"github.com/Zemon-tech/ZEMON/internal/repository"
)

// minPasswordLength はパスワードの最小文字数。
const minPasswordLength = 8

// SignupInput はユーザー登録の入力。
type SignupInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// ProfileUpdateInput はプロフィール更新の入力。
// nilフィールドは変更しない部分更新を行う。
type ProfileUpdateInput struct {
	Name            *string          `json:"name"`
	DisplayName     *string          `json:"displayName"`
	Avatar          *string          `json:"avatar"`
	Company         *string          `json:"company"`
	GitHub          *string          `json:"github"`
	GitHubUsername  *string          `json:"github_username"`
	LinkedIn        *string          `json:"linkedin"`
	PersonalWebsite *string          `json:"personalWebsite"`
	Education       *model.Education `json:"education"`
}

// Service は認証とユーザー管理のビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	tokens   *TokenManager
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository, tokens *TokenManager) *Service {
	return &Service{
		userRepo: userRepo,
		tokens:   tokens,
	}
}

// Signup は新規ユーザーを登録し、アクセストークンを発行する。
// メールアドレスが登録済みの場合はDUPLICATE_EMAILエラーを返す。
func (s *Service) Signup(ctx context.Context, input SignupInput) (*model.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, "", model.NewInvalidRequestError("A valid email address is required")
	}
	if len(input.Password) < minPasswordLength {
		return nil, "", model.NewInvalidRequestError(
			fmt.Sprintf("Password must be at least %d characters", minPasswordLength))
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, "", model.NewInvalidRequestError("Name is required")
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, "", err
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(input.Name),
		Role:         model.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Issue(user, now)
	if err != nil {
		return nil, "", err
	}

	slog.Info("新規ユーザーを登録しました",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, token, nil
}

// Login はメールアドレスとパスワードで認証し、アクセストークンを発行する。
// ユーザー不在とパスワード不一致は区別せず同一のエラーを返す。
func (s *Service) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	user, err := s.userRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, "", err
	}
	if user == nil || !CheckPassword(user.PasswordHash, password) {
		return nil, "", model.NewInvalidCredentialsError()
	}

	token, err := s.tokens.Issue(user, time.Now())
	if err != nil {
		return nil, "", err
	}

	slog.Info("ユーザーがログインしました", slog.String("user_id", user.ID))

	return user, token, nil
}

// GetCurrentUser は認証済みユーザーの情報を取得する。
func (s *Service) GetCurrentUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, model.NewNotFoundError("User")
	}
	return user, nil
}

// UpdateProfile は認証済みユーザーのプロフィールを部分更新する。
func (s *Service) UpdateProfile(ctx context.Context, userID string, input ProfileUpdateInput) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, model.NewNotFoundError("User")
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, model.NewInvalidRequestError("Name cannot be empty")
		}
		user.Name = strings.TrimSpace(*input.Name)
	}
	if input.DisplayName != nil {
		user.DisplayName = *input.DisplayName
	}
	if input.Avatar != nil {
		user.Avatar = *input.Avatar
	}
	if input.Company != nil {
		user.Company = *input.Company
	}
	if input.GitHub != nil {
		user.GitHub = *input.GitHub
	}
	if input.GitHubUsername != nil {
		user.GitHubUsername = *input.GitHubUsername
	}
	if input.LinkedIn != nil {
		user.LinkedIn = *input.LinkedIn
	}
	if input.PersonalWebsite != nil {
		user.PersonalWebsite = *input.PersonalWebsite
	}
	if input.Education != nil {
		user.Education = input.Education
	}
	user.UpdatedAt = time.Now()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// GetPublicProfile は公開プロフィールを取得する。認証不要。
func (s *Service) GetPublicProfile(ctx context.Context, userID string) (map[string]any, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, model.NewNotFoundError("User")
	}
	return user.PublicProfile(), nil
}
