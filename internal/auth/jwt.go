// Package auth はユーザー登録・ログイン・JWT発行を提供する。
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Zemon-tech/ZEMON/internal/model"
)

// Claims はアクセストークンに含めるクレーム。
type Claims struct {
	Name string     `json:"name"`
	Role model.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager はJWTアクセストークンの発行と検証を行う。
type TokenManager struct {
	secret []byte
	expiry time.Duration
}

// NewTokenManager はTokenManagerを生成する。
func NewTokenManager(secret string, expiry time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		expiry: expiry,
	}
}

// Issue はユーザーに対する署名済みアクセストークンを発行する。
// 署名アルゴリズムはHMAC-SHA256を使用する。
func (m *TokenManager) Issue(user *model.User, now time.Time) (string, error) {
	claims := Claims{
		Name: user.Name,
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("トークンの署名に失敗しました: %w", err)
	}
	return signed, nil
}

// Verify はトークンを検証し、クレームを返す。
// 署名不正・期限切れ・アルゴリズム不一致はすべてエラーとなる。
func (m *TokenManager) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("トークンの検証に失敗しました: %w", err)
	}
	return claims, nil
}
