package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sanosuguru/go-event-booking-ledger/internal/domain/user"
)

var (
	ErrInvalidToken = errors.New("トークンが無効です")
	ErrEmptySecret  = errors.New("JWT署名鍵が設定されていません")
)

// UserClaims はトークンに載せるユーザー情報
type UserClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager はHS256トークンの発行と検証を行う
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager は新しいTokenManagerを作成する
func NewTokenManager(secret string, ttl time.Duration) (*TokenManager, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue はPrincipal用のトークンを発行する
func (m *TokenManager) Issue(p user.Principal) (string, error) {
	now := m.now()
	claims := UserClaims{
		UserID: p.UserID,
		Role:   string(p.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("トークン署名に失敗: %w", err)
	}
	return signed, nil
}

// Parse はトークンを検証してPrincipalを返す
func (m *TokenManager) Parse(tokenString string) (user.Principal, error) {
	claims := &UserClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("想定外の署名方式: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil || !token.Valid {
		return user.Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	p, err := user.NewPrincipal(claims.UserID, user.Role(claims.Role))
	if err != nil {
		return user.Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return p, nil
}
