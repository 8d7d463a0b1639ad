package user

import "errors"

// Role はリクエスト主体の権限を表す
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

var (
	ErrUserIDRequired = errors.New("ユーザーIDは必須です")
	ErrInvalidRole    = errors.New("不正なロールです")
)

// Principal は認証済みのリクエスト主体
type Principal struct {
	UserID string
	Role   Role
}

// NewPrincipal はPrincipalを作成する。ロール未指定の場合は一般ユーザーとして扱う
func NewPrincipal(userID string, role Role) (Principal, error) {
	if userID == "" {
		return Principal{}, ErrUserIDRequired
	}
	if role == "" {
		role = RoleUser
	}
	if role != RoleUser && role != RoleAdmin {
		return Principal{}, ErrInvalidRole
	}
	return Principal{UserID: userID, Role: role}, nil
}

// IsAdmin は管理者かを返す
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// CanAccess は所有者本人または管理者であればtrueを返す
func (p Principal) CanAccess(ownerID string) bool {
	return p.IsAdmin() || (p.UserID != "" && p.UserID == ownerID)
}
