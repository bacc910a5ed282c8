package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
)

// email重複（unique違反）を統一
var ErrDuplicateEmail = errors.New("email already exists")

// 会員の保存・取得を約束
type UserRepository interface {
	// 新規ユーザー作成。email重複は ErrDuplicateEmail
	Create(ctx context.Context, user *model.User) error

	// IDからユーザーを1件取得。見つからなければ (nil, nil)
	FindByID(ctx context.Context, userID string) (*model.User, error)

	// メールからユーザーを1件取得。見つからなければ (nil, nil)
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// プロフィール・パスワードハッシュの更新
	Update(ctx context.Context, user *model.User) error
}
