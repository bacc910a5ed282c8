package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// お問い合わせの保存・一覧取得の約束
type ContactRepository interface {
	Create(ctx context.Context, contact model.Contact) (model.Contact, error)

	// 新しい順。limit件まで
	ListRecent(ctx context.Context, limit int) ([]model.Contact, error)
}
