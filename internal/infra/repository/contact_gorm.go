package repository

import (
	"context"

	"storefront/internal/domain/model"

	"gorm.io/gorm"
)

type ContactGormRepository struct {
	db *gorm.DB
}

func NewContactGormRepository(db *gorm.DB) *ContactGormRepository {
	return &ContactGormRepository{db: db}
}

func (r *ContactGormRepository) Create(ctx context.Context, contact model.Contact) (model.Contact, error) {
	if err := r.db.WithContext(ctx).Create(&contact).Error; err != nil {
		return model.Contact{}, err
	}
	return contact, nil
}

func (r *ContactGormRepository) ListRecent(ctx context.Context, limit int) ([]model.Contact, error) {
	var contacts []model.Contact
	err := r.db.WithContext(ctx).
		Order("created_at desc").
		Limit(limit).
		Find(&contacts).Error
	if err != nil {
		return []model.Contact{}, err
	}
	return contacts, nil
}
