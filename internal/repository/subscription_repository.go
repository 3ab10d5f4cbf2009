//go:generate mockery --name SubscriptionRepository --output ./mocks --outpkg mocks --case=underscore
package repository

import (
	"context"
	"errors"
	"fmt"

	"go_4_interview_prep/internal/middleware"
	"go_4_interview_prep/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SubscriptionRepository interface {
	Create(ctx context.Context, db *gorm.DB, sub *model.Subscription) error
	FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*model.Subscription, error)
	FindByEndpoint(ctx context.Context, db *gorm.DB, endpoint string) (*model.Subscription, error)
	Update(ctx context.Context, db *gorm.DB, sub *model.Subscription) error
	Deactivate(ctx context.Context, db *gorm.DB, id uuid.UUID) error
}

type gormSubscriptionRepository struct{}

func NewGormSubscriptionRepository() SubscriptionRepository {
	return &gormSubscriptionRepository{}
}

func (r *gormSubscriptionRepository) Create(ctx context.Context, db *gorm.DB, sub *model.Subscription) error {
	logger := middleware.GetLogger(ctx)

	result := db.WithContext(ctx).Create(sub)
	if result.Error != nil {
		if isDuplicateKey(result.Error) {
			logger.Warn("Duplicate endpoint on create subscription", "error", result.Error, "subscription_id", sub.ID.String())
			return model.ErrConflict
		}
		logger.Error("Error creating subscription in DB", "error", result.Error)
		return fmt.Errorf("gormSubscriptionRepository.Create: %w", result.Error)
	}
	return nil
}

func (r *gormSubscriptionRepository) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*model.Subscription, error) {
	logger := middleware.GetLogger(ctx)
	var sub model.Subscription

	result := db.WithContext(ctx).Where("id = ?", id).First(&sub)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding subscription by ID in DB", "error", result.Error, "subscription_id", id.String())
		return nil, fmt.Errorf("gormSubscriptionRepository.FindByID: %w", result.Error)
	}
	return &sub, nil
}

func (r *gormSubscriptionRepository) FindByEndpoint(ctx context.Context, db *gorm.DB, endpoint string) (*model.Subscription, error) {
	logger := middleware.GetLogger(ctx)
	var sub model.Subscription

	result := db.WithContext(ctx).Where("endpoint = ?", endpoint).First(&sub)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			logger.Debug("Subscription not found by endpoint")
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding subscription by endpoint in DB", "error", result.Error)
		return nil, fmt.Errorf("gormSubscriptionRepository.FindByEndpoint: %w", result.Error)
	}
	return &sub, nil
}

func (r *gormSubscriptionRepository) Update(ctx context.Context, db *gorm.DB, sub *model.Subscription) error {
	logger := middleware.GetLogger(ctx)

	result := db.WithContext(ctx).Save(sub)
	if result.Error != nil {
		if isDuplicateKey(result.Error) {
			return model.ErrConflict
		}
		logger.Error("Error updating subscription in DB", "error", result.Error, "subscription_id", sub.ID.String())
		return fmt.Errorf("gormSubscriptionRepository.Update: %w", result.Error)
	}
	return nil
}

// Deactivate は購読を無効化する (行は残す)
func (r *gormSubscriptionRepository) Deactivate(ctx context.Context, db *gorm.DB, id uuid.UUID) error {
	logger := middleware.GetLogger(ctx)

	result := db.WithContext(ctx).Model(&model.Subscription{}).Where("id = ?", id).Update("is_active", false)
	if result.Error != nil {
		logger.Error("Error deactivating subscription in DB", "error", result.Error, "subscription_id", id.String())
		return fmt.Errorf("gormSubscriptionRepository.Deactivate: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}
