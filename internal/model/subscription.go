// internal/model/subscription.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Subscription はプッシュ通知の購読と通知設定を表します
type Subscription struct {
	ID        uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	Email     *string                     `json:"email,omitempty"`
	Endpoint  string                      `gorm:"not null;uniqueIndex" json:"endpoint"`
	P256dh    string                      `gorm:"not null" json:"-"`
	Auth      string                      `gorm:"not null" json:"-"`
	Companies datatypes.JSONSlice[string] `json:"companies"`
	Keywords  datatypes.JSONSlice[string] `json:"keywords"`
	IsActive  bool                        `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time                   `json:"created_at"`
	UpdatedAt time.Time                   `json:"updated_at"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

// PushKeys はブラウザのプッシュ購読から取り出した鍵
type PushKeys struct {
	P256dh string `json:"p256dh" validate:"required"`
	Auth   string `json:"auth" validate:"required"`
}

// CreateSubscriptionRequest は購読登録リクエストDTO
type CreateSubscriptionRequest struct {
	Email     *string  `json:"email,omitempty" validate:"omitempty,email"`
	Endpoint  string   `json:"endpoint" validate:"required,url"`
	Keys      PushKeys `json:"keys"`
	Companies []string `json:"companies" validate:"omitempty,dive,required"`
	Keywords  []string `json:"keywords" validate:"omitempty,dive,required"`
}

// UpdateSubscriptionRequest は購読更新 (部分) リクエストDTO
type UpdateSubscriptionRequest struct {
	Email     *string   `json:"email,omitempty" validate:"omitempty,email"`
	Companies *[]string `json:"companies,omitempty" validate:"omitempty,dive,required"`
	Keywords  *[]string `json:"keywords,omitempty" validate:"omitempty,dive,required"`
	IsActive  *bool     `json:"is_active,omitempty"`
}

// PublicKeyResponse はVAPID公開鍵のレスポンスDTO
type PublicKeyResponse struct {
	PublicKey string `json:"public_key"`
}
