// Package notify はプッシュ通知購読のクライアント側ライフサイクルです。
// ブラウザやOSのプッシュ機能は Platform、通知サーバーは Backend として差し替えられます。
package notify

import (
	"context"

	"go_4_interview_prep/internal/model"

	"github.com/google/uuid"
)

// Permission は通知の許可状態
type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// 購読の鍵マップのキー
const (
	KeyP256dh = "p256dh"
	KeyAuth   = "auth"
)

// PushSubscription はプラットフォームが作ったプッシュ購読
type PushSubscription struct {
	Endpoint string            `json:"endpoint"`
	Keys     map[string]string `json:"keys"`
}

// Platform はプッシュ購読を作る実行環境 (ブラウザ、ヘッドレス実装など)
type Platform interface {
	SupportsServiceWorker() bool
	SupportsPush() bool
	Permission() Permission
	RequestPermission(ctx context.Context) (Permission, error)
	// Subscribe は applicationServerKey (VAPID公開鍵) で購読を作る。既にあればそれを返す
	Subscribe(ctx context.Context, applicationServerKey string) (*PushSubscription, error)
	// CurrentSubscription は既存の購読を返す。無ければ nil, nil
	CurrentSubscription(ctx context.Context) (*PushSubscription, error)
	Unsubscribe(ctx context.Context) error
}

// Backend は購読を管理する通知サーバー
type Backend interface {
	PublicKey(ctx context.Context) (string, error)
	Create(ctx context.Context, req *model.CreateSubscriptionRequest) (*model.Subscription, error)
	Update(ctx context.Context, id uuid.UUID, req *model.UpdateSubscriptionRequest) (*model.Subscription, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// LookupByEndpoint は見つからなければ model.ErrNotFound を包んだエラーを返す
	LookupByEndpoint(ctx context.Context, endpoint string) (*model.Subscription, error)
}

// Preferences は端末に保存する通知設定
type Preferences struct {
	SubscriptionID *uuid.UUID `json:"subscription_id,omitempty"`
	Email          *string    `json:"email,omitempty"`
	Companies      []string   `json:"companies"`
	Keywords       []string   `json:"keywords"`
}

// PreferenceStore は通知設定の保存先
type PreferenceStore interface {
	Load() (Preferences, error)
	Save(prefs Preferences) error
}
