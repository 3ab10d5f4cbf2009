package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go_4_interview_prep/internal/middleware"
	"go_4_interview_prep/internal/model"
	"go_4_interview_prep/internal/repository"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SubscriptionService interface {
	PublicKey(ctx context.Context) (*model.PublicKeyResponse, error)
	// Create は購読を登録する。同じエンドポイントが既にあれば鍵と設定を更新して有効化する (created=false)
	Create(ctx context.Context, req *model.CreateSubscriptionRequest) (sub *model.Subscription, created bool, err error)
	LookupByEndpoint(ctx context.Context, endpoint string) (*model.Subscription, error)
	Update(ctx context.Context, id uuid.UUID, req *model.UpdateSubscriptionRequest) (*model.Subscription, error)
	// Delete は購読を無効化する
	Delete(ctx context.Context, id uuid.UUID) error
}

type subscriptionService struct {
	db             *gorm.DB
	repo           repository.SubscriptionRepository
	mailer         Mailer
	vapidPublicKey string
}

func NewSubscriptionService(db *gorm.DB, repo repository.SubscriptionRepository, mailer Mailer, vapidPublicKey string) SubscriptionService {
	return &subscriptionService{db: db, repo: repo, mailer: mailer, vapidPublicKey: vapidPublicKey}
}

func (s *subscriptionService) PublicKey(ctx context.Context) (*model.PublicKeyResponse, error) {
	if s.vapidPublicKey == "" {
		middleware.GetLogger(ctx).Error("VAPID public key is not configured")
		return nil, model.NewAppError("PUSH_NOT_CONFIGURED", "プッシュ通知は現在利用できません。", "", model.ErrInternalServer)
	}
	return &model.PublicKeyResponse{PublicKey: s.vapidPublicKey}, nil
}

func (s *subscriptionService) Create(ctx context.Context, req *model.CreateSubscriptionRequest) (*model.Subscription, bool, error) {
	logger := middleware.GetLogger(ctx)

	var (
		sub          *model.Subscription
		created      bool
		emailChanged bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindByEndpoint(ctx, tx, req.Endpoint)
		switch {
		case err == nil:
			emailChanged = req.Email != nil && (existing.Email == nil || *existing.Email != *req.Email)
			existing.P256dh = req.Keys.P256dh
			existing.Auth = req.Keys.Auth
			existing.Companies = normalize(req.Companies)
			existing.Keywords = normalize(req.Keywords)
			if req.Email != nil {
				existing.Email = req.Email
			}
			existing.IsActive = true
			if err := s.repo.Update(ctx, tx, existing); err != nil {
				return err
			}
			sub = existing
			return nil
		case errors.Is(err, model.ErrNotFound):
			sub = &model.Subscription{
				ID:        uuid.New(),
				Email:     req.Email,
				Endpoint:  req.Endpoint,
				P256dh:    req.Keys.P256dh,
				Auth:      req.Keys.Auth,
				Companies: normalize(req.Companies),
				Keywords:  normalize(req.Keywords),
				IsActive:  true,
			}
			if err := s.repo.Create(ctx, tx, sub); err != nil {
				return err
			}
			created = true
			emailChanged = req.Email != nil
			return nil
		default:
			return err
		}
	})
	if err != nil {
		if errors.Is(err, model.ErrConflict) {
			return nil, false, model.NewAppError("SUBSCRIPTION_CONFLICT", "同じエンドポイントの購読が同時に登録されました。", "endpoint", model.ErrConflict)
		}
		return nil, false, err
	}

	logger.Info("Subscription registered", "subscription_id", sub.ID.String(), "created", created)

	if emailChanged {
		s.sendWelcome(ctx, sub)
	}
	return sub, created, nil
}

func (s *subscriptionService) LookupByEndpoint(ctx context.Context, endpoint string) (*model.Subscription, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, model.NewAppError("ENDPOINT_REQUIRED", "エンドポイントを指定してください。", "endpoint", model.ErrInvalidInput)
	}
	sub, err := s.repo.FindByEndpoint(ctx, s.db, endpoint)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("SUBSCRIPTION_NOT_FOUND", "購読が見つかりません。", "endpoint", model.ErrNotFound)
		}
		return nil, err
	}
	return sub, nil
}

func (s *subscriptionService) Update(ctx context.Context, id uuid.UUID, req *model.UpdateSubscriptionRequest) (*model.Subscription, error) {
	var (
		sub          *model.Subscription
		emailChanged bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if req.Email != nil {
			emailChanged = found.Email == nil || *found.Email != *req.Email
			found.Email = req.Email
		}
		if req.Companies != nil {
			found.Companies = normalize(*req.Companies)
		}
		if req.Keywords != nil {
			found.Keywords = normalize(*req.Keywords)
		}
		if req.IsActive != nil {
			found.IsActive = *req.IsActive
		}
		if err := s.repo.Update(ctx, tx, found); err != nil {
			return err
		}
		sub = found
		return nil
	})
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("SUBSCRIPTION_NOT_FOUND", "購読が見つかりません。", "id", model.ErrNotFound)
		}
		return nil, err
	}

	if emailChanged && sub.Email != nil {
		s.sendWelcome(ctx, sub)
	}
	return sub, nil
}

func (s *subscriptionService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Deactivate(ctx, s.db, id); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.NewAppError("SUBSCRIPTION_NOT_FOUND", "購読が見つかりません。", "id", model.ErrNotFound)
		}
		return err
	}
	middleware.GetLogger(ctx).Info("Subscription deactivated", "subscription_id", id.String())
	return nil
}

// sendWelcome は登録確認メールを送る。失敗しても購読処理は成功扱い
func (s *subscriptionService) sendWelcome(ctx context.Context, sub *model.Subscription) {
	if s.mailer == nil || sub.Email == nil || *sub.Email == "" {
		return
	}
	subject := "求人通知の登録が完了しました"
	body := fmt.Sprintf("通知の登録が完了しました。\n\n対象の会社: %s\nキーワード: %s\n",
		joinOrAll(sub.Companies), joinOrAll(sub.Keywords))

	if err := s.mailer.Send(ctx, *sub.Email, subject, body); err != nil {
		middleware.GetLogger(ctx).Warn("Failed to send welcome email", "error", err, "subscription_id", sub.ID.String())
	}
}

// normalize は空白を除き、空要素と重複を取り除く
func normalize(values []string) datatypes.JSONSlice[string] {
	out := datatypes.JSONSlice[string]{}
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func joinOrAll(values []string) string {
	if len(values) == 0 {
		return "すべて"
	}
	return strings.Join(values, ", ")
}
