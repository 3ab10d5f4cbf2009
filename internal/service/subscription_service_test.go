package service

import (
	"context"
	"errors"
	"testing"

	"go_4_interview_prep/internal/model"
	"go_4_interview_prep/internal/repository"
	"go_4_interview_prep/internal/repository/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func createReq(endpoint string, email *string) *model.CreateSubscriptionRequest {
	return &model.CreateSubscriptionRequest{
		Email:     email,
		Endpoint:  endpoint,
		Keys:      model.PushKeys{P256dh: "p256dh", Auth: "auth"},
		Companies: []string{"Cefalo", " Cefalo ", ""},
		Keywords:  []string{"golang"},
	}
}

func Test_subscriptionService_PublicKey(t *testing.T) {
	ctx := context.Background()

	svc := NewSubscriptionService(nil, nil, nil, "BPublicKey")
	resp, err := svc.PublicKey(ctx)
	require.NoError(t, err)
	assert.Equal(t, "BPublicKey", resp.PublicKey)

	_, err = NewSubscriptionService(nil, nil, nil, "").PublicKey(ctx)
	assert.ErrorIs(t, err, model.ErrInternalServer)
}

func Test_subscriptionService_Create(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	mailer := new(mockMailer)
	svc := NewSubscriptionService(db, repository.NewGormSubscriptionRepository(), mailer, "key")

	mailer.On("Send", mock.Anything, "dev@example.com", mock.AnythingOfType("string"), mock.MatchedBy(func(body string) bool {
		return assert.Contains(t, body, "Cefalo")
	})).Return(nil).Once()

	sub, created, err := svc.Create(ctx, createReq("https://push.example.com/1", strPtr("dev@example.com")))
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, uuid.Nil, sub.ID)
	assert.Equal(t, []string{"Cefalo"}, []string(sub.Companies), "空白と重複は除かれる")
	assert.True(t, sub.IsActive)

	t.Run("同じエンドポイントは更新して再有効化", func(t *testing.T) {
		require.NoError(t, svc.Delete(ctx, sub.ID))

		req := createReq("https://push.example.com/1", nil)
		req.Keys.Auth = "rotated"
		again, created, err := svc.Create(ctx, req)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, sub.ID, again.ID)
		assert.Equal(t, "rotated", again.Auth)
		assert.True(t, again.IsActive)
		require.NotNil(t, again.Email, "メールアドレスは省略時に消さない")
		assert.Equal(t, "dev@example.com", *again.Email)
	})

	t.Run("エンドポイントで検索", func(t *testing.T) {
		found, err := svc.LookupByEndpoint(ctx, "https://push.example.com/1")
		require.NoError(t, err)
		assert.Equal(t, sub.ID, found.ID)

		_, err = svc.LookupByEndpoint(ctx, "https://push.example.com/unknown")
		assert.ErrorIs(t, err, model.ErrNotFound)

		_, err = svc.LookupByEndpoint(ctx, " ")
		assert.ErrorIs(t, err, model.ErrInvalidInput)
	})

	mailer.AssertExpectations(t)
}

func Test_subscriptionService_Update(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	mailer := new(mockMailer)
	svc := NewSubscriptionService(db, repository.NewGormSubscriptionRepository(), mailer, "key")

	sub, _, err := svc.Create(ctx, createReq("https://push.example.com/2", nil))
	require.NoError(t, err)

	mailer.On("Send", mock.Anything, "new@example.com", mock.Anything, mock.Anything).Return(errors.New("smtp down")).Once()

	companies := []string{"Therap", "Cefalo"}
	inactive := false
	updated, err := svc.Update(ctx, sub.ID, &model.UpdateSubscriptionRequest{
		Email:     strPtr("new@example.com"),
		Companies: &companies,
		IsActive:  &inactive,
	})
	require.NoError(t, err, "メール送信失敗は更新の失敗にしない")
	assert.Equal(t, []string{"Therap", "Cefalo"}, []string(updated.Companies))
	assert.Equal(t, []string{"golang"}, []string(updated.Keywords), "未指定の項目はそのまま")
	assert.False(t, updated.IsActive)

	_, err = svc.Update(ctx, uuid.New(), &model.UpdateSubscriptionRequest{})
	assert.ErrorIs(t, err, model.ErrNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, uuid.New()), model.ErrNotFound)
	mailer.AssertExpectations(t)
}

func Test_subscriptionService_Create_RepositoryErrors(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	tests := []struct {
		name      string
		setupMock func(repo *mocks.SubscriptionRepository)
		wantErr   error
	}{
		{
			name: "異常系: 同時登録で一意制約違反",
			setupMock: func(repo *mocks.SubscriptionRepository) {
				repo.On("FindByEndpoint", mock.Anything, mock.AnythingOfType("*gorm.DB"), "https://push.example.com/3").Return(nil, model.ErrNotFound).Once()
				repo.On("Create", mock.Anything, mock.AnythingOfType("*gorm.DB"), mock.AnythingOfType("*model.Subscription")).Return(model.ErrConflict).Once()
			},
			wantErr: model.ErrConflict,
		},
		{
			name: "異常系: DBエラー",
			setupMock: func(repo *mocks.SubscriptionRepository) {
				repo.On("FindByEndpoint", mock.Anything, mock.AnythingOfType("*gorm.DB"), "https://push.example.com/3").Return(nil, errors.New("db down")).Once()
			},
			wantErr: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := mocks.NewSubscriptionRepository(t)
			tt.setupMock(repo)
			svc := NewSubscriptionService(db, repo, &LogMailer{}, "key")

			_, _, err := svc.Create(ctx, createReq("https://push.example.com/3", nil))
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}
