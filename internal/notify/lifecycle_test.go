package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go_4_interview_prep/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// fakePlatform はテスト用の Platform
type fakePlatform struct {
	mu             sync.Mutex
	noPush         bool
	permission     Permission
	grantOnRequest bool
	keys           map[string]string
	subscribeErr   error
	current        *PushSubscription
	unsubscribed   int
	// subscribeGate が閉じられるまで Subscribe をブロックする
	subscribeGate chan struct{}
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		permission:     PermissionDefault,
		grantOnRequest: true,
		keys:           map[string]string{KeyP256dh: "BPUBKEY", KeyAuth: "AUTHSECRET"},
	}
}

func (p *fakePlatform) SupportsServiceWorker() bool { return true }
func (p *fakePlatform) SupportsPush() bool          { return !p.noPush }

func (p *fakePlatform) Permission() Permission {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.permission
}

func (p *fakePlatform) RequestPermission(ctx context.Context) (Permission, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.grantOnRequest {
		p.permission = PermissionGranted
	} else {
		p.permission = PermissionDenied
	}
	return p.permission, nil
}

func (p *fakePlatform) Subscribe(ctx context.Context, key string) (*PushSubscription, error) {
	if p.subscribeGate != nil {
		<-p.subscribeGate
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.subscribeErr != nil {
		return nil, p.subscribeErr
	}
	p.current = &PushSubscription{Endpoint: "https://push.example.com/" + key, Keys: p.keys}
	return p.current, nil
}

func (p *fakePlatform) CurrentSubscription(ctx context.Context) (*PushSubscription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current, nil
}

func (p *fakePlatform) Unsubscribe(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = nil
	p.unsubscribed++
	return nil
}

// mockBackend は Backend のモック
type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) PublicKey(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *mockBackend) Create(ctx context.Context, req *model.CreateSubscriptionRequest) (*model.Subscription, error) {
	args := m.Called(ctx, req)
	sub, _ := args.Get(0).(*model.Subscription)
	return sub, args.Error(1)
}

func (m *mockBackend) Update(ctx context.Context, id uuid.UUID, req *model.UpdateSubscriptionRequest) (*model.Subscription, error) {
	args := m.Called(ctx, id, req)
	sub, _ := args.Get(0).(*model.Subscription)
	return sub, args.Error(1)
}

func (m *mockBackend) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockBackend) LookupByEndpoint(ctx context.Context, endpoint string) (*model.Subscription, error) {
	args := m.Called(ctx, endpoint)
	sub, _ := args.Get(0).(*model.Subscription)
	return sub, args.Error(1)
}

func newStore(t *testing.T) *FilePreferenceStore {
	t.Helper()
	return NewFilePreferenceStore(filepath.Join(t.TempDir(), "prefs.json"))
}

func subscriptionRecord(companies, keywords []string) *model.Subscription {
	return &model.Subscription{
		ID:        uuid.New(),
		Endpoint:  "https://push.example.com/VAPID",
		Companies: datatypes.JSONSlice[string](companies),
		Keywords:  datatypes.JSONSlice[string](keywords),
		IsActive:  true,
	}
}

func TestLifecycle_Unsupported(t *testing.T) {
	platform := newFakePlatform()
	platform.noPush = true
	backend := new(mockBackend)
	l := NewLifecycle(platform, backend, newStore(t), testLogger)

	assert.Equal(t, StateUnsupported, l.State())
	assert.ErrorIs(t, l.Subscribe(context.Background(), Preferences{}), ErrUnsupported)
	assert.ErrorIs(t, l.Unsubscribe(context.Background()), ErrUnsupported)
	require.NoError(t, l.Init(context.Background()))
	assert.Equal(t, StateUnsupported, l.State())
	backend.AssertNotCalled(t, "PublicKey", mock.Anything)
}

func TestLifecycle_Subscribe(t *testing.T) {
	ctx := context.Background()
	email := "dev@example.com"
	rec := subscriptionRecord([]string{"Cefalo"}, []string{"golang"})
	rec.Email = &email

	t.Run("正常系: 許可を得てサーバー登録まで完了する", func(t *testing.T) {
		platform := newFakePlatform()
		backend := new(mockBackend)
		store := newStore(t)
		backend.On("PublicKey", ctx).Return("VAPID", nil).Once()
		backend.On("Create", ctx, mock.MatchedBy(func(req *model.CreateSubscriptionRequest) bool {
			return req.Endpoint == "https://push.example.com/VAPID" &&
				req.Keys.P256dh == "BPUBKEY" && req.Keys.Auth == "AUTHSECRET" &&
				req.Email != nil && *req.Email == email
		})).Return(rec, nil).Once()

		l := NewLifecycle(platform, backend, store, testLogger)
		err := l.Subscribe(ctx, Preferences{Email: &email, Companies: []string{"Cefalo"}, Keywords: []string{"golang"}})
		require.NoError(t, err)

		status := l.Status()
		assert.Equal(t, StateSubscribed, status.State)
		require.NotNil(t, status.Preferences.SubscriptionID)
		assert.Equal(t, rec.ID, *status.Preferences.SubscriptionID)
		assert.Empty(t, status.Error)
		assert.False(t, status.Loading)

		saved, err := store.Load()
		require.NoError(t, err)
		require.NotNil(t, saved.SubscriptionID)
		assert.Equal(t, rec.ID, *saved.SubscriptionID)
		assert.Equal(t, []string{"Cefalo"}, saved.Companies)
		backend.AssertExpectations(t)
	})

	t.Run("異常系: 許可が拒否されたら未購読のまま", func(t *testing.T) {
		platform := newFakePlatform()
		platform.grantOnRequest = false
		backend := new(mockBackend)

		l := NewLifecycle(platform, backend, newStore(t), testLogger)
		err := l.Subscribe(ctx, Preferences{})
		assert.ErrorIs(t, err, ErrPermissionDenied)

		status := l.Status()
		assert.Equal(t, StateUnsubscribed, status.State)
		assert.Equal(t, msgPermissionDenied, status.Error)
		backend.AssertNotCalled(t, "PublicKey", mock.Anything)
	})

	t.Run("異常系: 鍵が欠けていたら失敗し、購読を残さない", func(t *testing.T) {
		platform := newFakePlatform()
		platform.keys = map[string]string{KeyP256dh: "BPUBKEY"}
		backend := new(mockBackend)
		backend.On("PublicKey", ctx).Return("VAPID", nil).Once()

		l := NewLifecycle(platform, backend, newStore(t), testLogger)
		err := l.Subscribe(ctx, Preferences{})
		assert.ErrorIs(t, err, ErrMissingKey)
		assert.Equal(t, StateUnsubscribed, l.State())
		assert.Equal(t, msgSubscribeFailed, l.Status().Error)
		assert.Nil(t, platform.current)
		backend.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("異常系: 公開鍵の取得に失敗", func(t *testing.T) {
		platform := newFakePlatform()
		backend := new(mockBackend)
		backend.On("PublicKey", ctx).Return("", errors.New("boom")).Once()

		l := NewLifecycle(platform, backend, newStore(t), testLogger)
		err := l.Subscribe(ctx, Preferences{})
		require.Error(t, err)
		assert.Equal(t, StateUnsubscribed, l.State())
		assert.Equal(t, msgSubscribeFailed, l.Status().Error)
	})

	t.Run("異常系: プラットフォームの購読作成に失敗", func(t *testing.T) {
		platform := newFakePlatform()
		platform.subscribeErr = errors.New("push service unavailable")
		backend := new(mockBackend)
		backend.On("PublicKey", ctx).Return("VAPID", nil).Once()

		l := NewLifecycle(platform, backend, newStore(t), testLogger)
		require.Error(t, l.Subscribe(ctx, Preferences{}))
		assert.Equal(t, StateUnsubscribed, l.State())
	})

	t.Run("異常系: サーバー登録に失敗したら試行前の状態に戻る", func(t *testing.T) {
		platform := newFakePlatform()
		backend := new(mockBackend)
		store := newStore(t)
		backend.On("PublicKey", ctx).Return("VAPID", nil).Once()
		backend.On("Create", ctx, mock.Anything).Return(nil, errors.New("503")).Once()

		l := NewLifecycle(platform, backend, store, testLogger)
		require.Error(t, l.Subscribe(ctx, Preferences{}))
		assert.Equal(t, StateUnsubscribed, l.State())
		assert.Nil(t, l.Status().Preferences.SubscriptionID)
		assert.Nil(t, platform.current, "platform subscription must be rolled back")

		saved, err := store.Load()
		require.NoError(t, err)
		assert.Nil(t, saved.SubscriptionID)
	})
}

func TestLifecycle_SubscribeInFlightGuard(t *testing.T) {
	ctx := context.Background()
	platform := newFakePlatform()
	platform.permission = PermissionGranted
	platform.subscribeGate = make(chan struct{})
	backend := new(mockBackend)
	backend.On("PublicKey", mock.Anything).Return("VAPID", nil).Once()
	backend.On("Create", mock.Anything, mock.Anything).Return(subscriptionRecord(nil, nil), nil).Once()

	l := NewLifecycle(platform, backend, newStore(t), testLogger)

	firstDone := make(chan error, 1)
	go func() { firstDone <- l.Subscribe(ctx, Preferences{}) }()

	require.Eventually(t, func() bool { return l.Status().Loading }, time.Second, time.Millisecond)
	assert.ErrorIs(t, l.Subscribe(ctx, Preferences{}), ErrOperationInProgress)
	assert.ErrorIs(t, l.Unsubscribe(ctx), ErrOperationInProgress)
	assert.ErrorIs(t, l.UpdatePreferences(ctx, []string{"Cefalo"}, nil, nil), ErrOperationInProgress)

	close(platform.subscribeGate)
	require.NoError(t, <-firstDone)
	assert.Equal(t, StateSubscribed, l.State())
	backend.AssertExpectations(t)
}

func TestLifecycle_Unsubscribe(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	t.Run("正常系: サーバーの無効化に失敗しても未購読に戻る", func(t *testing.T) {
		platform := newFakePlatform()
		platform.current = &PushSubscription{Endpoint: "https://push.example.com/x"}
		backend := new(mockBackend)
		backend.On("LookupByEndpoint", ctx, "https://push.example.com/x").Return(&model.Subscription{
			ID:        id,
			Endpoint:  "https://push.example.com/x",
			Companies: datatypes.JSONSlice[string]{"Therap"},
			Keywords:  datatypes.JSONSlice[string]{},
		}, nil).Once()
		backend.On("Delete", ctx, id).Return(&APIError{StatusCode: 404}).Once()

		store := newStore(t)

		l := NewLifecycle(platform, backend, store, testLogger)
		require.NoError(t, l.Init(ctx))
		require.Equal(t, StateSubscribed, l.State())

		require.NoError(t, l.Unsubscribe(ctx))
		assert.Equal(t, StateUnsubscribed, l.State())
		assert.Nil(t, platform.current)
		assert.Nil(t, l.Status().Preferences.SubscriptionID)
		assert.Equal(t, []string{"Therap"}, l.Status().Preferences.Companies)
		backend.AssertExpectations(t)
	})

	t.Run("正常系: サーバーIDが無ければプラットフォームだけ解除", func(t *testing.T) {
		platform := newFakePlatform()
		backend := new(mockBackend)
		l := NewLifecycle(platform, backend, newStore(t), testLogger)

		require.NoError(t, l.Unsubscribe(ctx))
		assert.Equal(t, 1, platform.unsubscribed)
		backend.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}

func TestLifecycle_UpdatePreferences(t *testing.T) {
	ctx := context.Background()

	t.Run("異常系: 購読IDが無い", func(t *testing.T) {
		l := NewLifecycle(newFakePlatform(), new(mockBackend), newStore(t), testLogger)
		assert.ErrorIs(t, l.UpdatePreferences(ctx, []string{"Cefalo"}, nil, nil), ErrNoSubscription)
	})

	t.Run("正常系: 同期の失敗は警告のみで端末には保存される", func(t *testing.T) {
		id := uuid.New()
		store := newStore(t)
		require.NoError(t, store.Save(Preferences{SubscriptionID: &id}))
		backend := new(mockBackend)
		backend.On("Update", ctx, id, mock.Anything).Return(nil, errors.New("offline")).Once()

		l := NewLifecycle(newFakePlatform(), backend, store, testLogger)
		require.NoError(t, l.UpdatePreferences(ctx, []string{"Cefalo", "Therap"}, []string{"go"}, nil))

		status := l.Status()
		assert.Equal(t, msgSyncFailed, status.Warning)
		assert.Empty(t, status.Error)

		saved, err := store.Load()
		require.NoError(t, err)
		assert.Equal(t, []string{"Cefalo", "Therap"}, saved.Companies)
		assert.Equal(t, []string{"go"}, saved.Keywords)
	})

	t.Run("正常系: サーバーの結果で設定を更新", func(t *testing.T) {
		rec := subscriptionRecord([]string{"Cefalo"}, []string{"remote"})
		store := newStore(t)
		require.NoError(t, store.Save(Preferences{SubscriptionID: &rec.ID}))
		backend := new(mockBackend)
		backend.On("Update", ctx, rec.ID, mock.MatchedBy(func(req *model.UpdateSubscriptionRequest) bool {
			return req.Companies != nil && len(*req.Companies) == 2
		})).Return(rec, nil).Once()

		l := NewLifecycle(newFakePlatform(), backend, store, testLogger)
		require.NoError(t, l.UpdatePreferences(ctx, []string{"Cefalo", " Cefalo"}, []string{"remote"}, nil))
		assert.Equal(t, []string{"Cefalo"}, l.Status().Preferences.Companies)
		assert.Empty(t, l.Status().Warning)
	})
}

func TestLifecycle_Init(t *testing.T) {
	ctx := context.Background()

	t.Run("正常系: 既存の購読からサーバーの設定を復元", func(t *testing.T) {
		platform := newFakePlatform()
		platform.current = &PushSubscription{Endpoint: "https://push.example.com/VAPID"}
		rec := subscriptionRecord([]string{"Cefalo"}, []string{"golang"})
		backend := new(mockBackend)
		backend.On("LookupByEndpoint", ctx, "https://push.example.com/VAPID").Return(rec, nil).Once()
		store := newStore(t)

		l := NewLifecycle(platform, backend, store, testLogger)
		require.NoError(t, l.Init(ctx))

		status := l.Status()
		assert.Equal(t, StateSubscribed, status.State)
		require.NotNil(t, status.Preferences.SubscriptionID)
		assert.Equal(t, rec.ID, *status.Preferences.SubscriptionID)
		assert.Equal(t, []string{"golang"}, status.Preferences.Keywords)

		saved, err := store.Load()
		require.NoError(t, err)
		assert.Equal(t, []string{"Cefalo"}, saved.Companies)
	})

	t.Run("正常系: サーバーに無ければ設定を初期化して subscribed のまま", func(t *testing.T) {
		platform := newFakePlatform()
		platform.current = &PushSubscription{Endpoint: "https://push.example.com/gone"}
		backend := new(mockBackend)
		backend.On("LookupByEndpoint", ctx, "https://push.example.com/gone").Return(nil, &APIError{StatusCode: 404}).Once()

		staleID := uuid.New()
		store := newStore(t)
		require.NoError(t, store.Save(Preferences{SubscriptionID: &staleID, Companies: []string{"Cefalo"}}))

		l := NewLifecycle(platform, backend, store, testLogger)
		require.NoError(t, l.Init(ctx))
		assert.Equal(t, StateSubscribed, l.State())
		assert.Nil(t, l.Status().Preferences.SubscriptionID)
		assert.Empty(t, l.Status().Preferences.Companies, "設定は初期値に戻る")

		saved, err := store.Load()
		require.NoError(t, err)
		assert.Nil(t, saved.SubscriptionID)
		assert.Empty(t, saved.Companies)
	})

	t.Run("正常系: 購読が無ければ未購読", func(t *testing.T) {
		backend := new(mockBackend)
		l := NewLifecycle(newFakePlatform(), backend, newStore(t), testLogger)
		require.NoError(t, l.Init(ctx))
		assert.Equal(t, StateUnsubscribed, l.State())
		backend.AssertNotCalled(t, "LookupByEndpoint", mock.Anything, mock.Anything)
	})

	t.Run("異常系: 購読が無ければ保存済みの購読IDでは更新できない", func(t *testing.T) {
		staleID := uuid.New()
		store := newStore(t)
		require.NoError(t, store.Save(Preferences{SubscriptionID: &staleID, Companies: []string{"Cefalo"}}))
		backend := new(mockBackend)

		l := NewLifecycle(newFakePlatform(), backend, store, testLogger)
		require.NoError(t, l.Init(ctx))
		assert.Equal(t, StateUnsubscribed, l.State())
		assert.Nil(t, l.Status().Preferences.SubscriptionID)
		assert.Equal(t, []string{"Cefalo"}, l.Status().Preferences.Companies)

		assert.ErrorIs(t, l.UpdatePreferences(ctx, []string{"Therap"}, nil, nil), ErrNoSubscription)
		assert.Empty(t, l.Status().Warning)
		backend.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)

		saved, err := store.Load()
		require.NoError(t, err)
		assert.Nil(t, saved.SubscriptionID)
	})
}
