package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go_4_interview_prep/internal/model"
)

// State は購読ライフサイクルの状態
type State string

const (
	StateUnsupported         State = "unsupported"
	StateUnsubscribed        State = "supported-unsubscribed"
	StatePermissionRequested State = "permission-requested"
	StateSubscribed          State = "subscribed"
)

var (
	ErrUnsupported         = errors.New("push notifications are not supported on this platform")
	ErrPermissionDenied    = errors.New("notification permission denied")
	ErrMissingKey          = errors.New("push subscription is missing key material")
	ErrNoSubscription      = errors.New("no active subscription")
	ErrOperationInProgress = errors.New("another subscription operation is in progress")
)

// 画面に出すメッセージ
const (
	msgPermissionDenied = "通知が許可されませんでした。ブラウザの設定を確認してください。"
	msgSubscribeFailed  = "通知の登録に失敗しました。時間をおいて再度お試しください。"
	msgSyncFailed       = "設定は保存されましたが、サーバーとの同期に失敗しました。"
	msgPrefsSaveFailed  = "設定を保存できませんでした。"
)

// Status は画面表示用のスナップショット
type Status struct {
	State       State       `json:"state"`
	Preferences Preferences `json:"preferences"`
	Loading     bool        `json:"loading"`
	Error       string      `json:"error,omitempty"`
	Warning     string      `json:"warning,omitempty"`
}

// Lifecycle はプッシュ通知購読の状態機械。Subscribe / Unsubscribe / UpdatePreferences は同時に1つだけ実行できる
type Lifecycle struct {
	platform Platform
	backend  Backend
	store    PreferenceStore
	logger   *slog.Logger

	mu       sync.Mutex
	state    State
	prefs    Preferences
	inFlight bool
	errMsg   string
	warnMsg  string
}

// NewLifecycle は機能チェックを行い、保存済みの設定を読み込む。
// 非対応のプラットフォームではこのインスタンスの間ずっと unsupported のまま
func NewLifecycle(platform Platform, backend Backend, store PreferenceStore, logger *slog.Logger) *Lifecycle {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Lifecycle{
		platform: platform,
		backend:  backend,
		store:    store,
		logger:   logger.With("component", "notify"),
		state:    StateUnsubscribed,
	}
	if !platform.SupportsServiceWorker() || !platform.SupportsPush() {
		l.state = StateUnsupported
	}

	prefs, err := store.Load()
	if err != nil {
		l.logger.Warn("Stored preferences could not be read, using defaults", "error", err)
		prefs = Preferences{}
	}
	l.prefs = prefs
	return l
}

func (l *Lifecycle) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Status{
		State:       l.state,
		Preferences: copyPrefs(l.prefs),
		Loading:     l.inFlight,
		Error:       l.errMsg,
		Warning:     l.warnMsg,
	}
}

// Init は既存のプラットフォーム購読を復元する。サーバー側に記録が無くても subscribed のままで、
// 設定は初期値に戻す。プラットフォームに購読が無ければ保存済みの購読IDを捨てる
func (l *Lifecycle) Init(ctx context.Context) error {
	if l.State() == StateUnsupported {
		return nil
	}

	sub, err := l.platform.CurrentSubscription(ctx)
	if err != nil {
		l.logger.Error("Failed to read current push subscription", "error", err)
		return fmt.Errorf("read current subscription: %w", err)
	}
	if sub == nil {
		l.mu.Lock()
		l.state = StateUnsubscribed
		stale := l.prefs.SubscriptionID != nil
		l.prefs.SubscriptionID = nil
		prefs := copyPrefs(l.prefs)
		l.mu.Unlock()
		if stale {
			l.savePrefs(prefs)
		}
		return nil
	}
	l.setState(StateSubscribed)

	rec, err := l.backend.LookupByEndpoint(ctx, sub.Endpoint)
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			l.logger.Warn("Failed to restore preferences from backend", "error", err)
			return nil
		}
		l.logger.Info("No backend record for existing push subscription, resetting preferences", "endpoint", sub.Endpoint)
		l.mu.Lock()
		l.prefs = Preferences{}
		l.mu.Unlock()
		l.savePrefs(Preferences{})
		return nil
	}

	l.mu.Lock()
	l.prefs = prefsFromRecord(rec)
	prefs := copyPrefs(l.prefs)
	l.mu.Unlock()
	l.savePrefs(prefs)
	return nil
}

func (l *Lifecycle) savePrefs(prefs Preferences) {
	if err := l.store.Save(prefs); err != nil {
		l.logger.Warn("Failed to save restored preferences", "error", err)
	}
}

func (l *Lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// begin は排他実行の開始。戻り値の関数で解除する
func (l *Lifecycle) begin() (State, func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == StateUnsupported {
		return l.state, nil, ErrUnsupported
	}
	if l.inFlight {
		return l.state, nil, ErrOperationInProgress
	}
	l.inFlight = true
	l.errMsg = ""
	l.warnMsg = ""
	return l.state, func() {
		l.mu.Lock()
		l.inFlight = false
		l.mu.Unlock()
	}, nil
}

func (l *Lifecycle) setState(s State) {
	l.mu.Lock()
	l.state = s
	l.mu.Unlock()
}

// fail は状態を試行前に戻し、画面用メッセージを記録する
func (l *Lifecycle) fail(prev State, msg string) {
	l.mu.Lock()
	l.state = prev
	l.errMsg = msg
	l.mu.Unlock()
}

// Subscribe は通知許可を得てプッシュ購読を作り、サーバーに登録する。
// サーバー登録が成功して初めて subscribed になる
func (l *Lifecycle) Subscribe(ctx context.Context, prefs Preferences) error {
	prev, done, err := l.begin()
	if err != nil {
		return err
	}
	defer done()

	if l.platform.Permission() != PermissionGranted {
		l.setState(StatePermissionRequested)
		perm, err := l.platform.RequestPermission(ctx)
		if err != nil || perm != PermissionGranted {
			l.logger.Info("Notification permission not granted", "permission", perm, "error", err)
			l.fail(StateUnsubscribed, msgPermissionDenied)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
			}
			return ErrPermissionDenied
		}
	}

	publicKey, err := l.backend.PublicKey(ctx)
	if err != nil {
		l.logger.Error("Failed to fetch VAPID public key", "error", err)
		l.fail(prev, msgSubscribeFailed)
		return fmt.Errorf("fetch public key: %w", err)
	}

	sub, err := l.platform.Subscribe(ctx, publicKey)
	if err != nil {
		l.logger.Error("Failed to create push subscription", "error", err)
		l.fail(prev, msgSubscribeFailed)
		return fmt.Errorf("create push subscription: %w", err)
	}

	p256dh, auth := sub.Keys[KeyP256dh], sub.Keys[KeyAuth]
	if p256dh == "" || auth == "" {
		l.logger.Error("Push subscription is missing keys", "has_p256dh", p256dh != "", "has_auth", auth != "")
		l.rollbackPlatform(ctx, prev)
		l.fail(prev, msgSubscribeFailed)
		return ErrMissingKey
	}

	rec, err := l.backend.Create(ctx, &model.CreateSubscriptionRequest{
		Email:     prefs.Email,
		Endpoint:  sub.Endpoint,
		Keys:      model.PushKeys{P256dh: p256dh, Auth: auth},
		Companies: prefs.Companies,
		Keywords:  prefs.Keywords,
	})
	if err != nil {
		l.logger.Error("Failed to register subscription with backend", "error", err)
		l.rollbackPlatform(ctx, prev)
		l.fail(prev, msgSubscribeFailed)
		return fmt.Errorf("register subscription: %w", err)
	}

	saved := prefsFromRecord(rec)
	l.mu.Lock()
	l.prefs = saved
	l.state = StateSubscribed
	l.mu.Unlock()

	if err := l.store.Save(copyPrefs(saved)); err != nil {
		l.logger.Warn("Failed to save preferences locally", "error", err)
		l.mu.Lock()
		l.warnMsg = msgPrefsSaveFailed
		l.mu.Unlock()
	}
	l.logger.Info("Subscribed to push notifications", "subscription_id", rec.ID.String())
	return nil
}

// rollbackPlatform は未購読からの試行に失敗したとき、作りかけのプラットフォーム購読を消す
func (l *Lifecycle) rollbackPlatform(ctx context.Context, prev State) {
	if prev == StateSubscribed {
		return
	}
	if err := l.platform.Unsubscribe(ctx); err != nil {
		l.logger.Warn("Failed to roll back push subscription", "error", err)
	}
}

// Unsubscribe はプラットフォームとサーバーの両方で購読を解除する。どちらの失敗も記録するだけ
func (l *Lifecycle) Unsubscribe(ctx context.Context) error {
	_, done, err := l.begin()
	if err != nil {
		return err
	}
	defer done()

	if err := l.platform.Unsubscribe(ctx); err != nil {
		l.logger.Warn("Platform unsubscribe failed", "error", err)
	}

	l.mu.Lock()
	id := l.prefs.SubscriptionID
	l.mu.Unlock()
	if id != nil {
		if err := l.backend.Delete(ctx, *id); err != nil {
			l.logger.Warn("Backend deactivation failed", "subscription_id", id.String(), "error", err)
		}
	}

	l.mu.Lock()
	l.prefs.SubscriptionID = nil
	prefs := copyPrefs(l.prefs)
	l.state = StateUnsubscribed
	l.mu.Unlock()

	if err := l.store.Save(prefs); err != nil {
		l.logger.Warn("Failed to save preferences locally", "error", err)
	}
	return nil
}

// UpdatePreferences は設定を端末に保存してからサーバーへ同期する。同期の失敗は警告のみ
func (l *Lifecycle) UpdatePreferences(ctx context.Context, companies, keywords []string, email *string) error {
	_, done, err := l.begin()
	if err != nil {
		return err
	}
	defer done()

	l.mu.Lock()
	if l.prefs.SubscriptionID == nil {
		l.mu.Unlock()
		return ErrNoSubscription
	}
	id := *l.prefs.SubscriptionID
	l.prefs.Companies = append([]string(nil), companies...)
	l.prefs.Keywords = append([]string(nil), keywords...)
	if email != nil {
		e := *email
		l.prefs.Email = &e
	}
	prefs := copyPrefs(l.prefs)
	l.mu.Unlock()

	if err := l.store.Save(prefs); err != nil {
		l.logger.Error("Failed to save preferences locally", "error", err)
		l.mu.Lock()
		l.errMsg = msgPrefsSaveFailed
		l.mu.Unlock()
		return fmt.Errorf("save preferences: %w", err)
	}

	rec, err := l.backend.Update(ctx, id, &model.UpdateSubscriptionRequest{
		Email:     prefs.Email,
		Companies: &prefs.Companies,
		Keywords:  &prefs.Keywords,
	})
	if err != nil {
		l.logger.Warn("Failed to sync preferences with backend", "subscription_id", id.String(), "error", err)
		l.mu.Lock()
		l.warnMsg = msgSyncFailed
		l.mu.Unlock()
		return nil
	}

	l.mu.Lock()
	l.prefs = prefsFromRecord(rec)
	l.mu.Unlock()
	return nil
}

func prefsFromRecord(rec *model.Subscription) Preferences {
	id := rec.ID
	prefs := Preferences{
		SubscriptionID: &id,
		Companies:      append([]string{}, rec.Companies...),
		Keywords:       append([]string{}, rec.Keywords...),
	}
	if rec.Email != nil {
		e := *rec.Email
		prefs.Email = &e
	}
	return prefs
}

func copyPrefs(p Preferences) Preferences {
	out := Preferences{
		Companies: append([]string(nil), p.Companies...),
		Keywords:  append([]string(nil), p.Keywords...),
	}
	if p.SubscriptionID != nil {
		id := *p.SubscriptionID
		out.SubscriptionID = &id
	}
	if p.Email != nil {
		e := *p.Email
		out.Email = &e
	}
	return out
}
