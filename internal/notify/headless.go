package notify

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// HeadlessPlatform はブラウザ無しで動く Platform 実装。
// 購読ごとに P-256 の鍵ペアと16バイトの auth シークレットを生成する
type HeadlessPlatform struct {
	mu           sync.Mutex
	endpointBase string
	statePath    string
	permission   Permission
	autoGrant    bool
	sub          *headlessSubscription
}

// headlessSubscription は statePath に保存する内容
type headlessSubscription struct {
	PushSubscription
	PrivateKey string `json:"private_key"`
}

type HeadlessOptions struct {
	// EndpointBase は購読エンドポイントの前半 (末尾にランダムなIDが付く)
	EndpointBase string
	// StatePath が空でなければ購読をファイルに保存し、次回起動時に復元する
	StatePath string
	// AutoGrant が true なら RequestPermission で許可する
	AutoGrant bool
}

func NewHeadlessPlatform(opts HeadlessOptions) (*HeadlessPlatform, error) {
	p := &HeadlessPlatform{
		endpointBase: strings.TrimRight(opts.EndpointBase, "/"),
		statePath:    opts.StatePath,
		permission:   PermissionDefault,
		autoGrant:    opts.AutoGrant,
	}
	if p.statePath != "" {
		var saved headlessSubscription
		err := readJSONFile(p.statePath, &saved)
		switch {
		case err == nil:
			p.sub = &saved
			p.permission = PermissionGranted
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("load headless subscription: %w", err)
		}
	}
	return p, nil
}

func (p *HeadlessPlatform) SupportsServiceWorker() bool { return true }
func (p *HeadlessPlatform) SupportsPush() bool          { return true }

func (p *HeadlessPlatform) Permission() Permission {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.permission
}

func (p *HeadlessPlatform) RequestPermission(ctx context.Context) (Permission, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.permission == PermissionDefault {
		if p.autoGrant {
			p.permission = PermissionGranted
		} else {
			p.permission = PermissionDenied
		}
	}
	return p.permission, nil
}

func (p *HeadlessPlatform) Subscribe(ctx context.Context, applicationServerKey string) (*PushSubscription, error) {
	if applicationServerKey == "" {
		return nil, errors.New("application server key is required")
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.permission != PermissionGranted {
		return nil, ErrPermissionDenied
	}
	if p.sub != nil {
		return clonePushSubscription(&p.sub.PushSubscription), nil
	}

	priv, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate p256 key: %w", err)
	}
	authSecret := make([]byte, 16)
	if _, err := rand.Read(authSecret); err != nil {
		return nil, fmt.Errorf("generate auth secret: %w", err)
	}

	sub := &headlessSubscription{
		PushSubscription: PushSubscription{
			Endpoint: p.endpointBase + "/" + uuid.NewString(),
			Keys: map[string]string{
				KeyP256dh: base64.RawURLEncoding.EncodeToString(priv.PublicKey().Bytes()),
				KeyAuth:   base64.RawURLEncoding.EncodeToString(authSecret),
			},
		},
		PrivateKey: base64.RawURLEncoding.EncodeToString(priv.Bytes()),
	}
	if p.statePath != "" {
		if err := writeJSONFile(p.statePath, sub); err != nil {
			return nil, fmt.Errorf("save headless subscription: %w", err)
		}
	}
	p.sub = sub
	return clonePushSubscription(&sub.PushSubscription), nil
}

func (p *HeadlessPlatform) CurrentSubscription(ctx context.Context) (*PushSubscription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sub == nil {
		return nil, nil
	}
	return clonePushSubscription(&p.sub.PushSubscription), nil
}

func (p *HeadlessPlatform) Unsubscribe(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sub = nil
	if p.statePath != "" {
		if err := os.Remove(p.statePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

func clonePushSubscription(s *PushSubscription) *PushSubscription {
	keys := make(map[string]string, len(s.Keys))
	for k, v := range s.Keys {
		keys[k] = v
	}
	return &PushSubscription{Endpoint: s.Endpoint, Keys: keys}
}
