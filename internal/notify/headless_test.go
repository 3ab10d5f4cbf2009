package notify

import (
	"context"
	"crypto/ecdh"
	"encoding/base64"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeadlessPlatform_Subscribe(t *testing.T) {
	ctx := context.Background()
	p, err := NewHeadlessPlatform(HeadlessOptions{EndpointBase: "https://push.example.com/", AutoGrant: true})
	require.NoError(t, err)

	_, err = p.Subscribe(ctx, "VAPID")
	assert.ErrorIs(t, err, ErrPermissionDenied, "permission must be requested first")

	perm, err := p.RequestPermission(ctx)
	require.NoError(t, err)
	assert.Equal(t, PermissionGranted, perm)

	sub, err := p.Subscribe(ctx, "VAPID")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sub.Endpoint, "https://push.example.com/"))
	assert.NotContains(t, strings.TrimPrefix(sub.Endpoint, "https://"), "//")

	pub, err := base64.RawURLEncoding.DecodeString(sub.Keys[KeyP256dh])
	require.NoError(t, err)
	assert.Len(t, pub, 65, "uncompressed P-256 point")
	_, err = ecdh.P256().NewPublicKey(pub)
	assert.NoError(t, err)

	auth, err := base64.RawURLEncoding.DecodeString(sub.Keys[KeyAuth])
	require.NoError(t, err)
	assert.Len(t, auth, 16)

	// 既存の購読はそのまま返す
	again, err := p.Subscribe(ctx, "VAPID")
	require.NoError(t, err)
	assert.Equal(t, sub.Endpoint, again.Endpoint)

	_, err = p.Subscribe(ctx, "")
	assert.Error(t, err)
}

func TestHeadlessPlatform_DeniedWithoutAutoGrant(t *testing.T) {
	p, err := NewHeadlessPlatform(HeadlessOptions{EndpointBase: "https://push.example.com"})
	require.NoError(t, err)

	perm, err := p.RequestPermission(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PermissionDenied, perm)
}

func TestHeadlessPlatform_PersistsSubscription(t *testing.T) {
	ctx := context.Background()
	statePath := filepath.Join(t.TempDir(), "push", "subscription.json")

	p1, err := NewHeadlessPlatform(HeadlessOptions{EndpointBase: "https://push.example.com", StatePath: statePath, AutoGrant: true})
	require.NoError(t, err)
	_, err = p1.RequestPermission(ctx)
	require.NoError(t, err)
	sub, err := p1.Subscribe(ctx, "VAPID")
	require.NoError(t, err)

	p2, err := NewHeadlessPlatform(HeadlessOptions{EndpointBase: "https://push.example.com", StatePath: statePath})
	require.NoError(t, err)
	assert.Equal(t, PermissionGranted, p2.Permission())
	current, err := p2.CurrentSubscription(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, sub.Endpoint, current.Endpoint)
	assert.Equal(t, sub.Keys, current.Keys)

	require.NoError(t, p2.Unsubscribe(ctx))
	p3, err := NewHeadlessPlatform(HeadlessOptions{StatePath: statePath})
	require.NoError(t, err)
	current, err = p3.CurrentSubscription(ctx)
	require.NoError(t, err)
	assert.Nil(t, current)
}

func TestFilePreferenceStore(t *testing.T) {
	store := NewFilePreferenceStore(filepath.Join(t.TempDir(), "nested", "prefs.json"))

	prefs, err := store.Load()
	require.NoError(t, err, "missing file is empty preferences")
	assert.Nil(t, prefs.SubscriptionID)

	email := "dev@example.com"
	require.NoError(t, store.Save(Preferences{Email: &email, Companies: []string{"Cefalo"}}))
	prefs, err = store.Load()
	require.NoError(t, err)
	require.NotNil(t, prefs.Email)
	assert.Equal(t, email, *prefs.Email)
	assert.Equal(t, []string{"Cefalo"}, prefs.Companies)
}
