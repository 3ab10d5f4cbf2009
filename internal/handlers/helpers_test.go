// helpers_test.go
package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go_4_interview_prep/internal/config"
	"go_4_interview_prep/internal/content"
	"go_4_interview_prep/internal/handlers"
	"go_4_interview_prep/internal/model"
	"go_4_interview_prep/internal/repository"
	"go_4_interview_prep/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// httpRequestDetails はHTTPリクエストの送信に必要な情報をまとめます。
type httpRequestDetails struct {
	Method  string
	Path    string
	Body    interface{}
	Headers map[string]string
}

// sendRequest はHTTPリクエストを送信し、ステータスコードを検証してボディを返します。
func sendRequest(t *testing.T, server *httptest.Server, details httpRequestDetails, expectedCode int) []byte {
	t.Helper()

	var reqBodyReader io.Reader
	if details.Body != nil {
		if strPayload, ok := details.Body.(string); ok {
			reqBodyReader = strings.NewReader(strPayload)
		} else {
			reqBodyBytes, err := json.Marshal(details.Body)
			require.NoError(t, err, "Failed to marshal request body")
			reqBodyReader = bytes.NewBuffer(reqBodyBytes)
		}
	}

	req, err := http.NewRequest(details.Method, server.URL+details.Path, reqBodyReader)
	require.NoError(t, err, "Failed to create request")

	if reqBodyReader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range details.Headers {
		req.Header.Set(key, value)
	}

	resp, err := server.Client().Do(req)
	require.NoError(t, err, "Failed to execute request")
	defer resp.Body.Close()

	respBodyBytes, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "Failed to read response body")

	assert.Equal(t, expectedCode, resp.StatusCode, "Status code mismatch: %s", string(respBodyBytes))
	return respBodyBytes
}

// decodeBody はレスポンスボディを dst にデコードします。
func decodeBody(t *testing.T, body []byte, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(body, dst), "Failed to decode body: %s", string(body))
}

// verifyErrorCode はエラーレスポンスのコードを検証します。
func verifyErrorCode(t *testing.T, body []byte, expectedCode string) {
	t.Helper()
	var errResp model.APIErrorResponse
	decodeBody(t, body, &errResp)
	assert.Equal(t, expectedCode, errResp.Error.Code)
}

// testEnv はテスト1件分のサーバーと依存
type testEnv struct {
	server *httptest.Server
	db     *gorm.DB
	mailer *recordingMailer
}

type envOption func(cfg *config.Config)

func withAuthEnabled(secret string) envOption {
	return func(cfg *config.Config) {
		cfg.Auth.Enabled = true
		cfg.JWT.SecretKey = secret
	}
}

func withoutVAPIDKey() envOption {
	return func(cfg *config.Config) {
		cfg.Push.VAPIDPublicKey = ""
	}
}

// newTestEnv はインメモリsqliteで本番と同じルーターを組み立てる
func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	db, err := repository.NewDB(repository.DriverSQLite, ":memory:", testLogger)
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return newTestEnvWithDB(t, db, opts...)
}

func newTestEnvWithDB(t *testing.T, db *gorm.DB, opts ...envOption) *testEnv {
	t.Helper()

	cfg := &config.Config{
		Auth: config.AuthConfig{Enabled: false},
		App:  config.AppConfig{NotesMaxLength: 100},
		Push: config.PushConfig{VAPIDPublicKey: "BPublicKeyForTests"},
		CORS: config.CORSConfig{AllowedOrigins: []string{"*"}},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	catalog := testCatalog(t)
	mailer := &recordingMailer{}

	progressService := service.NewProgressService(db, repository.NewGormLearningStoreRepository(), catalog,
		service.ProgressServiceConfig{NotesMaxLength: cfg.App.NotesMaxLength, DefaultLocation: time.UTC}, testLogger)
	subscriptionService := service.NewSubscriptionService(db, repository.NewGormSubscriptionRepository(), mailer, cfg.Push.VAPIDPublicKey)

	router := handlers.NewRouter(handlers.RouterDeps{
		Config:              cfg,
		Logger:              testLogger,
		DB:                  db,
		Catalog:             catalog,
		ProgressService:     progressService,
		SubscriptionService: subscriptionService,
		DefaultLocation:     time.UTC,
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return &testEnv{server: server, db: db, mailer: mailer}
}

func testCatalog(t *testing.T) *content.Catalog {
	t.Helper()
	cat, err := content.NewCatalog([]model.Track{
		{
			CompanyName: "Cefalo",
			Title:       "Cefalo Interview Prep",
			TotalDays:   30,
			Topics: []model.Topic{
				{ID: "cefalo-day-1", Day: 1, Title: "Go basics", Tasks: []string{"read", "practice", "review"}},
				{ID: "cefalo-day-2", Day: 2, Title: "Concurrency", Tasks: []string{"read", "practice"}},
			},
		},
		{
			CompanyName: "Brain Station 23",
			Title:       "BS23 Prep",
			TotalDays:   14,
			Topics: []model.Topic{
				{ID: "bs23-day-1", Day: 1, Tasks: []string{"a"}},
			},
		},
	})
	require.NoError(t, err)
	return cat
}

// recordingMailer は送信内容を記録するだけのメーラー
type recordingMailer struct {
	mu   sync.Mutex
	sent []string
}

func (m *recordingMailer) Send(ctx context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, to)
	return nil
}

func (m *recordingMailer) Sent() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sent...)
}
