package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go_4_interview_prep/internal/model"

	"github.com/google/uuid"
)

// APIError は通知サーバーが返したエラーレスポンス
type APIError struct {
	StatusCode int
	Detail     model.ErrorDetail
}

func (e *APIError) Error() string {
	if e.Detail.Code != "" {
		return fmt.Sprintf("backend returned %d: %s: %s", e.StatusCode, e.Detail.Code, e.Detail.Message)
	}
	return fmt.Sprintf("backend returned %d", e.StatusCode)
}

// Unwrap はステータスコードを model のエラーに対応付ける
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return model.ErrNotFound
	case http.StatusBadRequest:
		return model.ErrInvalidInput
	case http.StatusConflict:
		return model.ErrConflict
	case http.StatusUnauthorized:
		return model.ErrUnauthorized
	default:
		return model.ErrInternalServer
	}
}

// HTTPBackend は /api/v1/notifications のRESTクライアント
type HTTPBackend struct {
	baseURL string
	client  *http.Client
}

// NewHTTPBackend は baseURL (例: http://localhost:8080/api/v1) に対するクライアントを作る
func NewHTTPBackend(baseURL string, timeout time.Duration) *HTTPBackend {
	return &HTTPBackend{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (b *HTTPBackend) PublicKey(ctx context.Context) (string, error) {
	var resp model.PublicKeyResponse
	if err := b.do(ctx, http.MethodGet, "/notifications/vapid-public-key", nil, &resp); err != nil {
		return "", err
	}
	if resp.PublicKey == "" {
		return "", errors.New("backend returned an empty public key")
	}
	return resp.PublicKey, nil
}

func (b *HTTPBackend) Create(ctx context.Context, req *model.CreateSubscriptionRequest) (*model.Subscription, error) {
	var sub model.Subscription
	if err := b.do(ctx, http.MethodPost, "/notifications/subscriptions", req, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (b *HTTPBackend) Update(ctx context.Context, id uuid.UUID, req *model.UpdateSubscriptionRequest) (*model.Subscription, error) {
	var sub model.Subscription
	if err := b.do(ctx, http.MethodPatch, "/notifications/subscriptions/"+id.String(), req, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (b *HTTPBackend) Delete(ctx context.Context, id uuid.UUID) error {
	return b.do(ctx, http.MethodDelete, "/notifications/subscriptions/"+id.String(), nil, nil)
}

func (b *HTTPBackend) LookupByEndpoint(ctx context.Context, endpoint string) (*model.Subscription, error) {
	var sub model.Subscription
	path := "/notifications/subscriptions/lookup?endpoint=" + url.QueryEscape(endpoint)
	if err := b.do(ctx, http.MethodGet, path, nil, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (b *HTTPBackend) do(ctx context.Context, method, path string, body, dst interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errResp model.APIErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil {
			apiErr.Detail = errResp.Error
		}
		return apiErr
	}

	if dst == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
