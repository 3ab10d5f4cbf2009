// internal/handlers/params.go
package handlers

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"go_4_interview_prep/internal/middleware"
	"go_4_interview_prep/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// handlerLogger はリクエストIDとユーザーIDが付いたロガーにハンドラ名を足す
func handlerLogger(r *http.Request, name string) *slog.Logger {
	return middleware.GetLogger(r.Context()).With(slog.String("handler", name))
}

// pathParam はURLパラメータをデコードして返す。会社名に空白などが入るため
func pathParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

func companyParam(r *http.Request) string {
	return pathParam(r, "company")
}

func topicParam(r *http.Request) string {
	return pathParam(r, "topic_id")
}

func taskIndexParam(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "task_index")
	idx, err := strconv.Atoi(raw)
	if err != nil {
		return 0, model.NewAppError("INVALID_TASK_INDEX", "タスク番号は整数で指定してください。", "task_index", model.ErrInvalidInput)
	}
	return idx, nil
}

func subscriptionIDParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, model.NewAppError("INVALID_ID", "IDの形式が正しくありません。", "id", model.ErrInvalidInput)
	}
	return id, nil
}
