// internal/handlers/subscription_handler.go
package handlers

import (
	"log/slog"
	"net/http"

	"go_4_interview_prep/internal/model"
	"go_4_interview_prep/internal/service"
	"go_4_interview_prep/internal/webutil"
)

type SubscriptionHandler struct {
	service service.SubscriptionService
}

func NewSubscriptionHandler(s service.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{service: s}
}

// GetPublicKey はブラウザの購読作成に使うVAPID公開鍵を返す
func (h *SubscriptionHandler) GetPublicKey(w http.ResponseWriter, r *http.Request) {
	logger := handlerLogger(r, "GetPublicKey")

	resp, err := h.service.PublicKey(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, resp)
}

// CreateSubscription は購読を登録する。新規なら201、既存エンドポイントの更新なら200
func (h *SubscriptionHandler) CreateSubscription(w http.ResponseWriter, r *http.Request) {
	logger := handlerLogger(r, "CreateSubscription")

	var req model.CreateSubscriptionRequest
	if err := webutil.DecodeAndValidate(r, &req); err != nil {
		logger.Warn("Invalid subscription request", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	sub, created, err := h.service.Create(r.Context(), &req)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	webutil.RespondWithJSON(w, status, sub)
}

// LookupSubscription は ?endpoint= で購読を探す。無効化済みの購読も返す
func (h *SubscriptionHandler) LookupSubscription(w http.ResponseWriter, r *http.Request) {
	logger := handlerLogger(r, "LookupSubscription")

	sub, err := h.service.LookupByEndpoint(r.Context(), r.URL.Query().Get("endpoint"))
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, sub)
}

func (h *SubscriptionHandler) UpdateSubscription(w http.ResponseWriter, r *http.Request) {
	logger := handlerLogger(r, "UpdateSubscription")

	id, err := subscriptionIDParam(r)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	logger = logger.With(slog.String("subscription_id", id.String()))

	var req model.UpdateSubscriptionRequest
	if err := webutil.DecodeAndValidate(r, &req); err != nil {
		logger.Warn("Invalid subscription update request", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	sub, err := h.service.Update(r.Context(), id, &req)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	logger.Info("Subscription updated")
	webutil.RespondWithJSON(w, http.StatusOK, sub)
}

// DeleteSubscription は購読を無効化する (レコードは残る)
func (h *SubscriptionHandler) DeleteSubscription(w http.ResponseWriter, r *http.Request) {
	logger := handlerLogger(r, "DeleteSubscription")

	id, err := subscriptionIDParam(r)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
