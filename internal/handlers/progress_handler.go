// internal/handlers/progress_handler.go
package handlers

import (
	"log/slog"
	"net/http"

	"go_4_interview_prep/internal/middleware"
	"go_4_interview_prep/internal/model"
	"go_4_interview_prep/internal/service"
	"go_4_interview_prep/internal/webutil"

	"github.com/google/uuid"
)

type ProgressHandler struct {
	service service.ProgressService
}

func NewProgressHandler(s service.ProgressService) *ProgressHandler {
	return &ProgressHandler{service: s}
}

// currentUser は認証ミドルウェアが入れたユーザーIDを取り出す。無ければ401を返して false
func currentUser(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (uuid.UUID, bool) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		webutil.HandleError(w, logger, model.NewAppError("UNAUTHORIZED", "認証情報が見つかりません。", "", model.ErrUnauthorized))
		return uuid.Nil, false
	}
	return userID, true
}

// GetOverview は全トラックの進捗と集計を返す。セッション開始としてストリーク失効も判定する
func (h *ProgressHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	logger := handlerLogger(r, "GetOverview")
	userID, ok := currentUser(w, r, logger)
	if !ok {
		return
	}

	overview, err := h.service.Overview(r.Context(), userID)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, overview)
}

func (h *ProgressHandler) GetTrackProgress(w http.ResponseWriter, r *http.Request) {
	logger := handlerLogger(r, "GetTrackProgress")
	userID, ok := currentUser(w, r, logger)
	if !ok {
		return
	}

	resp, err := h.service.GetTrack(r.Context(), userID, companyParam(r))
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *ProgressHandler) StartTrack(w http.ResponseWriter, r *http.Request) {
	logger := handlerLogger(r, "StartTrack")
	userID, ok := currentUser(w, r, logger)
	if !ok {
		return
	}

	companyName := companyParam(r)
	resp, err := h.service.StartTrack(r.Context(), userID, companyName)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	logger.Info("Track started", slog.String("company", companyName))
	webutil.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *ProgressHandler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	logger := handlerLogger(r, "ToggleTask")
	userID, ok := currentUser(w, r, logger)
	if !ok {
		return
	}

	taskIndex, err := taskIndexParam(r)
	if err != nil {
		logger.Warn("Invalid task index", slog.String("task_index", pathParam(r, "task_index")))
		webutil.HandleError(w, logger, err)
		return
	}

	resp, err := h.service.ToggleTask(r.Context(), userID, companyParam(r), topicParam(r), taskIndex)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *ProgressHandler) CompleteTopic(w http.ResponseWriter, r *http.Request) {
	logger := handlerLogger(r, "CompleteTopic")
	userID, ok := currentUser(w, r, logger)
	if !ok {
		return
	}

	companyName, topicID := companyParam(r), topicParam(r)
	resp, err := h.service.CompleteTopic(r.Context(), userID, companyName, topicID)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	logger.Info("Topic completed", slog.String("company", companyName), slog.String("topic_id", topicID))
	webutil.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *ProgressHandler) SaveNotes(w http.ResponseWriter, r *http.Request) {
	logger := handlerLogger(r, "SaveNotes")
	userID, ok := currentUser(w, r, logger)
	if !ok {
		return
	}

	var req model.SaveNotesRequest
	if err := webutil.DecodeAndValidate(r, &req); err != nil {
		logger.Warn("Invalid notes request", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	resp, err := h.service.SaveNotes(r.Context(), userID, companyParam(r), topicParam(r), *req.Notes)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *ProgressHandler) SaveQuizScore(w http.ResponseWriter, r *http.Request) {
	logger := handlerLogger(r, "SaveQuizScore")
	userID, ok := currentUser(w, r, logger)
	if !ok {
		return
	}

	var req model.SaveQuizScoreRequest
	if err := webutil.DecodeAndValidate(r, &req); err != nil {
		logger.Warn("Invalid quiz score request", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	resp, err := h.service.SaveQuizScore(r.Context(), userID, companyParam(r), topicParam(r), *req.Score)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, resp)
}

// ResetTrack はトラックの進捗を消す。集計値 (ストリーク等) はそのまま返す
func (h *ProgressHandler) ResetTrack(w http.ResponseWriter, r *http.Request) {
	logger := handlerLogger(r, "ResetTrack")
	userID, ok := currentUser(w, r, logger)
	if !ok {
		return
	}

	companyName := companyParam(r)
	stats, err := h.service.ResetTrack(r.Context(), userID, companyName)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	logger.Info("Track reset", slog.String("company", companyName))
	webutil.RespondWithJSON(w, http.StatusOK, stats)
}

func (h *ProgressHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	logger := handlerLogger(r, "GetStats")
	userID, ok := currentUser(w, r, logger)
	if !ok {
		return
	}

	stats, err := h.service.Stats(r.Context(), userID)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, stats)
}
