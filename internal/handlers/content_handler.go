// internal/handlers/content_handler.go
package handlers

import (
	"log/slog"
	"net/http"

	"go_4_interview_prep/internal/model"
	"go_4_interview_prep/internal/service"
	"go_4_interview_prep/internal/webutil"
)

type ContentHandler struct {
	catalog service.TrackCatalog
}

func NewContentHandler(catalog service.TrackCatalog) *ContentHandler {
	return &ContentHandler{catalog: catalog}
}

// ListTracks はトラック一覧 (会社名・タイトル・日数) を返すハンドラ
func (h *ContentHandler) ListTracks(w http.ResponseWriter, r *http.Request) {
	logger := handlerLogger(r, "ListTracks")

	tracks := h.catalog.List()
	if tracks == nil {
		tracks = []model.TrackSummary{}
	}
	logger.Debug("Tracks listed", slog.Int("count", len(tracks)))
	webutil.RespondWithJSON(w, http.StatusOK, tracks)
}

// GetTrack はトラックの学習内容を返すハンドラ
func (h *ContentHandler) GetTrack(w http.ResponseWriter, r *http.Request) {
	logger := handlerLogger(r, "GetTrack")

	companyName := companyParam(r)
	track, ok := h.catalog.Track(companyName)
	if !ok {
		logger.Info("Track not found", slog.String("company", companyName))
		webutil.HandleError(w, logger, model.NewAppError("TRACK_NOT_FOUND", "トラックが見つかりません。", "company", model.ErrNotFound))
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, track)
}
