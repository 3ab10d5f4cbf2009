package service

import (
	"context"
	"log/slog"
	"time"
	"unicode/utf8"

	"go_4_interview_prep/internal/middleware"
	"go_4_interview_prep/internal/model"
	"go_4_interview_prep/internal/progress"
	"go_4_interview_prep/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TrackCatalog はトラック定義の参照元 (content.Catalog)
type TrackCatalog interface {
	Track(companyName string) (*model.Track, bool)
	List() []model.TrackSummary
}

type ProgressService interface {
	Overview(ctx context.Context, userID uuid.UUID) (*model.ProgressOverview, error)
	GetTrack(ctx context.Context, userID uuid.UUID, companyName string) (*model.TrackStateResponse, error)
	StartTrack(ctx context.Context, userID uuid.UUID, companyName string) (*model.TrackStateResponse, error)
	ToggleTask(ctx context.Context, userID uuid.UUID, companyName, topicID string, taskIndex int) (*model.TrackStateResponse, error)
	CompleteTopic(ctx context.Context, userID uuid.UUID, companyName, topicID string) (*model.TrackStateResponse, error)
	SaveNotes(ctx context.Context, userID uuid.UUID, companyName, topicID, notes string) (*model.TrackStateResponse, error)
	SaveQuizScore(ctx context.Context, userID uuid.UUID, companyName, topicID string, score int) (*model.TrackStateResponse, error)
	ResetTrack(ctx context.Context, userID uuid.UUID, companyName string) (*model.LearningStats, error)
	Stats(ctx context.Context, userID uuid.UUID) (*model.LearningStats, error)
	// ExpireStaleStreaks は全ユーザーのストリークを各自のタイムゾーンで失効判定する (定期ジョブ用)
	ExpireStaleStreaks(ctx context.Context, now time.Time) (int, error)
}

type ProgressServiceConfig struct {
	NotesMaxLength  int
	DefaultLocation *time.Location
}

type progressService struct {
	db      *gorm.DB
	repo    repository.LearningStoreRepository
	catalog TrackCatalog
	cfg     ProgressServiceConfig
	logger  *slog.Logger
	locks   *userLocks
	now     func() time.Time
}

func NewProgressService(db *gorm.DB, repo repository.LearningStoreRepository, catalog TrackCatalog, cfg ProgressServiceConfig, logger *slog.Logger) ProgressService {
	if cfg.DefaultLocation == nil {
		cfg.DefaultLocation = time.UTC
	}
	return &progressService{
		db:      db,
		repo:    repo,
		catalog: catalog,
		cfg:     cfg,
		logger:  logger,
		locks:   newUserLocks(),
		now:     time.Now,
	}
}

// load はユーザーの進捗と集計を読み込む
func (s *progressService) load(ctx context.Context, userID uuid.UUID) (*progress.State, error) {
	tracks, err := s.repo.LoadProgress(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	stats, err := s.repo.LoadStats(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	return progress.NewState(tracks, stats), nil
}

// persist は進捗と集計を1トランザクションで保存する。
// 保存に失敗してもエラーは返さず、ログだけ残してメモリ上の状態で応答を続ける
func (s *progressService) persist(ctx context.Context, userID uuid.UUID, st *progress.State, saveTracks bool) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if saveTracks {
			if err := s.repo.SaveProgress(ctx, tx, userID, st.Tracks); err != nil {
				return err
			}
		}
		return s.repo.SaveStats(ctx, tx, userID, st.Stats)
	})
	if err != nil {
		middleware.GetLogger(ctx).Error("Failed to persist learning progress", "error", err, "user_id", userID.String())
	}
}

// mutate はユーザーロックの中で 読み込み → 変更 → 保存 を行う。
// op が false (前提条件を満たさず何もしなかった) を返した場合は保存しない
func (s *progressService) mutate(ctx context.Context, userID uuid.UUID, op func(st *progress.State, now time.Time) bool) (*progress.State, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	st, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if op(st, s.localNow(ctx)) {
		s.persist(ctx, userID, st, true)
	}
	return st, nil
}

// localNow はリクエストのタイムゾーン (無ければ既定のタイムゾーン) での現在時刻
func (s *progressService) localNow(ctx context.Context) time.Time {
	loc, ok := middleware.LocationFromContext(ctx)
	if !ok {
		loc = s.cfg.DefaultLocation
	}
	return s.now().In(loc)
}

func (s *progressService) track(companyName string) (*model.Track, error) {
	track, ok := s.catalog.Track(companyName)
	if !ok {
		return nil, model.NewAppError("TRACK_NOT_FOUND", "指定された会社のトラックが見つかりません。", "company", model.ErrNotFound)
	}
	return track, nil
}

func (s *progressService) topic(track *model.Track, topicID string) (*model.Topic, error) {
	topic, ok := track.FindTopic(topicID)
	if !ok {
		return nil, model.NewAppError("TOPIC_NOT_FOUND", "指定されたトピックが見つかりません。", "topic_id", model.ErrNotFound)
	}
	return topic, nil
}

func (s *progressService) stateResponse(st *progress.State, track *model.Track) *model.TrackStateResponse {
	resp := &model.TrackStateResponse{CompanyName: track.CompanyName, Stats: st.Stats}
	if tp, ok := st.Track(track.CompanyName); ok {
		resp.Started = true
		resp.Progress = progress.View(tp, track.TotalDays)
	}
	return resp
}

// sessionStart は「セッション開始」時のストリーク失効を適用した状態を返す
func (s *progressService) sessionStart(ctx context.Context, userID uuid.UUID) (*progress.State, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	st, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if progress.ExpireStreak(&st.Stats, s.localNow(ctx)) {
		middleware.GetLogger(ctx).Info("Streak expired on session start", "user_id", userID.String())
		s.persist(ctx, userID, st, false)
	}
	return st, nil
}

func (s *progressService) Overview(ctx context.Context, userID uuid.UUID) (*model.ProgressOverview, error) {
	st, err := s.sessionStart(ctx, userID)
	if err != nil {
		return nil, err
	}

	overview := &model.ProgressOverview{
		Tracks: make(map[string]*model.TrackProgressView, len(st.Tracks)),
		Stats:  st.Stats,
	}
	for name, tp := range st.Tracks {
		totalDays := 0
		if track, ok := s.catalog.Track(name); ok {
			totalDays = track.TotalDays
		}
		overview.Tracks[name] = progress.View(tp, totalDays)
	}
	return overview, nil
}

func (s *progressService) GetTrack(ctx context.Context, userID uuid.UUID, companyName string) (*model.TrackStateResponse, error) {
	track, err := s.track(companyName)
	if err != nil {
		return nil, err
	}
	st, err := s.sessionStart(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.stateResponse(st, track), nil
}

func (s *progressService) StartTrack(ctx context.Context, userID uuid.UUID, companyName string) (*model.TrackStateResponse, error) {
	track, err := s.track(companyName)
	if err != nil {
		return nil, err
	}
	st, err := s.mutate(ctx, userID, func(st *progress.State, now time.Time) bool {
		return st.StartTrack(track, now)
	})
	if err != nil {
		return nil, err
	}
	return s.stateResponse(st, track), nil
}

func (s *progressService) ToggleTask(ctx context.Context, userID uuid.UUID, companyName, topicID string, taskIndex int) (*model.TrackStateResponse, error) {
	track, err := s.track(companyName)
	if err != nil {
		return nil, err
	}
	topic, err := s.topic(track, topicID)
	if err != nil {
		return nil, err
	}
	if taskIndex < 0 || taskIndex >= len(topic.Tasks) {
		return nil, model.NewAppError("INVALID_TASK_INDEX", "タスク番号が範囲外です。", "task_index", model.ErrInvalidInput)
	}

	st, err := s.mutate(ctx, userID, func(st *progress.State, now time.Time) bool {
		return st.ToggleTask(track.CompanyName, topic.ID, taskIndex, len(topic.Tasks), now)
	})
	if err != nil {
		return nil, err
	}
	return s.stateResponse(st, track), nil
}

func (s *progressService) CompleteTopic(ctx context.Context, userID uuid.UUID, companyName, topicID string) (*model.TrackStateResponse, error) {
	track, err := s.track(companyName)
	if err != nil {
		return nil, err
	}
	if _, err := s.topic(track, topicID); err != nil {
		return nil, err
	}

	st, err := s.mutate(ctx, userID, func(st *progress.State, now time.Time) bool {
		return st.CompleteTopic(track.CompanyName, topicID, track, now)
	})
	if err != nil {
		return nil, err
	}
	return s.stateResponse(st, track), nil
}

func (s *progressService) SaveNotes(ctx context.Context, userID uuid.UUID, companyName, topicID, notes string) (*model.TrackStateResponse, error) {
	track, err := s.track(companyName)
	if err != nil {
		return nil, err
	}
	if _, err := s.topic(track, topicID); err != nil {
		return nil, err
	}
	if s.cfg.NotesMaxLength > 0 && utf8.RuneCountInString(notes) > s.cfg.NotesMaxLength {
		return nil, model.NewAppError("NOTES_TOO_LONG", "メモが長すぎます。", "notes", model.ErrInvalidInput)
	}

	st, err := s.mutate(ctx, userID, func(st *progress.State, now time.Time) bool {
		return st.SaveNotes(track.CompanyName, topicID, notes, now)
	})
	if err != nil {
		return nil, err
	}
	return s.stateResponse(st, track), nil
}

func (s *progressService) SaveQuizScore(ctx context.Context, userID uuid.UUID, companyName, topicID string, score int) (*model.TrackStateResponse, error) {
	if score < 0 || score > 100 {
		return nil, model.NewAppError("INVALID_SCORE", "点数は0から100で指定してください。", "score", model.ErrInvalidInput)
	}
	track, err := s.track(companyName)
	if err != nil {
		return nil, err
	}
	if _, err := s.topic(track, topicID); err != nil {
		return nil, err
	}

	st, err := s.mutate(ctx, userID, func(st *progress.State, now time.Time) bool {
		return st.SaveQuizScore(track.CompanyName, topicID, score, now)
	})
	if err != nil {
		return nil, err
	}
	return s.stateResponse(st, track), nil
}

// ResetTrack は会社の進捗を削除する。コンテンツから消えた会社の進捗も削除できる
func (s *progressService) ResetTrack(ctx context.Context, userID uuid.UUID, companyName string) (*model.LearningStats, error) {
	st, err := s.mutate(ctx, userID, func(st *progress.State, _ time.Time) bool {
		return st.ResetTrack(companyName)
	})
	if err != nil {
		return nil, err
	}
	return &st.Stats, nil
}

func (s *progressService) Stats(ctx context.Context, userID uuid.UUID) (*model.LearningStats, error) {
	st, err := s.sessionStart(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &st.Stats, nil
}

func (s *progressService) ExpireStaleStreaks(ctx context.Context, now time.Time) (int, error) {
	logger := s.logger.With("job", "streak_sweep")
	ctx = middleware.WithLogger(ctx, logger)

	all, err := s.repo.ListStats(ctx, s.db)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, us := range all {
		if us.Stats.CurrentStreak == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return expired, err
		}
		if s.expireOne(ctx, us.UserID, now) {
			expired++
		}
	}
	logger.Info("Stale streak sweep finished", "users", len(all), "expired", expired)
	return expired, nil
}

// expireOne はロックを取って最新の集計を読み直してから失効判定する
func (s *progressService) expireOne(ctx context.Context, userID uuid.UUID, now time.Time) bool {
	logger := middleware.GetLogger(ctx)

	unlock := s.locks.Lock(userID)
	defer unlock()

	stats, err := s.repo.LoadStats(ctx, s.db, userID)
	if err != nil {
		logger.Error("Failed to load stats for sweep", "error", err, "user_id", userID.String())
		return false
	}

	loc := s.cfg.DefaultLocation
	if stats.TimeZone != "" {
		if l, err := time.LoadLocation(stats.TimeZone); err == nil {
			loc = l
		} else {
			logger.Warn("Unknown stored time zone, using default", "time_zone", stats.TimeZone, "user_id", userID.String())
		}
	}

	if !progress.ExpireStreak(&stats, now.In(loc)) {
		return false
	}
	if err := s.repo.SaveStats(ctx, s.db, userID, stats); err != nil {
		logger.Error("Failed to save expired streak", "error", err, "user_id", userID.String())
		return false
	}
	return true
}
