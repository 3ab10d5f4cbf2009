//go:generate mockery --name LearningStoreRepository --output ./mocks --outpkg mocks --case=underscore
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go_4_interview_prep/internal/middleware"
	"go_4_interview_prep/internal/model"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LearningStoreRepository はユーザーごとの進捗 (progress) と集計 (stats) を
// それぞれ1つのJSONレコードとして読み書きする。
// レコードが無い・壊れている場合は空の値を返し、エラーにはしない。
type LearningStoreRepository interface {
	LoadProgress(ctx context.Context, db *gorm.DB, userID uuid.UUID) (model.ProgressMap, error)
	SaveProgress(ctx context.Context, db *gorm.DB, userID uuid.UUID, progress model.ProgressMap) error
	LoadStats(ctx context.Context, db *gorm.DB, userID uuid.UUID) (model.LearningStats, error)
	SaveStats(ctx context.Context, db *gorm.DB, userID uuid.UUID, stats model.LearningStats) error
	ListStats(ctx context.Context, db *gorm.DB) ([]model.UserStats, error)
}

type gormLearningStoreRepository struct{}

func NewGormLearningStoreRepository() LearningStoreRepository {
	return &gormLearningStoreRepository{}
}

func (r *gormLearningStoreRepository) LoadProgress(ctx context.Context, db *gorm.DB, userID uuid.UUID) (model.ProgressMap, error) {
	progress := model.ProgressMap{}
	found, err := r.load(ctx, db, userID, model.RecordKeyProgress, &progress)
	if err != nil {
		return nil, err
	}
	if !found || progress == nil {
		return model.ProgressMap{}, nil
	}
	for name, tp := range progress {
		if tp == nil {
			delete(progress, name)
			continue
		}
		if tp.Topics == nil {
			tp.Topics = map[string]*model.TopicProgress{}
		}
	}
	return progress, nil
}

func (r *gormLearningStoreRepository) SaveProgress(ctx context.Context, db *gorm.DB, userID uuid.UUID, progress model.ProgressMap) error {
	if progress == nil {
		progress = model.ProgressMap{}
	}
	return r.save(ctx, db, userID, model.RecordKeyProgress, progress)
}

func (r *gormLearningStoreRepository) LoadStats(ctx context.Context, db *gorm.DB, userID uuid.UUID) (model.LearningStats, error) {
	var stats model.LearningStats
	found, err := r.load(ctx, db, userID, model.RecordKeyStats, &stats)
	if err != nil {
		return model.LearningStats{}, err
	}
	if !found {
		return model.LearningStats{}, nil
	}
	return stats, nil
}

func (r *gormLearningStoreRepository) SaveStats(ctx context.Context, db *gorm.DB, userID uuid.UUID, stats model.LearningStats) error {
	return r.save(ctx, db, userID, model.RecordKeyStats, stats)
}

func (r *gormLearningStoreRepository) ListStats(ctx context.Context, db *gorm.DB) ([]model.UserStats, error) {
	logger := middleware.GetLogger(ctx)

	var records []model.LearningRecord
	result := db.WithContext(ctx).Where("record_key = ?", model.RecordKeyStats).Order("user_id").Find(&records)
	if result.Error != nil {
		logger.Error("Error listing stats records", "error", result.Error)
		return nil, fmt.Errorf("gormLearningStoreRepository.ListStats: %w", result.Error)
	}

	out := make([]model.UserStats, 0, len(records))
	for _, rec := range records {
		var stats model.LearningStats
		if err := json.Unmarshal(rec.Value, &stats); err != nil {
			logger.Warn("Skipping corrupt stats record", "user_id", rec.UserID.String(), "error", err)
			continue
		}
		out = append(out, model.UserStats{UserID: rec.UserID, Stats: stats})
	}
	return out, nil
}

// load はレコードを dest にデコードする。レコードが無い・壊れている場合は found=false
func (r *gormLearningStoreRepository) load(ctx context.Context, db *gorm.DB, userID uuid.UUID, key string, dest any) (bool, error) {
	logger := middleware.GetLogger(ctx)

	var rec model.LearningRecord
	result := db.WithContext(ctx).Where("user_id = ? AND record_key = ?", userID, key).First(&rec)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return false, nil
		}
		logger.Error("Error loading learning record", "error", result.Error, "user_id", userID.String(), "record_key", key)
		return false, fmt.Errorf("gormLearningStoreRepository.load(%s): %w", key, result.Error)
	}

	if err := json.Unmarshal(rec.Value, dest); err != nil {
		logger.Warn("Corrupt learning record, treating as empty", "error", err, "user_id", userID.String(), "record_key", key)
		return false, nil
	}
	return true, nil
}

func (r *gormLearningStoreRepository) save(ctx context.Context, db *gorm.DB, userID uuid.UUID, key string, value any) error {
	logger := middleware.GetLogger(ctx)

	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("gormLearningStoreRepository.save(%s): marshal: %w", key, err)
	}

	rec := model.LearningRecord{
		UserID:    userID,
		RecordKey: key,
		Value:     datatypes.JSON(b),
		UpdatedAt: time.Now(),
	}
	result := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "record_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&rec)
	if result.Error != nil {
		logger.Error("Error saving learning record", "error", result.Error, "user_id", userID.String(), "record_key", key)
		return fmt.Errorf("gormLearningStoreRepository.save(%s): %w", key, result.Error)
	}
	return nil
}
