// Package scheduler は定期ジョブ (ストリークの一括失効) を実行します。
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// StreakExpirer は最終アクティビティが古いユーザーのストリークを0にする
type StreakExpirer interface {
	ExpireStaleStreaks(ctx context.Context, now time.Time) (int, error)
}

type Scheduler struct {
	scheduler *gocron.Scheduler
	expirer   StreakExpirer
	sweepAt   string
	timeout   time.Duration
	logger    *slog.Logger
}

// New は loc のタイムゾーンで毎日 sweepAt (HH:MM) に実行するスケジューラを作る
func New(expirer StreakExpirer, loc *time.Location, sweepAt string, logger *slog.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	s := gocron.NewScheduler(loc)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		expirer:   expirer,
		sweepAt:   sweepAt,
		timeout:   10 * time.Minute,
		logger:    logger.With("component", "scheduler"),
	}
}

// Start はジョブを登録して非同期で開始する
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Every(1).Day().At(s.sweepAt).Do(s.sweepStreaks); err != nil {
		return fmt.Errorf("schedule streak sweep at %q: %w", s.sweepAt, err)
	}
	s.scheduler.StartAsync()
	s.logger.Info("Scheduler started", "streak_sweep_at", s.sweepAt)
	return nil
}

func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	s.logger.Info("Scheduler stopped")
}

// RunStreakSweep はストリーク失効を今すぐ1回実行する
func (s *Scheduler) RunStreakSweep(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.expirer.ExpireStaleStreaks(ctx, time.Now())
}

func (s *Scheduler) sweepStreaks() {
	expired, err := s.RunStreakSweep(context.Background())
	if err != nil {
		s.logger.Error("Streak sweep failed", "error", err, "expired", expired)
		return
	}
	s.logger.Debug("Streak sweep completed", "expired", expired)
}
