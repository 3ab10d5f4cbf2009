package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"go_4_interview_prep/internal/content"
	"go_4_interview_prep/internal/model"
	"go_4_interview_prep/internal/repository"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// setupTestDB はテストごとに独立したインメモリDBを返す
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repository.NewDB(repository.DriverSQLite, ":memory:", testLogger)
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func testCatalog(t *testing.T) *content.Catalog {
	t.Helper()
	cat, err := content.NewCatalog([]model.Track{
		{
			CompanyName: "Cefalo",
			Title:       "Cefalo Interview Prep",
			TotalDays:   30,
			Topics: []model.Topic{
				{ID: "cefalo-day-1", Day: 1, Tasks: []string{"read", "practice", "review"}},
				{ID: "cefalo-day-2", Day: 2, Tasks: []string{"read", "practice"}},
				{ID: "cefalo-day-3", Day: 3, Tasks: []string{"read"}},
			},
		},
		{
			CompanyName: "Therap",
			TotalDays:   14,
			Topics: []model.Topic{
				{ID: "therap-day-1", Day: 1, Tasks: []string{"a", "b"}},
			},
		},
	})
	require.NoError(t, err)
	return cat
}

// mockMailer は Mailer のモック
type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) Send(ctx context.Context, to, subject, body string) error {
	args := m.Called(ctx, to, subject, body)
	return args.Error(0)
}
