package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"chatbot-sehat-server/internal/model"
)

func newTestRepo(t *testing.T) *HistoryRepository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// 内存 SQLite 是按连接隔离的，把连接池固定到一条连接
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&model.ChatTurn{}))

	return NewHistoryRepository(db)
}

func TestAppendAndListRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	turns := []struct {
		role    string
		content string
	}{
		{model.RoleUser, "What is dehydration?"},
		{model.RoleAssistant, "Dehydration is a lack of fluids."},
		{model.RoleUser, "How do I prevent it?"},
		{model.RoleAssistant, "Drink water regularly."},
	}

	for _, tt := range turns {
		err := repo.Append(ctx, &model.ChatTurn{
			UserID:  "anon-1234",
			AppID:   model.AppID,
			Role:    tt.role,
			Content: tt.content,
		})
		require.NoError(t, err)
	}

	got, err := repo.ListByUser(ctx, "anon-1234", model.AppID)
	require.NoError(t, err)
	require.Len(t, got, len(turns))

	for i, tt := range turns {
		require.Equal(t, tt.role, got[i].Role)
		require.Equal(t, tt.content, got[i].Content)
	}
}

func TestListFiltersByUserAndApp(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Append(ctx, &model.ChatTurn{
		UserID: "anon-1111", AppID: model.AppID, Role: model.RoleUser, Content: "mine",
	}))
	require.NoError(t, repo.Append(ctx, &model.ChatTurn{
		UserID: "anon-2222", AppID: model.AppID, Role: model.RoleUser, Content: "other user",
	}))
	require.NoError(t, repo.Append(ctx, &model.ChatTurn{
		UserID: "anon-1111", AppID: "other_app", Role: model.RoleUser, Content: "other app",
	}))

	got, err := repo.ListByUser(ctx, "anon-1111", model.AppID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "mine", got[0].Content)
}

func TestListUnknownUserIsEmpty(t *testing.T) {
	repo := newTestRepo(t)

	got, err := repo.ListByUser(context.Background(), "anon-9999", model.AppID)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestCountByUser(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Append(ctx, &model.ChatTurn{
			UserID: "anon-1234", AppID: model.AppID, Role: model.RoleUser, Content: "hi",
		}))
	}

	count, err := repo.CountByUser(ctx, "anon-1234", model.AppID)
	require.NoError(t, err)
	require.EqualValues(t, 3, count)
}
