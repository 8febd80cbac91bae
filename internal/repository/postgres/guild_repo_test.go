package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"guildkeeper/internal/domain"
)

var guildCols = []string{"id", "category_id", "last_message_id", "create_channel", "notify_permission_loss",
	"welcome_message", "welcome_channel_id", "notify_missing_welcome_channel",
	"scheduler_category_id", "scheduler_template", "created_at", "updated_at"}

var fixedNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func newTestRepo(t *testing.T) (*guildRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &guildRepository{DB: db, now: func() time.Time { return fixedNow }}, mock
}

func TestGuildRepository_Get(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		want    func(t *testing.T, g *domain.Guild)
		errIs   error
		wantErr bool
	}{
		{
			name: "with template",
			mock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(guildCols).AddRow("g1", "cat-1", nil, true, false, "Hi {} {}", "wc-1", false, "cat-9",
					`{"event_name":"Intro {}","earliest_hour":9,"latest_hour":17,"timezone":"UTC","weekdays":[1,3]}`,
					created, created)
				mock.ExpectQuery(`SELECT .* FROM guilds WHERE id = \$1`).WithArgs("g1").WillReturnRows(rows)
			},
			want: func(t *testing.T, g *domain.Guild) {
				require.Equal(t, "g1", g.ID)
				require.NotNil(t, g.CategoryID)
				require.Equal(t, "cat-1", *g.CategoryID)
				require.Nil(t, g.LastMessageID)
				require.False(t, g.NotifyPermissionLoss)
				require.Equal(t, "wc-1", *g.WelcomeChannelID)
				require.False(t, g.NotifyMissingWelcomeChannel)
				require.True(t, g.SchedulerTriggerEnabled())
				require.Equal(t, []time.Weekday{time.Monday, time.Wednesday}, g.SchedulerTemplate.Weekdays)
			},
		},
		{
			name: "no template",
			mock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(guildCols).AddRow("g1", nil, "m-1", true, true, "Hi {}", nil, true, nil, nil, created, created)
				mock.ExpectQuery(`SELECT .* FROM guilds`).WithArgs("g1").WillReturnRows(rows)
			},
			want: func(t *testing.T, g *domain.Guild) {
				require.Nil(t, g.SchedulerTemplate)
				require.Nil(t, g.CategoryID)
				require.Equal(t, "m-1", *g.LastMessageID)
				require.Nil(t, g.WelcomeChannelID)
				require.True(t, g.NotifyMissingWelcomeChannel)
			},
		},
		{
			name: "not found",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .* FROM guilds`).WithArgs("g1").WillReturnError(sql.ErrNoRows)
			},
			wantErr: true,
			errIs:   domain.ErrNotFound,
		},
		{
			name: "corrupt template",
			mock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(guildCols).AddRow("g1", nil, nil, true, true, "Hi {}", nil, true, "c", "{", created, created)
				mock.ExpectQuery(`SELECT .* FROM guilds`).WithArgs("g1").WillReturnRows(rows)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newTestRepo(t)
			tt.mock(mock)
			g, err := repo.Get(ctx, "g1")
			if tt.wantErr {
				require.Error(t, err)
				if tt.errIs != nil {
					require.ErrorIs(t, err, tt.errIs)
				}
			} else {
				require.NoError(t, err)
				tt.want(t, g)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGuildRepository_GetOrCreate(t *testing.T) {
	repo, mock := newTestRepo(t)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO guilds`)).
		WithArgs("g1", true, true, domain.DefaultWelcomeMessage, fixedNow, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT .* FROM guilds WHERE id = \$1`).WithArgs("g1").
		WillReturnRows(sqlmock.NewRows(guildCols).AddRow("g1", nil, nil, true, true, domain.DefaultWelcomeMessage, nil, true, nil, nil, fixedNow, fixedNow))

	g, err := repo.GetOrCreate(context.Background(), "g1")
	require.NoError(t, err)
	require.True(t, g.CreateChannel)
	require.False(t, g.Listening())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGuildRepository_Update(t *testing.T) {
	ctx := context.Background()
	existing := func() *sqlmock.Rows {
		return sqlmock.NewRows(guildCols).AddRow("g1", "cat-1", nil, true, true, "Hi {}", nil, true, nil, nil, fixedNow, fixedNow)
	}

	t.Run("commits", func(t *testing.T) {
		repo, mock := newTestRepo(t)
		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO guilds .* ON CONFLICT \(id\) DO NOTHING`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT .* FROM guilds WHERE id = \$1 FOR UPDATE`).WithArgs("g1").WillReturnRows(existing())
		mock.ExpectExec(`UPDATE guilds`).
			WithArgs("cat-1", nil, true, true, "Hi {}", "wc-1", false, "cat-2", sqlmock.AnyArg(), fixedNow, "g1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		cat, welcome := "cat-2", "wc-1"
		g, err := repo.Update(ctx, "g1", func(g *domain.Guild) error {
			g.WelcomeChannelID = &welcome
			g.NotifyMissingWelcomeChannel = false
			g.SchedulerCategoryID = &cat
			g.SchedulerTemplate = &domain.SchedulingTemplate{EventName: "Intro {}", Timezone: "UTC", Weekdays: []time.Weekday{time.Friday}}
			return nil
		})
		require.NoError(t, err)
		require.Equal(t, "cat-2", *g.SchedulerCategoryID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("fn error rolls back", func(t *testing.T) {
		repo, mock := newTestRepo(t)
		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO guilds`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`FOR UPDATE`).WithArgs("g1").WillReturnRows(existing())
		mock.ExpectRollback()

		boom := errors.New("boom")
		_, err := repo.Update(ctx, "g1", func(g *domain.Guild) error { return boom })
		require.ErrorIs(t, err, boom)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("update error rolls back", func(t *testing.T) {
		repo, mock := newTestRepo(t)
		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO guilds`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`FOR UPDATE`).WithArgs("g1").WillReturnRows(existing())
		mock.ExpectExec(`UPDATE guilds`).WillReturnError(sql.ErrConnDone)
		mock.ExpectRollback()

		_, err := repo.Update(ctx, "g1", func(g *domain.Guild) error {
			g.CategoryID = nil
			return nil
		})
		require.ErrorIs(t, err, sql.ErrConnDone)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("begin error", func(t *testing.T) {
		repo, mock := newTestRepo(t)
		mock.ExpectBegin().WillReturnError(sql.ErrConnDone)

		_, err := repo.Update(ctx, "g1", func(g *domain.Guild) error { return nil })
		require.Error(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMigrate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`(?s)CREATE TABLE IF NOT EXISTS guilds.*ADD COLUMN IF NOT EXISTS welcome_channel_id`).WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, Migrate(context.Background(), db))

	mock.ExpectExec(`CREATE TABLE`).WillReturnError(sql.ErrConnDone)
	require.ErrorIs(t, Migrate(context.Background(), db), sql.ErrConnDone)
	require.NoError(t, mock.ExpectationsWereMet())
}
