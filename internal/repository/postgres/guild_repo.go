package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"guildkeeper/internal/domain"
)

const guildColumns = `id, category_id, last_message_id, create_channel, notify_permission_loss,
		welcome_message, welcome_channel_id, notify_missing_welcome_channel,
		scheduler_category_id, scheduler_template, created_at, updated_at`

type guildRepository struct {
	DB  *sql.DB
	now func() time.Time
}

func NewGuildRepository(db *sql.DB) domain.GuildRepository {
	return &guildRepository{DB: db, now: time.Now}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGuild(row rowScanner) (*domain.Guild, error) {
	g := &domain.Guild{}
	var categoryID, lastMessageID, welcomeChannelID, schedulerCategoryID sql.NullString
	var tmpl []byte
	err := row.Scan(&g.ID, &categoryID, &lastMessageID, &g.CreateChannel, &g.NotifyPermissionLoss,
		&g.WelcomeMessage, &welcomeChannelID, &g.NotifyMissingWelcomeChannel, &schedulerCategoryID, &tmpl, &g.CreatedAt, &g.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	g.CategoryID = stringPtr(categoryID)
	g.LastMessageID = stringPtr(lastMessageID)
	g.WelcomeChannelID = stringPtr(welcomeChannelID)
	g.SchedulerCategoryID = stringPtr(schedulerCategoryID)
	if len(tmpl) > 0 {
		g.SchedulerTemplate = &domain.SchedulingTemplate{}
		if err := json.Unmarshal(tmpl, g.SchedulerTemplate); err != nil {
			return nil, fmt.Errorf("decode scheduler template for guild %s: %w", g.ID, err)
		}
	}
	return g, nil
}

func (r *guildRepository) Get(ctx context.Context, id string) (*domain.Guild, error) {
	query := `SELECT ` + guildColumns + ` FROM guilds WHERE id = $1`
	return scanGuild(r.DB.QueryRowContext(ctx, query, id))
}

func (r *guildRepository) GetOrCreate(ctx context.Context, id string) (*domain.Guild, error) {
	if err := insertDefaults(ctx, r.DB, domain.NewGuild(id, r.now().UTC())); err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertDefaults(ctx context.Context, db execer, g *domain.Guild) error {
	query := `
		INSERT INTO guilds (id, create_channel, notify_permission_loss, welcome_message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := db.ExecContext(ctx, query, g.ID, g.CreateChannel, g.NotifyPermissionLoss, g.WelcomeMessage, g.CreatedAt, g.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert guild %s: %w", g.ID, err)
	}
	return nil
}

// Update locks the guild row, applies fn and writes the result back in one transaction.
// Only the row of guild id is locked. If fn fails nothing is written.
func (r *guildRepository) Update(ctx context.Context, id string, fn func(g *domain.Guild) error) (*domain.Guild, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := r.now().UTC()
	if err := insertDefaults(ctx, tx, domain.NewGuild(id, now)); err != nil {
		return nil, err
	}
	g, err := scanGuild(tx.QueryRowContext(ctx, `SELECT `+guildColumns+` FROM guilds WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, err
	}
	if err := fn(g); err != nil {
		return nil, err
	}
	g.ID = id
	g.UpdatedAt = now

	tmpl, err := encodeTemplate(g.SchedulerTemplate)
	if err != nil {
		return nil, err
	}
	query := `
		UPDATE guilds
		SET category_id = $1, last_message_id = $2, create_channel = $3, notify_permission_loss = $4,
			welcome_message = $5, welcome_channel_id = $6, notify_missing_welcome_channel = $7,
			scheduler_category_id = $8, scheduler_template = $9, updated_at = $10
		WHERE id = $11
	`
	_, err = tx.ExecContext(ctx, query,
		nullString(g.CategoryID), nullString(g.LastMessageID), g.CreateChannel, g.NotifyPermissionLoss,
		g.WelcomeMessage, nullString(g.WelcomeChannelID), g.NotifyMissingWelcomeChannel,
		nullString(g.SchedulerCategoryID), tmpl, g.UpdatedAt, id)
	if err != nil {
		return nil, fmt.Errorf("update guild %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit guild %s: %w", id, err)
	}
	return g, nil
}

func encodeTemplate(t *domain.SchedulingTemplate) (any, error) {
	if t == nil {
		return nil, nil
	}
	b, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("encode scheduler template: %w", err)
	}
	return string(b), nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
