package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inkwell-systems/promptsmith/internal/journal"
)

// PostgresStore persists records in Postgres. Queryable fields get columns;
// the full record travels in a jsonb doc so nested ratings and history
// round-trip exactly as the file store's JSON does.
type PostgresStore struct {
	pool *pgxpool.Pool
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS prompts (
	id          text PRIMARY KEY,
	user_id     text NOT NULL,
	prompt_text text NOT NULL,
	description text NOT NULL DEFAULT '',
	tags        text[] NOT NULL DEFAULT '{}',
	is_template boolean NOT NULL DEFAULT false,
	created_at  timestamptz NOT NULL,
	updated_at  timestamptz NOT NULL,
	doc         jsonb NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_prompts_user_created ON prompts (user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS users (
	user_id    text PRIMARY KEY,
	created_at timestamptz NOT NULL,
	doc        jsonb NOT NULL
);
`

// NewPostgresStore connects, pings, and bootstraps the schema.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, schemaDDL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) SavePrompt(ctx context.Context, p *journal.Prompt) (*journal.Prompt, error) {
	p.UpdatedAt = time.Now().UTC()

	doc, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal prompt: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO prompts (id, user_id, prompt_text, description, tags, is_template, created_at, updated_at, doc)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			prompt_text = EXCLUDED.prompt_text,
			description = EXCLUDED.description,
			tags = EXCLUDED.tags,
			is_template = EXCLUDED.is_template,
			updated_at = EXCLUDED.updated_at,
			doc = EXCLUDED.doc`,
		p.ID, p.UserID, p.PromptText, p.Description, p.Tags, p.IsTemplate, p.CreatedAt, p.UpdatedAt, doc,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert prompt: %w", err)
	}
	return p, nil
}

func scanPromptDoc(doc []byte) (*journal.Prompt, error) {
	var p journal.Prompt
	if err := json.Unmarshal(doc, &p); err != nil {
		return nil, fmt.Errorf("unmarshal prompt doc: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) GetPrompt(ctx context.Context, id string) (*journal.Prompt, error) {
	var doc []byte
	err := s.pool.QueryRow(ctx, `SELECT doc FROM prompts WHERE id = $1`, id).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get prompt: %w", err)
	}
	return scanPromptDoc(doc)
}

func (s *PostgresStore) collectPrompts(ctx context.Context, query string, args ...any) ([]journal.Prompt, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query prompts: %w", err)
	}
	defer rows.Close()

	var prompts []journal.Prompt
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan prompt: %w", err)
		}
		p, err := scanPromptDoc(doc)
		if err != nil {
			return nil, err
		}
		prompts = append(prompts, *p)
	}
	return prompts, rows.Err()
}

func (s *PostgresStore) GetUserPrompts(ctx context.Context, userID string) ([]journal.Prompt, error) {
	return s.collectPrompts(ctx,
		`SELECT doc FROM prompts WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (s *PostgresStore) SearchPrompts(ctx context.Context, userID, query string, tags []string) ([]journal.Prompt, error) {
	sql := `SELECT doc FROM prompts WHERE user_id = $1`
	args := []any{userID}

	if query != "" {
		args = append(args, "%"+strings.ToLower(query)+"%")
		sql += fmt.Sprintf(` AND (prompt_text ILIKE $%d OR description ILIKE $%d)`, len(args), len(args))
	}
	if len(tags) > 0 {
		args = append(args, tags)
		sql += fmt.Sprintf(` AND tags && $%d`, len(args))
	}
	sql += ` ORDER BY created_at DESC`

	return s.collectPrompts(ctx, sql, args...)
}

func (s *PostgresStore) GetTemplates(ctx context.Context, userID string) ([]journal.Prompt, error) {
	return s.collectPrompts(ctx,
		`SELECT doc FROM prompts WHERE user_id = $1 AND is_template ORDER BY created_at DESC`, userID)
}

func (s *PostgresStore) DeletePrompt(ctx context.Context, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM prompts WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete prompt: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) GetOrCreateUser(ctx context.Context, userID, username string) (*journal.User, error) {
	var doc []byte
	err := s.pool.QueryRow(ctx, `SELECT doc FROM users WHERE user_id = $1`, userID).Scan(&doc)
	if err == nil {
		var u journal.User
		if err := json.Unmarshal(doc, &u); err != nil {
			return nil, fmt.Errorf("unmarshal user doc: %w", err)
		}
		return &u, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get user: %w", err)
	}

	return s.SaveUser(ctx, journal.NewUser(userID, username))
}

func (s *PostgresStore) SaveUser(ctx context.Context, u *journal.User) (*journal.User, error) {
	u.LastActiveAt = time.Now().UTC()

	doc, err := json.Marshal(u)
	if err != nil {
		return nil, fmt.Errorf("marshal user: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO users (user_id, created_at, doc)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET doc = EXCLUDED.doc`,
		u.UserID, u.CreatedAt, doc,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return u, nil
}
