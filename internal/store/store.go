// Package store is the persistence collaborator: conversation history,
// saved projects, user preferences and per-stage pipeline metrics.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/appforge/ai-engine/internal/database"
	"github.com/appforge/ai-engine/internal/models"
)

// ErrNotFound is returned when a keyed lookup has no row
var ErrNotFound = errors.New("store: not found")

// Message is one turn of a conversation
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Project is a saved app design owned by a user
type Project struct {
	ID        uuid.UUID                  `json:"id"`
	UserID    string                     `json:"user_id"`
	Name      string                     `json:"name"`
	AppType   string                     `json:"app_type"`
	Design    *models.ArchitectureDesign `json:"design,omitempty"`
	CreatedAt time.Time                  `json:"created_at"`
	UpdatedAt time.Time                  `json:"updated_at"`
}

// StageMetric is one per-stage timing record
type StageMetric struct {
	TaskID     string
	Stage      string
	DurationMS int64
	Success    bool
	Error      string
}

// Store persists pipeline state in Postgres
type Store struct {
	db     *database.Postgres
	logger *zap.Logger
}

// New creates a store over the given database
func New(db *database.Postgres, logger *zap.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// History returns the most recent conversation turns for a (user, session)
// pair, oldest first
func (s *Store) History(ctx context.Context, userID, sessionID string, limit int) ([]Message, error) {
	query := `
		SELECT role, content, created_at
		FROM (
			SELECT role, content, created_at
			FROM conversations
			WHERE user_id = $1 AND session_id = $2
			ORDER BY created_at DESC
			LIMIT $3
		) recent
		ORDER BY created_at ASC
	`

	rows, err := s.db.Pool().Query(ctx, query, userID, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// AppendMessage adds one conversation turn
func (s *Store) AppendMessage(ctx context.Context, userID, sessionID, role, content string) error {
	query := `
		INSERT INTO conversations (user_id, session_id, role, content)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := s.db.Pool().Exec(ctx, query, userID, sessionID, role, content); err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

// Project loads a saved project by id
func (s *Store) Project(ctx context.Context, id uuid.UUID) (*Project, error) {
	query := `
		SELECT id, user_id, name, app_type, design, created_at, updated_at
		FROM projects
		WHERE id = $1
	`

	var p Project
	var designJSON []byte
	err := s.db.Pool().QueryRow(ctx, query, id).Scan(
		&p.ID, &p.UserID, &p.Name, &p.AppType, &designJSON, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load project: %w", err)
	}

	if len(designJSON) > 0 {
		var design models.ArchitectureDesign
		if err := json.Unmarshal(designJSON, &design); err != nil {
			return nil, fmt.Errorf("decode project design: %w", err)
		}
		p.Design = &design
	}
	return &p, nil
}

// SaveProject inserts or updates a project
func (s *Store) SaveProject(ctx context.Context, p *Project) error {
	designJSON, err := json.Marshal(p.Design)
	if err != nil {
		return fmt.Errorf("encode project design: %w", err)
	}

	query := `
		INSERT INTO projects (id, user_id, name, app_type, design, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    app_type = EXCLUDED.app_type,
		    design = EXCLUDED.design,
		    updated_at = now()
	`
	if _, err := s.db.Pool().Exec(ctx, query, p.ID, p.UserID, p.Name, p.AppType, designJSON); err != nil {
		return fmt.Errorf("save project: %w", err)
	}
	return nil
}

// LatestProject returns the user's most recently updated project, or
// ErrNotFound when they have none
func (s *Store) LatestProject(ctx context.Context, userID string) (*Project, error) {
	query := `
		SELECT id
		FROM projects
		WHERE user_id = $1
		ORDER BY updated_at DESC
		LIMIT 1
	`
	var id uuid.UUID
	err := s.db.Pool().QueryRow(ctx, query, userID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find latest project: %w", err)
	}
	return s.Project(ctx, id)
}

// Preferences loads a user's preference map; missing users get an empty map
func (s *Store) Preferences(ctx context.Context, userID string) (map[string]any, error) {
	query := `SELECT preferences FROM user_preferences WHERE user_id = $1`

	var raw []byte
	err := s.db.Pool().QueryRow(ctx, query, userID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load preferences: %w", err)
	}

	prefs := map[string]any{}
	if err := json.Unmarshal(raw, &prefs); err != nil {
		return nil, fmt.Errorf("decode preferences: %w", err)
	}
	return prefs, nil
}

// SavePreferences upserts a user's preference map
func (s *Store) SavePreferences(ctx context.Context, userID string, prefs map[string]any) error {
	raw, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}

	query := `
		INSERT INTO user_preferences (user_id, preferences, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (user_id) DO UPDATE
		SET preferences = EXCLUDED.preferences, updated_at = now()
	`
	if _, err := s.db.Pool().Exec(ctx, query, userID, raw); err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	return nil
}

// AppendStageMetric records one stage timing. Metric writes are advisory;
// callers log failures instead of aborting the task.
func (s *Store) AppendStageMetric(ctx context.Context, m StageMetric) error {
	query := `
		INSERT INTO stage_metrics (task_id, stage, duration_ms, success, error)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''))
	`
	if _, err := s.db.Pool().Exec(ctx, query, m.TaskID, m.Stage, m.DurationMS, m.Success, m.Error); err != nil {
		return fmt.Errorf("append stage metric: %w", err)
	}
	return nil
}
