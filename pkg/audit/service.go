package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fraatlas/backend/pkg/database"
	"github.com/fraatlas/backend/pkg/models"
)

// Service handles audit logging into the logs table
type Service struct {
	db *sql.DB
}

// NewService creates a new audit service
func NewService(client *database.Client) *Service {
	return &Service{
		db: client.DB,
	}
}

// Log creates a new audit log entry
func (s *Service) Log(ctx context.Context, entry models.AuditEntry) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var metadata any
	if entry.Metadata != nil {
		b, err := json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode audit metadata: %w", err)
		}
		metadata = string(b)
	}

	var userID any
	if entry.UserID != "" {
		userID = entry.UserID
	}

	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO logs (user_id, action, metadata, created_at) VALUES ($1, $2, $3, $4)`,
		userID, entry.Action, metadata, createdAt)
	if err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

// LogGenerate records a single-claim recommendation run
func (s *Service) LogGenerate(ctx context.Context, userID, claimID string, count int) error {
	return s.Log(ctx, models.AuditEntry{
		UserID: userID,
		Action: models.ActionGenerateRecommendations,
		Metadata: map[string]interface{}{
			"claim_id":              claimID,
			"recommendations_count": count,
		},
	})
}

// Recent returns the latest entries for an action, newest first
func (s *Service) Recent(ctx context.Context, action string, limit int) ([]models.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, action, metadata, created_at FROM logs
		WHERE action = $1 ORDER BY created_at DESC, id DESC LIMIT $2`,
		action, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}
	defer rows.Close()

	entries := []models.AuditEntry{}
	for rows.Next() {
		var (
			e        models.AuditEntry
			userID   sql.NullString
			metadata []byte
		)
		if err := rows.Scan(&e.ID, &userID, &e.Action, &metadata, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		e.UserID = userID.String
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
				return nil, fmt.Errorf("failed to decode audit metadata: %w", err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
