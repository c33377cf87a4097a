package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mmynk/tabsettle/internal/apperr"
	"github.com/mmynk/tabsettle/internal/models"
)

// CreateSession persists a new OPEN session.
func (s *PostgresStore) CreateSession(ctx context.Context, session *models.Session) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	session.UpdatedAt = session.CreatedAt
	session.Status = models.SessionOpen

	_, err := s.pool.Exec(ctx,
		`INSERT INTO sessions (id, group_id, created_by, title, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		session.ID, session.GroupID, session.CreatedBy, session.Title, session.Status,
		session.CreatedAt, session.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return apperr.ErrSessionAlreadyOpen
	}
	if err != nil {
		return apperr.Persistence("insert session", err)
	}
	return nil
}

// GetSession retrieves a session by ID.
func (s *PostgresStore) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	return getSession(ctx, s.pool, sessionID)
}

func getSession(ctx context.Context, q querier, sessionID string) (*models.Session, error) {
	session := &models.Session{}
	err := q.QueryRow(ctx,
		`SELECT id, group_id, created_by, title, status, created_at, updated_at
		 FROM sessions WHERE id = $1`,
		sessionID,
	).Scan(&session.ID, &session.GroupID, &session.CreatedBy, &session.Title, &session.Status,
		&session.CreatedAt, &session.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.ErrSessionNotFound
	}
	if err != nil {
		return nil, apperr.Persistence("get session", err)
	}
	session.CreatedAt = session.CreatedAt.UTC()
	session.UpdatedAt = session.UpdatedAt.UTC()
	return session, nil
}

// TransitionSession performs a compare-and-set on the session status.
func (s *PostgresStore) TransitionSession(ctx context.Context, sessionID string, from, to models.SessionStatus) error {
	return transitionSession(ctx, s.pool, sessionID, from, to)
}

func transitionSession(ctx context.Context, q querier, sessionID string, from, to models.SessionStatus) error {
	tag, err := q.Exec(ctx,
		"UPDATE sessions SET status = $1, updated_at = now() WHERE id = $2 AND status = $3",
		to, sessionID, from,
	)
	if err != nil {
		return apperr.Persistence("update session status", err)
	}

	if err := expectOneRow(tag, apperr.ErrStatusMismatch); err != nil {
		if _, getErr := getSession(ctx, q, sessionID); getErr != nil {
			return getErr
		}
		return err
	}
	return nil
}
