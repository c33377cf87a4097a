package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/tabsettle/internal/apperr"
	"github.com/mmynk/tabsettle/internal/models"
)

// CreateSession persists a new OPEN session.
func (s *SQLiteStore) CreateSession(ctx context.Context, session *models.Session) error {
	// Generate ID if not set
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	session.UpdatedAt = session.CreatedAt
	session.Status = models.SessionOpen

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, group_id, created_by, title, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		session.ID, session.GroupID, session.CreatedBy, session.Title, session.Status,
		toMillis(session.CreatedAt), toMillis(session.UpdatedAt),
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
func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	return getSession(ctx, s.db, sessionID)
}

func getSession(ctx context.Context, q queryer, sessionID string) (*models.Session, error) {
	session := &models.Session{}
	var createdAt, updatedAt int64

	err := q.QueryRowContext(ctx,
		`SELECT id, group_id, created_by, title, status, created_at, updated_at
		 FROM sessions WHERE id = ?`,
		sessionID,
	).Scan(&session.ID, &session.GroupID, &session.CreatedBy, &session.Title, &session.Status,
		&createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrSessionNotFound
	}
	if err != nil {
		return nil, apperr.Persistence("get session", err)
	}

	session.CreatedAt = fromMillis(createdAt)
	session.UpdatedAt = fromMillis(updatedAt)
	return session, nil
}

// TransitionSession performs a compare-and-set on the session status.
func (s *SQLiteStore) TransitionSession(ctx context.Context, sessionID string, from, to models.SessionStatus) error {
	return transitionSession(ctx, s.db, sessionID, from, to)
}

func transitionSession(ctx context.Context, q queryer, sessionID string, from, to models.SessionStatus) error {
	res, err := q.ExecContext(ctx,
		"UPDATE sessions SET status = ?, updated_at = ? WHERE id = ? AND status = ?",
		to, toMillis(time.Now()), sessionID, from,
	)
	if err != nil {
		return apperr.Persistence("update session status", err)
	}

	if err := expectOneRow(res, "update session status", apperr.ErrStatusMismatch); err != nil {
		if !errors.Is(err, apperr.ErrStatusMismatch) {
			return err
		}
		// Tell a missing session apart from a status mismatch
		if _, getErr := getSession(ctx, q, sessionID); getErr != nil {
			return getErr
		}
		return err
	}
	return nil
}
