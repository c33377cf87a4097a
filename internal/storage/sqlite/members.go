package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/mmynk/tabsettle/internal/apperr"
	"github.com/mmynk/tabsettle/internal/models"
)

// UpsertMembership creates or replaces a membership.
func (s *SQLiteStore) UpsertMembership(ctx context.Context, m *models.Membership) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO memberships (group_id, user_id, role, active) VALUES (?, ?, ?, ?)
		 ON CONFLICT (group_id, user_id) DO UPDATE SET role = excluded.role, active = excluded.active`,
		m.GroupID, m.UserID, m.Role, boolToInt(m.Active),
	)
	if err != nil {
		return apperr.Persistence("upsert membership", err)
	}
	return nil
}

// GetMembership retrieves a membership, active or not.
func (s *SQLiteStore) GetMembership(ctx context.Context, groupID, userID string) (*models.Membership, error) {
	m := &models.Membership{}
	err := s.db.QueryRowContext(ctx,
		"SELECT group_id, user_id, role, active FROM memberships WHERE group_id = ? AND user_id = ?",
		groupID, userID,
	).Scan(&m.GroupID, &m.UserID, &m.Role, &m.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrMembershipNotFound
	}
	if err != nil {
		return nil, apperr.Persistence("get membership", err)
	}
	return m, nil
}

// ListActiveMemberIDs returns the active roster of a group.
func (s *SQLiteStore) ListActiveMemberIDs(ctx context.Context, groupID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT user_id FROM memberships WHERE group_id = ? AND active = 1 ORDER BY user_id",
		groupID,
	)
	if err != nil {
		return nil, apperr.Persistence("list members", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, apperr.Persistence("scan member", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence("iterate members", err)
	}
	return ids, nil
}
