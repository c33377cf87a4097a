package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/mmynk/tabsettle/internal/apperr"
	"github.com/mmynk/tabsettle/internal/models"
)

// UpsertMembership creates or replaces a membership.
func (s *PostgresStore) UpsertMembership(ctx context.Context, m *models.Membership) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO memberships (group_id, user_id, role, active) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (group_id, user_id) DO UPDATE SET role = excluded.role, active = excluded.active`,
		m.GroupID, m.UserID, m.Role, m.Active,
	)
	if err != nil {
		return apperr.Persistence("upsert membership", err)
	}
	return nil
}

// GetMembership retrieves a membership, active or not.
func (s *PostgresStore) GetMembership(ctx context.Context, groupID, userID string) (*models.Membership, error) {
	m := &models.Membership{}
	err := s.pool.QueryRow(ctx,
		"SELECT group_id, user_id, role, active FROM memberships WHERE group_id = $1 AND user_id = $2",
		groupID, userID,
	).Scan(&m.GroupID, &m.UserID, &m.Role, &m.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.ErrMembershipNotFound
	}
	if err != nil {
		return nil, apperr.Persistence("get membership", err)
	}
	return m, nil
}

// ListActiveMemberIDs returns the active roster of a group.
func (s *PostgresStore) ListActiveMemberIDs(ctx context.Context, groupID string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT user_id FROM memberships WHERE group_id = $1 AND active ORDER BY user_id",
		groupID,
	)
	if err != nil {
		return nil, apperr.Persistence("list members", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, apperr.Persistence("scan members", err)
	}
	return ids, nil
}
