package settlement

import (
	"context"

	"github.com/mmynk/tabsettle/internal/models"
)

//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks

// Store is the persistence the engine needs. storage.Store satisfies it.
type Store interface {
	GetSession(ctx context.Context, sessionID string) (*models.Session, error)
	TransitionSession(ctx context.Context, sessionID string, from, to models.SessionStatus) error

	GetMembership(ctx context.Context, groupID, userID string) (*models.Membership, error)
	ListActiveMemberIDs(ctx context.Context, groupID string) ([]string, error)
	ListActiveItems(ctx context.Context, sessionID string) ([]models.OrderItem, error)

	GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error)
	GetSettlementBySession(ctx context.Context, sessionID string) (*models.Settlement, error)
	SaveSettlement(ctx context.Context, settlement *models.Settlement, entries []models.LedgerEntry) error
	ConfirmTransaction(ctx context.Context, c models.Confirmation) (bool, error)
}
