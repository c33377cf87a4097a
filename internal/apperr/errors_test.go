package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"sentinel", ErrNoConfirmedItems, KindValidation},
		{"wrapped sentinel", fmt.Errorf("%w: item abc", ErrAllocationMismatch), KindValidation},
		{"authorization", ErrNotReceiver, KindAuthorization},
		{"conflict", fmt.Errorf("compute: %w", ErrSettlementExists), KindConflict},
		{"not found", fmt.Errorf("%w: s1", ErrSettlementNotFound), KindNotFound},
		{"persistence", Persistence("insert settlement", errors.New("disk full")), KindPersistence},
		{"unclassified", errors.New("boom"), KindPersistence},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestRetrySafe(t *testing.T) {
	assert.True(t, RetrySafe(ErrAlreadyConfirmed))
	assert.True(t, RetrySafe(ErrNotGroupAdmin))
	assert.True(t, RetrySafe(fmt.Errorf("%w: x", ErrUnbalanced)))
	assert.False(t, RetrySafe(Persistence("commit transaction", errors.New("locked"))))
}

func TestPersistenceMessage(t *testing.T) {
	cause := errors.New("database is locked")
	err := Persistence("commit transaction", cause)

	assert.Equal(t, "failed to commit transaction: database is locked", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsPersistence(err))
}

func TestInvalid(t *testing.T) {
	err := Invalid("quantity", "must be at least %d", 1)

	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.True(t, IsValidation(err))
	assert.Contains(t, err.Error(), "quantity: must be at least 1")
}
