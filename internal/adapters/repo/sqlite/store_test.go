package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velmik/intake/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "intake.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	_, err := Open("  ")
	require.Error(t, err)
}

func TestTransactionRoundTripAndReceiptUpdate(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	repo := store.Transactions()
	ctx := context.Background()

	tx := domain.Transaction{
		ID:        1,
		Phone:     "+79991234567",
		Amount:    500,
		Bank:      domain.BankSber,
		Email:     "sir+999@outluk.ru",
		Operator:  "worker",
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Receipt:   domain.ReceiptPending,
	}
	require.NoError(t, repo.Save(ctx, tx))

	tx.Receipt = domain.ReceiptConfirmed
	require.NoError(t, repo.Save(ctx, tx))

	listed, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, tx, listed[0])
}

func TestTransactionsListedInIDOrder(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	repo := store.Transactions()
	ctx := context.Background()

	for _, id := range []domain.TransactionID{3, 1, 2} {
		require.NoError(t, repo.Save(ctx, domain.Transaction{
			ID:       id,
			Phone:    "+79991234567",
			Amount:   100,
			Bank:     domain.BankTBank,
			Email:    "sir+1@outluk.ru",
			Operator: "worker",
			Receipt:  domain.ReceiptPending,
		}))
	}

	listed, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, domain.TransactionID(1), listed[0].ID)
	assert.Equal(t, domain.TransactionID(3), listed[2].ID)
}

func TestSessionRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	repo := store.Sessions()
	ctx := context.Background()

	session := domain.Session{
		ID:        1,
		Target:    1000,
		Current:   0,
		Active:    true,
		StartedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Save(ctx, session))

	session.Current = 500
	session.Active = false
	session.EndedAt = session.StartedAt.Add(time.Hour)
	require.NoError(t, repo.Save(ctx, session))

	listed, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, session, listed[0])
}
