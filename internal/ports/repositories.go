package ports

import (
	"context"

	"github.com/velmik/intake/internal/domain"
)

// TransactionRepository is the persistence sink for finalized transactions.
// Save is an upsert keyed by transaction id so receipt-state updates re-save
// the same row. List returns transactions in id order.
type TransactionRepository interface {
	Save(ctx context.Context, tx domain.Transaction) error
	List(ctx context.Context) ([]domain.Transaction, error)
}

// SessionRepository persists collection sessions. List returns sessions in
// id order.
type SessionRepository interface {
	Save(ctx context.Context, session domain.Session) error
	List(ctx context.Context) ([]domain.Session, error)
}
