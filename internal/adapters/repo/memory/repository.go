package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/velmik/intake/internal/domain"
	"github.com/velmik/intake/internal/ports"
)

var (
	_ ports.TransactionRepository = (*TransactionRepository)(nil)
	_ ports.SessionRepository     = (*SessionRepository)(nil)
)

// TransactionRepository is a memory-only persistence sink, used when no
// durable store is configured and throughout the tests.
type TransactionRepository struct {
	mu   sync.RWMutex
	rows map[domain.TransactionID]domain.Transaction
}

func NewTransactionRepository() *TransactionRepository {
	return &TransactionRepository{rows: make(map[domain.TransactionID]domain.Transaction)}
}

func (r *TransactionRepository) Save(ctx context.Context, tx domain.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.rows[tx.ID] = tx
	return nil
}

func (r *TransactionRepository) List(ctx context.Context) ([]domain.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	rows := make([]domain.Transaction, 0, len(r.rows))
	for _, tx := range r.rows {
		rows = append(rows, tx)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })

	return rows, nil
}

type SessionRepository struct {
	mu   sync.RWMutex
	rows map[domain.SessionID]domain.Session
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{rows: make(map[domain.SessionID]domain.Session)}
}

func (r *SessionRepository) Save(ctx context.Context, session domain.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.rows[session.ID] = session
	return nil
}

func (r *SessionRepository) List(ctx context.Context) ([]domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	rows := make([]domain.Session, 0, len(r.rows))
	for _, session := range r.rows {
		rows = append(rows, session)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })

	return rows, nil
}
