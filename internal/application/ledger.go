package application

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/velmik/intake/internal/domain"
	"github.com/velmik/intake/internal/ports"
)

// LedgerService owns the transaction log, per-operator aggregates and the
// single active session. It is process-wide shared state: every mutation is
// serialized behind one mutex, and writes go through to the repositories so
// a restarted process can Restore the same state.
type LedgerService struct {
	mu           sync.Mutex
	transactions ports.TransactionRepository
	sessions     ports.SessionRepository
	clock        ports.Clock
	logger       *zap.Logger

	log        []domain.Transaction
	indexByID  map[domain.TransactionID]int
	aggregates map[domain.Identity]*domain.OperatorAggregate
	operators  []domain.Identity
	current    *domain.Session

	nextTransactionID domain.TransactionID
	nextSessionID     domain.SessionID
}

func NewLedgerService(transactions ports.TransactionRepository, sessions ports.SessionRepository, clock ports.Clock, logger *zap.Logger) *LedgerService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &LedgerService{
		transactions:      transactions,
		sessions:          sessions,
		clock:             clock,
		logger:            logger,
		indexByID:         make(map[domain.TransactionID]int),
		aggregates:        make(map[domain.Identity]*domain.OperatorAggregate),
		nextTransactionID: 1,
		nextSessionID:     1,
	}
}

// Restore rebuilds in-memory state from the repositories. The last active
// session row, if any, becomes the current session.
func (s *LedgerService) Restore(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	transactions, err := s.transactions.List(ctx)
	if err != nil {
		return fmt.Errorf("list transactions: %w", err)
	}
	sessions, err := s.sessions.List(ctx)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}

	s.log = transactions
	s.indexByID = make(map[domain.TransactionID]int, len(transactions))
	s.aggregates = make(map[domain.Identity]*domain.OperatorAggregate)
	s.operators = nil
	for i, tx := range transactions {
		s.indexByID[tx.ID] = i
		s.aggregate(tx)
		if tx.ID >= s.nextTransactionID {
			s.nextTransactionID = tx.ID + 1
		}
	}

	s.current = nil
	for _, session := range sessions {
		if session.ID >= s.nextSessionID {
			s.nextSessionID = session.ID + 1
		}
		if session.Active {
			restored := session
			s.current = &restored
		}
	}

	s.logger.Info("ledger restored",
		zap.Int("transactions", len(transactions)),
		zap.Int("sessions", len(sessions)),
		zap.Bool("active_session", s.current != nil))

	return nil
}

// StartSession deactivates any active session and opens a new one with the
// given target. Fails with domain.ErrInvalidTarget when target is not
// positive.
func (s *LedgerService) StartSession(ctx context.Context, target int64) (domain.Session, error) {
	if target <= 0 {
		return domain.Session{}, domain.ErrInvalidTarget
	}

	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil && s.current.Active {
		s.current.Active = false
		s.current.EndedAt = now
		if err := s.sessions.Save(ctx, *s.current); err != nil {
			return domain.Session{}, fmt.Errorf("save deactivated session: %w", err)
		}
		s.logger.Info("session deactivated by new session",
			zap.Int64("session_id", int64(s.current.ID)),
			zap.Int64("collected", s.current.Current))
	}

	session := domain.Session{
		ID:        s.nextSessionID,
		Target:    target,
		Active:    true,
		StartedAt: now,
	}
	s.nextSessionID++
	s.current = &session

	if err := s.sessions.Save(ctx, session); err != nil {
		return session, fmt.Errorf("save session: %w", err)
	}

	s.logger.Info("session started",
		zap.Int64("session_id", int64(session.ID)),
		zap.Int64("target", target))

	return session, nil
}

// StopSession deactivates the active session and returns its collected
// amount. Fails with domain.ErrNoActiveSession when none is active.
func (s *LedgerService) StopSession(ctx context.Context) (int64, error) {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil || !s.current.Active {
		return 0, domain.ErrNoActiveSession
	}

	s.current.Active = false
	s.current.EndedAt = now
	final := s.current.Current

	if err := s.sessions.Save(ctx, *s.current); err != nil {
		return final, fmt.Errorf("save stopped session: %w", err)
	}

	s.logger.Info("session stopped",
		zap.Int64("session_id", int64(s.current.ID)),
		zap.Int64("collected", final))

	return final, nil
}

// RecordTransaction appends a finalized record to the transaction log with a
// monotonic id, updates the operator aggregate and, when a session is
// active, adds the amount to its running total. The transaction is committed
// to the in-memory log before persistence; a persistence failure is
// surfaced but does not roll the commit back.
func (s *LedgerService) RecordTransaction(ctx context.Context, record domain.PendingRecord, operator domain.Identity) (domain.Transaction, error) {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := domain.Transaction{
		ID:        s.nextTransactionID,
		Phone:     record.Phone,
		Amount:    record.Amount,
		Bank:      record.Bank,
		Email:     record.Email,
		Operator:  operator,
		CreatedAt: now,
		Receipt:   domain.ReceiptPending,
	}
	s.nextTransactionID++

	s.indexByID[tx.ID] = len(s.log)
	s.log = append(s.log, tx)
	s.aggregate(tx)

	if s.current != nil && s.current.Active {
		s.current.Current += tx.Amount
		if err := s.sessions.Save(ctx, *s.current); err != nil {
			return tx, fmt.Errorf("save session total: %w", err)
		}
	}

	if err := s.transactions.Save(ctx, tx); err != nil {
		return tx, fmt.Errorf("save transaction: %w", err)
	}

	s.logger.Info("transaction recorded",
		zap.Int64("transaction_id", int64(tx.ID)),
		zap.Int64("amount", tx.Amount),
		zap.String("bank", string(tx.Bank)),
		zap.String("operator", string(operator)))

	return tx, nil
}

// Progress reports the active session's completion percentage; 0 when no
// session is active.
func (s *LedgerService) Progress() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil || !s.current.Active {
		return 0
	}
	return s.current.Progress()
}

// ActiveSession returns a copy of the active session, if any.
func (s *LedgerService) ActiveSession() (domain.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil || !s.current.Active {
		return domain.Session{}, false
	}
	return *s.current, true
}

// RecentTransactions returns the last n transactions in finalization order.
func (s *LedgerService) RecentTransactions(n int) []domain.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n <= 0 || len(s.log) == 0 {
		return nil
	}
	if n > len(s.log) {
		n = len(s.log)
	}

	recent := make([]domain.Transaction, n)
	copy(recent, s.log[len(s.log)-n:])
	return recent
}

// OperatorReport returns the aggregate for one operator.
func (s *LedgerService) OperatorReport(operator domain.Identity) (domain.OperatorAggregate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	aggregate, ok := s.aggregates[operator]
	if !ok {
		return domain.OperatorAggregate{}, false
	}
	return copyAggregate(*aggregate), true
}

// Report snapshots the ledger for rendering: the active session, the last
// recentN transactions and the per-operator aggregates in first-attribution
// order. The whole snapshot is taken under one critical section so the
// session block and the totals always agree.
func (s *LedgerService) Report(recentN int) Report {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := Report{}
	for _, tx := range s.log {
		report.Total += tx.Amount
	}
	if s.current != nil && s.current.Active {
		session := *s.current
		report.Session = &session
		report.Progress = session.Progress()
	}

	if recentN > len(s.log) {
		recentN = len(s.log)
	}
	if recentN > 0 {
		report.Recent = make([]domain.Transaction, recentN)
		copy(report.Recent, s.log[len(s.log)-recentN:])
	}

	report.Operators = make([]domain.OperatorAggregate, 0, len(s.operators))
	for _, operator := range s.operators {
		report.Operators = append(report.Operators, copyAggregate(*s.aggregates[operator]))
	}

	return report
}

func (s *LedgerService) resolveReceipt(ctx context.Context, id domain.TransactionID, actor domain.Identity, state domain.ReceiptState) (domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.indexByID[id]
	if !ok {
		return domain.Transaction{}, domain.ErrTransactionNotFound
	}

	tx := &s.log[idx]
	if actor != tx.Operator {
		return *tx, domain.ErrUnauthorized
	}
	if tx.Receipt.Terminal() {
		return *tx, domain.ErrAlreadyResolved
	}

	tx.Receipt = state
	if err := s.transactions.Save(ctx, *tx); err != nil {
		return *tx, fmt.Errorf("save receipt state: %w", err)
	}

	return *tx, nil
}

func (s *LedgerService) aggregate(tx domain.Transaction) {
	aggregate, ok := s.aggregates[tx.Operator]
	if !ok {
		aggregate = &domain.OperatorAggregate{Operator: tx.Operator}
		s.aggregates[tx.Operator] = aggregate
		s.operators = append(s.operators, tx.Operator)
	}
	aggregate.TotalAmount += tx.Amount
	aggregate.Transactions = append(aggregate.Transactions, tx.ID)
}

func copyAggregate(aggregate domain.OperatorAggregate) domain.OperatorAggregate {
	aggregate.Transactions = append([]domain.TransactionID(nil), aggregate.Transactions...)
	return aggregate
}
