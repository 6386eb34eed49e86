// Package sqlite provides the durable persistence sink for transactions and
// sessions.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/velmik/intake/internal/domain"
	"github.com/velmik/intake/internal/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS transactions (
	id         INTEGER PRIMARY KEY,
	phone      TEXT    NOT NULL,
	amount     INTEGER NOT NULL,
	bank       TEXT    NOT NULL,
	email      TEXT    NOT NULL,
	operator   TEXT    NOT NULL,
	created_at INTEGER NOT NULL,
	receipt    TEXT    NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
	id         INTEGER PRIMARY KEY,
	target     INTEGER NOT NULL,
	current    INTEGER NOT NULL,
	active     INTEGER NOT NULL,
	started_at INTEGER NOT NULL,
	ended_at   INTEGER NOT NULL
);
`

// Store wraps one SQLite database holding both the transaction log and the
// session history. Timestamps are stored as UTC milliseconds.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	if value.IsZero() {
		return 0
	}
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	if value == 0 {
		return time.Time{}
	}
	return time.UnixMilli(value).UTC()
}

// Open opens (and if needed initializes) the store at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}

	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Transactions returns the transaction repository view of the store.
func (s *Store) Transactions() *TransactionRepository {
	return &TransactionRepository{sqlDB: s.sqlDB}
}

// Sessions returns the session repository view of the store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{sqlDB: s.sqlDB}
}

var (
	_ ports.TransactionRepository = (*TransactionRepository)(nil)
	_ ports.SessionRepository     = (*SessionRepository)(nil)
)

type TransactionRepository struct {
	sqlDB *sql.DB
}

func (r *TransactionRepository) Save(ctx context.Context, tx domain.Transaction) error {
	_, err := r.sqlDB.ExecContext(ctx, `
		INSERT INTO transactions (id, phone, amount, bank, email, operator, created_at, receipt)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET receipt = excluded.receipt`,
		int64(tx.ID), tx.Phone, tx.Amount, string(tx.Bank), tx.Email,
		string(tx.Operator), toMillis(tx.CreatedAt), string(tx.Receipt),
	)
	if err != nil {
		return fmt.Errorf("save transaction: %w", err)
	}
	return nil
}

func (r *TransactionRepository) List(ctx context.Context) ([]domain.Transaction, error) {
	rows, err := r.sqlDB.QueryContext(ctx, `
		SELECT id, phone, amount, bank, email, operator, created_at, receipt
		FROM transactions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		var (
			tx        domain.Transaction
			id        int64
			bank      string
			operator  string
			createdAt int64
			receipt   string
		)
		if err := rows.Scan(&id, &tx.Phone, &tx.Amount, &bank, &tx.Email, &operator, &createdAt, &receipt); err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		tx.ID = domain.TransactionID(id)
		tx.Bank = domain.BankTag(bank)
		tx.Operator = domain.Identity(operator)
		tx.CreatedAt = fromMillis(createdAt)
		tx.Receipt = domain.ReceiptState(receipt)
		transactions = append(transactions, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}

	return transactions, nil
}

type SessionRepository struct {
	sqlDB *sql.DB
}

func (r *SessionRepository) Save(ctx context.Context, session domain.Session) error {
	active := 0
	if session.Active {
		active = 1
	}

	_, err := r.sqlDB.ExecContext(ctx, `
		INSERT INTO sessions (id, target, current, active, started_at, ended_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			current = excluded.current,
			active = excluded.active,
			ended_at = excluded.ended_at`,
		int64(session.ID), session.Target, session.Current, active,
		toMillis(session.StartedAt), toMillis(session.EndedAt),
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *SessionRepository) List(ctx context.Context) ([]domain.Session, error) {
	rows, err := r.sqlDB.QueryContext(ctx, `
		SELECT id, target, current, active, started_at, ended_at
		FROM sessions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		var (
			session   domain.Session
			id        int64
			active    int
			startedAt int64
			endedAt   int64
		)
		if err := rows.Scan(&id, &session.Target, &session.Current, &active, &startedAt, &endedAt); err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		session.ID = domain.SessionID(id)
		session.Active = active == 1
		session.StartedAt = fromMillis(startedAt)
		session.EndedAt = fromMillis(endedAt)
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session rows: %w", err)
	}

	return sessions, nil
}
