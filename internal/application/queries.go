package application

import "github.com/velmik/intake/internal/domain"

// Report is a read-only snapshot of the ledger used for status rendering.
type Report struct {
	Session   *domain.Session
	Progress  int
	Total     int64
	Recent    []domain.Transaction
	Operators []domain.OperatorAggregate
}
