package domain

import "time"

type TransactionID int64

type ReceiptState string

const (
	ReceiptPending   ReceiptState = "pending"
	ReceiptConfirmed ReceiptState = "confirmed"
	ReceiptProblem   ReceiptState = "problem_reported"
)

func (s ReceiptState) Terminal() bool {
	return s == ReceiptConfirmed || s == ReceiptProblem
}

// Transaction is a finalized operation record. It is immutable once recorded
// except for its receipt state, which moves from pending to exactly one
// terminal state.
type Transaction struct {
	ID        TransactionID
	Phone     string
	Amount    int64
	Bank      BankTag
	Email     string
	Operator  Identity
	CreatedAt time.Time
	Receipt   ReceiptState
}

// OperatorAggregate is the running per-operator total. Transaction ids are
// kept in finalization order.
type OperatorAggregate struct {
	Operator     Identity
	TotalAmount  int64
	Transactions []TransactionID
}
