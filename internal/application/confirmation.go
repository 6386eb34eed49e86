package application

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/velmik/intake/internal/domain"
	"github.com/velmik/intake/internal/ports"
)

// ConfirmationService drives the receipt handshake for finalized
// transactions: pending moves to exactly one of confirmed or
// problem-reported, and only the attributed operator may move it.
// Administrators are notified after the transition has committed and the
// ledger lock has been released; a notification failure never rolls the
// transition back.
type ConfirmationService struct {
	ledger    *LedgerService
	messenger ports.Messenger
	logger    *zap.Logger
}

func NewConfirmationService(ledger *LedgerService, messenger ports.Messenger, logger *zap.Logger) *ConfirmationService {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ConfirmationService{ledger: ledger, messenger: messenger, logger: logger}
}

// Confirm marks the transaction's receipt as confirmed by the attributed
// operator.
func (s *ConfirmationService) Confirm(ctx context.Context, id domain.TransactionID, actor domain.Identity) (domain.Transaction, error) {
	return s.resolve(ctx, id, actor, domain.ReceiptConfirmed)
}

// ReportProblem marks the transaction's receipt as problem-reported by the
// attributed operator.
func (s *ConfirmationService) ReportProblem(ctx context.Context, id domain.TransactionID, actor domain.Identity) (domain.Transaction, error) {
	return s.resolve(ctx, id, actor, domain.ReceiptProblem)
}

func (s *ConfirmationService) resolve(ctx context.Context, id domain.TransactionID, actor domain.Identity, state domain.ReceiptState) (domain.Transaction, error) {
	tx, err := s.ledger.resolveReceipt(ctx, id, actor, state)
	if err != nil {
		return tx, err
	}

	notice := fmt.Sprintf("transaction #%d by @%s: receipt %s", tx.ID, tx.Operator, tx.Receipt)
	if err := s.messenger.NotifyAdmins(ctx, notice); err != nil {
		s.logger.Warn("notify administrators",
			zap.Int64("transaction_id", int64(tx.ID)),
			zap.Error(err))
	}

	return tx, nil
}
