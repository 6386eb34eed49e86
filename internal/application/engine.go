package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/velmik/intake/internal/domain"
	"github.com/velmik/intake/internal/ports"
)

// InboundMessage is one text event from the transport. The core consumes
// only the sender and the text; the conversation id is carried through
// unmodified as the reply target.
type InboundMessage struct {
	Sender       domain.Identity
	Conversation domain.ConversationID
	Text         string
	ReceivedAt   time.Time
}

// Engine reconstructs structured records from fragments spread over
// independent messages. Each inbound message updates the sender's pending
// record; capturing an email triggers the completion check, and a complete
// record is finalized into the ledger and handed to the confirmation
// workflow. All outbound messaging happens after the mutations have
// committed.
type Engine struct {
	pending   *PendingStore
	ledger    *LedgerService
	resolver  *AgentResolver
	messenger ports.Messenger
	logger    *zap.Logger
}

func NewEngine(pending *PendingStore, ledger *LedgerService, resolver *AgentResolver, messenger ports.Messenger, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Engine{
		pending:   pending,
		ledger:    ledger,
		resolver:  resolver,
		messenger: messenger,
		logger:    logger,
	}
}

// HandleMessage processes one inbound text event. A message carrying no
// recognized field is ignored. A *domain.MissingFieldsError return means the
// completion check ran and found required fields absent; the sender has
// already been told which ones, and the record stays pending.
func (e *Engine) HandleMessage(ctx context.Context, msg InboundMessage) (*domain.Transaction, error) {
	fields := domain.Extract(msg.Text)
	if fields.Empty() {
		return nil, nil
	}

	record := e.pending.Upsert(msg.Sender, fields)
	e.logger.Debug("pending record updated",
		zap.String("sender", string(msg.Sender)),
		zap.Bool("has_phone", record.Phone != ""),
		zap.Bool("has_amount", record.Amount != 0),
		zap.Bool("has_bank", record.Bank != ""),
		zap.Bool("has_email", record.Email != ""))

	// Completion runs precisely when a new email value is captured.
	if fields.Email == nil {
		return nil, nil
	}

	if missing := record.MissingFields(); len(missing) > 0 {
		missingErr := &domain.MissingFieldsError{Fields: missing}
		if err := e.messenger.Reply(ctx, msg.Conversation, missingFieldsReply(missing)); err != nil {
			e.logger.Warn("reply missing fields", zap.Error(err))
		}
		return nil, missingErr
	}

	operator, err := e.resolver.Resolve(ctx, msg.Sender)
	if err != nil && !errors.Is(err, domain.ErrNoOperatorsAvailable) {
		// The record stays pending; re-sending the email retries
		// finalization once the directory recovers.
		return nil, fmt.Errorf("resolve operator: %w", err)
	}

	// The ledger commit survives a persist failure, so the record is
	// consumed on both branches below; the sender's next fragment starts a
	// fresh one.
	tx, err := e.ledger.RecordTransaction(ctx, record, operator)
	e.pending.Clear(msg.Sender)
	if err != nil {
		return &tx, fmt.Errorf("record transaction: %w", err)
	}

	session, active := e.ledger.ActiveSession()
	if err := e.messenger.Reply(ctx, msg.Conversation, transactionReply(tx, session, active)); err != nil {
		e.logger.Warn("reply transaction summary", zap.Error(err))
	}

	if operator == domain.Unassigned {
		if err := e.messenger.NotifyAdmins(ctx, unassignedNotice(tx)); err != nil {
			e.logger.Warn("notify administrators", zap.Error(err))
		}
	} else if err := e.messenger.NotifyOperator(ctx, operator, tx); err != nil {
		e.logger.Warn("notify operator",
			zap.String("operator", string(operator)),
			zap.Error(err))
	}

	return &tx, nil
}

// SweepExpired purges pending records past their TTL. It is safe to call
// from a background ticker; the store applies the same locking as Upsert.
func (e *Engine) SweepExpired() []domain.Identity {
	return e.pending.EvictExpired()
}

func missingFieldsReply(missing []domain.FieldKind) string {
	hints := map[domain.FieldKind]string{
		domain.FieldPhone:  "phone (+7XXXXXXXXXX)",
		domain.FieldAmount: "amount (e.g. 500!)",
		domain.FieldBank:   "bank tag",
	}

	parts := make([]string, 0, len(missing))
	for _, field := range missing {
		parts = append(parts, hints[field])
	}
	return "missing required fields: " + strings.Join(parts, ", ")
}

func transactionReply(tx domain.Transaction, session domain.Session, active bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "transaction #%d recorded\n", tx.ID)
	fmt.Fprintf(&b, "phone: %s\namount: %d\nbank: %s\nemail: %s\noperator: @%s",
		tx.Phone, tx.Amount, tx.Bank, tx.Email, tx.Operator)
	if active {
		fmt.Fprintf(&b, "\nsession: %d/%d (%d%%)", session.Current, session.Target, session.Progress())
	}
	return b.String()
}

func unassignedNotice(tx domain.Transaction) string {
	return fmt.Sprintf("warning: transaction #%d recorded without an operator", tx.ID)
}
