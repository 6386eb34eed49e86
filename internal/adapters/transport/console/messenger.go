package console

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/velmik/intake/internal/domain"
	"github.com/velmik/intake/internal/ports"
)

// Messenger writes every outbound effect as a tagged line on a single
// writer. It stands in for a chat transport when the engine is driven from
// a terminal, and makes the outbound traffic greppable in logs.
type Messenger struct {
	mu  sync.Mutex
	out io.Writer
}

var _ ports.Messenger = (*Messenger)(nil)

func NewMessenger(out io.Writer) *Messenger {
	return &Messenger{out: out}
}

func (m *Messenger) Reply(ctx context.Context, conversation domain.ConversationID, text string) error {
	return m.writeLine(ctx, fmt.Sprintf("[reply %s] %s", conversation, text))
}

func (m *Messenger) NotifyOperator(ctx context.Context, operator domain.Identity, tx domain.Transaction) error {
	prompt := fmt.Sprintf(
		"transaction #%d assigned to you: %d %s %s %s\nreply /confirm %d or /problem %d",
		tx.ID, tx.Amount, tx.Bank, tx.Phone, tx.Email, tx.ID, tx.ID,
	)

	return m.writeLine(ctx, fmt.Sprintf("[operator @%s] %s", operator, prompt))
}

func (m *Messenger) NotifyAdmins(ctx context.Context, text string) error {
	return m.writeLine(ctx, fmt.Sprintf("[admins] %s", text))
}

func (m *Messenger) writeLine(ctx context.Context, line string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := fmt.Fprintln(m.out, line); err != nil {
		return fmt.Errorf("write outbound message: %w", err)
	}

	return nil
}
