package ports

import (
	"context"

	"github.com/velmik/intake/internal/domain"
)

// Messenger carries the outbound effects of the core: replies to the sending
// conversation, confirmation prompts to the attributed operator, and
// broadcast notices to administrators. Implementations own delivery; the
// core never calls Messenger while holding internal locks.
type Messenger interface {
	Reply(ctx context.Context, conversation domain.ConversationID, text string) error
	NotifyOperator(ctx context.Context, operator domain.Identity, tx domain.Transaction) error
	NotifyAdmins(ctx context.Context, text string) error
}
