package ports

import (
	"context"

	"github.com/velmik/intake/internal/domain"
)

// RoleDirectory classifies identities and manages the operator/administrator
// sets. Operators returns identities in a stable registration order; the
// resolver's fallback policy depends on that ordering.
type RoleDirectory interface {
	RoleOf(ctx context.Context, id domain.Identity) (domain.Role, error)
	Operators(ctx context.Context) ([]domain.Identity, error)
	Admins(ctx context.Context) ([]domain.Identity, error)
	AddOperator(ctx context.Context, id domain.Identity) error
	RemoveOperator(ctx context.Context, id domain.Identity) error
	AddAdmin(ctx context.Context, id domain.Identity) error
}
