package application

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/velmik/intake/internal/domain"
	"github.com/velmik/intake/internal/ports"
)

// AgentResolver attributes a finalized record to an operator. The fallback
// chain is ordered and every step is an explicit logged decision: prefer a
// candidate with exactly the operator role who is not the finalizing sender,
// then the first registered candidate, then the unassigned sentinel. An
// administrator who also works as an operator must never be auto-attributed
// ahead of a genuine operator.
type AgentResolver struct {
	roles  ports.RoleDirectory
	logger *zap.Logger
}

func NewAgentResolver(roles ports.RoleDirectory, logger *zap.Logger) *AgentResolver {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &AgentResolver{roles: roles, logger: logger}
}

// Resolve picks the attributed operator for a record finalized by finalizer.
// When no candidates are registered it returns domain.Unassigned together
// with domain.ErrNoOperatorsAvailable; finalization still proceeds in that
// case.
func (r *AgentResolver) Resolve(ctx context.Context, finalizer domain.Identity) (domain.Identity, error) {
	candidates, err := r.roles.Operators(ctx)
	if err != nil {
		return domain.Unassigned, fmt.Errorf("list operators: %w", err)
	}

	for _, candidate := range candidates {
		if candidate == finalizer {
			continue
		}
		role, err := r.roles.RoleOf(ctx, candidate)
		if err != nil {
			return domain.Unassigned, fmt.Errorf("role of %s: %w", candidate, err)
		}
		if role == domain.RoleOperator {
			r.logger.Info("resolved operator by role",
				zap.String("operator", string(candidate)),
				zap.String("finalizer", string(finalizer)))
			return candidate, nil
		}
	}

	if len(candidates) > 0 {
		r.logger.Info("no pure operator candidate, falling back to first registered",
			zap.String("operator", string(candidates[0])),
			zap.String("finalizer", string(finalizer)))
		return candidates[0], nil
	}

	r.logger.Warn("no operators available, attributing to sentinel",
		zap.String("finalizer", string(finalizer)))
	return domain.Unassigned, domain.ErrNoOperatorsAvailable
}
