package decoration

import (
	"context"
	"fmt"

	"github.com/youruser/profileart/internal/errs"
	"github.com/youruser/profileart/internal/policy"
)

// Gate decides whether an identity may use a loaded decoration. Loading a
// descriptor never evaluates a predicate; only the gate does.
type Gate struct {
	policies *policy.Table
}

func NewGate(policies *policy.Table) *Gate {
	return &Gate{policies: policies}
}

// CanUse evaluates the predicate of d's type for identity. A false result is
// a normal outcome, not an error.
func (g *Gate) CanUse(ctx context.Context, d Descriptor, identity string) (bool, error) {
	return g.policies.CheckAdmission(ctx, d.Type, identity)
}

// Authorize is CanUse that reports denial as errs.ErrAccessDenied.
func (g *Gate) Authorize(ctx context.Context, d Descriptor, identity string) error {
	ok, err := g.CanUse(ctx, d, identity)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s may not use %q: %w", identity, d.Name, errs.ErrAccessDenied)
	}
	return nil
}
