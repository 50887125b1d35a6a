package aws

import (
	"context"
	"fmt"

	"github.com/vietdv277/stratus/internal/stack"
)

// Destroy removes one resource kind of the plan. The stack.Destroyer
// calls it in reverse dependency order; stack.ErrNotFound marks pieces
// that are already gone.
func (c *Client) Destroy(ctx context.Context, plan *stack.Plan, kind stack.Kind) error {
	switch kind {
	case stack.KindLoadBalancer:
		return c.destroyLoadBalancer(ctx, plan)
	case stack.KindFleet:
		return c.destroyFleet(ctx, plan)
	case stack.KindLaunchTemplate:
		return c.destroyLaunchTemplate(ctx, plan)
	case stack.KindDatabase:
		return c.destroyDatabase(ctx, plan)
	case stack.KindIdentityRole:
		return c.destroyIdentityRole(ctx, plan)
	case stack.KindAccessPolicy:
		return c.destroyAccessPolicy(ctx, plan)
	case stack.KindNetwork:
		return c.destroyNetwork(ctx, plan)
	}
	return fmt.Errorf("unknown resource kind %q", kind)
}
