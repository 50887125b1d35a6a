package stack

import (
	"context"
	"errors"

	"github.com/vietdv277/stratus/pkg/types"
)

// Common backend errors
var (
	ErrNotFound = errors.New("resource not found")
)

// Backend is the provisioning surface the plan is applied through. The
// Ensure methods are idempotent: each looks the resource up by its stack
// identity first and only creates it when absent, so re-applying an
// unchanged plan performs no creation calls.
type Backend interface {
	// EnsureNetwork provides the VPC, internet gateway, routing, and the
	// public subnets spread across availability zones
	EnsureNetwork(ctx context.Context, plan *Plan) (types.Network, error)

	// EnsureAccessPolicy provides the fleet security group and its rules
	EnsureAccessPolicy(ctx context.Context, plan *Plan, network types.Network) (types.AccessPolicy, error)

	// EnsureIdentityRole provides the instance role, its single managed
	// policy attachment, and the instance profile
	EnsureIdentityRole(ctx context.Context, plan *Plan) (types.Role, error)

	// EnsureDatabase provides the shared managed database; only called
	// when the plan carries a database resource
	EnsureDatabase(ctx context.Context, plan *Plan, network types.Network, fleetPolicy types.AccessPolicy) (types.Database, error)

	// EnsureLaunchTemplate provides the launch template binding image,
	// size, policy, role, and the rendered first-boot script
	EnsureLaunchTemplate(ctx context.Context, plan *Plan, policy types.AccessPolicy, role types.Role, script string) (types.LaunchTemplate, error)

	// EnsureFleet provides the auto-scaling group and its CPU target
	// tracking policy
	EnsureFleet(ctx context.Context, plan *Plan, network types.Network, template types.LaunchTemplate) (types.Fleet, error)

	// EnsureLoadBalancer provides the load balancer, target group, and
	// listener, and attaches the fleet to the target group
	EnsureLoadBalancer(ctx context.Context, plan *Plan, network types.Network, policy types.AccessPolicy, fleet types.Fleet) (types.Endpoint, error)

	// Destroy tears a resource kind down; missing resources are not an
	// error so a partial teardown can be retried
	Destroy(ctx context.Context, plan *Plan, kind Kind) error
}

// Event reports progress of an apply or destroy run
type Event struct {
	Kind   Kind
	Action string // applying, applied, destroying, destroyed, failed
	Detail string // resource ID or error text
}

// EventFunc receives progress events; nil callbacks are allowed
type EventFunc func(Event)
