package stack

import (
	"context"
	"fmt"

	"github.com/vietdv277/stratus/internal/bootstrap"
	"github.com/vietdv277/stratus/pkg/types"
)

// Deployment is the applied state of a plan
type Deployment struct {
	Network  types.Network
	Policy   types.AccessPolicy
	Role     types.Role
	Database *types.Database
	Template types.LaunchTemplate
	Fleet    types.Fleet
	Endpoint types.Endpoint
}

// Applier drives a backend through the plan in dependency order
type Applier struct {
	Backend Backend
	OnEvent EventFunc
}

// Apply ensures every resource of the plan, in order. It stops at the
// first failure: resource creation is billable and not transactional, so
// a rejected resource is surfaced verbatim rather than retried.
func (a *Applier) Apply(ctx context.Context, plan *Plan) (*Deployment, error) {
	d := &Deployment{}

	for _, kind := range plan.Order() {
		a.emit(Event{Kind: kind, Action: "applying"})

		detail, err := a.apply(ctx, plan, kind, d)
		if err != nil {
			a.emit(Event{Kind: kind, Action: "failed", Detail: err.Error()})
			return nil, fmt.Errorf("failed to apply %s: %w", kind, err)
		}

		a.emit(Event{Kind: kind, Action: "applied", Detail: detail})
	}

	return d, nil
}

func (a *Applier) apply(ctx context.Context, plan *Plan, kind Kind, d *Deployment) (string, error) {
	switch kind {
	case KindNetwork:
		network, err := a.Backend.EnsureNetwork(ctx, plan)
		if err != nil {
			return "", err
		}
		d.Network = network
		return network.ID, nil

	case KindAccessPolicy:
		policy, err := a.Backend.EnsureAccessPolicy(ctx, plan, d.Network)
		if err != nil {
			return "", err
		}
		d.Policy = policy
		return policy.ID, nil

	case KindIdentityRole:
		role, err := a.Backend.EnsureIdentityRole(ctx, plan)
		if err != nil {
			return "", err
		}
		d.Role = role
		return role.Name, nil

	case KindDatabase:
		db, err := a.Backend.EnsureDatabase(ctx, plan, d.Network, d.Policy)
		if err != nil {
			return "", err
		}
		d.Database = &db
		return db.Endpoint, nil

	case KindLaunchTemplate:
		var shared *bootstrap.SharedDatabase
		if d.Database != nil {
			shared = &bootstrap.SharedDatabase{Endpoint: d.Database.Endpoint, Port: d.Database.Port}
		}
		template, err := a.Backend.EnsureLaunchTemplate(ctx, plan, d.Policy, d.Role, plan.RenderScript(shared))
		if err != nil {
			return "", err
		}
		d.Template = template
		return template.ID, nil

	case KindFleet:
		fleet, err := a.Backend.EnsureFleet(ctx, plan, d.Network, d.Template)
		if err != nil {
			return "", err
		}
		d.Fleet = fleet
		return fleet.Name, nil

	case KindLoadBalancer:
		endpoint, err := a.Backend.EnsureLoadBalancer(ctx, plan, d.Network, d.Policy, d.Fleet)
		if err != nil {
			return "", err
		}
		d.Endpoint = endpoint
		return endpoint.DNSName, nil
	}

	return "", fmt.Errorf("unknown resource kind %q", kind)
}

func (a *Applier) emit(e Event) {
	if a.OnEvent != nil {
		a.OnEvent(e)
	}
}
