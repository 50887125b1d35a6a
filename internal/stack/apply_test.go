package stack

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietdv277/stratus/pkg/types"
)

// fakeBackend records every call so apply ordering and teardown behavior
// can be asserted without AWS
type fakeBackend struct {
	calls   []string
	scripts []string

	exists  bool // every resource is already deployed
	creates int

	failAt    Kind
	missing   map[Kind]bool
	destroyed []Kind
}

func (f *fakeBackend) record(kind Kind) error {
	f.calls = append(f.calls, string(kind))
	if !f.exists {
		f.creates++
	}
	if f.failAt == kind {
		return errors.New("provider rejected the request")
	}
	return nil
}

func (f *fakeBackend) EnsureNetwork(ctx context.Context, plan *Plan) (types.Network, error) {
	return types.Network{ID: "vpc-1"}, f.record(KindNetwork)
}

func (f *fakeBackend) EnsureAccessPolicy(ctx context.Context, plan *Plan, network types.Network) (types.AccessPolicy, error) {
	return types.AccessPolicy{ID: "sg-1"}, f.record(KindAccessPolicy)
}

func (f *fakeBackend) EnsureIdentityRole(ctx context.Context, plan *Plan) (types.Role, error) {
	return types.Role{Name: plan.Role.Name}, f.record(KindIdentityRole)
}

func (f *fakeBackend) EnsureDatabase(ctx context.Context, plan *Plan, network types.Network, fleetPolicy types.AccessPolicy) (types.Database, error) {
	return types.Database{Endpoint: "db.internal.example", Port: 3306}, f.record(KindDatabase)
}

func (f *fakeBackend) EnsureLaunchTemplate(ctx context.Context, plan *Plan, policy types.AccessPolicy, role types.Role, script string) (types.LaunchTemplate, error) {
	f.scripts = append(f.scripts, script)
	return types.LaunchTemplate{ID: "lt-1"}, f.record(KindLaunchTemplate)
}

func (f *fakeBackend) EnsureFleet(ctx context.Context, plan *Plan, network types.Network, template types.LaunchTemplate) (types.Fleet, error) {
	return types.Fleet{Name: plan.Fleet.Name}, f.record(KindFleet)
}

func (f *fakeBackend) EnsureLoadBalancer(ctx context.Context, plan *Plan, network types.Network, policy types.AccessPolicy, fleet types.Fleet) (types.Endpoint, error) {
	return types.Endpoint{DNSName: "lb.example.amazonaws.com"}, f.record(KindLoadBalancer)
}

func (f *fakeBackend) Destroy(ctx context.Context, plan *Plan, kind Kind) error {
	f.destroyed = append(f.destroyed, kind)
	if f.missing[kind] {
		return ErrNotFound
	}
	if f.failAt == kind {
		return errors.New("dependency violation")
	}
	return nil
}

func TestApply_DependencyOrder(t *testing.T) {
	plan, err := Compile(DefaultSpec())
	require.NoError(t, err)

	backend := &fakeBackend{}
	applier := &Applier{Backend: backend}

	d, err := applier.Apply(context.Background(), plan)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"network", "access-policy", "identity-role",
		"launch-template", "fleet", "load-balancer",
	}, backend.calls)
	assert.Equal(t, "lb.example.amazonaws.com", d.Endpoint.DNSName)
}

func TestApply_SharedModePassesEndpointToScript(t *testing.T) {
	spec := DefaultSpec()
	spec.Database.Mode = DatabaseShared

	plan, err := Compile(spec, WithDatabasePassword("s3cret"))
	require.NoError(t, err)

	backend := &fakeBackend{}
	applier := &Applier{Backend: backend}

	_, err = applier.Apply(context.Background(), plan)
	require.NoError(t, err)

	require.Len(t, backend.scripts, 1)
	assert.Contains(t, backend.scripts[0], "db.internal.example")
	assert.Contains(t, backend.scripts[0], "CREATE TABLE IF NOT EXISTS products")
	assert.Contains(t, backend.scripts[0], "INSERT INTO products")
	assert.NotContains(t, backend.scripts[0], "mysql-server")
}

func TestApply_ReapplyCreatesNothing(t *testing.T) {
	plan, err := Compile(DefaultSpec())
	require.NoError(t, err)

	backend := &fakeBackend{}
	applier := &Applier{Backend: backend}

	_, err = applier.Apply(context.Background(), plan)
	require.NoError(t, err)
	require.Equal(t, len(plan.Order()), backend.creates)

	// second run against a fully deployed stack performs no creations
	backend.exists = true
	_, err = applier.Apply(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, len(plan.Order()), backend.creates)
}

func TestApply_StopsAtFirstFailure(t *testing.T) {
	plan, err := Compile(DefaultSpec())
	require.NoError(t, err)

	backend := &fakeBackend{failAt: KindIdentityRole}
	applier := &Applier{Backend: backend}

	_, err = applier.Apply(context.Background(), plan)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to apply identity-role")

	// nothing after the failed resource was attempted
	assert.Equal(t, []string{"network", "access-policy", "identity-role"}, backend.calls)
}

func TestApply_EmitsEvents(t *testing.T) {
	plan, err := Compile(DefaultSpec())
	require.NoError(t, err)

	var events []Event
	applier := &Applier{
		Backend: &fakeBackend{},
		OnEvent: func(e Event) { events = append(events, e) },
	}

	_, err = applier.Apply(context.Background(), plan)
	require.NoError(t, err)

	// one applying and one applied event per resource
	require.Len(t, events, 2*len(plan.Order()))
	assert.Equal(t, "applying", events[0].Action)
	assert.Equal(t, KindNetwork, events[0].Kind)
	assert.Equal(t, "applied", events[1].Action)
	assert.Equal(t, "vpc-1", events[1].Detail)
}

func TestDestroy_ReverseOrder(t *testing.T) {
	plan, err := Compile(DefaultSpec())
	require.NoError(t, err)

	backend := &fakeBackend{}
	destroyer := &Destroyer{Backend: backend}

	require.NoError(t, destroyer.Destroy(context.Background(), plan))

	assert.Equal(t, []Kind{
		KindLoadBalancer, KindFleet, KindLaunchTemplate,
		KindIdentityRole, KindAccessPolicy, KindNetwork,
	}, backend.destroyed)
}

func TestDestroy_SkipsMissingResources(t *testing.T) {
	plan, err := Compile(DefaultSpec())
	require.NoError(t, err)

	backend := &fakeBackend{missing: map[Kind]bool{KindFleet: true, KindLoadBalancer: true}}
	destroyer := &Destroyer{Backend: backend}

	// a half-deployed stack tears down cleanly
	require.NoError(t, destroyer.Destroy(context.Background(), plan))
	assert.Len(t, backend.destroyed, len(plan.Order()))
}

func TestDestroy_SurfacesFailure(t *testing.T) {
	plan, err := Compile(DefaultSpec())
	require.NoError(t, err)

	backend := &fakeBackend{failAt: KindNetwork}
	destroyer := &Destroyer{Backend: backend}

	err = destroyer.Destroy(context.Background(), plan)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to destroy network")
}
