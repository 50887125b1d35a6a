package stack

import (
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"
	"time"

	"github.com/vietdv277/stratus/internal/bootstrap"
)

// Kind identifies one resource of the plan
type Kind string

const (
	KindNetwork        Kind = "network"
	KindAccessPolicy   Kind = "access-policy"
	KindIdentityRole   Kind = "identity-role"
	KindDatabase       Kind = "database"
	KindLaunchTemplate Kind = "launch-template"
	KindFleet          Kind = "fleet"
	KindLoadBalancer   Kind = "load-balancer"
)

// Compile-time validation errors
var (
	ErrUnsupportedRegion = errors.New("unsupported region")
	ErrInvalidCapacity   = errors.New("invalid capacity")
	ErrInvalidSpec       = errors.New("invalid stack spec")
)

// Fixed port assignments of the stack
const (
	PortHTTP     = 80
	PortHTTPS    = 443
	PortDatabase = 3306
)

// defaultPassword is the database credential used when none is supplied
// (matches the original single-node deployment)
const defaultPassword = "catalog_password"

// RulePlan is one ingress allow-rule of the access policy
type RulePlan struct {
	Protocol    string
	Port        int
	Source      string // CIDR; empty when the rule is group-scoped
	SelfGroup   bool   // source is the policy group itself
	FleetGroup  bool   // source is the fleet's access policy (database policy only)
	Description string
}

// NetworkPlan declares the isolated address space
type NetworkPlan struct {
	CIDR    string
	Subnets []string // one public subnet per CIDR, spread across AZs
}

// PolicyPlan declares a security group
type PolicyPlan struct {
	Name  string
	Rules []RulePlan
}

// RolePlan declares the instance identity and its single capability
type RolePlan struct {
	Name        string
	ProfileName string
	PolicyARNs  []string
}

// DatabasePlan declares the shared managed database (shared mode only)
type DatabasePlan struct {
	Identifier string
	Engine     string
	Class      string
	StorageGB  int
	Schema     string
	Username   string
	Port       int
	Policy     PolicyPlan // access policy admitting the fleet only
}

// TemplatePlan declares the launch template
type TemplatePlan struct {
	Name         string
	ImageID      string
	InstanceType string
}

// FleetPlan declares the auto-scaling group and its control rule
type FleetPlan struct {
	Name      string
	Min       int
	Max       int
	Desired   int
	Cooldown  time.Duration
	TargetCPU float64
}

// LoadBalancerPlan declares the entry point, listener, and target group
type LoadBalancerPlan struct {
	Name                string
	TargetGroupName     string
	Port                int
	HealthCheckPath     string
	HealthCheckInterval time.Duration
	HealthCheckTimeout  time.Duration
	HealthyThreshold    int
	UnhealthyThreshold  int
}

// Plan is a fully validated deployment plan. All cross-resource
// references are by position in the dependency order; the backend turns
// them into provider IDs as it goes.
type Plan struct {
	Name         string
	Region       string
	ImageID      string
	InstanceType string

	Network      NetworkPlan
	Policy       PolicyPlan
	Role         RolePlan
	Database     *DatabasePlan // nil in local mode
	Template     TemplatePlan
	Fleet        FleetPlan
	LoadBalancer LoadBalancerPlan

	Bootstrap bootstrap.Config
}

// Option customizes plan compilation
type Option func(*Plan)

// WithDatabasePassword sets the database credential baked into the
// bootstrap script (and, in shared mode, the managed database)
func WithDatabasePassword(password string) Option {
	return func(p *Plan) {
		p.Bootstrap.Password = password
	}
}

// Compile validates the spec and produces the resource plan. All
// configuration errors surface here, before any backend call is made.
func Compile(spec Spec, opts ...Option) (*Plan, error) {
	if err := validate(spec); err != nil {
		return nil, err
	}

	image, ok := spec.Images[spec.Region]
	if !ok {
		return nil, fmt.Errorf("%w: no machine image mapping for %q (known: %s)",
			ErrUnsupportedRegion, spec.Region, strings.Join(knownRegions(spec.Images), ", "))
	}

	p := &Plan{
		Name:         spec.Name,
		Region:       spec.Region,
		ImageID:      image,
		InstanceType: spec.InstanceType,
		Network: NetworkPlan{
			CIDR:    spec.Network.CIDR,
			Subnets: spec.Network.Subnets,
		},
		Policy: PolicyPlan{
			Name: spec.Name + "-server",
			Rules: []RulePlan{
				{Protocol: "tcp", Port: PortHTTP, Source: "0.0.0.0/0", Description: "Allow HTTP traffic"},
				{Protocol: "tcp", Port: PortHTTPS, Source: "0.0.0.0/0", Description: "Allow HTTPS traffic"},
			},
		},
		Role: RolePlan{
			Name:        spec.Name + "-server",
			ProfileName: spec.Name + "-server",
			PolicyARNs:  []string{"arn:aws:iam::aws:policy/AmazonSSMManagedInstanceCore"},
		},
		Template: TemplatePlan{
			Name:         spec.Name + "-server",
			ImageID:      image,
			InstanceType: spec.InstanceType,
		},
		Fleet: FleetPlan{
			Name:      spec.Name + "-fleet",
			Min:       spec.Capacity.Min,
			Max:       spec.Capacity.Max,
			Desired:   spec.Capacity.Desired,
			Cooldown:  time.Duration(spec.Scaling.CooldownSeconds) * time.Second,
			TargetCPU: spec.Scaling.TargetCPU,
		},
		LoadBalancer: LoadBalancerPlan{
			Name:                spec.Name + "-alb",
			TargetGroupName:     spec.Name + "-web",
			Port:                PortHTTP,
			HealthCheckPath:     spec.HealthCheck.Path,
			HealthCheckInterval: time.Duration(spec.HealthCheck.IntervalSeconds) * time.Second,
			HealthCheckTimeout:  time.Duration(spec.HealthCheck.TimeoutSeconds) * time.Second,
			HealthyThreshold:    spec.HealthCheck.HealthyThreshold,
			UnhealthyThreshold:  spec.HealthCheck.UnhealthyThreshold,
		},
		Bootstrap: bootstrap.DefaultConfig(),
	}

	switch spec.Database.Mode {
	case DatabaseLocal:
		// database port reachable only from members of the same policy group
		p.Policy.Rules = append(p.Policy.Rules, RulePlan{
			Protocol: "tcp", Port: PortDatabase, SelfGroup: true,
			Description: "Allow MySQL traffic from instances in the same group",
		})
	case DatabaseShared:
		p.Database = &DatabasePlan{
			Identifier: spec.Name + "-db",
			Engine:     "mysql",
			Class:      "db.t3.micro",
			StorageGB:  20,
			Schema:     p.Bootstrap.Schema,
			Username:   p.Bootstrap.User,
			Port:       PortDatabase,
			Policy: PolicyPlan{
				Name: spec.Name + "-db",
				Rules: []RulePlan{
					{Protocol: "tcp", Port: PortDatabase, FleetGroup: true,
						Description: "Allow MySQL traffic from the fleet"},
				},
			},
		}
	}

	for _, opt := range opts {
		opt(p)
	}
	if p.Bootstrap.Password == "" {
		p.Bootstrap.Password = defaultPassword
	}

	return p, nil
}

// Order returns the resource kinds in dependency order. Every later
// resource references an earlier one, so application must follow this
// sequence exactly.
func (p *Plan) Order() []Kind {
	order := []Kind{KindNetwork, KindAccessPolicy, KindIdentityRole}
	if p.Database != nil {
		order = append(order, KindDatabase)
	}
	return append(order, KindLaunchTemplate, KindFleet, KindLoadBalancer)
}

// RenderScript produces the first-boot script for the launch template.
// In shared mode the database endpoint is only known after the database
// resource exists, which is why the template is ordered after it.
func (p *Plan) RenderScript(shared *bootstrap.SharedDatabase) string {
	cfg := p.Bootstrap
	cfg.Shared = shared
	return bootstrap.Script(cfg)
}

func validate(spec Spec) error {
	if spec.Name == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalidSpec)
	}
	if spec.Region == "" {
		return fmt.Errorf("%w: region must not be empty", ErrInvalidSpec)
	}
	if len(spec.Images) == 0 {
		return fmt.Errorf("%w: no machine image mappings declared", ErrInvalidSpec)
	}

	c := spec.Capacity
	if c.Min < 1 {
		return fmt.Errorf("%w: min must be at least 1, got %d", ErrInvalidCapacity, c.Min)
	}
	if c.Max < c.Min {
		return fmt.Errorf("%w: max %d below min %d", ErrInvalidCapacity, c.Max, c.Min)
	}
	if c.Desired < c.Min || c.Desired > c.Max {
		return fmt.Errorf("%w: desired %d outside [%d,%d]", ErrInvalidCapacity, c.Desired, c.Min, c.Max)
	}

	if spec.Scaling.TargetCPU <= 0 || spec.Scaling.TargetCPU > 100 {
		return fmt.Errorf("%w: scaling target must be in (0,100], got %v", ErrInvalidSpec, spec.Scaling.TargetCPU)
	}
	if spec.Scaling.CooldownSeconds <= 0 {
		return fmt.Errorf("%w: scaling cooldown must be positive", ErrInvalidSpec)
	}

	hc := spec.HealthCheck
	if !strings.HasPrefix(hc.Path, "/") {
		return fmt.Errorf("%w: health check path %q must start with /", ErrInvalidSpec, hc.Path)
	}
	if hc.TimeoutSeconds <= 0 || hc.IntervalSeconds <= hc.TimeoutSeconds {
		return fmt.Errorf("%w: health check interval %ds must exceed timeout %ds",
			ErrInvalidSpec, hc.IntervalSeconds, hc.TimeoutSeconds)
	}
	if hc.HealthyThreshold < 1 || hc.UnhealthyThreshold < 1 {
		return fmt.Errorf("%w: health check thresholds must be at least 1", ErrInvalidSpec)
	}

	if _, _, err := net.ParseCIDR(spec.Network.CIDR); err != nil {
		return fmt.Errorf("%w: bad network CIDR %q", ErrInvalidSpec, spec.Network.CIDR)
	}
	if len(spec.Network.Subnets) < 2 {
		return fmt.Errorf("%w: need at least two subnets for availability zone spread", ErrInvalidSpec)
	}
	for _, s := range spec.Network.Subnets {
		if _, _, err := net.ParseCIDR(s); err != nil {
			return fmt.Errorf("%w: bad subnet CIDR %q", ErrInvalidSpec, s)
		}
	}

	switch spec.Database.Mode {
	case DatabaseLocal, DatabaseShared:
	default:
		return fmt.Errorf("%w: database mode must be %q or %q, got %q",
			ErrInvalidSpec, DatabaseLocal, DatabaseShared, spec.Database.Mode)
	}

	return nil
}

func knownRegions(images map[string]string) []string {
	regions := make([]string, 0, len(images))
	for r := range images {
		regions = append(regions, r)
	}
	sort.Strings(regions)
	return regions
}
