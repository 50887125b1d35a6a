// Package stack compiles the static deployment declaration into an
// ordered resource plan and drives a provisioning backend through it.
package stack

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Database modes
const (
	DatabaseLocal  = "local"  // every node runs its own database
	DatabaseShared = "shared" // one managed database for the whole fleet
)

// Spec is the operator-facing stack declaration, read from a YAML file.
// Every field has a default matching the catalog stack, so an empty file
// is a valid spec.
type Spec struct {
	Name         string            `yaml:"name"`
	Region       string            `yaml:"region"`
	Images       map[string]string `yaml:"images"` // region -> machine image ID
	InstanceType string            `yaml:"instance_type"`

	Capacity struct {
		Min     int `yaml:"min"`
		Max     int `yaml:"max"`
		Desired int `yaml:"desired"`
	} `yaml:"capacity"`

	Scaling struct {
		TargetCPU       float64 `yaml:"target_cpu"`
		CooldownSeconds int     `yaml:"cooldown_seconds"`
	} `yaml:"scaling"`

	HealthCheck struct {
		Path               string `yaml:"path"`
		IntervalSeconds    int    `yaml:"interval_seconds"`
		TimeoutSeconds     int    `yaml:"timeout_seconds"`
		HealthyThreshold   int    `yaml:"healthy_threshold"`
		UnhealthyThreshold int    `yaml:"unhealthy_threshold"`
	} `yaml:"health_check"`

	Network struct {
		CIDR    string   `yaml:"cidr"`
		Subnets []string `yaml:"subnets"`
	} `yaml:"network"`

	Database struct {
		Mode string `yaml:"mode"` // local or shared
	} `yaml:"database"`
}

// DefaultSpec returns the stack declaration with all constants of this
// revision filled in
func DefaultSpec() Spec {
	var s Spec
	s.Name = "catalog"
	s.Region = "eu-west-1"
	s.Images = map[string]string{
		"eu-west-1": "ami-0261755bbcb8c4a84", // Ubuntu 22.04
	}
	s.InstanceType = "t3.micro"
	s.Capacity.Min = 2
	s.Capacity.Max = 4
	s.Capacity.Desired = 2
	s.Scaling.TargetCPU = 70
	s.Scaling.CooldownSeconds = 180
	s.HealthCheck.Path = "/products"
	s.HealthCheck.IntervalSeconds = 30
	s.HealthCheck.TimeoutSeconds = 5
	s.HealthCheck.HealthyThreshold = 5
	s.HealthCheck.UnhealthyThreshold = 3
	s.Network.CIDR = "10.0.0.0/16"
	s.Network.Subnets = []string{"10.0.0.0/24", "10.0.1.0/24"}
	s.Database.Mode = DatabaseLocal
	return s
}

// Load reads a stack file, overlaying it on the defaults. An empty path
// returns the defaults unchanged.
func Load(path string) (Spec, error) {
	spec := DefaultSpec()
	if path == "" {
		return spec, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return spec, fmt.Errorf("failed to read stack file: %w", err)
	}

	if err := yaml.Unmarshal(data, &spec); err != nil {
		return spec, fmt.Errorf("failed to parse stack file: %w", err)
	}

	return spec, nil
}
