package types

import "time"

// LaunchTemplate represents the immutable instance specification
type LaunchTemplate struct {
	ID           string
	Name         string
	Version      int64
	ImageID      string
	InstanceType string
	PolicyID     string // security group
	ProfileName  string // IAM instance profile
}

// Fleet represents an Auto Scaling Group maintaining the instance count
type Fleet struct {
	Name            string
	ARN             string
	LaunchTemplate  string
	MinSize         int
	MaxSize         int
	DesiredCapacity int
	Cooldown        time.Duration
	InstanceCount   int
	HealthyCount    int
	AZs             []string
	CreatedTime     time.Time
	Instances       []Instance
}

// Instance represents a running fleet member
type Instance struct {
	ID         string
	State      string // Pending, InService, Terminating...
	Health     string // Healthy, Unhealthy
	AZ         string
	PublicIP   string
	PrivateIP  string
	LaunchTime time.Time
}
