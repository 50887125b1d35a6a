package types

import "time"

// LoadBalancer represents the internet-facing entry point
type LoadBalancer struct {
	Name      string
	ARN       string
	DNSName   string
	Scheme    string // internet-facing, internal
	State     string
	VPCID     string
	AZs       []string
	CreatedAt time.Time
}

// TargetGroup represents the set of instances eligible for traffic
type TargetGroup struct {
	Name                string
	ARN                 string
	Protocol            string
	Port                int
	VPCID               string
	HealthCheckPath     string
	HealthCheckInterval time.Duration
	HealthCheckTimeout  time.Duration
	HealthyThreshold    int
	UnhealthyThreshold  int
}

// Target represents a single routable member of a target group
type Target struct {
	ID     string // instance ID
	Port   int
	AZ     string
	Health string // healthy, unhealthy, draining, initial
	Reason string
}

// Endpoint is the exported public address of a deployed stack
type Endpoint struct {
	DNSName      string
	LoadBalancer string
	URL          string
}
