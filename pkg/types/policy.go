package types

// AccessPolicy represents a security group and its ingress rules
type AccessPolicy struct {
	ID    string
	Name  string
	VPCID string
	Rules []Rule
}

// Rule is a single ingress allow-rule
type Rule struct {
	Protocol    string
	Port        int
	Source      string // CIDR, or empty when SourceGroup is set
	SourceGroup string // security group ID for group-to-group rules
	Description string
}

// Role represents the identity bound to fleet instances
type Role struct {
	Name        string
	ARN         string
	ProfileName string
	ProfileARN  string
	Policies    []string // attached managed policy ARNs
}
