package types

// Resource is one line of a stack's inventory
type Resource struct {
	Kind  string
	Name  string
	ID    string
	State string
}

// StackSummary describes a deployed stack for listing and selection
type StackSummary struct {
	Name     string
	Region   string
	VPCID    string
	Endpoint string
}
