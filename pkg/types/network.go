package types

// Network represents the isolated address space the stack runs in
type Network struct {
	ID      string
	Name    string
	CIDR    string
	State   string
	Gateway string // internet gateway ID
	Subnets []Subnet
}

// Subnet represents a public subnet within the network
type Subnet struct {
	ID        string
	CIDR      string
	AZ        string
	State     string
	Public    bool // assigns public addresses on launch
	Available int  // available IP count
}

// SubnetIDs returns the IDs of all subnets in the network
func (n Network) SubnetIDs() []string {
	ids := make([]string, 0, len(n.Subnets))
	for _, s := range n.Subnets {
		ids = append(ids, s.ID)
	}
	return ids
}
