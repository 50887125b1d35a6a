package types

// Database represents the shared catalog database (shared mode only)
type Database struct {
	ID        string
	Engine    string
	Endpoint  string
	Port      int
	Name      string // schema name
	Username  string
	SecretARN string // Secrets Manager ARN holding the credential
	Status    string
}
