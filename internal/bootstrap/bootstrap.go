// Package bootstrap renders the first-boot provisioning script baked into
// the launch template. The script is modeled as an ordered list of typed
// steps so each piece (packages, database, app, proxy, service) can be
// inspected and tested on its own instead of living in one opaque blob.
package bootstrap

import (
	"fmt"
	"strings"
)

// Product is a seed row for the catalog table
type Product struct {
	Name        string
	Description string
	Price       string // fixed-precision decimal, e.g. "1200.00"
}

// DefaultSeed is the catalog content every fresh node starts with
var DefaultSeed = []Product{
	{Name: "Laptop", Description: "A high-end laptop", Price: "1200.00"},
	{Name: "Phone", Description: "Latest smartphone", Price: "800.00"},
}

// SharedDatabase points the node at an externally managed database
// instead of a local one
type SharedDatabase struct {
	Endpoint string
	Port     int
}

// Config parametrizes the rendered script
type Config struct {
	Schema   string
	User     string
	Password string
	AppDir   string
	AppPort  int
	Workers  int
	RunAs    string
	Seed     []Product
	Shared   *SharedDatabase // nil means a node-local database
}

// DefaultConfig returns the standard node configuration
func DefaultConfig() Config {
	return Config{
		Schema:  "catalog",
		User:    "catalog_user",
		AppDir:  "/home/ubuntu/catalog_server",
		AppPort: 5000,
		Workers: 3,
		RunAs:   "ubuntu",
		Seed:    DefaultSeed,
	}
}

// Step is one provisioning step of the first-boot sequence
type Step interface {
	// Name identifies the step in diagnostics
	Name() string
	// Render returns the step's shell fragment
	Render() string
}

// Steps returns the ordered step list for the given configuration.
// Order matters: packages before database, database before app, app
// before proxy and service registration.
func Steps(cfg Config) []Step {
	steps := []Step{newPackageStep(cfg)}
	if cfg.Shared == nil {
		steps = append(steps, newDatabaseStep(cfg))
	} else {
		steps = append(steps, newSchemaStep(cfg))
	}
	steps = append(steps,
		newAppStep(cfg),
		newProxyStep(cfg),
		newServiceStep(cfg),
	)
	return steps
}

// Script renders the complete first-boot script. The set flags give the
// whole script fail-fast semantics: any failed step aborts the rest, the
// node never passes its health check, and the fleet manager replaces it.
func Script(cfg Config) string {
	var sb strings.Builder
	sb.WriteString("#!/bin/bash\n")
	sb.WriteString("set -euxo pipefail\n")
	for _, step := range Steps(cfg) {
		sb.WriteString(fmt.Sprintf("\n# step: %s\n", step.Name()))
		sb.WriteString(step.Render())
	}
	return sb.String()
}
