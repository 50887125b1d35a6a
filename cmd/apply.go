package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vietdv277/stratus/internal/aws"
	"github.com/vietdv277/stratus/internal/config"
	"github.com/vietdv277/stratus/internal/stack"
	"github.com/vietdv277/stratus/internal/ui"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Deploy or reconcile the stack",
	Long: `Deploy the stack, creating every resource that does not exist yet.
Re-running apply on a deployed stack is safe: existing resources are
found by their stack tag and left in place.

Examples:
  stratus apply                     # Deploy the default catalog stack
  stratus apply -f stack.yaml       # Deploy from a stack declaration
  stratus apply -p prod -r eu-west-1`,
	RunE: runApply,
}

func init() {
	rootCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	spec, err := loadSpec()
	if err != nil {
		return err
	}

	client, err := newClient(ctx, spec)
	if err != nil {
		return err
	}

	identity, err := client.GetCallerIdentity(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify AWS credentials: %w", err)
	}

	opts, err := compileOptions(ctx, client, spec)
	if err != nil {
		return err
	}

	plan, err := stack.Compile(spec, opts...)
	if err != nil {
		return err
	}

	fmt.Printf("\nDeploying stack %s to %s (account %s)\n\n", plan.Name, plan.Region, identity.Account)

	applier := &stack.Applier{Backend: client, OnEvent: ui.PrintEvent}
	deployment, err := applier.Apply(ctx, plan)
	if err != nil {
		return err
	}

	fmt.Printf("\nStack %s deployed.\n", plan.Name)
	fmt.Printf("  Endpoint: %s\n\n", deployment.Endpoint.URL)

	if stackFile != "" {
		if err := config.RememberStackFile(stackFile); err != nil {
			fmt.Printf("Warning: failed to save stack file path: %v\n", err)
		}
	}

	return nil
}

// compileOptions resolves the database credential for shared mode. A
// previously generated credential is reused so a re-apply does not break
// the running fleet.
func compileOptions(ctx context.Context, client *aws.Client, spec stack.Spec) ([]stack.Option, error) {
	if spec.Database.Mode != stack.DatabaseShared {
		return nil, nil
	}

	password, err := client.LookupPassword(ctx, spec.Name)
	if err != nil {
		return nil, err
	}
	if password == "" {
		password, err = aws.GeneratePassword()
		if err != nil {
			return nil, err
		}
	}

	return []stack.Option{stack.WithDatabasePassword(password)}, nil
}
