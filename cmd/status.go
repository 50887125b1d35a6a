package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vietdv277/stratus/internal/stack"
	"github.com/vietdv277/stratus/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of the stack's resources",
	Long: `Show every resource the stack declares and its current state,
including load balancer target health.

Examples:
  stratus status                    # Status of the default catalog stack
  stratus status shop               # Status of the shop stack
  stratus status -f stack.yaml      # Status of the declared stack`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	spec, err := loadSpec()
	if err != nil {
		return err
	}
	if len(args) > 0 {
		spec.Name = args[0]
	}

	plan, err := stack.Compile(spec)
	if err != nil {
		return err
	}

	client, err := newClient(ctx, spec)
	if err != nil {
		return err
	}

	resources, err := client.Inventory(ctx, plan)
	if err != nil {
		return fmt.Errorf("failed to inspect stack: %w", err)
	}

	fmt.Printf("\nStack %s (%s)\n", plan.Name, plan.Region)
	ui.PrintResourceTable(resources)

	targets, err := client.ListTargets(ctx, plan)
	if err != nil {
		return fmt.Errorf("failed to list targets: %w", err)
	}
	if len(targets) > 0 {
		fmt.Println("Targets:")
		ui.PrintTargetTable(targets)
	}

	if group, err := client.DescribeTargetGroup(ctx, plan); err == nil && group != nil {
		fmt.Printf("Health check: GET %s every %s, timeout %s\n",
			group.HealthCheckPath, group.HealthCheckInterval, group.HealthCheckTimeout)
	}

	if endpoint, err := client.ReadEndpoint(ctx, plan.Name); err == nil && endpoint != "" {
		fmt.Printf("Endpoint: http://%s%s\n\n", endpoint, plan.LoadBalancer.HealthCheckPath)
	}

	return nil
}
