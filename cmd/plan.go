package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vietdv277/stratus/internal/stack"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the resources apply would create",
	Long: `Validate the stack declaration and print the resource plan in
dependency order, without touching AWS.

Examples:
  stratus plan                      # Plan the default catalog stack
  stratus plan -f stack.yaml        # Plan from a stack declaration`,
	RunE: runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	spec, err := loadSpec()
	if err != nil {
		return err
	}

	plan, err := stack.Compile(spec)
	if err != nil {
		return err
	}

	fmt.Printf("\nStack %s (%s, %s on %s)\n\n", plan.Name, plan.Region, plan.InstanceType, plan.ImageID)

	for i, kind := range plan.Order() {
		fmt.Printf("  %d. %-16s %s\n", i+1, kind, planDetail(plan, kind))
	}

	fmt.Printf("\nRun 'stratus apply' to deploy.\n")
	return nil
}

func planDetail(plan *stack.Plan, kind stack.Kind) string {
	switch kind {
	case stack.KindNetwork:
		return fmt.Sprintf("%s with %d public subnets", plan.Network.CIDR, len(plan.Network.Subnets))
	case stack.KindAccessPolicy:
		return fmt.Sprintf("%s (%d rules)", plan.Policy.Name, len(plan.Policy.Rules))
	case stack.KindIdentityRole:
		return plan.Role.Name
	case stack.KindDatabase:
		return fmt.Sprintf("%s (%s on %s)", plan.Database.Identifier, plan.Database.Engine, plan.Database.Class)
	case stack.KindLaunchTemplate:
		return plan.Template.Name
	case stack.KindFleet:
		return fmt.Sprintf("%s (min %d, max %d, desired %d, target CPU %.0f%%)",
			plan.Fleet.Name, plan.Fleet.Min, plan.Fleet.Max, plan.Fleet.Desired, plan.Fleet.TargetCPU)
	case stack.KindLoadBalancer:
		return fmt.Sprintf("%s on port %d, health check %s",
			plan.LoadBalancer.Name, plan.LoadBalancer.Port, plan.LoadBalancer.HealthCheckPath)
	}
	return ""
}
