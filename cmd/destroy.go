package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vietdv277/stratus/internal/stack"
	"github.com/vietdv277/stratus/internal/ui"
)

var destroyForce bool

var destroyCmd = &cobra.Command{
	Use:   "destroy [stack-name]",
	Short: "Tear the stack down",
	Long: `Destroy every resource of the stack in reverse dependency order.
Resources that are already gone are skipped, so an interrupted teardown
can be re-run.

If no stack name is given and no stack file is configured, an
interactive selector lists the deployed stacks in the region.

Examples:
  stratus destroy                   # Select a deployed stack interactively
  stratus destroy catalog           # Destroy the catalog stack
  stratus destroy -f stack.yaml     # Destroy the declared stack
  stratus destroy catalog --force   # Skip the confirmation prompt`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDestroy,
}

func init() {
	destroyCmd.Flags().BoolVar(&destroyForce, "force", false, "skip the confirmation prompt")
	rootCmd.AddCommand(destroyCmd)
}

func runDestroy(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	spec, err := loadSpec()
	if err != nil {
		return err
	}

	if len(args) > 0 {
		spec.Name = args[0]
	}

	client, err := newClient(ctx, spec)
	if err != nil {
		return err
	}

	if len(args) == 0 && stackFile == "" {
		// Interactive selector over deployed stacks
		stacks, err := client.ListStacks(ctx)
		if err != nil {
			return err
		}
		if len(stacks) == 0 {
			fmt.Println("No deployed stacks found")
			return nil
		}

		selected, err := ui.SelectStack(stacks)
		if err != nil {
			return err
		}
		spec.Name = selected.Name
		if selected.Endpoint != "" {
			fmt.Printf("Stack %s is serving at http://%s\n", selected.Name, selected.Endpoint)
		}
	}

	// Teardown only needs resource names and skips what is absent, so
	// always include the shared database. This covers destroying a
	// shared-mode stack without its declaration file.
	spec.Database.Mode = stack.DatabaseShared

	plan, err := stack.Compile(spec)
	if err != nil {
		return err
	}

	if !destroyForce && !confirmDestroy(plan.Name) {
		fmt.Println("Aborted")
		return nil
	}

	fmt.Printf("\nDestroying stack %s in %s\n\n", plan.Name, plan.Region)

	destroyer := &stack.Destroyer{Backend: client, OnEvent: ui.PrintEvent}
	if err := destroyer.Destroy(ctx, plan); err != nil {
		return err
	}

	fmt.Printf("\nStack %s destroyed.\n", plan.Name)
	return nil
}

func confirmDestroy(name string) bool {
	fmt.Printf("Destroy stack %q and all its resources? [y/N] ", name)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
