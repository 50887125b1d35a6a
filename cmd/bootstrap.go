package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vietdv277/stratus/internal/bootstrap"
	"github.com/vietdv277/stratus/internal/stack"
)

var (
	sharedEndpoint string
	sharedPort     int
)

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Inspect the first-boot provisioning",
}

var bootstrapRenderCmd = &cobra.Command{
	Use:   "render",
	Short: "Print the first-boot script",
	Long: `Render the script new instances run on first boot, exactly as it
would be baked into the launch template.

Examples:
  stratus bootstrap render                          # Local database layout
  stratus bootstrap render --shared-endpoint db.example.internal`,
	RunE: runBootstrapRender,
}

func init() {
	bootstrapRenderCmd.Flags().StringVar(&sharedEndpoint, "shared-endpoint", "", "render for a shared database at this endpoint")
	bootstrapRenderCmd.Flags().IntVar(&sharedPort, "shared-port", stack.PortDatabase, "shared database port")

	bootstrapCmd.AddCommand(bootstrapRenderCmd)
	rootCmd.AddCommand(bootstrapCmd)
}

func runBootstrapRender(cmd *cobra.Command, args []string) error {
	spec, err := loadSpec()
	if err != nil {
		return err
	}

	plan, err := stack.Compile(spec)
	if err != nil {
		return err
	}

	var shared *bootstrap.SharedDatabase
	if sharedEndpoint != "" {
		shared = &bootstrap.SharedDatabase{Endpoint: sharedEndpoint, Port: sharedPort}
	}

	fmt.Print(plan.RenderScript(shared))
	return nil
}
