package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vietdv277/stratus/internal/stack"
)

var outputCmd = &cobra.Command{
	Use:   "output",
	Short: "Print the stack's public endpoint",
	Long: `Print the public DNS name of the stack's load balancer, read from
the endpoint parameter published at apply time. Falls back to asking the
load balancer directly when the parameter is missing.

Examples:
  stratus output                    # Print the endpoint
  curl http://$(stratus output)/products`,
	RunE: runOutput,
}

func init() {
	rootCmd.AddCommand(outputCmd)
}

func runOutput(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	spec, err := loadSpec()
	if err != nil {
		return err
	}

	plan, err := stack.Compile(spec)
	if err != nil {
		return err
	}

	client, err := newClient(ctx, spec)
	if err != nil {
		return err
	}

	endpoint, err := client.ReadEndpoint(ctx, plan.Name)
	if err != nil {
		return err
	}

	if endpoint == "" {
		lb, err := client.DescribeEndpoint(ctx, plan)
		if err != nil {
			return err
		}
		if lb == nil {
			return fmt.Errorf("stack %s is not deployed", plan.Name)
		}
		endpoint = lb.DNSName
	}

	fmt.Println(endpoint)
	return nil
}
