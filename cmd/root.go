package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vietdv277/stratus/internal/aws"
	"github.com/vietdv277/stratus/internal/config"
	"github.com/vietdv277/stratus/internal/stack"
)

var (
	// Global flags
	profile   string
	region    string
	stackFile string
)

var rootCmd = &cobra.Command{
	Use:   "stratus",
	Short: "Stratus - deploy a load-balanced web stack on AWS",
	Long: `Stratus deploys and manages a self-contained web stack on AWS:
a VPC with public subnets, an auto-scaling fleet of nginx+Flask servers
bootstrapped on first boot, and an application load balancer in front.

Typical workflow:
  stratus plan                  # Show what would be created
  stratus apply                 # Deploy or reconcile the stack
  stratus status                # Inspect resource and target health
  stratus output                # Print the public endpoint
  stratus destroy               # Tear everything down

The stack declaration is a YAML file; every field has a default, so
plain 'stratus apply' deploys the catalog stack as-is.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	//Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&profile, "profile", "p", "", "AWS profile to use")
	rootCmd.PersistentFlags().StringVarP(&region, "region", "r", "", "AWS region to use")
	rootCmd.PersistentFlags().StringVarP(&stackFile, "stack-file", "f", "", "path to the stack declaration YAML")

	// Bind flags to viper
	_ = viper.BindPFlag("profile", rootCmd.PersistentFlags().Lookup("profile"))
	_ = viper.BindPFlag("region", rootCmd.PersistentFlags().Lookup("region"))
	_ = viper.BindPFlag("stack-file", rootCmd.PersistentFlags().Lookup("stack-file"))
}

func initConfig() {
	// Read from environment variables
	viper.SetEnvPrefix("STRATUS")
	viper.AutomaticEnv()

	// Priority for profile: --profile flag > ~/.stratus/config.yaml > AWS_PROFILE env
	if profile == "" {
		if saved := config.GetSavedProfile(); saved != "" {
			profile = saved
		} else {
			profile = os.Getenv("AWS_PROFILE")
		}
	}

	// The deployment region comes from the stack declaration; --region is
	// an explicit override, so no env fallback here.

	// The stack file sticks across invocations, so 'stratus status' after
	// 'stratus apply -f stack.yaml' reads the same declaration
	if stackFile == "" {
		stackFile = config.GetSavedStackFile()
	}
}

// loadSpec reads the stack declaration, overlaying file and flags on the
// defaults. The --region flag wins over the file's region so a stack can
// be targeted at another region without editing it.
func loadSpec() (stack.Spec, error) {
	spec, err := stack.Load(stackFile)
	if err != nil {
		return spec, err
	}
	if region != "" {
		spec.Region = region
	}
	return spec, nil
}

// newClient builds the AWS backend for the spec's region
func newClient(ctx context.Context, spec stack.Spec) (*aws.Client, error) {
	client, err := aws.NewClient(ctx,
		aws.WithProfile(profile),
		aws.WithRegion(spec.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS client: %w", err)
	}
	return client, nil
}
