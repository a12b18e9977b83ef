// Package cli implements the escred command-line interface using Cobra.
// The root command runs the provisioning pipeline; there are no
// subcommands beyond version.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/govready/escred/internal/config"
	"github.com/govready/escred/internal/log"
	"github.com/govready/escred/internal/provision"
	"github.com/govready/escred/internal/secretstore"
	"github.com/govready/escred/internal/ui"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	jsonOut bool

	bucketName string
	policyName string
	accessMode string
	userName   string
	region     string
	secretName string
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "escred",
	Short: "Provision bucket-scoped S3 credentials",
	Long: `escred idempotently provisions the AWS resources behind a
bucket-scoped service credential: the S3 bucket (private, public access
blocked), an IAM policy granting read and/or write access to it, an IAM
user, and a fresh access key for that user.

Existing buckets, policies, and users are reused as-is. The access key
is the exception: every run mints a new one, and the pair is printed to
stdout as shell export lines. All diagnostics go to stderr.

Examples:
  escred -a r  -b acme-ev-01 -p acme-ev-01-read  -u svc-read
  escred -a w  -b acme-ev-01 -p acme-ev-01-write -u svc-write
  escred -a rw -b acme-ev-01 -p acme-ev-01-full  -u svc-full --secret es/acme-ev-01`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.Init(log.Options{
			Verbose:    verbose,
			JSONFormat: jsonOut,
		})
	},
	RunE: runProvision,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "log in JSON format")

	rootCmd.Flags().StringVarP(&bucketName, "bucket", "b", "", "name of the target bucket (required)")
	rootCmd.Flags().StringVarP(&policyName, "policy", "p", "", "name of the IAM policy (required)")
	rootCmd.Flags().StringVarP(&accessMode, "access", "a", "", "access mode for a newly created policy: r, w, or rw")
	rootCmd.Flags().StringVarP(&userName, "user", "u", "", "IAM user to create and attach the policy to")
	rootCmd.Flags().StringVar(&region, "region", "", "AWS region (default: config file, then "+provision.DefaultRegion+")")
	rootCmd.Flags().StringVar(&secretName, "secret", "", "also store the key pair in Secrets Manager under this name")
	rootCmd.Flags().StringVar(&configPath, "config", "", "config file (default: $ESCRED_CONFIG, then "+
		"escred/config.yaml in the user config dir)")

	rootCmd.MarkFlagRequired("bucket")
	rootCmd.MarkFlagRequired("policy")
}

func runProvision(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	// Interrupt aborts the in-flight call; nothing partially created is
	// cleaned up.
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	resolvedRegion := region
	if resolvedRegion == "" && cfg != nil {
		resolvedRegion = cfg.Region
	}
	if resolvedRegion == "" {
		resolvedRegion = provision.DefaultRegion
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(resolvedRegion))
	if err != nil {
		return fmt.Errorf("loading AWS config: %w", err)
	}

	prov := provision.NewFromConfig(awsCfg)
	if cfg != nil {
		if cfg.Partition != "" {
			prov.Partition = cfg.Partition
		}
		prov.UserTags = cfg.Tags
	}

	creds, err := prov.Run(ctx, provision.Request{
		Bucket: bucketName,
		Policy: policyName,
		Access: accessMode,
		User:   userName,
	})
	if err != nil {
		return err
	}
	if creds == nil {
		// No user requested, so no key was minted.
		return nil
	}

	fmt.Fprint(cmd.OutOrStdout(), creds.ExportLines())

	if secretName != "" {
		sm := secretsmanager.NewFromConfig(awsCfg)
		arn, err := secretstore.Store(ctx, sm, secretName, creds)
		if err != nil {
			return err
		}
		ui.Infof("Stored key pair in Secrets Manager as %s.", arn)
	}
	return nil
}
