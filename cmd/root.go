// Package cmd defines the CLI of the site structure audit.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/JakeFAU/site-structure-audit/internal/app"
	"github.com/JakeFAU/site-structure-audit/internal/config"
	"github.com/JakeFAU/site-structure-audit/internal/logging"
)

// runnerKeyType is the key for storing the Runner in the context.
type runnerKeyType string

const runnerKey runnerKeyType = "runner"

// Runner performs one audit. It allows tests to inject a fake.
type Runner interface {
	Run(ctx context.Context) (app.Result, error)
	Close()
}

// newRunner is the application factory. It's a variable so tests can
// replace it and exercise the CLI without network access.
var newRunner = func(ctx context.Context, cfg config.Config, logger *zap.Logger, stdout, stderr io.Writer) (Runner, error) {
	return app.NewApp(ctx, cfg, logger, stdout, stderr)
}

// newRootCmd creates the root command. Running it without a subcommand
// performs an audit.
func newRootCmd(v *viper.Viper) *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "site-audit",
		Short: "Audits a multi-locale site's indexing structure and gates deployments on it.",
		Long: `site-audit crawls a live multi-locale site, reconciles what it finds with the
indexing policy and the XML sitemap, writes a JSON and a CSV report and exits
non-zero when any gate rule fails.`,
		SilenceUsage:  true,
		SilenceErrors: true,

		// Configuration is loaded and validated here, before any network
		// activity.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v, cfgFile)
			if err != nil {
				return err
			}
			logger, err := logging.New(logging.Options{
				Development: cfg.Logging.Development,
				Level:       cfg.Logging.Level,
			})
			if err != nil {
				return err
			}
			runner, err := newRunner(cmd.Context(), cfg, logger, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), runnerKey, runner))
			return nil
		},

		RunE: runAudit,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (YAML, JSON or TOML)")
	flags.String("baseUrl", "https://onecompany.global", "site to audit; reduced to its origin")
	flags.StringSlice("locales", []string{"ua", "en"}, "comma-separated locales to audit")
	flags.Int("maxDepth", 4, "maximum crawl depth from the seeds")

	for key, name := range map[string]string{
		"site.base_url":   "baseUrl",
		"site.locales":    "locales",
		"audit.max_depth": "maxDepth",
	} {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", name, err))
		}
	}

	cmd.AddCommand(newAuditCmd())
	return cmd
}

// Execute runs the CLI against the process arguments and returns the exit
// code: 0 when the gate passed, 1 on gate failures or any other error.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(config.NewViper())
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, app.ErrGateFailed) {
			fmt.Fprintf(stderr, "Audit failed: %v\n", err)
		}
		return 1
	}
	return 0
}
