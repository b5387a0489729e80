package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
)

// newAuditCmd creates the 'audit' subcommand. It is equivalent to running
// the root command and exists so pipelines can name the action explicitly.
func newAuditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Crawl the site, write the report and evaluate the gate",
		Args:  cobra.NoArgs,
		RunE:  runAudit,
	}
}

func runAudit(cmd *cobra.Command, _ []string) error {
	runner, err := resolveRunner(cmd.Context())
	if err != nil {
		return err
	}
	defer runner.Close()
	_, err = runner.Run(cmd.Context())
	return err
}

func resolveRunner(ctx context.Context) (Runner, error) {
	runner, ok := ctx.Value(runnerKey).(Runner)
	if !ok || runner == nil {
		return nil, errors.New("application services not initialized")
	}
	return runner, nil
}
