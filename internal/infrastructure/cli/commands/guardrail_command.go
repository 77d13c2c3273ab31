package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/doeshing/sqlchat/internal/app"
	"github.com/doeshing/sqlchat/internal/domain"
)

// NewGuardrailCommand creates the guardrail command
func NewGuardrailCommand(container *app.Container) *cobra.Command {
	guardrailCmd := &cobra.Command{
		Use:   "guardrail",
		Short: "Inspect the SQL guardrail",
	}

	guardrailCmd.AddCommand(
		&cobra.Command{
			Use:   "status",
			Short: "Show guardrail status",
			RunE: func(cmd *cobra.Command, args []string) error {
				showGuardrailStatus(cmd.OutOrStdout(), container)
				return nil
			},
		},
		&cobra.Command{
			Use:   "check <sql>",
			Short: "Classify a statement the way the catalog would",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				assessment, err := container.Guardrail.Evaluate(strings.Join(args, " "))
				if err != nil {
					return fmt.Errorf("failed to evaluate statement: %w", err)
				}
				displayAssessment(cmd.OutOrStdout(), assessment)
				return nil
			},
		},
	)

	return guardrailCmd
}

func showGuardrailStatus(out io.Writer, container *app.Container) {
	status := "disabled"
	if container.Config.Security.Enabled {
		status = "enabled"
	}
	fmt.Fprintf(out, "Guardrails are currently %s.\n", status)
	fmt.Fprintf(out, "Rules: %d from %s\n", container.Guardrail.Rules(), container.Guardrail.Source())
}

func displayAssessment(out io.Writer, assessment domain.RiskAssessment) {
	fmt.Fprintf(out, "Risk: %s (%s)\n", strings.ToUpper(string(assessment.Level)), assessment.Action)
	for _, reason := range assessment.Reasons {
		fmt.Fprintf(out, " - %s\n", reason)
	}
}
