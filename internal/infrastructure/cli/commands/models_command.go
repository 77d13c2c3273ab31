package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/doeshing/sqlchat/internal/app"
	configapp "github.com/doeshing/sqlchat/internal/application/config"
	"github.com/doeshing/sqlchat/internal/domain"
)

// NewModelsCommand creates the models command with all subcommands
func NewModelsCommand(container *app.Container) *cobra.Command {
	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "Inspect and select the agent's model",
	}

	modelsCmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List configured models",
			RunE: func(cmd *cobra.Command, args []string) error {
				return listModels(cmd.Context(), cmd.OutOrStdout(), container)
			},
		},
		&cobra.Command{
			Use:   "use <name>",
			Short: "Set the model the agent uses",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := setActiveModel(cmd.Context(), container, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Agent model set to %s\n", args[0])
				return nil
			},
		},
	)

	return modelsCmd
}

func listModels(ctx context.Context, out io.Writer, container *app.Container) error {
	cfg, err := container.ConfigProvider.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	active, _ := cfg.ActiveModel()
	for _, model := range cfg.Models {
		marker := " "
		if model.Name == active.Name {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %s (%s) %s%s\n", marker, model.Name, model.Provider, model.ModelID, credentialNote(container, model))
	}
	return nil
}

func credentialNote(container *app.Container, model domain.ModelDefinition) string {
	if container.ModelFactory == nil || container.ModelFactory.HasCredentials(model) {
		return ""
	}
	return " [missing API key]"
}

func setActiveModel(ctx context.Context, container *app.Container, name string) error {
	if container.ConfigLoader == nil {
		return errors.New(ErrConfigLoaderUnavailable)
	}
	cfg, err := container.ConfigProvider.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if !cfg.HasModel(name) {
		return fmt.Errorf("model %s not found in configuration", name)
	}
	cfg.Agent.Model = name
	if err := configapp.Validate(cfg); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if err := container.ConfigLoader.Save(cfg); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	return nil
}
