package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ChamsBouzaiene/skyfinder/internal/providers"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models offered by the configured provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		client, provider, err := providers.NewClient(ctx, cfg)
		if err != nil {
			return err
		}
		lister, ok := client.(providers.ModelLister)
		if !ok {
			return fmt.Errorf("provider %s cannot list models", provider)
		}

		models, err := lister.ListModels(ctx)
		if err != nil {
			return fmt.Errorf("failed to list %s models: %w", provider, err)
		}
		for _, m := range models {
			fmt.Fprintln(cmd.OutOrStdout(), m)
		}
		return nil
	},
}
