package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"truthlens/internal/services/classifier"
)

func newHealthCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check that the model service is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			svc, err := ctx.service()
			if err != nil {
				return err
			}

			checkCtx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			resp := classifier.HealthResponse{
				Healthy:  svc.CheckHealth(checkCtx),
				Provider: svc.Provider(),
				Model:    svc.Model(),
			}

			if jsonOutput {
				if err := writeJSON(cmd, resp); err != nil {
					return err
				}
			} else {
				status := "reachable"
				if !resp.Healthy {
					status = "unreachable"
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderKeyValues([][2]string{
					{"Provider", resp.Provider},
					{"Endpoint", cfg.EndpointURL()},
					{"Model", resp.Model},
					{"Status", status},
				}))
			}

			if !resp.Healthy {
				return fmt.Errorf("model service at %s is not reachable", cfg.EndpointURL())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the result as JSON")
	return cmd
}
