// cmd/predictor/probe.go
package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"sketch-predictor/internal/models"
	"sketch-predictor/internal/prediction/orchestrator"
	"sketch-predictor/internal/prediction/probe"
)

func probeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Check whether the primary and fallback backends are reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			p := probe.New(a.http, a.cfg.Prediction.ProbeTimeoutDuration(), a.observer)
			primary, fallback := orchestrator.Endpoints(a.cfg)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "BACKEND\tURL\tAVAILABLE")
			for _, ep := range []models.BackendEndpoint{primary, fallback} {
				fmt.Fprintf(w, "%s\t%s\t%t\n", ep.Name, ep.BaseURL, p.Probe(ctx, ep))
			}
			return w.Flush()
		},
	}
}
