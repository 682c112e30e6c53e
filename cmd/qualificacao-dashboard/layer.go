package main

import (
	"fmt"

	"github.com/iwvelando/qualificacao-dashboard/internal/dashboard"
	"github.com/iwvelando/qualificacao-dashboard/internal/metric"
	"github.com/iwvelando/qualificacao-dashboard/pkg/constants"
	"github.com/iwvelando/qualificacao-dashboard/pkg/output"
	"github.com/iwvelando/qualificacao-dashboard/pkg/validation"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// loadDashboard builds a logger and the dashboard service for the one-shot
// commands.
func (a *app) loadDashboard() (*dashboard.Service, *zap.Logger, error) {
	logger, err := initializeLogger(a.conf.Logging, a.logLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	svc, err := dashboard.New(a.conf.DashboardOptions(), logger, nil)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, fmt.Errorf("failed to load dashboard data: %w", err)
	}
	return svc, logger, nil
}

func newLayerCmd(a *app) *cobra.Command {
	var course, format string

	cmd := &cobra.Command{
		Use:   "layer <layer>",
		Short: "Print the value and color of every municipality for a layer",
		Long: "Print the value and color of every municipality for a layer.\n" +
			"Layers: qualificacao, cursos, concludentes, turmas (or their display names).",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			layer, err := metric.ParseLayer(args[0])
			if err != nil {
				return err
			}

			// CLI override takes precedence over config
			if format == "" {
				format = a.conf.Output.Format
			}
			if format == "" {
				format = constants.OutputFormatPretty
			}
			if err := validation.ValidateOutputFormat(format); err != nil {
				return err
			}

			svc, logger, err := a.loadDashboard()
			if err != nil {
				return err
			}
			defer func() {
				_ = logger.Sync()
			}()

			view, err := svc.Layer(layer, course)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch format {
			case constants.OutputFormatPretty:
				output.PrettyFormat(out, view)
				return nil
			case constants.OutputFormatCSV:
				return output.CsvFormat(out, view)
			default:
				return output.GeoJSONFormat(out, view)
			}
		},
	}
	cmd.Flags().StringVar(&course, "course", "", "only count this course")
	cmd.Flags().StringVar(&format, "format", "", "output format: pretty, csv, geojson")
	return cmd
}
