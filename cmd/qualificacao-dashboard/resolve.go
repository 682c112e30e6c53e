package main

import (
	"fmt"

	"github.com/iwvelando/qualificacao-dashboard/internal/geo"
	"github.com/iwvelando/qualificacao-dashboard/internal/metric"
	"github.com/iwvelando/qualificacao-dashboard/pkg/format"
	"github.com/spf13/cobra"
)

func newResolveCmd(a *app) *cobra.Command {
	var lat, lng float64
	var layerName, course string

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Print the municipality at a coordinate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			layer := a.conf.DefaultLayer()
			if layerName != "" {
				var err error
				if layer, err = metric.ParseLayer(layerName); err != nil {
					return err
				}
			}

			svc, logger, err := a.loadDashboard()
			if err != nil {
				return err
			}
			defer func() {
				_ = logger.Sync()
			}()

			click, ok := svc.Resolve(layer, course, geo.ClickEvent{Lat: &lat, Lng: &lng})
			if !ok {
				return fmt.Errorf("no municipality at %v, %v", lat, lng)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", click.Municipality, layer.Name(), format.Value(click.Value))
			return err
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude in degrees")
	cmd.Flags().Float64Var(&lng, "lng", 0, "longitude in degrees")
	cmd.Flags().StringVar(&layerName, "layer", "", "layer whose value is printed (default from config)")
	cmd.Flags().StringVar(&course, "course", "", "only count this course")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lng")
	return cmd
}
