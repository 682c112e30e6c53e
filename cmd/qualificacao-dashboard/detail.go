package main

import (
	"fmt"
	"io"
	"os"

	"github.com/iwvelando/qualificacao-dashboard/internal/report"
	"github.com/iwvelando/qualificacao-dashboard/pkg/constants"
	"github.com/iwvelando/qualificacao-dashboard/pkg/validation"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newDetailCmd(a *app) *cobra.Command {
	var format, out string

	cmd := &cobra.Command{
		Use:   "detail <municipality>",
		Short: "Write the course extract of a municipality",
		Long: "Write the course extract of a municipality. The file is named\n" +
			"<MUNICIPIO>_detalhamento.<format> unless --out is given; --out - writes to stdout.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validation.ValidateExportFormat(format); err != nil {
				return err
			}

			svc, logger, err := a.loadDashboard()
			if err != nil {
				return err
			}
			defer func() {
				_ = logger.Sync()
			}()

			detail, err := svc.Detail(args[0])
			if err != nil {
				return err
			}

			if out == "" {
				out = report.FileName(detail.Municipality, format)
			}
			var w io.Writer = cmd.OutOrStdout()
			if out != "-" {
				file, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", out, err)
				}
				defer func() {
					if closeErr := file.Close(); closeErr != nil {
						logger.Warn("failed to close extract",
							zap.String("op", "main.detail"),
							zap.Error(closeErr),
						)
					}
				}()
				w = file
			}

			if format == constants.ExportFormatXLSX {
				err = report.WriteXLSX(w, detail)
			} else {
				err = report.WriteCSV(w, detail)
			}
			if err != nil {
				return err
			}

			logger.Info("extract written",
				zap.String("op", "main.detail"),
				zap.String("municipality", detail.Municipality),
				zap.String("file", out),
				zap.Int("rows", len(detail.Rows)),
			)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", constants.OutputFormatCSV, "extract format: csv, xlsx")
	cmd.Flags().StringVar(&out, "out", "", "output file (- for stdout)")
	return cmd
}
