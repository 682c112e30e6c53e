// Package validation provides common validation utilities.
package validation

import (
	"fmt"

	"github.com/iwvelando/qualificacao-dashboard/pkg/constants"
)

// ValidateOutputFormat checks if the layer output format is one of the supported formats.
func ValidateOutputFormat(format string) error {
	switch format {
	case constants.OutputFormatPretty, constants.OutputFormatCSV, constants.OutputFormatGeoJSON:
		return nil
	}
	return fmt.Errorf("expected output format of %s, %s or %s, got %s",
		constants.OutputFormatPretty, constants.OutputFormatCSV, constants.OutputFormatGeoJSON, format)
}

// ValidateExportFormat checks if the municipality extract format is supported.
func ValidateExportFormat(format string) error {
	if format != constants.OutputFormatCSV && format != constants.ExportFormatXLSX {
		return fmt.Errorf("expected export format of %s or %s, got %s",
			constants.OutputFormatCSV, constants.ExportFormatXLSX, format)
	}
	return nil
}
