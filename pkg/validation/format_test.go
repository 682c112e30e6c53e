package validation

import "testing"

func TestValidateOutputFormat(t *testing.T) {
	tests := []struct {
		name      string
		format    string
		expectErr bool
	}{
		{
			name:      "Valid pretty format",
			format:    "pretty",
			expectErr: false,
		},
		{
			name:      "Valid csv format",
			format:    "csv",
			expectErr: false,
		},
		{
			name:      "Valid geojson format",
			format:    "geojson",
			expectErr: false,
		},
		{
			name:      "Empty format",
			format:    "",
			expectErr: true,
		},
		{
			name:      "Case sensitive - uppercase",
			format:    "PRETTY",
			expectErr: true,
		},
		{
			name:      "Leading/trailing spaces",
			format:    " csv ",
			expectErr: true,
		},
		{
			name:      "Spreadsheet is an export format only",
			format:    "xlsx",
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format)
			if tt.expectErr && err == nil {
				t.Errorf("ValidateOutputFormat(%q) expected error, got nil", tt.format)
			}
			if !tt.expectErr && err != nil {
				t.Errorf("ValidateOutputFormat(%q) unexpected error: %v", tt.format, err)
			}
		})
	}
}

func TestValidateExportFormat(t *testing.T) {
	tests := []struct {
		format    string
		expectErr bool
	}{
		{"csv", false},
		{"xlsx", false},
		{"pretty", true},
		{"geojson", true},
		{"XLSX", true},
	}

	for _, tt := range tests {
		err := ValidateExportFormat(tt.format)
		if tt.expectErr && err == nil {
			t.Errorf("ValidateExportFormat(%q) expected error, got nil", tt.format)
		}
		if !tt.expectErr && err != nil {
			t.Errorf("ValidateExportFormat(%q) unexpected error: %v", tt.format, err)
		}
	}
}
