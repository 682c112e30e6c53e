package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/iwvelando/qualificacao-dashboard/internal/metric"
	"github.com/iwvelando/qualificacao-dashboard/pkg/constants"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadConfiguration(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantError bool
	}{
		{
			name: "Valid configuration",
			content: `
data:
  csvPath: cursos.csv
  geojsonPath: municipios.geojson
map:
  zoom: 8
  defaultLayer: Cursos por Município
layers:
  cursos:
    breakpoints: [1, 3, 6]
    floor: 12
    palette: Greens_05
`,
		},
		{
			name: "Unknown layer key",
			content: `
layers:
  vagas:
    breakpoints: [1, 2]
    floor: 2
    palette: Greens_05
`,
			wantError: true,
		},
		{
			name: "Binary layer cannot take a policy",
			content: `
layers:
  qualificacao:
    breakpoints: [1, 2]
    floor: 2
    palette: Greens_05
`,
			wantError: true,
		},
		{
			name: "Descending breakpoints",
			content: `
layers:
  turmas:
    breakpoints: [10, 5]
    floor: 10
    palette: Greens_05
`,
			wantError: true,
		},
		{
			name: "Unknown palette",
			content: `
layers:
  turmas:
    palette: Blues_09
`,
			wantError: true,
		},
		{
			name: "Invalid log level",
			content: `
logging:
  level: verbose
`,
			wantError: true,
		},
		{
			name: "Zoom out of range",
			content: `
map:
  zoom: 40
`,
			wantError: true,
		},
		{
			name:      "Malformed YAML",
			content:   "data: [",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := LoadConfiguration(writeConfig(t, tt.content))
			if tt.wantError {
				if err == nil {
					t.Errorf("LoadConfiguration() expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadConfiguration() error = %v", err)
			}
			if config.Data.CSVPath != "cursos.csv" {
				t.Errorf("Expected csvPath cursos.csv, got %q", config.Data.CSVPath)
			}
			if config.Map.Zoom != 8 {
				t.Errorf("Expected zoom 8, got %d", config.Map.Zoom)
			}
			if config.DefaultLayer() != metric.Courses {
				t.Errorf("Expected default layer %s, got %s", metric.Courses, config.DefaultLayer())
			}
			courses := config.Policies()[metric.Courses]
			if len(courses.Breakpoints) != 3 || courses.Floor != 12 {
				t.Errorf("Expected overridden courses policy, got %+v", courses)
			}
			if _, ok := config.Policies()[metric.Completions]; !ok {
				t.Errorf("Expected default completions policy to survive a partial override")
			}
		})
	}
}

func TestLoadConfigurationMissingFile(t *testing.T) {
	if _, err := LoadConfiguration("nonexistent.yaml"); err == nil {
		t.Errorf("LoadConfiguration() expected error but got none")
	}
}

func TestLoadConfigurationDefaults(t *testing.T) {
	config, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	if config.Data.CSVPath != constants.DefaultCSVPath {
		t.Errorf("Expected default csv path, got %q", config.Data.CSVPath)
	}
	if config.Data.NameProperty != constants.DefaultNameProperty {
		t.Errorf("Expected name property %s, got %q", constants.DefaultNameProperty, config.Data.NameProperty)
	}
	if config.Map.CenterLat != constants.DefaultCenterLat || config.Map.Zoom != constants.DefaultZoom {
		t.Errorf("Unexpected map defaults: %+v", config.Map)
	}
	if config.Resolver.Tolerance != constants.DefaultResolverTolerance {
		t.Errorf("Expected tolerance %v, got %v", constants.DefaultResolverTolerance, config.Resolver.Tolerance)
	}
	if config.DefaultLayer() != metric.Qualified {
		t.Errorf("Expected default layer %s, got %s", metric.Qualified, config.DefaultLayer())
	}
	if len(config.Policies()) != 3 {
		t.Errorf("Expected 3 layer policies, got %d", len(config.Policies()))
	}
	if config.Logging.Level != "info" || config.Logging.Format != "console" {
		t.Errorf("Unexpected logging defaults: %+v", config.Logging)
	}
}

func TestEnvironmentOverride(t *testing.T) {
	t.Setenv("QUALIFICACAO_RESOLVER_TOLERANCE", "0.001")
	t.Setenv("QUALIFICACAO_DATA_CSVPATH", "/srv/cursos.csv")

	config, err := LoadConfiguration(writeConfig(t, "data:\n  csvPath: cursos.csv\n"))
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	if config.Resolver.Tolerance != 0.001 {
		t.Errorf("Expected tolerance 0.001 from environment, got %v", config.Resolver.Tolerance)
	}
	if config.Data.CSVPath != "/srv/cursos.csv" {
		t.Errorf("Expected csv path from environment, got %q", config.Data.CSVPath)
	}
}

func TestDotEnvNextToConfig(t *testing.T) {
	path := writeConfig(t, "")
	envFile := filepath.Join(filepath.Dir(path), ".env")
	if err := os.WriteFile(envFile, []byte("QUALIFICACAO_MAP_ZOOM=9\n"), 0o600); err != nil {
		t.Fatalf("failed to write .env: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Unsetenv("QUALIFICACAO_MAP_ZOOM")
	})

	config, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if config.Map.Zoom != 9 {
		t.Errorf("Expected zoom 9 from .env, got %d", config.Map.Zoom)
	}
}

func TestDashboardOptions(t *testing.T) {
	config, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	opts := config.DashboardOptions()
	if opts.CSVPath != config.Data.CSVPath || opts.GeoJSONPath != config.Data.GeoJSONPath {
		t.Errorf("Paths not carried over: %+v", opts)
	}
	if opts.Tolerance != constants.DefaultResolverTolerance {
		t.Errorf("Expected tolerance %v, got %v", constants.DefaultResolverTolerance, opts.Tolerance)
	}
	if len(opts.Policies) != 3 {
		t.Errorf("Expected 3 policies, got %d", len(opts.Policies))
	}
}
