// Package config defines the dashboard configuration and loads it from a
// YAML file, a .env file and QUALIFICACAO_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/iwvelando/qualificacao-dashboard/internal/choropleth"
	"github.com/iwvelando/qualificacao-dashboard/internal/dashboard"
	"github.com/iwvelando/qualificacao-dashboard/internal/metric"
	"github.com/iwvelando/qualificacao-dashboard/pkg/constants"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for the dashboard.
type Configuration struct {
	Data     DataConfig                   `mapstructure:"data" yaml:"data"`
	Map      MapConfig                    `mapstructure:"map" yaml:"map"`
	Resolver ResolverConfig               `mapstructure:"resolver" yaml:"resolver"`
	Layers   map[string]choropleth.Policy `mapstructure:"layers" yaml:"layers" validate:"dive"`
	Logging  LoggingConfig                `mapstructure:"logging" yaml:"logging,omitempty"`
	Output   OutputConfig                 `mapstructure:"output" yaml:"output,omitempty"`
}

// DataConfig locates the input files.
type DataConfig struct {
	CSVPath      string `mapstructure:"csvPath" yaml:"csvPath" validate:"required"`
	GeoJSONPath  string `mapstructure:"geojsonPath" yaml:"geojsonPath" validate:"required"`
	NameProperty string `mapstructure:"nameProperty" yaml:"nameProperty" validate:"required"`
	Watch        bool   `mapstructure:"watch" yaml:"watch"` // reload on file change
}

// MapConfig holds the initial map view.
type MapConfig struct {
	CenterLat    float64 `mapstructure:"centerLat" yaml:"centerLat" validate:"gte=-90,lte=90"`
	CenterLng    float64 `mapstructure:"centerLng" yaml:"centerLng" validate:"gte=-180,lte=180"`
	Zoom         int     `mapstructure:"zoom" yaml:"zoom" validate:"gte=0,lte=22"`
	Tiles        string  `mapstructure:"tiles" yaml:"tiles" validate:"required"`
	DefaultLayer string  `mapstructure:"defaultLayer" yaml:"defaultLayer"`
}

// ResolverConfig tunes click resolution.
type ResolverConfig struct {
	Tolerance float64 `mapstructure:"tolerance" yaml:"tolerance" validate:"gte=0,lte=1"` // degrees
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level,omitempty" validate:"omitempty,oneof=debug info warn error"`
	Format     string `mapstructure:"format" yaml:"format,omitempty" validate:"omitempty,oneof=json console"`
	OutputFile string `mapstructure:"outputFile" yaml:"outputFile,omitempty"` // optional file output
	MaxSizeMB  int    `mapstructure:"maxSizeMB" yaml:"maxSizeMB,omitempty" validate:"gte=0"`
	MaxBackups int    `mapstructure:"maxBackups" yaml:"maxBackups,omitempty" validate:"gte=0"`
	MaxAgeDays int    `mapstructure:"maxAgeDays" yaml:"maxAgeDays,omitempty" validate:"gte=0"`
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format,omitempty" validate:"omitempty,oneof=pretty csv geojson"`
}

// LoadConfiguration loads the YAML configuration at configPath. An empty
// path loads the defaults. Environment variables such as
// QUALIFICACAO_RESOLVER_TOLERANCE override file values, and a .env file in
// the working directory or next to the config file is read first.
func LoadConfiguration(configPath string) (*Configuration, error) {
	loadDotEnv(configPath)

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file, %w", err)
		}
	}

	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}

	if err := configuration.Validate(); err != nil {
		return nil, err
	}
	return &configuration, nil
}

func loadDotEnv(configPath string) {
	candidates := []string{".env"}
	if configPath != "" {
		candidates = append(candidates, filepath.Join(filepath.Dir(configPath), ".env"))
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
		}
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data.csvPath", constants.DefaultCSVPath)
	v.SetDefault("data.geojsonPath", constants.DefaultGeoJSONPath)
	v.SetDefault("data.nameProperty", constants.DefaultNameProperty)
	v.SetDefault("data.watch", false)
	v.SetDefault("map.centerLat", constants.DefaultCenterLat)
	v.SetDefault("map.centerLng", constants.DefaultCenterLng)
	v.SetDefault("map.zoom", constants.DefaultZoom)
	v.SetDefault("map.tiles", constants.DefaultTiles)
	v.SetDefault("map.defaultLayer", string(metric.Qualified))
	v.SetDefault("resolver.tolerance", constants.DefaultResolverTolerance)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.outputFile", "")
	v.SetDefault("logging.maxSizeMB", 100)
	v.SetDefault("logging.maxBackups", 3)
	v.SetDefault("logging.maxAgeDays", 28)
	v.SetDefault("output.format", constants.OutputFormatPretty)

	for layer, policy := range choropleth.DefaultPolicies() {
		prefix := "layers." + string(layer) + "."
		v.SetDefault(prefix+"caption", policy.Caption)
		v.SetDefault(prefix+"breakpoints", policy.Breakpoints)
		v.SetDefault(prefix+"floor", policy.Floor)
		v.SetDefault(prefix+"palette", policy.Palette)
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field ranges and that every layer policy can build a scale.
func (c *Configuration) Validate() error {
	if err := validate.Struct(c); err != nil {
		var invalid validator.ValidationErrors
		if errors.As(err, &invalid) {
			fields := make([]string, len(invalid))
			for i, fe := range invalid {
				fields[i] = fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag())
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Map.DefaultLayer != "" {
		if _, err := metric.ParseLayer(c.Map.DefaultLayer); err != nil {
			return fmt.Errorf("map.defaultLayer: %w", err)
		}
	}

	for key, policy := range c.Layers {
		layer, err := metric.ParseLayer(key)
		if err != nil {
			return fmt.Errorf("layers.%s: %w", key, err)
		}
		if layer.Binary() {
			return fmt.Errorf("layers.%s: layer %q has fixed colors", key, layer.Name())
		}
		if err := policy.Validate(); err != nil {
			return fmt.Errorf("layers.%s: %w", key, err)
		}
	}
	return nil
}

// Policies returns the color policies keyed by layer.
func (c *Configuration) Policies() map[metric.Layer]choropleth.Policy {
	policies := make(map[metric.Layer]choropleth.Policy, len(c.Layers))
	for key, policy := range c.Layers {
		if layer, err := metric.ParseLayer(key); err == nil {
			policies[layer] = policy
		}
	}
	return policies
}

// DefaultLayer returns the layer shown first.
func (c *Configuration) DefaultLayer() metric.Layer {
	layer, err := metric.ParseLayer(c.Map.DefaultLayer)
	if err != nil {
		return metric.Qualified
	}
	return layer
}

// DashboardOptions maps the configuration onto the dashboard service.
func (c *Configuration) DashboardOptions() dashboard.Options {
	return dashboard.Options{
		CSVPath:           c.Data.CSVPath,
		GeoJSONPath:       c.Data.GeoJSONPath,
		NameProperty:      c.Data.NameProperty,
		Tolerance:         c.Resolver.Tolerance,
		Policies:          c.Policies(),
		TopMunicipalities: constants.DefaultTopMunicipalities,
	}
}
