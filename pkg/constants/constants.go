// Package constants provides shared constants for the qualificacao dashboard.
package constants

// Source data column names as exported by the course planning spreadsheet.
const (
	ColumnLot          = "Nº LOTE"
	ColumnMunicipality = "Município"
	ColumnCourse       = "CURSO"
	ColumnClasses      = "qtd_turmas"
	ColumnEnrolled     = "qtd_inscritos"
	ColumnVacancies    = "qtd_vagas"
	ColumnCompletions  = "qtd_concludentes"
)

// GeoJSON property keys.
const (
	// DefaultNameProperty is the feature property holding the municipality name
	DefaultNameProperty = "NM_MUN"

	// ValueProperty receives the aggregated value of the selected layer
	ValueProperty = "VALOR"

	// FillProperty receives the fill color of the selected layer
	FillProperty = "fill"
)

// Color constants
const (
	// AbsentColor marks municipalities without data
	AbsentColor = "#e0e0e0"

	// PresentColor marks municipalities with at least one course
	PresentColor = "#238b45"

	// StrokeColor is the outline color of every municipality
	StrokeColor = "#333"
)

// Map defaults
const (
	// DefaultCenterLat and DefaultCenterLng center the map on Ceará
	DefaultCenterLat = -5.3159
	DefaultCenterLng = -39.2129

	// DefaultZoom is the initial zoom level
	DefaultZoom = 7

	// DefaultTiles is the base layer
	DefaultTiles = "CartoDB positron"

	// DefaultResolverTolerance is the buffer in degrees around a click (~10m)
	DefaultResolverTolerance = 0.0001
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatGeoJSON is the annotated feature collection
	OutputFormatGeoJSON = "geojson"

	// ExportFormatXLSX is the spreadsheet extract format
	ExportFormatXLSX = "xlsx"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// DefaultCSVPath is the default course completion table
	DefaultCSVPath = "data/agrupado_cursos_concluidos_em_execucao_sem_sebrae.csv"

	// DefaultGeoJSONPath is the default municipality boundary file
	DefaultGeoJSONPath = "data/municipios_latlon.geojson"

	// EnvPrefix prefixes environment overrides of the dashboard configuration
	EnvPrefix = "QUALIFICACAO"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the web UI
	DefaultServerAddress = ":8080"

	// DefaultSessionTTL is how long an idle browser session keeps its selections
	DefaultSessionTTL = "30m"

	// SessionCookieName carries the session id
	SessionCookieName = "qd_session"

	// DefaultSweepSchedule is the cron spec for expiring idle sessions
	DefaultSweepSchedule = "@every 1m"

	// DefaultTopMunicipalities is how many municipalities the summary ranks
	DefaultTopMunicipalities = 10
)
