// Package testutil provides common fixtures for testing.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// CSV is a small course extract: three municipalities with courses, one
// of them spelled with surrounding space and lower case, plus the unnamed
// index column pandas writes.
const CSV = `,Nº LOTE,Município,CURSO,qtd_turmas,qtd_inscritos,qtd_vagas,qtd_concludentes
0,L1,FORTALEZA,PADEIRO,2,40,30,25
1,L1,FORTALEZA,ELETRICISTA,1,20,20,15
2,L2, fortaleza ,PADEIRO,3,60,45,40
3,L2,CAUCAIA,PADEIRO,1,25,20,
4,L3,SOBRAL,ELETRICISTA,4,100,80,90
5,L3,SOBRAL,COSTUREIRO,x,10,10,5
`

// GeoJSON holds four municipalities drawn as axis-aligned squares. CAUCAIA
// shares its east edge (lng -38.65) with FORTALEZA's west edge, SOBRAL is a
// MultiPolygon and QUIXADÁ has no courses in CSV.
const GeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"NM_MUN": "FORTALEZA", "CD_MUN": "2304400"},
     "geometry": {"type": "Polygon", "coordinates": [[[-38.65,-3.90],[-38.40,-3.90],[-38.40,-3.70],[-38.65,-3.70],[-38.65,-3.90]]]}},
    {"type": "Feature", "properties": {"NM_MUN": "CAUCAIA", "CD_MUN": "2303709"},
     "geometry": {"type": "Polygon", "coordinates": [[[-38.90,-3.90],[-38.65,-3.90],[-38.65,-3.70],[-38.90,-3.70],[-38.90,-3.90]]]}},
    {"type": "Feature", "properties": {"NM_MUN": "Sobral", "CD_MUN": "2312908"},
     "geometry": {"type": "MultiPolygon", "coordinates": [
       [[[-40.50,-3.80],[-40.20,-3.80],[-40.20,-3.50],[-40.50,-3.50],[-40.50,-3.80]]],
       [[[-40.00,-3.40],[-39.90,-3.40],[-39.90,-3.30],[-40.00,-3.30],[-40.00,-3.40]]]
     ]}},
    {"type": "Feature", "properties": {"NM_MUN": "QUIXADÁ", "CD_MUN": "2311306"},
     "geometry": {"type": "Polygon", "coordinates": [[[-39.10,-5.10],[-38.90,-5.10],[-38.90,-4.90],[-39.10,-4.90],[-39.10,-5.10]]]}}
  ]
}`

// WriteFile writes content to name inside a temporary directory owned by t
// and returns the full path.
func WriteFile(t testing.TB, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write fixture %s: %v", name, err)
	}
	return path
}

// WriteDataFiles writes CSV and GeoJSON into one temporary directory and
// returns their paths.
func WriteDataFiles(t testing.TB) (csvPath, geoPath string) {
	t.Helper()
	dir := t.TempDir()
	csvPath = filepath.Join(dir, "cursos.csv")
	geoPath = filepath.Join(dir, "municipios.geojson")
	if err := os.WriteFile(csvPath, []byte(CSV), 0o600); err != nil {
		t.Fatalf("failed to write csv fixture: %v", err)
	}
	if err := os.WriteFile(geoPath, []byte(GeoJSON), 0o600); err != nil {
		t.Fatalf("failed to write geojson fixture: %v", err)
	}
	return csvPath, geoPath
}
