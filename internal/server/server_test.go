package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/iwvelando/qualificacao-dashboard/internal/dashboard"
	"github.com/iwvelando/qualificacao-dashboard/internal/metric"
	"github.com/iwvelando/qualificacao-dashboard/internal/observability"
	"github.com/iwvelando/qualificacao-dashboard/internal/report"
	"github.com/iwvelando/qualificacao-dashboard/internal/session"
	"github.com/iwvelando/qualificacao-dashboard/pkg/constants"
	"github.com/iwvelando/qualificacao-dashboard/pkg/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	csvPath, geoPath := testutil.WriteDataFiles(t)
	svc, err := dashboard.New(dashboard.Options{
		CSVPath:     csvPath,
		GeoJSONPath: geoPath,
		Tolerance:   constants.DefaultResolverTolerance,
	}, zap.NewNop(), nil)
	if err != nil {
		t.Fatalf("failed to build dashboard: %v", err)
	}

	return NewHandler(zap.NewNop(), Options{
		Dashboard: svc,
		Sessions:  session.NewStore(time.Hour, metric.Qualified, nil, zap.NewNop()),
		Metrics:   observability.NewMetricsForTesting(),
		Map: MapSettings{
			CenterLat: constants.DefaultCenterLat,
			CenterLng: constants.DefaultCenterLng,
			Zoom:      constants.DefaultZoom,
			Tiles:     constants.DefaultTiles,
		},
		Version: "1.2.3",
	})
}

// client replays the session cookie the handler issues.
type client struct {
	t       *testing.T
	handler http.Handler
	cookie  *http.Cookie
}

func (c *client) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	c.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			c.t.Fatalf("failed to encode body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	rr := httptest.NewRecorder()
	c.handler.ServeHTTP(rr, req)

	for _, cookie := range rr.Result().Cookies() {
		if cookie.Name == constants.SessionCookieName {
			c.cookie = cookie
		}
	}
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to decode response: %v: %s", err, rr.Body.String())
	}
}

func TestHandleConfig(t *testing.T) {
	c := &client{t: t, handler: newTestHandler(t)}

	rr := c.do(http.MethodGet, "/api/config", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if c.cookie == nil {
		t.Fatal("expected a session cookie")
	}

	var resp configResponse
	decode(t, rr, &resp)
	if resp.Map.Zoom != constants.DefaultZoom || resp.Map.Tiles != constants.DefaultTiles {
		t.Fatalf("unexpected map settings: %+v", resp.Map)
	}
	if resp.Map.DefaultLayer != metric.Qualified {
		t.Fatalf("expected default layer %s, got %s", metric.Qualified, resp.Map.DefaultLayer)
	}
	if len(resp.Layers) != 4 {
		t.Fatalf("expected 4 layers, got %d", len(resp.Layers))
	}
	if len(resp.Courses) != 3 {
		t.Fatalf("expected 3 courses, got %v", resp.Courses)
	}
	if resp.Version != "1.2.3" {
		t.Fatalf("expected version 1.2.3, got %s", resp.Version)
	}
}

func TestHandleLayer(t *testing.T) {
	c := &client{t: t, handler: newTestHandler(t)}

	rr := c.do(http.MethodGet, "/api/layers/cursos?course=PADEIRO", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Layer    string `json:"layer"`
		Course   string `json:"course"`
		Legend   struct {
			Caption string `json:"caption"`
			Entries []struct {
				Color string `json:"color"`
			} `json:"entries"`
		} `json:"legend"`
		Features struct {
			Features []struct {
				Properties map[string]interface{} `json:"properties"`
			} `json:"features"`
		} `json:"features"`
	}
	decode(t, rr, &resp)

	if resp.Layer != "cursos" || resp.Course != "PADEIRO" {
		t.Fatalf("unexpected layer echo: %s %s", resp.Layer, resp.Course)
	}
	if resp.Legend.Caption != metric.Courses.Name() {
		t.Fatalf("unexpected caption %q", resp.Legend.Caption)
	}
	if len(resp.Features.Features) != 4 {
		t.Fatalf("expected 4 features, got %d", len(resp.Features.Features))
	}
	for _, f := range resp.Features.Features {
		if f.Properties[constants.FillProperty] == nil || f.Properties[constants.ValueProperty] == nil {
			t.Fatalf("feature missing annotation: %v", f.Properties)
		}
		if f.Properties[constants.DefaultNameProperty] == "Sobral" && f.Properties[constants.FillProperty] != constants.AbsentColor {
			t.Fatalf("expected Sobral absent under the PADEIRO filter, got %v", f.Properties[constants.FillProperty])
		}
	}

	rr = c.do(http.MethodGet, "/api/layers/vagas", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for unknown layer, got %d", rr.Code)
	}
}

func TestHandleClickDeduplicates(t *testing.T) {
	c := &client{t: t, handler: newTestHandler(t)}

	click := map[string]interface{}{"layer": "concludentes", "lat": -3.8, "lng": -38.5}

	var first clickResponse
	decode(t, c.do(http.MethodPost, "/api/click", click), &first)
	if !first.Resolved || first.Municipality != "FORTALEZA" || !first.Open {
		t.Fatalf("expected FORTALEZA to open, got %+v", first)
	}
	if first.Value != 80 {
		t.Fatalf("expected value 80, got %v", first.Value)
	}

	var second clickResponse
	decode(t, c.do(http.MethodPost, "/api/click", map[string]interface{}{
		"properties": map[string]interface{}{"NM_MUN": "Fortaleza"},
	}), &second)
	if !second.Resolved || second.Open {
		t.Fatalf("expected repeated click to stay closed, got %+v", second)
	}

	rr := c.do(http.MethodDelete, "/api/session/selection", nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rr.Code)
	}

	var third clickResponse
	decode(t, c.do(http.MethodPost, "/api/click", click), &third)
	if !third.Open {
		t.Fatalf("expected click after close to open again, got %+v", third)
	}
}

func TestHandleClickUnresolved(t *testing.T) {
	c := &client{t: t, handler: newTestHandler(t)}

	var resp clickResponse
	decode(t, c.do(http.MethodPost, "/api/click", map[string]interface{}{"lat": 0, "lng": 0}), &resp)
	if resp.Resolved || resp.Open {
		t.Fatalf("expected unresolved click, got %+v", resp)
	}
}

func TestHandleClickBadRequest(t *testing.T) {
	handler := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/click", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}

	c := &client{t: t, handler: handler}
	rr = c.do(http.MethodPost, "/api/click", map[string]interface{}{"layer": "bogus", "lat": -3.8, "lng": -38.5})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for unknown layer, got %d", rr.Code)
	}
}

func TestHandleClickUsesSessionLayer(t *testing.T) {
	c := &client{t: t, handler: newTestHandler(t)}

	c.do(http.MethodGet, "/api/layers/turmas?course=ELETRICISTA", nil)

	var resp clickResponse
	decode(t, c.do(http.MethodPost, "/api/click", map[string]interface{}{"NM_MUN": "SOBRAL"}), &resp)
	if resp.Value != 4 {
		t.Fatalf("expected classes of ELETRICISTA in SOBRAL (4), got %v", resp.Value)
	}
}

func TestHandleSummary(t *testing.T) {
	c := &client{t: t, handler: newTestHandler(t)}

	var resp struct {
		Municipalities int `json:"municipalities"`
		Completions    int `json:"completions"`
	}
	decode(t, c.do(http.MethodGet, "/api/summary?course=ELETRICISTA", nil), &resp)
	if resp.Municipalities != 2 || resp.Completions != 105 {
		t.Fatalf("unexpected summary: %+v", resp)
	}
}

func TestHandleDetailAndExports(t *testing.T) {
	c := &client{t: t, handler: newTestHandler(t)}

	rr := c.do(http.MethodGet, "/api/municipalities/sobral", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var detail report.Detail
	decode(t, rr, &detail)
	if detail.Municipality != "SOBRAL" || detail.Completions != 95 {
		t.Fatalf("unexpected detail: %+v", detail)
	}

	rr = c.do(http.MethodGet, "/api/municipalities/sobral/export.csv", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if got := rr.Header().Get("Content-Disposition"); !strings.Contains(got, "SOBRAL_detalhamento.csv") {
		t.Fatalf("unexpected Content-Disposition %q", got)
	}
	if !strings.HasPrefix(rr.Body.String(), "Nº LOTE,Município,CURSO") {
		t.Fatalf("unexpected csv body: %s", rr.Body.String())
	}

	rr = c.do(http.MethodGet, "/api/municipalities/sobral/export.xlsx", nil)
	if rr.Code != http.StatusOK || !bytes.HasPrefix(rr.Body.Bytes(), []byte("PK")) {
		t.Fatalf("expected a zip-based workbook, got status %d", rr.Code)
	}

	rr = c.do(http.MethodGet, "/api/municipalities/sobral/charts/completions.png", nil)
	if rr.Code != http.StatusOK || rr.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("expected png chart, got status %d type %s", rr.Code, rr.Header().Get("Content-Type"))
	}

	rr = c.do(http.MethodGet, "/api/municipalities/sobral/charts/pie.png", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 for unknown chart, got %d", rr.Code)
	}

	rr = c.do(http.MethodGet, "/api/municipalities/ATLANTIDA", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 for unknown municipality, got %d", rr.Code)
	}
}

func TestHandleDetailMapOnlyMunicipality(t *testing.T) {
	c := &client{t: t, handler: newTestHandler(t)}

	rr := c.do(http.MethodPost, "/api/click", map[string]interface{}{
		"properties": map[string]interface{}{"NM_MUN": "QUIXADÁ"},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var click clickResponse
	decode(t, rr, &click)
	if !click.Resolved || !click.Open || click.Municipality != "QUIXADÁ" {
		t.Fatalf("expected the dialog to open for QUIXADÁ, got %+v", click)
	}

	rr = c.do(http.MethodGet, "/api/municipalities/QUIXAD%C3%81", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var detail report.Detail
	decode(t, rr, &detail)
	if detail.DistinctCourses != 0 || detail.Classes != 0 || detail.Completions != 0 || len(detail.Rows) != 0 {
		t.Fatalf("expected zero KPIs, got %+v", detail)
	}

	rr = c.do(http.MethodGet, "/api/municipalities/QUIXAD%C3%81/export.csv", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if lines := strings.Split(strings.TrimSpace(rr.Body.String()), "\n"); len(lines) != 1 {
		t.Fatalf("expected a header-only csv, got %q", rr.Body.String())
	}

	rr = c.do(http.MethodGet, "/api/municipalities/QUIXAD%C3%81/charts/classes.png", nil)
	if rr.Code != http.StatusOK || !bytes.HasPrefix(rr.Body.Bytes(), []byte("\x89PNG")) {
		t.Fatalf("expected an empty png chart, got status %d", rr.Code)
	}

	rr = c.do(http.MethodDelete, "/api/session/selection", nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rr.Code)
	}
}

func TestSendRenderedFailureAnswersJSONError(t *testing.T) {
	h := &handler{logger: zap.NewNop()}
	rr := httptest.NewRecorder()

	ok := h.sendRendered(rr, "server.test", "image/png", "SOBRAL_detalhamento.xlsx", func(out io.Writer) error {
		_, _ = out.Write([]byte("partial"))
		return errors.New("render failed")
	})
	if ok {
		t.Fatalf("expected sendRendered to report failure")
	}
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rr.Code)
	}
	if got := rr.Header().Get("Content-Type"); got != "application/json" {
		t.Fatalf("expected JSON error, got Content-Type %q", got)
	}
	if rr.Header().Get("Content-Disposition") != "" {
		t.Fatalf("expected no attachment header on failure")
	}
	if strings.Contains(rr.Body.String(), "partial") || !strings.Contains(rr.Body.String(), "render failed") {
		t.Fatalf("unexpected body %q", rr.Body.String())
	}
}

func TestSendRenderedSuccess(t *testing.T) {
	h := &handler{logger: zap.NewNop()}
	rr := httptest.NewRecorder()

	ok := h.sendRendered(rr, "server.test", "text/csv; charset=utf-8", "SOBRAL_detalhamento.csv", func(out io.Writer) error {
		_, err := out.Write([]byte("a,b\n"))
		return err
	})
	if !ok || rr.Code != http.StatusOK {
		t.Fatalf("expected success, got ok=%v status %d", ok, rr.Code)
	}
	if rr.Header().Get("Content-Length") != "4" || rr.Body.String() != "a,b\n" {
		t.Fatalf("unexpected response %q (length %s)", rr.Body.String(), rr.Header().Get("Content-Length"))
	}
}

func TestHandleVersionHealthAndMetrics(t *testing.T) {
	c := &client{t: t, handler: newTestHandler(t)}

	var version map[string]string
	decode(t, c.do(http.MethodGet, "/api/version", nil), &version)
	if version["version"] != "1.2.3" {
		t.Fatalf("expected version 1.2.3, got %v", version)
	}

	rr := c.do(http.MethodGet, "/healthz", nil)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "healthy") {
		t.Fatalf("unexpected health response %d: %s", rr.Code, rr.Body.String())
	}

	c.do(http.MethodGet, "/api/layers/turmas", nil)
	rr = c.do(http.MethodGet, "/metrics", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200 from metrics, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `qualificacao_layer_renders_total{layer="turmas"} 1`) {
		t.Fatalf("expected layer render counter in metrics output")
	}
}

func TestHandleMethodNotAllowed(t *testing.T) {
	c := &client{t: t, handler: newTestHandler(t)}

	rr := c.do(http.MethodPut, "/api/click", nil)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", rr.Code)
	}
}

func TestServesIndex(t *testing.T) {
	c := &client{t: t, handler: newTestHandler(t)}

	rr := c.do(http.MethodGet, "/", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "leaflet") {
		t.Fatalf("expected the map page")
	}
}

func TestIndexEscapesDataDerivedText(t *testing.T) {
	c := &client{t: t, handler: newTestHandler(t)}

	page := c.do(http.MethodGet, "/", nil).Body.String()
	if !strings.Contains(page, "function esc(") {
		t.Fatalf("expected an HTML escaping helper in the page")
	}
	for _, raw := range []string{
		"${legend.caption}",
		"${e.label}",
		"${f.properties.NM_MUN}",
		"<td>${",
		"<th>${",
	} {
		if strings.Contains(page, raw) {
			t.Fatalf("page interpolates %q without escaping", raw)
		}
	}
}
