// Package server serves the dashboard page and its JSON API.
package server

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/iwvelando/qualificacao-dashboard/internal/dashboard"
	"github.com/iwvelando/qualificacao-dashboard/internal/geo"
	"github.com/iwvelando/qualificacao-dashboard/internal/metric"
	"github.com/iwvelando/qualificacao-dashboard/internal/observability"
	"github.com/iwvelando/qualificacao-dashboard/internal/report"
	"github.com/iwvelando/qualificacao-dashboard/internal/session"
	"github.com/iwvelando/qualificacao-dashboard/pkg/constants"
	"go.uber.org/zap"
)

//go:embed static/*
var staticFiles embed.FS

// maxClickBody bounds the click payload; clicks carry one feature's
// properties at most.
const maxClickBody = 1 << 20

// MapSettings is the initial map view sent to the page.
type MapSettings struct {
	CenterLat    float64      `json:"centerLat"`
	CenterLng    float64      `json:"centerLng"`
	Zoom         int          `json:"zoom"`
	Tiles        string       `json:"tiles"`
	DefaultLayer metric.Layer `json:"defaultLayer"`
}

// Options wires the handler to the dashboard.
type Options struct {
	Dashboard *dashboard.Service
	Sessions  *session.Store
	Metrics   *observability.Metrics
	Map       MapSettings
	Version   string
}

type handler struct {
	logger    *zap.Logger
	dashboard *dashboard.Service
	sessions  *session.Store
	metrics   *observability.Metrics
	view      MapSettings
	version   string
}

// NewHandler constructs the HTTP handler that serves the web UI and dashboard API.
func NewHandler(logger *zap.Logger, opts Options) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	trimmedVersion := strings.TrimSpace(opts.Version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	view := opts.Map
	if !view.DefaultLayer.Valid() {
		view.DefaultLayer = metric.Qualified
	}

	h := &handler{
		logger:    logger,
		dashboard: opts.Dashboard,
		sessions:  opts.Sessions,
		metrics:   opts.Metrics,
		view:      view,
		version:   trimmedVersion,
	}

	mux := http.NewServeMux()

	// Page bootstrap: map defaults, layers and course filter values
	mux.HandleFunc("GET /api/config", h.handleConfig)

	// Choropleth layers
	mux.HandleFunc("GET /api/layers/{layer}", h.handleLayer)

	// Click resolution and the detail dialog lock
	mux.HandleFunc("POST /api/click", h.handleClick)
	mux.HandleFunc("DELETE /api/session/selection", h.handleClearSelection)

	// Headline numbers
	mux.HandleFunc("GET /api/summary", h.handleSummary)

	// Municipality detail and extracts
	mux.HandleFunc("GET /api/municipalities/{name}", h.handleDetail)
	mux.HandleFunc("GET /api/municipalities/{name}/export.csv", h.handleExportCSV)
	mux.HandleFunc("GET /api/municipalities/{name}/export.xlsx", h.handleExportXLSX)
	mux.HandleFunc("GET /api/municipalities/{name}/charts/{chart}", h.handleChart)

	// Version endpoint for UI metadata
	mux.HandleFunc("GET /api/version", h.handleVersion)
	mux.HandleFunc("GET /healthz", h.handleHealth)
	if opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics.Handler())
	}

	// Static assets (web UI)
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(fmt.Sprintf("failed to prepare embedded static files: %v", err))
	}
	mux.Handle("GET /", http.FileServer(http.FS(sub)))

	return AccessLog(logger, opts.Metrics)(mux)
}

type configResponse struct {
	Map     MapSettings           `json:"map"`
	Layers  []dashboard.LayerInfo `json:"layers"`
	Courses []string              `json:"courses"`
	Session session.State         `json:"session"`
	Version string                `json:"version"`
}

type clickRequest struct {
	Layer  *string `json:"layer"`
	Course *string `json:"course"`
}

type clickResponse struct {
	Resolved     bool       `json:"resolved"`
	Municipality string     `json:"municipality,omitempty"`
	Method       geo.Method `json:"method,omitempty"`
	Value        float64    `json:"value"`
	Known        bool       `json:"known"`
	Open         bool       `json:"open"`
}

func (h *handler) handleConfig(w http.ResponseWriter, r *http.Request) {
	state := h.session(w, r)
	h.writeJSON(w, http.StatusOK, configResponse{
		Map:     h.view,
		Layers:  h.dashboard.Layers(),
		Courses: h.dashboard.Courses(),
		Session: state,
		Version: h.version,
	})
}

func (h *handler) handleLayer(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleLayer"

	layer, err := metric.ParseLayer(r.PathValue("layer"))
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	course := strings.TrimSpace(r.URL.Query().Get("course"))

	state := h.session(w, r)
	if _, err := h.sessions.SetView(state.ID, layer, course); err != nil {
		h.logger.Warn("failed to store session view",
			zap.String("op", op),
			zap.String("session", state.ID),
			zap.Error(err),
		)
	}

	view, err := h.dashboard.Layer(layer, course)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, err.Error(), op)
		return
	}

	h.logger.Debug("layer rendered",
		zap.String("op", op),
		zap.String("layer", string(layer)),
		zap.String("course", course),
		zap.Int("features", len(view.Features.Features)),
	)
	h.writeJSON(w, http.StatusOK, view)
}

func (h *handler) handleClick(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleClick"

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxClickBody))
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to read click: %v", err), op)
		return
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode click: %v", err), op)
		return
	}
	var req clickRequest
	_ = json.Unmarshal(body, &req)

	state := h.session(w, r)
	layer, course := state.Layer, state.Course
	if req.Layer != nil {
		if layer, err = metric.ParseLayer(*req.Layer); err != nil {
			h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
			return
		}
	}
	if req.Course != nil {
		course = strings.TrimSpace(*req.Course)
	}

	click, ok := h.dashboard.Resolve(layer, course, geo.ParseClick(payload))
	if !ok {
		h.metrics.Click("none", "unresolved")
		h.writeJSON(w, http.StatusOK, clickResponse{})
		return
	}

	open, err := h.sessions.Select(state.ID, click.Municipality)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, err.Error(), op)
		return
	}
	outcome := "duplicate"
	if open {
		outcome = "opened"
	}
	h.metrics.Click(string(click.Method), outcome)

	h.logger.Debug("click resolved",
		zap.String("op", op),
		zap.String("municipality", click.Municipality),
		zap.String("method", string(click.Method)),
		zap.Bool("open", open),
	)
	h.writeJSON(w, http.StatusOK, clickResponse{
		Resolved:     true,
		Municipality: click.Municipality,
		Method:       click.Method,
		Value:        click.Value,
		Known:        click.Known,
		Open:         open,
	})
}

func (h *handler) handleClearSelection(w http.ResponseWriter, r *http.Request) {
	state := h.session(w, r)
	if err := h.sessions.ClearSelection(state.ID); err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, err.Error(), "server.handleClearSelection")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	course := strings.TrimSpace(r.URL.Query().Get("course"))
	h.writeJSON(w, http.StatusOK, h.dashboard.Summary(course))
}

func (h *handler) handleDetail(w http.ResponseWriter, r *http.Request) {
	detail, ok := h.detail(w, r, "server.handleDetail")
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, detail)
}

func (h *handler) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleExportCSV"

	detail, ok := h.detail(w, r, op)
	if !ok {
		return
	}
	filename := report.FileName(detail.Municipality, constants.OutputFormatCSV)
	if h.sendRendered(w, op, "text/csv; charset=utf-8", filename, func(out io.Writer) error {
		return report.WriteCSV(out, detail)
	}) {
		h.metrics.Exported(constants.OutputFormatCSV)
	}
}

func (h *handler) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleExportXLSX"

	detail, ok := h.detail(w, r, op)
	if !ok {
		return
	}
	filename := report.FileName(detail.Municipality, constants.ExportFormatXLSX)
	if h.sendRendered(w, op, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", filename, func(out io.Writer) error {
		return report.WriteXLSX(out, detail)
	}) {
		h.metrics.Exported(constants.ExportFormatXLSX)
	}
}

func (h *handler) handleChart(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleChart"

	kind, err := report.ParseChartKind(strings.TrimSuffix(r.PathValue("chart"), ".png"))
	if err != nil {
		h.respondErrorWithOp(w, http.StatusNotFound, err.Error(), op)
		return
	}
	detail, ok := h.detail(w, r, op)
	if !ok {
		return
	}

	if h.sendRendered(w, op, "image/png", "", func(out io.Writer) error {
		return report.Chart(out, detail, kind)
	}) {
		h.metrics.Exported("png")
	}
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "healthy",
		"loadedAt": h.dashboard.LoadedAt().UTC(),
	})
}

// detail loads the municipality named in the path, answering 404 itself
// when it has no courses.
func (h *handler) detail(w http.ResponseWriter, r *http.Request, op string) (report.Detail, bool) {
	detail, err := h.dashboard.Detail(r.PathValue("name"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, dashboard.ErrUnknownMunicipality) {
			status = http.StatusNotFound
		}
		h.respondErrorWithOp(w, status, err.Error(), op)
		return report.Detail{}, false
	}
	return detail, true
}

// session returns the caller's session, issuing a new cookie when the
// request carries none or an expired one.
func (h *handler) session(w http.ResponseWriter, r *http.Request) session.State {
	var id string
	if cookie, err := r.Cookie(constants.SessionCookieName); err == nil {
		id = cookie.Value
	}

	state, created := h.sessions.Ensure(id)
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     constants.SessionCookieName,
			Value:    state.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return state
}

// sendRendered renders the whole body before answering so a failed render
// becomes a JSON 500 instead of a truncated 200. A non-empty filename marks
// the response as a download.
func (h *handler) sendRendered(w http.ResponseWriter, op, contentType, filename string, render func(io.Writer) error) bool {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to render response: %v", err), op)
		return false
	}

	w.Header().Set("Content-Type", contentType)
	if filename != "" {
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	}
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Warn("failed to send response",
			zap.String("op", op),
			zap.Error(err),
		)
	}
	return true
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	if h.logger != nil {
		h.logger.Error("dashboard request failed",
			zap.String("op", op),
			zap.Int("status", status),
			zap.String("error", msg),
		)
	}

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil && h.logger != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
