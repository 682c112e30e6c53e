// Package dashboard ties the course table and the municipality boundaries
// together and answers the questions the map asks: which colors to paint,
// which municipality was clicked and what to show for it.
package dashboard

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/iwvelando/qualificacao-dashboard/internal/choropleth"
	"github.com/iwvelando/qualificacao-dashboard/internal/dataset"
	"github.com/iwvelando/qualificacao-dashboard/internal/geo"
	"github.com/iwvelando/qualificacao-dashboard/internal/metric"
	"github.com/iwvelando/qualificacao-dashboard/internal/observability"
	"github.com/iwvelando/qualificacao-dashboard/internal/report"
	"github.com/iwvelando/qualificacao-dashboard/pkg/constants"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"
)

// ErrUnknownMunicipality is returned by Detail for names found in neither
// the course data nor the map.
var ErrUnknownMunicipality = errors.New("unknown municipality")

// Options locate the data files and tune the layers.
type Options struct {
	CSVPath           string
	GeoJSONPath       string
	NameProperty      string
	Tolerance         float64
	Policies          map[metric.Layer]choropleth.Policy
	TopMunicipalities int
}

// LayerInfo describes a selectable layer.
type LayerInfo struct {
	ID     metric.Layer `json:"id"`
	Name   string       `json:"name"`
	Binary bool         `json:"binary"`
}

// LayerView is a rendered layer: annotated features plus legend.
type LayerView struct {
	Layer    metric.Layer               `json:"layer"`
	Course   string                     `json:"course,omitempty"`
	Legend   choropleth.Legend          `json:"legend"`
	Features *geojson.FeatureCollection `json:"features"`
	Values   metric.Values              `json:"-"`
	Mapper   *choropleth.Mapper         `json:"-"`
	// NameProperty is the feature property holding the municipality name.
	NameProperty string `json:"-"`
}

// Click is a resolved map click.
type Click struct {
	Municipality string     `json:"municipality"`
	Method       geo.Method `json:"method"`
	Value        float64    `json:"value"`
	Known        bool       `json:"known"`
}

type snapshot struct {
	data     *dataset.Dataset
	regions  *geo.Collection
	resolver *geo.Resolver
	loadedAt time.Time
}

// Service serves every dashboard query from an in-memory snapshot of the
// two data files. Reload swaps the snapshot atomically.
type Service struct {
	opts    Options
	logger  *zap.Logger
	metrics *observability.Metrics

	mu   sync.RWMutex
	snap *snapshot
}

// New loads both data files. Failing to load them is an error the caller
// must treat as fatal.
func New(opts Options, logger *zap.Logger, metrics *observability.Metrics) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.NameProperty == "" {
		opts.NameProperty = constants.DefaultNameProperty
	}
	if opts.Policies == nil {
		opts.Policies = choropleth.DefaultPolicies()
	}
	if opts.TopMunicipalities <= 0 {
		opts.TopMunicipalities = constants.DefaultTopMunicipalities
	}
	for layer, policy := range opts.Policies {
		if err := policy.Validate(); err != nil {
			return nil, fmt.Errorf("invalid policy for layer %s: %w", layer, err)
		}
	}

	s := &Service{opts: opts, logger: logger, metrics: metrics}
	snap, err := s.load()
	if err != nil {
		return nil, err
	}
	s.snap = snap
	logger.Info("data loaded",
		zap.String("op", "dashboard.New"),
		zap.Int("records", len(snap.data.Records)),
		zap.Int("municipalities", snap.regions.Len()),
	)
	return s, nil
}

// NewFromData builds a service over data already in memory. Reload is not
// available on such a service.
func NewFromData(data *dataset.Dataset, regions *geo.Collection, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Policies == nil {
		opts.Policies = choropleth.DefaultPolicies()
	}
	if opts.TopMunicipalities <= 0 {
		opts.TopMunicipalities = constants.DefaultTopMunicipalities
	}
	return &Service{
		opts:   opts,
		logger: logger,
		snap: &snapshot{
			data:     data,
			regions:  regions,
			resolver: geo.NewResolver(regions, opts.Tolerance),
			loadedAt: time.Now(),
		},
	}
}

func (s *Service) load() (*snapshot, error) {
	data, err := dataset.Load(s.opts.CSVPath)
	if err != nil {
		return nil, err
	}
	regions, err := geo.Load(s.opts.GeoJSONPath, s.opts.NameProperty)
	if err != nil {
		return nil, err
	}
	return &snapshot{
		data:     data,
		regions:  regions,
		resolver: geo.NewResolver(regions, s.opts.Tolerance),
		loadedAt: time.Now(),
	}, nil
}

// Reload reads both files again. On failure the current snapshot stays in
// place.
func (s *Service) Reload() error {
	if s.opts.CSVPath == "" || s.opts.GeoJSONPath == "" {
		return errors.New("service was not built from files")
	}

	snap, err := s.load()
	s.metrics.Reloaded(err)
	if err != nil {
		s.logger.Error("reload failed, keeping previous data",
			zap.String("op", "dashboard.Reload"),
			zap.Error(err),
		)
		return err
	}

	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()

	s.logger.Info("data reloaded",
		zap.String("op", "dashboard.Reload"),
		zap.Int("records", len(snap.data.Records)),
		zap.Int("municipalities", snap.regions.Len()),
	)
	return nil
}

func (s *Service) current() *snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// LoadedAt is when the current snapshot was read.
func (s *Service) LoadedAt() time.Time {
	return s.current().loadedAt
}

// Layers lists the selectable layers in display order.
func (s *Service) Layers() []LayerInfo {
	layers := metric.Layers()
	infos := make([]LayerInfo, len(layers))
	for i, l := range layers {
		infos[i] = LayerInfo{ID: l, Name: l.Name(), Binary: l.Binary()}
	}
	return infos
}

// Courses lists the distinct course names for the course filter.
func (s *Service) Courses() []string {
	return s.current().data.Courses()
}

// Layer aggregates layer over the rows of course (all rows when empty) and
// paints every municipality boundary.
func (s *Service) Layer(layer metric.Layer, course string) (LayerView, error) {
	snap := s.current()
	values := metric.Aggregate(snap.data.Filter(course), layer)

	mapper, err := choropleth.NewMapper(layer, values, s.opts.Policies)
	if err != nil {
		return LayerView{}, err
	}

	s.metrics.LayerRendered(string(layer))
	return LayerView{
		Layer:    layer,
		Course:   course,
		Legend:   mapper.Legend(),
		Features: geo.Annotate(snap.regions, mapper),
		Values:   values,
		Mapper:   mapper,

		NameProperty: snap.regions.NameProperty,
	}, nil
}

// Resolve identifies the clicked municipality and looks its value up in the
// layer currently shown.
func (s *Service) Resolve(layer metric.Layer, course string, event geo.ClickEvent) (Click, bool) {
	snap := s.current()
	res, ok := snap.resolver.Resolve(event)
	if !ok {
		return Click{}, false
	}

	values := metric.Aggregate(snap.data.Filter(course), layer)
	_, known := snap.regions.Lookup(res.Name)
	return Click{
		Municipality: res.Name,
		Method:       res.Method,
		Value:        values.Get(res.Name),
		Known:        known,
	}, true
}

// Detail returns the detail view of a municipality over every course. A
// municipality drawn on the map without courses gets an empty detail;
// ErrUnknownMunicipality is reserved for names neither source knows.
func (s *Service) Detail(name string) (report.Detail, error) {
	snap := s.current()
	d := report.NewDetail(snap.data, name)
	if d.Empty() {
		if _, known := snap.regions.Lookup(name); !known {
			return d, fmt.Errorf("%w: %s", ErrUnknownMunicipality, d.Municipality)
		}
	}
	return d, nil
}

// Summary returns the headline numbers for course (all courses when empty).
func (s *Service) Summary(course string) dataset.Summary {
	return dataset.Summarize(s.current().data.Filter(course), s.opts.TopMunicipalities)
}
