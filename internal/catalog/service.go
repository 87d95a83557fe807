package catalog

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"halomock/internal/blob"
	"halomock/pkg/mock"
	"halomock/pkg/model"
	"halomock/pkg/table"
)

// Logger is the minimal logging surface the service writes through.
type Logger interface {
	Printf(format string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Printf(string, ...any) {}

// ServiceOption customizes service construction.
type ServiceOption func(*Service)

// WithLogger installs a logger; the default discards output.
func WithLogger(l Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics installs a metrics recorder; the default discards
// observations.
func WithMetrics(m MetricsRecorder) ServiceOption {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithBlobStore installs the blob store exports are written to; without
// one, Export fails.
func WithBlobStore(b blob.Store) ServiceOption {
	return func(s *Service) { s.blobs = b }
}

// WithNow overrides the clock, for tests.
func WithNow(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Service drives population runs and persists their results.
type Service struct {
	store   PersistentStore
	blobs   blob.Store
	metrics MetricsRecorder
	logger  Logger
	now     func() time.Time
}

// NewService constructs a service backed by the supplied catalog store.
func NewService(store PersistentStore, opts ...ServiceOption) *Service {
	s := &Service{
		store:   store,
		metrics: NoopMetricsRecorder{},
		logger:  noopLogger{},
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunRequest describes one population run.
type RunRequest struct {
	// Name keys the persisted catalog; re-running under the same name
	// replaces the stored record.
	Name string
	// Model is the assembled composite model driving the run.
	Model *model.Composite
	// Halos is the halo catalog to populate.
	Halos *table.Table
	// Options are forwarded to mock.New.
	Options []mock.Option
}

// Run populates a galaxy catalog from the request's model and halo table,
// persists the snapshot, and returns the stored record.
func (s *Service) Run(ctx context.Context, req RunRequest) (Catalog, error) {
	start := s.now()
	record, err := s.run(ctx, req)
	s.metrics.Observe(ctx, "run", err == nil, s.now().Sub(start))
	if err != nil {
		s.logger.Printf("run %q failed: %v", req.Name, err)
		return Catalog{}, err
	}
	s.logger.Printf("run %q populated %d galaxies", req.Name, record.GalaxyCount)
	return record, nil
}

func (s *Service) run(ctx context.Context, req RunRequest) (Catalog, error) {
	if req.Name == "" {
		return Catalog{}, fmt.Errorf("catalog name required")
	}
	if req.Model == nil {
		return Catalog{}, fmt.Errorf("composite model required")
	}
	if req.Halos == nil {
		return Catalog{}, fmt.Errorf("halo table required")
	}

	mk, err := mock.New(req.Model, req.Halos, req.Options...)
	if err != nil {
		return Catalog{}, fmt.Errorf("populate: %w", err)
	}
	galaxies := mk.GalaxyTable()
	snap, err := Snapshot(galaxies)
	if err != nil {
		return Catalog{}, fmt.Errorf("snapshot: %w", err)
	}

	record := Catalog{
		Name:        req.Name,
		CreatedAt:   s.now(),
		Seed:        mk.Seed(),
		GalaxyCount: galaxies.Len(),
		Params:      req.Model.Params().Clone(),
		Galaxies:    snap,
	}
	if err := s.store.SaveCatalog(ctx, record); err != nil {
		return Catalog{}, fmt.Errorf("save catalog: %w", err)
	}
	return record, nil
}

// ExportInfo describes a written export artifact.
type ExportInfo struct {
	Catalog     string `json:"catalog"`
	Key         string `json:"key"`
	Format      Format `json:"format"`
	SizeBytes   int64  `json:"size_bytes"`
	ContentType string `json:"content_type"`
	URL         string `json:"url,omitempty"`
}

// Export encodes a stored catalog in the requested format and writes it to
// the blob store under "catalogs/<name>.<format>".
func (s *Service) Export(ctx context.Context, name string, format Format) (ExportInfo, error) {
	start := s.now()
	info, err := s.export(ctx, name, format)
	s.metrics.Observe(ctx, "export", err == nil, s.now().Sub(start))
	if err != nil {
		s.logger.Printf("export %q failed: %v", name, err)
		return ExportInfo{}, err
	}
	s.logger.Printf("export %q wrote %s (%d bytes)", name, info.Key, info.SizeBytes)
	return info, nil
}

func (s *Service) export(ctx context.Context, name string, format Format) (ExportInfo, error) {
	if s.blobs == nil {
		return ExportInfo{}, fmt.Errorf("no blob store configured")
	}
	record, err := s.store.GetCatalog(ctx, name)
	if err != nil {
		return ExportInfo{}, err
	}
	galaxies, err := record.Galaxies.Table()
	if err != nil {
		return ExportInfo{}, fmt.Errorf("decode catalog %q: %w", name, err)
	}

	var buf bytes.Buffer
	if err := Encode(&buf, galaxies, format); err != nil {
		return ExportInfo{}, err
	}
	key := fmt.Sprintf("catalogs/%s.%s", name, format)
	put, err := s.blobs.Put(ctx, key, &buf, blob.PutOptions{
		ContentType: format.ContentType(),
		Metadata:    map[string]string{"catalog": name},
	})
	if err != nil {
		return ExportInfo{}, fmt.Errorf("store export: %w", err)
	}
	return ExportInfo{
		Catalog:     name,
		Key:         put.Key,
		Format:      format,
		SizeBytes:   put.Size,
		ContentType: put.ContentType,
		URL:         put.URL,
	}, nil
}

// Get returns a stored catalog by name.
func (s *Service) Get(ctx context.Context, name string) (Catalog, error) {
	return s.store.GetCatalog(ctx, name)
}

// List returns every stored catalog.
func (s *Service) List(ctx context.Context) ([]Catalog, error) {
	return s.store.ListCatalogs(ctx)
}

// Delete removes a stored catalog, reporting whether it existed.
func (s *Service) Delete(ctx context.Context, name string) (bool, error) {
	return s.store.DeleteCatalog(ctx, name)
}
