package catalog

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	blobmemory "halomock/internal/blob/memory"
	"halomock/pkg/component"
	"halomock/pkg/mock"
	"halomock/pkg/model"
	"halomock/pkg/table"
)

// memStore is a minimal in-test PersistentStore; the real backends live in
// internal/infra/persistence and cannot be imported here without a cycle.
type memStore struct {
	mu       sync.Mutex
	catalogs map[string]Catalog
	saveErr  error
}

func newMemStore() *memStore {
	return &memStore{catalogs: map[string]Catalog{}}
}

func (s *memStore) SaveCatalog(_ context.Context, c Catalog) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalogs[c.Name] = c.Clone()
	return nil
}

func (s *memStore) GetCatalog(_ context.Context, name string) (Catalog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.catalogs[name]
	if !ok {
		return Catalog{}, ErrNotFound{Name: name}
	}
	return c.Clone(), nil
}

func (s *memStore) ListCatalogs(_ context.Context) ([]Catalog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Catalog, 0, len(s.catalogs))
	for _, c := range s.catalogs {
		out = append(out, c.Clone())
	}
	return out, nil
}

func (s *memStore) DeleteCatalog(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.catalogs[name]; !ok {
		return false, nil
	}
	delete(s.catalogs, name)
	return true, nil
}

type observation struct {
	operation string
	success   bool
}

type recordingMetrics struct {
	mu  sync.Mutex
	obs []observation
}

func (r *recordingMetrics) Observe(_ context.Context, operation string, success bool, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.obs = append(r.obs, observation{operation: operation, success: success})
}

type profileStub struct{}

func (profileStub) PrimHalopropKey() string { return "halo_mvir" }

func (profileStub) NewHalopropFuncs() []component.NamedHalopropFunc { return nil }

type baseStub struct {
	name   string
	params component.Params
}

func (s baseStub) Name() string { return s.name }

func (s baseStub) ParamDict() component.Params { return s.params }

type occStub struct {
	baseStub
}

func (occStub) OccupationBound() float64 { return 1 }

type mcStub struct {
	baseStub
	funcs map[string]component.MonteCarloFunc
}

func (s mcStub) MonteCarloFuncs() map[string]component.MonteCarloFunc { return s.funcs }

func testComposite(t *testing.T) *model.Composite {
	t.Helper()
	bp := model.Blueprint{}
	bp.Add("centrals", model.FeatureOccupationModel,
		occStub{baseStub{name: "occ", params: component.Params{"logMmin": 12}}})
	bp.Add("centrals", "mc_stellar_mass", mcStub{
		baseStub: baseStub{name: "smhm", params: component.Params{"smhm_norm": 0.03}},
		funcs: map[string]component.MonteCarloFunc{
			"stellar_mass": func(g *table.Table, params component.Params, rng *rand.Rand) ([]float64, error) {
				mvir, err := g.Floats("halo_mvir")
				if err != nil {
					return nil, err
				}
				out := make([]float64, len(mvir))
				for i := range mvir {
					out[i] = params["smhm_norm"]*mvir[i] + rng.NormFloat64()
				}
				return out, nil
			},
		},
	})
	c, _, err := model.Build(profileStub{}, bp)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return c
}

func testHalos(t *testing.T, rows int) *table.Table {
	t.Helper()
	cols := make(map[string][]float64)
	for _, key := range []string{"halo_x", "halo_y", "halo_z", "halo_vx", "halo_vy", "halo_vz", "halo_mvir"} {
		col := make([]float64, rows)
		for i := range col {
			col[i] = float64(i)
		}
		cols[key] = col
	}
	halos, err := table.FromColumns(cols)
	if err != nil {
		t.Fatalf("testHalos: %v", err)
	}
	return halos
}

func TestRunPersistsCatalog(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	metrics := &recordingMetrics{}
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	svc := NewService(store,
		WithMetrics(metrics),
		WithNow(func() time.Time { return now }),
	)

	record, err := svc.Run(ctx, RunRequest{
		Name:    "run",
		Model:   testComposite(t),
		Halos:   testHalos(t, 25),
		Options: []mock.Option{mock.WithSeed(9)},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if record.GalaxyCount != 25 || record.Seed != 9 {
		t.Fatalf("unexpected record: %+v", record)
	}
	if record.Params["smhm_norm"] != 0.03 {
		t.Fatalf("expected merged params in record, got %v", record.Params)
	}
	if !record.CreatedAt.Equal(now) {
		t.Fatalf("expected injected clock, got %v", record.CreatedAt)
	}

	stored, err := svc.Get(ctx, "run")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Galaxies.Rows != 25 {
		t.Fatalf("expected persisted snapshot, got %+v", stored.Galaxies)
	}

	if len(metrics.obs) != 1 || metrics.obs[0].operation != "run" || !metrics.obs[0].success {
		t.Fatalf("unexpected observations %+v", metrics.obs)
	}
}

func TestRunValidatesRequest(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemStore())
	cases := []RunRequest{
		{Model: testComposite(t), Halos: testHalos(t, 2)},
		{Name: "run", Halos: testHalos(t, 2)},
		{Name: "run", Model: testComposite(t)},
	}
	for i, req := range cases {
		if _, err := svc.Run(ctx, req); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
}

func TestRunReportsSaveFailure(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.saveErr = errors.New("disk full")
	metrics := &recordingMetrics{}
	svc := NewService(store, WithMetrics(metrics))

	_, err := svc.Run(ctx, RunRequest{Name: "run", Model: testComposite(t), Halos: testHalos(t, 2)})
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("expected save failure, got %v", err)
	}
	if len(metrics.obs) != 1 || metrics.obs[0].success {
		t.Fatalf("expected failed observation, got %+v", metrics.obs)
	}
}

func TestExportWritesBlob(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	blobs := blobmemory.New()
	svc := NewService(store, WithBlobStore(blobs))

	if _, err := svc.Run(ctx, RunRequest{Name: "run", Model: testComposite(t), Halos: testHalos(t, 5)}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	info, err := svc.Export(ctx, "run", FormatCSV)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if info.Key != "catalogs/run.csv" || info.ContentType != "text/csv" {
		t.Fatalf("unexpected export info %+v", info)
	}

	_, rc, err := blobs.Get(ctx, "catalogs/run.csv")
	if err != nil {
		t.Fatalf("blob get: %v", err)
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read blob: %v", err)
	}
	header := strings.SplitN(string(data), "\n", 2)[0]
	if !strings.Contains(header, "galid") || !strings.Contains(header, "stellar_mass") {
		t.Fatalf("unexpected csv header %q", header)
	}
	if int64(len(data)) != info.SizeBytes {
		t.Fatalf("size mismatch: blob %d info %d", len(data), info.SizeBytes)
	}
}

func TestExportRequiresBlobStore(t *testing.T) {
	svc := NewService(newMemStore())
	if _, err := svc.Export(context.Background(), "run", FormatCSV); err == nil {
		t.Fatalf("expected error without blob store")
	}
}

func TestExportUnknownCatalog(t *testing.T) {
	svc := NewService(newMemStore(), WithBlobStore(blobmemory.New()))
	_, err := svc.Export(context.Background(), "missing", FormatJSON)
	var notFound ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestDeleteThroughService(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemStore())
	if _, err := svc.Run(ctx, RunRequest{Name: "run", Model: testComposite(t), Halos: testHalos(t, 2)}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	existed, err := svc.Delete(ctx, "run")
	if err != nil || !existed {
		t.Fatalf("delete: existed=%v err=%v", existed, err)
	}
	list, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty store, got %+v", list)
	}
}
