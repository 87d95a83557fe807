package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"halomock/internal/catalog"
)

func sampleCatalog(name string) catalog.Catalog {
	return catalog.Catalog{
		Name:        name,
		CreatedAt:   time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
		Seed:        7,
		GalaxyCount: 2,
		Params:      map[string]float64{"smhm_norm": 0.03},
		Galaxies: catalog.TableSnapshot{
			Rows: 2,
			Columns: []catalog.ColumnSnapshot{
				{Name: "galid", Kind: "float", Floats: []float64{0, 1}},
				{Name: "gal_type", Kind: "string", Strings: []string{"centrals", "satellites"}},
			},
		},
	}
}

func TestSaveSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "halomock.db")

	store, err := NewStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.SaveCatalog(ctx, sampleCatalog("run")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()
	got, err := reopened.GetCatalog(ctx, "run")
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if got.Seed != 7 || got.GalaxyCount != 2 {
		t.Fatalf("unexpected hydrated record: %+v", got)
	}
	if got.Galaxies.Columns[1].Strings[1] != "satellites" {
		t.Fatalf("expected string column to survive round trip, got %+v", got.Galaxies.Columns[1])
	}
}

func TestSaveReplacesExisting(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "halomock.db")

	store, err := NewStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = store.Close() }()

	if err := store.SaveCatalog(ctx, sampleCatalog("run")); err != nil {
		t.Fatalf("save: %v", err)
	}
	updated := sampleCatalog("run")
	updated.Seed = 99
	if err := store.SaveCatalog(ctx, updated); err != nil {
		t.Fatalf("second save: %v", err)
	}

	list, err := store.ListCatalogs(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Seed != 99 {
		t.Fatalf("expected single updated record, got %+v", list)
	}
}

func TestDeleteRemovesRow(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "halomock.db")

	store, err := NewStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.SaveCatalog(ctx, sampleCatalog("run")); err != nil {
		t.Fatalf("save: %v", err)
	}
	existed, err := store.DeleteCatalog(ctx, "run")
	if err != nil || !existed {
		t.Fatalf("delete: existed=%v err=%v", existed, err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()
	_, err = reopened.GetCatalog(ctx, "run")
	var notFound catalog.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected not-found after delete and reopen, got %v", err)
	}
}

func TestDefaultPath(t *testing.T) {
	t.Chdir(t.TempDir())
	store, err := NewStore("")
	if err != nil {
		t.Fatalf("open with default path: %v", err)
	}
	defer func() { _ = store.Close() }()
	if store.Path() != "halomock.db" {
		t.Fatalf("expected default path, got %q", store.Path())
	}
}
