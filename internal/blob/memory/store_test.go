package memory

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"halomock/internal/blob"
)

func TestPutGetRoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()

	info, err := s.Put(ctx, "catalogs/demo.csv", strings.NewReader("galid,x\n0,1\n"), blob.PutOptions{
		ContentType: "text/csv",
		Metadata:    map[string]string{"catalog": "demo"},
	})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if info.Size == 0 || info.ContentType != "text/csv" {
		t.Fatalf("unexpected info %+v", info)
	}

	got, rc, err := s.Get(ctx, "catalogs/demo.csv")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	if !strings.HasPrefix(string(data), "galid,x") {
		t.Fatalf("unexpected content %q", data)
	}
	if got.Metadata["catalog"] != "demo" {
		t.Fatalf("expected metadata round trip, got %+v", got.Metadata)
	}
}

func TestPutOverwrites(t *testing.T) {
	s := New()
	ctx := context.Background()
	if _, err := s.Put(ctx, "k", strings.NewReader("v1"), blob.PutOptions{}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := s.Put(ctx, "k", strings.NewReader("v2-longer"), blob.PutOptions{}); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	info, err := s.Head(ctx, "k")
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	if info.Size != int64(len("v2-longer")) {
		t.Fatalf("expected overwritten size, got %d", info.Size)
	}
}

func TestMissingKeyAndDelete(t *testing.T) {
	s := New()
	ctx := context.Background()
	if _, _, err := s.Get(ctx, "nope"); !errors.Is(err, blob.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if ok, _ := s.Delete(ctx, "nope"); ok {
		t.Fatalf("expected delete of missing key to report false")
	}
	_, _ = s.Put(ctx, "k", strings.NewReader("v"), blob.PutOptions{})
	if ok, _ := s.Delete(ctx, "k"); !ok {
		t.Fatalf("expected delete to report true")
	}
}

func TestListFiltersAndSorts(t *testing.T) {
	s := New()
	ctx := context.Background()
	for _, key := range []string{"catalogs/b.csv", "catalogs/a.csv", "other/c.csv"} {
		if _, err := s.Put(ctx, key, strings.NewReader("x"), blob.PutOptions{}); err != nil {
			t.Fatalf("Put %s: %v", key, err)
		}
	}
	infos, err := s.List(ctx, "catalogs/")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(infos) != 2 || infos[0].Key != "catalogs/a.csv" {
		t.Fatalf("unexpected listing %+v", infos)
	}
}

func TestPresignUnsupported(t *testing.T) {
	s := New()
	if _, err := s.PresignURL(context.Background(), "k", blob.SignedURLOptions{}); !errors.Is(err, blob.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}
