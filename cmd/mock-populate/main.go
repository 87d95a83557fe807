// Command mock-populate loads a halo catalog from CSV, populates it with
// the reference galaxy model, persists the resulting catalog, and
// optionally exports it to blob storage.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"halomock/internal/blob"
	"halomock/internal/blob/factory"
	fsblob "halomock/internal/blob/fs"
	"halomock/internal/catalog"
	"halomock/internal/infra/persistence"
	"halomock/internal/infra/persistence/sqlite"
	"halomock/models/reference"
	"halomock/pkg/mock"
	"halomock/pkg/table"
)

var exitFunc = os.Exit

func main() {
	code := cli(os.Args[1:], os.Stdout, os.Stderr)
	exitFunc(code)
}

func cli(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("mock-populate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	halosPath := fs.String("halos", "", "path to the halo catalog CSV (required)")
	configPath := fs.String("config", "", "path to the YAML run config")
	name := fs.String("name", "mock", "name the catalog is stored under")
	dbPath := fs.String("db", "", "sqlite database path; empty selects the backend from HALOMOCK_STORAGE_DRIVER")
	exportFormat := fs.String("export", "", "export format after the run: csv or json")
	outRoot := fs.String("out", "", "filesystem blob root for exports; empty selects the backend from HALOMOCK_BLOB_DRIVER")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *halosPath == "" {
		fmt.Fprintln(stderr, "missing required flag -halos")
		fs.Usage()
		return 2
	}

	ctx := context.Background()
	logger := log.New(stderr, "mock-populate: ", log.LstdFlags)

	cfg := reference.Config{}
	if *configPath != "" {
		loaded, err := reference.LoadConfigFile(*configPath)
		if err != nil {
			logger.Printf("%v", err)
			return 1
		}
		cfg = loaded
	}

	composite, warnings, err := reference.CompositeFromConfig(cfg)
	if err != nil {
		logger.Printf("assemble model: %v", err)
		return 1
	}
	for _, w := range warnings {
		logger.Printf("warning: %s", w.Message)
	}

	halos, err := loadHalosCSV(*halosPath)
	if err != nil {
		logger.Printf("%v", err)
		return 1
	}

	store, err := openStore(*dbPath)
	if err != nil {
		logger.Printf("open store: %v", err)
		return 1
	}
	defer func() {
		if closer, ok := store.(io.Closer); ok {
			_ = closer.Close()
		}
	}()

	opts := []catalog.ServiceOption{
		catalog.WithLogger(logger),
		catalog.WithMetrics(catalog.NewExpvarMetricsRecorder("")),
	}
	if *exportFormat != "" {
		blobs, err := openBlobStore(ctx, *outRoot)
		if err != nil {
			logger.Printf("open blob store: %v", err)
			return 1
		}
		opts = append(opts, catalog.WithBlobStore(blobs))
	}
	svc := catalog.NewService(store, opts...)

	record, err := svc.Run(ctx, catalog.RunRequest{
		Name:    *name,
		Model:   composite,
		Halos:   halos,
		Options: []mock.Option{mock.WithSeed(cfg.Seed)},
	})
	if err != nil {
		logger.Printf("run: %v", err)
		return 1
	}
	fmt.Fprintf(stdout, "catalog %q: %d halos in, %d galaxies out (seed %d, %d parameters)\n",
		record.Name, halos.Len(), record.GalaxyCount, record.Seed, len(record.Params))

	if *exportFormat != "" {
		info, err := svc.Export(ctx, record.Name, catalog.Format(*exportFormat))
		if err != nil {
			logger.Printf("export: %v", err)
			return 1
		}
		fmt.Fprintf(stdout, "exported %s (%d bytes)\n", info.Key, info.SizeBytes)
	}
	return 0
}

func openStore(dbPath string) (catalog.PersistentStore, error) {
	if dbPath != "" {
		return sqlite.NewStore(dbPath)
	}
	return persistence.OpenStore()
}

func openBlobStore(ctx context.Context, outRoot string) (blob.Store, error) {
	if outRoot != "" {
		return fsblob.New(outRoot)
	}
	return factory.Open(ctx)
}

// loadHalosCSV reads a halo catalog with a header row of column names; every
// column must be numeric.
func loadHalosCSV(path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open halo catalog: %w", err)
	}
	defer func() { _ = f.Close() }()
	return parseHalosCSV(f)
}

func parseHalosCSV(r io.Reader) (*table.Table, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read halo catalog: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("halo catalog needs a header row and at least one halo")
	}
	header := records[0]
	cols := make(map[string][]float64, len(header))
	for _, name := range header {
		if name == "" {
			return nil, fmt.Errorf("halo catalog has an empty column name")
		}
		if _, exists := cols[name]; exists {
			return nil, fmt.Errorf("halo catalog repeats column %q", name)
		}
		cols[name] = make([]float64, 0, len(records)-1)
	}
	for rowIdx, record := range records[1:] {
		for i, field := range record {
			value, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("halo catalog row %d column %q: %w", rowIdx+1, header[i], err)
			}
			cols[header[i]] = append(cols[header[i]], value)
		}
	}
	return table.FromColumns(cols)
}
