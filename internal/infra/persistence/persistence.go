// Package persistence selects a catalog store backend from the environment.
package persistence

import (
	"fmt"
	"os"

	"halomock/internal/catalog"
	"halomock/internal/infra/persistence/memory"
	"halomock/internal/infra/persistence/postgres"
	"halomock/internal/infra/persistence/sqlite"
)

// Driver identifies a concrete persistent storage implementation.
type Driver string

const (
	DriverMemory   Driver = "memory"   // in-memory only (tests / ephemeral)
	DriverSQLite   Driver = "sqlite"   // embedded sqlite file
	DriverPostgres Driver = "postgres" // PostgreSQL server
)

// OpenStore selects a backend using environment variables.
// Defaults to sqlite when unset.
//
//	HALOMOCK_STORAGE_DRIVER: memory|sqlite|postgres (default sqlite)
//	HALOMOCK_SQLITE_PATH: path to sqlite file (default ./halomock.db)
//	HALOMOCK_POSTGRES_DSN: postgres DSN when driver=postgres
func OpenStore() (catalog.PersistentStore, error) {
	driver := os.Getenv("HALOMOCK_STORAGE_DRIVER")
	if driver == "" {
		driver = string(DriverSQLite)
	}
	switch Driver(driver) {
	case DriverMemory:
		return memory.NewStore(), nil
	case DriverSQLite:
		return sqlite.NewStore(os.Getenv("HALOMOCK_SQLITE_PATH"))
	case DriverPostgres:
		return postgres.NewStore(os.Getenv("HALOMOCK_POSTGRES_DSN"))
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
