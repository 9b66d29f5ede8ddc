package linestore

import (
	"fmt"
	"os"
	"strings"

	"tripcore/pkg/domain"
)

// Environment variables consumed by Open.
const (
	EnvDriver      = "TRIPCORE_LINES_DRIVER"
	EnvSQLitePath  = "TRIPCORE_SQLITE_PATH"
	EnvPostgresDSN = "TRIPCORE_POSTGRES_DSN"
)

// Driver names accepted by Open.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open selects a line store driver from the environment. The default is the
// embedded sqlite store.
func Open() (domain.LineStore, error) {
	driver := strings.ToLower(strings.TrimSpace(os.Getenv(EnvDriver)))
	if driver == "" {
		driver = DriverSQLite
	}
	switch driver {
	case DriverMemory:
		return NewMemory(), nil
	case DriverSQLite:
		return OpenSQLite(os.Getenv(EnvSQLitePath))
	case DriverPostgres:
		return OpenPostgres(os.Getenv(EnvPostgresDSN))
	default:
		return nil, fmt.Errorf("unknown line store driver %q", driver)
	}
}
