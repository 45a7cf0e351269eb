package store

import (
	"net/http"

	"github.com/Abraxas-365/supportdesk/pkg/errx"
)

var errRegistry = errx.NewRegistry("STORE")

var (
	ErrCodeUnsupportedDriver = errRegistry.Register(
		"UNSUPPORTED_DRIVER",
		errx.TypeValidation,
		http.StatusInternalServerError,
		"Unsupported database driver",
	)

	ErrCodeConnectionFailed = errRegistry.Register(
		"CONNECTION_FAILED",
		errx.TypeUnavailable,
		http.StatusServiceUnavailable,
		"Failed to connect to database",
	)

	ErrCodeMigrationFailed = errRegistry.Register(
		"MIGRATION_FAILED",
		errx.TypeInternal,
		http.StatusInternalServerError,
		"Database migration failed",
	)

	ErrCodeSeedFailed = errRegistry.Register(
		"SEED_FAILED",
		errx.TypeInternal,
		http.StatusInternalServerError,
		"Seeding demo data failed",
	)
)

func NewUnsupportedDriverError(driver string) *errx.Error {
	return errRegistry.New(ErrCodeUnsupportedDriver).WithDetail("driver", driver)
}

func NewConnectionFailedError(driver string, cause error) *errx.Error {
	return errRegistry.NewWithCause(ErrCodeConnectionFailed, cause).WithDetail("driver", driver)
}

func NewMigrationFailedError(version string, cause error) *errx.Error {
	return errRegistry.NewWithCause(ErrCodeMigrationFailed, cause).WithDetail("version", version)
}

func NewSeedFailedError(table string, cause error) *errx.Error {
	return errRegistry.NewWithCause(ErrCodeSeedFailed, cause).WithDetail("table", table)
}
