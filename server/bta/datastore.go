package bta

import "context"

// Datastore combines all the interfaces implemented by the persistence
// layer.
type Datastore interface {
	UserStore
	BudgetStore

	// HealthCheck returns an error if the store is not healthy.
	HealthCheck() error

	// MigrateTables creates and migrates the table schemas.
	MigrateTables(ctx context.Context) error
	// MigrateData populates built-in data.
	MigrateData(ctx context.Context) error
	// MigrationStatus returns the current status of the migrations, comparing
	// the known migrations in code and the applied migrations in the database.
	MigrationStatus(ctx context.Context) (*MigrationStatus, error)

	Close() error
}

type MigrationStatus struct {
	// StatusCode is the summarized migration status of the database.
	//
	// If StatusCode is SomeMigrationsCompleted, then missing migrations are
	// available in MissingTable and MissingData.
	//
	// If StatusCode is UnknownMigrations, then unknown migrations are
	// available in UnknownTable and UnknownData.
	StatusCode   MigrationStatusCode `json:"status_code"`
	MissingTable []int64             `json:"missing_table"`
	MissingData  []int64             `json:"missing_data"`
	UnknownTable []int64             `json:"unknown_table"`
	UnknownData  []int64             `json:"unknown_data"`
}

type MigrationStatusCode int

const (
	// NoMigrationsCompleted indicates the database has no migrations installed.
	NoMigrationsCompleted MigrationStatusCode = iota
	// SomeMigrationsCompleted indicates some (not all) migrations are missing.
	SomeMigrationsCompleted
	// AllMigrationsCompleted means all migrations have been installed successfully.
	AllMigrationsCompleted
	// UnknownMigrations means some unidentified migrations were detected on the database.
	UnknownMigrations
)

// NotFoundError is returned when the datastore resource cannot be found.
type NotFoundError interface {
	error
	IsNotFound() bool
}

// IsNotFound returns whether an error is a NotFoundError.
func IsNotFound(err error) bool {
	nfe, ok := err.(NotFoundError)
	return ok && nfe.IsNotFound()
}
