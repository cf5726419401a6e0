// Package goose is a stripped down fork of the goose database migration
// tool. Migrations are registered as Go functions at init time; the legacy
// directory scanning mode is not supported.
package goose

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"runtime"
	"sort"
)

var (
	// ErrNoCurrentVersion is returned when the current migration version
	// cannot be found in the known migrations.
	ErrNoCurrentVersion = errors.New("no current version found")
	// ErrNoNextVersion is returned when there is no migration more recent
	// than the current version.
	ErrNoNextVersion = errors.New("no next version found")
)

// Client is a migration client that applies a set of registered migrations
// against a database, recording progress in its own version table.
type Client struct {
	// TableName is the name of the version bookkeeping table.
	TableName  string
	Dialect    SqlDialect
	Migrations Migrations
}

// New creates a migration client with the given version table name and SQL
// dialect.
func New(tableName string, dialect SqlDialect) *Client {
	return &Client{
		TableName: tableName,
		Dialect:   dialect,
	}
}

// AddMigration registers the up/down functions for a migration. The version
// is derived from the name of the calling file (XXX_name.go).
func (c *Client) AddMigration(up func(*sql.Tx) error, down func(*sql.Tx) error) {
	_, filename, _, _ := runtime.Caller(1)
	c.AddNamedMigration(filename, up, down)
}

// AddNamedMigration registers the up/down functions for the migration named
// by filename.
func (c *Client) AddNamedMigration(filename string, up func(*sql.Tx) error, down func(*sql.Tx) error) {
	v, err := NumericComponent(filename)
	if err != nil {
		log.Fatalf("goose: could not parse migration version from %s: %v", filename, err)
	}
	migration := &Migration{
		Version:  v,
		Next:     -1,
		Previous: -1,
		Source:   filename,
		UpFn:     up,
		DownFn:   down,
	}
	c.Migrations = append(c.Migrations, migration)
}

// Migrations is a sortable collection of migrations.
type Migrations []*Migration

func (ms Migrations) Len() int      { return len(ms) }
func (ms Migrations) Swap(i, j int) { ms[i], ms[j] = ms[j], ms[i] }
func (ms Migrations) Less(i, j int) bool {
	if ms[i].Version == ms[j].Version {
		panic(fmt.Sprintf("goose: duplicate migration version %v", ms[i].Version))
	}
	return ms[i].Version < ms[j].Version
}

// Next returns the migration that follows the given version.
func (ms Migrations) Next(current int64) (*Migration, error) {
	sort.Sort(ms)
	for _, m := range ms {
		if m.Version > current {
			return m, nil
		}
	}
	return nil, ErrNoNextVersion
}

// Current returns the migration with the given version.
func (ms Migrations) Current(current int64) (*Migration, error) {
	sort.Sort(ms)
	for _, m := range ms {
		if m.Version == current {
			return m, nil
		}
	}
	return nil, ErrNoCurrentVersion
}

// Up applies all pending migrations in version order. The dir argument is
// accepted for compatibility with the original tool and must be empty.
func (c *Client) Up(db *sql.DB, dir string) error {
	for {
		current, err := c.GetDBVersion(db)
		if err != nil {
			return err
		}

		next, err := c.Migrations.Next(current)
		if err != nil {
			if errors.Is(err, ErrNoNextVersion) {
				log.Printf("goose: no migrations to run. current version: %d\n", current)
				return nil
			}
			return err
		}

		if err := c.runMigration(db, next, migrateUp); err != nil {
			return err
		}
	}
}

// UpByOne applies the single next pending migration. It returns
// ErrNoNextVersion when the database is already up to date.
func (c *Client) UpByOne(db *sql.DB, dir string) error {
	current, err := c.GetDBVersion(db)
	if err != nil {
		return err
	}

	next, err := c.Migrations.Next(current)
	if err != nil {
		return err
	}

	return c.runMigration(db, next, migrateUp)
}

// EnsureDBVersion retrieves the current version for this database, creating
// the version table if it does not yet exist.
func (c *Client) EnsureDBVersion(db *sql.DB) (int64, error) {
	rows, err := c.Dialect.dbVersionQuery(db, c.TableName)
	if err != nil {
		return 0, c.createVersionTable(db)
	}
	defer rows.Close()

	// The most recent record for each migration specifies whether it has
	// been applied or rolled back. The first version we find that has been
	// applied is the current version.
	toSkip := make([]int64, 0)
	for rows.Next() {
		var row MigrationRecord
		if err = rows.Scan(&row.VersionId, &row.IsApplied); err != nil {
			return 0, fmt.Errorf("scan migration record: %w", err)
		}

		skip := false
		for _, v := range toSkip {
			if v == row.VersionId {
				skip = true
				break
			}
		}
		if skip {
			continue
		}

		if row.IsApplied {
			return row.VersionId, nil
		}

		// Latest version of migration has not been applied.
		toSkip = append(toSkip, row.VersionId)
	}

	return 0, rows.Err()
}

// createVersionTable creates the version bookkeeping table and inserts the
// initial zero record.
func (c *Client) createVersionTable(db *sql.DB) error {
	txn, err := db.Begin()
	if err != nil {
		return err
	}

	d := c.Dialect
	if _, err := txn.Exec(d.createVersionTableSql(c.TableName)); err != nil {
		txn.Rollback() //nolint:errcheck
		return err
	}

	version := 0
	applied := true
	if _, err := txn.Exec(d.insertVersionSql(c.TableName), version, applied); err != nil {
		txn.Rollback() //nolint:errcheck
		return err
	}

	return txn.Commit()
}

// GetDBVersion is an alias for EnsureDBVersion.
func (c *Client) GetDBVersion(db *sql.DB) (int64, error) {
	version, err := c.EnsureDBVersion(db)
	if err != nil {
		return -1, err
	}

	return version, nil
}
