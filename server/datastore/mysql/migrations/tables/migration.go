package tables

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/zmcdonald6/bta2.0/server/goose"
)

var MigrationClient = goose.New("migration_status_tables", goose.MySqlDialect{})

// can override in tests
var outputTo io.Writer = os.Stderr

type migrationStep func(tx *sql.Tx) error

func basicMigrationStep(statement string, errorMessage string) migrationStep {
	return func(tx *sql.Tx) error {
		_, err := tx.Exec(statement)
		return errors.Wrap(err, errorMessage)
	}
}

// stepUnlessApplied wraps step so it only runs when applied reports false.
// Schemas drift between deployments, so structural steps check the current
// state of the schema instead of assuming the step has never run.
func stepUnlessApplied(applied func(tx *sql.Tx) bool, step migrationStep) migrationStep {
	return func(tx *sql.Tx) error {
		if applied(tx) {
			return nil
		}
		return step(tx)
	}
}

func withSteps(steps []migrationStep, tx *sql.Tx) error {
	stepCount := len(steps)
	for i, step := range steps {
		if stepCount > 1 {
			_, _ = fmt.Fprintf(outputTo, "  Step %d of %d\n", i+1, stepCount)
		}
		if err := step(tx); err != nil {
			return err
		}
	}
	return nil
}

// withSafeUpdatesDisabled runs fn with SQL_SAFE_UPDATES turned off for the
// session, restoring the previous value on every exit path. Bulk UPDATEs
// without a key in the WHERE clause fail on servers that enable safe updates
// globally.
func withSafeUpdatesDisabled(tx *sql.Tx, fn func(tx *sql.Tx) error) (err error) {
	var safeUpdates bool
	if err := tx.QueryRow(`SELECT @@SESSION.sql_safe_updates`).Scan(&safeUpdates); err != nil {
		return errors.Wrap(err, "read sql_safe_updates")
	}
	if !safeUpdates {
		return fn(tx)
	}

	if _, err := tx.Exec(`SET SESSION sql_safe_updates = 0`); err != nil {
		return errors.Wrap(err, "disable sql_safe_updates")
	}
	defer func() {
		if _, restoreErr := tx.Exec(`SET SESSION sql_safe_updates = 1`); restoreErr != nil && err == nil {
			err = errors.Wrap(restoreErr, "restore sql_safe_updates")
		}
	}()

	return fn(tx)
}

func constraintExists(tx *sql.Tx, table, name string) bool {
	var count int
	err := tx.QueryRow(`
SELECT COUNT(1)
FROM information_schema.TABLE_CONSTRAINTS
WHERE CONSTRAINT_SCHEMA = DATABASE()
AND TABLE_NAME = ?
AND CONSTRAINT_NAME = ?
	`, table, name).Scan(&count)
	if err != nil {
		return false
	}

	return count > 0
}

func columnExists(tx *sql.Tx, table, column string) bool {
	return columnsExists(tx, table, column)
}

func columnsExists(tx *sql.Tx, table string, columns ...string) bool {
	if len(columns) == 0 {
		return false
	}
	inColumns := strings.TrimRight(strings.Repeat("?,", len(columns)), ",")
	args := make([]interface{}, 0, len(columns)+1)
	args = append(args, table)
	for _, column := range columns {
		args = append(args, column)
	}

	var count int
	err := tx.QueryRow(
		fmt.Sprintf(`
SELECT
    count(*)
FROM
    information_schema.columns
WHERE
    TABLE_SCHEMA = DATABASE()
    AND TABLE_NAME = ?
    AND COLUMN_NAME IN (%s)
`, inColumns), args...,
	).Scan(&count)
	if err != nil {
		return false
	}

	return count == len(columns)
}

func indexExists(db *sqlx.DB, table, index string) bool {
	var count int
	err := db.QueryRow(`
SELECT COUNT(1)
FROM INFORMATION_SCHEMA.STATISTICS
WHERE table_schema = DATABASE()
AND table_name = ?
AND index_name = ?
`, table, index).Scan(&count)
	if err != nil {
		return false
	}

	return count > 0
}

func indexExistsTx(tx *sql.Tx, table, index string) bool {
	var count int
	err := tx.QueryRow(`
SELECT COUNT(1)
FROM INFORMATION_SCHEMA.STATISTICS
WHERE table_schema = DATABASE()
AND table_name = ?
AND index_name = ?
`, table, index).Scan(&count)
	if err != nil {
		return false
	}

	return count > 0
}
