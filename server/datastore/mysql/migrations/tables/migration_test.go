// Package tables holds the budget tracker table migrations.
//
// Migrations can be tested with tests following the following format:
//
//	$ cat 20260811111500_AddAllocatedAmountToBudgetState_test.go
//
//	[...]
//	func TestUp_20260811111500(t *testing.T) {
//		// Apply all migrations up to 20260811111500 (name of test), not included.
//		db := applyUpToPrev(t)
//
//		// insert testing data, etc.
//
//		// The following will apply migration 20260811111500.
//		applyNext(t, db)
//
//		// insert testing data, verify migration.
//	}
package tables

import (
	"fmt"
	"strconv"
	"strings"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testUsername = "root"
	testPassword = "toor"
	testAddress  = "localhost:3307"
)

func newDBConnForTests(t *testing.T) *sqlx.DB {
	db, err := sqlx.Open(
		"mysql",
		fmt.Sprintf("%s:%s@tcp(%s)/?charset=utf8mb4&parseTime=true&loc=UTC&multiStatements=true", testUsername, testPassword, testAddress),
	)
	require.NoError(t, err)

	name := strings.ReplaceAll(strings.ReplaceAll(t.Name(), "/", "_"), " ", "_")
	_, err = db.Exec(fmt.Sprintf("DROP DATABASE IF EXISTS %s; CREATE DATABASE %s; USE %s;", name, name, name))
	require.NoError(t, err)
	return db
}

func getMigrationVersion(t *testing.T) int64 {
	// Migration test functions look like this:
	//   func TestUp_20260811111500(t *testing.T)
	//
	// and multiple unit tests for the same migration version can be done by
	// following this naming pattern:
	//   func TestUp_20260811111500_scenario1(t *testing.T)
	//   func TestUp_20260811111500_scenario2(t *testing.T)
	//
	// Note that sub-tests can also be used, so:
	//   func TestUp_20260811111500(t *testing.T) {
	//     t.Run("scenario1", func(t *testing.T) {...}
	//   }
	// also works (calling applyUpToPrev in each sub-test to create a new test
	// database).
	//
	// This extracts the migration version (timestamp) from the test name.

	baseName, _, _ := strings.Cut(t.Name(), "/")
	withoutPrefix := strings.TrimPrefix(baseName, "TestUp_")
	timestampPart, _, _ := strings.Cut(withoutPrefix, "_")
	v, err := strconv.Atoi(timestampPart)
	require.NoError(t, err)
	return int64(v)
}

// applyUpToPrev will allocate a testing DB connection and apply
// migrations up to, not including, the migration specified in the test name.
//
// It returns the database connection to perform additional queries and migrations.
func applyUpToPrev(t *testing.T) *sqlx.DB {
	// Only run migration tests for migrations added in the last two months.
	// Migrations are immutable so once tested for a release they don't need
	// to be tested again.
	const maxMigrationTestAge = 60 * 24 * time.Hour

	v := getMigrationVersion(t)
	testDateTime, err := time.Parse("20060102150405", strconv.FormatInt(v, 10))
	if err == nil && time.Since(testDateTime) > maxMigrationTestAge {
		t.Skip("Skipping migration test for old migration, DB migrations are immutable so once tested for a release they don't need to be tested again.")
	}

	db := newDBConnForTests(t)
	for {
		current, err := MigrationClient.GetDBVersion(db.DB)
		require.NoError(t, err)
		next, err := MigrationClient.Migrations.Next(current)
		require.NoError(t, err)
		if next.Version == v {
			return db
		}
		applyNext(t, db)
	}
}

func execNoErrLastID(t *testing.T, db *sqlx.DB, query string, args ...any) int64 {
	res, err := db.Exec(query, args...)
	require.NoError(t, err)
	id, _ := res.LastInsertId()
	return id
}

func execNoErr(t *testing.T, db *sqlx.DB, query string, args ...any) {
	execNoErrLastID(t, db, query, args...)
}

// applyNext performs the next migration in the chain.
func applyNext(t *testing.T, db *sqlx.DB) {
	// gooseNoDir is the value to not parse local files and instead use
	// the migrations that were added manually via Add().
	const gooseNoDir = ""
	err := MigrationClient.UpByOne(db.DB, gooseNoDir)
	require.NoError(t, err)
}

// insertBudgetLine inserts a minimal budget_state row and returns its id.
// allocatedAmount is ignored until the column exists.
func insertBudgetLine(t *testing.T, db *sqlx.DB, fileName, category, subcategory, month string, amount float64, statusCategory *string) int64 {
	return execNoErrLastID(t, db, `
		INSERT INTO budget_state (file_name, category, subcategory, month, amount, status_category, updated_by)
		VALUES (?, ?, ?, ?, ?, ?, 'tester@example.com')
	`, fileName, category, subcategory, month, amount, statusCategory)
}

func assertRowCount(t *testing.T, db *sqlx.DB, table string, count int) {
	var n int
	err := db.Get(&n, fmt.Sprintf("SELECT COUNT(*) FROM %s", table))
	require.NoError(t, err)
	assert.Equal(t, count, n)
}
