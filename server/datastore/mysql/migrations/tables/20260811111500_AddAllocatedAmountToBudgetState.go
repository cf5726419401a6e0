package tables

import (
	"database/sql"

	"github.com/pkg/errors"
)

func init() {
	MigrationClient.AddMigration(Up_20260811111500, Down_20260811111500)
}

// Up_20260811111500 reshapes budget_state for per-status allocations. The
// allocated_amount column records the amount a line was classified at, and
// the unique key moves from one row per month to one row per status
// category. Every step checks the schema first so the migration can be
// re-run against databases that picked up part of the change out of band.
func Up_20260811111500(tx *sql.Tx) error {
	return withSteps([]migrationStep{
		stepUnlessApplied(
			func(tx *sql.Tx) bool {
				return columnExists(tx, "budget_state", "allocated_amount")
			},
			basicMigrationStep(`
				ALTER TABLE budget_state
				ADD COLUMN allocated_amount DECIMAL(12, 2) DEFAULT NULL AFTER amount
			`, "add allocated_amount to budget_state"),
		),
		backfillAllocatedAmounts,
		stepUnlessApplied(
			func(tx *sql.Tx) bool {
				return !indexExistsTx(tx, "budget_state", "unique_budget_line")
			},
			basicMigrationStep(`
				ALTER TABLE budget_state
				DROP KEY unique_budget_line
			`, "drop unique_budget_line from budget_state"),
		),
		stepUnlessApplied(
			func(tx *sql.Tx) bool {
				return constraintExists(tx, "budget_state", "unique_budget_allocation")
			},
			// Key lengths keep the unique index under the 3072 byte limit
			// for utf8mb4 columns.
			basicMigrationStep(`
				ALTER TABLE budget_state
				ADD UNIQUE KEY unique_budget_allocation (file_name(100), category(100), subcategory(100), status_category(50))
			`, "add unique_budget_allocation to budget_state"),
		),
	}, tx)
}

// backfillAllocatedAmounts copies amount into allocated_amount for every
// line that has been classified. Unclassified lines (NULL or empty status)
// keep a NULL allocation. The UPDATE has no key in its WHERE clause, so it
// runs with safe updates disabled.
func backfillAllocatedAmounts(tx *sql.Tx) error {
	return withSafeUpdatesDisabled(tx, func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			UPDATE budget_state
			SET allocated_amount = amount
			WHERE status_category IS NOT NULL AND status_category != ''
		`)
		return errors.Wrap(err, "backfill allocated_amount in budget_state")
	})
}

func Down_20260811111500(tx *sql.Tx) error {
	return nil
}
