package data

import (
	"database/sql"
)

// builtinStatusCategories are the classification buckets the dashboards
// group budget lines by, in display order.
var builtinStatusCategories = []string{
	"Wishlist",
	"To be confirmed",
	"Spent",
	"To be spent",
	"To be spent (Projects)",
	"To be spent (Recurring)",
	"Will not be spent",
	"Out of Budget",
}

func init() {
	MigrationClient.AddMigration(Up_20240422155000, Down_20240422155000)
}

func Up_20240422155000(tx *sql.Tx) error {
	sql := `
		INSERT INTO budget_status_categories (name, sort_order)
		VALUES (?, ?)
		ON DUPLICATE KEY UPDATE sort_order = VALUES(sort_order)
`

	for i, name := range builtinStatusCategories {
		if _, err := tx.Exec(sql, name, i); err != nil {
			return err
		}
	}

	return nil
}

func Down_20240422155000(tx *sql.Tx) error {
	sql := `
		DELETE FROM budget_status_categories WHERE name = ?
`

	for _, name := range builtinStatusCategories {
		if _, err := tx.Exec(sql, name); err != nil {
			return err
		}
	}

	return nil
}
