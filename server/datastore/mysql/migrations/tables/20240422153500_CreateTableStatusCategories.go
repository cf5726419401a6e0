package tables

import (
	"database/sql"

	"github.com/pkg/errors"
)

func init() {
	MigrationClient.AddMigration(Up_20240422153500, Down_20240422153500)
}

func Up_20240422153500(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS budget_status_categories (
			id INT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(100) NOT NULL,
			sort_order INT NOT NULL DEFAULT 0,
			UNIQUE KEY idx_budget_status_categories_name (name)
		) DEFAULT CHARSET = utf8mb4 COLLATE = utf8mb4_unicode_ci;
	`)
	if err != nil {
		return errors.Wrap(err, "create table budget_status_categories")
	}

	return nil
}

func Down_20240422153500(tx *sql.Tx) error {
	return nil
}
