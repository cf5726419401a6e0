package tables

import (
	"database/sql"

	"github.com/pkg/errors"
)

func init() {
	MigrationClient.AddMigration(Up_20240422153000, Down_20240422153000)
}

func Up_20240422153000(tx *sql.Tx) error {
	// Key lengths keep the unique index under the 3072 byte limit for
	// utf8mb4 columns.
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS budget_state (
			id INT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			file_name VARCHAR(255) NOT NULL,
			category VARCHAR(255) NOT NULL,
			subcategory VARCHAR(255) NOT NULL,
			month VARCHAR(20) NOT NULL,
			amount DECIMAL(12, 2) NOT NULL DEFAULT 0,
			status_category VARCHAR(100) DEFAULT NULL,
			updated_by VARCHAR(255) NOT NULL DEFAULT '',
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			UNIQUE KEY unique_budget_line (file_name(100), category(100), subcategory(100), month)
		) DEFAULT CHARSET = utf8mb4 COLLATE = utf8mb4_unicode_ci;
	`)
	if err != nil {
		return errors.Wrap(err, "create table budget_state")
	}

	return nil
}

func Down_20240422153000(tx *sql.Tx) error {
	return nil
}
