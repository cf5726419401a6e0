package tables

import (
	"database/sql"

	"github.com/pkg/errors"
)

func init() {
	MigrationClient.AddMigration(Up_20240513120500, Down_20240513120500)
}

func Up_20240513120500(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS active_budget (
			id INT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			file_name VARCHAR(255) NOT NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
		) DEFAULT CHARSET = utf8mb4 COLLATE = utf8mb4_unicode_ci;
	`)
	if err != nil {
		return errors.Wrap(err, "create table active_budget")
	}

	return nil
}

func Down_20240513120500(tx *sql.Tx) error {
	return nil
}
