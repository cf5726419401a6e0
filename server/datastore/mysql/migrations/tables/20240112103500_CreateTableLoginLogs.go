package tables

import (
	"database/sql"

	"github.com/pkg/errors"
)

func init() {
	MigrationClient.AddMigration(Up_20240112103500, Down_20240112103500)
}

func Up_20240112103500(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS loginlogs (
			id INT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			email VARCHAR(255) NOT NULL,
			activity_type VARCHAR(100) NOT NULL,
			ip_address VARCHAR(45) NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			KEY idx_loginlogs_email (email)
		) DEFAULT CHARSET = utf8mb4 COLLATE = utf8mb4_unicode_ci;
	`)
	if err != nil {
		return errors.Wrap(err, "create table loginlogs")
	}

	return nil
}

func Down_20240112103500(tx *sql.Tx) error {
	return nil
}
