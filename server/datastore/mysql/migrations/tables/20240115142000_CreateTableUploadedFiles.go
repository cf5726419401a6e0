package tables

import (
	"database/sql"

	"github.com/pkg/errors"
)

func init() {
	MigrationClient.AddMigration(Up_20240115142000, Down_20240115142000)
}

func Up_20240115142000(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS uploadedfiles (
			id INT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			file_name VARCHAR(255) NOT NULL,
			file_type VARCHAR(50) NOT NULL,
			uploader_email VARCHAR(255) NOT NULL,
			upload_date TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			file_url TEXT NOT NULL,
			UNIQUE KEY idx_uploadedfiles_file_name (file_name)
		) DEFAULT CHARSET = utf8mb4 COLLATE = utf8mb4_unicode_ci;
	`)
	if err != nil {
		return errors.Wrap(err, "create table uploadedfiles")
	}

	return nil
}

func Down_20240115142000(tx *sql.Tx) error {
	return nil
}
