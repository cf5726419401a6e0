package goose

import (
	"database/sql"
	"fmt"
)

// SqlDialect abstracts the details of specific SQL dialects for goose's
// version table bookkeeping.
type SqlDialect interface {
	createVersionTableSql(tableName string) string // sql string to create the db version table
	insertVersionSql(tableName string) string      // sql string to insert the initial version table row
	dbVersionQuery(db *sql.DB, tableName string) (*sql.Rows, error)
}

// MySqlDialect is the SqlDialect for MySQL.
type MySqlDialect struct{}

func (m MySqlDialect) createVersionTableSql(tableName string) string {
	return fmt.Sprintf(`CREATE TABLE %s (
                id serial NOT NULL,
                version_id bigint NOT NULL,
                is_applied boolean NOT NULL,
                tstamp timestamp NULL default now(),
                PRIMARY KEY(id)
            );`, tableName)
}

func (m MySqlDialect) insertVersionSql(tableName string) string {
	return fmt.Sprintf("INSERT INTO %s (version_id, is_applied) VALUES (?, ?);", tableName)
}

func (m MySqlDialect) dbVersionQuery(db *sql.DB, tableName string) (*sql.Rows, error) {
	rows, err := db.Query(fmt.Sprintf("SELECT version_id, is_applied from %s ORDER BY id DESC", tableName))
	if err != nil {
		return nil, err
	}

	return rows, err
}
