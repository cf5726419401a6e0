package data

import "github.com/zmcdonald6/bta2.0/server/goose"

var MigrationClient = goose.New("migration_status_data", goose.MySqlDialect{})
