package goose

import (
	"database/sql"
	"fmt"
	"os"
	"text/template"
	"time"
)

// Create writes a new blank migration file.
func Create(db *sql.DB, dir, name, migrationType string) error {
	paths, err := CreateMigration(name, migrationType, dir, time.Now())
	if err != nil {
		return err
	}
	fmt.Printf("Created %s migration files at %v\n", migrationType, paths)

	return nil
}

func writeTemplateToFile(path string, t *template.Template, data interface{}) (string, error) {
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := t.Execute(f, data); err != nil {
		return "", err
	}

	return f.Name(), nil
}
