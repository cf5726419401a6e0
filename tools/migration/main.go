// Command migration scaffolds a new empty schema migration and its test
// file under server/datastore/mysql/migrations/tables. Run it from the root
// of the repository:
//
//	go run ./tools/migration -name AddSomethingToSomeTable
package main

import (
	"errors"
	"flag"
	"log"
	"os"

	"github.com/zmcdonald6/bta2.0/server/goose"
)

func main() {
	var (
		name = flag.String("name", "", "Name of the migration, in CamelCase (required).")
		dir  = flag.String("dir", "server/datastore/mysql/migrations/tables", "Directory to write the migration files to.")
	)

	flag.Parse()
	if *name == "" {
		log.Println("The --name flag is required.")
		flag.Usage()
		return
	}

	if _, err := os.Stat(*dir); errors.Is(err, os.ErrNotExist) {
		log.Fatalf("The migrations directory '%s' does not exist, make sure you run this command from the root of the repository", *dir)
	}

	if err := goose.Create(nil, *dir, *name, "go"); err != nil {
		log.Fatalf("Error creating migration files: %v", err)
	}
}
