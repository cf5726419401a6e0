package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/WatchBeam/clock"
	"github.com/spf13/cobra"
	"github.com/zmcdonald6/bta2.0/server/bta"
	"github.com/zmcdonald6/bta2.0/server/config"
	"github.com/zmcdonald6/bta2.0/server/datastore/mysql"
	"golang.org/x/crypto/bcrypt"
)

func createPrepareCmd(configManager config.Manager) *cobra.Command {
	prepareCmd := &cobra.Command{
		Use:   "prepare",
		Short: "Subcommands for initializing bta infrastructure",
		Long: `
Subcommands for initializing bta infrastructure

To setup bta infrastructure, use one of the available commands.
`,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	noPrompt := false

	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Given correct database configurations, prepare the databases for use",
		Long:  ``,
		Run: func(cmd *cobra.Command, args []string) {
			config := configManager.LoadConfig()
			logger := initLogger(config)

			ds, err := mysql.New(config.Mysql, clock.C, mysql.Logger(logger))
			if err != nil {
				initFatal(err, "creating db connection")
			}
			defer ds.Close()

			status, err := ds.MigrationStatus(cmd.Context())
			if err != nil {
				initFatal(err, "retrieving migration status")
			}

			prepareMigrationStatusCheck(status, noPrompt, config.Upgrades.AllowMissingMigrations, config.Mysql.Database)

			if err := ds.MigrateTables(cmd.Context()); err != nil {
				initFatal(err, "migrating db schema")
			}

			if err := ds.MigrateData(cmd.Context()); err != nil {
				initFatal(err, "migrating builtin data")
			}

			fmt.Println("Migrations completed.")

			if config.Admin.Email != "" {
				hashed, err := bcrypt.GenerateFromPassword(
					[]byte(config.Admin.Password), config.Auth.BcryptCost)
				if err != nil {
					initFatal(err, "hashing admin password")
				}
				if err := ds.SeedAdminUser(cmd.Context(),
					config.Admin.Name, config.Admin.Username,
					config.Admin.Email, string(hashed),
				); err != nil {
					initFatal(err, "seeding admin user")
				}
				fmt.Printf("Admin account %q is ready.\n", config.Admin.Email)
			}
		},
	}

	dbCmd.PersistentFlags().BoolVar(&noPrompt, "no-prompt", false, "disable prompting before migrations (for use in scripts)")

	prepareCmd.AddCommand(dbCmd)

	return prepareCmd
}

// shouldPromptForMigrations reports whether `prepare db` must ask for
// confirmation before migrating a partially migrated database. Scripted
// deployments pass --no-prompt; deployments configured with
// upgrades.allow_missing_migrations already tolerate a database that is
// behind, so they are not asked either.
func shouldPromptForMigrations(status *bta.MigrationStatus, noPrompt, allowMissing bool) bool {
	return status.StatusCode == bta.SomeMigrationsCompleted && !noPrompt && !allowMissing
}

func prepareMigrationStatusCheck(status *bta.MigrationStatus, noPrompt, allowMissing bool, dbName string) {
	switch status.StatusCode {
	case bta.NoMigrationsCompleted:
		// OK
	case bta.AllMigrationsCompleted:
		fmt.Printf("Migrations already completed for %q. Nothing to do.\n", dbName)
		return
	case bta.SomeMigrationsCompleted:
		if shouldPromptForMigrations(status, noPrompt, allowMissing) {
			fmt.Printf("################################################################################\n"+
				"# WARNING:\n"+
				"#   This will perform %q database migrations. Please back up your data before\n"+
				"#   continuing.\n"+
				"#\n"+
				"#   Missing migrations: tables=%v, data=%v.\n"+
				"#\n"+
				"#   Press Enter to continue, or Control-c to exit.\n"+
				"################################################################################\n",
				dbName, status.MissingTable, status.MissingData)
			bufio.NewScanner(os.Stdin).Scan()
		}
	case bta.UnknownMigrations:
		fmt.Printf("################################################################################\n"+
			"# WARNING:\n"+
			"#   Your %q database has unrecognized migrations. This could happen when\n"+
			"#   running an older version of bta on a newer migrated database.\n"+
			"#\n"+
			"#   Unknown migrations: tables=%v, data=%v.\n"+
			"################################################################################\n",
			dbName, status.UnknownTable, status.UnknownData)
	}
}
