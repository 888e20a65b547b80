package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"dcmtag2table/database"
	"dcmtag2table/database/migrate"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate [init|up|down|reset|version|set_version VERSION]",
		Short: "Apply catalog database migrations",
		Long: `Migrate runs the catalog schema migrations. Run "migrate init" once to
create the migrations table, then "migrate" or "migrate up".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			migrate.SetLogger(commandLogger(cmd))

			db, err := database.DBConn()
			if err != nil {
				return err
			}
			defer db.Close()

			_, version, err := migrate.Migrate(db, args...)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "VERSION=%d\n", version)
			return nil
		},
	}
}
