package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"dcmtag2table/api"
	"dcmtag2table/api/app"
	"dcmtag2table/database"
	"dcmtag2table/logging"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Serve accepts DICOM uploads on POST /tags and POST /preview and, when a
database is configured, serves the catalog below /catalog.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	flags := cmd.Flags()
	flags.String("addr", ":8080", "listen address")
	flags.Bool("cors", false, "enable CORS")
	flags.Int64("max-upload-size", app.DefaultMaxUploadSize, "largest accepted request body in bytes")
	flags.Duration("timeout", 0, "request timeout (default 15s)")
	viper.BindPFlag("serve_addr", flags.Lookup("addr"))
	viper.BindPFlag("serve_cors", flags.Lookup("cors"))
	viper.BindPFlag("serve_max_upload_size", flags.Lookup("max-upload-size"))
	viper.BindPFlag("serve_timeout", flags.Lookup("timeout"))

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := logging.NewLogger()
	logger.Out = cmd.ErrOrStderr()

	opts := api.Options{
		EnableCORS:    viper.GetBool("serve_cors"),
		Timeout:       viper.GetDuration("serve_timeout"),
		MaxUploadSize: viper.GetInt64("serve_max_upload_size"),
		Logger:        logger,
	}

	if database.Configured() {
		db, err := database.DBConn()
		if err != nil {
			logger.WithField("module", "database").Error(err)
			return err
		}
		defer db.Close()
		catalog := database.NewCatalog(db)
		opts.Studies = catalog.Studies
		opts.Series = catalog.Series
		opts.Instances = catalog.Instances
	}

	router, err := api.New(opts)
	if err != nil {
		return err
	}
	return api.NewServer(viper.GetString("serve_addr"), router, logger).Start(context.Background())
}
