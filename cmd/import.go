package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"dcmtag2table/database"
	"dcmtag2table/dicom"
	"dcmtag2table/fs"
)

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [FILE...]",
		Short: "Record DICOM files in the PostgreSQL catalog",
		RunE:  runImport,
	}

	flags := cmd.Flags()
	flags.String("dir", "", "directory searched recursively for files to import")
	flags.String("store-dir", "", "copy imported files below this directory")
	viper.BindPFlag("import_dir", flags.Lookup("dir"))
	viper.BindPFlag("import_store_dir", flags.Lookup("store-dir"))

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	log := commandLogger(cmd)

	files := args
	if dir := viper.GetString("import_dir"); dir != "" {
		listed, err := fs.ListFiles(dir)
		if err != nil {
			return err
		}
		files = append(files, listed...)
	}
	if len(files) == 0 {
		return fmt.Errorf("no files to import")
	}

	db, err := database.DBConn()
	if err != nil {
		return err
	}
	defer db.Close()

	catalog := database.NewCatalog(db)
	catalog.StoreDir = viper.GetString("import_store_dir")

	var imported, skipped int
	for _, path := range files {
		obj, err := dicom.Load(path, false)
		if err != nil {
			log.WithField("file", path).WithError(err).Warn("skipping file")
			skipped++
			continue
		}
		instance, err := catalog.Import(obj)
		if err != nil {
			return fmt.Errorf("import %s: %w", path, err)
		}
		log.WithField("file", path).WithField("sop_instance_uid", instance.SOPInstanceUID).Debug("imported")
		imported++
	}

	fmt.Fprintf(cmd.OutOrStdout(), "IMPORTED=%d\nSKIPPED=%d\n", imported, skipped)
	return nil
}
