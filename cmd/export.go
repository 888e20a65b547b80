package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"dcmtag2table/fs"
	"dcmtag2table/metrics"
	"dcmtag2table/table"
)

var errNoInput = errors.New("either --manifest or --dir is required")

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export selected tags of many DICOM files to a CSV table",
		Long: `Export loads every DICOM file listed in a JSON manifest or found below a
directory and writes one CSV row per file with the requested tags. Files that
are not DICOM are skipped. The output path and row count are printed as
CSV_OUTPUT=<path> and ROW_COUNT=<n>. With --append the rows are added to an
existing table with the same columns instead.`,
		Args: cobra.NoArgs,
		RunE: runExport,
	}

	flags := cmd.Flags()
	flags.String("manifest", "", "JSON manifest listing the files to export")
	flags.String("dir", "", "directory searched recursively for files to export")
	flags.String("tags-file", "", "file with one tag keyword or code per line (default tags when absent)")
	flags.String("output-dir", ".", "directory receiving the CSV table")
	flags.Int("max-workers", runtime.NumCPU(), "number of files loaded concurrently")
	flags.String("append", "", "CSV table to append the rows to instead of writing a new one")
	viper.BindPFlag("export_manifest", flags.Lookup("manifest"))
	viper.BindPFlag("export_dir", flags.Lookup("dir"))
	viper.BindPFlag("export_tags_file", flags.Lookup("tags-file"))
	viper.BindPFlag("export_output_dir", flags.Lookup("output-dir"))
	viper.BindPFlag("export_max_workers", flags.Lookup("max-workers"))
	viper.BindPFlag("export_append", flags.Lookup("append"))

	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	runID := uuid.NewString()
	log := commandLogger(cmd).WithField("run", runID)

	files, err := inputFiles(viper.GetString("export_manifest"), viper.GetString("export_dir"))
	if err != nil {
		return err
	}
	tags, err := table.LoadTagList(viper.GetString("export_tags_file"))
	if err != nil {
		return err
	}
	entry := log.WithField("files", len(files)).WithField("tags", len(tags))
	if dir := viper.GetString("export_dir"); dir != "" && viper.GetString("export_manifest") == "" {
		if size, err := fs.FolderSize(dir); err == nil {
			entry = entry.WithField("bytes", size)
		}
	}
	entry.Info("export started")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	extractor := table.NewExtractor(viper.GetInt("export_max_workers"), log, metrics.New())
	result, err := extractor.Extract(ctx, files, tags)
	if err != nil {
		return err
	}

	path, err := writeTable(result, viper.GetString("export_append"), viper.GetString("export_output_dir"))
	if err != nil {
		return err
	}

	log.WithField("rows", len(result.Rows)).WithField("skipped", len(result.Skipped)).Info("export finished")
	fmt.Fprintf(cmd.OutOrStdout(), "CSV_OUTPUT=%s\nROW_COUNT=%d\n", path, len(result.Rows))
	return nil
}

func writeTable(result *table.Table, appendTo, outputDir string) (string, error) {
	if appendTo != "" {
		if err := result.AppendCSV(appendTo); err != nil {
			return "", fmt.Errorf("append to %s: %w", appendTo, err)
		}
		return appendTo, nil
	}

	if err := os.MkdirAll(outputDir, os.ModePerm); err != nil {
		return "", err
	}
	path := table.OutputPath(outputDir, time.Now())
	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := result.WriteCSV(out); err != nil {
		out.Close()
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, out.Close()
}

func inputFiles(manifest, dir string) ([]string, error) {
	switch {
	case manifest != "":
		return table.LoadManifest(manifest)
	case dir != "":
		if !fs.Exists(dir) {
			return nil, fmt.Errorf("directory %s does not exist", dir)
		}
		return fs.ListFiles(dir)
	}
	return nil, errNoInput
}
