package cmd

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"dcmtag2table/index"
	"dcmtag2table/table"
)

func newIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index TABLE",
		Short: "Build inverted indexes from an exported CSV table",
		Long: `Index writes, for each indexed column of TABLE, a JSON file mapping every
value to the key column values of the rows holding it, plus index.json listing
the values found per file. Without --tags every column but Filename and the
key column is indexed.`,
		Args: cobra.ExactArgs(1),
		RunE: runIndex,
	}

	flags := cmd.Flags()
	flags.StringSlice("tags", nil, "columns to index")
	flags.String("key", index.DefaultKeyColumn, "column identifying rows")
	flags.StringSlice("missing", nil, "additional cell values treated as absent")
	flags.String("output-dir", "index", "directory receiving the index files")
	viper.BindPFlag("index_tags", flags.Lookup("tags"))
	viper.BindPFlag("index_key", flags.Lookup("key"))
	viper.BindPFlag("index_missing", flags.Lookup("missing"))
	viper.BindPFlag("index_output_dir", flags.Lookup("output-dir"))

	return cmd
}

func runIndex(cmd *cobra.Command, args []string) error {
	log := commandLogger(cmd)
	key := viper.GetString("index_key")

	tags := viper.GetStringSlice("index_tags")
	if len(tags) == 0 {
		header, err := readHeader(args[0])
		if err != nil {
			return err
		}
		for _, column := range header {
			if column != table.FilenameHeader && column != key {
				tags = append(tags, column)
			}
		}
	}

	in, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer in.Close()

	indexes, err := index.Build(in, tags, key, viper.GetStringSlice("index_missing")...)
	if err != nil {
		return fmt.Errorf("index %s: %w", args[0], err)
	}
	written, err := index.Write(viper.GetString("index_output_dir"), indexes)
	if err != nil {
		return err
	}

	log.WithField("tags", len(tags)).Info("indexes written")
	for _, path := range written {
		fmt.Fprintln(cmd.OutOrStdout(), path)
	}
	return nil
}

func readHeader(path string) ([]string, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	header, err := csv.NewReader(in).Read()
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}
	return header, nil
}
