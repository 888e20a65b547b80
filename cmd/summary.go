package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"dcmtag2table/fs"
	"dcmtag2table/table"
)

func newSummaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary TABLE",
		Short: "Summarize an exported CSV table",
		Long: `Summary prints the number of files, distinct patients, studies and series,
the files per modality and the patient age range of TABLE as KEY=value lines.
With --unique-values the distinct values of every column are also written to
a JSON file.`,
		Args: cobra.ExactArgs(1),
		RunE: runSummary,
	}

	flags := cmd.Flags()
	flags.String("unique-values", "", "JSON file receiving the distinct values per column")
	viper.BindPFlag("summary_unique_values", flags.Lookup("unique-values"))

	return cmd
}

func runSummary(cmd *cobra.Command, args []string) error {
	log := commandLogger(cmd)

	in, err := os.Open(args[0])
	if err != nil {
		return err
	}
	result, err := table.ReadCSV(in)
	in.Close()
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}

	if path := viper.GetString("summary_unique_values"); path != "" {
		data, err := json.MarshalIndent(result.UniqueValues(), "", "  ")
		if err != nil {
			return err
		}
		if err := fs.Save(path, append(data, '\n')); err != nil {
			return err
		}
		log.WithField("path", path).Info("unique values written")
	}

	s := result.Summarize()
	modalities := make([]string, 0, len(s.Modalities))
	for modality, n := range s.Modalities {
		modalities = append(modalities, fmt.Sprintf("%s:%d", modality, n))
	}
	sort.Strings(modalities)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "FILES=%d\nPATIENTS=%d\nSTUDIES=%d\nSERIES=%d\nMODALITIES=%s\n",
		s.Files, s.Patients, s.Studies, s.Series, strings.Join(modalities, ","))
	if s.Ages > 0 {
		fmt.Fprintf(out, "AGE_MIN=%d\nAGE_MAX=%d\n", s.AgeMin, s.AgeMax)
	}
	return nil
}
