package cmd

import (
	"encoding/json"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"dcmtag2table/dicom"
)

func newTagsCmd() *cobra.Command {
	var decodePixelData bool

	cmd := &cobra.Command{
		Use:   "tags FILE",
		Short: "Print the tags of one DICOM file as DICOM JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := commandLogger(cmd)

			obj, err := dicom.Load(args[0], decodePixelData)
			if err != nil {
				return err
			}
			if decodePixelData {
				stats := obj.PixelData().Stats()
				log.WithFields(logrus.Fields{
					"frames": len(obj.PixelData().Frames),
					"count":  stats.Count,
					"min":    stats.Min,
					"max":    stats.Max,
					"mean":   stats.Mean,
				}).Info("pixel data decoded")
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(obj)
		},
	}

	cmd.Flags().BoolVar(&decodePixelData, "pixels", false, "decode pixel data")
	return cmd
}
