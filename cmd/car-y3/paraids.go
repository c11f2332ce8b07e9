package main

import (
	"github.com/spf13/cobra"

	"github.com/cartools/car-y3/internal/corpus"
)

func paraIDsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "para-ids",
		Short: "Write the list of valid paragraph ids from a corpus",
		Long: `Para-ids streams the paragraph corpus and writes one paragraph id
per line. The resulting list feeds the id check of "car-y3 validate"
without another pass over the corpus.`,
		RunE: runParaIDs,
	}

	cmd.Flags().String("corpus", "", "Paragraph corpus cbor file (required)")
	cmd.Flags().StringP("output", "o", "", "Output file, compressed when the name ends in .xz or .gz")
	_ = cmd.MarkFlagRequired("corpus")

	return cmd
}

func runParaIDs(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}

	corpusPath, _ := cmd.Flags().GetString("corpus")
	outPath, _ := cmd.Flags().GetString("output")
	if outPath == "" {
		outPath = cfg.Validate.IDListFile
	}

	n, err := corpus.WriteIDList(corpusPath, outPath)
	if err != nil {
		return err
	}
	log.Info("paragraph id list written", "path", outPath, "ids", n)
	return nil
}
